package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Incident statuses reported by the backend.
const (
	StatusDetected      = "Detected"
	StatusInvestigating = "Investigating"
	StatusMitigated     = "Mitigated"
	StatusClosed        = "Closed"
)

// Rule actions.
const (
	ActionDrop   = "DROP"
	ActionReject = "REJECT"
	ActionAccept = "ACCEPT"
)

// RuleTypeAuto marks rules created by the backend's response controller.
const RuleTypeAuto = "auto"

// Token is returned by POST /token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Incident is a security event as listed by GET /incidents.
type Incident struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Severity    int    `json:"severity"`
	SrcIP       string `json:"srcIP"`
	DstIP       string `json:"dstIP"`
	Status      string `json:"status"`
	Time        Time   `json:"time"`
	Description string `json:"description"`
}

// Closed reports whether the incident needs no further action.
func (i Incident) Closed() bool { return i.Status == StatusClosed }

// Rule is a filtering rule. SrcIP and DstIP are empty for "any".
type Rule struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Type       string `json:"type"`
	Severity   int    `json:"severity"`
	SrcIP      string `json:"srcIP,omitempty"`
	DstIP      string `json:"dstIP,omitempty"`
	Action     string `json:"action"`
	Expiration *Time  `json:"expiration,omitempty"`
}

// TrafficSample aggregates bytes between one source and destination over the
// last hour.
type TrafficSample struct {
	SrcIP string `json:"srcIP"`
	DstIP string `json:"dstIP"`
	Bytes int64  `json:"bytes"`
}

// SystemStatus is returned by GET /status.
type SystemStatus struct {
	ActiveIncidents int     `json:"active_incidents"`
	CriticalEvents  int     `json:"critical_events"`
	NetworkLoad     float64 `json:"network_load"`
	Status          string  `json:"status"`
}

// CaptureResult is returned by POST /capture/start.
type CaptureResult struct {
	Captured  int `json:"captured"`
	Processed int `json:"processed"`
	Incidents int `json:"incidents"`
}

// CloseResult is returned by POST /incidents/{id}/close.
type CloseResult struct {
	Status string `json:"status"`
}

// Time accepts the timestamp shapes the backend emits. Timestamps without a
// zone are taken as UTC.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
