// Package actions implements the row commands of the console. Commands the
// backend has an endpoint for call it; the rest fail with ErrNotSupported.
// Every invocation is recorded in the audit trail.
package actions

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/trafficmon/trafficmon/internal/audit"
	"github.com/trafficmon/trafficmon/sdk"
)

var (
	// ErrNotSupported is returned by commands the backend exposes no
	// endpoint for.
	ErrNotSupported = errors.New("action not supported by the backend")
	// ErrNotFound is returned when a row id is not in the fresh listing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAddress is returned for malformed IP addresses.
	ErrInvalidAddress = errors.New("invalid IP address")
	// ErrInvalidRule is returned when a rule fails validation.
	ErrInvalidRule = errors.New("invalid rule")
)

// IncidentCommands act on incident rows.
type IncidentCommands interface {
	Open(ctx context.Context, id int64) (*sdk.Incident, error)
	Close(ctx context.Context, id int64) error
}

// RuleCommands act on rule rows.
type RuleCommands interface {
	Create(ctx context.Context, r sdk.Rule) (*sdk.Rule, error)
	Edit(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// FlowCommands act on monitoring rows.
type FlowCommands interface {
	Block(ctx context.Context, ip string) error
}

// CaptureCommands trigger packet capture.
type CaptureCommands interface {
	Start(ctx context.Context) (*sdk.CaptureResult, error)
}

// Backend is the part of the API client the commands need.
type Backend interface {
	Incidents(ctx context.Context) ([]sdk.Incident, error)
	CloseIncident(ctx context.Context, id int64) (*sdk.CloseResult, error)
	CreateRule(ctx context.Context, r sdk.Rule) (*sdk.Rule, error)
	StartCapture(ctx context.Context) (*sdk.CaptureResult, error)
}

// Recorder receives one audit record per command.
type Recorder interface {
	Record(actor, action, target, outcome, detail string)
}

// Commands implements every command interface for one operator.
type Commands struct {
	API   Backend
	Audit Recorder
	Actor string
}

var (
	_ IncidentCommands = (*Commands)(nil)
	_ RuleCommands     = (*Commands)(nil)
	_ FlowCommands     = (*Commands)(nil)
	_ CaptureCommands  = (*Commands)(nil)
)

// Open returns the incident with id from a fresh listing.
func (c *Commands) Open(ctx context.Context, id int64) (*sdk.Incident, error) {
	incidents, err := c.API.Incidents(ctx)
	if err != nil {
		c.record(audit.ActionIncidentOpen, idTarget(id), err)
		return nil, err
	}
	for i := range incidents {
		if incidents[i].ID == id {
			c.record(audit.ActionIncidentOpen, idTarget(id), nil)
			return &incidents[i], nil
		}
	}
	err = fmt.Errorf("incident %d: %w", id, ErrNotFound)
	c.record(audit.ActionIncidentOpen, idTarget(id), err)
	return nil, err
}

// Close marks the incident Closed on the backend.
func (c *Commands) Close(ctx context.Context, id int64) error {
	_, err := c.API.CloseIncident(ctx, id)
	c.record(audit.ActionIncidentClose, idTarget(id), err)
	if err != nil {
		return fmt.Errorf("closing incident %d: %w", id, err)
	}
	return nil
}

// Create validates and submits a new filtering rule.
func (c *Commands) Create(ctx context.Context, r sdk.Rule) (*sdk.Rule, error) {
	r, err := NormalizeRule(r)
	if err != nil {
		c.record(audit.ActionRuleCreate, r.Name, err)
		return nil, err
	}
	created, err := c.API.CreateRule(ctx, r)
	c.record(audit.ActionRuleCreate, r.Name, err)
	if err != nil {
		return nil, fmt.Errorf("creating rule: %w", err)
	}
	return created, nil
}

// Reject records a command refused before it reached the backend, such as a
// form that did not parse, and returns err.
func (c *Commands) Reject(action, target string, err error) error {
	c.record(action, target, err)
	return err
}

// Edit has no backend endpoint.
func (c *Commands) Edit(_ context.Context, id int64) error {
	c.record(audit.ActionRuleEdit, idTarget(id), ErrNotSupported)
	return ErrNotSupported
}

// Delete has no backend endpoint.
func (c *Commands) Delete(_ context.Context, id int64) error {
	c.record(audit.ActionRuleDelete, idTarget(id), ErrNotSupported)
	return ErrNotSupported
}

// Block validates ip; the backend has no endpoint to block it.
func (c *Commands) Block(_ context.Context, ip string) error {
	if _, err := netip.ParseAddr(strings.TrimSpace(ip)); err != nil {
		err = fmt.Errorf("%q: %w", ip, ErrInvalidAddress)
		c.record(audit.ActionFlowBlock, ip, err)
		return err
	}
	c.record(audit.ActionFlowBlock, ip, ErrNotSupported)
	return ErrNotSupported
}

// Start runs one capture batch on the backend.
func (c *Commands) Start(ctx context.Context) (*sdk.CaptureResult, error) {
	res, err := c.API.StartCapture(ctx)
	if err != nil {
		c.record(audit.ActionCaptureStart, "", err)
		return nil, fmt.Errorf("starting capture: %w", err)
	}
	if c.Audit != nil {
		c.Audit.Record(c.Actor, audit.ActionCaptureStart, "", audit.OutcomeOK,
			fmt.Sprintf("captured=%d processed=%d incidents=%d", res.Captured, res.Processed, res.Incidents))
	}
	return res, nil
}

func (c *Commands) record(action, target string, err error) {
	if c.Audit == nil {
		return
	}
	switch {
	case err == nil:
		c.Audit.Record(c.Actor, action, target, audit.OutcomeOK, "")
	case errors.Is(err, ErrNotSupported):
		c.Audit.Record(c.Actor, action, target, audit.OutcomeNotSupported, "")
	default:
		c.Audit.Record(c.Actor, action, target, audit.OutcomeFailed, err.Error())
	}
}

func idTarget(id int64) string {
	return strconv.FormatInt(id, 10)
}

// NormalizeRule fills defaults and validates r. Addresses may be single IPs
// or CIDR prefixes; empty means any.
// ParseSeverity reads a severity typed into a form.
func ParseSeverity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: severity %q is not a number", ErrInvalidRule, s)
	}
	return n, nil
}

func NormalizeRule(r sdk.Rule) (sdk.Rule, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Action = strings.ToUpper(strings.TrimSpace(r.Action))
	r.SrcIP = strings.TrimSpace(r.SrcIP)
	r.DstIP = strings.TrimSpace(r.DstIP)
	if r.Category == "" {
		r.Category = "custom"
	}
	if r.Type == "" {
		r.Type = "manual"
	}

	if r.Name == "" {
		return r, fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	switch r.Action {
	case sdk.ActionDrop, sdk.ActionReject, sdk.ActionAccept:
	default:
		return r, fmt.Errorf("%w: action must be DROP, REJECT or ACCEPT", ErrInvalidRule)
	}
	if r.Severity < 1 || r.Severity > 5 {
		return r, fmt.Errorf("%w: severity must be between 1 and 5", ErrInvalidRule)
	}
	for _, addr := range []string{r.SrcIP, r.DstIP} {
		if addr == "" || addr == "*" {
			continue
		}
		if _, err := netip.ParseAddr(addr); err == nil {
			continue
		}
		if _, err := netip.ParsePrefix(addr); err == nil {
			continue
		}
		return r, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	if r.SrcIP == "*" {
		r.SrcIP = ""
	}
	if r.DstIP == "*" {
		r.DstIP = ""
	}
	return r, nil
}
