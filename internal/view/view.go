// Package view turns backend resources into the rows, badges and cards the
// console front-ends render.
package view

import (
	"fmt"
	"math"

	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/internal/router"
	"github.com/trafficmon/trafficmon/sdk"
)

// Badge classes understood by the web stylesheet and the TUI palette.
const (
	BadgeCritical = "critical"
	BadgeWarning  = "warning"
	BadgeInfo     = "info"
	BadgeSuccess  = "success"
	BadgeDanger   = "danger"
)

// Badge is a colored label.
type Badge struct {
	Class string
	Label string
}

// SeverityBadge maps a numeric severity: 3 and above is critical, 2 is a
// warning, anything else informational.
func SeverityBadge(lang i18n.Lang, severity int) Badge {
	switch {
	case severity >= 3:
		return Badge{BadgeCritical, i18n.T(lang, i18n.SevCritical)}
	case severity == 2:
		return Badge{BadgeWarning, i18n.T(lang, i18n.SevWarning)}
	default:
		return Badge{BadgeInfo, i18n.T(lang, i18n.SevInfo)}
	}
}

// StatusBadge colors an incident status. The label is the status itself.
func StatusBadge(status string) Badge {
	switch status {
	case sdk.StatusClosed:
		return Badge{BadgeSuccess, status}
	case sdk.StatusMitigated:
		return Badge{BadgeInfo, status}
	default:
		return Badge{BadgeWarning, status}
	}
}

// ActionBadge colors a rule action; only DROP is shown as dangerous.
func ActionBadge(action string) Badge {
	if action == sdk.ActionDrop {
		return Badge{BadgeDanger, action}
	}
	return Badge{BadgeInfo, action}
}

// RuleTypeLabel is "Auto" for backend-generated rules and "Manual" otherwise.
func RuleTypeLabel(lang i18n.Lang, typ string) string {
	if typ == sdk.RuleTypeAuto {
		return i18n.T(lang, i18n.RuleAuto)
	}
	return i18n.T(lang, i18n.RuleManual)
}

// FormatMB renders a byte count as mebibytes with two decimals.
func FormatMB(bytes int64) string {
	return fmt.Sprintf("%.2f", float64(bytes)/1024/1024)
}

// FormatLoad renders network load as a whole percentage.
func FormatLoad(load float64) string {
	return fmt.Sprintf("%d%%", int64(math.Round(load)))
}

// FormatTime renders a timestamp in the language's date layout.
func FormatTime(lang i18n.Lang, t sdk.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(i18n.T(lang, i18n.DateTimeLayout))
}

func orAny(ip string) string {
	if ip == "" {
		return "*"
	}
	return ip
}

// Table is a page table. An empty or failed table carries exactly one
// message row instead of data rows.
type Table[R any] struct {
	Rows    []R
	Message string
	Failed  bool
}

// Empty reports whether the message row should be rendered.
func (t Table[R]) Empty() bool { return len(t.Rows) == 0 }

func tableOf[R any](rows []R, emptyMsg string) Table[R] {
	if len(rows) == 0 {
		return Table[R]{Message: emptyMsg}
	}
	return Table[R]{Rows: rows}
}

func failedTable[R any](msg string) Table[R] {
	return Table[R]{Message: msg, Failed: true}
}

// IncidentRow is one row of the incidents table.
type IncidentRow struct {
	ID          int64
	Type        string
	Severity    Badge
	SrcIP       string
	DstIP       string
	Status      Badge
	Time        string
	Description string
	Closable    bool
}

// IncidentRows converts incidents into rows. Closed incidents offer no
// Close action.
func IncidentRows(lang i18n.Lang, incidents []sdk.Incident) []IncidentRow {
	rows := make([]IncidentRow, 0, len(incidents))
	for _, inc := range incidents {
		rows = append(rows, IncidentRow{
			ID:          inc.ID,
			Type:        inc.Type,
			Severity:    SeverityBadge(lang, inc.Severity),
			SrcIP:       inc.SrcIP,
			DstIP:       inc.DstIP,
			Status:      StatusBadge(inc.Status),
			Time:        FormatTime(lang, inc.Time),
			Description: inc.Description,
			Closable:    !inc.Closed(),
		})
	}
	return rows
}

// RuleRow is one row of the rules table.
type RuleRow struct {
	ID         int64
	Name       string
	SrcIP      string
	DstIP      string
	Port       string
	Action     Badge
	Expiration string
	Type       string
}

// RuleRows converts rules into rows. Missing addresses and ports show as
// "*", a missing expiration as "None".
func RuleRows(lang i18n.Lang, rules []sdk.Rule) []RuleRow {
	rows := make([]RuleRow, 0, len(rules))
	for _, r := range rules {
		exp := i18n.T(lang, i18n.CellNone)
		if r.Expiration != nil && !r.Expiration.IsZero() {
			exp = FormatTime(lang, *r.Expiration)
		}
		rows = append(rows, RuleRow{
			ID:         r.ID,
			Name:       r.Name,
			SrcIP:      orAny(r.SrcIP),
			DstIP:      orAny(r.DstIP),
			Port:       "*",
			Action:     ActionBadge(r.Action),
			Expiration: exp,
			Type:       RuleTypeLabel(lang, r.Type),
		})
	}
	return rows
}

// TrafficRow is one source/destination pair; the monitoring page renders the
// same rows as blockable flows.
type TrafficRow struct {
	SrcIP string
	DstIP string
	Bytes int64
	MB    string
}

// TrafficRows converts traffic samples into rows.
func TrafficRows(samples []sdk.TrafficSample) []TrafficRow {
	rows := make([]TrafficRow, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, TrafficRow{SrcIP: s.SrcIP, DstIP: s.DstIP, Bytes: s.Bytes, MB: FormatMB(s.Bytes)})
	}
	return rows
}

// Cards are the three summary figures of the main page.
type Cards struct {
	ActiveIncidents string
	CriticalEvents  string
	NetworkLoad     string
	Status          string
}

const placeholder = "-"

// CardsOf builds cards from a status; a nil status yields placeholders.
func CardsOf(st *sdk.SystemStatus) Cards {
	if st == nil {
		return Cards{placeholder, placeholder, placeholder, ""}
	}
	return Cards{
		ActiveIncidents: fmt.Sprint(st.ActiveIncidents),
		CriticalEvents:  fmt.Sprint(st.CriticalEvents),
		NetworkLoad:     FormatLoad(st.NetworkLoad),
		Status:          st.Status,
	}
}

// MainView is the overview page.
type MainView struct {
	Cards   Cards
	Traffic Table[TrafficRow]
}

// Screen is the loaded content of one page. Only the field matching Page is
// set.
type Screen struct {
	Page       router.Page
	Main       *MainView
	Incidents  *Table[IncidentRow]
	Rules      *Table[RuleRow]
	Monitoring *Table[TrafficRow]
	// Unauthorized is set when the backend rejected the session while
	// loading; the front-end should return to the login view.
	Unauthorized bool
}

// Failed reports whether the page's data could not be loaded.
func (s Screen) Failed() bool {
	switch {
	case s.Main != nil:
		return s.Main.Traffic.Failed
	case s.Incidents != nil:
		return s.Incidents.Failed
	case s.Rules != nil:
		return s.Rules.Failed
	case s.Monitoring != nil:
		return s.Monitoring.Failed
	}
	return false
}
