package audit

// Outcomes recorded for an operator action.
const (
	OutcomeOK           = "ok"
	OutcomeFailed       = "failed"
	OutcomeNotSupported = "not_supported"
	OutcomeLimited      = "rate_limited"
)

// Actions recorded in the trail.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionSessionExpired = "session_expired"
	ActionIncidentOpen   = "incident.open"
	ActionIncidentClose  = "incident.close"
	ActionRuleCreate     = "rule.create"
	ActionRuleEdit       = "rule.edit"
	ActionRuleDelete     = "rule.delete"
	ActionFlowBlock      = "flow.block"
	ActionCaptureStart   = "capture.start"
)

// TimeLayout is the timestamp format of stored entries. The fraction is fixed
// width so that timestamps sort as strings.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one operator action.
type Entry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"` // TimeLayout, UTC
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Target    string `json:"target,omitempty"`
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"`
}

// QueryOpts holds filters for audit trail queries.
type QueryOpts struct {
	Action string
	Actor  string
	Since  string
	Limit  int
}
