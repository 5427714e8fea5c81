package i18n

var enUS = map[Key]string{
	TitleLogin:      "Monitoring Console Login",
	NavMain:         "Overview",
	NavIncidents:    "Incidents",
	NavRules:        "Rules",
	NavMonitoring:   "Monitoring",
	NavLogout:       "Log out",
	CardIncidents:   "Active incidents",
	CardCritical:    "Critical events",
	CardNetworkLoad: "Network load",
	TableTopTraffic: "Top traffic (MB)",
	TableFlows:      "Active flows",

	CellNoData:     "No data",
	CellNoIncident: "No incidents",
	CellNoRules:    "No rules",
	CellNone:       "None",
	RuleAuto:       "Auto",
	RuleManual:     "Manual",
	SevCritical:    "Critical",
	SevWarning:     "Warning",
	SevInfo:        "Info",

	ActionOpen:      "Open",
	ActionClose:     "Close",
	ActionEdit:      "Edit",
	ActionDelete:    "Delete",
	ActionBlock:     "Block",
	ActionRefresh:   "Refresh",
	ActionCapture:   "Start capture",
	ActionCreate:    "Create rule",
	ConfirmClose:    "Close incident #%d?",
	ConfirmDelete:   "Delete rule #%d?",
	ConfirmBlock:    "Block IP %s?",
	ConfirmCapture:  "Start traffic capture? This may take a while.",
	DateTimeLayout:  "01/02/2006, 15:04:05",
	MsgLoading:      "Refreshing...",
	MsgClosed:       "Incident closed",
	MsgRuleCreated:  "Rule created",
	MsgCaptureDone:  "Packets captured: %d, events processed: %d, incidents: %d",
	MsgNotSupported: "Action not supported by the server",
	MsgLoggedOut:    "Signed out",
	MsgLoginNeeded:  "Not signed in. Run `trafficmon login` and restart.",
	HintKeys:        "1-4/tab pages · r refresh · c close · b block · s capture · q quit",
	HintConfirm:     "%s [y/N]",

	ErrBadCredentials:     "Invalid credentials",
	ErrConnection:         "Cannot reach the server",
	ErrMissingCredentials: "Enter a username and password",
	ErrTooManyAttempts:    "Too many login attempts. Try again later.",
	ErrLoadFailed:         "Failed to load data",
	ErrCloseFailed:        "Failed to close the incident",
	ErrCaptureFailed:      "Traffic capture failed",
	ErrRuleInvalid:        "Invalid rule parameters",
	ErrRuleFailed:         "Failed to create the rule",
	ErrInvalidIP:          "Invalid IP address",
	ErrSessionExpired:     "Session expired, please sign in again",
	ErrNotFound:           "Not found",
}
