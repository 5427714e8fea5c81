// Package i18n holds the operator-facing message catalogs of the console.
package i18n

import "fmt"

type Key string

const (
	// Page and navigation
	TitleLogin      Key = "title.login"
	NavMain         Key = "nav.main"
	NavIncidents    Key = "nav.incidents"
	NavRules        Key = "nav.rules"
	NavMonitoring   Key = "nav.monitoring"
	NavLogout       Key = "nav.logout"
	CardIncidents   Key = "card.active_incidents"
	CardCritical    Key = "card.critical_events"
	CardNetworkLoad Key = "card.network_load"
	TableTopTraffic Key = "table.top_traffic"
	TableFlows      Key = "table.flows"

	// Table cells
	CellNoData     Key = "cell.no_data"
	CellNoIncident Key = "cell.no_incidents"
	CellNoRules    Key = "cell.no_rules"
	CellNone       Key = "cell.none"
	RuleAuto       Key = "rule.auto"
	RuleManual     Key = "rule.manual"
	SevCritical    Key = "severity.critical"
	SevWarning     Key = "severity.warning"
	SevInfo        Key = "severity.info"

	// Row actions
	ActionOpen      Key = "action.open"
	ActionClose     Key = "action.close"
	ActionEdit      Key = "action.edit"
	ActionDelete    Key = "action.delete"
	ActionBlock     Key = "action.block"
	ActionRefresh   Key = "action.refresh"
	ActionCapture   Key = "action.capture"
	ActionCreate    Key = "action.create_rule"
	ConfirmClose    Key = "confirm.close_incident"
	ConfirmDelete   Key = "confirm.delete_rule"
	ConfirmBlock    Key = "confirm.block_ip"
	ConfirmCapture  Key = "confirm.capture"
	DateTimeLayout  Key = "layout.datetime"
	MsgLoading      Key = "msg.loading"
	MsgClosed       Key = "msg.incident_closed"
	MsgRuleCreated  Key = "msg.rule_created"
	MsgCaptureDone  Key = "msg.capture_done"
	MsgNotSupported Key = "msg.not_supported"
	MsgLoggedOut    Key = "msg.logged_out"
	MsgLoginNeeded  Key = "msg.login_needed"
	HintKeys        Key = "hint.keys"
	HintConfirm     Key = "hint.confirm"

	// Errors
	ErrBadCredentials     Key = "error.bad_credentials"
	ErrConnection         Key = "error.connection"
	ErrMissingCredentials Key = "error.missing_credentials"
	ErrTooManyAttempts    Key = "error.too_many_attempts"
	ErrLoadFailed         Key = "error.load_failed"
	ErrCloseFailed        Key = "error.close_failed"
	ErrCaptureFailed      Key = "error.capture_failed"
	ErrRuleInvalid        Key = "error.rule_invalid"
	ErrRuleFailed         Key = "error.rule_failed"
	ErrInvalidIP          Key = "error.invalid_ip"
	ErrSessionExpired     Key = "error.session_expired"
	ErrNotFound           Key = "error.not_found"
)

type Lang string

const (
	RU_RU Lang = "ru-RU"
	EN_US Lang = "en-US"
)

// Default is the console language when neither the config nor the request
// asks for another one.
const Default = RU_RU

var catalogs = map[Lang]map[Key]string{
	RU_RU: ruRU,
	EN_US: enUS,
}

// Supported reports whether a catalog exists for lang.
func Supported(lang Lang) bool {
	_, ok := catalogs[lang]
	return ok
}

// T returns the message for key in lang, falling back to the key itself so
// missing translations are visible.
func T(lang Lang, key Key) string {
	if cat, ok := catalogs[lang]; ok {
		if v, ok := cat[key]; ok {
			return v
		}
	}
	return string(key)
}

// Tf formats the message for key with args.
func Tf(lang Lang, key Key, args ...any) string {
	return fmt.Sprintf(T(lang, key), args...)
}

// Translator binds a language so templates can call {{.T.Get "key"}}.
type Translator struct {
	Lang Lang
}

func (t Translator) Get(key Key) string {
	return T(t.Lang, key)
}
