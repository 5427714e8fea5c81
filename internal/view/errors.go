package view

import (
	"errors"

	"github.com/trafficmon/trafficmon/internal/actions"
	"github.com/trafficmon/trafficmon/internal/i18n"
	"github.com/trafficmon/trafficmon/sdk"
)

// ErrorMessage maps an error to the localized text shown to the operator.
// Errors without a specific message use fallback.
func ErrorMessage(lang i18n.Lang, err error, fallback i18n.Key) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, sdk.ErrUnauthorized):
		return i18n.T(lang, i18n.ErrSessionExpired)
	case errors.Is(err, sdk.ErrInvalidCredentials):
		return i18n.T(lang, i18n.ErrBadCredentials)
	case errors.Is(err, actions.ErrNotSupported):
		return i18n.T(lang, i18n.MsgNotSupported)
	case errors.Is(err, actions.ErrNotFound):
		return i18n.T(lang, i18n.ErrNotFound)
	case errors.Is(err, actions.ErrInvalidAddress):
		return i18n.T(lang, i18n.ErrInvalidIP)
	case errors.Is(err, actions.ErrInvalidRule):
		return i18n.T(lang, i18n.ErrRuleInvalid)
	case sdk.IsTransport(err):
		return i18n.T(lang, i18n.ErrConnection)
	}
	return i18n.T(lang, fallback)
}
