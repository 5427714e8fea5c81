package i18n

import (
	"net/http"
	"strings"
)

// DetectLang picks the catalog for a request. An explicit "lang" cookie wins,
// then the first supported Accept-Language tag, then fallback.
func DetectLang(r *http.Request, fallback Lang) Lang {
	if c, err := r.Cookie("lang"); err == nil && Supported(Lang(c.Value)) {
		return Lang(c.Value)
	}

	al := r.Header.Get("Accept-Language")
	for _, part := range strings.Split(al, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		switch {
		case strings.HasPrefix(tag, "ru"):
			return RU_RU
		case strings.HasPrefix(tag, "en"):
			return EN_US
		}
	}
	return fallback
}
