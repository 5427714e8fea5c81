package console

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/trafficmon/trafficmon/internal/session"
)

const (
	sessionCookieName = "trafficmon_session"
	cookiePath        = "/console"
	loginPath         = "/console/login"
)

// Auth resolves the session cookie to a stored session and guards protected
// routes.
type Auth struct {
	store   session.Store
	limiter *loginLimiter
	secure  bool
	ttl     time.Duration
}

// NewAuth creates the console authenticator.
func NewAuth(store session.Store, ttl time.Duration, secure bool, attemptsPerMinute, burst int) *Auth {
	return &Auth{
		store:   store,
		limiter: newLoginLimiter(attemptsPerMinute, burst),
		secure:  secure,
		ttl:     ttl,
	}
}

// Require redirects requests without a live session to the login view and
// passes the session to next through the request context.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.lookup(r)
		if err != nil {
			a.clearCookie(w)
			redirectToLogin(w, r, "")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func (a *Auth) lookup(r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, session.ErrNotFound
	}
	sess, err := a.store.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil, err
	}
	if sess.Token == "" {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

// start stores a new session and sets its cookie.
func (a *Auth) start(ctx context.Context, w http.ResponseWriter, token, username string) (*session.Session, error) {
	sess := session.New(token, username, a.ttl, time.Now())
	if err := a.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     cookiePath,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   a.secure,
	}
	if !sess.ExpiresAt.IsZero() {
		cookie.Expires = sess.ExpiresAt
	}
	http.SetCookie(w, cookie)
	return sess, nil
}

// end deletes the request's session, if any, and clears the cookie.
func (a *Auth) end(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	defer a.clearCookie(w)
	sess, err := a.lookup(r)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_, err = a.store.Delete(r.Context(), sess.ID)
	return sess, err
}

func (a *Auth) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     cookiePath,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   a.secure,
		MaxAge:   -1,
	})
}

// redirectToLogin sends the browser to the login view. HTMX requests get an
// HX-Redirect so the whole page navigates instead of swapping the login form
// into a table.
func redirectToLogin(w http.ResponseWriter, r *http.Request, reason string) {
	target := loginPath
	if reason != "" {
		target += "?" + reason + "=1"
	}
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}
