// Package session holds the operator's bearer token between login and
// logout (or the first 401 from the backend).
package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when no live session exists for an id.
var ErrNotFound = errors.New("session not found")

// Session is an authenticated console session.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// New creates a session for a freshly issued token. The expiry comes from the
// token's exp claim when it is a JWT, otherwise from ttl (0 = no expiry).
func New(token, username string, ttl time.Duration, now time.Time) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		Username:  username,
		CreatedAt: now.UTC(),
	}
	if exp, ok := ExpiryFromToken(token); ok {
		s.ExpiresAt = exp.UTC()
	} else if ttl > 0 {
		s.ExpiresAt = now.Add(ttl).UTC()
	}
	return s
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TTL returns the remaining lifetime, or 0 when the session never expires.
func (s *Session) TTL(now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// ExpiryFromToken reads the exp claim of a JWT without verifying its
// signature. The console never holds the backend's signing key; the claim is
// only used to stop sending tokens the backend will reject anyway.
func ExpiryFromToken(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Store keeps sessions keyed by id.
type Store interface {
	// Get returns the live session for id, or ErrNotFound when it does not
	// exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)
	// Put creates or replaces a session.
	Put(ctx context.Context, s *Session) error
	// Delete removes a session. It reports true only for the call that
	// actually removed it, so concurrent 401s clear the token exactly once.
	Delete(ctx context.Context, id string) (bool, error)
}

// Binding ties one session to its store. It is what the API client sees as
// the holder of the bearer token.
type Binding struct {
	store Store
	sess  *Session
}

// Bind returns a token holder for sess backed by store.
func Bind(store Store, sess *Session) *Binding {
	return &Binding{store: store, sess: sess}
}

// Token returns the bearer token, or "" when the session is expired.
func (b *Binding) Token() string {
	if b.sess == nil || b.sess.Expired(time.Now()) {
		return ""
	}
	return b.sess.Token
}

// Clear deletes the session from its store.
func (b *Binding) Clear(ctx context.Context) bool {
	if b.sess == nil {
		return false
	}
	removed, err := b.store.Delete(ctx, b.sess.ID)
	return err == nil && removed
}

// Session returns the bound session.
func (b *Binding) Session() *Session {
	return b.sess
}
