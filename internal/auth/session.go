package auth

import (
	"context"
	"time"
)

// SessionUser is the identity exposed to request handlers
type SessionUser struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// Session is the per-request view of the signed token. It is derived on every
// request and never persisted.
type Session struct {
	User    *SessionUser `json:"user,omitempty"`
	Expires time.Time    `json:"expires"`
}

// NewSession builds the base session carried by every token: name, email,
// image and expiry. The user id is added by ProjectSession.
func NewSession(token *Claims) *Session {
	session := &Session{
		User: &SessionUser{
			Name:  token.Name,
			Email: token.Email,
			Image: token.Picture,
		},
	}
	if token.ExpiresAt != nil {
		session.Expires = token.ExpiresAt.UTC()
	}
	return session
}

// Authenticated reports whether the session identifies a user
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil && s.User.ID != ""
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying the session
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the session stored by WithSession, if any
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*Session)
	return session, ok && session != nil
}
