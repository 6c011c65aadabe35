package client

import (
	"context"
	"net/http"
	"strings"
)

// Outbound identity headers.
const (
	HeaderUserID       = "x-user-id"
	HeaderSessionToken = "x-session-token"
	HeaderAdminSecret  = "x-admin-secret"
)

// adminNamespace marks paths that require the elevated secret header.
const adminNamespace = "/admin"

// SessionSource supplies the session snapshot taken at dispatch time.
type SessionSource interface {
	Load(ctx context.Context) Session
}

// AuthContext derives per-request headers from the current session.
type AuthContext struct {
	sessions      SessionSource
	defaultSecret string
}

// NewAuthContext returns an AuthContext. defaultSecret is used on admin paths
// when the session carries no admin secret of its own.
func NewAuthContext(sessions SessionSource, defaultSecret string) *AuthContext {
	return &AuthContext{sessions: sessions, defaultSecret: defaultSecret}
}

// HeadersFor returns the headers for a request to path. Missing identity values
// are sent as empty strings so the server validates every request the same way.
func (a *AuthContext) HeadersFor(ctx context.Context, path string) http.Header {
	sess := a.sessions.Load(ctx)

	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set(HeaderUserID, sess.UserID)
	h.Set(HeaderSessionToken, sess.SessionToken)
	if sess.SessionToken != "" {
		h.Set("Authorization", "Bearer "+sess.SessionToken)
	}
	if strings.Contains(path, adminNamespace) {
		secret := sess.AdminSecret
		if secret == "" {
			secret = a.defaultSecret
		}
		h.Set(HeaderAdminSecret, secret)
	}
	return h
}
