package client

import (
	"context"
	"log/slog"

	"github.com/tbeaudouin05/fintrack-client/api/database"
)

// Persisted session keys.
const (
	KeyActiveUserID = "active_user_id"
	KeySessionToken = "session_token"
	KeyUserRole     = "user_role"
	KeyAdminSecret  = "admin_secret"
)

// Session is the identity attached to every outbound request.
type Session struct {
	UserID       string
	SessionToken string
	Role         string
	AdminSecret  string
}

// SessionStore reads and writes the Session in the persistent store. Storage
// errors are logged and degrade to an empty session; they never fail a request.
type SessionStore struct {
	store  database.Store
	logger *slog.Logger
}

func NewSessionStore(store database.Store, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{store: store, logger: logger.With("component", "session-store")}
}

// Load returns a snapshot of the persisted session.
func (s *SessionStore) Load(ctx context.Context) Session {
	return Session{
		UserID:       s.get(ctx, KeyActiveUserID),
		SessionToken: s.get(ctx, KeySessionToken),
		Role:         s.get(ctx, KeyUserRole),
		AdminSecret:  s.get(ctx, KeyAdminSecret),
	}
}

func (s *SessionStore) get(ctx context.Context, key string) string {
	v, _, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read session key", "key", key, "err", err)
		return ""
	}
	return v
}

// Save replaces the stored identity with sess. Empty identity fields are
// deleted so nothing from an earlier session survives. The admin secret is
// local configuration and is only written when set.
func (s *SessionStore) Save(ctx context.Context, sess Session) error {
	fields := []struct{ key, value string }{
		{KeyActiveUserID, sess.UserID},
		{KeySessionToken, sess.SessionToken},
		{KeyUserRole, sess.Role},
	}
	for _, f := range fields {
		var err error
		if f.value == "" {
			err = s.store.Delete(ctx, f.key)
		} else {
			err = s.store.Set(ctx, f.key, f.value)
		}
		if err != nil {
			return err
		}
	}
	if sess.AdminSecret != "" {
		return s.store.Set(ctx, KeyAdminSecret, sess.AdminSecret)
	}
	return nil
}

// Clear removes the session. The admin secret is local configuration and survives.
func (s *SessionStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, KeyActiveUserID, KeySessionToken, KeyUserRole)
}
