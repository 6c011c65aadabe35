package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tbeaudouin05/fintrack-client/api/events"
)

// Server signals.
const (
	HeaderAuthStatus      = "X-Auth-Status"
	AuthStatusExpired     = "Expired"
	ActionUpgradeRequired = "upgrade_required"
)

// Navigator moves the user to another screen. The CLI implementation prints a
// re-login notice; a UI would change route.
type Navigator interface {
	Location() string
	Redirect(path string)
}

// SessionClearer removes the persisted session.
type SessionClearer interface {
	Clear(ctx context.Context) error
}

// Body is a normalized JSON success body. It is never empty: unparseable or
// missing bodies become {}.
type Body json.RawMessage

// Decode unmarshals the body into v.
func (b Body) Decode(v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return &APIError{Kind: ErrServer, Message: "malformed response body", Err: err}
	}
	return nil
}

// errorBody is the shape of server error payloads.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action"`
	Feature string `json:"feature"`
}

func (e errorBody) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// Interceptor classifies one HTTP response into a Body or an *APIError and runs
// the cross-cutting side effects: session-expiry cleanup and feature-gate
// notification.
type Interceptor struct {
	storm     *StormGuard
	sessions  SessionClearer
	bus       *events.Bus
	nav       Navigator
	loginPath string
	logger    *slog.Logger
}

// InterceptorConfig wires an Interceptor.
type InterceptorConfig struct {
	Storm     *StormGuard
	Sessions  SessionClearer
	Bus       *events.Bus
	Navigator Navigator
	LoginPath string
	Logger    *slog.Logger
}

func NewInterceptor(cfg InterceptorConfig) *Interceptor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	storm := cfg.Storm
	if storm == nil {
		storm = NewStormGuard(0)
	}
	return &Interceptor{
		storm:     storm,
		sessions:  cfg.Sessions,
		bus:       cfg.Bus,
		nav:       cfg.Navigator,
		loginPath: loginPath,
		logger:    logger.With("component", "interceptor"),
	}
}

// Handle consumes resp (closing its body) and returns exactly one of a Body or an error.
func (i *Interceptor) Handle(ctx context.Context, resp *http.Response, url string) (Body, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		i.logger.Warn("failed to read response body", "url", url, "status", resp.StatusCode, "err", err)
		raw = nil
	}

	status := resp.StatusCode
	if status >= 200 && status < 300 {
		if i.storm.Active() {
			i.logger.Info("request succeeded after session expiry, clearing storm flag", "url", url)
			i.storm.Recover()
		}
		return normalize(raw), nil
	}

	var eb errorBody
	_ = json.Unmarshal(normalize(raw), &eb)

	switch {
	case status == http.StatusUnauthorized:
		if strings.EqualFold(resp.Header.Get(HeaderAuthStatus), AuthStatusExpired) {
			i.onSessionExpired(ctx, url)
		}
		msg := eb.text()
		if msg == "" {
			msg = "session expired or invalid"
		}
		return nil, &APIError{Kind: ErrUnauthorized, Status: status, Message: msg, URL: url}

	case status == http.StatusForbidden:
		if eb.Action == ActionUpgradeRequired {
			i.logger.Info("feature gated by server", "feature", eb.Feature, "url", url)
			i.bus.Publish(events.UpgradeRequired, events.UpgradeRequiredPayload{Feature: eb.Feature, Message: eb.text()})
			return nil, &APIError{Kind: ErrForbidden, Status: status, Message: eb.text(), Feature: eb.Feature, URL: url}
		}
		msg := eb.text()
		if msg == "" {
			msg = "access denied"
		}
		return nil, &APIError{Kind: ErrForbidden, Status: status, Message: msg, URL: url}

	case status == http.StatusNotFound:
		msg := fmt.Sprintf("resource not found: %s", url)
		if t := eb.text(); t != "" {
			msg = fmt.Sprintf("%s (%s)", t, url)
		}
		return nil, &APIError{Kind: ErrNotFound, Status: status, Message: msg, URL: url}

	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		msg := eb.text()
		if msg == "" {
			msg = fmt.Sprintf("request rejected with status %d", status)
		}
		return nil, &APIError{Kind: ErrValidation, Status: status, Message: msg, URL: url}
	}

	msg := eb.text()
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	i.logger.Warn("request failed", "url", url, "status", status, "error", msg)
	return nil, &APIError{Kind: ErrServer, Status: status, Message: msg, URL: url}
}

// onSessionExpired runs the cleanup once per expiry episode.
func (i *Interceptor) onSessionExpired(ctx context.Context, url string) {
	if !i.storm.Trip() {
		return
	}
	i.logger.Warn("session expired, clearing local session", "url", url)

	var userID string
	if src, ok := i.sessions.(SessionSource); ok {
		userID = src.Load(ctx).UserID
	}
	if i.sessions != nil {
		if err := i.sessions.Clear(context.WithoutCancel(ctx)); err != nil {
			i.logger.Error("failed to clear session", "err", err)
		}
	}
	i.bus.Publish(events.AuthExpired, events.AuthExpiredPayload{UserID: userID, URL: url})

	if i.nav == nil {
		return
	}
	i.storm.Schedule(func() {
		if i.nav.Location() == i.loginPath {
			return
		}
		i.nav.Redirect(i.loginPath)
	})
}

// normalize returns raw when it is JSON, {} otherwise.
func normalize(raw []byte) Body {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return Body("{}")
	}
	return Body(trimmed)
}
