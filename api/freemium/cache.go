// Package freemium keeps the user's subscription and feature-entitlement
// snapshot and answers feature-gating questions from it.
package freemium

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/tbeaudouin05/fintrack-client/api/database"
	"github.com/tbeaudouin05/fintrack-client/api/events"
)

// Persisted keys. The mirror holds the last server sync, the cache holds local writes.
const (
	KeyMirror = "local_db:freemium_status"
	KeyCache  = "freemium_cache"
)

// SubscriptionStatus summarizes the user's current package.
type SubscriptionStatus struct {
	IsFreeTier     bool       `json:"isFreeTier"`
	InGracePeriod  bool       `json:"inGracePeriod"`
	DaysLeftGrace  int        `json:"daysLeftGrace"`
	CurrentPackage string     `json:"currentPackage"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
}

// State is the entitlement snapshot.
type State struct {
	ActiveFeatures     map[string]bool    `json:"activeFeatures"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
}

// DefaultState is used when nothing has been synced or cached: free tier, no grace period.
func DefaultState() State {
	return State{
		ActiveFeatures: map[string]bool{},
		SubscriptionStatus: SubscriptionStatus{
			IsFreeTier:     true,
			CurrentPackage: "free",
		},
	}
}

// Update is a partial State. Non-nil fields replace the current values.
type Update struct {
	ActiveFeatures     map[string]bool
	SubscriptionStatus *SubscriptionStatus
}

// UnknownFeaturePolicy decides the answer for a feature key the snapshot does not mention.
type UnknownFeaturePolicy int

const (
	// FailOpenOnUnknownFeature treats unknown features as available. This keeps
	// older entitlement maps working, at the cost of granting access when the
	// map is incomplete.
	FailOpenOnUnknownFeature UnknownFeaturePolicy = iota
	// FailClosedOnUnknownFeature treats unknown features as unavailable.
	FailClosedOnUnknownFeature
)

// Fetcher loads the authoritative state from the server.
type Fetcher interface {
	GetFreemiumStatus(ctx context.Context) (State, error)
}

// Cache is the process-wide freemium snapshot. Write is a last-write-wins merge.
type Cache struct {
	mu      sync.Mutex
	store   database.Store
	bus     *events.Bus
	fetcher Fetcher
	policy  UnknownFeaturePolicy
	logger  *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithPolicy overrides the unknown-feature policy.
func WithPolicy(p UnknownFeaturePolicy) Option {
	return func(c *Cache) { c.policy = p }
}

// WithFetcher sets the server source used by Refresh.
func WithFetcher(f Fetcher) Option {
	return func(c *Cache) { c.fetcher = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func New(store database.Store, bus *events.Bus, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		bus:    bus,
		policy: FailOpenOnUnknownFeature,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "freemium-cache")
	return c
}

// SetFetcher wires the server source after construction.
func (c *Cache) SetFetcher(f Fetcher) {
	c.mu.Lock()
	c.fetcher = f
	c.mu.Unlock()
}

// Read returns the synced mirror, else the local cache, else DefaultState.
func (c *Cache) Read(ctx context.Context) State {
	for _, key := range []string{KeyMirror, KeyCache} {
		if s, ok := c.load(ctx, key); ok {
			return s
		}
	}
	return DefaultState()
}

func (c *Cache) load(ctx context.Context, key string) (State, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("failed to read freemium state", "key", key, "err", err)
		return State{}, false
	}
	if !ok || raw == "" {
		return State{}, false
	}
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		c.logger.Warn("discarding corrupt freemium state", "key", key, "err", err)
		return State{}, false
	}
	if s.ActiveFeatures == nil {
		s.ActiveFeatures = map[string]bool{}
	}
	return s, true
}

func (c *Cache) save(ctx context.Context, key string, s State) {
	raw, err := json.Marshal(s)
	if err != nil {
		c.logger.Error("failed to encode freemium state", "err", err)
		return
	}
	if err := c.store.Set(ctx, key, string(raw)); err != nil {
		c.logger.Error("failed to persist freemium state", "key", key, "err", err)
	}
}

// Write merges u over the current state, persists it and broadcasts the result.
func (c *Cache) Write(ctx context.Context, u Update) State {
	c.mu.Lock()
	s := c.Read(ctx)
	if u.ActiveFeatures != nil {
		s.ActiveFeatures = copyFeatures(u.ActiveFeatures)
	}
	if u.SubscriptionStatus != nil {
		s.SubscriptionStatus = *u.SubscriptionStatus
	}
	c.save(ctx, KeyCache, s)
	// keep the mirror in step so Read observes this write
	if _, ok := c.load(ctx, KeyMirror); ok {
		c.save(ctx, KeyMirror, s)
	}
	c.mu.Unlock()

	c.bus.Publish(events.FreemiumChanged, s)
	return s
}

// Sync stores a server-authoritative state in the mirror and the cache.
func (c *Cache) Sync(ctx context.Context, s State) {
	if s.ActiveFeatures == nil {
		s.ActiveFeatures = map[string]bool{}
	}
	c.mu.Lock()
	c.save(ctx, KeyMirror, s)
	c.save(ctx, KeyCache, s)
	c.mu.Unlock()

	c.bus.Publish(events.LocalDBChanged, events.LocalDBChangedPayload{Key: KeyMirror})
	c.bus.Publish(events.FreemiumChanged, s)
}

// Refresh fetches the state from the server and syncs it. On failure the cached
// state is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	f := c.fetcher
	c.mu.Unlock()
	if f == nil {
		return nil
	}
	s, err := f.GetFreemiumStatus(ctx)
	if err != nil {
		c.logger.Warn("freemium refresh failed, keeping cached state", "err", err)
		return err
	}
	c.Sync(ctx, s)
	return nil
}

// Reset forgets every persisted snapshot. Called on logout.
func (c *Cache) Reset(ctx context.Context) {
	c.mu.Lock()
	if err := c.store.Delete(ctx, KeyMirror, KeyCache); err != nil {
		c.logger.Error("failed to reset freemium state", "err", err)
	}
	c.mu.Unlock()
	c.bus.Publish(events.FreemiumChanged, DefaultState())
}

// IsFeatureAvailable applies the unknown-feature policy to key.
func (c *Cache) IsFeatureAvailable(ctx context.Context, key string) bool {
	return c.Read(ctx).FeatureAvailable(key, c.policy)
}

// FeatureAvailable reports whether key is enabled in s: an explicit false
// disables it, an absent key follows policy.
func (s State) FeatureAvailable(key string, policy UnknownFeaturePolicy) bool {
	enabled, ok := s.ActiveFeatures[key]
	if !ok {
		return policy == FailOpenOnUnknownFeature
	}
	return enabled
}

func copyFeatures(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
