package bootstrap

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	"github.com/tbeaudouin05/fintrack-client/api/config"
	"github.com/tbeaudouin05/fintrack-client/api/database"
	"github.com/tbeaudouin05/fintrack-client/api/events"
	"github.com/tbeaudouin05/fintrack-client/api/router"
	payapp "github.com/tbeaudouin05/fintrack-client/api/services/payment/app"
	paygw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type nav struct {
	mu        sync.Mutex
	location  string
	redirects []string
}

func (n *nav) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *nav) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
	n.location = path
}

func (n *nav) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.redirects)
}

// countingTransport counts requests that reach the network.
type countingTransport struct{ n atomic.Int64 }

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.n.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

type env struct {
	app       *App
	clock     *clock
	nav       *nav
	transport *countingTransport
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		clock:     &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		nav:       &nav{location: "/checkout"},
		transport: &countingTransport{},
	}
	sb := router.NewSandbox(router.Options{
		TokenTTL:   time.Hour,
		UniqueCode: func() int64 { return 374 },
		Now:        e.clock.Now,
	})
	srv := httptest.NewServer(router.NewRouter(sb, "/api"))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		BaseURL:                srv.URL,
		APIPrefix:              "/api",
		StoreDriver:            "sqlite",
		LoginPath:              "/login",
		AuthStormRedirectDelay: 5 * time.Millisecond,
		ProofMaxBytes:          64 << 10,
		ProofMaxWidth:          800,
		ProofQuality:           70,
	}
	a, err := New(context.Background(), cfg, Options{
		Store:      database.NewMemoryStore(),
		Navigator:  e.nav,
		HTTPClient: &http.Client{Transport: e.transport},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	e.app = a
	return e
}

func (e *env) login(t *testing.T) client.Session {
	t.Helper()
	sess, err := e.app.Login(context.Background(), "demo@fintrack.id", "demo")
	require.NoError(t, err)
	return sess
}

func (e *env) open(t *testing.T, packageID string) *payapp.Flow {
	t.Helper()
	ctx := context.Background()
	pkgs, err := e.app.Checkout.ListPackages(ctx)
	require.NoError(t, err)
	for _, p := range pkgs {
		if p.ID == packageID {
			f := e.app.Checkout.Open(ctx, "user-demo", p)
			require.NoError(t, f.SelectMethod("bca"))
			return f
		}
	}
	t.Fatalf("package %s not offered", packageID)
	return nil
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestLogin_PersistsSessionAndSyncsFreemium(t *testing.T) {
	e := newEnv(t)
	sess := e.login(t)

	assert.Equal(t, "user-demo", sess.UserID)
	assert.NotEmpty(t, sess.SessionToken)
	assert.Equal(t, "user", sess.Role)

	state := e.app.Freemium.Read(context.Background())
	assert.True(t, state.SubscriptionStatus.IsFreeTier)
	assert.False(t, e.app.Freemium.IsFeatureAvailable(context.Background(), router.FeatureAIChat))
	assert.True(t, e.app.Freemium.IsFeatureAvailable(context.Background(), "budgeting"), "unknown features fail open")
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)
	_, err := e.app.Login(context.Background(), "demo@fintrack.id", "nope")
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, "Invalid email or password.", client.Describe(err))
	assert.Equal(t, 0, e.nav.count())
}

func TestCheckout_FullDiscountActivatesWithoutProof(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()
	changes := e.app.Bus.Subscribe(events.FreemiumChanged)

	f := e.open(t, "silver")
	require.NoError(t, f.SetPromoCode("GRATIS"))
	require.NoError(t, f.Submit(ctx))

	snap := f.Snapshot()
	assert.Equal(t, payapp.StepSuccess, snap.Step)
	assert.True(t, snap.IsFree)
	assert.Equal(t, payapp.OutcomeAutoActivated, snap.Outcome)
	assert.False(t, snap.HasProof)

	state := e.app.Freemium.Read(ctx)
	assert.False(t, state.SubscriptionStatus.IsFreeTier)
	assert.Equal(t, "silver", state.SubscriptionStatus.CurrentPackage)
	assert.NotEmpty(t, changes)
}

func TestCheckout_PromoReuseIsBusinessError(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	first := e.open(t, "silver")
	require.NoError(t, first.SetPromoCode("HEMAT10"))
	require.NoError(t, first.Submit(ctx))

	second := e.open(t, "silver")
	require.NoError(t, second.SetPromoCode("HEMAT10"))
	err := second.Submit(ctx)
	require.ErrorIs(t, err, client.ErrValidation)

	snap := second.Snapshot()
	assert.Equal(t, payapp.StepProcessing, snap.Step)
	assert.True(t, snap.Failed)
	assert.Equal(t, "Promo code has already been used.", snap.Error)
}

func TestCheckout_ManualTransferEndToEnd(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	f := e.open(t, "gold")
	require.NoError(t, f.Submit(ctx))
	require.Equal(t, payapp.StepInstructions, f.Snapshot().Step)

	in, err := f.Instructions()
	require.NoError(t, err)
	assert.Equal(t, int64(150374), in.AmountToPay)
	assert.Equal(t, "150", in.Main)
	assert.Equal(t, "374", in.UniqueCode)
	assert.Equal(t, "8830123456", in.Method.AccountNumber)

	require.NoError(t, f.ConfirmTransfer())
	require.NoError(t, f.AttachProof(bytes.NewReader(pngImage(t, 1200, 900))))
	require.NoError(t, f.SubmitProof(ctx))
	snap := f.Snapshot()
	assert.Equal(t, payapp.StepSuccess, snap.Step)
	assert.Equal(t, payapp.OutcomeManualVerification, snap.Outcome)
	assert.False(t, e.app.Freemium.IsFeatureAvailable(ctx, router.FeatureAIChat), "pending until verified")

	sub, err := e.app.Checkout.VerifyPayment(ctx, paygw.VerifyRequest{InvoiceID: snap.InvoiceID, Approve: true})
	require.NoError(t, err)
	assert.Equal(t, paygw.SubscriptionActive, sub.Status)

	require.NoError(t, e.app.Freemium.Refresh(ctx))
	assert.True(t, e.app.Freemium.IsFeatureAvailable(ctx, router.FeatureAIChat))
	_, err = e.app.Client.Post(ctx, router.PathAIChat, map[string]any{"message": "halo"})
	assert.NoError(t, err)

	subs, err := e.app.Checkout.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, paygw.SubscriptionActive, subs[0].Status)
}

func TestFeatureGate_UpgradeRequired(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	gates := e.app.Bus.Subscribe(events.UpgradeRequired)

	_, err := e.app.Client.Post(context.Background(), router.PathAIChat, map[string]any{"message": "halo"})
	require.ErrorIs(t, err, client.ErrForbidden)
	assert.Equal(t, "AI chat is available on the Gold package. Upgrade to continue.", client.Describe(err))

	require.Len(t, gates, 1)
	payload, ok := (<-gates).Payload.(events.UpgradeRequiredPayload)
	require.True(t, ok)
	assert.Equal(t, router.FeatureAIChat, payload.Feature)
}

func TestProof_OversizeRejectedBeforeAnyRequest(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()

	f := e.open(t, "gold")
	require.NoError(t, f.Submit(ctx))
	require.NoError(t, f.ConfirmTransfer())

	path := filepath.Join(t.TempDir(), "proof.png")
	require.NoError(t, os.WriteFile(path, make([]byte, 65<<10), 0o600))
	before := e.transport.n.Load()

	require.ErrorIs(t, f.AttachProofFile(path), payapp.ErrProofTooLarge)
	require.ErrorIs(t, f.SubmitProof(ctx), payapp.ErrNoProof)
	assert.Equal(t, before, e.transport.n.Load())
}

func TestSessionExpiry_SingleCleanupAndRedirect(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	expired := e.app.Bus.Subscribe(events.AuthExpired)
	e.clock.Advance(2 * time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.app.Client.Get(context.Background(), "/subscriptions")
			assert.ErrorIs(t, err, client.ErrUnauthorized)
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return e.nav.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, expired, 1)
	assert.Empty(t, e.app.Sessions.Load(context.Background()).SessionToken)

	e.login(t)
	assert.False(t, e.app.Storm.Active(), "new login starts a new episode")
}

func TestLogout_ResetsState(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	ctx := context.Background()
	f := e.open(t, "silver")

	require.NoError(t, e.app.Logout(ctx))
	assert.True(t, f.Snapshot().Closed)
	assert.Nil(t, e.app.Checkout.Active("user-demo"))
	assert.Empty(t, e.app.Sessions.Load(ctx).UserID)

	_, err := e.app.Checkout.ListSubscriptions(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestInit_UsesInjectedApp(t *testing.T) {
	a := &App{}
	SetApp(a)
	t.Cleanup(func() { SetApp(nil) })
	require.NoError(t, Init(context.Background(), Options{}))
	assert.Same(t, a, GetApp())
}
