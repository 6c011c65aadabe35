package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	"github.com/tbeaudouin05/fintrack-client/api/freemium"
	gw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
)

type sandboxServer struct {
	t   *testing.T
	srv *httptest.Server
	now time.Time
}

func newSandboxServer(t *testing.T) *sandboxServer {
	t.Helper()
	ss := &sandboxServer{t: t, now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	sb := NewSandbox(Options{
		TokenTTL:   time.Hour,
		UniqueCode: func() int64 { return 374 },
		Now:        func() time.Time { return ss.now },
	})
	ss.srv = httptest.NewServer(NewRouter(sb, "/api"))
	t.Cleanup(ss.srv.Close)
	return ss
}

func (ss *sandboxServer) do(method, path, token string, body any, headers ...string) (*http.Response, map[string]any) {
	ss.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ss.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ss.srv.URL+"/api"+path, &buf)
	require.NoError(ss.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(ss.t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (ss *sandboxServer) login(email, password string) string {
	ss.t.Helper()
	resp, out := ss.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(ss.t, http.StatusOK, resp.StatusCode)
	return out["sessionToken"].(string)
}

func TestLogin(t *testing.T) {
	ss := newSandboxServer(t)

	resp, out := ss.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "demo@fintrack.id", "password": "demo"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-demo", out["userId"])
	assert.NotEmpty(t, out["sessionToken"])

	resp, out = ss.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "demo@fintrack.id", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(client.HeaderAuthStatus))
	assert.Equal(t, "Invalid email or password.", out["error"])
}

func TestExpiredTokenSignalsExpiry(t *testing.T) {
	ss := newSandboxServer(t)
	token := ss.login("demo@fintrack.id", "demo")

	resp, _ := ss.do(http.MethodGet, "/payment/methods", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ss.now = ss.now.Add(2 * time.Hour)
	resp, out := ss.do(http.MethodGet, "/payment/methods", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, client.AuthStatusExpired, resp.Header.Get(client.HeaderAuthStatus))
	assert.Equal(t, "Unauthenticated", out["code"])
}

func TestTamperedTokenIsNotExpiry(t *testing.T) {
	ss := newSandboxServer(t)
	token := ss.login("demo@fintrack.id", "demo")

	resp, _ := ss.do(http.MethodGet, "/subscriptions", token+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(client.HeaderAuthStatus))

	resp, _ = ss.do(http.MethodGet, "/subscriptions", token, nil, client.HeaderUserID, "someone-else")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckout(t *testing.T) {
	ss := newSandboxServer(t)
	token := ss.login("demo@fintrack.id", "demo")
	req := func(pkg, promo string) map[string]any {
		return map[string]any{"userId": "user-demo", "packageId": pkg, "paymentMethodId": "bca", "promoCode": promo}
	}

	_, out := ss.do(http.MethodPost, "/payment/checkout", token, req("gold", ""))
	assert.EqualValues(t, 150374, out["amountToPay"])
	assert.Equal(t, false, out["isFree"])
	assert.NotEmpty(t, out["invoiceId"])

	_, out = ss.do(http.MethodPost, "/payment/checkout", token, req("silver", "gratis"))
	assert.Equal(t, true, out["isFree"])
	assert.EqualValues(t, 0, out["amountToPay"])

	resp, out := ss.do(http.MethodPost, "/payment/checkout", token, req("silver", "gratis"))
	assert.Equal(t, http.StatusOK, resp.StatusCode, "business errors ride on 200")
	assert.Equal(t, "Promo code has already been used.", out["error"])

	_, out = ss.do(http.MethodPost, "/payment/checkout", token, req("silver", "NOPE"))
	assert.Equal(t, "Promo code is not valid.", out["error"])

	resp, _ = ss.do(http.MethodPost, "/payment/checkout", token, req("platinum", ""))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ss.do(http.MethodPost, "/payment/checkout", token, map[string]any{"userId": "user-admin", "packageId": "gold", "paymentMethodId": "bca"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProofAndAdminVerification(t *testing.T) {
	ss := newSandboxServer(t)
	token := ss.login("demo@fintrack.id", "demo")
	_, out := ss.do(http.MethodPost, "/payment/checkout", token, map[string]any{"userId": "user-demo", "packageId": "gold", "paymentMethodId": "bca"})
	invoiceID := out["invoiceId"].(string)
	sub := out["subscription"].(map[string]any)
	assert.Equal(t, gw.SubscriptionAwaitingPayment, sub["status"])
	assert.EqualValues(t, 0, sub["amountPaid"])

	resp, _ := ss.do(http.MethodPost, "/admin/payment/verify", "", map[string]any{"invoiceId": invoiceID, "approve": true}, client.HeaderAdminSecret, "fintrack-admin-local")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "no proof yet")

	resp, _ = ss.do(http.MethodPost, "/payment/submit", token, map[string]any{"invoiceId": invoiceID, "proofOfPayment": "not-an-image"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = ss.do(http.MethodPost, "/payment/submit", token, map[string]any{"invoiceId": invoiceID, "proofOfPayment": "data:image/jpeg;base64,AA=="})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sub = out["subscription"].(map[string]any)
	assert.Equal(t, gw.SubscriptionVerifying, sub["status"])
	assert.Equal(t, "data:image/jpeg;base64,AA==", sub["proofOfPayment"])

	resp, _ = ss.do(http.MethodPost, "/admin/payment/verify", "", map[string]any{"invoiceId": invoiceID, "approve": true}, client.HeaderAdminSecret, "wrong")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, out = ss.do(http.MethodPost, "/admin/payment/verify", "", map[string]any{"invoiceId": invoiceID, "approve": true}, client.HeaderAdminSecret, "fintrack-admin-local")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gw.SubscriptionActive, out["status"])
	assert.EqualValues(t, 150374, out["amountPaid"])
	assert.NotEmpty(t, out["startDate"])

	resp, _ = ss.do(http.MethodPost, "/admin/payment/verify", "", map[string]any{"invoiceId": invoiceID, "approve": true}, client.HeaderAdminSecret, "fintrack-admin-local")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "already verified")

	resp, _ = ss.do(http.MethodPost, "/payment/submit", token, map[string]any{"invoiceId": invoiceID, "proofOfPayment": "data:image/jpeg;base64,AA=="})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "already active")
}

func TestAdminRejectionRecordsReason(t *testing.T) {
	ss := newSandboxServer(t)
	token := ss.login("demo@fintrack.id", "demo")
	_, out := ss.do(http.MethodPost, "/payment/checkout", token, map[string]any{"userId": "user-demo", "packageId": "silver", "paymentMethodId": "bca"})
	invoiceID := out["invoiceId"].(string)
	resp, _ := ss.do(http.MethodPost, "/payment/submit", token, map[string]any{"invoiceId": invoiceID, "proofOfPayment": "data:image/jpeg;base64,AA=="})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out = ss.do(http.MethodPost, "/admin/payment/verify", "", map[string]any{"invoiceId": invoiceID, "approve": false, "note": "Amount does not match."}, client.HeaderAdminSecret, "fintrack-admin-local")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gw.SubscriptionRejected, out["status"])
	assert.Equal(t, "Amount does not match.", out["rejectionReason"])
	assert.EqualValues(t, 0, out["amountPaid"])
}

func TestSubscriptionStatusAndGracePeriod(t *testing.T) {
	ss := newSandboxServer(t)
	ss.now = time.Now().UTC()
	token := ss.login("demo@fintrack.id", "demo")
	_, _ = ss.do(http.MethodPost, "/payment/checkout", token, map[string]any{"userId": "user-demo", "packageId": "silver", "paymentMethodId": "bca", "promoCode": "GRATIS"})

	decodeState := func() freemium.State {
		req, _ := http.NewRequest(http.MethodGet, ss.srv.URL+"/api/subscription/status", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var s freemium.State
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
		return s
	}

	s := decodeState()
	assert.False(t, s.SubscriptionStatus.IsFreeTier)
	assert.Equal(t, "silver", s.SubscriptionStatus.CurrentPackage)
	assert.Equal(t, map[string]bool{"export": true, FeatureAIChat: false}, s.ActiveFeatures)
	assert.False(t, s.SubscriptionStatus.InGracePeriod)

	// tokens live for an hour; re-login after moving the clock
	ss.now = ss.now.AddDate(0, 0, 31)
	token = ss.login("demo@fintrack.id", "demo")
	s = decodeState()
	assert.True(t, s.SubscriptionStatus.InGracePeriod)
	assert.Equal(t, 3, s.SubscriptionStatus.DaysLeftGrace)

	ss.now = ss.now.AddDate(0, 0, 5)
	token = ss.login("demo@fintrack.id", "demo")
	s = decodeState()
	assert.True(t, s.SubscriptionStatus.IsFreeTier)
	assert.False(t, s.ActiveFeatures["export"])
}

func TestAIChatGate(t *testing.T) {
	ss := newSandboxServer(t)
	token := ss.login("demo@fintrack.id", "demo")

	resp, out := ss.do(http.MethodPost, PathAIChat, token, map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, client.ActionUpgradeRequired, out["action"])
	assert.Equal(t, FeatureAIChat, out["feature"])
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	ss := newSandboxServer(t)
	resp, _ := ss.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
