package router

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	gw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
	httpgw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway/httpapi"
)

// PathAIChat is the feature-gated endpoint used to exercise upgrade_required.
const PathAIChat = "/ai/chat"

// NewRouter returns the HTTP router serving the sandbox under prefix (e.g. "/api").
func NewRouter(s *Sandbox, prefix string) http.Handler {
	prefix = "/" + strings.Trim(prefix, "/")
	mux := runtime.NewServeMux()

	routes := []struct {
		method, path string
		h            runtime.HandlerFunc
	}{
		{http.MethodPost, httpgw.PathLogin, s.login},
		{http.MethodGet, httpgw.PathPackages, s.listPackages},
		{http.MethodGet, httpgw.PathMethods, s.listMethods},
		{http.MethodPost, httpgw.PathCheckout, s.checkout},
		{http.MethodPost, httpgw.PathSubmitProof, s.submitProof},
		{http.MethodPost, httpgw.PathVerify, s.verify},
		{http.MethodGet, httpgw.PathStatus, s.subscriptionStatus},
		{http.MethodGet, httpgw.PathSubscriptions, s.listSubscriptions},
		{http.MethodPost, PathAIChat, s.aiChat},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, prefix+rt.path, rt.h); err != nil {
			s.logger.Error("failed to register route", "method", rt.method, "path", rt.path, "err", err)
		}
	}
	return s.withRequestLog(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Sandbox) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a gRPC status error to its HTTP status and an {error} body.
func writeError(w http.ResponseWriter, err error) {
	st, _ := status.FromError(err)
	if err == errSessionExpired {
		w.Header().Set(client.HeaderAuthStatus, client.AuthStatusExpired)
	}
	writeJSON(w, runtime.HTTPStatusFromCode(st.Code()), map[string]any{
		"error": st.Message(),
		"code":  st.Code().String(),
	})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return status.Error(codes.InvalidArgument, "Request body is not valid JSON.")
	}
	return nil
}

func (s *Sandbox) login(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req gw.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok || u.Password != req.Password {
		writeError(w, status.Error(codes.Unauthenticated, "Invalid email or password."))
		return
	}
	token, err := s.issueToken(u)
	if err != nil {
		writeError(w, status.Error(codes.Internal, "Could not create session."))
		return
	}
	s.logger.Info("user signed in", "user_id", u.ID)
	writeJSON(w, http.StatusOK, gw.LoginResponse{UserID: u.ID, SessionToken: token, Role: u.Role})
}

func (s *Sandbox) listPackages(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, s.packages)
}

func (s *Sandbox) listMethods(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.methods)
}

// checkout issues an invoice. Promo problems are business errors answered
// with 200 and an error field.
func (s *Sandbox) checkout(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	c, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req gw.CheckoutRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.UserID != c.UserID {
		writeError(w, status.Error(codes.PermissionDenied, "Cannot check out for another user."))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pkg, ok := s.findPackage(req.PackageID)
	if !ok {
		writeError(w, status.Error(codes.NotFound, "Package not found."))
		return
	}
	if !s.hasMethod(req.PaymentMethodID) {
		writeError(w, status.Error(codes.InvalidArgument, "Unknown payment method."))
		return
	}

	amount := pkg.Price
	code := strings.ToUpper(strings.TrimSpace(req.PromoCode))
	redeemKey := c.UserID + "|" + code
	if code != "" {
		promo, ok := s.promos[code]
		if !ok {
			writeJSON(w, http.StatusOK, gw.CheckoutResponse{Error: "Promo code is not valid."})
			return
		}
		if s.redeemed[redeemKey] {
			writeJSON(w, http.StatusOK, gw.CheckoutResponse{Error: "Promo code has already been used."})
			return
		}
		amount = max(promo.apply(amount), 0)
		s.redeemed[redeemKey] = true
	}

	now := s.now().UTC()
	inv := &invoice{ID: uuid.NewString(), UserID: c.UserID, PackageID: pkg.ID}
	sub := &gw.Subscription{
		ID:        uuid.NewString(),
		UserID:    c.UserID,
		PackageID: pkg.ID,
		InvoiceID: inv.ID,
		Status:    gw.SubscriptionAwaitingPayment,
		CreatedAt: &now,
	}
	inv.SubscriptionID = sub.ID
	s.invoices[inv.ID] = inv
	s.subscriptions[sub.ID] = sub
	s.subOrder = append(s.subOrder, sub.ID)

	resp := gw.CheckoutResponse{InvoiceID: inv.ID}
	if amount == 0 {
		s.activate(sub, pkg, 0)
		resp.IsFree = true
		resp.Message = "Package activated."
	} else {
		inv.Amount = amount + s.uniqueCode()
		resp.AmountToPay = inv.Amount
	}
	resp.Subscription = cloneSubscription(sub)
	s.logger.Info("invoice issued", "invoice_id", inv.ID, "user_id", c.UserID, "amount", inv.Amount, "promo", code)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Sandbox) submitProof(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	c, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req gw.SubmitProofRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !strings.HasPrefix(req.ProofOfPayment, "data:image/") {
		writeError(w, status.Error(codes.InvalidArgument, "Proof of payment must be an image."))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[req.InvoiceID]
	if !ok || inv.UserID != c.UserID {
		writeError(w, status.Error(codes.NotFound, "Invoice not found."))
		return
	}
	sub := s.subscriptions[inv.SubscriptionID]
	if sub.Status != gw.SubscriptionAwaitingPayment && sub.Status != gw.SubscriptionVerifying {
		writeError(w, status.Error(codes.FailedPrecondition, "Invoice is not awaiting payment."))
		return
	}
	inv.ProofOfPayment = req.ProofOfPayment
	sub.ProofOfPayment = req.ProofOfPayment
	sub.Status = gw.SubscriptionVerifying
	s.logger.Info("proof received", "invoice_id", inv.ID, "user_id", c.UserID)
	writeJSON(w, http.StatusOK, gw.SubmitProofResponse{
		Message:      "Proof received. We will verify your transfer shortly.",
		Subscription: cloneSubscription(sub),
	})
}

func (s *Sandbox) verify(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if err := s.authorizeAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var req gw.VerifyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[req.InvoiceID]
	if !ok {
		writeError(w, status.Error(codes.NotFound, "Invoice not found."))
		return
	}
	if inv.ProofOfPayment == "" {
		writeError(w, status.Error(codes.FailedPrecondition, "No proof of payment submitted."))
		return
	}
	sub := s.subscriptions[inv.SubscriptionID]
	if sub.Status != gw.SubscriptionVerifying {
		writeError(w, status.Error(codes.FailedPrecondition, "Invoice was already verified."))
		return
	}
	if req.Approve {
		pkg, _ := s.findPackage(inv.PackageID)
		s.activate(sub, pkg, inv.Amount)
	} else {
		sub.Status = gw.SubscriptionRejected
		sub.RejectionReason = req.Note
		if sub.RejectionReason == "" {
			sub.RejectionReason = "The transfer could not be matched to this invoice."
		}
	}
	s.logger.Info("invoice verified", "invoice_id", inv.ID, "approved", req.Approve)
	writeJSON(w, http.StatusOK, cloneSubscription(sub))
}

func (s *Sandbox) subscriptionStatus(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	c, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.freemiumState(c.UserID))
}

func (s *Sandbox) listSubscriptions(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	c, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.userSubscriptions(c.UserID))
}

// aiChat answers only for users whose package includes FeatureAIChat.
func (s *Sandbox) aiChat(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	c, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !s.freemiumState(c.UserID).ActiveFeatures[FeatureAIChat] {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"action":  client.ActionUpgradeRequired,
			"error":   "AI chat is available on the Gold package. Upgrade to continue.",
			"feature": FeatureAIChat,
		})
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reply": "Sandbox assistant received: " + req.Message})
}

func cloneSubscription(sub *gw.Subscription) *gw.Subscription {
	c := *sub
	return &c
}
