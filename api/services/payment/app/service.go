package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	"github.com/tbeaudouin05/fintrack-client/api/database"
	gw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
)

// KeyMethodsCache holds the last payment-method list loaded from the server.
const KeyMethodsCache = "payment_methods_cache"

// DefaultProofMaxBytes is the upload ceiling applied when none is configured.
const DefaultProofMaxBytes = 5 << 20

// Service defines the checkout and subscription operations of the payment domain.
type Service interface {
	// Open starts a fresh checkout for userID, discarding any previous one.
	Open(ctx context.Context, userID string, pkg gw.Package) *Flow
	// Active returns the user's open checkout, or nil.
	Active(userID string) *Flow
	ListPackages(ctx context.Context) ([]gw.Package, error)
	ListPaymentMethods(ctx context.Context) ([]gw.PaymentMethod, bool, error)
	ListSubscriptions(ctx context.Context) ([]gw.Subscription, error)
	VerifyPayment(ctx context.Context, req gw.VerifyRequest) (gw.Subscription, error)
}

// StatusRefresher reloads the subscription status after a successful checkout.
type StatusRefresher interface {
	Refresh(ctx context.Context) error
}

// ProofCompressor turns an uploaded image into the proof payload.
type ProofCompressor interface {
	DataURL(r io.Reader) (string, error)
}

// Deps are the collaborators of the checkout service. Store, Refresher and
// Logger are optional.
type Deps struct {
	Store         database.Store
	Refresher     StatusRefresher
	Compressor    ProofCompressor
	ProofMaxBytes int64
	Logger        *slog.Logger
}

type serviceImpl struct {
	gw            gw.PaymentGateway
	store         database.Store
	refresher     StatusRefresher
	compressor    ProofCompressor
	proofMaxBytes int64
	validate      *validator.Validate
	logger        *slog.Logger

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewService(g gw.PaymentGateway, d Deps) Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBytes := d.ProofMaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultProofMaxBytes
	}
	return &serviceImpl{
		gw:            g,
		store:         d.Store,
		refresher:     d.Refresher,
		compressor:    d.Compressor,
		proofMaxBytes: maxBytes,
		validate:      newValidator(),
		logger:        logger.With("component", "checkout"),
		flows:         map[string]*Flow{},
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates req and turns the first failure into a Validation error.
func (s *serviceImpl) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return client.Validation(fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			return client.Validation(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			return client.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return client.Validation(err.Error())
}

func (s *serviceImpl) Open(ctx context.Context, userID string, pkg gw.Package) *Flow {
	f := &Flow{
		svc:    s,
		userID: userID,
		pkg:    pkg,
		step:   StepMethodSelection,
		busy:   true,
	}

	s.mu.Lock()
	prev := s.flows[userID]
	s.flows[userID] = f
	s.mu.Unlock()
	if prev != nil {
		prev.discard()
		s.logger.Info("discarded previous checkout", "user_id", userID, "package_id", prev.pkg.ID)
	}

	methods, fromCache, err := s.ListPaymentMethods(ctx)
	f.mu.Lock()
	f.busy = false
	f.methods = methods
	f.methodsFromCache = fromCache
	if err != nil {
		f.errMsg = client.Describe(err)
	}
	f.mu.Unlock()
	return f
}

func (s *serviceImpl) Active(userID string) *Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flows[userID]
}

func (s *serviceImpl) release(f *Flow) {
	s.mu.Lock()
	if s.flows[f.userID] == f {
		delete(s.flows, f.userID)
	}
	s.mu.Unlock()
}

// ListPaymentMethods loads the methods from the server and caches them. When
// loading fails the cached list is returned with fromCache set.
func (s *serviceImpl) ListPaymentMethods(ctx context.Context) ([]gw.PaymentMethod, bool, error) {
	methods, err := s.gw.ListPaymentMethods(ctx)
	if err == nil {
		s.cacheMethods(ctx, methods)
		return methods, false, nil
	}
	s.logger.Warn("failed to load payment methods", "err", err)
	if cached, ok := s.cachedMethods(ctx); ok {
		return cached, true, nil
	}
	return nil, false, err
}

func (s *serviceImpl) cacheMethods(ctx context.Context, methods []gw.PaymentMethod) {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(methods)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, KeyMethodsCache, string(raw)); err != nil {
		s.logger.Warn("failed to cache payment methods", "err", err)
	}
}

func (s *serviceImpl) cachedMethods(ctx context.Context) ([]gw.PaymentMethod, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, ok, err := s.store.Get(ctx, KeyMethodsCache)
	if err != nil || !ok {
		return nil, false
	}
	var methods []gw.PaymentMethod
	if err := json.Unmarshal([]byte(raw), &methods); err != nil {
		s.logger.Warn("discarding corrupt payment method cache", "err", err)
		return nil, false
	}
	return methods, true
}

func (s *serviceImpl) ListPackages(ctx context.Context) ([]gw.Package, error) {
	return s.gw.ListPackages(ctx)
}

func (s *serviceImpl) ListSubscriptions(ctx context.Context) ([]gw.Subscription, error) {
	return s.gw.ListSubscriptions(ctx)
}

func (s *serviceImpl) VerifyPayment(ctx context.Context, req gw.VerifyRequest) (gw.Subscription, error) {
	if err := s.check(req); err != nil {
		return gw.Subscription{}, err
	}
	return s.gw.VerifyPayment(ctx, req)
}

func (s *serviceImpl) refresh(ctx context.Context) {
	if s.refresher == nil {
		return
	}
	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warn("subscription status refresh failed", "err", err)
	}
}
