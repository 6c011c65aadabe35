package router

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tbeaudouin05/fintrack-client/api/freemium"
	gw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
)

// FeatureAIChat is the feature gated behind a paid package on /ai/chat.
const FeatureAIChat = "ai_chat"

// GracePeriod keeps features enabled for a while after a subscription ends.
const GracePeriod = 3 * 24 * time.Hour

// User is a sandbox account.
type User struct {
	ID       string
	Email    string
	Password string
	Role     string
}

// Promo discounts a package price. A promo can be redeemed once per user.
type Promo struct {
	Code     string
	Discount int64
	// Percent, when set, overrides Discount (0-100).
	Percent int
}

func (p Promo) apply(price int64) int64 {
	if p.Percent > 0 {
		return price - price*int64(p.Percent)/100
	}
	return price - p.Discount
}

type invoice struct {
	ID             string
	UserID         string
	PackageID      string
	Amount         int64
	ProofOfPayment string
	SubscriptionID string
}

// Options seed and tune a Sandbox. Zero values get demo defaults.
type Options struct {
	JWTSecret   string
	TokenTTL    time.Duration
	AdminSecret string
	Users       []User
	Packages    []gw.Package
	Methods     []gw.PaymentMethod
	Promos      []Promo
	// UniqueCode returns the 1-999 suffix added to payable amounts.
	UniqueCode func() int64
	Now        func() time.Time
	Logger     *slog.Logger
}

// Sandbox is an in-memory implementation of the fintrack server contract,
// used for local development and end-to-end tests.
type Sandbox struct {
	secret      []byte
	ttl         time.Duration
	adminSecret string
	uniqueCode  func() int64
	now         func() time.Time
	logger      *slog.Logger

	mu            sync.Mutex
	users         map[string]User
	packages      []gw.Package
	methods       []gw.PaymentMethod
	promos        map[string]Promo
	redeemed      map[string]bool
	invoices      map[string]*invoice
	subscriptions map[string]*gw.Subscription
	subOrder      []string
}

func NewSandbox(o Options) *Sandbox {
	if o.JWTSecret == "" {
		o.JWTSecret = "sandbox-secret"
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = 24 * time.Hour
	}
	if o.AdminSecret == "" {
		o.AdminSecret = "fintrack-admin-local"
	}
	if o.Users == nil {
		o.Users = []User{
			{ID: "user-demo", Email: "demo@fintrack.id", Password: "demo", Role: "user"},
			{ID: "user-admin", Email: "admin@fintrack.id", Password: "admin", Role: "admin"},
		}
	}
	if o.Packages == nil {
		o.Packages = []gw.Package{
			{ID: "silver", Name: "Silver", Price: 50000, DurationDays: 30, Features: []string{"export"}},
			{ID: "gold", Name: "Gold", Price: 150000, DurationDays: 30, Features: []string{"export", FeatureAIChat}},
		}
	}
	if o.Methods == nil {
		o.Methods = []gw.PaymentMethod{
			{ID: "bca", Name: "BCA", Type: "bank_transfer", AccountNumber: "8830123456", AccountName: "PT Fintrack Indonesia"},
			{ID: "mandiri", Name: "Mandiri", Type: "bank_transfer", AccountNumber: "1370012345678", AccountName: "PT Fintrack Indonesia"},
		}
	}
	if o.Promos == nil {
		o.Promos = []Promo{{Code: "GRATIS", Percent: 100}, {Code: "HEMAT10", Percent: 10}}
	}
	if o.UniqueCode == nil {
		o.UniqueCode = func() int64 { return rand.Int64N(999) + 1 }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	s := &Sandbox{
		secret:        []byte(o.JWTSecret),
		ttl:           o.TokenTTL,
		adminSecret:   o.AdminSecret,
		uniqueCode:    o.UniqueCode,
		now:           o.Now,
		logger:        o.Logger.With("component", "sandbox"),
		users:         map[string]User{},
		packages:      o.Packages,
		methods:       o.Methods,
		promos:        map[string]Promo{},
		redeemed:      map[string]bool{},
		invoices:      map[string]*invoice{},
		subscriptions: map[string]*gw.Subscription{},
	}
	for _, u := range o.Users {
		s.users[u.Email] = u
	}
	for _, p := range o.Promos {
		s.promos[p.Code] = p
	}
	return s
}

func (s *Sandbox) findPackage(id string) (gw.Package, bool) {
	for _, p := range s.packages {
		if p.ID == id {
			return p, true
		}
	}
	return gw.Package{}, false
}

func (s *Sandbox) hasMethod(id string) bool {
	for _, m := range s.methods {
		if m.ID == id {
			return true
		}
	}
	return false
}

// activate starts a subscription period. Callers hold mu.
func (s *Sandbox) activate(sub *gw.Subscription, pkg gw.Package, paid int64) {
	start := s.now().UTC()
	end := start.AddDate(0, 0, pkg.DurationDays)
	sub.Status = gw.SubscriptionActive
	sub.AmountPaid = paid
	sub.StartDate = &start
	sub.EndDate = &end
}

// currentSubscription returns the user's active subscription ending last, and
// whether it is already past its end date but still within GracePeriod.
// Callers hold mu.
func (s *Sandbox) currentSubscription(userID string) (*gw.Subscription, bool) {
	var current *gw.Subscription
	now := s.now()
	for _, id := range s.subOrder {
		sub := s.subscriptions[id]
		if sub.UserID != userID || sub.Status != gw.SubscriptionActive {
			continue
		}
		if now.After(sub.EndDate.Add(GracePeriod)) {
			sub.Status = gw.SubscriptionExpired
			continue
		}
		if current == nil || sub.EndDate.After(*current.EndDate) {
			current = sub
		}
	}
	if current == nil {
		return nil, false
	}
	return current, now.After(*current.EndDate)
}

// freemiumState derives the entitlement map: every feature any package offers
// is listed, enabled only when the user's active package includes it.
func (s *Sandbox) freemiumState(userID string) freemium.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := freemium.DefaultState()
	for _, p := range s.packages {
		for _, f := range p.Features {
			state.ActiveFeatures[f] = false
		}
	}
	sub, inGrace := s.currentSubscription(userID)
	if sub == nil {
		return state
	}
	pkg, _ := s.findPackage(sub.PackageID)
	for _, f := range pkg.Features {
		state.ActiveFeatures[f] = true
	}
	expiry := *sub.EndDate
	state.SubscriptionStatus = freemium.SubscriptionStatus{
		CurrentPackage: pkg.ID,
		ExpiryDate:     &expiry,
		InGracePeriod:  inGrace,
	}
	if inGrace {
		left := expiry.Add(GracePeriod).Sub(s.now())
		state.SubscriptionStatus.DaysLeftGrace = int(left.Hours()/24) + 1
	}
	return state
}

func (s *Sandbox) userSubscriptions(userID string) []gw.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentSubscription(userID)
	out := []gw.Subscription{}
	for _, id := range s.subOrder {
		if sub := s.subscriptions[id]; sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out
}
