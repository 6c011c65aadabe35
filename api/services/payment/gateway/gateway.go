package gateway

import (
	"context"

	"github.com/tbeaudouin05/fintrack-client/api/freemium"
)

//go:generate mockgen -destination=mockgw/gateway.go -package=mockgw . PaymentGateway

// PaymentGateway abstracts the fintrack payment and subscription endpoints
// needed by the app layer. Methods return values (not pointers) so callers
// never share response state.
type PaymentGateway interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error)
	ListPackages(ctx context.Context) ([]Package, error)
	Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error)
	SubmitProof(ctx context.Context, req SubmitProofRequest) (SubmitProofResponse, error)
	VerifyPayment(ctx context.Context, req VerifyRequest) (Subscription, error)
	GetFreemiumStatus(ctx context.Context) (freemium.State, error)
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
}
