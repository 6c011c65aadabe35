package httpgw

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	"github.com/tbeaudouin05/fintrack-client/api/freemium"
	gw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
)

// Endpoint paths, relative to the API prefix.
const (
	PathLogin         = "/auth/login"
	PathMethods       = "/payment/methods"
	PathPackages      = "/packages"
	PathCheckout      = "/payment/checkout"
	PathSubmitProof   = "/payment/submit"
	PathVerify        = "/admin/payment/verify"
	PathStatus        = "/subscription/status"
	PathSubscriptions = "/subscriptions"
)

// gateway is the PaymentGateway backed by the fintrack HTTP API.
type gateway struct{ c *client.Client }

// New returns a PaymentGateway that dispatches through c.
func New(c *client.Client) gw.PaymentGateway { return gateway{c: c} }

func (g gateway) Login(ctx context.Context, req gw.LoginRequest) (gw.LoginResponse, error) {
	var out gw.LoginResponse
	body, err := g.c.Post(ctx, PathLogin, req)
	if err != nil {
		return out, err
	}
	err = body.Decode(&out)
	return out, err
}

func (g gateway) ListPaymentMethods(ctx context.Context) ([]gw.PaymentMethod, error) {
	var out []gw.PaymentMethod
	err := g.getList(ctx, PathMethods, &out)
	return out, err
}

func (g gateway) ListPackages(ctx context.Context) ([]gw.Package, error) {
	var out []gw.Package
	err := g.getList(ctx, PathPackages, &out)
	return out, err
}

func (g gateway) Checkout(ctx context.Context, req gw.CheckoutRequest) (gw.CheckoutResponse, error) {
	var out gw.CheckoutResponse
	body, err := g.c.Post(ctx, PathCheckout, req)
	if err != nil {
		return out, err
	}
	err = body.Decode(&out)
	return out, err
}

func (g gateway) SubmitProof(ctx context.Context, req gw.SubmitProofRequest) (gw.SubmitProofResponse, error) {
	var out gw.SubmitProofResponse
	body, err := g.c.Post(ctx, PathSubmitProof, req)
	if err != nil {
		return out, err
	}
	err = body.Decode(&out)
	return out, err
}

func (g gateway) VerifyPayment(ctx context.Context, req gw.VerifyRequest) (gw.Subscription, error) {
	var out gw.Subscription
	body, err := g.c.Post(ctx, PathVerify, req)
	if err != nil {
		return out, err
	}
	err = body.Decode(&out)
	return out, err
}

func (g gateway) GetFreemiumStatus(ctx context.Context) (freemium.State, error) {
	out := freemium.DefaultState()
	body, err := g.c.Get(ctx, PathStatus)
	if err != nil {
		return freemium.State{}, err
	}
	if err := body.Decode(&out); err != nil {
		return freemium.State{}, err
	}
	if out.ActiveFeatures == nil {
		out.ActiveFeatures = map[string]bool{}
	}
	return out, nil
}

func (g gateway) ListSubscriptions(ctx context.Context) ([]gw.Subscription, error) {
	var out []gw.Subscription
	err := g.getList(ctx, PathSubscriptions, &out)
	return out, err
}

// getList accepts either a bare JSON array or an envelope {"data": [...]}.
func (g gateway) getList(ctx context.Context, path string, out any) error {
	body, err := g.c.Get(ctx, path)
	if err != nil {
		return err
	}
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		return body.Decode(out)
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := body.Decode(&envelope); err != nil {
		return err
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	return client.Body(envelope.Data).Decode(out)
}
