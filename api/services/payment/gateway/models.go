package gateway

import "time"

// PaymentMethod is a destination the user can transfer money to.
type PaymentMethod struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	Instructions  string `json:"instructions,omitempty"`
}

// Package is a purchasable subscription tier. Price is in whole rupiah.
type Package struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        int64    `json:"price"`
	DurationDays int      `json:"durationDays"`
	Features     []string `json:"features,omitempty"`
}

// Subscription is read-only on the client. AmountPaid is in whole rupiah and
// stays 0 until the subscription is activated.
type Subscription struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	PackageID       string     `json:"packageId"`
	InvoiceID       string     `json:"invoiceId,omitempty"`
	Status          string     `json:"status"`
	AmountPaid      int64      `json:"amountPaid"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	ProofOfPayment  string     `json:"proofOfPayment,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// Subscription statuses reported by the server.
const (
	SubscriptionPending         = "pending"
	SubscriptionAwaitingPayment = "awaiting_payment"
	SubscriptionVerifying       = "verifying"
	SubscriptionActive          = "active"
	SubscriptionExpired         = "expired"
	SubscriptionRejected        = "rejected"
	SubscriptionCancelled       = "cancelled"
)

type CheckoutRequest struct {
	UserID          string `json:"userId" validate:"required"`
	PackageID       string `json:"packageId" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
	PromoCode       string `json:"promoCode,omitempty" validate:"omitempty,max=32"`
}

// CheckoutResponse is returned for every checkout attempt. A non-empty Error
// is a business-rule rejection even when the transport succeeded.
type CheckoutResponse struct {
	InvoiceID    string        `json:"invoiceId"`
	AmountToPay  int64         `json:"amountToPay"`
	IsFree       bool          `json:"isFree"`
	Subscription *Subscription `json:"subscription,omitempty"`
	Message      string        `json:"message,omitempty"`
	Error        string        `json:"error,omitempty"`
}

type SubmitProofRequest struct {
	InvoiceID      string `json:"invoiceId" validate:"required"`
	ProofOfPayment string `json:"proofOfPayment" validate:"required,startswith=data:image/"`
}

type SubmitProofResponse struct {
	Message      string        `json:"message,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	UserID       string `json:"userId"`
	SessionToken string `json:"sessionToken"`
	Role         string `json:"role"`
}

// VerifyRequest is an admin decision on a submitted proof.
type VerifyRequest struct {
	InvoiceID string `json:"invoiceId" validate:"required"`
	Approve   bool   `json:"approve"`
	Note      string `json:"note,omitempty"`
}
