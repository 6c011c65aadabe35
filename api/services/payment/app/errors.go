package app

import "errors"

// Typed errors for the checkout flow. Server and transport failures are
// returned as *client.APIError; these cover the local rules of the flow.
var (
	// ErrTransitionInFlight indicates another transition of the same flow has not resolved yet.
	ErrTransitionInFlight = errors.New("transition in flight")
	// ErrFlowClosed indicates the flow was closed or replaced by a newer checkout.
	ErrFlowClosed = errors.New("checkout closed")
	// ErrInvalidTransition indicates the operation is not allowed in the current step.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNoMethodSelected indicates Submit was called before a payment method was chosen.
	ErrNoMethodSelected = errors.New("no payment method selected")
	// ErrUnknownMethod indicates the selected payment method is not in the loaded list.
	ErrUnknownMethod = errors.New("unknown payment method")
	// ErrProofTooLarge indicates the proof file exceeds the upload ceiling.
	ErrProofTooLarge = errors.New("proof of payment too large")
	// ErrNoProof indicates SubmitProof was called without an attached proof.
	ErrNoProof = errors.New("no proof of payment attached")
)
