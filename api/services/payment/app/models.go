package app

import gw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"

// Step is the position of a checkout in its five-step progression.
type Step int

const (
	StepMethodSelection Step = iota + 1
	StepProcessing
	StepInstructions
	StepProofUpload
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepMethodSelection:
		return "method-selection"
	case StepProcessing:
		return "processing"
	case StepInstructions:
		return "payment-instructions"
	case StepProofUpload:
		return "proof-upload"
	case StepSuccess:
		return "success"
	}
	return "unknown"
}

// Outcome tells how a successful checkout finished. It only changes the message.
type Outcome string

const (
	OutcomeNone               Outcome = ""
	OutcomeAutoActivated      Outcome = "autoActivated"
	OutcomeManualVerification Outcome = "manualVerification"
)

func (o Outcome) Message() string {
	switch o {
	case OutcomeAutoActivated:
		return "Your package is active. No payment was needed."
	case OutcomeManualVerification:
		return "Payment proof submitted. Your package will be activated once the transfer is verified."
	}
	return ""
}

// Snapshot is a read-only copy of a flow's state.
type Snapshot struct {
	UserID           string
	Step             Step
	Failed           bool
	Error            string
	Busy             bool
	Closed           bool
	Package          gw.Package
	Methods          []gw.PaymentMethod
	MethodsFromCache bool
	SelectedMethodID string
	PromoCode        string
	InvoiceID        string
	AmountToPay      int64
	IsFree           bool
	HasProof         bool
	Outcome          Outcome
}

// Instructions is what the user needs to make the bank transfer. The last
// three digits of the amount are the unique code that identifies the payment.
type Instructions struct {
	Method        gw.PaymentMethod
	InvoiceID     string
	AmountToPay   int64
	AmountDisplay string
	Main          string
	UniqueCode    string
}
