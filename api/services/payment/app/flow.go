package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	gw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
)

// Flow is one checkout session. Transitions are serialized: while one is in
// flight every other transition fails with ErrTransitionInFlight. Once the
// flow is closed, late results are dropped.
type Flow struct {
	svc    *serviceImpl
	userID string
	pkg    gw.Package

	mu               sync.Mutex
	busy             bool
	closed           bool
	step             Step
	failed           bool
	errMsg           string
	methods          []gw.PaymentMethod
	methodsFromCache bool
	methodID         string
	promoCode        string
	result           gw.CheckoutResponse
	proof            string
	outcome          Outcome
}

// begin claims the flow for one transition that must start in one of steps.
// The caller must call finish.
func (f *Flow) begin(op string, steps ...Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(op, steps...); err != nil {
		return err
	}
	f.busy = true
	return nil
}

func (f *Flow) guard(op string, steps ...Step) error {
	if f.closed {
		return ErrFlowClosed
	}
	if f.busy {
		return ErrTransitionInFlight
	}
	for _, s := range steps {
		if f.step == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not allowed in step %s", ErrInvalidTransition, op, f.step)
}

// finish releases the flow and applies the result unless the flow was closed meanwhile.
func (f *Flow) finish(apply func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.closed {
		return false
	}
	apply()
	return true
}

// transition runs a transition that needs no I/O.
func (f *Flow) transition(op string, apply func() error, steps ...Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(op, steps...); err != nil {
		return err
	}
	return apply()
}

// SelectMethod chooses one of the loaded payment methods.
func (f *Flow) SelectMethod(id string) error {
	return f.transition("select method", func() error {
		for _, m := range f.methods {
			if m.ID == id {
				f.methodID = id
				f.errMsg = ""
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrUnknownMethod, id)
	}, StepMethodSelection)
}

func (f *Flow) SetPromoCode(code string) error {
	return f.transition("set promo code", func() error {
		f.promoCode = strings.TrimSpace(code)
		return nil
	}, StepMethodSelection)
}

// Submit sends the checkout request. A fully discounted package goes straight
// to success; anything payable moves on to the transfer instructions. Errors
// leave the flow in the failed state of the processing step.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if err := f.guard("submit", StepMethodSelection, StepProcessing); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.step == StepProcessing && !f.failed {
		f.mu.Unlock()
		return fmt.Errorf("%w: checkout already submitted", ErrInvalidTransition)
	}
	if f.methodID == "" {
		f.mu.Unlock()
		return ErrNoMethodSelected
	}
	req := gw.CheckoutRequest{
		UserID:          f.userID,
		PackageID:       f.pkg.ID,
		PaymentMethodID: f.methodID,
		PromoCode:       f.promoCode,
	}
	f.busy = true
	f.step = StepProcessing
	f.failed = false
	f.errMsg = ""
	f.mu.Unlock()

	logger := f.svc.logger.With("user_id", f.userID, "package_id", f.pkg.ID)
	resp, err := f.checkout(ctx, req)
	if err != nil {
		logger.Warn("checkout failed", "err", err)
		f.finish(func() { f.fail(err) })
		return err
	}

	switch {
	case resp.IsFree || resp.AmountToPay == 0:
		applied := f.finish(func() {
			f.result = resp
			f.step = StepSuccess
			f.outcome = OutcomeAutoActivated
		})
		logger.Info("checkout auto-activated", "invoice_id", resp.InvoiceID, "applied", applied)
		f.svc.refresh(ctx)
	default:
		f.finish(func() {
			f.result = resp
			f.step = StepInstructions
		})
		logger.Info("checkout awaiting transfer", "invoice_id", resp.InvoiceID, "amount", resp.AmountToPay)
	}
	return nil
}

// checkout validates and sends req, then applies the business-error rule: a
// 2xx body with an error, or a message and no invoice, is a rejection.
func (f *Flow) checkout(ctx context.Context, req gw.CheckoutRequest) (gw.CheckoutResponse, error) {
	if err := f.svc.check(req); err != nil {
		return gw.CheckoutResponse{}, err
	}
	resp, err := f.svc.gw.Checkout(ctx, req)
	if err != nil {
		return gw.CheckoutResponse{}, err
	}
	if resp.Error != "" {
		return gw.CheckoutResponse{}, client.Validation(resp.Error)
	}
	if resp.InvoiceID == "" && !resp.IsFree {
		msg := resp.Message
		if msg == "" {
			msg = "Checkout did not return an invoice."
		}
		return gw.CheckoutResponse{}, client.Validation(msg)
	}
	return resp, nil
}

func (f *Flow) fail(err error) {
	f.failed = true
	f.errMsg = client.Describe(err)
}

// BackToMethodSelection returns to step 1 keeping the selected method and promo code.
func (f *Flow) BackToMethodSelection() error {
	return f.transition("back to method selection", func() error {
		if f.step == StepProcessing && !f.failed {
			return fmt.Errorf("%w: checkout is processing", ErrInvalidTransition)
		}
		f.step = StepMethodSelection
		f.failed = false
		f.errMsg = ""
		f.result = gw.CheckoutResponse{}
		return nil
	}, StepProcessing, StepInstructions)
}

// ConfirmTransfer moves from the instructions to proof upload.
func (f *Flow) ConfirmTransfer() error {
	return f.transition("confirm transfer", func() error {
		f.step = StepProofUpload
		return nil
	}, StepInstructions)
}

func (f *Flow) BackToInstructions() error {
	return f.transition("back to instructions", func() error {
		f.step = StepInstructions
		f.errMsg = ""
		return nil
	}, StepProofUpload)
}

// AttachProof reads an image of at most the configured ceiling, compresses it
// and keeps it as the proof payload. Oversized input is rejected before
// compression.
func (f *Flow) AttachProof(r io.Reader) error {
	if err := f.begin("attach proof", StepProofUpload); err != nil {
		return err
	}
	limit := f.svc.proofMaxBytes
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err == nil && int64(len(raw)) > limit {
		err = f.tooLarge()
	}
	var proof string
	if err == nil {
		proof, err = f.compress(raw)
	}
	f.finish(func() {
		if err != nil {
			f.errMsg = err.Error()
			return
		}
		f.proof = proof
		f.errMsg = ""
	})
	return err
}

// AttachProofFile checks the file size before reading anything.
func (f *Flow) AttachProofFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > f.svc.proofMaxBytes {
		err := f.tooLarge()
		f.mu.Lock()
		if !f.closed {
			f.errMsg = err.Error()
		}
		f.mu.Unlock()
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return f.AttachProof(file)
}

func (f *Flow) tooLarge() error {
	return fmt.Errorf("%w: maximum size is %s", ErrProofTooLarge, humanize.IBytes(uint64(f.svc.proofMaxBytes)))
}

func (f *Flow) compress(raw []byte) (string, error) {
	if f.svc.compressor == nil {
		return "", fmt.Errorf("no proof compressor configured")
	}
	return f.svc.compressor.DataURL(bytes.NewReader(raw))
}

// SubmitProof uploads the attached proof. On failure the flow stays in the
// proof step with the proof kept for a retry.
func (f *Flow) SubmitProof(ctx context.Context) error {
	f.mu.Lock()
	if err := f.guard("submit proof", StepProofUpload); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.proof == "" {
		f.mu.Unlock()
		return ErrNoProof
	}
	req := gw.SubmitProofRequest{InvoiceID: f.result.InvoiceID, ProofOfPayment: f.proof}
	f.busy = true
	f.errMsg = ""
	f.mu.Unlock()

	logger := f.svc.logger.With("user_id", f.userID, "invoice_id", req.InvoiceID)
	err := f.svc.check(req)
	if err == nil {
		_, err = f.svc.gw.SubmitProof(ctx, req)
	}
	if err != nil {
		logger.Warn("proof submission failed", "err", err)
		f.finish(func() { f.errMsg = client.Describe(err) })
		return err
	}

	applied := f.finish(func() {
		f.step = StepSuccess
		f.outcome = OutcomeManualVerification
	})
	logger.Info("proof submitted", "applied", applied)
	f.svc.refresh(ctx)
	return nil
}

// Instructions returns the transfer details for an issued invoice.
func (f *Flow) Instructions() (Instructions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result.InvoiceID == "" || (f.step != StepInstructions && f.step != StepProofUpload) {
		return Instructions{}, fmt.Errorf("%w: no payable invoice in step %s", ErrInvalidTransition, f.step)
	}
	var method gw.PaymentMethod
	for _, m := range f.methods {
		if m.ID == f.methodID {
			method = m
		}
	}
	main, code := SplitUniqueCode(f.result.AmountToPay)
	return Instructions{
		Method:        method,
		InvoiceID:     f.result.InvoiceID,
		AmountToPay:   f.result.AmountToPay,
		AmountDisplay: "Rp " + FormatRupiah(f.result.AmountToPay),
		Main:          main,
		UniqueCode:    code,
	}, nil
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	methods := make([]gw.PaymentMethod, len(f.methods))
	copy(methods, f.methods)
	return Snapshot{
		UserID:           f.userID,
		Step:             f.step,
		Failed:           f.failed,
		Error:            f.errMsg,
		Busy:             f.busy,
		Closed:           f.closed,
		Package:          f.pkg,
		Methods:          methods,
		MethodsFromCache: f.methodsFromCache,
		SelectedMethodID: f.methodID,
		PromoCode:        f.promoCode,
		InvoiceID:        f.result.InvoiceID,
		AmountToPay:      f.result.AmountToPay,
		IsFree:           f.result.IsFree,
		HasProof:         f.proof != "",
		Outcome:          f.outcome,
	}
}

// Close ends the flow. Requests still in flight complete but their results are dropped.
func (f *Flow) Close() {
	f.discard()
	f.svc.release(f)
}

func (f *Flow) discard() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}
