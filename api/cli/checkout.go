package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	payapp "github.com/tbeaudouin05/fintrack-client/api/services/payment/app"
	gw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
)

func newCheckoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout <package-id>",
		Short: "Buy a package by bank transfer",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheckout,
	}
	cmd.Flags().StringP("method", "m", "", "payment method id (prompted when empty)")
	cmd.Flags().StringP("promo", "p", "", "promo code")
	cmd.Flags().String("proof", "", "path to the transfer receipt image (prompted when empty)")
	return cmd
}

// wizard walks one Flow from method selection to success, prompting for
// whatever the flags did not provide.
type wizard struct {
	flow   *payapp.Flow
	prompt *prompter
	out    io.Writer
}

func runCheckout(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	sess := a.Sessions.Load(ctx)
	if sess.UserID == "" {
		return errNotSignedIn
	}

	pkgs, err := a.Checkout.ListPackages(ctx)
	if err != nil {
		return fmt.Errorf("could not load packages: %s", client.Describe(err))
	}
	var pkg gw.Package
	for _, p := range pkgs {
		if p.ID == args[0] {
			pkg = p
		}
	}
	if pkg.ID == "" {
		return fmt.Errorf("unknown package %q; run `fintrack packages`", args[0])
	}

	w := &wizard{
		flow:   a.Checkout.Open(ctx, sess.UserID, pkg),
		prompt: newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		out:    cmd.OutOrStdout(),
	}
	defer w.flow.Close()

	method, _ := cmd.Flags().GetString("method")
	promo, _ := cmd.Flags().GetString("promo")
	proof, _ := cmd.Flags().GetString("proof")

	w.printf("%s\n", titleStyle.Render(fmt.Sprintf("Checkout: %s (%s)", pkg.Name, rupiah(pkg.Price))))
	if err := w.selectMethod(method, promo); err != nil {
		return err
	}
	if err := w.submit(cmd); err != nil {
		return err
	}
	if w.flow.Snapshot().Step == payapp.StepSuccess {
		return w.done()
	}
	if err := w.instructions(); err != nil {
		return err
	}
	if err := w.flow.ConfirmTransfer(); err != nil {
		return err
	}
	if err := w.uploadProof(cmd, proof); err != nil {
		return err
	}
	return w.done()
}

func (w *wizard) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

func (w *wizard) selectMethod(method, promo string) error {
	snap := w.flow.Snapshot()
	if len(snap.Methods) == 0 {
		if snap.Error != "" {
			return errors.New(snap.Error)
		}
		return errors.New("no payment methods are available")
	}
	if snap.MethodsFromCache {
		w.printf("%s\n", warnStyle.Render("Server unreachable; showing saved payment methods."))
	}
	if method == "" {
		keys := make([]string, len(snap.Methods))
		labels := make([]string, len(snap.Methods))
		for i, m := range snap.Methods {
			keys[i] = m.ID
			labels[i] = fmt.Sprintf("%s (%s)", m.Name, m.AccountNumber)
		}
		var err error
		if method, err = w.prompt.choose("Choose a payment method:", keys, labels); err != nil {
			return err
		}
	}
	if err := w.flow.SelectMethod(method); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return w.flow.SetPromoCode(promo)
}

// submit creates the invoice, offering a retry while the failure is shown.
func (w *wizard) submit(cmd *cobra.Command) error {
	for {
		err := w.flow.Submit(cmd.Context())
		if err == nil {
			return nil
		}
		w.printf("%s\n", errorStyle.Render(client.Describe(err)))
		if !w.prompt.confirm("Try again?") {
			return err
		}
	}
}

func (w *wizard) instructions() error {
	in, err := w.flow.Instructions()
	if err != nil {
		return err
	}
	amount := in.AmountDisplay
	if in.UniqueCode != "" {
		amount = "Rp " + in.Main + "." + highlight.Render(in.UniqueCode)
	}
	lines := []string{
		fmt.Sprintf("Transfer exactly %s", amount),
		fmt.Sprintf("to %s %s", in.Method.Name, in.Method.AccountNumber),
		fmt.Sprintf("a.n. %s", in.Method.AccountName),
	}
	if in.Method.Instructions != "" {
		lines = append(lines, "", in.Method.Instructions)
	}
	lines = append(lines, "", mutedStyle.Render("Invoice "+in.InvoiceID+". The last three digits identify your payment."))
	w.printf("%s\n", boxStyle.Render(strings.Join(lines, "\n")))
	return nil
}

// uploadProof attaches and submits the receipt. A rejected file or a failed
// upload asks for another try; an empty answer stops with the invoice pending.
func (w *wizard) uploadProof(cmd *cobra.Command, path string) error {
	for {
		if path == "" {
			var err error
			path, err = w.prompt.ask("Path to your transfer receipt (empty to finish later)")
			if err != nil || path == "" {
				return fmt.Errorf("invoice %s is waiting for proof of payment", w.flow.Snapshot().InvoiceID)
			}
		}
		if err := w.flow.AttachProofFile(path); err != nil {
			w.printf("%s\n", errorStyle.Render(client.Describe(err)))
			path = ""
			continue
		}
		err := w.flow.SubmitProof(cmd.Context())
		if err == nil {
			return nil
		}
		w.printf("%s\n", errorStyle.Render(client.Describe(err)))
		if !w.prompt.confirm("Upload again?") {
			return err
		}
		path = ""
	}
}

func (w *wizard) done() error {
	snap := w.flow.Snapshot()
	w.printf("%s\n", successStyle.Render(snap.Outcome.Message()))
	return nil
}
