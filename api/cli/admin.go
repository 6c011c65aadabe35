package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	gw "github.com/tbeaudouin05/fintrack-client/api/services/payment/gateway"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <invoice-id>",
		Short: "Approve or reject a submitted transfer (admin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}
	cmd.Flags().Bool("reject", false, "reject instead of approve")
	cmd.Flags().String("note", "", "note stored with the decision")
	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	reject, _ := cmd.Flags().GetBool("reject")
	note, _ := cmd.Flags().GetString("note")

	sub, err := a.Checkout.VerifyPayment(cmd.Context(), gw.VerifyRequest{InvoiceID: args[0], Approve: !reject, Note: note})
	if err != nil {
		return fmt.Errorf("verification failed: %s", client.Describe(err))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s: subscription %s is now %s\n", args[0], sub.ID, sub.Status)
	return nil
}
