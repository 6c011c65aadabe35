// Package cli is the fintrack command line: sign-in, catalogue, the checkout
// wizard, admin verification and the local sandbox server.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbeaudouin05/fintrack-client/api/bootstrap"
)

var version = "dev"

var errNotSignedIn = errors.New("not signed in; run `fintrack login` first")

// NewRootCmd creates the root cobra command for fintrack.
func NewRootCmd(v string) *cobra.Command {
	version = v

	root := &cobra.Command{
		Use:           "fintrack",
		Short:         "Fintrack client for subscriptions and checkout",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newPackagesCmd())
	root.AddCommand(newMethodsCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newSubscriptionsCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newSandboxCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// loadApp initializes the process App once. The console navigator prints the
// sign-in notice when the session expires mid-command.
func loadApp(cmd *cobra.Command) (*bootstrap.App, error) {
	if err := bootstrap.Ensure(cmd.Context(), bootstrap.Options{Navigator: newConsoleNav(cmd.ErrOrStderr())}); err != nil {
		return nil, err
	}
	return bootstrap.GetApp(), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "fintrack", version)
		},
	}
}
