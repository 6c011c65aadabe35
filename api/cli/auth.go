package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbeaudouin05/fintrack-client/api/client"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE:  runLogin,
	}
	cmd.Flags().StringP("email", "e", "", "account email (prompted when empty)")
	cmd.Flags().String("password", "", "account password (prompted when empty)")
	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email == "" {
		if email, err = p.ask("Email"); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = p.secret("Password"); err != nil {
			return err
		}
	}

	sess, err := a.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("sign-in failed: %s", client.Describe(err))
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Signed in as "+sess.UserID))
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if err := a.Logout(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}
