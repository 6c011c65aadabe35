package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tbeaudouin05/fintrack-client/api/client"
	payapp "github.com/tbeaudouin05/fintrack-client/api/services/payment/app"
)

func rupiah(n int64) string { return "Rp " + payapp.FormatRupiah(n) }

func newPackagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "packages",
		Short: "List subscription packages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			pkgs, err := a.Checkout.ListPackages(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not load packages: %s", client.Describe(err))
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tPRICE\tDAYS\tFEATURES")
			for _, p := range pkgs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, rupiah(p.Price), p.DurationDays, strings.Join(p.Features, ", "))
			}
			return tw.Flush()
		},
	}
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List payment methods",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			methods, fromCache, err := a.Checkout.ListPaymentMethods(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not load payment methods: %s", client.Describe(err))
			}
			out := cmd.OutOrStdout()
			if fromCache {
				_, _ = fmt.Fprintln(out, warnStyle.Render("Server unreachable; showing saved payment methods."))
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tNAME\tACCOUNT\tHOLDER")
			for _, m := range methods {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.AccountNumber, m.AccountName)
			}
			return tw.Flush()
		},
	}
}

func newSubscriptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscriptions",
		Short: "Show your subscription history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			subs, err := a.Checkout.ListSubscriptions(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not load subscriptions: %s", client.Describe(err))
			}
			if len(subs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No subscriptions yet."))
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "PACKAGE\tSTATUS\tINVOICE\tENDS")
			for _, s := range subs {
				ends := "-"
				if s.EndDate != nil {
					ends = s.EndDate.Format("2006-01-02")
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.PackageID, s.Status, s.InvoiceID, ends)
			}
			return tw.Flush()
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show your package and feature access",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if err := a.Freemium.Refresh(ctx); err != nil {
				_, _ = fmt.Fprintln(out, warnStyle.Render("Showing saved status: "+client.Describe(err)))
			}
			state := a.Freemium.Read(ctx)
			st, features := state.SubscriptionStatus, state.ActiveFeatures

			_, _ = fmt.Fprintln(out, titleStyle.Render("Package: "+st.CurrentPackage))
			if st.IsFreeTier {
				_, _ = fmt.Fprintln(out, "Tier:    free")
			}
			if st.ExpiryDate != nil {
				_, _ = fmt.Fprintf(out, "Expires: %s (%s)\n", st.ExpiryDate.Format("2006-01-02"), humanize.Time(*st.ExpiryDate))
			}
			if st.InGracePeriod {
				_, _ = fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Grace period: %d day(s) left to renew", st.DaysLeftGrace)))
			}
			for _, k := range slices.Sorted(maps.Keys(features)) {
				mark := errorStyle.Render("no")
				if features[k] {
					mark = successStyle.Render("yes")
				}
				_, _ = fmt.Fprintf(out, "  %-12s %s\n", k, mark)
			}
			return nil
		},
	}
}
