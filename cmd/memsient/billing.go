package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Al-aminI/memsient-go/api"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Browse subscription plans",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plans",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client := newClient()
		plans, err := client.Billing.ListPlans(cmd.Context())
		if err != nil {
			return err
		}
		for _, plan := range plans {
			fmt.Printf("%-16s %-10s %s\n", plan.ID, plan.Name, formatPrice(plan))
		}
		return nil
	},
}

var plansShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show one plan in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		plan, err := client.Billing.GetPlan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", plan.Name, plan.ID)
		fmt.Printf("  Price:      %s\n", formatPrice(*plan))
		fmt.Printf("  Memories:   %s\n", formatLimit(plan.MaxMemories))
		fmt.Printf("  Retrievals: %s per month\n", formatLimit(plan.MaxRetrievalCallsPerMonth))
		if plan.Features != nil && plan.Features.Description != "" {
			fmt.Printf("  %s\n", plan.Features.Description)
		}
		if plan.Features != nil {
			for _, f := range plan.Features.Features {
				fmt.Printf("  - %s\n", f)
			}
		}
		return nil
	},
}

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Subscription, usage and invoices",
}

var billingSubscriptionCmd = &cobra.Command{
	Use:   "subscription",
	Short: "Show the current subscription",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, client, _, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		sub, err := client.Billing.MySubscription(cmd.Context())
		if err != nil {
			return err
		}
		if sub == nil {
			fmt.Println("No paid subscription (free tier).")
			return nil
		}
		fmt.Printf("Plan %s, status %s, renews %s\n",
			sub.PlanName, sub.Status, sub.CurrentPeriodEnd.Format("2006-01-02"))
		if sub.CancelAtPeriodEnd {
			fmt.Println("Cancels at the end of the current period.")
		}
		return nil
	},
}

var billingUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show usage against current plan limits",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, client, _, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		usage, err := client.Billing.Usage(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Month %s\n", usage.Month)
		fmt.Printf("  Memories:   %d / %s\n", usage.MemoryCount, formatLimit(usage.MemoryLimit))
		fmt.Printf("  Retrievals: %d / %s\n", usage.RetrievalCount, formatLimit(usage.RetrievalLimit))
		return nil
	},
}

var billingInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, client, _, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		invoices, err := client.Billing.Invoices(cmd.Context())
		if err != nil {
			return err
		}
		if len(invoices) == 0 {
			fmt.Println("No invoices.")
			return nil
		}
		for _, inv := range invoices {
			fmt.Printf("%-40s %s  $%.2f %s  %s\n",
				inv.ID, inv.CreatedAt.Format("2006-01-02"),
				float64(inv.AmountCents)/100, inv.Currency, inv.Status)
		}
		return nil
	},
}

var billingCheckoutCmd = &cobra.Command{
	Use:   "checkout <plan-id>",
	Short: "Start a checkout session for a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, _, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		cs, err := client.Billing.CreateCheckout(cmd.Context(), api.CheckoutParams{
			PlanID:     args[0],
			SuccessURL: apiBase() + "/billing/success",
			CancelURL:  apiBase() + "/billing/cancel",
		})
		if err != nil {
			return err
		}
		fmt.Printf("Open this URL to complete payment:\n\n  %s\n", cs.URL)
		return nil
	},
}

func formatPrice(plan api.Plan) string {
	if plan.PriceCents == 0 {
		return "free"
	}
	interval := plan.Interval
	if interval == "" {
		interval = "month"
	}
	return fmt.Sprintf("$%.2f/%s", float64(plan.PriceCents)/100, interval)
}

func formatLimit(n *int) string {
	if n == nil {
		return "unlimited"
	}
	return fmt.Sprintf("%d", *n)
}

func init() {
	plansCmd.AddCommand(plansListCmd)
	plansCmd.AddCommand(plansShowCmd)
	billingCmd.AddCommand(billingSubscriptionCmd)
	billingCmd.AddCommand(billingUsageCmd)
	billingCmd.AddCommand(billingInvoicesCmd)
	billingCmd.AddCommand(billingCheckoutCmd)
	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(billingCmd)
}
