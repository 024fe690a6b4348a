package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akywe-ledger/akywe/internal/domain"
)

func init() {
	rootCmd.AddCommand(debtCmd)
	debtCmd.AddCommand(debtAddCmd)
	debtCmd.AddCommand(debtListCmd)
	debtCmd.AddCommand(debtUpdateCmd)
	debtCmd.AddCommand(debtDeleteCmd)

	rootCmd.AddCommand(paymentCmd)
	paymentCmd.AddCommand(paymentAddCmd)
	paymentCmd.AddCommand(paymentListCmd)
	paymentCmd.AddCommand(paymentUpdateCmd)
	paymentCmd.AddCommand(paymentDeleteCmd)

	debtAddCmd.Flags().StringP("date", "d", "", "Date as YYYY-MM-DD (default today)")
	debtListCmd.Flags().StringP("search", "s", "", "Filter by customer name or item")
	debtListCmd.Flags().StringP("month", "m", "", "Only debts in this YYYY-MM month")
	debtUpdateCmd.Flags().String("item", "", "New item")
	debtUpdateCmd.Flags().String("amount", "", "New amount")
	debtUpdateCmd.Flags().StringP("date", "d", "", "New date")

	paymentAddCmd.Flags().StringP("date", "d", "", "Date as YYYY-MM-DD (default today)")
	paymentListCmd.Flags().StringP("search", "s", "", "Filter by customer name")
	paymentListCmd.Flags().StringP("date", "d", "", "Only payments on this date")
	paymentUpdateCmd.Flags().String("amount", "", "New amount")
	paymentUpdateCmd.Flags().StringP("date", "d", "", "New date")
}

var debtCmd = &cobra.Command{
	Use:     "debt",
	Aliases: []string{"debts", "d"},
	Short:   "Record and manage debts",
}

var paymentCmd = &cobra.Command{
	Use:     "payment",
	Aliases: []string{"payments", "p"},
	Short:   "Record and manage payments",
}

// ─── debt ───────────────────────────────────────────────────────────────────

var debtAddCmd = &cobra.Command{
	Use:   "add CUSTOMER ITEM AMOUNT",
	Short: "Record goods taken on credit",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := domain.ParseAmount(args[2])
		if err != nil {
			return fmt.Errorf("amount %q: %w", args[2], err)
		}
		date, _ := cmd.Flags().GetString("date")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		c, err := resolveCustomer(app.Ledger(), args[0])
		if err != nil {
			return err
		}
		_, err = app.Service.AddDebt(cmdContext(cmd), c.ID, args[1], amount, date)
		if err := report(cmd, app, err); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s now owes %s\n", c.Name, money(app, app.Ledger().OutstandingBalance(c.ID)))
		return nil
	},
}

var debtListCmd = &cobra.Command{
	Use:   "list",
	Short: "List debts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		month, _ := cmd.Flags().GetString("month")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		e := app.Ledger()
		var inMonth map[string]bool
		if month != "" {
			inMonth = make(map[string]bool)
			for _, d := range e.DebtsInMonth(month) {
				inMonth[d.ID] = true
			}
		}
		tw := table(cmd.OutOrStdout())
		fmt.Fprintln(tw, "DATE\tCUSTOMER\tITEM\tAMOUNT\tID")
		for _, d := range e.SearchDebts(search) {
			if inMonth != nil && !inMonth[d.ID] {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Date, d.CustomerName, d.Item, money(app, d.Total), d.ID)
		}
		return tw.Flush()
	},
}

var debtUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change a debt's item, amount or date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u domain.DebtUpdate
		if cmd.Flags().Changed("item") {
			v, _ := cmd.Flags().GetString("item")
			u.Item = &v
		}
		if cmd.Flags().Changed("amount") {
			raw, _ := cmd.Flags().GetString("amount")
			v, err := domain.ParseAmount(raw)
			if err != nil {
				return fmt.Errorf("amount %q: %w", raw, err)
			}
			u.Amount = &v
		}
		if cmd.Flags().Changed("date") {
			v, _ := cmd.Flags().GetString("date")
			u.Date = &v
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		_, err = app.Service.UpdateDebt(cmdContext(cmd), args[0], u)
		return report(cmd, app, err)
	},
}

var debtDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a debt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return report(cmd, app, app.Service.DeleteDebt(cmdContext(cmd), args[0]))
	},
}

// ─── payment ────────────────────────────────────────────────────────────────

var paymentAddCmd = &cobra.Command{
	Use:   "add CUSTOMER AMOUNT",
	Short: "Record a payment against a customer's balance",
	Long: `Record a payment. The amount may pay the balance off exactly but never
exceed it, and customers who owe nothing cannot pay.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := domain.ParseAmount(args[1])
		if err != nil {
			return fmt.Errorf("amount %q: %w", args[1], err)
		}
		date, _ := cmd.Flags().GetString("date")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		c, err := resolveCustomer(app.Ledger(), args[0])
		if err != nil {
			return err
		}
		_, err = app.Service.AddPayment(cmdContext(cmd), c.ID, amount, date)
		if err := report(cmd, app, err); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s now owes %s\n", c.Name, money(app, app.Ledger().OutstandingBalance(c.ID)))
		return nil
	},
}

var paymentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payments, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		date, _ := cmd.Flags().GetString("date")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		e := app.Ledger()
		var onDate map[string]bool
		if date != "" {
			onDate = make(map[string]bool)
			for _, p := range e.PaymentsOnDate(date) {
				onDate[p.ID] = true
			}
		}
		tw := table(cmd.OutOrStdout())
		fmt.Fprintln(tw, "DATE\tCUSTOMER\tAMOUNT\tID")
		for _, p := range e.SearchPayments(search) {
			if onDate != nil && !onDate[p.ID] {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Date, p.CustomerName, money(app, p.Amount), p.ID)
		}
		return tw.Flush()
	},
}

var paymentUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change a payment's amount or date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u domain.PaymentUpdate
		if cmd.Flags().Changed("amount") {
			raw, _ := cmd.Flags().GetString("amount")
			v, err := domain.ParseAmount(raw)
			if err != nil {
				return fmt.Errorf("amount %q: %w", raw, err)
			}
			u.Amount = &v
		}
		if cmd.Flags().Changed("date") {
			v, _ := cmd.Flags().GetString("date")
			u.Date = &v
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		_, err = app.Service.UpdatePayment(cmdContext(cmd), args[0], u)
		return report(cmd, app, err)
	},
}

var paymentDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a payment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return report(cmd, app, app.Service.DeletePayment(cmdContext(cmd), args[0]))
	},
}
