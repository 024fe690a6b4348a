package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akywe-ledger/akywe/internal/domain"
)

func init() {
	rootCmd.AddCommand(customerCmd)
	customerCmd.AddCommand(customerAddCmd)
	customerCmd.AddCommand(customerListCmd)
	customerCmd.AddCommand(customerShowCmd)
	customerCmd.AddCommand(customerUpdateCmd)
	customerCmd.AddCommand(customerDeleteCmd)

	customerAddCmd.Flags().StringP("phone", "p", "", "Phone number")
	customerListCmd.Flags().StringP("search", "s", "", "Filter by name or phone")
	customerUpdateCmd.Flags().String("name", "", "New name")
	customerUpdateCmd.Flags().StringP("phone", "p", "", "New phone number")
}

var customerCmd = &cobra.Command{
	Use:     "customer",
	Aliases: []string{"customers", "c"},
	Short:   "Manage customers",
}

// ─── customer add ───────────────────────────────────────────────────────────

var customerAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a customer",
	Long:  `Add a customer. Names are unique ignoring case, so "Aye" and "aye" are the same customer.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		phone, _ := cmd.Flags().GetString("phone")
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		c, err := app.Service.AddCustomer(cmdContext(cmd), args[0], phone)
		if err := report(cmd, app, err); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "id: %s\n", c.ID)
		return nil
	},
}

// ─── customer list ──────────────────────────────────────────────────────────

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers with their balances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		e := app.Ledger()
		customers := e.SearchCustomers(search)
		if len(customers) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No customers.")
			return nil
		}
		tw := table(cmd.OutOrStdout())
		fmt.Fprintln(tw, "ID\tNAME\tPHONE\tBALANCE")
		for _, c := range customers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, money(app, e.OutstandingBalance(c.ID)))
		}
		return tw.Flush()
	},
}

// ─── customer show ──────────────────────────────────────────────────────────

var customerShowCmd = &cobra.Command{
	Use:   "show CUSTOMER",
	Short: "Show a customer's balance and history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		e := app.Ledger()
		c, err := resolveCustomer(e, args[0])
		if err != nil {
			return err
		}
		h, _ := e.History(c.ID)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s", h.Customer.Name)
		if h.Customer.Phone != "" {
			fmt.Fprintf(out, " (%s)", h.Customer.Phone)
		}
		fmt.Fprintf(out, "\nBalance: %s\n\n", money(app, h.Balance))

		tw := table(out)
		fmt.Fprintln(tw, "DATE\tKIND\tDETAIL\tAMOUNT\tID")
		for _, d := range h.Debts {
			fmt.Fprintf(tw, "%s\tdebt\t%s\t%s\t%s\n", d.Date, d.Item, money(app, d.Total), d.ID)
		}
		for _, p := range h.Payments {
			fmt.Fprintf(tw, "%s\tpayment\t\t%s\t%s\n", p.Date, money(app, p.Amount), p.ID)
		}
		return tw.Flush()
	},
}

// ─── customer update ────────────────────────────────────────────────────────

var customerUpdateCmd = &cobra.Command{
	Use:   "update CUSTOMER",
	Short: "Change a customer's name or phone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u domain.CustomerUpdate
		if cmd.Flags().Changed("name") {
			v, _ := cmd.Flags().GetString("name")
			u.Name = &v
		}
		if cmd.Flags().Changed("phone") {
			v, _ := cmd.Flags().GetString("phone")
			u.Phone = &v
		}
		if u.Name == nil && u.Phone == nil {
			return fmt.Errorf("nothing to update: pass --name or --phone")
		}

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		c, err := resolveCustomer(app.Ledger(), args[0])
		if err != nil {
			return err
		}
		_, err = app.Service.UpdateCustomer(cmdContext(cmd), c.ID, u)
		return report(cmd, app, err)
	},
}

// ─── customer delete ────────────────────────────────────────────────────────

var customerDeleteCmd = &cobra.Command{
	Use:   "delete CUSTOMER",
	Short: "Delete a customer",
	Long: `Delete a customer. Their debts and payments are kept and listed under
"Unknown" unless [ledger] cascade_delete is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		c, err := resolveCustomer(app.Ledger(), args[0])
		if err != nil {
			return err
		}
		return report(cmd, app, app.Service.DeleteCustomer(cmdContext(cmd), c.ID))
	},
}
