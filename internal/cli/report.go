package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/akywe-ledger/akywe/internal/app/ledger"
	"github.com/akywe-ledger/akywe/internal/app/statement"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(statementCmd)

	topCmd.Flags().IntP("limit", "n", ledger.DashboardTopN, "Number of debtors to show")
	statementCmd.Flags().StringP("output", "o", "", "Output file (default statement-<customer id>.pdf)")
}

// ─── summary ────────────────────────────────────────────────────────────────

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show today's dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		s := app.Ledger().Summary(time.Now())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total outstanding:  %s\n", money(app, s.TotalOutstanding))
		fmt.Fprintf(out, "Collected today:    %s\n", money(app, s.TodayPayments))
		fmt.Fprintf(out, "Debts this month:   %s\n", money(app, s.MonthDebts))
		fmt.Fprintf(out, "Customers:          %d\n", s.CustomerCount)
		if t, ok := app.Store.LastSaved(cmdContext(cmd)); ok {
			fmt.Fprintf(out, "Last saved:         %s\n", humanize.Time(t))
		}

		if len(s.TopDebtors) > 0 {
			fmt.Fprintln(out, "\nTop debtors")
			tw := table(out)
			for i, d := range s.TopDebtors {
				fmt.Fprintf(tw, "  %d.\t%s\t%s\n", i+1, d.Customer.Name, money(app, d.Balance))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		if len(s.TodayActivity) > 0 {
			fmt.Fprintln(out, "\nToday's payments")
			tw := table(out)
			for _, p := range s.TodayActivity {
				fmt.Fprintf(tw, "  %s\t%s\n", p.CustomerName, money(app, p.Amount))
			}
			return tw.Flush()
		}
		return nil
	},
}

// ─── top ────────────────────────────────────────────────────────────────────

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "List the customers who owe the most",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("limit")
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		debtors := app.Ledger().TopDebtors(n)
		if len(debtors) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nobody owes anything.")
			return nil
		}
		tw := table(cmd.OutOrStdout())
		fmt.Fprintln(tw, "#\tNAME\tBALANCE")
		for i, d := range debtors {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, d.Customer.Name, money(app, d.Balance))
		}
		return tw.Flush()
	},
}

// ─── statement ──────────────────────────────────────────────────────────────

var statementCmd = &cobra.Command{
	Use:   "statement CUSTOMER",
	Short: "Write a customer's PDF statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
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
		if output == "" {
			output = "statement-" + c.ID + ".pdf"
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		err = statement.Render(f, statement.Data{
			Shop:        app.Config.Ledger.Shop,
			Currency:    app.Config.Ledger.Currency,
			GeneratedAt: time.Now(),
			History:     h,
			FontPath:    app.Config.Ledger.StatementFont,
		})
		if err != nil {
			return fmt.Errorf("render statement: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Statement for %s written to %s\n", c.Name, output)
		return nil
	},
}
