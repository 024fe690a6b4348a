// Package cli implements the akywe command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/akywe-ledger/akywe/internal/app/ledger"
	"github.com/akywe-ledger/akywe/internal/daemon"
	"github.com/akywe-ledger/akywe/internal/domain"
	"github.com/akywe-ledger/akywe/internal/logging"
)

var (
	flagConfig  string
	flagHome    string
	flagBackend string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $AKYWE_HOME/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "Data directory (default $AKYWE_HOME or ~/.akywe)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: sqlite, redis or memory")
}

var rootCmd = &cobra.Command{
	Use:   "akywe",
	Short: "Bakery debt ledger",
	Long: `akywe tracks what customers owe the shop: the debts they run up,
the payments they make against them, and who owes the most.

Data lives in a local SQLite file under ~/.akywe by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ─── Shared Helpers ─────────────────────────────────────────────────────────

// loadConfig resolves the configuration from the global flags.
func loadConfig() (daemon.Config, error) {
	cfg, err := daemon.LoadConfig(flagHome, flagConfig)
	if err != nil {
		return daemon.Config{}, err
	}
	if flagBackend != "" {
		cfg.Storage.Backend = flagBackend
		if err := cfg.Validate(); err != nil {
			return daemon.Config{}, err
		}
	}
	return cfg, nil
}

// openApp loads the configuration and opens the ledger. Callers Close it.
func openApp(cmd *cobra.Command) (*daemon.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cmd, cfg)
}

func newApp(cmd *cobra.Command, cfg daemon.Config) (*daemon.App, error) {
	log := logging.New(cfg.Log, cmd.ErrOrStderr())
	return daemon.New(cmdContext(cmd), cfg, log)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// resolveCustomer accepts a customer id or a case-insensitive name.
func resolveCustomer(e *ledger.Engine, ref string) (domain.Customer, error) {
	if c, ok := e.Customer(ref); ok {
		return c, nil
	}
	for _, c := range e.SearchCustomers("") {
		if strings.EqualFold(c.Name, strings.TrimSpace(ref)) {
			return c, nil
		}
	}
	return domain.Customer{}, fmt.Errorf("customer %q: %w", ref, domain.ErrNotFound)
}

// report prints the outcome of a mutation. Failures come back as the
// user-facing message the notice carried.
func report(cmd *cobra.Command, app *daemon.App, err error) error {
	if err != nil {
		return &describedError{msg: app.Service.Describe(err), err: err}
	}
	notices := app.Notices.List()
	if len(notices) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), notices[len(notices)-1].Message)
	}
	return nil
}

// describedError shows the user-facing message but still unwraps to the
// domain error, so callers can pick an exit code.
type describedError struct {
	msg string
	err error
}

func (e *describedError) Error() string { return e.msg }
func (e *describedError) Unwrap() error { return e.err }

func money(app *daemon.App, a domain.Amount) string {
	return humanize.Comma(int64(a)) + " " + app.Config.Ledger.Currency
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
