package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "Listen host (overrides [api] host)")
	serveCmd.Flags().Int("port", 0, "Listen port (overrides [api] port)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the JSON API the web dashboard talks to. Notices are streamed on
/api/notices/stream (WebSocket) and /api/notices/events (SSE), and
Prometheus metrics are served on /metrics unless [api] metrics is false.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.API.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.API.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	app, err := newApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Serve(cmdContext(cmd))
}
