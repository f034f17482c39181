package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-gateway/internal/config"
	"github.com/oshokin/alarm-gateway/internal/logger"
	"github.com/oshokin/alarm-gateway/internal/service/server"
	"github.com/oshokin/alarm-gateway/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the gateway.
	rootCmd = &cobra.Command{
		Use:   "alarm-gateway [listen-address]",
		Short: "Run the secure WebSocket alarm gateway.",
		Long: `Accepts alarm clients over WebSocket on a TLS listener and supervises each session.

A client sends one setup message, then 17-byte status updates. The gateway arms a
defuse timer when asked, escalates to an alert when the timer or the connection
timeout runs out, and reports every session outcome in the log.

Certificate, private key and optional web root come from the configuration file.
Listen address can be provided as argument to override config (e.g., 127.0.0.1:4444).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			})
		},
	}
)

// Execute runs the alarm-gateway CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()

	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
