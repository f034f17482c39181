package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-gateway/internal/config"
	"github.com/oshokin/alarm-gateway/internal/logger"
	"github.com/oshokin/alarm-gateway/internal/service/probe"
	"github.com/oshokin/alarm-gateway/internal/service/server"
	"github.com/oshokin/alarm-gateway/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// service is the health service name to query.
	service string
	// watch keeps polling instead of checking once.
	watch bool
	// interval between polls in watch mode.
	interval = probe.DefaultInterval

	// rootCmd represents the base command for probing gateway health.
	rootCmd = &cobra.Command{
		Use:   "alarm-probe [health-address]",
		Short: "Query the alarm gateway health endpoint.",
		Long: `Prints the gateway's gRPC health status as JSON.

Without --watch the probe checks once and exits non-zero unless the service is SERVING.
With --watch it keeps polling until interrupted.
Health address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var address string
			if len(args) > 0 {
				address = args[0]
			}

			return probe.Run(ctx, &probe.Options{
				ConfigPath: configPath,
				Address:    address,
				Service:    service,
				Watch:      watch,
				Interval:   interval,
			})
		},
	}
)

// Execute runs the alarm-probe CLI and exits with non-zero status on error.
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
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&service, "service", "s", server.HealthServiceName, "health service name, empty for overall status")
	flags.BoolVarP(&watch, "watch", "w", false, "poll until interrupted")
	flags.DurationVarP(&interval, "interval", "i", probe.DefaultInterval, "polling interval in watch mode")
}
