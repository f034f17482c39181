package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/oshokin/alarm-gateway/internal/config"
	"github.com/oshokin/alarm-gateway/internal/logger"
)

// Options controls a probe run.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Address overrides the health address from the configuration.
	Address string
	// Service is the health service name to query.
	Service string
	// Watch keeps polling until the context is canceled.
	Watch bool
	// Interval is the delay between polls in watch mode.
	Interval time.Duration
	// Out receives one JSON line per check; defaults to stdout.
	Out io.Writer
}

// DefaultInterval is the watch mode polling interval.
const DefaultInterval = 5 * time.Second

var (
	// ErrNotServing is returned by a one-shot probe when the service is not SERVING.
	ErrNotServing = errors.New("service is not serving")

	errHealthDisabled = errors.New("health endpoint is disabled in configuration")
)

// Run checks the gateway health once or, in watch mode, until ctx is done.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-probe")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	address := cfg.HealthAddress
	if opts.Address != "" {
		address = opts.Address
	}

	if address == "" {
		return errHealthDisabled
	}

	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	client, err := Dial(address, WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	if !opts.Watch {
		return checkOnce(ctx, client, opts)
	}

	logger.InfoKV(ctx, "Watching gateway health", "address", address, "interval", opts.Interval.String())

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		if err = checkOnce(ctx, client, opts); err != nil {
			logger.WarnKV(ctx, "Health check failed", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
		}
	}
}

// checkOnce prints one status line and reports whether the service is serving.
func checkOnce(ctx context.Context, client *Client, opts *Options) error {
	resp, err := client.Check(ctx, opts.Service)
	if err != nil {
		return err
	}

	line, err := protojson.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	if _, err = fmt.Fprintln(opts.Out, string(line)); err != nil {
		return fmt.Errorf("write status: %w", err)
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, resp.GetStatus())
	}

	return nil
}
