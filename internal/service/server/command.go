package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/oshokin/alarm-gateway/internal/config"
	"github.com/oshokin/alarm-gateway/internal/identity"
	"github.com/oshokin/alarm-gateway/internal/logger"
	"github.com/oshokin/alarm-gateway/internal/version"
)

// Options controls the alarm-gateway process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides the listen address from the settings.
	ListenAddress string
}

// Run starts the gateway and blocks until ctx is cancelled or serving fails.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-gateway")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	listenAddress := settings.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	tlsConfig, err := identity.LoadServerConfig(settings.CertFile, settings.KeyFile)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	warnAboutSiblings(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	health, err := startHealth(ctx, settings.HealthAddress)
	if err != nil {
		_ = lis.Close()

		return fmt.Errorf("start health endpoint: %w", err)
	}

	gw := newGateway(settings)

	httpServer := &http.Server{
		Handler:           gw,
		ReadHeaderTimeout: settings.Timeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ErrorLog:          zap.NewStdLog(logger.FromContext(ctx).Desugar()),
	}

	// Closed once Shutdown returned and every session ended, so Run never
	// exits before the last outcome is logged.
	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()
		logger.Info(ctx, "Shutting down alarm gateway")
		health.stop()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), settings.Timeout)
		defer cancelShutdown()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorKV(ctx, "HTTP shutdown failed", "error", err)
		}

		if err := gw.wait(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "Sessions still running after shutdown timeout", "error", err)
		}
	}()

	health.serving()

	logger.InfoKV(ctx, "Alarm gateway listening",
		"version", version.Short(),
		"listen_address", lis.Addr().String(),
		"health_address", health.address(),
		"web_root", settings.WebRoot,
	)

	serveErr := httpServer.Serve(tls.NewListener(lis, tlsConfig))

	cancel()
	<-done

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", serveErr)
	}

	logger.Info(ctx, "Alarm gateway stopped")

	return nil
}
