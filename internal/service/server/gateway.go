package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/alarm-gateway/internal/config"
	"github.com/oshokin/alarm-gateway/internal/logger"
	"github.com/oshokin/alarm-gateway/internal/service/session"
	"github.com/oshokin/alarm-gateway/internal/transport/wsconn"
)

// gateway is the HTTP handler behind the TLS listener.
type gateway struct {
	// timeout bounds the upgrade handshake.
	timeout time.Duration
	// maxFrameBytes caps each frame read from a client.
	maxFrameBytes int64
	// files serves the web root; nil when none is configured.
	files http.Handler

	// sessions counts upgraded connections still running; http.Server
	// stops tracking them once they are hijacked.
	sessions sync.WaitGroup
}

func newGateway(settings *config.Config) *gateway {
	g := &gateway{
		timeout:       settings.Timeout,
		maxFrameBytes: settings.MaxFrameBytes,
	}

	if settings.WebRoot != "" {
		g.files = noStore(http.FileServer(http.Dir(settings.WebRoot)))
	}

	return g
}

// ServeHTTP upgrades WebSocket requests and serves everything else statically.
func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isUpgrade(r) {
		g.serveFiles(w, r)

		return
	}

	// Counted before the hijack, while http.Server still tracks the request.
	g.sessions.Add(1)
	defer g.sessions.Done()

	ctx := logger.WithKV(r.Context(), "connection_id", uuid.NewString(), "remote_addr", r.RemoteAddr)

	conn, err := wsconn.Upgrade(w, r, g.timeout, wsconn.WithMaxPayload(g.maxFrameBytes))
	if err != nil {
		logger.WarnKV(ctx, "WebSocket upgrade failed", "error", err)

		return
	}

	serveConn(ctx, conn)
}

// serveConn runs one session and logs how it ended.
func serveConn(ctx context.Context, conn *wsconn.Conn) {
	// Server shutdown interrupts the session through its transport.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.CloseWith(wsconn.CloseGoingAway, "server shutting down")
	})
	defer stop()

	logger.Info(ctx, "Client connected")

	result, err := session.Run(ctx, conn)
	if err != nil {
		logger.ErrorKV(ctx, "Session aborted", "error", err)

		return
	}

	logger.InfoKV(ctx, "Session finished",
		"alert", result.Outcome.Alert,
		"reason", result.Outcome.Reason.String(),
		"was_armed", result.Outcome.WasArmed,
		"last_update", result.Outcome.LastUpdate.String(),
		"initial_bytes", len(result.Initial),
	)
}

// wait blocks until every session has logged its end or ctx is done.
func (g *gateway) wait(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		g.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gateway) serveFiles(w http.ResponseWriter, r *http.Request) {
	if g.files == nil {
		w.Header().Set("Upgrade", "websocket")
		http.Error(w, http.StatusText(http.StatusUpgradeRequired), http.StatusUpgradeRequired)

		return
	}

	g.files.ServeHTTP(w, r)
}

// isUpgrade reports whether r asks for a WebSocket; the handshake itself
// validates the remaining headers.
func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("Upgrade")), "websocket")
}

// noStore disables caching so clients always fetch the current web app.
func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, must-revalidate")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
