package wsserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/mo-shahab/quadpong/logger"
	"github.com/mo-shahab/quadpong/protocol"
)

const shutdownTimeout = 3 * time.Second

// Serve runs the spectator HTTP server on ln until ctx is cancelled, then
// shuts it down and disconnects every spectator.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	logger.Info("spectator feed listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		h.CloseAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("spectator feed shutdown", "error", err)
	}

	// Hijacked WebSocket connections are not closed by Shutdown.
	h.CloseAll()
	return nil
}

// ListenAndServe binds addr and calls Serve.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &protocol.ConnectError{Op: "listen", Addr: addr, Err: err}
	}
	return h.Serve(ctx, ln)
}
