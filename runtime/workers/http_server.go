package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// HTTPServerWorker serves an http.Server until the context is cancelled, then shuts it down gracefully.
// A listener error is returned so the supervisor retries later.
type HTTPServerWorker struct {
	log    *slog.Logger
	name   string
	server *http.Server
	tls    bool
	// ready receives the bound address once, used by tests binding port 0
	ready chan net.Addr
}

func NewHTTPServerWorker(log *slog.Logger, name string, server *http.Server, tls bool) *HTTPServerWorker {
	return &HTTPServerWorker{log: log, name: name, server: server, tls: tls, ready: make(chan net.Addr, 1)}
}

func (w *HTTPServerWorker) Ready() <-chan net.Addr { return w.ready }

func (w *HTTPServerWorker) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", w.server.Addr)
	if err != nil {
		return err
	}
	select {
	case w.ready <- listener.Addr():
	default:
	}
	w.log.Info("Listening", "server", w.name, "addr", listener.Addr().String(), "tls", w.tls)

	serveErr := make(chan error, 1)
	go func() {
		if w.tls {
			// certificates come from server.TLSConfig
			serveErr <- w.server.ServeTLS(listener, "", "")
		} else {
			serveErr <- w.server.Serve(listener)
		}
	}()

	select {
	case err := <-serveErr:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := w.server.Shutdown(shutdownCtx); err != nil {
			w.log.Warn("Graceful shutdown failed", "server", w.name, "error", err)
			_ = w.server.Close()
		}
		w.log.Info("Server stopped", "server", w.name)
		return nil
	}
}
