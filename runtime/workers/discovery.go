package workers

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultBrowseInterval = 3 * time.Second
	DefaultBrowseWindow   = 500 * time.Millisecond
)

// Browser is the part of discovery.Discovery the worker drives
type Browser interface {
	Register(apiPort int) error
	Shutdown()
	Browse(ctx context.Context, window time.Duration) error
	Prune() int
}

// DiscoveryWorker advertises this node and periodically refreshes the room members seen on the network
type DiscoveryWorker struct {
	log      *slog.Logger
	browser  Browser
	apiPort  int
	interval time.Duration
	window   time.Duration
}

func NewDiscoveryWorker(log *slog.Logger, browser Browser, apiPort int, interval, window time.Duration) *DiscoveryWorker {
	return &DiscoveryWorker{log: log, browser: browser, apiPort: apiPort, interval: interval, window: window}
}

func (w *DiscoveryWorker) Run(ctx context.Context) error {
	if err := w.browser.Register(w.apiPort); err != nil {
		return err
	}
	defer w.browser.Shutdown()
	w.log.Info("Advertising peer API over DNS-SD", "port", w.apiPort)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping discovery")
			return nil
		case <-ticker.C:
			if err := w.browser.Browse(ctx, w.window); err != nil {
				w.log.Warn("DNS-SD browse failed", "error", err)
				continue
			}
			if pruned := w.browser.Prune(); pruned > 0 {
				w.log.Debug("Pruned stale room members", "count", pruned)
			}
		}
	}
}
