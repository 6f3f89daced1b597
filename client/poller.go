package client

import (
	"context"
	"cryptochat/api"
	"log/slog"
	"time"
)

const DefaultPollInterval = 3 * time.Second

// Poller refreshes the room list of a State on a fixed interval
type Poller struct {
	log      *slog.Logger
	client   *Client
	state    *State
	interval time.Duration
	onUpdate func(api.Rooms)
}

// NewPoller calls onUpdate, when not nil, after every successful refresh
func NewPoller(log *slog.Logger, client *Client, state *State, interval time.Duration, onUpdate func(api.Rooms)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{log: log, client: client, state: state, interval: interval, onUpdate: onUpdate}
}

// Run polls once immediately, then on every tick until ctx ends. Failed polls keep the previous list.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		p.Refresh(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) Refresh(ctx context.Context) {
	rooms, err := p.client.Rooms(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("Polling rooms failed", "error", err)
		}
		return
	}
	p.state.SetRooms(rooms)
	if p.onUpdate != nil {
		p.onUpdate(rooms)
	}
}
