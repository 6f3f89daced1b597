package client

import (
	"context"
	"cryptochat/api"
	"cryptochat/domain"
	"cryptochat/domain/event"
	"cryptochat/sink"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"
)

const maxReconnectInterval = 30 * time.Second

// VerificationEvent is one event of the verification stream: a new request or the outcome of one
type VerificationEvent struct {
	Resolved     bool
	Verification api.Verification
}

// Subscriber follows the node's server-sent event streams and reconnects with backoff until its context ends
type Subscriber struct {
	log    *slog.Logger
	client *Client
}

func NewSubscriber(log *slog.Logger, client *Client) *Subscriber {
	return &Subscriber{log: log, client: client}
}

// Messages calls handle for every message in arrival order. The message id is the SSE event id.
func (s *Subscriber) Messages(ctx context.Context, handle func(domain.Message)) error {
	return s.subscribe(ctx, event.StreamMessages, func(e *sse.Event) {
		var message domain.Message
		if err := json.Unmarshal(e.Data, &message); err != nil {
			s.log.Warn("Dropping malformed message event", "error", err)
			return
		}
		if id, err := uuid.ParseBytes(e.ID); err == nil {
			message.ID = id
		}
		handle(message)
	})
}

func (s *Subscriber) Verifications(ctx context.Context, handle func(VerificationEvent)) error {
	return s.subscribe(ctx, event.StreamVerification, func(e *sse.Event) {
		var v api.Verification
		if err := json.Unmarshal(e.Data, &v); err != nil {
			s.log.Warn("Dropping malformed verification event", "error", err)
			return
		}
		handle(VerificationEvent{Resolved: string(e.Event) == sink.EventVerificationResolved, Verification: v})
	})
}

func (s *Subscriber) subscribe(ctx context.Context, stream string, handle func(*sse.Event)) error {
	c := sse.NewClient(s.client.BaseURL() + "/api/events")
	if token := s.client.Token(); token != "" {
		c.Headers["Authorization"] = "Bearer " + token
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxInterval = maxReconnectInterval
	// Retry for as long as the context lives
	strategy.MaxElapsedTime = 0
	c.ReconnectStrategy = strategy
	c.ReconnectNotify = func(err error, next time.Duration) {
		s.log.Warn("Event stream lost, reconnecting", "stream", stream, "error", err, "in", next)
	}
	c.OnConnect(func(*sse.Client) {
		s.log.Debug("Event stream connected", "stream", stream)
	})

	err := c.SubscribeWithContext(ctx, stream, func(e *sse.Event) {
		// Keep-alive comments carry no data
		if len(e.Data) == 0 {
			return
		}
		handle(e)
	})
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", stream, err)
	}
	return nil
}
