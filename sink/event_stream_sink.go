package sink

import (
	"context"
	"cryptochat/api"
	"cryptochat/domain/event"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/r3labs/sse/v2"
)

// SSE event types on the verification stream
const (
	EventVerificationRequest  = "request"
	EventVerificationResolved = "resolved"
)

// StreamPublisher is the publishing side of *sse.Server
type StreamPublisher interface {
	Publish(id string, event *sse.Event)
}

// EventStreamSink pushes domain events to the UI over server-sent events
type EventStreamSink struct {
	server StreamPublisher
	log    *slog.Logger
}

func NewEventStreamSink(server StreamPublisher, log *slog.Logger) EventStreamSink {
	return EventStreamSink{server: server, log: log}
}

func (s EventStreamSink) Consume(_ context.Context, e event.DomainEvent) error {
	var (
		id, eventType string
		payload       any
	)
	switch evt := e.(type) {
	case event.MessageReceived:
		id = evt.Message.ID.String()
		payload = evt.Message
	case event.VerificationRequested:
		eventType = EventVerificationRequest
		payload = api.Verification{
			UUID:        evt.Request.UUID,
			Fingerprint: evt.Request.Fingerprint,
			RequestedAt: evt.Request.RequestedAt,
		}
	case event.VerificationResolved:
		eventType = EventVerificationResolved
		payload = api.Verification{
			UUID:        evt.Request.UUID,
			Fingerprint: evt.Request.Fingerprint,
			RequestedAt: evt.Request.RequestedAt,
			Outcome:     string(evt.Outcome),
		}
	default:
		s.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", e.Stream(), err)
	}
	msg := &sse.Event{Data: data}
	if id != "" {
		msg.ID = []byte(id)
	}
	if eventType != "" {
		msg.Event = []byte(eventType)
	}
	s.server.Publish(e.Stream(), msg)
	return nil
}
