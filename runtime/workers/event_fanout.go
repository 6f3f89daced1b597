package workers

import (
	"context"
	"cryptochat/contract"
	"cryptochat/domain/event"
	"cryptochat/observability"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultPublishTimeout = 100 * time.Millisecond

// EventFanout broadcasts domain events to multiple in-process consumers.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. EventFanout is not a message broker.
// Each event is handed to every sink concurrently and the next event waits for all of them,
// so every sink sees events in publication order.
//
// Publish is safe for concurrent use by multiple goroutines.
type EventFanout struct {
	log            *slog.Logger
	events         chan event.DomainEvent
	sinks          []contract.EventSink
	monitoring     *observability.MonitoringManager
	sinkTimeout    time.Duration
	publishTimeout time.Duration
}

func NewEventFanout(
	log *slog.Logger,
	events chan event.DomainEvent,
	monitoring *observability.MonitoringManager,
	sinkTimeout time.Duration,
) *EventFanout {
	return &EventFanout{
		log:            log,
		events:         events,
		monitoring:     monitoring,
		sinkTimeout:    sinkTimeout,
		publishTimeout: DefaultPublishTimeout,
	}
}

func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.sinks = append(w.sinks, sinks...)
	return w
}

// Publish queues an event. It gives up after publishTimeout when the queue stays full.
func (w *EventFanout) Publish(e event.DomainEvent) {
	timer := time.NewTimer(w.publishTimeout)
	defer timer.Stop()
	select {
	case w.events <- e:
		w.monitoring.IncrEventsPublished()
	case <-timer.C:
		w.monitoring.IncrEventsDropped()
		w.log.Warn("Event queue full, dropping event", "stream", e.Stream())
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping domainEvent fan-out")
			return nil
		}
	}
}

// Fanout One sink for each event, each bounded by sinkTimeout
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	var wg sync.WaitGroup
	for _, sink := range w.sinks {
		wg.Add(1)
		go func(s contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := s.Consume(sinkCtx, evt); err != nil {
				w.monitoring.IncrSinkFailures()
				w.log.Warn("Sink failed to consume event",
					"sink", sinkName(s), "stream", evt.Stream(), "error", err)
			}
		}(sink)
	}

	// A sink ignoring its context must not stall the queue
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(w.sinkTimeout + w.publishTimeout):
		w.log.Warn("Sinks still busy after timeout, moving on", "stream", evt.Stream())
	}
}

func sinkName(s contract.EventSink) string {
	return fmt.Sprintf("%T", s)
}
