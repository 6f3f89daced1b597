package sink

import (
	"context"
	"cryptochat/domain/event"
	"cryptochat/repositories"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SearchSink buffers accepted messages and writes them to the full-text index in batches.
// A batch is flushed when it reaches maxBatch messages or bufferTimeout after its first message.
type SearchSink struct {
	mu            sync.Mutex
	timer         *time.Timer
	repository    repositories.ISearchRepository
	log           *slog.Logger
	messages      []repositories.DiskMessage
	maxBatch      int
	bufferTimeout time.Duration
}

func NewSearchSink(
	repository repositories.ISearchRepository,
	log *slog.Logger,
	maxBatch int,
	bufferTimeout time.Duration,
) *SearchSink {
	return &SearchSink{
		repository:    repository,
		log:           log,
		maxBatch:      max(maxBatch, 1),
		bufferTimeout: bufferTimeout,
	}
}

func (s *SearchSink) Consume(_ context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageReceived)
	if !ok {
		return nil
	}

	s.mu.Lock()
	s.messages = append(s.messages, repositories.ToDiskMessage(evt.Message))

	// First message of a batch arms the timer so a quiet room is still indexed
	if len(s.messages) == 1 && s.timer == nil {
		s.timer = time.AfterFunc(s.bufferTimeout, func() {
			if err := s.Flush(); err != nil {
				s.log.Error("Timeout flush of search index failed", "error", err)
			}
		})
	}
	isFull := len(s.messages) >= s.maxBatch
	s.mu.Unlock()

	if isFull {
		return s.Flush()
	}
	return nil
}

// Flush indexes whatever is buffered. It is also called on shutdown.
func (s *SearchSink) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(s.messages) == 0 {
		s.mu.Unlock()
		return nil
	}
	batch := s.messages
	s.messages = make([]repositories.DiskMessage, 0, s.maxBatch)
	s.mu.Unlock()

	if err := s.repository.IndexBatch(batch); err != nil {
		return fmt.Errorf("failed to index batch: %w", err)
	}
	return nil
}
