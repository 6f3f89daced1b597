package sink

import (
	"context"
	"cryptochat/domain/event"
	"cryptochat/repositories"
)

// DiskSink persists every accepted message in the badger history
type DiskSink struct {
	repository repositories.IMessageRepository
}

func NewDiskSink(repository repositories.IMessageRepository) DiskSink {
	return DiskSink{repository: repository}
}

func (d DiskSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageReceived:
		return d.repository.StoreMessage(repositories.ToDiskMessage(evt.Message))
	default:
		return nil
	}
}
