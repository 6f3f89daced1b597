package services

import (
	"cryptochat/certs"
	"cryptochat/domain"
	"cryptochat/domain/event"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event in order
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (p *recordingPublisher) Publish(e event.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []event.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.DomainEvent(nil), p.events...)
}

func newPeer(t *testing.T) (domain.User, []byte) {
	t.Helper()
	id := uuid.New()
	cert, err := certs.Generate(1024, id.String(), time.Hour)
	require.NoError(t, err)
	der, _ := certs.DER(cert)
	return domain.User{UUID: id, Cert: cert.Leaf, FirstSeen: time.Now()}, der
}
