//go:generate go run go.uber.org/mock/mockgen -source=identity_service.go -destination=../mocks/mock_identity_service.go -package=mocks
package services

import (
	"crypto/tls"
	"cryptochat/certs"
	"cryptochat/domain"
	"cryptochat/repositories"
	"sync"

	"github.com/google/uuid"
)

type IIdentityService interface {
	Info() domain.Identity
	SetUsername(username string) error
}

// IdentityService exposes who this node is. The username is cached after the first read.
type IdentityService struct {
	id          uuid.UUID
	fingerprint string
	repo        repositories.IIdentityRepository

	mu       sync.RWMutex
	username string
}

func NewIdentityService(cert tls.Certificate, repo repositories.IIdentityRepository) (*IdentityService, error) {
	id, err := certs.UUID(cert.Leaf)
	if err != nil {
		return nil, err
	}
	username, err := repo.Username()
	if err != nil {
		return nil, err
	}
	if username == "" {
		username = DefaultUsername(id)
		if err := repo.SetUsername(username); err != nil {
			return nil, err
		}
	}
	return &IdentityService{
		id:          id,
		fingerprint: certs.Fingerprint(cert.Leaf),
		repo:        repo,
		username:    username,
	}, nil
}

// DefaultUsername names a node that was never given a username
func DefaultUsername(id uuid.UUID) string {
	return "user-" + id.String()[:8]
}

func (s *IdentityService) Info() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Identity{UUID: s.id, Username: s.username, Fingerprint: s.fingerprint}
}

func (s *IdentityService) SetUsername(username string) error {
	if err := s.repo.SetUsername(username); err != nil {
		return err
	}
	s.mu.Lock()
	s.username = username
	s.mu.Unlock()
	return nil
}
