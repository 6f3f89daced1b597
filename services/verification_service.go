//go:generate go run go.uber.org/mock/mockgen -source=verification_service.go -destination=../mocks/mock_verification_service.go -package=mocks
package services

import (
	"crypto/x509"
	"cryptochat/certs"
	"cryptochat/contract"
	"cryptochat/domain"
	"cryptochat/domain/event"
	"cryptochat/errors"
	"cryptochat/repositories"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IVerificationService interface {
	VerifyPeer(rawCerts [][]byte, _ [][]*x509.Certificate) error
	Accept(id uuid.UUID) error
	Reject(id uuid.UUID) error
	Pending() []domain.VerificationRequest
}

// pendingVerification is shared by every handshake of the same user while the local user decides
type pendingVerification struct {
	request domain.VerificationRequest
	done    chan struct{}
	err     error
	timer   *time.Timer
}

// VerificationService gates TLS handshakes from peers nobody has confirmed yet.
// The handshake blocks until the local user accepts or rejects the fingerprint, or the request expires.
type VerificationService struct {
	log       *slog.Logger
	users     repositories.IUserRepository
	publisher contract.Publisher
	timeout   time.Duration

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingVerification
}

func NewVerificationService(log *slog.Logger, users repositories.IUserRepository,
	publisher contract.Publisher, timeout time.Duration) *VerificationService {
	return &VerificationService{
		log:       log,
		users:     users,
		publisher: publisher,
		timeout:   timeout,
		pending:   make(map[uuid.UUID]*pendingVerification),
	}
}

// VerifyPeer has the signature of tls.Config.VerifyPeerCertificate.
// It is installed on both the peer API server and the outgoing peer client.
func (s *VerificationService) VerifyPeer(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errors.ErrInvalidCertName
	}
	user, err := s.users.UserForCert(rawCerts[0])
	if err != nil {
		return err
	}
	if user.Verified {
		s.log.Debug("Peer verification passed", "uuid", user.UUID)
		return nil
	}

	s.log.Debug("Waiting for user verification", "uuid", user.UUID)
	p, err := s.begin(user)
	if err != nil {
		return err
	}
	if p != nil {
		<-p.done
		if p.err != nil {
			return p.err
		}
	}
	s.log.Debug("Peer verification passed", "uuid", user.UUID)
	return nil
}

// begin joins the pending request for this user, creating and announcing it when none exists.
// It returns nil when the user was accepted after the certificate lookup.
func (s *VerificationService) begin(user domain.User) (*pendingVerification, error) {
	s.mu.Lock()
	if p, ok := s.pending[user.UUID]; ok {
		s.mu.Unlock()
		return p, nil
	}
	// Accept marks users verified under s.mu, so this read is current
	current, err := s.users.Get(user.UUID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if current.Verified {
		s.mu.Unlock()
		return nil, nil
	}

	p := &pendingVerification{
		request: domain.VerificationRequest{
			UUID:        user.UUID,
			Fingerprint: certs.Fingerprint(user.Cert),
			RequestedAt: time.Now().UTC(),
		},
		done: make(chan struct{}),
	}
	if s.timeout > 0 {
		p.timer = time.AfterFunc(s.timeout, func() { s.expire(user.UUID, p) })
	}
	s.pending[user.UUID] = p
	s.mu.Unlock()

	s.publisher.Publish(event.VerificationRequested{Request: p.request})
	return p, nil
}

// Accept marks the user verified and releases every waiting handshake
func (s *VerificationService) Accept(id uuid.UUID) error {
	s.mu.Lock()
	p, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return errors.ErrNoVerificationInProgress
	}
	delete(s.pending, id)
	err := s.users.MarkVerified(id)
	s.mu.Unlock()
	if err != nil {
		s.release(p, err)
		return err
	}
	s.release(p, nil)
	s.log.Info("Marked user as verified", "uuid", id)
	s.publisher.Publish(event.VerificationResolved{Request: p.request, Outcome: event.Accepted, At: time.Now().UTC()})
	return nil
}

// Reject forgets the user so a later connection starts over, and fails every waiting handshake
func (s *VerificationService) Reject(id uuid.UUID) error {
	p, err := s.take(id)
	if err != nil {
		return err
	}
	s.release(p, errors.ErrVerificationRejected)
	if err := s.users.Delete(id); err != nil {
		s.log.Warn("Failed to forget rejected user", "uuid", id, "error", err)
	}
	s.log.Info("Rejected user verification", "uuid", id)
	s.publisher.Publish(event.VerificationResolved{Request: p.request, Outcome: event.Rejected, At: time.Now().UTC()})
	return nil
}

// Pending lists outstanding requests, oldest first
func (s *VerificationService) Pending() []domain.VerificationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := lo.MapToSlice(s.pending, func(_ uuid.UUID, p *pendingVerification) domain.VerificationRequest {
		return p.request
	})
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].RequestedAt.Before(requests[j].RequestedAt)
	})
	return requests
}

// Close fails every pending request so no handshake stays blocked after shutdown
func (s *VerificationService) Close() {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[uuid.UUID]*pendingVerification)
	s.mu.Unlock()
	for _, p := range pending {
		s.release(p, errors.ErrVerificationTimeout)
	}
}

func (s *VerificationService) expire(id uuid.UUID, p *pendingVerification) {
	s.mu.Lock()
	current, ok := s.pending[id]
	if !ok || current != p {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.mu.Unlock()

	s.release(p, errors.ErrVerificationTimeout)
	s.log.Info("User verification expired", "uuid", id)
	s.publisher.Publish(event.VerificationResolved{Request: p.request, Outcome: event.Expired, At: time.Now().UTC()})
}

func (s *VerificationService) take(id uuid.UUID) (*pendingVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if !ok {
		return nil, errors.ErrNoVerificationInProgress
	}
	delete(s.pending, id)
	return p, nil
}

// release must only be called by whoever removed p from the pending map
func (s *VerificationService) release(p *pendingVerification, err error) {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.err = err
	close(p.done)
}
