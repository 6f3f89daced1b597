package domain

import (
	"crypto/x509"
	"time"

	"github.com/google/uuid"
)

// User is a remote peer known to this node, identified by the UUID in its certificate CN.
type User struct {
	UUID      uuid.UUID
	Cert      *x509.Certificate
	Verified  bool
	FirstSeen time.Time
}

// Identity is the local node as shown to its own UI.
type Identity struct {
	UUID        uuid.UUID `json:"uuid"`
	Username    string    `json:"username"`
	Fingerprint string    `json:"fingerprint"`
}

// VerificationRequest asks the local user to confirm a peer's fingerprint.
type VerificationRequest struct {
	UUID        uuid.UUID `json:"uuid"`
	Fingerprint string    `json:"fingerprint"`
	RequestedAt time.Time `json:"requested_at"`
}
