package event

import (
	"cryptochat/domain"
	"time"
)

const (
	StreamVerification = "verification"
	StreamMessages     = "messages"
)

// DomainEvent is anything the node announces to its sinks.
// Stream names the SSE stream the event belongs to.
type DomainEvent interface {
	Stream() string
	OccurredAt() time.Time
}

// MessageReceived is emitted once a message addressed to a joined room is accepted,
// either from a peer or as the local echo of a sent message.
type MessageReceived struct {
	Message  domain.Message
	Local    bool
	Censored []string
}

func (m MessageReceived) Stream() string        { return StreamMessages }
func (m MessageReceived) OccurredAt() time.Time { return m.Message.At }

type VerificationRequested struct {
	Request domain.VerificationRequest
}

func (v VerificationRequested) Stream() string        { return StreamVerification }
func (v VerificationRequested) OccurredAt() time.Time { return v.Request.RequestedAt }

type VerificationOutcome string

const (
	Accepted VerificationOutcome = "accepted"
	Rejected VerificationOutcome = "rejected"
	Expired  VerificationOutcome = "expired"
)

// VerificationResolved closes a VerificationRequested so other UI sessions can dismiss their prompt.
type VerificationResolved struct {
	Request domain.VerificationRequest
	Outcome VerificationOutcome
	At      time.Time
}

func (v VerificationResolved) Stream() string        { return StreamVerification }
func (v VerificationResolved) OccurredAt() time.Time { return v.At }
