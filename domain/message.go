// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once received.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies the author of a message.
// UUID comes from the peer certificate, Username is whatever the peer claims.
type Sender struct {
	Username string    `json:"username"`
	UUID     uuid.UUID `json:"uuid"`
}

// Message represents an immutable chat event.
type Message struct {
	ID      uuid.UUID `json:"id"`
	Room    string    `json:"room"`
	Sender  Sender    `json:"sender"`
	Content string    `json:"content"`
	Lang    string    `json:"lang,omitempty"`
	At      time.Time `json:"at"`
}
