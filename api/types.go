// Package api holds the JSON bodies exchanged over the peer API and the local UI API.
package api

import (
	"cryptochat/domain"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// SendMessageRequest is posted by the UI to send, and by a peer to deliver.
type SendMessageRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Content  string `json:"content" validate:"required,max=4096"`
}

type SetUsernameRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type Member struct {
	UUID uuid.UUID `json:"uuid"`
	Addr string    `json:"addr"`
}

type Room struct {
	Joined  bool     `json:"joined"`
	Members []Member `json:"members"`
}

// Rooms is keyed by room name
type Rooms map[string]Room

func ToRooms(rooms map[string]domain.Room) Rooms {
	return lo.MapValues(rooms, func(r domain.Room, _ string) Room {
		return Room{
			Joined: r.Joined,
			Members: lo.Map(r.Members, func(m domain.Member, _ int) Member {
				addr := m.Addr
				return Member{UUID: m.UUID, Addr: (&addr).String()}
			}),
		}
	})
}

// ParseAddr turns a member address back into a TCP address
func (m Member) ParseAddr() (net.TCPAddr, error) {
	addr, err := net.ResolveTCPAddr("tcp", m.Addr)
	if err != nil {
		return net.TCPAddr{}, err
	}
	return *addr, nil
}

type History struct {
	Messages []domain.Message `json:"messages"`
	Cursor   *string          `json:"cursor"`
}

type SearchHit struct {
	Message domain.Message `json:"message"`
	Score   float64        `json:"score"`
}

// Verification is the data of a verification SSE event and an entry of GET /api/verifications.
type Verification struct {
	UUID        uuid.UUID `json:"uuid"`
	Fingerprint string    `json:"fingerprint"`
	RequestedAt time.Time `json:"requested_at"`
	Outcome     string    `json:"outcome,omitempty"`
}
