package client

import (
	"context"
	"cryptochat/api"
	"cryptochat/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestState_SetRoomsReplaces(t *testing.T) {
	req := require.New(t)
	s := NewState()

	s.SetRooms(api.Rooms{"a": {}, "b": {}})
	s.SetRooms(api.Rooms{"c": {Joined: true}})

	req.Equal([]string{"c"}, s.RoomNames())
	req.True(s.Rooms()["c"].Joined)

	s.SetRooms(nil)
	req.Empty(s.RoomNames())
}

func TestState_AppendMessageKeepsArrivalOrder(t *testing.T) {
	req := require.New(t)
	s := NewState()
	id := uuid.New()

	// Given the same message delivered twice and one in another room
	s.AppendMessage(domain.Message{ID: id, Room: "lobby", Content: "one"})
	s.AppendMessage(domain.Message{ID: uuid.New(), Room: "dev", Content: "other"})
	s.AppendMessage(domain.Message{ID: uuid.New(), Room: "lobby", Content: "two"})
	s.AppendMessage(domain.Message{ID: id, Room: "lobby", Content: "one"})

	// Then nothing is deduplicated or reordered
	got := s.Messages("lobby")
	req.Len(got, 3)
	req.Equal([]string{"one", "two", "one"}, []string{got[0].Content, got[1].Content, got[2].Content})
	req.Len(s.Messages("dev"), 1)
	req.Empty(s.Messages("unknown"))

	// And the returned slice is a copy
	got[0].Content = "changed"
	req.Equal("one", s.Messages("lobby")[0].Content)
}

func TestState_VerificationQueue(t *testing.T) {
	req := require.New(t)
	s := NewState()
	first, second := uuid.New(), uuid.New()

	_, ok := s.NextVerification()
	req.False(ok)

	s.PushVerification(api.Verification{UUID: first})
	s.PushVerification(api.Verification{UUID: second})
	s.PushVerification(api.Verification{UUID: first})
	req.Equal(2, s.PendingVerifications())

	next, ok := s.NextVerification()
	req.True(ok)
	req.Equal(first, next.UUID)

	s.DropVerification(first)
	next, ok = s.NextVerification()
	req.True(ok)
	req.Equal(second, next.UUID)

	s.DropVerification(second)
	req.Zero(s.PendingVerifications())
}

func TestPoller_Run(t *testing.T) {
	req := require.New(t)
	n, srv, _ := newFakeNode(t)
	state := NewState()
	updates := make(chan api.Rooms, 10)
	poller := NewPoller(slog.Default(), New(srv.URL), state, 20*time.Millisecond, func(r api.Rooms) { updates <- r })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	// The first poll happens immediately
	select {
	case rooms := <-updates:
		req.Contains(rooms, "lobby")
	case <-time.After(2 * time.Second):
		req.FailNow("no poll")
	}

	// And later polls pick up server side changes
	n.mu.Lock()
	n.rooms = api.Rooms{"dev": {}}
	n.mu.Unlock()
	req.Eventually(func() bool {
		_, ok := state.Rooms()["dev"]
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	req.NotContains(state.Rooms(), "lobby")

	cancel()
	req.NoError(<-done)
}
