package services

import (
	"context"
	"cryptochat/domain"
	"cryptochat/domain/event"
	"cryptochat/domain/search"
	"cryptochat/errors"
	"cryptochat/mocks"
	"cryptochat/moderation"
	"cryptochat/repositories"
	stderrors "errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type chatFixture struct {
	svc       *ChatService
	self      uuid.UUID
	directory *mocks.MockRoomDirectory
	peers     *mocks.MockPeerClient
	rooms     *mocks.MockIRoomRepository
	messages  *mocks.MockIMessageRepository
	search    *mocks.MockISearchRepository
	publisher *recordingPublisher
}

func newChatFixture(t *testing.T) chatFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	require.NoError(t, err)

	f := chatFixture{
		self:      uuid.New(),
		directory: mocks.NewMockRoomDirectory(ctrl),
		peers:     mocks.NewMockPeerClient(ctrl),
		rooms:     mocks.NewMockIRoomRepository(ctrl),
		messages:  mocks.NewMockIMessageRepository(ctrl),
		search:    mocks.NewMockISearchRepository(ctrl),
		publisher: &recordingPublisher{},
	}
	f.svc = NewChatService(log, f.self, f.directory, f.peers, f.rooms, f.messages, f.search, moderator, f.publisher, time.Minute)
	return f
}

func member(port int) domain.Member {
	return domain.Member{
		UUID:     uuid.New(),
		Addr:     net.TCPAddr{IP: net.IPv4(192, 168, 1, 10), Port: port},
		LastSeen: time.Now(),
	}
}

func TestChatService_SendMessage(t *testing.T) {
	cmd := domain.SendMessageCommand{Room: "general", Username: "alice", Content: "hello"}

	t.Run("should deliver to every member and publish the local echo", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		// Given a joined room with two members
		members := []domain.Member{member(9001), member(9002)}
		f.directory.EXPECT().IsMember("general").Return(true)
		f.directory.EXPECT().Members("general").Return(members)
		f.peers.EXPECT().SendMessage(gomock.Any(), members[0].Addr, gomock.Any()).Return(nil)
		f.peers.EXPECT().SendMessage(gomock.Any(), members[1].Addr, gomock.Any()).Return(nil)

		// When a message is sent
		message, err := f.svc.SendMessage(context.Background(), cmd)

		// Then the echo carries the local identity
		req.NoError(err)
		req.Equal(f.self, message.Sender.UUID)
		req.Equal("alice", message.Sender.Username)
		events := f.publisher.Events()
		req.Len(events, 1)
		received := events[0].(event.MessageReceived)
		req.True(received.Local)
		req.Equal(message.ID, received.Message.ID)
	})

	t.Run("should succeed when at least one member is reachable", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		members := []domain.Member{member(9001), member(9002)}
		f.directory.EXPECT().IsMember("general").Return(true)
		f.directory.EXPECT().Members("general").Return(members)
		f.peers.EXPECT().SendMessage(gomock.Any(), members[0].Addr, gomock.Any()).Return(stderrors.New("connection refused"))
		f.peers.EXPECT().SendMessage(gomock.Any(), members[1].Addr, gomock.Any()).Return(nil)

		_, err := f.svc.SendMessage(context.Background(), cmd)

		req.NoError(err)
		req.Len(f.publisher.Events(), 1)
	})

	t.Run("should fail when every delivery fails", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		members := []domain.Member{member(9001)}
		f.directory.EXPECT().IsMember("general").Return(true)
		f.directory.EXPECT().Members("general").Return(members)
		f.peers.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(stderrors.New("connection refused"))

		_, err := f.svc.SendMessage(context.Background(), cmd)

		req.ErrorIs(err, errors.ErrNoRoomMembers)
		req.ErrorContains(err, "connection refused")
		req.Empty(f.publisher.Events())
	})

	t.Run("should keep delivering after the caller stops waiting", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		// Given a member whose handshake waits on a fingerprint check
		members := []domain.Member{member(9001)}
		f.directory.EXPECT().IsMember("general").Return(true)
		f.directory.EXPECT().Members("general").Return(members)
		caller, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		f.peers.EXPECT().SendMessage(gomock.Any(), members[0].Addr, gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ net.TCPAddr, _ domain.Message) error {
				<-caller.Done()
				time.Sleep(20 * time.Millisecond)
				return ctx.Err()
			})

		// When the caller deadline passes before the peer answers
		message, err := f.svc.SendMessage(caller, cmd)

		// Then the message is still delivered and echoed
		req.NoError(err)
		req.ErrorIs(caller.Err(), context.DeadlineExceeded)
		events := f.publisher.Events()
		req.Len(events, 1)
		req.Equal(message.ID, events[0].(event.MessageReceived).Message.ID)
	})

	t.Run("should give up on a peer after the delivery timeout", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)
		f.svc.deliveryTimeout = 20 * time.Millisecond

		members := []domain.Member{member(9001)}
		f.directory.EXPECT().IsMember("general").Return(true)
		f.directory.EXPECT().Members("general").Return(members)
		f.peers.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ net.TCPAddr, _ domain.Message) error {
				<-ctx.Done()
				return ctx.Err()
			})

		_, err := f.svc.SendMessage(context.Background(), cmd)

		req.ErrorIs(err, errors.ErrNoRoomMembers)
		req.ErrorIs(err, context.DeadlineExceeded)
		req.Empty(f.publisher.Events())
	})

	t.Run("should keep the message local in an empty room", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.directory.EXPECT().IsMember("general").Return(true)
		f.directory.EXPECT().Members("general").Return(nil)

		_, err := f.svc.SendMessage(context.Background(), cmd)

		req.NoError(err)
		req.Len(f.publisher.Events(), 1)
	})

	t.Run("should refuse a room that was not joined", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.directory.EXPECT().IsMember("general").Return(false)

		_, err := f.svc.SendMessage(context.Background(), cmd)

		req.ErrorIs(err, errors.ErrNotMember)
	})

	t.Run("should validate the command before anything else", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		_, err := f.svc.SendMessage(context.Background(), domain.SendMessageCommand{Room: "bad:room", Username: "alice", Content: "x"})

		req.Error(err)
	})
}

func TestChatService_ReceiveMessage(t *testing.T) {
	t.Run("should censor and publish a message for a joined room", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)
		sender, _ := newPeer(t)

		// Given a joined room
		f.directory.EXPECT().IsMember("general").Return(true)

		// When a peer posts a message containing a censored word
		message, err := f.svc.ReceiveMessage(sender, "general", "bob", "the badger is here")

		// Then the content is censored and the sender comes from the certificate
		req.NoError(err)
		req.Equal("the ****** is here", message.Content)
		req.Equal(sender.UUID, message.Sender.UUID)
		received := f.publisher.Events()[0].(event.MessageReceived)
		req.False(received.Local)
		req.Equal([]string{"badger"}, received.Censored)
	})

	t.Run("should refuse a room this node did not join", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)
		sender, _ := newPeer(t)

		f.directory.EXPECT().IsMember("secret").Return(false)

		_, err := f.svc.ReceiveMessage(sender, "secret", "bob", "hi")

		req.ErrorIs(err, errors.ErrNotMember)
		req.Empty(f.publisher.Events())
	})
}

func TestChatService_Rooms(t *testing.T) {
	t.Run("should persist and advertise a joined room", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.rooms.EXPECT().Join("general").Return(true, nil)
		f.directory.EXPECT().AddRoom("general").Return(true)

		req.NoError(f.svc.JoinRoom("general"))
	})

	t.Run("should stop advertising a left room", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.rooms.EXPECT().Leave("general").Return(true, nil)
		f.directory.EXPECT().RemoveRoom("general").Return(true)

		req.NoError(f.svc.LeaveRoom("general"))
	})

	t.Run("should reject an invalid room name", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		req.ErrorIs(f.svc.JoinRoom("a:b"), errors.ErrInvalidRoomName)
		req.ErrorIs(f.svc.LeaveRoom(""), errors.ErrInvalidRoomName)
	})

	t.Run("should re-advertise persisted rooms", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.rooms.EXPECT().List().Return([]string{"a", "b"}, nil)
		f.directory.EXPECT().AddRoom("a").Return(true)
		f.directory.EXPECT().AddRoom("b").Return(true)

		req.NoError(f.svc.Restore())
	})
}

func TestChatService_History(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	// Given one stored message and more history behind the cursor
	stored := repositories.DiskMessage{
		ID:         uuid.New(),
		Room:       "general",
		SenderName: "bob",
		SenderUUID: uuid.New(),
		Content:    "hi",
		At:         time.Now().UTC(),
	}
	next := "cursor"
	f.messages.EXPECT().GetMessages("general", nil).Return([]repositories.DiskMessage{stored}, &next, nil)

	// When the history is read
	messages, cursor, err := f.svc.History(domain.GetMessagesCommand{Room: "general"})

	// Then messages are mapped to the domain shape
	req.NoError(err)
	req.Equal(&next, cursor)
	req.Len(messages, 1)
	req.Equal(stored.SenderName, messages[0].Sender.Username)
	req.Equal(stored.ID, messages[0].ID)
}

func TestChatService_Search(t *testing.T) {
	t.Run("should not query the index for an empty input", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		hits, err := f.svc.Search(context.Background(), "   ")

		req.NoError(err)
		req.Empty(hits)
	})

	t.Run("should forward the parsed query", func(t *testing.T) {
		req := require.New(t)
		f := newChatFixture(t)

		f.search.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, q search.Query) ([]repositories.SearchHit, error) {
				req.Equal("general", q.Room)
				return []repositories.SearchHit{{Score: 1}}, nil
			})

		hits, err := f.svc.Search(context.Background(), "hello --room general")

		req.NoError(err)
		req.Len(hits, 1)
	})
}
