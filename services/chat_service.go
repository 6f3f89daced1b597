//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"cryptochat/auth"
	"cryptochat/contract"
	"cryptochat/domain"
	"cryptochat/domain/event"
	"cryptochat/domain/search"
	"cryptochat/errors"
	"cryptochat/moderation"
	"cryptochat/repositories"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// RoomDirectory is the live view of rooms this node advertises and the peers advertising them
type RoomDirectory interface {
	AddRoom(room string) bool
	RemoveRoom(room string) bool
	IsMember(room string) bool
	Members(room string) []domain.Member
	Rooms() map[string]domain.Room
	Membership() []string
}

// PeerClient delivers one message to one peer over the peer API
type PeerClient interface {
	SendMessage(ctx context.Context, addr net.TCPAddr, message domain.Message) error
}

type IChatService interface {
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	ReceiveMessage(sender domain.User, room, username, content string) (domain.Message, error)
	JoinRoom(room string) error
	LeaveRoom(room string) error
	Rooms() map[string]domain.Room
	History(cmd domain.GetMessagesCommand) ([]domain.Message, *string, error)
	Search(ctx context.Context, input string) ([]repositories.SearchHit, error)
}

type ChatService struct {
	log       *slog.Logger
	self      uuid.UUID
	directory RoomDirectory
	peers     PeerClient
	rooms     repositories.IRoomRepository
	messages  repositories.IMessageRepository
	search    repositories.ISearchRepository
	moderator *moderation.Moderator
	publisher contract.Publisher

	// deliveryTimeout bounds a send, it covers a fingerprint check on the peer side
	deliveryTimeout time.Duration
}

func NewChatService(
	log *slog.Logger,
	self uuid.UUID,
	directory RoomDirectory,
	peers PeerClient,
	rooms repositories.IRoomRepository,
	messages repositories.IMessageRepository,
	search repositories.ISearchRepository,
	moderator *moderation.Moderator,
	publisher contract.Publisher,
	deliveryTimeout time.Duration,
) *ChatService {
	return &ChatService{
		log:       log,
		self:      self,
		directory: directory,
		peers:     peers,
		rooms:     rooms,
		messages:  messages,
		search:    search,
		moderator: moderator,
		publisher: publisher,

		deliveryTimeout: deliveryTimeout,
	}
}

// Restore re-advertises the rooms joined before the last shutdown
func (s *ChatService) Restore() error {
	names, err := s.rooms.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		s.directory.AddRoom(name)
	}
	s.log.Info("Restored joined rooms", "count", len(names))
	return nil
}

func (s *ChatService) JoinRoom(room string) error {
	if !domain.IsValidRoomName(room) {
		return errors.ErrInvalidRoomName
	}
	if _, err := s.rooms.Join(room); err != nil {
		return err
	}
	if s.directory.AddRoom(room) {
		s.log.Info("Joined room", "room", room)
	}
	return nil
}

func (s *ChatService) LeaveRoom(room string) error {
	if !domain.IsValidRoomName(room) {
		return errors.ErrInvalidRoomName
	}
	if _, err := s.rooms.Leave(room); err != nil {
		return err
	}
	if s.directory.RemoveRoom(room) {
		s.log.Info("Left room", "room", room)
	}
	return nil
}

func (s *ChatService) Rooms() map[string]domain.Room {
	return s.directory.Rooms()
}

// SendMessage delivers a message to every peer advertising the room, concurrently.
// The local echo is published unless every delivery failed.
// A room nobody else advertises keeps the message local.
// Delivery outlives a caller that stops waiting, within deliveryTimeout.
func (s *ChatService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	// 1. Validate the command
	if err := auth.Validate(cmd); err != nil {
		return domain.Message{}, err
	}
	if !s.directory.IsMember(cmd.Room) {
		return domain.Message{}, errors.ErrNotMember
	}

	message := domain.Message{
		ID:      uuid.New(),
		Room:    cmd.Room,
		Sender:  domain.Sender{Username: cmd.Username, UUID: s.self},
		Content: cmd.Content,
		At:      time.Now().UTC(),
	}

	// 2. Fan out to members
	members := s.directory.Members(cmd.Room)
	var (
		mu   sync.Mutex
		errs []error
	)
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deliveryTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(dctx)
	for _, member := range members {
		g.Go(func() error {
			if err := s.peers.SendMessage(gctx, member.Addr, message); err != nil {
				s.log.Warn("Failed to deliver message", "room", cmd.Room, "peer", member.UUID, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", member.UUID, err))
				mu.Unlock()
			}
			// One unreachable peer must not cancel delivery to the others
			return nil
		})
	}
	_ = g.Wait()

	if len(members) > 0 && len(errs) == len(members) {
		return domain.Message{}, fmt.Errorf("%w: %w", errors.ErrNoRoomMembers, stderrors.Join(errs...))
	}

	// 3. Local echo
	message.Lang = moderation.DetectLanguage(message.Content)
	s.publisher.Publish(event.MessageReceived{Message: message, Local: true})
	s.log.Debug("Message sent", "room", cmd.Room, "delivered", len(members)-len(errs), "failed", len(errs))
	return message, nil
}

// ReceiveMessage accepts a message a verified peer posted on the peer API
func (s *ChatService) ReceiveMessage(sender domain.User, room, username, content string) (domain.Message, error) {
	if !s.directory.IsMember(room) {
		return domain.Message{}, errors.ErrNotMember
	}
	if err := auth.Validate(domain.SendMessageCommand{Room: room, Username: username, Content: content}); err != nil {
		return domain.Message{}, err
	}

	censored, words := s.moderator.Censor(content)
	message := domain.Message{
		ID:      uuid.New(),
		Room:    room,
		Sender:  domain.Sender{Username: username, UUID: sender.UUID},
		Content: censored,
		Lang:    moderation.DetectLanguage(content),
		At:      time.Now().UTC(),
	}
	if len(words) > 0 {
		s.log.Debug("Censored message", "room", room, "sender", sender.UUID, "words", words)
	}
	s.publisher.Publish(event.MessageReceived{Message: message, Censored: words})
	return message, nil
}

func (s *ChatService) History(cmd domain.GetMessagesCommand) ([]domain.Message, *string, error) {
	if err := auth.Validate(cmd); err != nil {
		return nil, nil, err
	}
	stored, cursor, err := s.messages.GetMessages(cmd.Room, cmd.Cursor)
	if err != nil {
		return nil, nil, err
	}
	return lo.Map(stored, func(m repositories.DiskMessage, _ int) domain.Message {
		return m.ToDomain()
	}), cursor, nil
}

func (s *ChatService) Search(ctx context.Context, input string) ([]repositories.SearchHit, error) {
	query := search.NewSearchQuery(input)
	if query.IsEmpty() {
		return []repositories.SearchHit{}, nil
	}
	return s.search.Search(ctx, query)
}
