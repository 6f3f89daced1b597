//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bytes"
	"cryptochat/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(room string, cursor *string) ([]DiskMessage, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type DiskMessage struct {
	ID         uuid.UUID `json:"id"`
	Room       string    `json:"room"`
	SenderName string    `json:"sender_name"`
	SenderUUID uuid.UUID `json:"sender_uuid"`
	Content    string    `json:"content"`
	Lang       string    `json:"lang,omitempty"`
	At         time.Time `json:"at"`
}

func ToDiskMessage(m domain.Message) DiskMessage {
	return DiskMessage{
		ID:         m.ID,
		Room:       m.Room,
		SenderName: m.Sender.Username,
		SenderUUID: m.Sender.UUID,
		Content:    m.Content,
		Lang:       m.Lang,
		At:         m.At,
	}
}

func (d DiskMessage) ToDomain() domain.Message {
	return domain.Message{
		ID:      d.ID,
		Room:    d.Room,
		Sender:  domain.Sender{Username: d.SenderName, UUID: d.SenderUUID},
		Content: d.Content,
		Lang:    d.Lang,
		At:      d.At,
	}
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// Room names never contain ':' so prefixes cannot collide.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.Room,
		message.At.UnixNano(),
		message.ID,
	)
	value, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// GetMessages retrieves messages for a room using a reverse prefix scan, newest first.
// Thanks to the padded timestamp in the key, messages are naturally sorted by time.
// The returned cursor is the key suffix of the last message, nil once the history is exhausted.
func (m MessageRepository) GetMessages(room string, cursor *string) ([]DiskMessage, *string, error) {
	var values [][]byte
	var lastKey string
	exhausted := true
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// '~' sorts after every digit, so the scan starts at the newest message
			seekKey = append([]byte(prefixStr), '~')
		default:
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && bytes.Equal(it.Item().Key(), seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(values) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				exhausted = false
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages := make([]DiskMessage, 0, len(values))
	for _, v := range values {
		var message DiskMessage
		if err := json.Unmarshal(v, &message); err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	if exhausted {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}
