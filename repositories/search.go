//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"context"
	"cryptochat/domain/search"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	fieldID         = "_id"
	fieldRoom       = "room"
	fieldContent    = "content"
	fieldSender     = "sender"
	fieldSenderUUID = "sender_uuid"
	fieldLang       = "lang"
	fieldAt         = "at"
)

type ISearchRepository interface {
	Index(message DiskMessage) error
	IndexBatch(messages []DiskMessage) error
	Search(ctx context.Context, query search.Query) ([]SearchHit, error)
}

type SearchHit struct {
	Message DiskMessage `json:"message"`
	Score   float64     `json:"score"`
}

// SearchRepository keeps a bluge full-text index of received messages, next to the badger history
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) *SearchRepository {
	return &SearchRepository{writer: writer, log: log}
}

func (s *SearchRepository) Index(message DiskMessage) error {
	doc := toDocument(message)
	if err := s.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("failed to index message %s: %w", message.ID, err)
	}
	return nil
}

// IndexBatch writes several messages in a single index segment
func (s *SearchRepository) IndexBatch(messages []DiskMessage) error {
	batch := bluge.NewBatch()
	for _, message := range messages {
		doc := toDocument(message)
		batch.Update(doc.ID(), doc)
	}
	if err := s.writer.Batch(batch); err != nil {
		return fmt.Errorf("failed to index %d messages: %w", len(messages), err)
	}
	s.log.Debug("Indexed message batch", "count", len(messages))
	return nil
}

func toDocument(message DiskMessage) *bluge.Document {
	return bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField(fieldRoom, message.Room).StoreValue()).
		AddField(bluge.NewTextField(fieldContent, message.Content).StoreValue()).
		AddField(bluge.NewKeywordField(fieldSender, message.SenderName).StoreValue()).
		AddField(bluge.NewKeywordField(fieldSenderUUID, message.SenderUUID.String()).StoreValue()).
		AddField(bluge.NewKeywordField(fieldLang, message.Lang).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldAt, message.At).StoreValue())
}

func (s *SearchRepository) Search(ctx context.Context, query search.Query) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	q := bluge.NewBooleanQuery()
	if query.Terms != "" {
		q.AddMust(bluge.NewMatchQuery(query.Terms).SetField(fieldContent))
	} else {
		q.AddMust(bluge.NewMatchAllQuery())
	}
	if query.Room != "" {
		q.AddMust(bluge.NewTermQuery(query.Room).SetField(fieldRoom))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = search.DefaultLimit
	}
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var hits []SearchHit
	match, err := iterator.Next()
	for err == nil && match != nil {
		hit := SearchHit{Score: match.Score}
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case fieldID:
				hit.Message.ID, _ = uuid.Parse(string(value))
			case fieldRoom:
				hit.Message.Room = string(value)
			case fieldContent:
				hit.Message.Content = string(value)
			case fieldSender:
				hit.Message.SenderName = string(value)
			case fieldSenderUUID:
				hit.Message.SenderUUID, _ = uuid.Parse(string(value))
			case fieldLang:
				hit.Message.Lang = string(value)
			case fieldAt:
				at, decodeErr := bluge.DecodeDateTime(value)
				if decodeErr == nil {
					hit.Message.At = at.UTC()
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
