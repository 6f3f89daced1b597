//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const roomPrefix = "room:"

// IRoomRepository persists the rooms this node joined, so they are advertised again after a restart
type IRoomRepository interface {
	Join(name string) (bool, error)
	Leave(name string) (bool, error)
	List() ([]string, error)
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Join returns false when the room was already joined
func (r *RoomRepository) Join(name string) (bool, error) {
	added := false
	err := r.db.Update(func(txn *badger.Txn) error {
		key := []byte(roomPrefix + name)
		if _, err := txn.Get(key); err == nil {
			return nil
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		added = true
		at, err := time.Now().UTC().MarshalBinary()
		if err != nil {
			return err
		}
		return txn.Set(key, at)
	})
	return added, err
}

// Leave returns false when the room was not joined
func (r *RoomRepository) Leave(name string) (bool, error) {
	removed := false
	err := r.db.Update(func(txn *badger.Txn) error {
		key := []byte(roomPrefix + name)
		if _, err := txn.Get(key); stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		removed = true
		return txn.Delete(key)
	})
	return removed, err
}

func (r *RoomRepository) List() ([]string, error) {
	var rooms []string
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		prefix := []byte(roomPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rooms = append(rooms, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	sort.Strings(rooms)
	return rooms, err
}
