//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"crypto/x509"
	"cryptochat/certs"
	"cryptochat/domain"
	"cryptochat/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const userPrefix = "user:"

type IUserRepository interface {
	UserForCert(certDER []byte) (domain.User, error)
	Get(id uuid.UUID) (domain.User, error)
	MarkVerified(id uuid.UUID) error
	Delete(id uuid.UUID) error
	List() ([]domain.User, error)
}

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

// diskUser is the badger value stored under user:{uuid}
type diskUser struct {
	Cert      []byte    `json:"cert"`
	Verified  bool      `json:"verified"`
	FirstSeen time.Time `json:"first_seen"`
}

// UserForCert resolves the peer behind a presented certificate.
// An unknown peer is stored unverified (trust on first use).
// A known peer must present a certificate matching the pinned one.
func (r *UserRepository) UserForCert(certDER []byte) (domain.User, error) {
	presented, err := x509.ParseCertificate(certDER)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to parse certificate: %w", err)
	}
	id, err := certs.UUID(presented)
	if err != nil {
		return domain.User{}, err
	}

	var user domain.User
	err = r.db.Update(func(txn *badger.Txn) error {
		key := userKey(id)
		item, err := txn.Get(key)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			r.log.Debug("Inserting new (unverified) user", "uuid", id)
			stored := diskUser{Cert: presented.Raw, FirstSeen: time.Now().UTC()}
			bytes, err := json.Marshal(stored)
			if err != nil {
				return err
			}
			user = domain.User{UUID: id, Cert: presented, FirstSeen: stored.FirstSeen}
			return txn.Set(key, bytes)
		}
		if err != nil {
			return err
		}

		var stored diskUser
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}
		pinned, err := x509.ParseCertificate(stored.Cert)
		if err != nil {
			return fmt.Errorf("failed to parse stored user certificate: %w", err)
		}
		if err := certs.Matches(presented, pinned); err != nil {
			return err
		}
		user = domain.User{UUID: id, Cert: pinned, Verified: stored.Verified, FirstSeen: stored.FirstSeen}
		return nil
	})
	return user, err
}

func (r *UserRepository) Get(id uuid.UUID) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = toUser(id, val)
			return err
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	return user, err
}

func (r *UserRepository) MarkVerified(id uuid.UUID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key := userKey(id)
		item, err := txn.Get(key)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		var stored diskUser
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}
		stored.Verified = true
		bytes, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
}

// Delete forgets a user, so its next connection starts a fresh verification
func (r *UserRepository) Delete(id uuid.UUID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(userKey(id))
	})
}

func (r *UserRepository) List() ([]domain.User, error) {
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id, err := uuid.Parse(string(item.Key()[len(prefix):]))
			if err != nil {
				r.log.Warn("Skipping malformed user key", "key", string(item.Key()))
				continue
			}
			err = item.Value(func(val []byte) error {
				user, err := toUser(id, val)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

// VerifiedCount is a convenience for status reporting
func VerifiedCount(users []domain.User) int {
	return lo.CountBy(users, func(u domain.User) bool { return u.Verified })
}

func userKey(id uuid.UUID) []byte {
	return []byte(userPrefix + id.String())
}

func toUser(id uuid.UUID, val []byte) (domain.User, error) {
	var stored diskUser
	if err := json.Unmarshal(val, &stored); err != nil {
		return domain.User{}, err
	}
	cert, err := x509.ParseCertificate(stored.Cert)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to parse stored certificate for user: %w", err)
	}
	return domain.User{
		UUID:      id,
		Cert:      cert,
		Verified:  stored.Verified,
		FirstSeen: stored.FirstSeen,
	}, nil
}
