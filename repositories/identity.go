//go:generate go run go.uber.org/mock/mockgen -source=identity.go -destination=../mocks/mock_identity_repository.go -package=mocks
package repositories

import (
	"crypto/rand"
	"crypto/tls"
	"cryptochat/certs"
	"cryptochat/errors"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	keyCert       = "kv:cert"
	keyPrivateKey = "kv:key"
	keyUsername   = "kv:username"
	keyPassphrase = "kv:passphrase"
	keyJWTSecret  = "kv:jwt_secret"

	jwtSecretLength = 32
)

type IIdentityRepository interface {
	LoadOrCreateCert(keyBits int) (tls.Certificate, error)
	Username() (string, error)
	SetUsername(username string) error
	PassphraseHash() (string, error)
	SetPassphraseHash(hash string) error
	JWTSecret() ([]byte, error)
}

// IdentityRepository stores the single-row facts about this node
type IdentityRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewIdentityRepository(db *badger.DB, log *slog.Logger) *IdentityRepository {
	return &IdentityRepository{db: db, log: log}
}

// LoadOrCreateCert returns the node certificate, generating and persisting one on first start
func (r *IdentityRepository) LoadOrCreateCert(keyBits int) (tls.Certificate, error) {
	certDER, err := r.get(keyCert)
	if err != nil && !stderrors.Is(err, errors.ErrIdentityMissing) {
		return tls.Certificate{}, err
	}
	keyDER, keyErr := r.get(keyPrivateKey)
	if keyErr != nil && !stderrors.Is(keyErr, errors.ErrIdentityMissing) {
		return tls.Certificate{}, keyErr
	}
	if certDER != nil && keyDER != nil {
		return certs.Load(certDER, keyDER)
	}

	r.log.Info(fmt.Sprintf("Generating %d bit RSA key and certificate", keyBits))
	cert, err := certs.Generate(keyBits, uuid.NewString(), certs.Validity)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate cert and key: %w", err)
	}

	certDER, keyDER = certs.DER(cert)
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyCert), certDER); err != nil {
			return err
		}
		return txn.Set([]byte(keyPrivateKey), keyDER)
	})
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to store cert and key: %w", err)
	}
	return cert, nil
}

// Username returns the stored display name, empty when never set
func (r *IdentityRepository) Username() (string, error) {
	value, err := r.get(keyUsername)
	if stderrors.Is(err, errors.ErrIdentityMissing) {
		return "", nil
	}
	return string(value), err
}

func (r *IdentityRepository) SetUsername(username string) error {
	return r.set(keyUsername, []byte(username))
}

func (r *IdentityRepository) PassphraseHash() (string, error) {
	value, err := r.get(keyPassphrase)
	if stderrors.Is(err, errors.ErrIdentityMissing) {
		return "", nil
	}
	return string(value), err
}

func (r *IdentityRepository) SetPassphraseHash(hash string) error {
	return r.set(keyPassphrase, []byte(hash))
}

// JWTSecret returns the token signing key, created once so tokens survive restarts
func (r *IdentityRepository) JWTSecret() ([]byte, error) {
	var secret []byte
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyJWTSecret))
		switch {
		case err == nil:
			secret, err = item.ValueCopy(nil)
			return err
		case stderrors.Is(err, badger.ErrKeyNotFound):
			secret = make([]byte, jwtSecretLength)
			if _, err := rand.Read(secret); err != nil {
				return err
			}
			return txn.Set([]byte(keyJWTSecret), secret)
		default:
			return err
		}
	})
	return secret, err
}

func (r *IdentityRepository) get(key string) ([]byte, error) {
	var value []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrIdentityMissing
	}
	return value, err
}

func (r *IdentityRepository) set(key string, value []byte) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}
