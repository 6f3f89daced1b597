package services

import (
	"cryptochat/auth"
	"cryptochat/errors"
	"cryptochat/mocks"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	issuer := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), "node", time.Hour)
	passphrase := "correct horse battery"
	hash, err := auth.HashPassword(passphrase)
	require.NoError(t, err)

	mockRepo := mocks.NewMockIIdentityRepository(ctrl)
	// The stored hash already matches, nothing is rewritten
	mockRepo.EXPECT().PassphraseHash().Return(hash, nil).AnyTimes()
	svc, err := NewAuthService(slog.Default(), mockRepo, issuer, passphrase)
	require.NoError(t, err)

	t.Run("should issue a valid token for the right passphrase", func(t *testing.T) {
		req := require.New(t)

		token, err := svc.Login(passphrase)

		req.NoError(err)
		req.NotEmpty(token)
		req.NoError(svc.Validate(token))
	})

	t.Run("should return invalid credentials for a wrong passphrase", func(t *testing.T) {
		req := require.New(t)

		token, err := svc.Login("wrong passphrase")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Empty(token)
	})
}

func TestNewAuthService(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), "node", time.Hour)

	t.Run("should be disabled without a passphrase", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockIIdentityRepository(ctrl)

		// Repository should NEVER be called
		svc, err := NewAuthService(slog.Default(), mockRepo, issuer, "")

		req.NoError(err)
		req.False(svc.Enabled())
		_, err = svc.Login("anything")
		req.ErrorIs(err, errors.ErrAuthDisabled)
	})

	t.Run("should store the hash of a new passphrase", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		mockRepo := mocks.NewMockIIdentityRepository(ctrl)

		mockRepo.EXPECT().PassphraseHash().Return("", nil)
		mockRepo.EXPECT().SetPassphraseHash(gomock.Any()).DoAndReturn(func(hash string) error {
			match, err := auth.ComparePassword("a brand new secret", hash)
			req.NoError(err)
			req.True(match)
			return nil
		})

		svc, err := NewAuthService(slog.Default(), mockRepo, issuer, "a brand new secret")

		req.NoError(err)
		req.True(svc.Enabled())
	})

	t.Run("should refuse a passphrase that is too short", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)

		_, err := NewAuthService(slog.Default(), mocks.NewMockIIdentityRepository(ctrl), issuer, "short")

		req.Error(err)
	})
}
