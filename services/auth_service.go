//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"cryptochat/auth"
	"cryptochat/errors"
	"cryptochat/repositories"
	"fmt"
	"log/slog"
)

type IAuthService interface {
	Enabled() bool
	Login(passphrase string) (string, error)
	Validate(token string) error
}

// AuthService guards the local UI API with a passphrase exchanged for a JWT.
// It is disabled when no passphrase is configured.
type AuthService struct {
	log      *slog.Logger
	identity repositories.IIdentityRepository
	issuer   auth.TokenIssuer
	enabled  bool
}

// NewAuthService stores the argon2 hash of the configured passphrase when it changed.
func NewAuthService(log *slog.Logger, identity repositories.IIdentityRepository,
	issuer auth.TokenIssuer, passphrase string) (*AuthService, error) {
	s := &AuthService{log: log, identity: identity, issuer: issuer, enabled: passphrase != ""}
	if !s.enabled {
		return s, nil
	}

	// 1. Validate the configured passphrase before any expensive cryptographic operation
	if err := auth.Validate(auth.LoginRequest{Passphrase: passphrase}); err != nil {
		return nil, fmt.Errorf("invalid UI_PASSPHRASE: %w", err)
	}

	// 2. Keep the stored hash if it already matches
	stored, err := identity.PassphraseHash()
	if err != nil {
		return nil, err
	}
	if stored != "" {
		if match, err := auth.ComparePassword(passphrase, stored); err == nil && match {
			return s, nil
		}
	}

	// 3. Hash the passphrase using Argon2id and persist it
	hash, err := auth.HashPassword(passphrase)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}
	if err := identity.SetPassphraseHash(hash); err != nil {
		return nil, err
	}
	log.Info("UI passphrase updated")
	return s, nil
}

func (s *AuthService) Enabled() bool { return s.enabled }

func (s *AuthService) Login(passphrase string) (string, error) {
	if !s.enabled {
		return "", errors.ErrAuthDisabled
	}

	// 1. Compare the provided passphrase with the stored hash
	stored, err := s.identity.PassphraseHash()
	if err != nil {
		return "", err
	}
	match, err := auth.ComparePassword(passphrase, stored)
	if err != nil || !match {
		s.log.Warn("Rejected UI login attempt")
		return "", errors.ErrInvalidCredentials
	}

	// 2. Issue the JWT token
	token, err := s.issuer.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}
	return token, nil
}

func (s *AuthService) Validate(token string) error {
	_, err := s.issuer.ValidateToken(token)
	return err
}
