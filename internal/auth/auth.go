// Package auth registers players, verifies their credentials, and
// mints the signed session tokens the web layer stores in a cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
	"github.com/louisbranch/fabled/internal/platform/id"
	"github.com/louisbranch/fabled/internal/storage"
)

// StartingCredits is the default balance granted to new accounts.
const StartingCredits = 50

var (
	// ErrEmptyName indicates a missing account name.
	ErrEmptyName = apperrors.New(apperrors.CodeUserEmptyName, "account name is required")
	// ErrUserExists indicates the account name is already taken.
	ErrUserExists = apperrors.New(apperrors.CodeUserExists, "account name is already taken")
	// ErrInvalidCredentials indicates a failed name/password check.
	// Login never reveals which of the two was wrong.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeInvalidCredentials, "invalid name or password")
)

// Config tunes a Service. Secret is the only required field.
type Config struct {
	// Secret signs session tokens. It must be non-empty.
	Secret []byte
	// TokenTTL bounds session lifetime. Defaults to 7 days.
	TokenTTL time.Duration
	// StartingCredits overrides the balance granted to new accounts.
	StartingCredits int64
	// Now supplies the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Service manages accounts backed by a storage.UserStore.
type Service struct {
	users   storage.UserStore
	secret  []byte
	ttl     time.Duration
	credits int64
	now     func() time.Time
}

// NewService wires a Service. It fails when the signing secret is
// empty, since tokens minted with a guessable key are worthless.
func NewService(users storage.UserStore, cfg Config) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.StartingCredits <= 0 {
		cfg.StartingCredits = StartingCredits
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		users:   users,
		secret:  cfg.Secret,
		ttl:     cfg.TokenTTL,
		credits: cfg.StartingCredits,
		now:     cfg.Now,
	}, nil
}

// Register creates an account with the configured starting balance.
func (s *Service) Register(ctx context.Context, name, password string) (storage.UserRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.UserRecord{}, ErrEmptyName
	}
	if password == "" {
		return storage.UserRecord{}, apperrors.New(apperrors.CodeInvalidCredentials, "password is required")
	}

	if _, err := s.users.UserByName(ctx, name); err == nil {
		return storage.UserRecord{}, ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storage.UserRecord{}, fmt.Errorf("check account name: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return storage.UserRecord{}, fmt.Errorf("hash password: %w", err)
	}
	userID, err := id.NewID()
	if err != nil {
		return storage.UserRecord{}, fmt.Errorf("generate user id: %w", err)
	}

	createdAt := s.now().UTC()
	user := storage.UserRecord{
		ID:           userID,
		Name:         name,
		PasswordHash: string(hash),
		Credits:      s.credits,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return storage.UserRecord{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, name, password string) (storage.UserRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return storage.UserRecord{}, ErrInvalidCredentials
	}

	user, err := s.users.UserByName(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.UserRecord{}, ErrInvalidCredentials
		}
		return storage.UserRecord{}, fmt.Errorf("look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return storage.UserRecord{}, ErrInvalidCredentials
	}
	return user, nil
}
