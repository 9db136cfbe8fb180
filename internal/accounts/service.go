// Package accounts owns registration and credential checks.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/paper-trader/internal/errs"
	"github.com/hongminglow/paper-trader/internal/logging"
	"github.com/hongminglow/paper-trader/internal/models"
	"github.com/hongminglow/paper-trader/internal/storage"
)

// bcrypt ignores input past this length.
const maxPasswordBytes = 72

// Service registers users and verifies their passwords.
type Service struct {
	store        storage.UserStore
	startingCash decimal.Decimal
	hashCost     int
}

// NewService creates a service that seeds new accounts with startingCash.
func NewService(store storage.UserStore, startingCash decimal.Decimal) *Service {
	return &Service{store: store, startingCash: startingCash, hashCost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

// Register creates an account. Nothing is stored when validation fails.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (models.User, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return models.User{}, errs.Validation("must provide username")
	case password == "":
		return models.User{}, errs.Validation("must provide password")
	case confirmation == "":
		return models.User{}, errs.Validation("must confirm password")
	case password != confirmation:
		return models.User{}, errs.Validation("passwords do not match")
	case !utf8.ValidString(password):
		return models.User{}, errs.Validation("password must be valid UTF-8")
	case len(password) > maxPasswordBytes:
		return models.User{}, errs.Validation("password must be at most %d bytes", maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.CreateUser(ctx, models.User{
		Username:     username,
		PasswordHash: string(hash),
		Cash:         s.startingCash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, errs.Conflict("username %q is already taken", username)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	logging.FromContext(ctx).WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// Authenticate returns the user whose password matches. Unknown usernames and
// wrong passwords produce the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, errs.Validation("must provide username")
	}
	if password == "" {
		return models.User{}, errs.Validation("must provide password")
	}

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, errs.Auth("invalid username and/or password")
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errs.Auth("invalid username and/or password")
	}
	return user, nil
}
