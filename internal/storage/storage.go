package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/paper-trader/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrNegativeBalance indicates a cash update would drive a balance below zero.
var ErrNegativeBalance = errors.New("balance would become negative")

// ErrOutOfRange indicates a cash update would reach MaxCash.
var ErrOutOfRange = errors.New("balance out of range")

// MaxCash is the exclusive upper bound of a cash balance. The users.cash
// column is NUMERIC(24,4), which leaves 20 integer digits.
var MaxCash = decimal.New(1, 20)

// UserStore captures credential persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}

// LedgerReader serves the read-only views derived from the ledger.
type LedgerReader interface {
	// Positions returns every symbol with a positive net share count, ordered
	// by symbol.
	Positions(ctx context.Context, userID int64) ([]models.Position, error)
	// Transactions returns the user's ledger in insertion order.
	Transactions(ctx context.Context, userID int64) ([]models.Transaction, error)
}

// Account is the locked view of one user handed to a unit of work. Writes made
// through it become visible only if the unit returns nil.
type Account interface {
	// User is the account row as read under the lock, with Cash reflecting
	// adjustments made so far in this unit.
	User() models.User
	Position(ctx context.Context, symbol string) (int64, error)
	AdjustCash(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error)
	Append(ctx context.Context, tx models.Transaction) (models.Transaction, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	LedgerReader
	// WithAccount runs fn with the user's row locked. Concurrent units for the
	// same user are serialized; fn's writes commit atomically or not at all.
	WithAccount(ctx context.Context, userID int64, fn func(ctx context.Context, acct Account) error) error
}
