// Package memory is an in-process storage.Store used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/paper-trader/internal/models"
	"github.com/hongminglow/paper-trader/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and the ledger in maps guarded by a RWMutex. Units of work
// additionally hold a per-user mutex for their whole duration.
type Store struct {
	mu         sync.RWMutex
	users      map[int64]models.User
	byUsername map[string]int64
	ledger     []models.Transaction
	nextUserID int64
	nextTxID   int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:      make(map[int64]models.User),
		byUsername: make(map[string]int64),
		locks:      make(map[int64]*sync.Mutex),
		nextUserID: 1,
		nextTxID:   1,
		now:        time.Now,
	}
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[user.Username]; taken {
		return models.User{}, storage.ErrAlreadyExists
	}
	user.ID = s.nextUserID
	s.nextUserID++
	user.CreatedAt = s.now().UTC()
	s.users[user.ID] = user
	s.byUsername[user.Username] = user.ID
	return user, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

// FindByID fetches a user by id.
func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// Positions sums the ledger per symbol and keeps positive totals.
func (s *Store) Positions(_ context.Context, userID int64) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]int64)
	for _, tx := range s.ledger {
		if tx.UserID == userID {
			totals[tx.Symbol] += tx.Shares
		}
	}
	positions := make([]models.Position, 0, len(totals))
	for symbol, shares := range totals {
		if shares > 0 {
			positions = append(positions, models.Position{Symbol: symbol, Shares: shares})
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })
	return positions, nil
}

// Transactions returns the user's rows in insertion order.
func (s *Store) Transactions(_ context.Context, userID int64) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0)
	for _, tx := range s.ledger {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// WithAccount serializes units per user and applies staged writes only when
// fn succeeds.
func (s *Store) WithAccount(ctx context.Context, userID int64, fn func(ctx context.Context, acct storage.Account) error) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	acct := &account{store: s, user: user}
	if err := fn(ctx, acct); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = acct.user
	s.ledger = append(s.ledger, acct.pending...)
	return nil
}

func (s *Store) userLock(userID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

type account struct {
	store   *Store
	user    models.User
	pending []models.Transaction
}

func (a *account) User() models.User {
	return a.user
}

func (a *account) Position(_ context.Context, symbol string) (int64, error) {
	a.store.mu.RLock()
	var total int64
	for _, tx := range a.store.ledger {
		if tx.UserID == a.user.ID && tx.Symbol == symbol {
			total += tx.Shares
		}
	}
	a.store.mu.RUnlock()

	for _, tx := range a.pending {
		if tx.Symbol == symbol {
			total += tx.Shares
		}
	}
	return total, nil
}

func (a *account) AdjustCash(_ context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	next := a.user.Cash.Add(delta)
	if next.IsNegative() {
		return a.user.Cash, storage.ErrNegativeBalance
	}
	if next.GreaterThanOrEqual(storage.MaxCash) {
		return a.user.Cash, storage.ErrOutOfRange
	}
	a.user.Cash = next
	return next, nil
}

// Append draws the id immediately, like a database sequence: ids of rolled
// back rows are not reused.
func (a *account) Append(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	a.store.mu.Lock()
	tx.ID = a.store.nextTxID
	a.store.nextTxID++
	a.store.mu.Unlock()

	tx.UserID = a.user.ID
	if tx.ExecutedAt.IsZero() {
		tx.ExecutedAt = a.store.now().UTC()
	}
	a.pending = append(a.pending, tx)
	return tx, nil
}
