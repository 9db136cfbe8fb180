package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/paper-trader/internal/models"
	"github.com/hongminglow/paper-trader/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
	codeNumericOverflow = "22003"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store provides Postgres-backed persistence for users and the ledger.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	dir, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, dir)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (username, password_hash, cash)
		VALUES ($1, $2, $3)
		RETURNING id, username, password_hash, cash, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Username, user.PasswordHash, toNumeric(user.Cash))
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `
	SELECT id, username, password_hash, cash, created_at
	FROM users
	WHERE username = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, username))
}

// FindByID fetches a user by id.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
	SELECT id, username, password_hash, cash, created_at
	FROM users
	WHERE id = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// Positions sums the ledger per symbol and keeps positive totals.
func (s *Store) Positions(ctx context.Context, userID int64) ([]models.Position, error) {
	const query = `
	SELECT symbol, SUM(shares)::BIGINT AS total
	FROM transactions
	WHERE user_id = $1
	GROUP BY symbol
	HAVING SUM(shares) > 0
	ORDER BY symbol;
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	positions := make([]models.Position, 0)
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.Symbol, &p.Shares); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Transactions returns the user's ledger in insertion order. Rows for one
// user are appended under the account lock, so id order is commit order.
func (s *Store) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	const query = `
	SELECT id, user_id, symbol, shares, price, executed_at
	FROM transactions
	WHERE user_id = $1
	ORDER BY id;
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		var price pgtype.Numeric
		if err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Shares, &price, &t.ExecutedAt); err != nil {
			return nil, err
		}
		t.Price = fromNumeric(price)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// WithAccount locks the user row with SELECT ... FOR UPDATE for the duration
// of a database transaction and commits only when fn succeeds.
func (s *Store) WithAccount(ctx context.Context, userID int64, fn func(ctx context.Context, acct storage.Account) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const lockQuery = `
	SELECT id, username, password_hash, cash, created_at
	FROM users
	WHERE id = $1
	FOR UPDATE;
	`
	user, err := scanUser(tx.QueryRow(ctx, lockQuery, userID))
	if err != nil {
		return err
	}

	if err := fn(ctx, &account{tx: tx, user: user}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type account struct {
	tx   pgx.Tx
	user models.User
}

func (a *account) User() models.User {
	return a.user
}

func (a *account) Position(ctx context.Context, symbol string) (int64, error) {
	const query = `
	SELECT COALESCE(SUM(shares), 0)::BIGINT
	FROM transactions
	WHERE user_id = $1 AND symbol = $2;
	`
	var total int64
	if err := a.tx.QueryRow(ctx, query, a.user.ID, symbol).Scan(&total); err != nil {
		return 0, fmt.Errorf("query position: %w", err)
	}
	return total, nil
}

func (a *account) AdjustCash(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	const query = `
	UPDATE users SET cash = cash + $1
	WHERE id = $2
	RETURNING cash;
	`
	var cash pgtype.Numeric
	if err := a.tx.QueryRow(ctx, query, toNumeric(delta), a.user.ID).Scan(&cash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case codeCheckViolation:
				return a.user.Cash, storage.ErrNegativeBalance
			case codeNumericOverflow:
				return a.user.Cash, storage.ErrOutOfRange
			}
		}
		return a.user.Cash, fmt.Errorf("update cash: %w", err)
	}
	a.user.Cash = fromNumeric(cash)
	return a.user.Cash, nil
}

func (a *account) Append(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	const query = `
	INSERT INTO transactions (user_id, symbol, shares, price)
	VALUES ($1, $2, $3, $4)
	RETURNING id, executed_at;
	`
	t.UserID = a.user.ID
	if err := a.tx.QueryRow(ctx, query, t.UserID, t.Symbol, t.Shares, toNumeric(t.Price)).Scan(&t.ID, &t.ExecutedAt); err != nil {
		return models.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var cash pgtype.Numeric
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &cash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.Cash = fromNumeric(cash)
	return user, nil
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
