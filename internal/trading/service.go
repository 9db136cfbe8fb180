// Package trading implements the account ledger: buying and selling at quoted
// prices, funding, and the portfolio and history views derived from the ledger.
package trading

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/paper-trader/internal/errs"
	"github.com/hongminglow/paper-trader/internal/logging"
	"github.com/hongminglow/paper-trader/internal/models"
	"github.com/hongminglow/paper-trader/internal/quote"
	"github.com/hongminglow/paper-trader/internal/storage"
)

// Scale is the number of decimal places kept for prices and cash.
const Scale = 4

// Service runs trading operations for authenticated users.
type Service struct {
	store  storage.Store
	quotes quote.Lookup
}

func NewService(store storage.Store, quotes quote.Lookup) *Service {
	return &Service{store: store, quotes: quotes}
}

// Quote resolves symbol through the pricing source. Any failure, including an
// upstream outage, is reported as an unknown symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = quote.Normalize(symbol)
	if symbol == "" {
		return models.Quote{}, errs.Validation("must provide symbol")
	}

	q, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		if !errors.Is(err, quote.ErrNotFound) {
			logging.FromContext(ctx).WithError(err).WithField("symbol", symbol).Warn("quote lookup failed")
		}
		return models.Quote{}, errs.NotFound("invalid symbol %s", symbol)
	}
	if !q.Price.IsPositive() {
		return models.Quote{}, errs.NotFound("invalid symbol %s", symbol)
	}

	q.Symbol = quote.Normalize(q.Symbol)
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	if q.Name == "" {
		q.Name = q.Symbol
	}
	q.Price = q.Price.Round(Scale)
	return q, nil
}

// Buy purchases shares at the current quote. Cash and the ledger change
// together or not at all.
func (s *Service) Buy(ctx context.Context, userID int64, symbol string, shares int64) (models.Transaction, error) {
	if shares <= 0 {
		return models.Transaction{}, errs.Validation("shares must be a positive integer")
	}
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return models.Transaction{}, err
	}
	cost := q.Price.Mul(decimal.NewFromInt(shares))

	var recorded models.Transaction
	err = s.withAccount(ctx, userID, func(ctx context.Context, acct storage.Account) error {
		if cost.GreaterThan(acct.User().Cash) {
			return errs.InsufficientFunds("cannot afford %d shares of %s", shares, q.Symbol)
		}
		if _, err := acct.AdjustCash(ctx, cost.Neg()); err != nil {
			if errors.Is(err, storage.ErrNegativeBalance) {
				return errs.InsufficientFunds("cannot afford %d shares of %s", shares, q.Symbol)
			}
			return err
		}
		recorded, err = acct.Append(ctx, models.Transaction{Symbol: q.Symbol, Shares: shares, Price: q.Price})
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}

	tradeLog(ctx, recorded).Info("bought shares")
	return recorded, nil
}

// Sell disposes of shares at the current quote. The position is read under
// the same lock that guards the write.
func (s *Service) Sell(ctx context.Context, userID int64, symbol string, shares int64) (models.Transaction, error) {
	if shares <= 0 {
		return models.Transaction{}, errs.Validation("shares must be a positive integer")
	}
	q, err := s.Quote(ctx, symbol)
	if err != nil {
		return models.Transaction{}, err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(shares))

	var recorded models.Transaction
	err = s.withAccount(ctx, userID, func(ctx context.Context, acct storage.Account) error {
		held, err := acct.Position(ctx, q.Symbol)
		if err != nil {
			return err
		}
		if held <= 0 {
			return errs.NoPosition("you do not own any shares of %s", q.Symbol)
		}
		if shares > held {
			return errs.OverSell("cannot sell %d shares of %s, you own %d", shares, q.Symbol, held)
		}
		if err := checkCeiling(acct.User().Cash, proceeds); err != nil {
			return err
		}
		if _, err := acct.AdjustCash(ctx, proceeds); err != nil {
			return cashError(err)
		}
		recorded, err = acct.Append(ctx, models.Transaction{Symbol: q.Symbol, Shares: -shares, Price: q.Price})
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}

	tradeLog(ctx, recorded).Info("sold shares")
	return recorded, nil
}

// AddFunds credits amount to the user's cash without touching the ledger and
// returns the new balance.
func (s *Service) AddFunds(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(Scale)
	if !amount.IsPositive() {
		return decimal.Zero, errs.Validation("amount must be a positive number")
	}
	if amount.GreaterThanOrEqual(storage.MaxCash) {
		return decimal.Zero, errs.Validation("amount must be less than %s", storage.MaxCash.String())
	}

	var balance decimal.Decimal
	err := s.withAccount(ctx, userID, func(ctx context.Context, acct storage.Account) error {
		if err := checkCeiling(acct.User().Cash, amount); err != nil {
			return err
		}
		var err error
		balance, err = acct.AdjustCash(ctx, amount)
		return cashError(err)
	})
	if err != nil {
		return decimal.Zero, err
	}

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount.String(),
	}).Info("funds added")
	return balance, nil
}

// Portfolio values every open position at its current quote. A held symbol
// that no longer resolves fails the whole view.
func (s *Service) Portfolio(ctx context.Context, userID int64) (models.Portfolio, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return models.Portfolio{}, accountError(err)
	}
	positions, err := s.store.Positions(ctx, userID)
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("load positions: %w", err)
	}

	out := models.Portfolio{
		Holdings: make([]models.Holding, 0, len(positions)),
		Cash:     user.Cash,
		Total:    user.Cash,
	}
	for _, p := range positions {
		q, err := s.Quote(ctx, p.Symbol)
		if err != nil {
			return models.Portfolio{}, err
		}
		value := q.Price.Mul(decimal.NewFromInt(p.Shares))
		out.Holdings = append(out.Holdings, models.Holding{
			Symbol: p.Symbol,
			Name:   q.Name,
			Shares: p.Shares,
			Price:  q.Price,
			Value:  value,
		})
		out.Total = out.Total.Add(value)
	}
	return out, nil
}

// History returns the user's ledger, oldest first.
func (s *Service) History(ctx context.Context, userID int64) ([]models.Transaction, error) {
	if _, err := s.store.FindByID(ctx, userID); err != nil {
		return nil, accountError(err)
	}
	txs, err := s.store.Transactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return txs, nil
}

func (s *Service) withAccount(ctx context.Context, userID int64, fn func(ctx context.Context, acct storage.Account) error) error {
	return accountError(s.store.WithAccount(ctx, userID, fn))
}

// accountError turns a vanished account into an authentication failure so the
// client is sent back to log in.
func accountError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errs.Unauthenticated("account not found")
	}
	return err
}

// checkCeiling rejects a credit that would push cash to storage.MaxCash.
func checkCeiling(cash, credit decimal.Decimal) error {
	if cash.Add(credit).GreaterThanOrEqual(storage.MaxCash) {
		return errs.Validation("balance would exceed the maximum of %s", storage.MaxCash.String())
	}
	return nil
}

// cashError classifies a storage failure from AdjustCash.
func cashError(err error) error {
	if errors.Is(err, storage.ErrOutOfRange) {
		return errs.Validation("balance would exceed the maximum of %s", storage.MaxCash.String())
	}
	return err
}

func tradeLog(ctx context.Context, tx models.Transaction) *logrus.Entry {
	return logging.FromContext(ctx).WithFields(logrus.Fields{
		"user_id": tx.UserID,
		"symbol":  tx.Symbol,
		"shares":  tx.Shares,
		"price":   tx.Price.String(),
	})
}

// Positions lists the open positions without pricing them.
func (s *Service) Positions(ctx context.Context, userID int64) ([]models.Position, error) {
	positions, err := s.store.Positions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	return positions, nil
}
