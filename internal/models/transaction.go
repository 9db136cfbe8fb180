package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one immutable ledger row. Shares is positive for a buy and
// negative for a sell.
type Transaction struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Amount is the signed cash effect of the row: negative for buys.
func (t Transaction) Amount() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares)).Neg()
}

// Position is the net share count held in one symbol, derived from the ledger.
type Position struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}
