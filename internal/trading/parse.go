package trading

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/paper-trader/internal/errs"
	"github.com/hongminglow/paper-trader/internal/storage"
)

// ParseShares reads a share count from user input. Only positive whole
// numbers are accepted.
func ParseShares(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errs.Validation("must provide shares")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, errs.Validation("shares must be a positive integer")
	}
	return n, nil
}

// ParseAmount reads a cash amount from user input.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errs.Validation("must provide amount")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errs.Validation("amount must be a number")
	}
	rounded := amount.Round(Scale)
	if !rounded.IsPositive() {
		return decimal.Zero, errs.Validation("amount must be a positive number")
	}
	if rounded.GreaterThanOrEqual(storage.MaxCash) {
		return decimal.Zero, errs.Validation("amount must be less than %s", storage.MaxCash.String())
	}
	return amount, nil
}
