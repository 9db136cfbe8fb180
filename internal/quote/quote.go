// Package quote is the client side of the external pricing source.
package quote

import (
	"context"
	"errors"
	"strings"

	"github.com/hongminglow/paper-trader/internal/models"
)

// ErrNotFound is returned when the provider does not know the symbol.
var ErrNotFound = errors.New("quote: symbol not found")

// Lookup resolves a symbol to its current quote. Implementations make a single
// attempt per call.
type Lookup interface {
	Lookup(ctx context.Context, symbol string) (models.Quote, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, symbol string) (models.Quote, error)

func (f LookupFunc) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	return f(ctx, symbol)
}

// Normalize trims and upper-cases a ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
