package quote

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/paper-trader/internal/cache"
	"github.com/hongminglow/paper-trader/internal/logging"
	"github.com/hongminglow/paper-trader/internal/models"
)

// Cached serves quotes from store for ttl before asking next again. Failed
// lookups are not cached.
type Cached struct {
	next  Lookup
	store cache.Store
	ttl   time.Duration
}

var _ Lookup = (*Cached)(nil)

func NewCached(next Lookup, store cache.Store, ttl time.Duration) *Cached {
	return &Cached{next: next, store: store, ttl: ttl}
}

func (c *Cached) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	key := "quote:" + Normalize(symbol)

	var q models.Quote
	err := c.store.Get(ctx, key, &q)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logging.FromContext(ctx).WithError(err).Warn("quote cache read failed")
	}

	q, err = c.next.Lookup(ctx, symbol)
	if err != nil {
		return models.Quote{}, err
	}
	if err := c.store.Set(ctx, key, q, c.ttl); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("quote cache write failed")
	}
	return q, nil
}
