package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/paper-trader/internal/models"
)

type iexQuote struct {
	Symbol      string           `json:"symbol"`
	CompanyName string           `json:"companyName"`
	LatestPrice *decimal.Decimal `json:"latestPrice"`
}

// IEXClient queries an IEX Cloud compatible /stock/{symbol}/quote endpoint.
type IEXClient struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ Lookup = (*IEXClient)(nil)

func NewIEXClient(baseURL, token string, timeout time.Duration) *IEXClient {
	return &IEXClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *IEXClient) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return models.Quote{}, ErrNotFound
	}
	endpoint := fmt.Sprintf("%s/stock/%s/quote", c.baseURL, url.PathEscape(symbol))
	params := url.Values{}
	params.Set("token", c.token)

	var body iexQuote
	if err := getJSON(ctx, c.http, endpoint, params, &body); err != nil {
		return models.Quote{}, err
	}
	if body.LatestPrice == nil || body.Symbol == "" {
		return models.Quote{}, ErrNotFound
	}
	return models.Quote{
		Symbol: Normalize(body.Symbol),
		Name:   body.CompanyName,
		Price:  *body.LatestPrice,
	}, nil
}
