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

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

// AlphaVantageClient uses the GLOBAL_QUOTE function. The endpoint carries no
// company name, so the symbol doubles as the display name.
type AlphaVantageClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ Lookup = (*AlphaVantageClient)(nil)

func NewAlphaVantageClient(baseURL, apiKey string, timeout time.Duration) *AlphaVantageClient {
	return &AlphaVantageClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *AlphaVantageClient) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return models.Quote{}, ErrNotFound
	}
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	var body globalQuoteResponse
	if err := getJSON(ctx, c.http, c.baseURL+"/query", params, &body); err != nil {
		return models.Quote{}, err
	}
	if body.GlobalQuote.Price == "" {
		return models.Quote{}, ErrNotFound
	}
	price, err := decimal.NewFromString(body.GlobalQuote.Price)
	if err != nil {
		return models.Quote{}, fmt.Errorf("parse price %q: %w", body.GlobalQuote.Price, err)
	}
	resolved := Normalize(body.GlobalQuote.Symbol)
	if resolved == "" {
		resolved = symbol
	}
	return models.Quote{Symbol: resolved, Name: resolved, Price: price}, nil
}
