package dto

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/paper-trader/internal/models"
)

type QuoteRequest struct {
	Symbol string `json:"symbol"`
}

func (r *QuoteRequest) BindForm(form url.Values) {
	r.Symbol = form.Get("symbol")
}

type TradeRequest struct {
	Symbol string `json:"symbol"`
	Shares Value  `json:"shares"`
}

func (r *TradeRequest) BindForm(form url.Values) {
	r.Symbol = form.Get("symbol")
	r.Shares = Value(form.Get("shares"))
}

// AddFundsRequest accepts the amount as either "amount" or "quantity".
type AddFundsRequest struct {
	Amount   Value `json:"amount"`
	Quantity Value `json:"quantity"`
}

func (r *AddFundsRequest) BindForm(form url.Values) {
	r.Amount = Value(form.Get("amount"))
	r.Quantity = Value(form.Get("quantity"))
}

func (r AddFundsRequest) Value() string {
	if s := r.Amount.String(); s != "" {
		return s
	}
	return r.Quantity.String()
}

type QuoteResponse struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	PriceFormatted string          `json:"price_formatted"`
}

func NewQuoteResponse(q models.Quote) QuoteResponse {
	return QuoteResponse{
		Symbol:         q.Symbol,
		Name:           q.Name,
		Price:          q.Price,
		PriceFormatted: models.USD(q.Price),
	}
}

type TradeResponse struct {
	Symbol         string          `json:"symbol"`
	Shares         int64           `json:"shares"`
	Price          decimal.Decimal `json:"price"`
	PriceFormatted string          `json:"price_formatted"`
	ExecutedAt     time.Time       `json:"executed_at"`
}

func NewTradeResponse(tx models.Transaction) TradeResponse {
	return TradeResponse{
		Symbol:         tx.Symbol,
		Shares:         tx.Shares,
		Price:          tx.Price,
		PriceFormatted: models.USD(tx.Price),
		ExecutedAt:     tx.ExecutedAt,
	}
}

type FundsResponse struct {
	Cash          decimal.Decimal `json:"cash"`
	CashFormatted string          `json:"cash_formatted"`
}

type HoldingView struct {
	models.Holding
	PriceFormatted string `json:"price_formatted"`
	ValueFormatted string `json:"value_formatted"`
}

type PortfolioResponse struct {
	Holdings       []HoldingView   `json:"holdings"`
	Cash           decimal.Decimal `json:"cash"`
	CashFormatted  string          `json:"cash_formatted"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"total_formatted"`
}

func NewPortfolioResponse(p models.Portfolio) PortfolioResponse {
	out := PortfolioResponse{
		Holdings:       make([]HoldingView, 0, len(p.Holdings)),
		Cash:           p.Cash,
		CashFormatted:  models.USD(p.Cash),
		Total:          p.Total,
		TotalFormatted: models.USD(p.Total),
	}
	for _, h := range p.Holdings {
		out.Holdings = append(out.Holdings, HoldingView{
			Holding:        h,
			PriceFormatted: models.USD(h.Price),
			ValueFormatted: models.USD(h.Value),
		})
	}
	return out
}

// HistoryRow is one ledger row. Amount is its signed cash effect.
type HistoryRow struct {
	Symbol          string          `json:"symbol"`
	Shares          int64           `json:"shares"`
	Price           decimal.Decimal `json:"price"`
	PriceFormatted  string          `json:"price_formatted"`
	Amount          decimal.Decimal `json:"amount"`
	AmountFormatted string          `json:"amount_formatted"`
	ExecutedAt      time.Time       `json:"executed_at"`
}

func NewHistory(txs []models.Transaction) []HistoryRow {
	rows := make([]HistoryRow, 0, len(txs))
	for _, tx := range txs {
		amount := tx.Amount()
		rows = append(rows, HistoryRow{
			Symbol:          tx.Symbol,
			Shares:          tx.Shares,
			Price:           tx.Price,
			PriceFormatted:  models.USD(tx.Price),
			Amount:          amount,
			AmountFormatted: models.USD(amount),
			ExecutedAt:      tx.ExecutedAt,
		})
	}
	return rows
}
