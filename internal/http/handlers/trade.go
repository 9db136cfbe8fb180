package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/paper-trader/internal/http/respond"
	"github.com/hongminglow/paper-trader/internal/models"
	"github.com/hongminglow/paper-trader/internal/models/dto"
	"github.com/hongminglow/paper-trader/internal/trading"
)

// Trader is the trading surface used by the HTTP layer.
type Trader interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	Buy(ctx context.Context, userID int64, symbol string, shares int64) (models.Transaction, error)
	Sell(ctx context.Context, userID int64, symbol string, shares int64) (models.Transaction, error)
	AddFunds(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
	Portfolio(ctx context.Context, userID int64) (models.Portfolio, error)
	History(ctx context.Context, userID int64) ([]models.Transaction, error)
	Positions(ctx context.Context, userID int64) ([]models.Position, error)
}

// TradeHandler serves every route that needs a logged-in user.
type TradeHandler struct {
	trader Trader
}

func NewTradeHandler(trader Trader) *TradeHandler {
	return &TradeHandler{trader: trader}
}

// Register attaches the portfolio routes. r must already require a session.
func (h *TradeHandler) Register(r chi.Router) {
	r.Get("/", h.handlePortfolio)
	r.Get("/history", h.handleHistory)

	r.Get("/quote", h.handleQuoteForm)
	r.Post("/quote", h.handleQuote)

	r.Get("/buy", h.form(dto.BuyForm))
	r.Post("/buy", h.handleBuy)
	r.Get("/sell", h.handleSellForm)
	r.Post("/sell", h.handleSell)

	r.Get("/addfunds", h.form(dto.AddFundsForm))
	r.Post("/addfunds", h.handleAddFunds)
}

func (h *TradeHandler) form(f dto.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, "form", f)
	}
}

func (h *TradeHandler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	p, err := h.trader.Portfolio(r.Context(), id.UserID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "portfolio", dto.NewPortfolioResponse(p))
}

func (h *TradeHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	txs, err := h.trader.History(r.Context(), id.UserID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "history", dto.NewHistory(txs))
}

// handleQuoteForm also answers GET /quote?symbol=X directly.
func (h *TradeHandler) handleQuoteForm(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respond.JSON(w, http.StatusOK, "form", dto.QuoteForm)
		return
	}
	h.writeQuote(w, r, symbol)
}

func (h *TradeHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	h.writeQuote(w, r, req.Symbol)
}

func (h *TradeHandler) writeQuote(w http.ResponseWriter, r *http.Request, symbol string) {
	q, err := h.trader.Quote(r.Context(), symbol)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "quoted", dto.NewQuoteResponse(q))
}

func (h *TradeHandler) handleBuy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.trader.Buy, "bought")
}

func (h *TradeHandler) handleSell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.trader.Sell, "sold")
}

func (h *TradeHandler) handleSellForm(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	positions, err := h.trader.Positions(r.Context(), id.UserID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}
	respond.JSON(w, http.StatusOK, "form", dto.SellFormFor{Form: dto.SellForm, Symbols: symbols})
}

type tradeFunc func(ctx context.Context, userID int64, symbol string, shares int64) (models.Transaction, error)

func (h *TradeHandler) trade(w http.ResponseWriter, r *http.Request, fn tradeFunc, message string) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req dto.TradeRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	shares, err := trading.ParseShares(req.Shares.String())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	tx, err := fn(r.Context(), id.UserID, req.Symbol, shares)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respond.SeeOther(w, "/", message, dto.NewTradeResponse(tx))
}

func (h *TradeHandler) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req dto.AddFundsRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	amount, err := trading.ParseAmount(req.Value())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	cash, err := h.trader.AddFunds(r.Context(), id.UserID, amount)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	respond.SeeOther(w, "/", "funds added", dto.FundsResponse{Cash: cash, CashFormatted: models.USD(cash)})
}
