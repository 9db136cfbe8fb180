package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/paper-trader/internal/accounts"
	"github.com/hongminglow/paper-trader/internal/auth"
	"github.com/hongminglow/paper-trader/internal/cache"
	"github.com/hongminglow/paper-trader/internal/config"
	"github.com/hongminglow/paper-trader/internal/logging"
	"github.com/hongminglow/paper-trader/internal/models"
	"github.com/hongminglow/paper-trader/internal/models/dto"
	"github.com/hongminglow/paper-trader/internal/quote"
	"github.com/hongminglow/paper-trader/internal/storage/memory"
	"github.com/hongminglow/paper-trader/internal/trading"
)

type prices struct {
	mu sync.Mutex
	m  map[string]string
}

func (p *prices) set(symbol, price string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[symbol] = price
}

func (p *prices) Lookup(_ context.Context, symbol string) (models.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.m[symbol]
	if !ok {
		return models.Quote{}, quote.ErrNotFound
	}
	return models.Quote{Symbol: symbol, Name: symbol + " Inc.", Price: decimal.RequireFromString(price)}, nil
}

type harness struct {
	t      *testing.T
	router http.Handler
	prices *prices
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Config{CORSOrigins: []string{"*"}, QuoteTimeout: time.Second}
	store := memory.New()
	p := &prices{m: map[string]string{}}
	tokens := auth.NewTokenManager("test-secret", "paper-trader", time.Hour)

	router := NewRouter(cfg, Deps{
		Accounts: accounts.NewService(store, decimal.NewFromInt(10000)).WithHashCost(bcrypt.MinCost),
		Trader:   trading.NewService(store, p),
		Sessions: auth.NewSessionManager(tokens, cache.NewMemory(), time.Hour),
		Logger:   logging.NewWithOutput("error", "json", io.Discard),
	})
	return &harness{t: t, router: router, prices: p}
}

// post submits an urlencoded form; token, when set, goes in a Bearer header.
func (h *harness) post(path string, form url.Values, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.serve(req, token)
}

func (h *harness) postJSON(path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return h.serve(req, token)
}

func (h *harness) get(path, token string) *httptest.ResponseRecorder {
	return h.serve(httptest.NewRequest(http.MethodGet, path, nil), token)
}

func (h *harness) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) register(username string) string {
	h.t.Helper()
	rec := h.post("/register", url.Values{
		"username":     {username},
		"password":     {"secret"},
		"confirmation": {"secret"},
	}, "")
	require.Equal(h.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	var resp dto.SessionResponse
	decodeData(h.t, rec, &resp)
	require.NotEmpty(h.t, resp.Token)
	return resp.Token
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) string {
	t.Helper()
	var env struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if dest != nil {
		require.NoError(t, json.Unmarshal(env.Data, dest))
	}
	return env.Message
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/", "/history", "/quote", "/buy", "/sell", "/addfunds"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "text/html")
		rec := h.serve(req, "")
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json")
	assert.Equal(t, http.StatusUnauthorized, h.serve(req, "").Code)

	assert.Equal(t, http.StatusUnauthorized, h.get("/", "bogus").Code)
}

func TestTradingFlow(t *testing.T) {
	h := newHarness(t)
	token := h.register("alice")
	h.prices.set("AAPL", "100")

	rec := h.post("/quote", url.Values{"symbol": {"aapl"}}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var q dto.QuoteResponse
	decodeData(t, rec, &q)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "$100.00", q.PriceFormatted)

	rec = h.post("/buy", url.Values{"symbol": {"AAPL"}, "shares": {"10"}}, token)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))

	h.prices.set("AAPL", "120")
	rec = h.postJSON("/sell", `{"symbol":"AAPL","shares":5}`, token)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	rec = h.get("/", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var p dto.PortfolioResponse
	decodeData(t, rec, &p)
	require.Len(t, p.Holdings, 1)
	assert.Equal(t, int64(5), p.Holdings[0].Shares)
	assert.Equal(t, "9600", p.Cash.String())
	assert.Equal(t, "$9,600.00", p.CashFormatted)
	assert.Equal(t, "$10,200.00", p.TotalFormatted)

	rec = h.post("/addfunds", url.Values{"quantity": {"100.50"}}, token)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	var funds dto.FundsResponse
	decodeData(t, rec, &funds)
	assert.Equal(t, "9700.5", funds.Cash.String())

	rec = h.get("/history", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []dto.HistoryRow
	decodeData(t, rec, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(10), rows[0].Shares)
	assert.Equal(t, int64(-5), rows[1].Shares)
	assert.Equal(t, "$120.00", rows[1].PriceFormatted)
	assert.Equal(t, "-$1,000.00", rows[0].AmountFormatted)
	assert.Equal(t, "$600.00", rows[1].AmountFormatted)

	rec = h.post("/addfunds", url.Values{"amount": {"1e30"}}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = h.get("/sell", token)
	var sellForm dto.SellFormFor
	decodeData(t, rec, &sellForm)
	assert.Equal(t, []string{"AAPL"}, sellForm.Symbols)
}

func TestTradingErrors(t *testing.T) {
	h := newHarness(t)
	token := h.register("bob")
	h.prices.set("AAPL", "100")
	h.prices.set("BRK", "600000")

	cases := []struct {
		name   string
		path   string
		form   url.Values
		status int
	}{
		{"insufficient funds", "/buy", url.Values{"symbol": {"BRK"}, "shares": {"1"}}, http.StatusBadRequest},
		{"no position", "/sell", url.Values{"symbol": {"AAPL"}, "shares": {"1"}}, http.StatusBadRequest},
		{"unknown symbol", "/buy", url.Values{"symbol": {"NOPE"}, "shares": {"1"}}, http.StatusNotFound},
		{"fractional shares", "/buy", url.Values{"symbol": {"AAPL"}, "shares": {"1.5"}}, http.StatusBadRequest},
		{"missing shares", "/buy", url.Values{"symbol": {"AAPL"}}, http.StatusBadRequest},
		{"missing symbol", "/quote", url.Values{}, http.StatusBadRequest},
		{"negative funds", "/addfunds", url.Values{"amount": {"-1"}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.post(tc.path, tc.form, token)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeData(t, rec, nil))
		})
	}

	require.Equal(t, http.StatusSeeOther, h.post("/buy", url.Values{"symbol": {"AAPL"}, "shares": {"2"}}, token).Code)
	rec := h.post("/sell", url.Values{"symbol": {"AAPL"}, "shares": {"3"}}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var p dto.PortfolioResponse
	decodeData(t, h.get("/", token), &p)
	assert.Equal(t, "9800", p.Cash.String())
}

func TestAuthErrors(t *testing.T) {
	h := newHarness(t)
	h.register("carol")

	rec := h.post("/register", url.Values{"username": {"carol"}, "password": {"x"}, "confirmation": {"x"}}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.post("/register", url.Values{"username": {"dave"}, "password": {"x"}, "confirmation": {"y"}}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.post("/login", url.Values{"username": {"carol"}, "password": {"wrong"}}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.postJSON("/login", `{"username":"carol","password":"secret"}`, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = h.postJSON("/login", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t)
	token := h.register("erin")
	require.Equal(t, http.StatusOK, h.get("/", token).Code)

	rec := h.get("/logout", token)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusUnauthorized, h.get("/", token).Code)
}

func TestLoginReplacesCookieSession(t *testing.T) {
	h := newHarness(t)
	old := h.register("frank")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{
		"username": {"frank"},
		"password": {"secret"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: old})
	rec := h.serve(req, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var fresh string
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			fresh = c.Value
		}
	}
	require.NotEmpty(t, fresh)
	assert.NotEqual(t, old, fresh)
	assert.Equal(t, http.StatusUnauthorized, h.get("/", old).Code)
	assert.Equal(t, http.StatusOK, h.get("/", fresh).Code)
}

func TestFormsAndHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.get("/register", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var form dto.Form
	decodeData(t, rec, &form)
	assert.Equal(t, "/register", form.Action)
	assert.Len(t, form.Fields, 3)

	rec = h.get("/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-cache")
	assert.NotEmpty(t, rec.Header().Get("Expires"))

	assert.Equal(t, http.StatusNotFound, h.get("/nowhere", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, h.serve(httptest.NewRequest(http.MethodDelete, "/health", nil), "").Code)
}
