package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/paper-trader/internal/accounts"
	"github.com/hongminglow/paper-trader/internal/auth"
	"github.com/hongminglow/paper-trader/internal/cache"
	"github.com/hongminglow/paper-trader/internal/storage/postgres"
)

// TestAuthIntegration exercises the register/login/logout endpoints against a
// live Postgres and, when REDIS_URL is set, Redis-backed sessions.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_AUTH_INTEGRATION") != "true" {
		t.Skip("set RUN_AUTH_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := mustGetEnv(t, "DATABASE_URL")

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	var sessions cache.Store = cache.NewMemory()
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		r, err := cache.NewRedis(ctx, redisURL, "paper-trader-test:")
		require.NoError(t, err)
		defer r.Close()
		sessions = r
	}

	tokens := auth.NewTokenManager(mustGetEnv(t, "JWT_SECRET"), "paper-trader", time.Hour)
	manager := auth.NewSessionManager(tokens, sessions, time.Hour)

	r := chi.NewRouter()
	NewAuthHandler(accounts.NewService(store, decimal.NewFromInt(10000)), manager).Register(r)
	ts := httptest.NewServer(r)
	defer ts.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	password := fmt.Sprintf("Pass!%d", time.Now().UnixNano())

	resp := postForm(t, client, ts.URL+"/register", url.Values{
		"username":     {username},
		"password":     {password},
		"confirmation": {password},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = postForm(t, client, ts.URL+"/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	token := sessionCookie(resp)
	require.NotEmpty(t, token)

	id, err := manager.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, username, id.Username)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = manager.Resolve(ctx, token)
	assert.Error(t, err)
}

func postForm(t *testing.T, client *http.Client, endpoint string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(endpoint, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
