package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/paper-trader/internal/auth"
	"github.com/hongminglow/paper-trader/internal/config"
	"github.com/hongminglow/paper-trader/internal/http/handlers"
	"github.com/hongminglow/paper-trader/internal/http/respond"
	"github.com/hongminglow/paper-trader/internal/middleware"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Accounts handlers.Accounts
	Trader   handlers.Trader
	Sessions *auth.SessionManager
	Logger   *logrus.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.QuoteTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// NewRouter builds the chi router. Tests drive it through httptest.
func NewRouter(cfg config.Config, deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Recover)
	r.Use(chimw.NoCache)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	handlers.NewHealthHandler(time.Now()).Register(r)
	handlers.NewAuthHandler(deps.Accounts, deps.Sessions).Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(deps.Sessions, handlers.WriteError))
		handlers.NewTradeHandler(deps.Trader).Register(r)
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
