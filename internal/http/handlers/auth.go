package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/paper-trader/internal/auth"
	"github.com/hongminglow/paper-trader/internal/errs"
	"github.com/hongminglow/paper-trader/internal/http/respond"
	"github.com/hongminglow/paper-trader/internal/logging"
	"github.com/hongminglow/paper-trader/internal/models"
	"github.com/hongminglow/paper-trader/internal/models/dto"
)

// Accounts is the credential side of the app.
type Accounts interface {
	Register(ctx context.Context, username, password, confirmation string) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
}

// AuthHandler owns the register, login and logout endpoints.
type AuthHandler struct {
	accounts Accounts
	sessions *auth.SessionManager
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts Accounts, sessions *auth.SessionManager) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions}
}

// Register attaches auth routes to r.
func (h *AuthHandler) Register(r chi.Router) {
	r.Get("/register", h.form(dto.RegisterForm))
	r.Post("/register", h.handleRegister)
	r.Get("/login", h.form(dto.LoginForm))
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
}

func (h *AuthHandler) form(f dto.Form) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, "form", f)
	}
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	user, err := h.accounts.Register(r.Context(), req.Username, req.Password, req.Confirmation)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.startSession(w, r, user, "registered")
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)

	var req dto.LoginRequest
	if err := decode(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	user, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	h.startSession(w, r, user, "logged in")
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	respond.SeeOther(w, "/", "logged out", nil)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user models.User, message string) {
	token, _, err := h.sessions.Start(r.Context(), user)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	auth.SetCookie(w, r, token, h.sessions.TTL())
	respond.SeeOther(w, "/", message, dto.SessionResponse{
		Token:     token,
		ExpiresIn: int64(h.sessions.TTL().Seconds()),
		User:      user,
	})
}

// endSession revokes whatever session the request carries and clears the
// cookie.
func (h *AuthHandler) endSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), auth.TokenFromRequest(r)); err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("failed to revoke session")
	}
	auth.ClearCookie(w)
}

// identity returns the caller set by the session middleware.
func identity(r *http.Request) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return auth.Identity{}, errs.Unauthenticated("login required")
	}
	return id, nil
}
