package dto

import (
	"net/url"

	"github.com/hongminglow/paper-trader/internal/models"
)

type RegisterRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

func (r *RegisterRequest) BindForm(form url.Values) {
	r.Username = form.Get("username")
	r.Password = form.Get("password")
	r.Confirmation = form.Get("confirmation")
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) BindForm(form url.Values) {
	r.Username = form.Get("username")
	r.Password = form.Get("password")
}

// SessionResponse is returned by register and login. Token is the same value
// set in the session cookie.
type SessionResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      models.User `json:"user"`
}
