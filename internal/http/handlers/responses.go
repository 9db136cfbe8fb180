package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/hongminglow/paper-trader/internal/errs"
	"github.com/hongminglow/paper-trader/internal/http/respond"
	"github.com/hongminglow/paper-trader/internal/logging"
	"github.com/hongminglow/paper-trader/internal/models/dto"
)

const maxBodyBytes = 1 << 20

// WriteError renders err with the status for its kind. Unclassified errors are
// logged and hidden behind a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusUnauthorized && !wantsJSON(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	msg := errs.Message(err)
	if status == http.StatusInternalServerError || msg == "" {
		logging.FromContext(r.Context()).WithError(err).Error("request failed")
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.Error(w, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrInsufficientFunds),
		errors.Is(err, errs.ErrNoPosition),
		errors.Is(err, errs.ErrOverSell):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrAuth):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON reports whether the client is an API client rather than a browser
// that should follow redirects.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Authorization")), "bearer ") {
		return true
	}
	if isJSON(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// decode binds a JSON body or an urlencoded form into dst.
func decode(w http.ResponseWriter, r *http.Request, dst dto.FormBinder) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return errs.Validation("invalid JSON payload")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return errs.Validation("invalid form payload")
	}
	dst.BindForm(r.PostForm)
	return nil
}
