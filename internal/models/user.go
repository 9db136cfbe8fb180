package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Cash         decimal.Decimal `json:"cash"`
	CreatedAt    time.Time       `json:"created_at"`
}
