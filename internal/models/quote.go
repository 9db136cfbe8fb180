package models

import "github.com/shopspring/decimal"

// Quote is a symbol's current price and display name from the pricing source.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}
