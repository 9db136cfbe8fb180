package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUSD(t *testing.T) {
	cases := map[string]string{
		"0":                     "$0.00",
		"0.5":                   "$0.50",
		"999.999":               "$1,000.00",
		"1234.5":                "$1,234.50",
		"-1234.5":               "-$1,234.50",
		"-0.001":                "$0.00",
		"92233720368547758.08":  "$92,233,720,368,547,758.08",
		"99999999999999999999":  "$99,999,999,999,999,999,999.00",
		"-92233720368547758.09": "-$92,233,720,368,547,758.09",
	}
	for in, want := range cases {
		assert.Equal(t, want, USD(decimal.RequireFromString(in)), in)
	}
}
