package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"0", "EUR", "EUR 0.00"},
		{"412.3", "eur", "EUR 412.30"},
		{"1210.40", "EUR", "EUR 1,210.40"},
		{"1234567.891", "USD", "USD 1,234,567.89"},
		{"999.995", "GBP", "GBP 1,000.00"},
		{"-1500", "EUR", "-EUR 1,500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(decimal.RequireFromString(tt.amount), tt.code))
		})
	}
}

func TestAddThousandsSeparator(t *testing.T) {
	assert.Equal(t, "100", addThousandsSeparator("100", ","))
	assert.Equal(t, "1,000", addThousandsSeparator("1000", ","))
	assert.Equal(t, "100,000,000", addThousandsSeparator("100000000", ","))
}
