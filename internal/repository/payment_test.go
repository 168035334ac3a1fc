package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDebitFloored(t *testing.T) {
	tests := []struct {
		name   string
		before string
		debit  string
		want   string
	}{
		{"partial refund leaves remainder", "15", "10", "5"},
		{"refund exceeding balance floors at zero", "5", "10", "0"},
		{"exact refund empties balance", "10", "10", "0"},
		{"zero debit keeps balance", "7.25", "0", "7.25"},
		{"fractional amounts", "10.50", "3.75", "6.75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := debitFloored(decimal.RequireFromString(tt.before), decimal.RequireFromString(tt.debit))
			require.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"debitFloored(%s, %s) = %s", tt.before, tt.debit, got)
		})
	}
}
