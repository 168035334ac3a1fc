package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestToUSD_FixedCurrencies(t *testing.T) {
	s := NewRatesService()
	ctx := context.Background()

	tests := []struct {
		currency string
		amount   string
		want     string
	}{
		{"USD", "10", "10"},
		{"usdt", "10.50", "10.50"},
		{"", "7", "7"},
		{"XTR", "100", "1.3"},
	}
	for _, tt := range tests {
		got, err := s.ToUSD(ctx, decimal.RequireFromString(tt.amount), tt.currency)
		require.NoError(t, err)
		require.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s %s -> %s", tt.amount, tt.currency, got)
	}
}

func TestToUSD_UsesCachedRates(t *testing.T) {
	s := NewRatesService()
	s.cache = &ExchangeRates{
		USDRUB: decimal.NewFromInt(100),
		USDUAH: decimal.NewFromInt(40),
	}
	s.cacheTime = time.Now()

	got, err := s.ToUSD(context.Background(), decimal.NewFromInt(500), "RUB")
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(5).Equal(got))

	got, err = s.ToUSD(context.Background(), decimal.NewFromInt(80), "uah")
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(2).Equal(got))
}

func TestToUSD_UnsupportedCurrency(t *testing.T) {
	s := NewRatesService()
	_, err := s.ToUSD(context.Background(), decimal.NewFromInt(1), "BTC")
	require.Error(t, err)
}
