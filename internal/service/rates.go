package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRates holds USD quotes for the fiat currencies providers bill in.
type ExchangeRates struct {
	USDRUB decimal.Decimal
	USDUAH decimal.Decimal
}

// Telegram Stars have no public market; providers quote them at a fixed USD
// price per star.
var starUSD = decimal.NewFromFloat(0.013)

// RatesService converts provider amounts to USD using cached public rates.
type RatesService struct {
	httpc     *http.Client
	cache     *ExchangeRates
	cacheMu   sync.RWMutex
	cacheTime time.Time
	cacheTTL  time.Duration
}

func NewRatesService() *RatesService {
	return &RatesService{
		httpc:    &http.Client{Timeout: 10 * time.Second},
		cacheTTL: 5 * time.Minute,
	}
}

func (s *RatesService) ToUSD(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	switch strings.ToUpper(currency) {
	case "", "USD", "USDT":
		return amount, nil
	case "XTR":
		return amount.Mul(starUSD), nil
	case "RUB":
		rates, err := s.getRates(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		return amount.DivRound(rates.USDRUB, 4), nil
	case "UAH":
		rates, err := s.getRates(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		return amount.DivRound(rates.USDUAH, 4), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported currency: %s", currency)
	}
}

func (s *RatesService) getRates(ctx context.Context) (*ExchangeRates, error) {
	s.cacheMu.RLock()
	if s.cache != nil && time.Since(s.cacheTime) < s.cacheTTL {
		rates := *s.cache
		s.cacheMu.RUnlock()
		return &rates, nil
	}
	s.cacheMu.RUnlock()

	rates, err := s.fetchRates(ctx)
	if err != nil {
		// Return stale rates if available.
		s.cacheMu.RLock()
		defer s.cacheMu.RUnlock()
		if s.cache != nil {
			cached := *s.cache
			return &cached, nil
		}
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache = rates
	s.cacheTime = time.Now()
	s.cacheMu.Unlock()

	return rates, nil
}

func (s *RatesService) fetchRates(ctx context.Context) (*ExchangeRates, error) {
	rates := &ExchangeRates{}

	usdRUB, err := s.fetchSymbol(ctx, "RUB")
	if err != nil {
		usdRUB, err = s.fetchRUBFallback(ctx)
		if err != nil {
			usdRUB = decimal.NewFromInt(95)
		}
	}
	rates.USDRUB = usdRUB

	usdUAH, err := s.fetchSymbol(ctx, "UAH")
	if err != nil {
		usdUAH = decimal.NewFromInt(41)
	}
	rates.USDUAH = usdUAH

	return rates, nil
}

func (s *RatesService) fetchSymbol(ctx context.Context, symbol string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.exchangerate.host/latest?base=USD&symbols="+symbol, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, err
	}

	rate, ok := result.Rates[symbol]
	if !ok || rate == 0 {
		return decimal.Zero, fmt.Errorf("invalid %s rate", symbol)
	}
	return decimal.NewFromFloat(rate), nil
}

func (s *RatesService) fetchRUBFallback(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.cbr-xml-daily.ru/daily_json.js", nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	var result struct {
		Valute struct {
			USD struct {
				Value float64 `json:"Value"`
			} `json:"USD"`
		} `json:"Valute"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, err
	}

	if result.Valute.USD.Value == 0 {
		return decimal.Zero, fmt.Errorf("invalid RUB rate")
	}
	return decimal.NewFromFloat(result.Valute.USD.Value), nil
}
