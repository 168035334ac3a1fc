// Package provider normalizes payment-gateway webhook payloads into a single
// event shape. Adapters only translate vocabulary; they never touch storage.
package provider

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPaid     Status = "PAID"
	StatusRefunded Status = "REFUNDED"
	StatusIgnored  Status = "IGNORED"
)

// ErrMalformed marks payloads that cannot be interpreted at all. Handlers
// still acknowledge the provider; the error is for operator visibility only.
var ErrMalformed = errors.New("malformed webhook payload")

// PaymentEvent is the normalized form of one webhook delivery.
//
// OrderRef correlates to payments.order_id; ProviderTxnID to
// payments.payment_system_id. Either may be empty depending on what the
// provider echoes back. Amount/Currency are zero when the provider does not
// restate them; the ledger then falls back to the stored payment.
type PaymentEvent struct {
	Provider      string
	OrderRef      string
	ProviderTxnID string
	Status        Status
	Amount        decimal.Decimal
	Currency      string
}

// paidVocabulary covers the success statuses shared by the generic JSON
// providers (urlpay, mulenpay, tribute).
func paidVocabulary(status string) bool {
	switch strings.ToLower(status) {
	case "paid", "success", "completed":
		return true
	}
	return false
}
