package provider

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type heleketPayload struct {
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

// ParseHeleket normalizes a Heleket invoice webhook.
func ParseHeleket(body []byte) (PaymentEvent, error) {
	var p heleketPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return PaymentEvent{}, ErrMalformed
	}
	if p.OrderID == "" || p.Status == "" {
		return PaymentEvent{}, ErrMalformed
	}

	ev := PaymentEvent{
		Provider:      "heleket",
		OrderRef:      p.OrderID,
		ProviderTxnID: p.PaymentID,
		Currency:      p.Currency,
	}
	if amount, err := decimal.NewFromString(p.Amount); err == nil {
		ev.Amount = amount
	}

	switch strings.ToUpper(p.Status) {
	case "PAID", "PAID_OVER":
		ev.Status = StatusPaid
	case "REFUND", "REFUNDED":
		ev.Status = StatusRefunded
	default:
		ev.Status = StatusIgnored
	}
	return ev, nil
}
