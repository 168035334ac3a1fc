package provider

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type crystalPayPayload struct {
	State    string `json:"state"`
	Extra    string `json:"extra"` // carries our order id
	ID       string `json:"id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// ParseCrystalPay normalizes a CrystalPay invoice callback. Anything but a
// payed state is ignored.
func ParseCrystalPay(body []byte) (PaymentEvent, error) {
	var p crystalPayPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return PaymentEvent{}, ErrMalformed
	}

	if p.State != "payed" {
		return PaymentEvent{Provider: "crystalpay", Status: StatusIgnored}, nil
	}
	if p.Extra == "" {
		return PaymentEvent{}, ErrMalformed
	}

	ev := PaymentEvent{
		Provider:      "crystalpay",
		OrderRef:      p.Extra,
		ProviderTxnID: p.ID,
		Status:        StatusPaid,
		Currency:      p.Currency,
	}
	if amount, err := decimal.NewFromString(p.Amount); err == nil {
		ev.Amount = amount
	}
	return ev, nil
}
