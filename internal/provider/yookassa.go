package provider

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type yooKassaAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type yooKassaPayload struct {
	Event  string `json:"event"`
	Object *struct {
		ID        string            `json:"id"`
		Status    string            `json:"status"`
		PaymentID string            `json:"payment_id"` // set on refund objects
		Amount    yooKassaAmount    `json:"amount"`
		Metadata  map[string]string `json:"metadata"`
	} `json:"object"`
}

// ParseYooKassa normalizes a YooKassa notification. Refunds
// (refund.succeeded) reference the original payment by its YooKassa payment
// id, so OrderRef stays empty and the ledger falls back to the stored
// payment_system_id.
func ParseYooKassa(body []byte) (PaymentEvent, error) {
	var p yooKassaPayload
	if err := json.Unmarshal(body, &p); err != nil || p.Object == nil {
		return PaymentEvent{}, ErrMalformed
	}

	ev := PaymentEvent{Provider: "yookassa", Currency: p.Object.Amount.Currency}
	if amount, err := decimal.NewFromString(p.Object.Amount.Value); err == nil {
		ev.Amount = amount
	}

	if p.Event == "refund.succeeded" {
		if p.Object.PaymentID == "" {
			return PaymentEvent{}, ErrMalformed
		}
		ev.ProviderTxnID = p.Object.PaymentID
		ev.Status = StatusRefunded
		return ev, nil
	}

	ev.OrderRef = p.Object.Metadata["order_id"]
	ev.ProviderTxnID = p.Object.ID
	if ev.OrderRef == "" && ev.ProviderTxnID == "" {
		return PaymentEvent{}, ErrMalformed
	}

	if strings.ToLower(p.Object.Status) == "succeeded" {
		ev.Status = StatusPaid
	} else {
		ev.Status = StatusIgnored
	}
	return ev, nil
}
