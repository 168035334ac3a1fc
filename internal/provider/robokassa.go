package provider

import (
	"net/url"

	"github.com/shopspring/decimal"
)

// ParseRobokassa normalizes a form-encoded Robokassa result callback.
func ParseRobokassa(values url.Values) (PaymentEvent, error) {
	orderID := values.Get("InvId")
	if orderID == "" {
		orderID = values.Get("inv_id")
	}
	if orderID == "" {
		return PaymentEvent{}, ErrMalformed
	}

	ev := PaymentEvent{
		Provider: "robokassa",
		OrderRef: orderID,
		Status:   StatusPaid,
	}
	if amount, err := decimal.NewFromString(values.Get("OutSum")); err == nil {
		ev.Amount = amount
	}
	return ev, nil
}
