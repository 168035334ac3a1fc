package provider

import (
	"net/url"

	"github.com/shopspring/decimal"
)

// ParseFreeKassa normalizes a form-encoded FreeKassa callback. FreeKassa only
// calls on successful payment.
func ParseFreeKassa(values url.Values) (PaymentEvent, error) {
	orderID := values.Get("MERCHANT_ORDER_ID")
	if orderID == "" {
		return PaymentEvent{}, ErrMalformed
	}

	ev := PaymentEvent{
		Provider:      "freekassa",
		OrderRef:      orderID,
		ProviderTxnID: values.Get("intid"),
		Status:        StatusPaid,
	}
	if amount, err := decimal.NewFromString(values.Get("AMOUNT")); err == nil {
		ev.Amount = amount
	}
	return ev, nil
}
