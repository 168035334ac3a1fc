package provider

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// urlpay, mulenpay and tribute share one payload dialect: a status string and
// an order id under either snake or camel case.
type genericPayload struct {
	Status     string          `json:"status"`
	OrderID    string          `json:"order_id"`
	OrderIDAlt string          `json:"orderId"`
	PaymentID  string          `json:"payment_id"`
	Amount     json.RawMessage `json:"amount"`
	Currency   string          `json:"currency"`
}

func parseGeneric(name string, body []byte) (PaymentEvent, error) {
	var p genericPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return PaymentEvent{}, ErrMalformed
	}

	orderID := p.OrderID
	if orderID == "" {
		orderID = p.OrderIDAlt
	}
	if !paidVocabulary(p.Status) || orderID == "" {
		return PaymentEvent{Provider: name, Status: StatusIgnored}, nil
	}

	ev := PaymentEvent{
		Provider:      name,
		OrderRef:      orderID,
		ProviderTxnID: p.PaymentID,
		Status:        StatusPaid,
		Currency:      p.Currency,
	}
	ev.Amount = parseAmount(p.Amount)
	return ev, nil
}

// parseAmount accepts both numeric and quoted amounts.
func parseAmount(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if amount, err := decimal.NewFromString(s); err == nil {
			return amount
		}
		return decimal.Zero
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return decimal.NewFromFloat(f)
	}
	return decimal.Zero
}

func ParseURLPay(body []byte) (PaymentEvent, error)   { return parseGeneric("urlpay", body) }
func ParseMulenPay(body []byte) (PaymentEvent, error) { return parseGeneric("mulenpay", body) }
func ParseTribute(body []byte) (PaymentEvent, error)  { return parseGeneric("tribute", body) }
