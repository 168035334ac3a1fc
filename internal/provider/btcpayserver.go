package provider

import (
	"encoding/json"
)

type btcPayPayload struct {
	Type string `json:"type"`
	Data struct {
		ID        string `json:"id"`
		InvoiceID string `json:"invoiceId"`
	} `json:"data"`
}

// ParseBTCPayServer normalizes a BTCPayServer event. Only settlement events
// matter; the many lifecycle events (InvoiceCreated, InvoiceExpired, ...) are
// ignored before any state is touched.
func ParseBTCPayServer(body []byte) (PaymentEvent, error) {
	var p btcPayPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return PaymentEvent{}, ErrMalformed
	}

	if p.Type != "InvoiceSettled" && p.Type != "InvoiceReceivedPayment" {
		return PaymentEvent{Provider: "btcpayserver", Status: StatusIgnored}, nil
	}

	invoiceID := p.Data.ID
	if invoiceID == "" {
		invoiceID = p.Data.InvoiceID
	}
	if invoiceID == "" {
		return PaymentEvent{Provider: "btcpayserver", Status: StatusIgnored}, nil
	}

	return PaymentEvent{
		Provider: "btcpayserver",
		OrderRef: invoiceID,
		Status:   StatusPaid,
	}, nil
}
