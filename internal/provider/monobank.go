package provider

import (
	"encoding/json"
)

type monobankPayload struct {
	InvoiceID    string `json:"invoiceId"`
	InvoiceIDAlt string `json:"invoice_id"`
}

// ParseMonobank normalizes a Monobank statement callback.
func ParseMonobank(body []byte) (PaymentEvent, error) {
	var p monobankPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return PaymentEvent{}, ErrMalformed
	}

	invoiceID := p.InvoiceID
	if invoiceID == "" {
		invoiceID = p.InvoiceIDAlt
	}
	if invoiceID == "" {
		return PaymentEvent{Provider: "monobank", Status: StatusIgnored}, nil
	}

	return PaymentEvent{
		Provider: "monobank",
		OrderRef: invoiceID,
		Status:   StatusPaid,
	}, nil
}
