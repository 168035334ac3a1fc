package provider

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PreCheckoutQuery is the pre-payment confirmation Telegram expects answered
// within ten seconds.
type PreCheckoutQuery struct {
	ID             string `json:"id"`
	InvoicePayload string `json:"invoice_payload"`
}

// TelegramUpdate is one bot-API update delivered to the Stars webhook. At
// most one of PreCheckout/Event is set; both nil means an update kind this
// service does not care about.
type TelegramUpdate struct {
	PreCheckout *PreCheckoutQuery
	Event       *PaymentEvent
}

type telegramPayload struct {
	PreCheckoutQuery *PreCheckoutQuery `json:"pre_checkout_query"`
	Message          *struct {
		SuccessfulPayment *struct {
			InvoicePayload          string `json:"invoice_payload"`
			TelegramPaymentChargeID string `json:"telegram_payment_charge_id"`
			TotalAmount             int64  `json:"total_amount"`
			Currency                string `json:"currency"`
		} `json:"successful_payment"`
	} `json:"message"`
}

// ParseTelegram interprets a Telegram Stars update. The invoice payload
// carries our order id.
func ParseTelegram(body []byte) (TelegramUpdate, error) {
	var p telegramPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return TelegramUpdate{}, ErrMalformed
	}

	if p.PreCheckoutQuery != nil {
		return TelegramUpdate{PreCheckout: p.PreCheckoutQuery}, nil
	}

	if p.Message != nil && p.Message.SuccessfulPayment != nil {
		sp := p.Message.SuccessfulPayment
		if sp.InvoicePayload == "" {
			return TelegramUpdate{}, ErrMalformed
		}
		ev := PaymentEvent{
			Provider:      "telegram",
			OrderRef:      sp.InvoicePayload,
			ProviderTxnID: sp.TelegramPaymentChargeID,
			Status:        StatusPaid,
			Amount:        decimal.NewFromInt(sp.TotalAmount),
			Currency:      sp.Currency,
		}
		return TelegramUpdate{Event: &ev}, nil
	}

	return TelegramUpdate{}, nil
}
