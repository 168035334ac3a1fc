package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/config"
)

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// Platega normalizes Platega webhooks. The webhook-asserted status is not
// trusted on its own: the adapter confirms it against the transaction-status
// API and prefers the verified answer, falling back to the webhook body when
// verification fails or times out.
type Platega struct {
	cfg   config.PlategaConfig
	httpc *http.Client
	log   *zap.Logger
}

func NewPlatega(cfg config.PlategaConfig, log *zap.Logger) *Platega {
	return &Platega{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
		log:   log,
	}
}

type plategaTransaction struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ExternalID string `json:"externalId"`
	InvoiceID  string `json:"invoiceId"`
}

type plategaPayload struct {
	ID             string              `json:"id"`
	Status         string              `json:"status"`
	ExternalID     string              `json:"externalId"`
	InvoiceID      string              `json:"invoiceId"`
	Transaction    *plategaTransaction `json:"transaction"`
	PaymentDetails *struct {
		Amount   json.RawMessage `json:"amount"`
		Currency string          `json:"currency"`
	} `json:"paymentDetails"`
}

func plategaConfirmed(status string) bool {
	switch strings.ToUpper(status) {
	case "CONFIRMED", "PAID", "SUCCESS", "COMPLETED":
		return true
	}
	return false
}

func (a *Platega) Normalize(ctx context.Context, body []byte) (PaymentEvent, error) {
	var p plategaPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return PaymentEvent{}, ErrMalformed
	}

	status := p.Status
	txnID := p.ID
	externalID := p.ExternalID
	invoiceID := p.InvoiceID
	if p.Transaction != nil {
		if status == "" {
			status = p.Transaction.Status
		}
		if txnID == "" {
			txnID = p.Transaction.ID
		}
		if externalID == "" {
			externalID = p.Transaction.ExternalID
		}
		if invoiceID == "" {
			invoiceID = p.Transaction.InvoiceID
		}
	}

	if !plategaConfirmed(status) {
		return PaymentEvent{Provider: "platega", Status: StatusIgnored}, nil
	}

	// Confirm the asserted status against the transaction API before
	// trusting it. The webhook is unauthenticated.
	if txnID != "" {
		verified, err := a.verifyStatus(ctx, txnID)
		if err != nil {
			a.log.Warn("platega status verification failed, trusting webhook",
				zap.String("transaction_id", txnID), zap.Error(err))
		} else if !plategaConfirmed(verified) {
			a.log.Info("platega verified status not confirmed",
				zap.String("transaction_id", txnID), zap.String("status", verified))
			return PaymentEvent{Provider: "platega", Status: StatusIgnored}, nil
		}
	}

	orderRef := externalID
	if orderRef == "" {
		orderRef = invoiceID
	}

	ev := PaymentEvent{
		Provider:      "platega",
		OrderRef:      orderRef,
		ProviderTxnID: txnID,
		Status:        StatusPaid,
	}
	if p.PaymentDetails != nil {
		ev.Amount = parseAmount(p.PaymentDetails.Amount)
		ev.Currency = p.PaymentDetails.Currency
	}
	if ev.OrderRef == "" && ev.ProviderTxnID == "" {
		return PaymentEvent{}, ErrMalformed
	}
	return ev, nil
}

func (a *Platega) verifyStatus(ctx context.Context, txnID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.APIURL+"/transaction/"+txnID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-MerchantId", a.merchantID())
	req.Header.Set("X-Secret", a.cfg.Secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transaction status request returned %d", resp.StatusCode)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Status, nil
}

// merchantID strips the live_ prefix merchants paste from the dashboard and
// extracts the bare UUID.
func (a *Platega) merchantID() string {
	id := strings.TrimSpace(a.cfg.MerchantID)
	id = strings.TrimPrefix(id, "live_")
	if match := uuidPattern.FindString(id); match != "" {
		return match
	}
	return id
}
