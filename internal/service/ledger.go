package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/provider"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/repository"
)

type TransitionOutcome string

const (
	OutcomeTransitioned     TransitionOutcome = "transitioned"
	OutcomeAlreadyProcessed TransitionOutcome = "already_processed"
	OutcomeRejected         TransitionOutcome = "rejected"
	OutcomeIgnored          TransitionOutcome = "ignored"
	OutcomeNotFound         TransitionOutcome = "not_found"
)

// TransitionResult reports how a normalized event landed in the ledger.
// Payment is set for OutcomeTransitioned, reflecting the post-transition row.
type TransitionResult struct {
	Outcome TransitionOutcome
	Payment *model.Payment
}

// LedgerStore is the slice of the repository the ledger needs. Implemented by
// *repository.Repository.
type LedgerStore interface {
	GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	GetPaymentByProviderTxnID(ctx context.Context, txnID string) (*model.Payment, error)
	MarkPaymentPaid(ctx context.Context, id uuid.UUID, providerTxnID *string) (bool, error)
	RefundTariffPayment(ctx context.Context, id uuid.UUID) (bool, error)
	RefundTopUpPayment(ctx context.Context, payment *model.Payment, amountUSD decimal.Decimal) (bool, error)
}

// Converter turns provider amounts into USD.
type Converter interface {
	ToUSD(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, error)
}

// Ledger owns payment state. Every transition is a guarded single-row update
// so duplicate deliveries racing each other resolve to exactly one winner.
type Ledger struct {
	store LedgerStore
	rates Converter
	log   *zap.Logger
}

func NewLedger(store LedgerStore, rates Converter, log *zap.Logger) *Ledger {
	return &Ledger{store: store, rates: rates, log: log}
}

// Lookup resolves an order reference to a payment: order_id first, then the
// provider-assigned transaction id.
func (l *Ledger) Lookup(ctx context.Context, orderRef, providerTxnID string) (*model.Payment, error) {
	if orderRef != "" {
		p, err := l.store.GetPaymentByOrderID(ctx, orderRef)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, err
		}
	}
	if providerTxnID != "" {
		return l.store.GetPaymentByProviderTxnID(ctx, providerTxnID)
	}
	return nil, repository.ErrPaymentNotFound
}

func (l *Ledger) Transition(ctx context.Context, ev provider.PaymentEvent) (TransitionResult, error) {
	payment, err := l.Lookup(ctx, ev.OrderRef, ev.ProviderTxnID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return TransitionResult{Outcome: OutcomeNotFound}, nil
		}
		return TransitionResult{}, err
	}

	switch ev.Status {
	case provider.StatusPaid:
		return l.transitionPaid(ctx, payment, ev)
	case provider.StatusRefunded:
		return l.transitionRefunded(ctx, payment, ev)
	default:
		return TransitionResult{Outcome: OutcomeIgnored}, nil
	}
}

func (l *Ledger) transitionPaid(ctx context.Context, payment *model.Payment, ev provider.PaymentEvent) (TransitionResult, error) {
	switch payment.Status {
	case model.PaymentStatusPaid:
		return TransitionResult{Outcome: OutcomeAlreadyProcessed}, nil
	case model.PaymentStatusPending:
		var txnID *string
		if ev.ProviderTxnID != "" {
			txnID = &ev.ProviderTxnID
		}
		won, err := l.store.MarkPaymentPaid(ctx, payment.ID, txnID)
		if err != nil {
			return TransitionResult{}, fmt.Errorf("mark paid: %w", err)
		}
		if !won {
			// A concurrent delivery got there first.
			return TransitionResult{Outcome: OutcomeAlreadyProcessed}, nil
		}
		payment.Status = model.PaymentStatusPaid
		if txnID != nil {
			payment.PaymentSystemID = txnID
		}
		return TransitionResult{Outcome: OutcomeTransitioned, Payment: payment}, nil
	default:
		// No resurrecting refunded or failed payments.
		l.log.Warn("paid event for non-pending payment",
			zap.String("order_id", payment.OrderID),
			zap.String("status", string(payment.Status)),
			zap.String("provider", ev.Provider))
		return TransitionResult{Outcome: OutcomeRejected}, nil
	}
}

func (l *Ledger) transitionRefunded(ctx context.Context, payment *model.Payment, ev provider.PaymentEvent) (TransitionResult, error) {
	if payment.Status != model.PaymentStatusPaid {
		// Duplicate or out-of-order refund notification; must not double-debit.
		return TransitionResult{Outcome: OutcomeIgnored}, nil
	}

	if !payment.IsTopUp() {
		refunded, err := l.store.RefundTariffPayment(ctx, payment.ID)
		if err != nil {
			return TransitionResult{}, fmt.Errorf("refund tariff payment: %w", err)
		}
		if !refunded {
			return TransitionResult{Outcome: OutcomeIgnored}, nil
		}
		payment.Status = model.PaymentStatusRefunded
		return TransitionResult{Outcome: OutcomeTransitioned, Payment: payment}, nil
	}

	amount, currency := ev.Amount, ev.Currency
	if amount.IsZero() {
		amount, currency = payment.Amount, payment.Currency
	}
	if currency == "" {
		currency = payment.Currency
	}
	amountUSD, err := l.rates.ToUSD(ctx, amount, currency)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("convert refund amount: %w", err)
	}

	refunded, err := l.store.RefundTopUpPayment(ctx, payment, amountUSD)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("refund top-up payment: %w", err)
	}
	if !refunded {
		return TransitionResult{Outcome: OutcomeIgnored}, nil
	}
	payment.Status = model.PaymentStatusRefunded
	return TransitionResult{Outcome: OutcomeTransitioned, Payment: payment}, nil
}
