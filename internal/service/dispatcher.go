package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/provider"
)

// Result is what a webhook handler turns into a provider-specific ack. Err is
// informational for most providers: the ack policy is decided per provider
// contract, not by the error.
type Result struct {
	Outcome TransitionOutcome
	Err     error
}

// Dispatcher routes normalized events through the ledger and hands first-time
// PAID transitions to fulfillment.
type Dispatcher struct {
	ledger      *Ledger
	fulfillment *Fulfillment
	log         *zap.Logger
}

func NewDispatcher(ledger *Ledger, fulfillment *Fulfillment, log *zap.Logger) *Dispatcher {
	return &Dispatcher{ledger: ledger, fulfillment: fulfillment, log: log}
}

// Lookup exposes ledger resolution for handlers that need payment state
// before dispatching (Telegram pre-checkout).
func (d *Dispatcher) Lookup(ctx context.Context, orderRef, providerTxnID string) (*model.Payment, error) {
	return d.ledger.Lookup(ctx, orderRef, providerTxnID)
}

func (d *Dispatcher) Process(ctx context.Context, ev provider.PaymentEvent) Result {
	if ev.Status == provider.StatusIgnored {
		return Result{Outcome: OutcomeIgnored}
	}

	res, err := d.ledger.Transition(ctx, ev)
	if err != nil {
		d.log.Error("ledger transition failed",
			zap.String("provider", ev.Provider),
			zap.String("order_ref", ev.OrderRef),
			zap.Error(err))
		return Result{Outcome: res.Outcome, Err: err}
	}

	switch res.Outcome {
	case OutcomeNotFound:
		d.log.Warn("payment not found for webhook",
			zap.String("provider", ev.Provider),
			zap.String("order_ref", ev.OrderRef),
			zap.String("provider_txn_id", ev.ProviderTxnID))
	case OutcomeAlreadyProcessed:
		d.log.Info("duplicate webhook delivery",
			zap.String("provider", ev.Provider),
			zap.String("order_ref", ev.OrderRef))
	case OutcomeRejected:
		d.log.Warn("invalid transition rejected",
			zap.String("provider", ev.Provider),
			zap.String("order_ref", ev.OrderRef))
	}

	if res.Outcome != OutcomeTransitioned {
		return Result{Outcome: res.Outcome}
	}

	switch res.Payment.Status {
	case model.PaymentStatusPaid:
		if err := d.fulfillment.Process(ctx, res.Payment); err != nil {
			d.log.Error("fulfillment failed",
				zap.String("provider", ev.Provider),
				zap.String("order_id", res.Payment.OrderID),
				zap.Error(err))
			return Result{Outcome: OutcomeTransitioned, Err: err}
		}
	case model.PaymentStatusRefunded:
		d.fulfillment.FinalizeRefund(ctx, res.Payment)
	}

	return Result{Outcome: OutcomeTransitioned}
}
