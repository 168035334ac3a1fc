package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/remnawave"
)

// ErrProvisioning marks a failed or timed-out panel call during tariff
// fulfillment. The payment stays PAID in the ledger; the subscription was not
// extended and needs manual reconciliation.
var ErrProvisioning = errors.New("subscription provisioning failed")

const trafficLimitStrategyNoReset = "NO_RESET"

// FulfillmentStore is the repository slice the fulfillment engine needs.
type FulfillmentStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetTariff(ctx context.Context, id uuid.UUID) (*model.Tariff, error)
	GetReferralSetting(ctx context.Context) (*model.ReferralSetting, error)
	DecrementPromoUses(ctx context.Context, id uuid.UUID) (bool, error)
	CreditBalance(ctx context.Context, userID int64, amount decimal.Decimal, txType model.TransactionType, description string, referenceID *uuid.UUID) (decimal.Decimal, error)
}

// Panel is the subscription-provisioning collaborator.
type Panel interface {
	GetUser(ctx context.Context, uuid string) (*remnawave.PanelUser, error)
	UpdateUser(ctx context.Context, update remnawave.UpdateUserRequest) error
}

// Notifier delivers best-effort payment notices.
type Notifier interface {
	NotifyOperators(payment *model.Payment, user *model.User, tariff *model.Tariff, isTopUp bool)
	NotifyUser(user *model.User, success bool, tariffName string, isTopUp bool, orderID string)
}

// Invalidator drops cached subscription state for a panel user.
type Invalidator interface {
	InvalidateUser(remnawaveUUID string)
}

// Resyncer schedules a background panel-to-bot resync.
type Resyncer interface {
	Enqueue(remnawaveUUID string) bool
}

// Fulfillment applies the effects of a payment's first transition to PAID:
// balance credit or subscription extension, promo consumption, referral
// commission, then the best-effort side effects.
type Fulfillment struct {
	store          FulfillmentStore
	rates          Converter
	panel          Panel
	cache          Invalidator
	notifier       Notifier
	resync         Resyncer
	defaultSquadID string
	log            *zap.Logger
	now            func() time.Time
}

func NewFulfillment(store FulfillmentStore, rates Converter, panel Panel, cache Invalidator, resync Resyncer, defaultSquadID string, log *zap.Logger) *Fulfillment {
	return &Fulfillment{
		store:          store,
		rates:          rates,
		panel:          panel,
		cache:          cache,
		resync:         resync,
		defaultSquadID: defaultSquadID,
		log:            log,
		now:            time.Now,
	}
}

// SetNotifier attaches the notifier once the bot is up (it is optional in
// development).
func (f *Fulfillment) SetNotifier(n Notifier) {
	f.notifier = n
}

// Process handles one payment that just transitioned to PAID. Financial
// effects are applied first; notification and sync failures are logged and
// never unwind them.
func (f *Fulfillment) Process(ctx context.Context, payment *model.Payment) error {
	user, err := f.store.GetUser(ctx, payment.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", payment.UserID, err)
	}

	if payment.IsTopUp() {
		return f.fulfillTopUp(ctx, payment, user)
	}
	return f.fulfillTariff(ctx, payment, user)
}

func (f *Fulfillment) fulfillTopUp(ctx context.Context, payment *model.Payment, user *model.User) error {
	amountUSD, err := f.rates.ToUSD(ctx, payment.Amount, payment.Currency)
	if err != nil {
		return fmt.Errorf("convert top-up amount: %w", err)
	}

	newBalance, err := f.store.CreditBalance(ctx, user.ID, amountUSD, model.TransactionTypeTopUp,
		"Top-up via order "+payment.OrderID, &payment.ID)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}

	f.log.Info("balance topped up",
		zap.Int64("user_id", user.ID),
		zap.String("order_id", payment.OrderID),
		zap.String("amount_usd", amountUSD.String()),
		zap.String("new_balance", newBalance.String()))

	f.applyReferralCommission(ctx, user, amountUSD)
	f.cache.InvalidateUser(user.RemnawaveUUID)
	if f.notifier != nil {
		f.notifier.NotifyOperators(payment, user, nil, true)
		f.notifier.NotifyUser(user, true, "", true, payment.OrderID)
	}
	return nil
}

func (f *Fulfillment) fulfillTariff(ctx context.Context, payment *model.Payment, user *model.User) error {
	tariff, err := f.store.GetTariff(ctx, *payment.TariffID)
	if err != nil {
		return fmt.Errorf("load tariff %s: %w", payment.TariffID, err)
	}

	panelUser, err := f.panel.GetUser(ctx, user.RemnawaveUUID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	update := remnawave.UpdateUserRequest{
		UUID:                 user.RemnawaveUUID,
		ExpireAt:             ComputeExpiry(f.now(), panelUser.ExpireAt, tariff.DurationDays),
		ActiveInternalSquads: tariff.ResolveSquads(f.defaultSquadID),
	}
	if tariff.TrafficLimitBytes != nil && *tariff.TrafficLimitBytes > 0 {
		update.TrafficLimitBytes = tariff.TrafficLimitBytes
		update.TrafficLimitStrategy = trafficLimitStrategyNoReset
	}

	if err := f.panel.UpdateUser(ctx, update); err != nil {
		return fmt.Errorf("%w: %v", ErrProvisioning, err)
	}

	f.log.Info("subscription extended",
		zap.Int64("user_id", user.ID),
		zap.String("order_id", payment.OrderID),
		zap.String("tariff", tariff.Name),
		zap.Time("expire_at", update.ExpireAt))

	if payment.PromoCodeID != nil {
		consumed, err := f.store.DecrementPromoUses(ctx, *payment.PromoCodeID)
		if err != nil {
			f.log.Error("promo code decrement failed",
				zap.String("promo_code_id", payment.PromoCodeID.String()), zap.Error(err))
		} else if !consumed {
			f.log.Warn("promo code had no uses left",
				zap.String("promo_code_id", payment.PromoCodeID.String()))
		}
	}

	amountUSD, err := f.rates.ToUSD(ctx, payment.Amount, payment.Currency)
	if err != nil {
		f.log.Error("amount conversion failed, skipping referral commission",
			zap.String("order_id", payment.OrderID), zap.Error(err))
	} else {
		f.applyReferralCommission(ctx, user, amountUSD)
	}

	f.cache.InvalidateUser(user.RemnawaveUUID)
	if f.notifier != nil {
		f.notifier.NotifyOperators(payment, user, tariff, false)
		f.notifier.NotifyUser(user, true, tariff.Name, false, payment.OrderID)
	}
	if f.resync != nil && !f.resync.Enqueue(user.RemnawaveUUID) {
		f.log.Warn("panel resync not scheduled", zap.String("remnawave_uuid", user.RemnawaveUUID))
	}
	return nil
}

// applyReferralCommission credits the referrer a percentage of this
// transaction's USD amount. Best effort: failures are logged, never returned.
func (f *Fulfillment) applyReferralCommission(ctx context.Context, user *model.User, amountUSD decimal.Decimal) {
	setting, err := f.store.GetReferralSetting(ctx)
	if err != nil {
		f.log.Warn("referral settings unavailable", zap.Error(err))
		return
	}
	if setting.ReferralType != model.ReferralTypePercent || user.ReferrerID == nil {
		return
	}

	referrer, err := f.store.GetUser(ctx, *user.ReferrerID)
	if err != nil {
		f.log.Warn("referrer lookup failed", zap.Int64("referrer_id", *user.ReferrerID), zap.Error(err))
		return
	}

	percent := setting.DefaultReferralPercent
	if referrer.ReferralPercent != nil {
		percent = *referrer.ReferralPercent
	}

	commission := amountUSD.Mul(percent).Div(decimal.NewFromInt(100))
	if !commission.IsPositive() {
		return
	}

	description := fmt.Sprintf("Referral commission (%s%%) for user %d", percent.String(), user.ID)
	if _, err := f.store.CreditBalance(ctx, referrer.ID, commission, model.TransactionTypeReferralBonus, description, nil); err != nil {
		f.log.Error("referral commission credit failed",
			zap.Int64("referrer_id", referrer.ID), zap.Error(err))
		return
	}

	f.log.Info("referral commission credited",
		zap.Int64("referrer_id", referrer.ID),
		zap.Int64("user_id", user.ID),
		zap.String("commission_usd", commission.String()))
}

// FinalizeRefund runs the non-financial cleanup after a refund transition.
// The balance debit already happened inside the ledger transaction.
func (f *Fulfillment) FinalizeRefund(ctx context.Context, payment *model.Payment) {
	user, err := f.store.GetUser(ctx, payment.UserID)
	if err != nil {
		f.log.Warn("refund cleanup: user lookup failed",
			zap.Int64("user_id", payment.UserID), zap.Error(err))
		return
	}
	f.cache.InvalidateUser(user.RemnawaveUUID)
	f.log.Info("payment refunded",
		zap.String("order_id", payment.OrderID),
		zap.Int64("user_id", user.ID),
		zap.Bool("top_up", payment.IsTopUp()))
}

// ComputeExpiry extends from the later of now and the current expiry, so an
// active subscription keeps its remaining time and an expired one restarts
// from now.
func ComputeExpiry(now time.Time, currentExpiry *time.Time, durationDays int) time.Time {
	base := now
	if currentExpiry != nil && currentExpiry.After(now) {
		base = *currentExpiry
	}
	return base.AddDate(0, 0, durationDays)
}
