package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
)

var ErrPaymentNotFound = errors.New("payment not found")

func (r *Repository) GetPaymentByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.GetContext(ctx, &payment, "SELECT * FROM payments WHERE order_id = $1", orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) GetPaymentByProviderTxnID(ctx context.Context, txnID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.GetContext(ctx, &payment, "SELECT * FROM payments WHERE payment_system_id = $1", txnID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) CreatePayment(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (order_id, payment_system_id, user_id, tariff_id, amount, currency, status, promo_code_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		payment.OrderID,
		payment.PaymentSystemID,
		payment.UserID,
		payment.TariffID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.PromoCodeID,
	).Scan(&payment.ID, &payment.CreatedAt)
}

// MarkPaymentPaid flips PENDING to PAID in a single guarded update so two
// concurrent webhook deliveries cannot both win. Returns false when the row
// was not in PENDING.
func (r *Repository) MarkPaymentPaid(ctx context.Context, id uuid.UUID, providerTxnID *string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'PAID', payment_system_id = COALESCE($2, payment_system_id)
		WHERE id = $1 AND status = 'PENDING'`,
		id, providerTxnID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RefundTariffPayment marks a tariff purchase REFUNDED. Only valid from PAID;
// subscription rollback on the panel is not performed.
func (r *Repository) RefundTariffPayment(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status = 'REFUNDED' WHERE id = $1 AND status = 'PAID'", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// debitFloored subtracts a refund debit from a balance. Balances never go
// negative: the user may have already spent part of the topped-up amount.
func debitFloored(balance, amountUSD decimal.Decimal) decimal.Decimal {
	next := balance.Sub(amountUSD)
	if next.IsNegative() {
		return decimal.Zero
	}
	return next
}

// RefundTopUpPayment marks a balance top-up REFUNDED and debits the user's
// balance by the USD-equivalent amount, floored at zero. Status guard, debit
// and audit row commit in one transaction so a duplicate refund delivery
// cannot double-debit.
func (r *Repository) RefundTopUpPayment(ctx context.Context, payment *model.Payment, amountUSD decimal.Decimal) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE payments SET status = 'REFUNDED' WHERE id = $1 AND status = 'PAID'", payment.ID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	var balanceBefore decimal.Decimal
	err = tx.GetContext(ctx, &balanceBefore, "SELECT balance FROM users WHERE id = $1 FOR UPDATE", payment.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to get balance: %w", err)
	}

	balanceAfter := debitFloored(balanceBefore, amountUSD)

	_, err = tx.ExecContext(ctx, "UPDATE users SET balance = $1, updated_at = NOW() WHERE id = $2",
		balanceAfter, payment.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to update balance: %w", err)
	}

	description := "Refund of order " + payment.OrderID
	_, err = tx.ExecContext(ctx, `
		INSERT INTO balance_transactions (user_id, amount, type, description, reference_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		payment.UserID, amountUSD.Neg(), model.TransactionTypeRefund, description, payment.ID, balanceBefore, balanceAfter)
	if err != nil {
		return false, fmt.Errorf("failed to create transaction record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
