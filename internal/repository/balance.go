package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
)

// CreditBalance adds amount to the user's balance atomically and writes an
// audit row. Returns the new balance.
func (r *Repository) CreditBalance(ctx context.Context, userID int64, amount decimal.Decimal, txType model.TransactionType, description string, referenceID *uuid.UUID) (decimal.Decimal, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	var balanceBefore decimal.Decimal
	err = tx.GetContext(ctx, &balanceBefore, "SELECT balance FROM users WHERE id = $1 FOR UPDATE", userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	balanceAfter := balanceBefore.Add(amount)

	_, err = tx.ExecContext(ctx, "UPDATE users SET balance = $1, updated_at = NOW() WHERE id = $2", balanceAfter, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}

	var desc *string
	if description != "" {
		desc = &description
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO balance_transactions (user_id, amount, type, description, reference_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, amount, txType, desc, referenceID, balanceBefore, balanceAfter)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create transaction record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, err
	}

	return balanceAfter, nil
}

// GetBalanceTransactions returns balance transaction history for a user.
func (r *Repository) GetBalanceTransactions(ctx context.Context, userID int64, limit, offset int) ([]model.BalanceTransaction, error) {
	var transactions []model.BalanceTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM balance_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}
