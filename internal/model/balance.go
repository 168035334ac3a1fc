package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeTopUp         TransactionType = "top_up"
	TransactionTypeRefund        TransactionType = "refund"
	TransactionTypeReferralBonus TransactionType = "referral_bonus"
)

// BalanceTransaction is the audit row written alongside every balance change.
type BalanceTransaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Type          TransactionType `json:"type" db:"type"`
	Description   *string         `json:"description,omitempty" db:"description"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty" db:"reference_id"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
