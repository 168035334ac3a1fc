package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

type Payment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderID         string          `json:"order_id" db:"order_id"`
	PaymentSystemID *string         `json:"payment_system_id,omitempty" db:"payment_system_id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	TariffID        *uuid.UUID      `json:"tariff_id,omitempty" db:"tariff_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Currency        string          `json:"currency" db:"currency"`
	Status          PaymentStatus   `json:"status" db:"status"`
	PromoCodeID     *uuid.UUID      `json:"promo_code_id,omitempty" db:"promo_code_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// IsTopUp reports whether the payment credits the balance instead of
// activating a tariff.
func (p *Payment) IsTopUp() bool {
	return p.TariffID == nil
}
