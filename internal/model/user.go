package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID              int64            `json:"id" db:"id"`
	TelegramID      *int64           `json:"telegram_id,omitempty" db:"telegram_id"`
	Username        *string          `json:"username,omitempty" db:"username"`
	Balance         decimal.Decimal  `json:"balance" db:"balance"` // USD
	ReferrerID      *int64           `json:"referrer_id,omitempty" db:"referrer_id"`
	ReferralPercent *decimal.Decimal `json:"referral_percent,omitempty" db:"referral_percent"`
	RemnawaveUUID   string           `json:"remnawave_uuid" db:"remnawave_uuid"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}
