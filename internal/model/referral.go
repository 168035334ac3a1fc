package model

import (
	"github.com/shopspring/decimal"
)

type ReferralType string

const (
	ReferralTypePercent ReferralType = "PERCENT"
	ReferralTypeDays    ReferralType = "DAYS"
)

// ReferralSetting is a singleton row controlling how referrers are rewarded.
type ReferralSetting struct {
	ID                     int64           `json:"id" db:"id"`
	ReferralType           ReferralType    `json:"referral_type" db:"referral_type"`
	DefaultReferralPercent decimal.Decimal `json:"default_referral_percent" db:"default_referral_percent"`
}
