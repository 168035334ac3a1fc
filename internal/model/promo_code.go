package model

import (
	"time"

	"github.com/google/uuid"
)

type PromoCode struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	UsesLeft  int       `json:"uses_left" db:"uses_left"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
