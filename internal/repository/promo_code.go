package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
)

var ErrPromoCodeNotFound = errors.New("promo code not found")

func (r *Repository) GetPromoCode(ctx context.Context, id uuid.UUID) (*model.PromoCode, error) {
	var promo model.PromoCode
	err := r.db.GetContext(ctx, &promo, "SELECT * FROM promo_codes WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPromoCodeNotFound
		}
		return nil, err
	}
	return &promo, nil
}

// DecrementPromoUses consumes one use. The uses_left guard keeps the counter
// non-negative under concurrent purchases.
func (r *Repository) DecrementPromoUses(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE promo_codes SET uses_left = uses_left - 1 WHERE id = $1 AND uses_left > 0", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
