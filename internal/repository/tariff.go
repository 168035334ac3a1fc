package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
)

var ErrTariffNotFound = errors.New("tariff not found")

func (r *Repository) GetTariff(ctx context.Context, id uuid.UUID) (*model.Tariff, error) {
	var tariff model.Tariff
	err := r.db.GetContext(ctx, &tariff, "SELECT * FROM tariffs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTariffNotFound
		}
		return nil, err
	}
	return &tariff, nil
}

func (r *Repository) ListActiveTariffs(ctx context.Context) ([]model.Tariff, error) {
	var tariffs []model.Tariff
	err := r.db.SelectContext(ctx, &tariffs,
		"SELECT * FROM tariffs WHERE is_active = true ORDER BY created_at")
	return tariffs, err
}
