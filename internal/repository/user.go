package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

func (r *Repository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByRemnawaveUUID(ctx context.Context, uuid string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE remnawave_uuid = $1", uuid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
