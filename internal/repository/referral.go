package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
)

var ErrReferralSettingNotFound = errors.New("referral setting not found")

// GetReferralSetting returns the singleton referral configuration row.
func (r *Repository) GetReferralSetting(ctx context.Context) (*model.ReferralSetting, error) {
	var setting model.ReferralSetting
	err := r.db.GetContext(ctx, &setting, "SELECT * FROM referral_settings ORDER BY id LIMIT 1")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReferralSettingNotFound
		}
		return nil, err
	}
	return &setting, nil
}
