package service

import (
	"context"
	"time"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/cache"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/remnawave"
)

// LiveStore resolves subscription identities to local users.
type LiveStore interface {
	GetUserByRemnawaveUUID(ctx context.Context, uuid string) (*model.User, error)
}

// LiveService serves the panel's live view of a subscription through the
// cache that webhook fulfillment invalidates.
type LiveService struct {
	store LiveStore
	panel Panel
	cache *cache.Cache
	ttl   time.Duration
}

func NewLiveService(store LiveStore, panel Panel, c *cache.Cache, ttl time.Duration) *LiveService {
	return &LiveService{store: store, panel: panel, cache: c, ttl: ttl}
}

// GetLiveData returns the cached panel state for a known subscriber. Unknown
// identities fail on the local lookup before any panel round trip.
func (s *LiveService) GetLiveData(ctx context.Context, remnawaveUUID string) (*remnawave.PanelUser, error) {
	if _, err := s.store.GetUserByRemnawaveUUID(ctx, remnawaveUUID); err != nil {
		return nil, err
	}

	if v, ok := s.cache.Get(cache.LiveDataKey(remnawaveUUID)); ok {
		if user, ok := v.(*remnawave.PanelUser); ok {
			return user, nil
		}
	}

	user, err := s.panel.GetUser(ctx, remnawaveUUID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cache.LiveDataKey(remnawaveUUID), user, s.ttl)
	return user, nil
}
