package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/cache"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/remnawave"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/repository"
)

type countingPanel struct {
	calls int
	err   error
}

func (p *countingPanel) GetUser(_ context.Context, uuid string) (*remnawave.PanelUser, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &remnawave.PanelUser{UUID: uuid}, nil
}

func (p *countingPanel) UpdateUser(_ context.Context, _ remnawave.UpdateUserRequest) error {
	return nil
}

type liveUserStore struct {
	known map[string]bool
	calls int
}

func (s *liveUserStore) GetUserByRemnawaveUUID(_ context.Context, uuid string) (*model.User, error) {
	s.calls++
	if s.known[uuid] {
		return &model.User{ID: 1, RemnawaveUUID: uuid}, nil
	}
	return nil, repository.ErrUserNotFound
}

func TestLiveService_CachesPanelReads(t *testing.T) {
	panel := &countingPanel{}
	store := &liveUserStore{known: map[string]bool{"rw-1": true}}
	c := cache.New(time.Minute)
	svc := NewLiveService(store, panel, c, time.Minute)

	first, err := svc.GetLiveData(context.Background(), "rw-1")
	require.NoError(t, err)
	require.Equal(t, "rw-1", first.UUID)
	require.Equal(t, 1, panel.calls)

	second, err := svc.GetLiveData(context.Background(), "rw-1")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, panel.calls)

	// Fulfillment invalidates after a purchase; the next read goes to the
	// panel again.
	c.InvalidateUser("rw-1")
	_, err = svc.GetLiveData(context.Background(), "rw-1")
	require.NoError(t, err)
	require.Equal(t, 2, panel.calls)
}

func TestLiveService_UnknownUserSkipsPanel(t *testing.T) {
	panel := &countingPanel{}
	store := &liveUserStore{known: map[string]bool{}}
	svc := NewLiveService(store, panel, cache.New(time.Minute), time.Minute)

	_, err := svc.GetLiveData(context.Background(), "rw-unknown")
	require.ErrorIs(t, err, repository.ErrUserNotFound)
	require.Equal(t, 0, panel.calls)
}

func TestLiveService_PanelErrorPropagates(t *testing.T) {
	panel := &countingPanel{err: errors.New("down")}
	store := &liveUserStore{known: map[string]bool{"rw-1": true}}
	svc := NewLiveService(store, panel, cache.New(time.Minute), time.Minute)

	_, err := svc.GetLiveData(context.Background(), "rw-1")
	require.Error(t, err)
}
