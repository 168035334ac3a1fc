package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/model"
	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/remnawave"
)

type credit struct {
	userID int64
	amount decimal.Decimal
	txType model.TransactionType
}

type fakeFulfillmentStore struct {
	users    map[int64]*model.User
	tariffs  map[uuid.UUID]*model.Tariff
	setting  *model.ReferralSetting
	promoOK  bool
	promoHit int
	credits  []credit
}

func (s *fakeFulfillmentStore) GetUser(_ context.Context, id int64) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (s *fakeFulfillmentStore) GetTariff(_ context.Context, id uuid.UUID) (*model.Tariff, error) {
	tr, ok := s.tariffs[id]
	if !ok {
		return nil, errors.New("tariff not found")
	}
	return tr, nil
}

func (s *fakeFulfillmentStore) GetReferralSetting(_ context.Context) (*model.ReferralSetting, error) {
	if s.setting == nil {
		return nil, errors.New("no referral setting")
	}
	return s.setting, nil
}

func (s *fakeFulfillmentStore) DecrementPromoUses(_ context.Context, _ uuid.UUID) (bool, error) {
	s.promoHit++
	return s.promoOK, nil
}

func (s *fakeFulfillmentStore) CreditBalance(_ context.Context, userID int64, amount decimal.Decimal, txType model.TransactionType, _ string, _ *uuid.UUID) (decimal.Decimal, error) {
	s.credits = append(s.credits, credit{userID: userID, amount: amount, txType: txType})
	return amount, nil
}

type fakePanel struct {
	user      *remnawave.PanelUser
	getErr    error
	updateErr error
	updated   *remnawave.UpdateUserRequest
}

func (p *fakePanel) GetUser(_ context.Context, _ string) (*remnawave.PanelUser, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
	return p.user, nil
}

func (p *fakePanel) UpdateUser(_ context.Context, update remnawave.UpdateUserRequest) error {
	if p.updateErr != nil {
		return p.updateErr
	}
	p.updated = &update
	return nil
}

type fakeInvalidator struct{ invalidated []string }

func (i *fakeInvalidator) InvalidateUser(uuid string) { i.invalidated = append(i.invalidated, uuid) }

type fakeResyncer struct{ enqueued []string }

func (r *fakeResyncer) Enqueue(uuid string) bool {
	r.enqueued = append(r.enqueued, uuid)
	return true
}

func testFulfillment(store *fakeFulfillmentStore, panel *fakePanel) (*Fulfillment, *fakeInvalidator, *fakeResyncer) {
	inv := &fakeInvalidator{}
	rs := &fakeResyncer{}
	f := NewFulfillment(store, identityRates{}, panel, inv, rs, "default-squad", zap.NewNop())
	f.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return f, inv, rs
}

func paidTariffPayment(userID int64, tariffID uuid.UUID) *model.Payment {
	return &model.Payment{
		ID:       uuid.New(),
		OrderID:  "ord-1",
		UserID:   userID,
		TariffID: &tariffID,
		Amount:   decimal.NewFromInt(10),
		Currency: "USD",
		Status:   model.PaymentStatusPaid,
	}
}

func TestComputeExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no current expiry starts from now", func(t *testing.T) {
		got := ComputeExpiry(now, nil, 30)
		require.Equal(t, now.AddDate(0, 0, 30), got)
	})

	t.Run("active subscription stacks on remaining time", func(t *testing.T) {
		current := now.AddDate(0, 0, 10)
		got := ComputeExpiry(now, &current, 30)
		require.Equal(t, current.AddDate(0, 0, 30), got)
	})

	t.Run("expired subscription restarts from now", func(t *testing.T) {
		past := now.AddDate(0, 0, -5)
		got := ComputeExpiry(now, &past, 30)
		require.Equal(t, now.AddDate(0, 0, 30), got)
	})
}

func TestFulfillTariff_ExtendsSubscription(t *testing.T) {
	tariffID := uuid.New()
	limit := int64(107374182400)
	store := &fakeFulfillmentStore{
		users: map[int64]*model.User{1: {ID: 1, RemnawaveUUID: "rw-1"}},
		tariffs: map[uuid.UUID]*model.Tariff{tariffID: {
			ID: tariffID, Name: "Pro", DurationDays: 30,
			TrafficLimitBytes: &limit,
			SquadIDs:          model.SquadList{"squad-a", "squad-b"},
		}},
	}
	panel := &fakePanel{user: &remnawave.PanelUser{UUID: "rw-1"}}
	f, inv, rs := testFulfillment(store, panel)

	err := f.Process(context.Background(), paidTariffPayment(1, tariffID))
	require.NoError(t, err)

	require.NotNil(t, panel.updated)
	require.Equal(t, "rw-1", panel.updated.UUID)
	require.Equal(t, f.now().AddDate(0, 0, 30), panel.updated.ExpireAt)
	require.Equal(t, []string{"squad-a", "squad-b"}, panel.updated.ActiveInternalSquads)
	require.Equal(t, &limit, panel.updated.TrafficLimitBytes)
	require.Equal(t, "NO_RESET", panel.updated.TrafficLimitStrategy)

	require.Equal(t, []string{"rw-1"}, inv.invalidated)
	require.Equal(t, []string{"rw-1"}, rs.enqueued)
}

func TestFulfillTariff_DefaultSquadFallback(t *testing.T) {
	tariffID := uuid.New()
	store := &fakeFulfillmentStore{
		users:   map[int64]*model.User{1: {ID: 1, RemnawaveUUID: "rw-1"}},
		tariffs: map[uuid.UUID]*model.Tariff{tariffID: {ID: tariffID, Name: "Basic", DurationDays: 7}},
	}
	panel := &fakePanel{user: &remnawave.PanelUser{UUID: "rw-1"}}
	f, _, _ := testFulfillment(store, panel)

	err := f.Process(context.Background(), paidTariffPayment(1, tariffID))
	require.NoError(t, err)
	require.Equal(t, []string{"default-squad"}, panel.updated.ActiveInternalSquads)
}

func TestFulfillTariff_PanelFailureIsProvisioningError(t *testing.T) {
	tariffID := uuid.New()
	store := &fakeFulfillmentStore{
		users:   map[int64]*model.User{1: {ID: 1, RemnawaveUUID: "rw-1"}},
		tariffs: map[uuid.UUID]*model.Tariff{tariffID: {ID: tariffID, DurationDays: 30}},
	}
	panel := &fakePanel{getErr: errors.New("timeout")}
	f, _, _ := testFulfillment(store, panel)

	err := f.Process(context.Background(), paidTariffPayment(1, tariffID))
	require.ErrorIs(t, err, ErrProvisioning)

	panel.getErr = nil
	panel.user = &remnawave.PanelUser{UUID: "rw-1"}
	panel.updateErr = errors.New("502")
	err = f.Process(context.Background(), paidTariffPayment(1, tariffID))
	require.ErrorIs(t, err, ErrProvisioning)
}

func TestFulfillTariff_ConsumesPromoCode(t *testing.T) {
	tariffID := uuid.New()
	promoID := uuid.New()
	store := &fakeFulfillmentStore{
		users:   map[int64]*model.User{1: {ID: 1, RemnawaveUUID: "rw-1"}},
		tariffs: map[uuid.UUID]*model.Tariff{tariffID: {ID: tariffID, DurationDays: 30}},
		promoOK: true,
	}
	panel := &fakePanel{user: &remnawave.PanelUser{UUID: "rw-1"}}
	f, _, _ := testFulfillment(store, panel)

	payment := paidTariffPayment(1, tariffID)
	payment.PromoCodeID = &promoID
	require.NoError(t, f.Process(context.Background(), payment))
	require.Equal(t, 1, store.promoHit)
}

func TestFulfillTopUp_CreditsBalance(t *testing.T) {
	store := &fakeFulfillmentStore{
		users: map[int64]*model.User{1: {ID: 1, RemnawaveUUID: "rw-1"}},
	}
	f, inv, _ := testFulfillment(store, &fakePanel{})

	payment := &model.Payment{
		ID: uuid.New(), OrderID: "ord-1", UserID: 1,
		Amount: decimal.NewFromInt(25), Currency: "USD",
		Status: model.PaymentStatusPaid,
	}
	require.NoError(t, f.Process(context.Background(), payment))

	require.Len(t, store.credits, 1)
	require.Equal(t, int64(1), store.credits[0].userID)
	require.Equal(t, model.TransactionTypeTopUp, store.credits[0].txType)
	require.True(t, decimal.NewFromInt(25).Equal(store.credits[0].amount))
	require.Equal(t, []string{"rw-1"}, inv.invalidated)
}

func TestReferralCommission(t *testing.T) {
	referrerID := int64(7)
	percent := decimal.NewFromInt(20)

	newStore := func(setting *model.ReferralSetting, user *model.User) *fakeFulfillmentStore {
		return &fakeFulfillmentStore{
			users: map[int64]*model.User{
				user.ID:    user,
				referrerID: {ID: referrerID},
			},
			setting: setting,
		}
	}

	t.Run("default percent credited", func(t *testing.T) {
		store := newStore(
			&model.ReferralSetting{ReferralType: model.ReferralTypePercent, DefaultReferralPercent: decimal.NewFromInt(10)},
			&model.User{ID: 1, RemnawaveUUID: "rw-1", ReferrerID: &referrerID},
		)
		f, _, _ := testFulfillment(store, &fakePanel{})
		f.applyReferralCommission(context.Background(), store.users[1], decimal.NewFromInt(50))

		require.Len(t, store.credits, 1)
		require.Equal(t, referrerID, store.credits[0].userID)
		require.Equal(t, model.TransactionTypeReferralBonus, store.credits[0].txType)
		require.True(t, decimal.NewFromInt(5).Equal(store.credits[0].amount))
	})

	t.Run("referrer override wins", func(t *testing.T) {
		store := newStore(
			&model.ReferralSetting{ReferralType: model.ReferralTypePercent, DefaultReferralPercent: decimal.NewFromInt(10)},
			&model.User{ID: 1, ReferrerID: &referrerID},
		)
		store.users[referrerID].ReferralPercent = &percent
		f, _, _ := testFulfillment(store, &fakePanel{})
		f.applyReferralCommission(context.Background(), store.users[1], decimal.NewFromInt(50))

		require.Len(t, store.credits, 1)
		require.True(t, decimal.NewFromInt(10).Equal(store.credits[0].amount))
	})

	t.Run("no referrer no credit", func(t *testing.T) {
		store := newStore(
			&model.ReferralSetting{ReferralType: model.ReferralTypePercent, DefaultReferralPercent: decimal.NewFromInt(10)},
			&model.User{ID: 1},
		)
		f, _, _ := testFulfillment(store, &fakePanel{})
		f.applyReferralCommission(context.Background(), store.users[1], decimal.NewFromInt(50))
		require.Empty(t, store.credits)
	})

	t.Run("days type skipped", func(t *testing.T) {
		store := newStore(
			&model.ReferralSetting{ReferralType: model.ReferralTypeDays, DefaultReferralPercent: decimal.NewFromInt(10)},
			&model.User{ID: 1, ReferrerID: &referrerID},
		)
		f, _, _ := testFulfillment(store, &fakePanel{})
		f.applyReferralCommission(context.Background(), store.users[1], decimal.NewFromInt(50))
		require.Empty(t, store.credits)
	})
}
