package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
)

var (
	testTenant = tenant.MustID("7b0ba1a2-0446-4246-a1c5-6f31f84ecbc9")
	testTime   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newTestCard(t *testing.T, amount int64, currency string) *GiftCard {
	t.Helper()
	card, err := Create(GenerateCardID(), testTenant, MustMoney(amount, currency), "", "", testTime, nil)
	require.NoError(t, err)
	return card
}

func newActiveCard(t *testing.T, amount int64, currency string) *GiftCard {
	t.Helper()
	card := newTestCard(t, amount, currency)
	require.NoError(t, card.Activate(testTime))
	return card
}

func TestCreate(t *testing.T) {
	card := newTestCard(t, 100000, "PLN")

	assert.Equal(t, StatusInactive, card.CurrentStatus())
	assert.Equal(t, int64(100000), card.Balance().Amount())
	assert.Equal(t, int64(100000), card.InitialAmount().Amount())
	assert.Equal(t, testTenant, card.TenantID())
	assert.Equal(t, int64(0), card.Version())
	assert.Equal(t, int64(-1), card.CommittedVersion())

	events := card.UncommittedEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(*CreatedEvent)
	require.True(t, ok)
	assert.Equal(t, card.ID().String(), created.CardID)
}

func TestCreateZeroBalanceAllowed(t *testing.T) {
	card := newTestCard(t, 0, "PLN")
	assert.Equal(t, StatusInactive, card.CurrentStatus())
	assert.True(t, card.Balance().IsZero())
}

func TestActivate(t *testing.T) {
	card := newTestCard(t, 100000, "PLN")
	require.NoError(t, card.Activate(testTime))
	assert.Equal(t, StatusActive, card.CurrentStatus())

	// 重复激活被拒绝
	err := card.Activate(testTime)
	var transition *InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, StatusActive, transition.Status)
}

// 发 1000 PLN 的卡、激活、全额兑换：兑换命令在同一批未提交事件中
// 级联产生 Depleted，四个事件对应序号 0..3，无空洞。
func TestRedeemFullBalanceCascadesDepleted(t *testing.T) {
	card := newTestCard(t, 100000, "PLN")
	require.NoError(t, card.Activate(testTime))
	require.NoError(t, card.Redeem(MustMoney(100000, "PLN"), testTime))

	assert.Equal(t, StatusDepleted, card.CurrentStatus())
	assert.True(t, card.Balance().IsZero())
	assert.Equal(t, int64(3), card.Version())

	events := card.UncommittedEvents()
	require.Len(t, events, 4)
	assert.Equal(t, EventTypeCreated, events[0].EventType())
	assert.Equal(t, EventTypeActivated, events[1].EventType())
	assert.Equal(t, EventTypeRedeemed, events[2].EventType())
	assert.Equal(t, EventTypeDepleted, events[3].EventType())

	redeemed := events[2].(*RedeemedEvent)
	assert.Equal(t, int64(100000), redeemed.Amount)
	assert.Equal(t, int64(0), redeemed.Balance)

	// 终态后不再接受任何兑换
	err := card.Redeem(MustMoney(1, "PLN"), testTime)
	var transition *InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, StatusDepleted, transition.Status)
}

func TestRedeemInsufficientBalance(t *testing.T) {
	card := newActiveCard(t, 10000, "PLN")

	err := card.Redeem(MustMoney(10001, "PLN"), testTime)
	var insufficient *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(10001), insufficient.Requested.Amount())
	assert.Equal(t, int64(10000), insufficient.Available.Amount())

	// 失败的命令不产生事件
	assert.Equal(t, int64(10000), card.Balance().Amount())
	assert.Equal(t, int64(1), card.Version())
}

func TestRedeemValidation(t *testing.T) {
	card := newActiveCard(t, 10000, "PLN")

	assert.ErrorIs(t, card.Redeem(MustMoney(0, "PLN"), testTime), ErrNonPositiveAmount)
	assert.ErrorIs(t, card.Redeem(MustMoney(100, "EUR"), testTime), ErrCurrencyMismatch)
	assert.Equal(t, int64(10000), card.Balance().Amount())
}

// 发卡、激活、暂停后兑换必须失败，余额保持不变。
func TestRedeemWhileSuspendedFails(t *testing.T) {
	card := newActiveCard(t, 50000, "PLN")
	require.NoError(t, card.Suspend("fraud review", testTime, 3600))
	assert.Equal(t, StatusSuspended, card.CurrentStatus())

	err := card.Redeem(MustMoney(1000, "PLN"), testTime)
	var transition *InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, StatusSuspended, transition.Status)
	assert.Equal(t, int64(50000), card.Balance().Amount())
}

func TestSuspendRequiresPositiveDuration(t *testing.T) {
	card := newActiveCard(t, 50000, "PLN")
	assert.ErrorIs(t, card.Suspend("reason", testTime, 0), ErrInvalidDuration)
	assert.ErrorIs(t, card.Suspend("reason", testTime, -60), ErrInvalidDuration)
}

func TestReactivate(t *testing.T) {
	card := newActiveCard(t, 50000, "PLN")
	require.NoError(t, card.Suspend("maintenance", testTime, 600))

	newExpiry := testTime.AddDate(1, 0, 0)
	require.NoError(t, card.Reactivate("resolved", testTime, &newExpiry))
	assert.Equal(t, StatusActive, card.CurrentStatus())
	require.NotNil(t, card.ExpiresAt())
	assert.True(t, card.ExpiresAt().Equal(newExpiry))

	// 非暂停状态不可恢复
	err := card.Reactivate("again", testTime, nil)
	var transition *InvalidStateTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestAdjustBalance(t *testing.T) {
	card := newActiveCard(t, 10000, "PLN")

	require.NoError(t, card.AdjustBalance(MustMoney(5000, "PLN"), "goodwill credit", testTime))
	assert.Equal(t, int64(15000), card.Balance().Amount())

	assert.ErrorIs(t, card.AdjustBalance(MustMoney(5000, "PLN"), "", testTime), ErrEmptyReason)
	assert.ErrorIs(t, card.AdjustBalance(MustMoney(0, "PLN"), "noop", testTime), ErrNonPositiveAmount)
}

func TestAdjustBalanceOnInactiveCard(t *testing.T) {
	// 未激活的卡允许管理性充值
	card := newTestCard(t, 0, "PLN")
	require.NoError(t, card.AdjustBalance(MustMoney(10000, "PLN"), "initial load", testTime))
	assert.Equal(t, int64(10000), card.Balance().Amount())
	assert.Equal(t, StatusInactive, card.CurrentStatus())
}

func TestDecreaseBalanceCascadesDepleted(t *testing.T) {
	card := newActiveCard(t, 10000, "PLN")

	require.NoError(t, card.DecreaseBalance(MustMoney(10000, "PLN"), "chargeback", testTime))
	assert.Equal(t, StatusDepleted, card.CurrentStatus())

	events := card.UncommittedEvents()
	assert.Equal(t, EventTypeBalanceDecreased, events[len(events)-2].EventType())
	assert.Equal(t, EventTypeDepleted, events[len(events)-1].EventType())
}

func TestDecreaseBalanceRequiresReason(t *testing.T) {
	card := newActiveCard(t, 10000, "PLN")
	assert.ErrorIs(t, card.DecreaseBalance(MustMoney(100, "PLN"), "", testTime), ErrEmptyReason)
}

func TestCancel(t *testing.T) {
	t.Run("inactive card can be cancelled", func(t *testing.T) {
		card := newTestCard(t, 10000, "PLN")
		require.NoError(t, card.Cancel("never delivered", testTime))
		assert.Equal(t, StatusCancelled, card.CurrentStatus())
	})

	t.Run("suspended card can be cancelled", func(t *testing.T) {
		card := newActiveCard(t, 10000, "PLN")
		require.NoError(t, card.Suspend("review", testTime, 60))
		require.NoError(t, card.Cancel("fraud confirmed", testTime))
		assert.Equal(t, StatusCancelled, card.CurrentStatus())
	})

	t.Run("terminal card cannot be cancelled", func(t *testing.T) {
		card := newTestCard(t, 10000, "PLN")
		require.NoError(t, card.Cancel("first", testTime))
		var transition *InvalidStateTransitionError
		assert.ErrorAs(t, card.Cancel("second", testTime), &transition)
	})
}

func TestExpire(t *testing.T) {
	expiry := testTime.AddDate(0, 6, 0)

	t.Run("active card past expiry", func(t *testing.T) {
		card, err := Create(GenerateCardID(), testTenant, MustMoney(10000, "PLN"), "", "", testTime, &expiry)
		require.NoError(t, err)
		require.NoError(t, card.Activate(testTime))
		require.NoError(t, card.Expire(expiry.Add(time.Hour)))
		assert.Equal(t, StatusExpired, card.CurrentStatus())
	})

	t.Run("inactive card past expiry", func(t *testing.T) {
		card, err := Create(GenerateCardID(), testTenant, MustMoney(10000, "PLN"), "", "", testTime, &expiry)
		require.NoError(t, err)
		require.NoError(t, card.Expire(expiry))
		assert.Equal(t, StatusExpired, card.CurrentStatus())
	})

	t.Run("not yet expired", func(t *testing.T) {
		card, err := Create(GenerateCardID(), testTenant, MustMoney(10000, "PLN"), "", "", testTime, &expiry)
		require.NoError(t, err)
		assert.ErrorIs(t, card.Expire(expiry.Add(-time.Hour)), ErrNotYetExpired)
	})

	t.Run("card without expiry never expires", func(t *testing.T) {
		card := newActiveCard(t, 10000, "PLN")
		assert.ErrorIs(t, card.Expire(testTime.AddDate(10, 0, 0)), ErrNotYetExpired)
	})

	t.Run("suspended card cannot expire", func(t *testing.T) {
		card, err := Create(GenerateCardID(), testTenant, MustMoney(10000, "PLN"), "", "", testTime, &expiry)
		require.NoError(t, err)
		require.NoError(t, card.Activate(testTime))
		require.NoError(t, card.Suspend("review", testTime, 60))
		var transition *InvalidStateTransitionError
		assert.ErrorAs(t, card.Expire(expiry.Add(time.Hour)), &transition)
	})
}

// 重放与实时应用共用一个 reducer：完整生命周期后重放事件流，
// 得到的状态必须与原聚合完全一致。
func TestReplayDeterminism(t *testing.T) {
	expiry := testTime.AddDate(1, 0, 0)
	card, err := Create(GenerateCardID(), testTenant, MustMoney(100000, "PLN"), "4111-2222", "1234", testTime, &expiry)
	require.NoError(t, err)
	require.NoError(t, card.Activate(testTime))
	require.NoError(t, card.Redeem(MustMoney(30000, "PLN"), testTime))
	require.NoError(t, card.Suspend("review", testTime, 3600))
	require.NoError(t, card.Reactivate("cleared", testTime, nil))
	require.NoError(t, card.AdjustBalance(MustMoney(5000, "PLN"), "goodwill", testTime))
	require.NoError(t, card.Redeem(MustMoney(75000, "PLN"), testTime))

	replayed, err := Replay(card.UncommittedEvents())
	require.NoError(t, err)

	assert.Equal(t, card.ID(), replayed.ID())
	assert.Equal(t, card.TenantID(), replayed.TenantID())
	assert.Equal(t, card.CurrentStatus(), replayed.CurrentStatus())
	assert.Equal(t, card.Balance(), replayed.Balance())
	assert.Equal(t, card.InitialAmount(), replayed.InitialAmount())
	assert.Equal(t, card.Version(), replayed.Version())
	assert.Equal(t, card.CardNumber(), replayed.CardNumber())
	assert.Equal(t, card.PIN(), replayed.PIN())
	assert.Equal(t, StatusDepleted, replayed.CurrentStatus())

	// 重放得到的聚合没有未提交事件
	assert.Empty(t, replayed.UncommittedEvents())
	assert.Equal(t, replayed.Version(), replayed.CommittedVersion())
}

func TestReplayValidation(t *testing.T) {
	_, err := Replay(nil)
	assert.ErrorIs(t, err, ErrCardNotFound)

	_, err = Replay([]Event{&ActivatedEvent{CardID: "x", ActivatedAt: testTime}})
	assert.Error(t, err)
}

func TestMarkCommitted(t *testing.T) {
	card := newActiveCard(t, 10000, "PLN")
	require.Len(t, card.UncommittedEvents(), 2)

	card.MarkCommitted()
	assert.Empty(t, card.UncommittedEvents())
	assert.Equal(t, int64(1), card.Version())
	assert.Equal(t, int64(1), card.CommittedVersion())
}

func TestEventRoundTrip(t *testing.T) {
	expiry := testTime.AddDate(1, 0, 0)
	card, err := Create(GenerateCardID(), testTenant, MustMoney(100000, "PLN"), "4111", "9999", testTime, &expiry)
	require.NoError(t, err)
	require.NoError(t, card.Activate(testTime))
	require.NoError(t, card.Redeem(MustMoney(100000, "PLN"), testTime))

	// 序列化再反序列化后重放，状态保持一致
	restored := make([]Event, 0, len(card.UncommittedEvents()))
	for _, event := range card.UncommittedEvents() {
		payload, err := json.Marshal(event)
		require.NoError(t, err)
		decoded, err := UnmarshalEvent(event.EventType(), payload)
		require.NoError(t, err)
		restored = append(restored, decoded)
	}

	replayed, err := Replay(restored)
	require.NoError(t, err)
	assert.Equal(t, StatusDepleted, replayed.CurrentStatus())
	assert.True(t, replayed.Balance().IsZero())
}
