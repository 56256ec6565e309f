// Package domain 礼品卡服务的领域模型。
// 礼品卡是事件溯源聚合：状态完全由自身事件流折叠得出，
// 所有变更都经由命令方法产生事件，外部代码不直接修改字段。
package domain

import (
	"fmt"
	"time"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
)

// GiftCard 礼品卡聚合根
type GiftCard struct {
	id            CardID
	tenantID      tenant.ID
	balance       Money
	initialAmount Money
	status        Status

	createdAt   time.Time
	expiresAt   *time.Time
	activatedAt *time.Time
	suspendedAt *time.Time
	cancelledAt *time.Time
	expiredAt   *time.Time
	depletedAt  *time.Time

	suspensionDurationSeconds int64

	cardNumber string
	pin        string

	// version 为播放头：最后一个已应用事件的序号，空聚合为 -1
	version     int64
	uncommitted []Event
}

// Create 发卡。初始余额非负（面额为零的卡允许存在，用于后续管理性充值），
// 初始状态 INACTIVE。
func Create(id CardID, tenantID tenant.ID, initialBalance Money, cardNumber, pin string, createdAt time.Time, expiresAt *time.Time) (*GiftCard, error) {
	if id.IsZero() {
		return nil, ErrInvalidCardID
	}
	if tenantID.IsZero() {
		return nil, tenant.ErrInvalidTenantID
	}

	g := newEmpty()
	g.recordThat(&CreatedEvent{
		CardID:        id.String(),
		TenantID:      tenantID.String(),
		InitialAmount: initialBalance.Amount(),
		Currency:      initialBalance.Currency(),
		CardNumber:    cardNumber,
		PIN:           pin,
		CreatedAt:     createdAt,
		ExpiresAt:     expiresAt,
	})
	return g, nil
}

// Activate 激活，仅允许 INACTIVE → ACTIVE
func (g *GiftCard) Activate(activatedAt time.Time) error {
	if g.status != StatusInactive {
		return &InvalidStateTransitionError{Command: "activate", Status: g.status}
	}

	g.recordThat(&ActivatedEvent{
		CardID:      g.id.String(),
		ActivatedAt: activatedAt,
	})
	return nil
}

// Redeem 客户兑换，仅允许 ACTIVE。余额刚好归零时在同一命令中级联产生
// Depleted 事件（两个事件、一条命令），读模型可以分别响应"被兑换"与"用尽"。
func (g *GiftCard) Redeem(amount Money, redeemedAt time.Time) error {
	if g.status != StatusActive {
		return &InvalidStateTransitionError{Command: "redeem", Status: g.status}
	}
	remaining, err := g.charge(amount)
	if err != nil {
		return err
	}

	g.recordThat(&RedeemedEvent{
		CardID:     g.id.String(),
		Amount:     amount.Amount(),
		Currency:   amount.Currency(),
		Balance:    remaining.Amount(),
		RedeemedAt: redeemedAt,
	})
	if remaining.IsZero() {
		g.recordThat(&DepletedEvent{
			CardID:     g.id.String(),
			DepletedAt: redeemedAt,
		})
	}
	return nil
}

// AdjustBalance 管理性充值，终态之外都允许。Reason 为必填审计说明。
func (g *GiftCard) AdjustBalance(delta Money, reason string, adjustedAt time.Time) error {
	if g.status.IsTerminal() {
		return &InvalidStateTransitionError{Command: "adjust balance of", Status: g.status}
	}
	if reason == "" {
		return ErrEmptyReason
	}
	if delta.Amount() <= 0 {
		return fmt.Errorf("%w: %d", ErrNonPositiveAmount, delta.Amount())
	}
	newBalance, err := g.balance.Add(delta)
	if err != nil {
		return err
	}

	g.recordThat(&BalanceAdjustedEvent{
		CardID:     g.id.String(),
		Amount:     delta.Amount(),
		Currency:   delta.Currency(),
		Balance:    newBalance.Amount(),
		Reason:     reason,
		AdjustedAt: adjustedAt,
	})
	return nil
}

// DecreaseBalance 管理性扣减，终态之外都允许。与客户兑换语义不同，
// 以独立事件类型记录以保证审计精度；归零时同样级联 Depleted。
func (g *GiftCard) DecreaseBalance(amount Money, reason string, decreasedAt time.Time) error {
	if g.status.IsTerminal() {
		return &InvalidStateTransitionError{Command: "decrease balance of", Status: g.status}
	}
	if reason == "" {
		return ErrEmptyReason
	}
	remaining, err := g.charge(amount)
	if err != nil {
		return err
	}

	g.recordThat(&BalanceDecreasedEvent{
		CardID:      g.id.String(),
		Amount:      amount.Amount(),
		Currency:    amount.Currency(),
		Balance:     remaining.Amount(),
		Reason:      reason,
		DecreasedAt: decreasedAt,
	})
	if remaining.IsZero() {
		g.recordThat(&DepletedEvent{
			CardID:     g.id.String(),
			DepletedAt: decreasedAt,
		})
	}
	return nil
}

// Suspend 暂停，仅允许 ACTIVE → SUSPENDED，duration 必须为正
func (g *GiftCard) Suspend(reason string, suspendedAt time.Time, durationSeconds int64) error {
	if g.status != StatusActive {
		return &InvalidStateTransitionError{Command: "suspend", Status: g.status}
	}
	if durationSeconds <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, durationSeconds)
	}

	g.recordThat(&SuspendedEvent{
		CardID:          g.id.String(),
		Reason:          reason,
		DurationSeconds: durationSeconds,
		SuspendedAt:     suspendedAt,
	})
	return nil
}

// Reactivate 恢复激活，仅允许 SUSPENDED → ACTIVE，可选延长有效期
func (g *GiftCard) Reactivate(reason string, reactivatedAt time.Time, newExpiresAt *time.Time) error {
	if g.status != StatusSuspended {
		return &InvalidStateTransitionError{Command: "reactivate", Status: g.status}
	}

	g.recordThat(&ReactivatedEvent{
		CardID:        g.id.String(),
		Reason:        reason,
		NewExpiresAt:  newExpiresAt,
		ReactivatedAt: reactivatedAt,
	})
	return nil
}

// Cancel 作废，任何非终态都允许，作废后只读
func (g *GiftCard) Cancel(reason string, cancelledAt time.Time) error {
	if g.status.IsTerminal() {
		return &InvalidStateTransitionError{Command: "cancel", Status: g.status}
	}

	g.recordThat(&CancelledEvent{
		CardID:      g.id.String(),
		Reason:      reason,
		CancelledAt: cancelledAt,
	})
	return nil
}

// Expire 过期，允许 ACTIVE 或 INACTIVE（未用即失效），
// 且 expiredAt 不得早于当前有效期
func (g *GiftCard) Expire(expiredAt time.Time) error {
	if g.status != StatusActive && g.status != StatusInactive {
		return &InvalidStateTransitionError{Command: "expire", Status: g.status}
	}
	if g.expiresAt == nil || expiredAt.Before(*g.expiresAt) {
		return ErrNotYetExpired
	}

	g.recordThat(&ExpiredEvent{
		CardID:    g.id.String(),
		ExpiredAt: expiredAt,
	})
	return nil
}

// charge 校验扣款前提并返回扣款后的余额，不产生任何变更
func (g *GiftCard) charge(amount Money) (Money, error) {
	if amount.Amount() <= 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrNonPositiveAmount, amount.Amount())
	}
	if amount.Currency() != g.balance.Currency() {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, amount.Currency(), g.balance.Currency())
	}
	if g.balance.LessThan(amount) {
		return Money{}, &InsufficientBalanceError{Requested: amount, Available: g.balance}
	}
	return g.balance.Subtract(amount)
}

// Replay 从有序事件流重建聚合。重放与实时应用走同一个 apply，
// 保证存储状态与重放状态永不分叉。
func Replay(events []Event) (*GiftCard, error) {
	if len(events) == 0 {
		return nil, ErrCardNotFound
	}
	if _, ok := events[0].(*CreatedEvent); !ok {
		return nil, fmt.Errorf("event stream must start with %s, got %s", EventTypeCreated, events[0].EventType())
	}

	g := newEmpty()
	for _, e := range events {
		g.apply(e)
	}
	return g, nil
}

func newEmpty() *GiftCard {
	return &GiftCard{version: -1}
}

// recordThat 先应用再暂存：apply 是命令通过全部前置校验后的最后一步，
// 无条件执行，失败路径上聚合字段不发生任何变化。
func (g *GiftCard) recordThat(e Event) {
	g.apply(e)
	g.uncommitted = append(g.uncommitted, e)
}

// apply 每种事件类型唯一的归约函数 (state, event) -> state，
// 实时产生和历史重放都经过这里，不区分来源。
func (g *GiftCard) apply(e Event) {
	switch ev := e.(type) {
	case *CreatedEvent:
		g.id = CardID{value: ev.CardID}
		g.tenantID, _ = tenant.NewID(ev.TenantID)
		g.balance = Money{amount: ev.InitialAmount, currency: ev.Currency}
		g.initialAmount = g.balance
		g.status = StatusInactive
		g.createdAt = ev.CreatedAt
		g.expiresAt = ev.ExpiresAt
		g.cardNumber = ev.CardNumber
		g.pin = ev.PIN
	case *ActivatedEvent:
		g.status = StatusActive
		at := ev.ActivatedAt
		g.activatedAt = &at
	case *RedeemedEvent:
		g.balance = Money{amount: ev.Balance, currency: ev.Currency}
	case *BalanceAdjustedEvent:
		g.balance = Money{amount: ev.Balance, currency: ev.Currency}
	case *BalanceDecreasedEvent:
		g.balance = Money{amount: ev.Balance, currency: ev.Currency}
	case *SuspendedEvent:
		g.status = StatusSuspended
		at := ev.SuspendedAt
		g.suspendedAt = &at
		g.suspensionDurationSeconds = ev.DurationSeconds
	case *ReactivatedEvent:
		g.status = StatusActive
		g.suspendedAt = nil
		g.suspensionDurationSeconds = 0
		if ev.NewExpiresAt != nil {
			g.expiresAt = ev.NewExpiresAt
		}
	case *CancelledEvent:
		g.status = StatusCancelled
		at := ev.CancelledAt
		g.cancelledAt = &at
	case *ExpiredEvent:
		g.status = StatusExpired
		at := ev.ExpiredAt
		g.expiredAt = &at
	case *DepletedEvent:
		g.status = StatusDepleted
		at := ev.DepletedAt
		g.depletedAt = &at
	}
	g.version++
}

// UncommittedEvents 尚未持久化的新事件
func (g *GiftCard) UncommittedEvents() []Event {
	return g.uncommitted
}

// MarkCommitted 持久化成功后清空暂存事件
func (g *GiftCard) MarkCommitted() {
	g.uncommitted = nil
}

// Version 播放头：最后一个已应用事件的序号
func (g *GiftCard) Version() int64 {
	return g.version
}

// CommittedVersion 已持久化部分的播放头，追加时作为期望版本
func (g *GiftCard) CommittedVersion() int64 {
	return g.version - int64(len(g.uncommitted))
}

// ID 礼品卡标识
func (g *GiftCard) ID() CardID { return g.id }

// TenantID 所属租户，创建后不可变
func (g *GiftCard) TenantID() tenant.ID { return g.tenantID }

// Balance 当前余额
func (g *GiftCard) Balance() Money { return g.balance }

// InitialAmount 发卡面额
func (g *GiftCard) InitialAmount() Money { return g.initialAmount }

// CurrentStatus 当前状态
func (g *GiftCard) CurrentStatus() Status { return g.status }

// CreatedAt 发卡时间
func (g *GiftCard) CreatedAt() time.Time { return g.createdAt }

// ExpiresAt 有效期，可为空
func (g *GiftCard) ExpiresAt() *time.Time { return g.expiresAt }

// ActivatedAt 激活时间
func (g *GiftCard) ActivatedAt() *time.Time { return g.activatedAt }

// SuspendedAt 暂停时间
func (g *GiftCard) SuspendedAt() *time.Time { return g.suspendedAt }

// SuspensionDurationSeconds 暂停时长（秒）
func (g *GiftCard) SuspensionDurationSeconds() int64 { return g.suspensionDurationSeconds }

// CancelledAt 作废时间
func (g *GiftCard) CancelledAt() *time.Time { return g.cancelledAt }

// ExpiredAt 过期时间
func (g *GiftCard) ExpiredAt() *time.Time { return g.expiredAt }

// DepletedAt 耗尽时间
func (g *GiftCard) DepletedAt() *time.Time { return g.depletedAt }

// CardNumber 实体卡号，可为空
func (g *GiftCard) CardNumber() string { return g.cardNumber }

// PIN 实体卡 PIN，可为空
func (g *GiftCard) PIN() string { return g.pin }
