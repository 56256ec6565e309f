package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// 事件类型标签，持久化后不再变更含义，模式演进只允许新增
const (
	EventTypeCreated          = "GiftCardCreated"
	EventTypeActivated        = "GiftCardActivated"
	EventTypeRedeemed         = "GiftCardRedeemed"
	EventTypeBalanceAdjusted  = "GiftCardBalanceAdjusted"
	EventTypeBalanceDecreased = "GiftCardBalanceDecreased"
	EventTypeSuspended        = "GiftCardSuspended"
	EventTypeReactivated      = "GiftCardReactivated"
	EventTypeCancelled        = "GiftCardCancelled"
	EventTypeExpired          = "GiftCardExpired"
	EventTypeDepleted         = "GiftCardDepleted"
)

// Event 礼品卡领域事件。每个事件是不可变事实，携带重建状态增量所需的全部数据。
type Event interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// CreatedEvent 发卡事件，初始状态 INACTIVE
type CreatedEvent struct {
	CardID        string     `json:"card_id"`
	TenantID      string     `json:"tenant_id"`
	InitialAmount int64      `json:"initial_amount"`
	Currency      string     `json:"currency"`
	CardNumber    string     `json:"card_number,omitempty"`
	PIN           string     `json:"pin,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func (e *CreatedEvent) EventType() string     { return EventTypeCreated }
func (e *CreatedEvent) AggregateID() string   { return e.CardID }
func (e *CreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ActivatedEvent 激活事件
type ActivatedEvent struct {
	CardID      string    `json:"card_id"`
	ActivatedAt time.Time `json:"activated_at"`
}

func (e *ActivatedEvent) EventType() string     { return EventTypeActivated }
func (e *ActivatedEvent) AggregateID() string   { return e.CardID }
func (e *ActivatedEvent) OccurredAt() time.Time { return e.ActivatedAt }

// RedeemedEvent 客户兑换事件，Balance 为兑换后的余额
type RedeemedEvent struct {
	CardID     string    `json:"card_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Balance    int64     `json:"balance"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

func (e *RedeemedEvent) EventType() string     { return EventTypeRedeemed }
func (e *RedeemedEvent) AggregateID() string   { return e.CardID }
func (e *RedeemedEvent) OccurredAt() time.Time { return e.RedeemedAt }

// BalanceAdjustedEvent 管理性增加余额事件，Reason 为必填审计说明
type BalanceAdjustedEvent struct {
	CardID     string    `json:"card_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Balance    int64     `json:"balance"`
	Reason     string    `json:"reason"`
	AdjustedAt time.Time `json:"adjusted_at"`
}

func (e *BalanceAdjustedEvent) EventType() string     { return EventTypeBalanceAdjusted }
func (e *BalanceAdjustedEvent) AggregateID() string   { return e.CardID }
func (e *BalanceAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }

// BalanceDecreasedEvent 管理性扣减余额事件，与客户兑换在审计上区分
type BalanceDecreasedEvent struct {
	CardID      string    `json:"card_id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Balance     int64     `json:"balance"`
	Reason      string    `json:"reason"`
	DecreasedAt time.Time `json:"decreased_at"`
}

func (e *BalanceDecreasedEvent) EventType() string     { return EventTypeBalanceDecreased }
func (e *BalanceDecreasedEvent) AggregateID() string   { return e.CardID }
func (e *BalanceDecreasedEvent) OccurredAt() time.Time { return e.DecreasedAt }

// SuspendedEvent 暂停事件
type SuspendedEvent struct {
	CardID          string    `json:"card_id"`
	Reason          string    `json:"reason"`
	DurationSeconds int64     `json:"duration_seconds"`
	SuspendedAt     time.Time `json:"suspended_at"`
}

func (e *SuspendedEvent) EventType() string     { return EventTypeSuspended }
func (e *SuspendedEvent) AggregateID() string   { return e.CardID }
func (e *SuspendedEvent) OccurredAt() time.Time { return e.SuspendedAt }

// ReactivatedEvent 恢复激活事件，可顺带延长有效期
type ReactivatedEvent struct {
	CardID        string     `json:"card_id"`
	Reason        string     `json:"reason,omitempty"`
	NewExpiresAt  *time.Time `json:"new_expires_at,omitempty"`
	ReactivatedAt time.Time  `json:"reactivated_at"`
}

func (e *ReactivatedEvent) EventType() string     { return EventTypeReactivated }
func (e *ReactivatedEvent) AggregateID() string   { return e.CardID }
func (e *ReactivatedEvent) OccurredAt() time.Time { return e.ReactivatedAt }

// CancelledEvent 作废事件，终态
type CancelledEvent struct {
	CardID      string    `json:"card_id"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

func (e *CancelledEvent) EventType() string     { return EventTypeCancelled }
func (e *CancelledEvent) AggregateID() string   { return e.CardID }
func (e *CancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// ExpiredEvent 过期事件，终态。过期时点的发现由外部扫描驱动，聚合只校验规则。
type ExpiredEvent struct {
	CardID    string    `json:"card_id"`
	ExpiredAt time.Time `json:"expired_at"`
}

func (e *ExpiredEvent) EventType() string     { return EventTypeExpired }
func (e *ExpiredEvent) AggregateID() string   { return e.CardID }
func (e *ExpiredEvent) OccurredAt() time.Time { return e.ExpiredAt }

// DepletedEvent 余额耗尽事件，终态。由兑换或管理性扣减在同一命令中级联产生，
// 读模型无须从余额反推耗尽。
type DepletedEvent struct {
	CardID     string    `json:"card_id"`
	DepletedAt time.Time `json:"depleted_at"`
}

func (e *DepletedEvent) EventType() string     { return EventTypeDepleted }
func (e *DepletedEvent) AggregateID() string   { return e.CardID }
func (e *DepletedEvent) OccurredAt() time.Time { return e.DepletedAt }

// UnmarshalEvent 按事件类型标签反序列化载荷
func UnmarshalEvent(eventType string, payload []byte) (Event, error) {
	var event Event
	switch eventType {
	case EventTypeCreated:
		event = &CreatedEvent{}
	case EventTypeActivated:
		event = &ActivatedEvent{}
	case EventTypeRedeemed:
		event = &RedeemedEvent{}
	case EventTypeBalanceAdjusted:
		event = &BalanceAdjustedEvent{}
	case EventTypeBalanceDecreased:
		event = &BalanceDecreasedEvent{}
	case EventTypeSuspended:
		event = &SuspendedEvent{}
	case EventTypeReactivated:
		event = &ReactivatedEvent{}
	case EventTypeCancelled:
		event = &CancelledEvent{}
	case EventTypeExpired:
		event = &ExpiredEvent{}
	case EventTypeDepleted:
		event = &DepletedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %q", eventType)
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s payload: %w", eventType, err)
	}
	return event, nil
}
