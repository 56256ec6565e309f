package domain

import (
	"errors"
	"fmt"
)

// 构造期校验错误，命令到达聚合前就被拒绝
var (
	ErrInvalidCardID       = errors.New("invalid gift card id")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
	ErrCurrencyMismatch    = errors.New("currency mismatch")
	ErrNegativeBalance     = errors.New("subtraction would produce a negative amount")
	ErrEmptyReason         = errors.New("reason must not be empty")
	ErrInvalidDuration     = errors.New("suspension duration must be positive")
	ErrNotYetExpired       = errors.New("expiry date not reached")
	ErrCardNotFound        = errors.New("gift card not found")
)

// InvalidStateTransitionError 命令在当前状态下不可用
type InvalidStateTransitionError struct {
	Command string
	Status  Status
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a gift card in status %s", e.Command, e.Status)
}

// InsufficientBalanceError 余额不足
type InsufficientBalanceError struct {
	Requested Money
	Available Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s", e.Requested, e.Available)
}

// ConcurrencyConflictError 乐观并发冲突，存储版本已超过期望版本。
// 处理端重新加载聚合后重试即可恢复。
type ConcurrencyConflictError struct {
	AggregateID     string
	ExpectedVersion int64
	ActualVersion   int64
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict on aggregate %s: expected version %d, stored version %d",
		e.AggregateID, e.ExpectedVersion, e.ActualVersion)
}

// TenantMismatchError 租户隔离违规，事件的租户与当前租户不一致，
// 或者事件缺失租户元数据（数据完整性问题）。始终向上传播并记录双方租户以供审计。
type TenantMismatchError struct {
	AggregateID   string
	Sequence      int64
	EventTenant   string
	ContextTenant string
}

func (e *TenantMismatchError) Error() string {
	if e.EventTenant == "" {
		return fmt.Sprintf("tenant metadata missing on aggregate %s event %d", e.AggregateID, e.Sequence)
	}
	return fmt.Sprintf("tenant mismatch on aggregate %s event %d: stored %s, current %s",
		e.AggregateID, e.Sequence, e.EventTenant, e.ContextTenant)
}
