package application

import "time"

// 命令对象只携带原始数据，金额等值对象在服务内构造并校验。

// IssueCardCommand 发卡命令
type IssueCardCommand struct {
	Amount     int64
	Currency   string
	CardNumber string
	PIN        string
	ExpiresAt  *time.Time
}

// ActivateCardCommand 激活命令
type ActivateCardCommand struct {
	CardID string
}

// RedeemCommand 客户兑换命令
type RedeemCommand struct {
	CardID   string
	Amount   int64
	Currency string
}

// AdjustBalanceCommand 管理性增加余额命令
type AdjustBalanceCommand struct {
	CardID   string
	Amount   int64
	Currency string
	Reason   string
}

// DecreaseBalanceCommand 管理性扣减余额命令
type DecreaseBalanceCommand struct {
	CardID   string
	Amount   int64
	Currency string
	Reason   string
}

// SuspendCardCommand 暂停命令
type SuspendCardCommand struct {
	CardID          string
	Reason          string
	DurationSeconds int64
}

// ReactivateCardCommand 恢复激活命令
type ReactivateCardCommand struct {
	CardID       string
	Reason       string
	NewExpiresAt *time.Time
}

// CancelCardCommand 作废命令
type CancelCardCommand struct {
	CardID string
	Reason string
}

// ExpireCardCommand 过期命令，仅由过期扫描等系统路径触发
type ExpireCardCommand struct {
	CardID    string
	ExpiredAt time.Time
}
