package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// CardView 礼品卡读模型：从领域事件投影得到的反范式化查询行，
// 可随时从事件流整体重建。
type CardView struct {
	gorm.Model
	// 礼品卡 ID（业务主键）
	CardID string `gorm:"column:card_id;type:varchar(36);uniqueIndex;not null" json:"card_id"`
	// 所属租户
	TenantID string `gorm:"column:tenant_id;type:varchar(36);index;not null" json:"tenant_id"`
	// 状态
	Status string `gorm:"column:status;type:varchar(16);index;not null" json:"status"`
	// 当前余额（最小单位）
	Balance int64 `gorm:"column:balance;not null" json:"balance"`
	// 发卡面额（最小单位）
	InitialAmount int64 `gorm:"column:initial_amount;not null" json:"initial_amount"`
	// 货币代码
	Currency string `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	// 主单位余额的十进制展示，如 "10.00"
	BalanceDisplay string `gorm:"column:balance_display;type:varchar(32);not null" json:"balance_display"`
	// 实体卡号
	CardNumber string `gorm:"column:card_number;type:varchar(32)" json:"card_number,omitempty"`
	// 发卡时间
	IssuedAt time.Time `gorm:"column:issued_at;not null" json:"issued_at"`
	// 有效期
	ExpiresAt *time.Time `gorm:"column:expires_at;index" json:"expires_at,omitempty"`
	// 激活时间
	ActivatedAt *time.Time `gorm:"column:activated_at" json:"activated_at,omitempty"`
	// 暂停时间
	SuspendedAt *time.Time `gorm:"column:suspended_at" json:"suspended_at,omitempty"`
	// 作废时间
	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	// 过期时间
	ExpiredAt *time.Time `gorm:"column:expired_at" json:"expired_at,omitempty"`
	// 耗尽时间
	DepletedAt *time.Time `gorm:"column:depleted_at" json:"depleted_at,omitempty"`
	// 播放头，标记投影进度
	Playhead int64 `gorm:"column:playhead;not null" json:"playhead"`
}

// TableName 指定表名
func (CardView) TableName() string {
	return "gift_card_views"
}

// ViewRepository 读模型仓储接口
type ViewRepository interface {
	// Upsert 写入或更新一行读模型
	Upsert(ctx context.Context, view *CardView) error
	// Get 按卡 ID 与租户查询，不存在时返回 ErrCardNotFound
	Get(ctx context.Context, tenantID string, cardID string) (*CardView, error)
	// List 按租户分页查询，status 为空时不过滤
	List(ctx context.Context, tenantID string, status string, limit, offset int) ([]*CardView, int64, error)
	// ListExpirable 跨租户扫描已过有效期但仍处于可过期状态的卡，供过期扫描使用
	ListExpirable(ctx context.Context, before time.Time, limit int) ([]*CardView, error)
}
