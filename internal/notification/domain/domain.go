// Package domain 通知上下文的领域模型：Webhook 端点订阅与投递记录。
package domain

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DeliveryStatus 投递状态
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "SENT"
	DeliveryStatusFailed DeliveryStatus = "FAILED"
)

// WebhookEndpoint 租户注册的 Webhook 端点。
// EventTypes 为逗号分隔的订阅事件类型列表，为空表示订阅全部。
type WebhookEndpoint struct {
	gorm.Model
	// 端点 ID
	EndpointID string `gorm:"column:endpoint_id;type:varchar(36);uniqueIndex;not null" json:"endpoint_id"`
	// 所属租户
	TenantID string `gorm:"column:tenant_id;type:varchar(36);index;not null" json:"tenant_id"`
	// 回调地址
	URL string `gorm:"column:url;type:varchar(500);not null" json:"url"`
	// 签名密钥，响应中不回显
	Secret string `gorm:"column:secret;type:varchar(100);not null" json:"-"`
	// 订阅的事件类型
	EventTypes string `gorm:"column:event_types;type:varchar(500)" json:"event_types"`
	// 是否启用
	Enabled bool `gorm:"column:enabled;not null;default:true" json:"enabled"`
}

// TableName 指定表名
func (WebhookEndpoint) TableName() string {
	return "webhook_endpoints"
}

// Subscribes 判断端点是否订阅了给定事件类型
func (e *WebhookEndpoint) Subscribes(eventType string) bool {
	if strings.TrimSpace(e.EventTypes) == "" {
		return true
	}
	for _, t := range strings.Split(e.EventTypes, ",") {
		if strings.TrimSpace(t) == eventType {
			return true
		}
	}
	return false
}

// Delivery 单次 Webhook 投递记录，保留失败原因供排查
type Delivery struct {
	gorm.Model
	// 端点 ID
	EndpointID string `gorm:"column:endpoint_id;type:varchar(36);index;not null" json:"endpoint_id"`
	// 所属租户
	TenantID string `gorm:"column:tenant_id;type:varchar(36);index;not null" json:"tenant_id"`
	// 事件类型
	EventType string `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	// 关联卡 ID
	CardID string `gorm:"column:card_id;type:varchar(36);index" json:"card_id"`
	// 投递状态
	Status DeliveryStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	// 失败原因
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	// 投递时间
	DeliveredAt time.Time `gorm:"column:delivered_at;not null" json:"delivered_at"`
}

// TableName 指定表名
func (Delivery) TableName() string {
	return "webhook_deliveries"
}

// EndpointRepository 端点仓储接口
type EndpointRepository interface {
	// Save 保存或更新端点
	Save(ctx context.Context, endpoint *WebhookEndpoint) error
	// Get 按端点 ID 与租户获取
	Get(ctx context.Context, tenantID, endpointID string) (*WebhookEndpoint, error)
	// ListByTenant 列出租户全部启用端点
	ListByTenant(ctx context.Context, tenantID string) ([]*WebhookEndpoint, error)
	// Delete 删除端点
	Delete(ctx context.Context, tenantID, endpointID string) error
	// RecordDelivery 落投递记录
	RecordDelivery(ctx context.Context, delivery *Delivery) error
}

// Sender Webhook 发送接口，实现方负责签名
type Sender interface {
	Send(ctx context.Context, url string, secret string, payload []byte) error
}

// RealtimePublisher 实时状态推送接口
type RealtimePublisher interface {
	PublishStatus(ctx context.Context, tenantID string, payload []byte) error
}
