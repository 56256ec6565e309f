package domain

import (
	"context"
)

// Repository 礼品卡聚合仓储：从事件流重建聚合，追加未提交事件
type Repository interface {
	// Get 加载并重建聚合，不存在时返回 ErrCardNotFound
	Get(ctx context.Context, id CardID) (*GiftCard, error)
	// Save 以乐观并发追加未提交事件，成功后清空暂存
	Save(ctx context.Context, card *GiftCard) error
}

// EventPublisher 集成事件发布接口，实现方保证与事件追加同事务写出（Outbox）
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}
