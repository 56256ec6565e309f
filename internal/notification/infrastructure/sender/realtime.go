package sender

import (
	"context"
	"fmt"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/notification/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/cache"
)

// RealtimePublisher 通过 Redis Pub/Sub 按租户频道推送状态变更,
// 供商户前端实时订阅。
type RealtimePublisher struct {
	cache *cache.RedisCache
}

func NewRealtimePublisher(c *cache.RedisCache) domain.RealtimePublisher {
	return &RealtimePublisher{cache: c}
}

func (p *RealtimePublisher) PublishStatus(ctx context.Context, tenantID string, payload []byte) error {
	return p.cache.Publish(ctx, fmt.Sprintf("giftcard.status.%s", tenantID), payload)
}
