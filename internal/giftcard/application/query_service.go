package application

import (
	"context"
	"fmt"
	"time"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/cache"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
)

const cardCacheTTL = 5 * time.Minute

// QueryService 礼品卡查询服务，走读模型并以 Redis 做旁路缓存。
// 缓存故障只记日志，查询继续落库。
type QueryService struct {
	views domain.ViewRepository
	cache *cache.RedisCache
}

func NewQueryService(views domain.ViewRepository, c *cache.RedisCache) *QueryService {
	return &QueryService{views: views, cache: c}
}

// GetCard 按卡 ID 查询当前租户的礼品卡
func (s *QueryService) GetCard(ctx context.Context, cardID string) (*CardDTO, error) {
	currentTenant, err := tenant.Current(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := domain.NewCardID(cardID); err != nil {
		return nil, err
	}

	key := cardCacheKey(currentTenant.String(), cardID)
	if s.cache != nil {
		var cached CardDTO
		found, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			logger.Warn(ctx, "card cache read failed", "card_id", cardID, "error", err)
		} else if found {
			return &cached, nil
		}
	}

	view, err := s.views.Get(ctx, currentTenant.String(), cardID)
	if err != nil {
		return nil, err
	}

	dto := viewToDTO(view)
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, dto, cardCacheTTL); err != nil {
			logger.Warn(ctx, "card cache write failed", "card_id", cardID, "error", err)
		}
	}
	return dto, nil
}

// ListCards 分页列出当前租户的礼品卡，status 为空时不过滤
func (s *QueryService) ListCards(ctx context.Context, status string, page, pageSize int) ([]*CardDTO, int64, error) {
	currentTenant, err := tenant.Current(ctx)
	if err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	views, total, err := s.views.List(ctx, currentTenant.String(), status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]*CardDTO, 0, len(views))
	for _, view := range views {
		dtos = append(dtos, viewToDTO(view))
	}
	return dtos, total, nil
}

// InvalidateCard 在投影更新后使缓存失效
func (s *QueryService) InvalidateCard(ctx context.Context, tenantID, cardID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cardCacheKey(tenantID, cardID)); err != nil {
		logger.Warn(ctx, "card cache invalidation failed", "card_id", cardID, "error", err)
	}
}

func cardCacheKey(tenantID, cardID string) string {
	return fmt.Sprintf("giftcard:view:%s:%s", tenantID, cardID)
}
