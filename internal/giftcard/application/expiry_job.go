package application

import (
	"context"
	"errors"
	"time"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
)

// ExpiryJob 过期扫描。读模型跨租户找出已过有效期的卡,
// 再逐卡切换到卡所属租户的上下文执行过期命令。
type ExpiryJob struct {
	views     domain.ViewRepository
	commands  *CommandService
	batchSize int
	now       func() time.Time
}

func NewExpiryJob(views domain.ViewRepository, commands *CommandService, batchSize int) *ExpiryJob {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &ExpiryJob{views: views, commands: commands, batchSize: batchSize, now: time.Now}
}

// Run 执行一轮扫描。单卡失败只记日志，不中断整轮。
func (j *ExpiryJob) Run(ctx context.Context) {
	now := j.now()
	candidates, err := j.views.ListExpirable(ctx, now, j.batchSize)
	if err != nil {
		logger.Error(ctx, "expiry sweep listing failed", "error", err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	expired := 0
	for _, view := range candidates {
		tenantID, err := tenant.NewID(view.TenantID)
		if err != nil {
			logger.Error(ctx, "expiry sweep found view with invalid tenant",
				"card_id", view.CardID, "tenant_id", view.TenantID)
			continue
		}
		cardCtx := tenant.WithSystemAccess(tenant.WithTenant(ctx, tenantID))

		_, err = j.commands.ExpireCard(cardCtx, ExpireCardCommand{CardID: view.CardID, ExpiredAt: now})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, domain.ErrNotYetExpired):
			// 读模型可能滞后于延长有效期的事件，跳过即可。
		default:
			var transition *domain.InvalidStateTransitionError
			if errors.As(err, &transition) {
				// 卡已在别处进入终态，投影尚未跟上。
				continue
			}
			logger.Error(cardCtx, "expiry sweep failed for card", "card_id", view.CardID, "error", err)
		}
	}

	logger.Info(ctx, "expiry sweep completed", "candidates", len(candidates), "expired", expired)
}
