// Package application 协调领域聚合与基础设施，承载礼品卡用例。
package application

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/contextx"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/metrics"
)

// 集成事件主题，按事件类型划分
var eventTopics = map[string]string{
	domain.EventTypeCreated:          "giftcard.created",
	domain.EventTypeActivated:        "giftcard.activated",
	domain.EventTypeRedeemed:         "giftcard.redeemed",
	domain.EventTypeBalanceAdjusted:  "giftcard.balance_adjusted",
	domain.EventTypeBalanceDecreased: "giftcard.balance_decreased",
	domain.EventTypeSuspended:        "giftcard.suspended",
	domain.EventTypeReactivated:      "giftcard.reactivated",
	domain.EventTypeCancelled:        "giftcard.cancelled",
	domain.EventTypeExpired:          "giftcard.expired",
	domain.EventTypeDepleted:         "giftcard.depleted",
}

// IntegrationEvent 发往消息队列的集成事件信封
type IntegrationEvent struct {
	EventType  string       `json:"event_type"`
	CardID     string       `json:"card_id"`
	TenantID   string       `json:"tenant_id"`
	OccurredAt time.Time    `json:"occurred_at"`
	Payload    domain.Event `json:"payload"`
}

// CommandService 礼品卡命令服务。每个命令在单个数据库事务内完成
// 加载、领域决策、事件追加与 Outbox 写出。
type CommandService struct {
	repo      domain.Repository
	publisher domain.EventPublisher
	db        *gorm.DB
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewCommandService(repo domain.Repository, publisher domain.EventPublisher, db *gorm.DB, m *metrics.Metrics) *CommandService {
	return &CommandService{
		repo:      repo,
		publisher: publisher,
		db:        db,
		metrics:   m,
		now:       time.Now,
	}
}

// IssueCard 发卡
func (s *CommandService) IssueCard(ctx context.Context, cmd IssueCardCommand) (*CardDTO, error) {
	currentTenant, err := tenant.Current(ctx)
	if err != nil {
		return nil, err
	}

	amount, err := domain.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}

	card, err := domain.Create(domain.GenerateCardID(), currentTenant, amount, cmd.CardNumber, cmd.PIN, s.now(), cmd.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := s.commit(ctx, card); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CardsIssuedTotal.Inc()
	}
	logger.Info(ctx, "gift card issued",
		"card_id", card.ID().String(), "tenant_id", currentTenant.String(), "amount", amount.String())
	return toCardDTO(card), nil
}

// ActivateCard 激活
func (s *CommandService) ActivateCard(ctx context.Context, cmd ActivateCardCommand) (*CardDTO, error) {
	return s.execute(ctx, cmd.CardID, func(card *domain.GiftCard) error {
		return card.Activate(s.now())
	})
}

// Redeem 客户兑换
func (s *CommandService) Redeem(ctx context.Context, cmd RedeemCommand) (*CardDTO, error) {
	amount, err := domain.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	dto, err := s.execute(ctx, cmd.CardID, func(card *domain.GiftCard) error {
		return card.Redeem(amount, s.now())
	})
	if err == nil && s.metrics != nil {
		s.metrics.RedemptionsTotal.Inc()
	}
	return dto, err
}

// AdjustBalance 管理性增加余额
func (s *CommandService) AdjustBalance(ctx context.Context, cmd AdjustBalanceCommand) (*CardDTO, error) {
	delta, err := domain.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, cmd.CardID, func(card *domain.GiftCard) error {
		return card.AdjustBalance(delta, cmd.Reason, s.now())
	})
}

// DecreaseBalance 管理性扣减余额
func (s *CommandService) DecreaseBalance(ctx context.Context, cmd DecreaseBalanceCommand) (*CardDTO, error) {
	amount, err := domain.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, cmd.CardID, func(card *domain.GiftCard) error {
		return card.DecreaseBalance(amount, cmd.Reason, s.now())
	})
}

// SuspendCard 暂停
func (s *CommandService) SuspendCard(ctx context.Context, cmd SuspendCardCommand) (*CardDTO, error) {
	return s.execute(ctx, cmd.CardID, func(card *domain.GiftCard) error {
		return card.Suspend(cmd.Reason, s.now(), cmd.DurationSeconds)
	})
}

// ReactivateCard 恢复激活
func (s *CommandService) ReactivateCard(ctx context.Context, cmd ReactivateCardCommand) (*CardDTO, error) {
	return s.execute(ctx, cmd.CardID, func(card *domain.GiftCard) error {
		return card.Reactivate(cmd.Reason, s.now(), cmd.NewExpiresAt)
	})
}

// CancelCard 作废
func (s *CommandService) CancelCard(ctx context.Context, cmd CancelCardCommand) (*CardDTO, error) {
	return s.execute(ctx, cmd.CardID, func(card *domain.GiftCard) error {
		return card.Cancel(cmd.Reason, s.now())
	})
}

// ExpireCard 标记过期。由过期扫描在带审计标记的租户上下文中调用。
func (s *CommandService) ExpireCard(ctx context.Context, cmd ExpireCardCommand) (*CardDTO, error) {
	return s.execute(ctx, cmd.CardID, func(card *domain.GiftCard) error {
		return card.Expire(cmd.ExpiredAt)
	})
}

// execute 通用命令流程：加载聚合、执行领域操作、提交。
func (s *CommandService) execute(ctx context.Context, rawCardID string, op func(*domain.GiftCard) error) (*CardDTO, error) {
	cardID, err := domain.NewCardID(rawCardID)
	if err != nil {
		return nil, err
	}

	var card *domain.GiftCard
	err = s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)

		card, err = s.repo.Get(txCtx, cardID)
		if err != nil {
			return err
		}
		if err := op(card); err != nil {
			return err
		}
		return s.save(txCtx, tx, card)
	})
	if err != nil {
		return nil, err
	}
	return toCardDTO(card), nil
}

// commit 新聚合的提交流程，与 execute 共享保存逻辑。
func (s *CommandService) commit(ctx context.Context, card *domain.GiftCard) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return s.save(txCtx, tx, card)
	})
}

func (s *CommandService) save(ctx context.Context, tx *gorm.DB, card *domain.GiftCard) error {
	uncommitted := card.UncommittedEvents()

	if err := s.repo.Save(ctx, card); err != nil {
		var conflict *domain.ConcurrencyConflictError
		if errors.As(err, &conflict) && s.metrics != nil {
			s.metrics.ConcurrencyConflictsTotal.Inc()
		}
		return err
	}

	for _, event := range uncommitted {
		topic, ok := eventTopics[event.EventType()]
		if !ok {
			continue
		}
		envelope := IntegrationEvent{
			EventType:  event.EventType(),
			CardID:     card.ID().String(),
			TenantID:   card.TenantID().String(),
			OccurredAt: event.OccurredAt(),
			Payload:    event,
		}
		if err := s.publisher.PublishInTx(ctx, tx, topic, card.ID().String(), envelope); err != nil {
			return err
		}
	}
	return nil
}
