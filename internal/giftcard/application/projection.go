package application

import (
	"context"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
)

// Projection 读模型投影：从整条事件流重放聚合并刷新对应的读模型行。
// 整行重建保证投影可以随时从事件流恢复。
type Projection struct {
	store   domain.EventStore
	views   domain.ViewRepository
	queries *QueryService
}

func NewProjection(store domain.EventStore, views domain.ViewRepository, queries *QueryService) *Projection {
	return &Projection{store: store, views: views, queries: queries}
}

// Refresh 重建单张卡的读模型。调用方需在上下文中携带事件所属租户,
// 系统路径同时带审计标记，隔离校验照常生效。
func (p *Projection) Refresh(ctx context.Context, rawTenantID, rawCardID string) error {
	tenantID, err := tenant.NewID(rawTenantID)
	if err != nil {
		return err
	}
	cardID, err := domain.NewCardID(rawCardID)
	if err != nil {
		return err
	}

	ctx = tenant.WithSystemAccess(tenant.WithTenant(ctx, tenantID))

	records, err := p.store.Load(ctx, cardID.String())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return domain.ErrCardNotFound
	}

	events := make([]domain.Event, 0, len(records))
	for _, record := range records {
		event, err := record.Unmarshal()
		if err != nil {
			return err
		}
		events = append(events, event)
	}

	card, err := domain.Replay(events)
	if err != nil {
		return err
	}

	view := &domain.CardView{
		CardID:         card.ID().String(),
		TenantID:       card.TenantID().String(),
		Status:         string(card.CurrentStatus()),
		Balance:        card.Balance().Amount(),
		InitialAmount:  card.InitialAmount().Amount(),
		Currency:       card.Balance().Currency(),
		BalanceDisplay: card.Balance().Decimal().String(),
		CardNumber:     card.CardNumber(),
		IssuedAt:       card.CreatedAt(),
		ExpiresAt:      card.ExpiresAt(),
		ActivatedAt:    card.ActivatedAt(),
		SuspendedAt:    card.SuspendedAt(),
		CancelledAt:    card.CancelledAt(),
		ExpiredAt:      card.ExpiredAt(),
		DepletedAt:     card.DepletedAt(),
		Playhead:       card.Version(),
	}
	if err := p.views.Upsert(ctx, view); err != nil {
		return err
	}

	if p.queries != nil {
		p.queries.InvalidateCard(ctx, view.TenantID, view.CardID)
	}
	logger.Debug(ctx, "card view refreshed",
		"card_id", view.CardID, "tenant_id", view.TenantID, "playhead", view.Playhead)
	return nil
}
