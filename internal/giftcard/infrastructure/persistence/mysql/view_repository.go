package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewRepository 读模型仓储的 MySQL 实现。
type ViewRepository struct {
	db *gorm.DB
}

func NewViewRepository(db *gorm.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

var _ domain.ViewRepository = (*ViewRepository)(nil)

func (r *ViewRepository) Upsert(ctx context.Context, view *domain.CardView) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "card_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tenant_id", "status", "balance", "initial_amount", "currency",
			"balance_display", "card_number", "issued_at", "expires_at",
			"activated_at", "suspended_at", "cancelled_at", "expired_at",
			"depleted_at", "playhead", "updated_at",
		}),
	}).Create(view).Error
}

func (r *ViewRepository) Get(ctx context.Context, tenantID string, cardID string) (*domain.CardView, error) {
	var view domain.CardView
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND card_id = ?", tenantID, cardID).
		First(&view).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}
	return &view, nil
}

func (r *ViewRepository) List(ctx context.Context, tenantID string, status string, limit, offset int) ([]*domain.CardView, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.CardView{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var views []*domain.CardView
	if err := query.Order("issued_at DESC").Limit(limit).Offset(offset).Find(&views).Error; err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (r *ViewRepository) ListExpirable(ctx context.Context, before time.Time, limit int) ([]*domain.CardView, error) {
	var views []*domain.CardView
	err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", before).
		Where("status IN ?", []string{string(domain.StatusActive), string(domain.StatusInactive)}).
		Order("expires_at ASC").
		Limit(limit).
		Find(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}
