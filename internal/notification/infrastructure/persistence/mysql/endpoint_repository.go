// Package mysql 通知上下文的持久化实现。
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/notification/domain"
)

// EndpointRepository 端点仓储的 MySQL 实现。
type EndpointRepository struct {
	db *gorm.DB
}

func NewEndpointRepository(db *gorm.DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

var _ domain.EndpointRepository = (*EndpointRepository)(nil)

func (r *EndpointRepository) Save(ctx context.Context, endpoint *domain.WebhookEndpoint) error {
	return r.db.WithContext(ctx).Save(endpoint).Error
}

func (r *EndpointRepository) Get(ctx context.Context, tenantID, endpointID string) (*domain.WebhookEndpoint, error) {
	var endpoint domain.WebhookEndpoint
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND endpoint_id = ?", tenantID, endpointID).
		First(&endpoint).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEndpointNotFound
		}
		return nil, err
	}
	return &endpoint, nil
}

func (r *EndpointRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.WebhookEndpoint, error) {
	var endpoints []*domain.WebhookEndpoint
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND enabled = ?", tenantID, true).
		Find(&endpoints).Error
	if err != nil {
		return nil, err
	}
	return endpoints, nil
}

func (r *EndpointRepository) Delete(ctx context.Context, tenantID, endpointID string) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND endpoint_id = ?", tenantID, endpointID).
		Delete(&domain.WebhookEndpoint{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEndpointNotFound
	}
	return nil
}

func (r *EndpointRepository) RecordDelivery(ctx context.Context, delivery *domain.Delivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}
