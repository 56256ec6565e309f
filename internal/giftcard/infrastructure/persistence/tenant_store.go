// Package persistence 提供事件存储装饰器与事件溯源仓储。
package persistence

import (
	"context"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/metrics"
)

// TenantEventStore 租户感知事件存储装饰器。
// 写入时把当前租户 ID 盖进事件元数据，读取时逐条校验归属,
// 缺失租户上下文或归属不符都会拒绝，绝不绕过隔离检查。
// 系统路径（投影重建、过期扫描）同样带租户上下文经过本装饰器,
// 仅附加审计日志标记。
type TenantEventStore struct {
	inner   domain.EventStore
	metrics *metrics.Metrics
}

func NewTenantEventStore(inner domain.EventStore, m *metrics.Metrics) *TenantEventStore {
	return &TenantEventStore{inner: inner, metrics: m}
}

var _ domain.EventStore = (*TenantEventStore)(nil)

func (s *TenantEventStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, events []domain.Event, metadata domain.Metadata) error {
	current, err := tenant.Current(ctx)
	if err != nil {
		return tenant.ErrTenantContextNotSet
	}

	stamped := metadata.Clone()
	stamped[domain.MetadataTenantKey] = current.String()

	s.auditSystemAccess(ctx, "append", aggregateID, current)
	return s.inner.Append(ctx, aggregateID, expectedVersion, events, stamped)
}

func (s *TenantEventStore) Load(ctx context.Context, aggregateID string) ([]domain.RecordedEvent, error) {
	return s.LoadFromVersion(ctx, aggregateID, 0)
}

func (s *TenantEventStore) LoadFromVersion(ctx context.Context, aggregateID string, fromVersion int64) ([]domain.RecordedEvent, error) {
	current, err := tenant.Current(ctx)
	if err != nil {
		return nil, tenant.ErrTenantContextNotSet
	}

	s.auditSystemAccess(ctx, "load", aggregateID, current)

	records, err := s.inner.LoadFromVersion(ctx, aggregateID, fromVersion)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if err := s.verify(ctx, record, current); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *TenantEventStore) verify(ctx context.Context, record domain.RecordedEvent, current tenant.ID) error {
	stored, ok := record.Metadata[domain.MetadataTenantKey]
	if !ok || stored == "" {
		s.reportViolation(ctx, record, "", current)
		return &domain.TenantMismatchError{
			AggregateID: record.AggregateID,
			Sequence:    record.Sequence,
		}
	}
	if stored != current.String() {
		s.reportViolation(ctx, record, stored, current)
		return &domain.TenantMismatchError{
			AggregateID:   record.AggregateID,
			Sequence:      record.Sequence,
			EventTenant:   stored,
			ContextTenant: current.String(),
		}
	}
	return nil
}

func (s *TenantEventStore) reportViolation(ctx context.Context, record domain.RecordedEvent, stored string, current tenant.ID) {
	if s.metrics != nil {
		s.metrics.TenantViolationsTotal.Inc()
	}
	logger.Error(ctx, "tenant isolation violation",
		"aggregate_id", record.AggregateID,
		"sequence", record.Sequence,
		"event_tenant", stored,
		"context_tenant", current.String(),
	)
}

func (s *TenantEventStore) auditSystemAccess(ctx context.Context, op string, aggregateID string, current tenant.ID) {
	if tenant.IsSystemAccess(ctx) {
		logger.Info(ctx, "system access to event store",
			"operation", op,
			"aggregate_id", aggregateID,
			"tenant_id", current.String(),
		)
	}
}
