// Package application 通知上下文的应用服务：端点管理与事件分发。
package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/notification/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/metrics"
)

// DispatchService 把礼品卡集成事件分发给租户的 Webhook 端点与实时频道。
// 投递失败只记录与计数，绝不向消费端回传错误导致事件流阻塞。
type DispatchService struct {
	endpoints domain.EndpointRepository
	sender    domain.Sender
	realtime  domain.RealtimePublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewDispatchService(endpoints domain.EndpointRepository, sender domain.Sender, realtime domain.RealtimePublisher, m *metrics.Metrics) *DispatchService {
	return &DispatchService{
		endpoints: endpoints,
		sender:    sender,
		realtime:  realtime,
		metrics:   m,
		now:       time.Now,
	}
}

// Dispatch 处理一条集成事件：payload 原样转发，签名由 Sender 负责。
func (s *DispatchService) Dispatch(ctx context.Context, tenantID, cardID, eventType string, payload []byte) error {
	if s.realtime != nil {
		if err := s.realtime.PublishStatus(ctx, tenantID, payload); err != nil {
			logger.Warn(ctx, "realtime publish failed",
				"tenant_id", tenantID, "card_id", cardID, "error", err)
		}
	}

	endpoints, err := s.endpoints.ListByTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	for _, endpoint := range endpoints {
		if !endpoint.Subscribes(eventType) {
			continue
		}
		s.deliver(ctx, endpoint, cardID, eventType, payload)
	}
	return nil
}

func (s *DispatchService) deliver(ctx context.Context, endpoint *domain.WebhookEndpoint, cardID, eventType string, payload []byte) {
	delivery := &domain.Delivery{
		EndpointID:  endpoint.EndpointID,
		TenantID:    endpoint.TenantID,
		EventType:   eventType,
		CardID:      cardID,
		Status:      domain.DeliveryStatusSent,
		DeliveredAt: s.now(),
	}

	err := s.sender.Send(ctx, endpoint.URL, endpoint.Secret, payload)
	result := "success"
	if err != nil {
		result = "failure"
		delivery.Status = domain.DeliveryStatusFailed
		delivery.ErrorMessage = err.Error()
		logger.Warn(ctx, "webhook delivery failed",
			"endpoint_id", endpoint.EndpointID, "url", endpoint.URL, "error", err)
	}
	if s.metrics != nil {
		s.metrics.WebhookDeliveriesTotal.WithLabelValues(result).Inc()
	}

	if err := s.endpoints.RecordDelivery(ctx, delivery); err != nil {
		logger.Error(ctx, "failed to record webhook delivery",
			"endpoint_id", endpoint.EndpointID, "error", err)
	}
}

// EndpointDTO 端点响应对象，不含密钥
type EndpointDTO struct {
	EndpointID string `json:"endpoint_id"`
	URL        string `json:"url"`
	EventTypes string `json:"event_types"`
	Enabled    bool   `json:"enabled"`
}

// RegisterEndpointCommand 注册端点命令
type RegisterEndpointCommand struct {
	URL        string
	Secret     string
	EventTypes string
}

// EndpointService 端点管理服务
type EndpointService struct {
	endpoints domain.EndpointRepository
}

func NewEndpointService(endpoints domain.EndpointRepository) *EndpointService {
	return &EndpointService{endpoints: endpoints}
}

// Register 为当前租户注册端点
func (s *EndpointService) Register(ctx context.Context, cmd RegisterEndpointCommand) (*EndpointDTO, error) {
	currentTenant, err := tenant.Current(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := &domain.WebhookEndpoint{
		EndpointID: uuid.NewString(),
		TenantID:   currentTenant.String(),
		URL:        cmd.URL,
		Secret:     cmd.Secret,
		EventTypes: cmd.EventTypes,
		Enabled:    true,
	}
	if err := s.endpoints.Save(ctx, endpoint); err != nil {
		return nil, err
	}
	return toEndpointDTO(endpoint), nil
}

// List 列出当前租户的端点
func (s *EndpointService) List(ctx context.Context) ([]*EndpointDTO, error) {
	currentTenant, err := tenant.Current(ctx)
	if err != nil {
		return nil, err
	}

	endpoints, err := s.endpoints.ListByTenant(ctx, currentTenant.String())
	if err != nil {
		return nil, err
	}

	dtos := make([]*EndpointDTO, 0, len(endpoints))
	for _, endpoint := range endpoints {
		dtos = append(dtos, toEndpointDTO(endpoint))
	}
	return dtos, nil
}

// Delete 删除当前租户的端点
func (s *EndpointService) Delete(ctx context.Context, endpointID string) error {
	currentTenant, err := tenant.Current(ctx)
	if err != nil {
		return err
	}
	return s.endpoints.Delete(ctx, currentTenant.String(), endpointID)
}

func toEndpointDTO(endpoint *domain.WebhookEndpoint) *EndpointDTO {
	return &EndpointDTO{
		EndpointID: endpoint.EndpointID,
		URL:        endpoint.URL,
		EventTypes: endpoint.EventTypes,
		Enabled:    endpoint.Enabled,
	}
}
