// Package consumer 通知上下文的 Kafka 消费端。
package consumer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/notification/application"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
)

// DispatchHandler 消费礼品卡集成事件并触发通知分发。
type DispatchHandler struct {
	dispatch *application.DispatchService
}

func NewDispatchHandler(dispatch *application.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatch: dispatch}
}

// Handle 单条消息处理。解析失败的消息属于毒丸，记日志后放行。
func (h *DispatchHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var envelope struct {
		EventType string `json:"event_type"`
		CardID    string `json:"card_id"`
		TenantID  string `json:"tenant_id"`
	}
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		logger.Error(ctx, "failed to unmarshal integration event for dispatch",
			"topic", msg.Topic, "error", err)
		return nil
	}
	if envelope.TenantID == "" {
		return nil
	}

	return h.dispatch.Dispatch(ctx, envelope.TenantID, envelope.CardID, envelope.EventType, msg.Value)
}
