// Package consumer 礼品卡 Kafka 消费端。
package consumer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/application"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
)

// ProjectionTopics 投影消费者订阅的全部集成事件主题
var ProjectionTopics = []string{
	"giftcard.created",
	"giftcard.activated",
	"giftcard.redeemed",
	"giftcard.balance_adjusted",
	"giftcard.balance_decreased",
	"giftcard.suspended",
	"giftcard.reactivated",
	"giftcard.cancelled",
	"giftcard.expired",
	"giftcard.depleted",
}

// ProjectionHandler 消费集成事件并刷新读模型。
type ProjectionHandler struct {
	projection *application.Projection
}

func NewProjectionHandler(projection *application.Projection) *ProjectionHandler {
	return &ProjectionHandler{projection: projection}
}

// Handle 单条消息处理。投影整行重建，天然幂等，重复投递无副作用。
func (h *ProjectionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var envelope struct {
		EventType string `json:"event_type"`
		CardID    string `json:"card_id"`
		TenantID  string `json:"tenant_id"`
	}
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		logger.Error(ctx, "failed to unmarshal integration event", "topic", msg.Topic, "error", err)
		return err
	}
	if envelope.CardID == "" || envelope.TenantID == "" {
		logger.Warn(ctx, "integration event missing identifiers", "topic", msg.Topic)
		return nil
	}

	return h.projection.Refresh(ctx, envelope.TenantID, envelope.CardID)
}
