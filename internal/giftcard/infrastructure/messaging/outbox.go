// Package messaging 实现基于 Outbox 模式的集成事件发布。
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/contextx"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/metrics"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/mq"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
)

// OutboxMessage 待外发的集成事件，与领域事件同事务落库。
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Topic     string    `gorm:"type:varchar(100);not null;index"`
	Key       string    `gorm:"column:message_key;type:varchar(100);not null"`
	Payload   string    `gorm:"type:text;not null"`
	Status    string    `gorm:"type:varchar(20);not null;index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (OutboxMessage) TableName() string { return "gift_card_outbox_messages" }

// OutboxPublisher 实现 EventPublisher：事务内写 Outbox 行,
// 由独立的 Relay 周期性投递到 Kafka。
type OutboxPublisher struct {
	db *gorm.DB
}

func NewOutboxPublisher(db *gorm.DB) *OutboxPublisher {
	return &OutboxPublisher{db: db}
}

var _ domain.EventPublisher = (*OutboxPublisher)(nil)

func (p *OutboxPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	db := p.db
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		db = tx
	}
	return p.publish(ctx, db, topic, key, event)
}

func (p *OutboxPublisher) PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error {
	db, ok := tx.(*gorm.DB)
	if !ok {
		db = p.db
	}
	return p.publish(ctx, db, topic, key, event)
}

func (p *OutboxPublisher) publish(ctx context.Context, db *gorm.DB, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	message := &OutboxMessage{
		ID:      uuid.NewString(),
		Topic:   topic,
		Key:     key,
		Payload: string(payload),
		Status:  statusPending,
	}
	return db.WithContext(ctx).Create(message).Error
}

// OutboxRelay 轮询 Outbox 表，把待投递消息送入 Kafka。
type OutboxRelay struct {
	db        *gorm.DB
	producer  *mq.Producer
	metrics   *metrics.Metrics
	interval  time.Duration
	batchSize int
}

func NewOutboxRelay(db *gorm.DB, producer *mq.Producer, m *metrics.Metrics, interval time.Duration, batchSize int) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{db: db, producer: producer, metrics: m, interval: interval, batchSize: batchSize}
}

// Run 阻塞运行直到 ctx 取消。投递失败的消息保持 pending，下轮重试。
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.relayBatch(ctx); err != nil {
				logger.Error(ctx, "outbox relay batch failed", "error", err)
			}
		}
	}
}

func (r *OutboxRelay) relayBatch(ctx context.Context) error {
	var messages []OutboxMessage
	if err := r.db.WithContext(ctx).
		Where("status = ?", statusPending).
		Order("created_at ASC").
		Limit(r.batchSize).
		Find(&messages).Error; err != nil {
		return err
	}

	for _, message := range messages {
		if err := r.producer.SendRaw(ctx, message.Topic, message.Key, []byte(message.Payload)); err != nil {
			logger.Warn(ctx, "outbox message delivery failed",
				"message_id", message.ID, "topic", message.Topic, "error", err)
			continue
		}
		if err := r.db.WithContext(ctx).Model(&OutboxMessage{}).
			Where("id = ?", message.ID).
			Update("status", statusSent).Error; err != nil {
			return err
		}
		if r.metrics != nil {
			r.metrics.OutboxPublishedTotal.Inc()
		}
	}
	return nil
}

// Cleanup 删除投递完成且早于 before 的消息。
func (r *OutboxRelay) Cleanup(ctx context.Context, before time.Time) error {
	return r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", statusSent, before).
		Delete(&OutboxMessage{}).Error
}
