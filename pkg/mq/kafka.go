// Package mq 提供 Kafka producer/consumer 通用实现，支持重试与消费处理循环
package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
)

// Config Kafka 配置
type Config struct {
	Brokers        []string
	GroupID        string
	SessionTimeout int
	MaxRetries     int
	RetryBackoff   int
}

// Producer Kafka 生产者
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg Config) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        time.Duration(cfg.RetryBackoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(cfg.RetryBackoff*10) * time.Millisecond,
	}

	logger.Info(context.Background(), "kafka producer created", "brokers", cfg.Brokers)
	return &Producer{writer: writer}
}

// Send 发送单条消息，value 将被序列化为 JSON
func (p *Producer) Send(ctx context.Context, topic string, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.SendRaw(ctx, topic, key, data)
}

// SendRaw 发送已序列化的消息体
func (p *Producer) SendRaw(ctx context.Context, topic string, key string, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "failed to send kafka message", "topic", topic, "key", key, "error", err)
		return err
	}

	logger.Debug(ctx, "kafka message sent", "topic", topic, "key", key)
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Handler 消费处理函数
type Handler func(ctx context.Context, msg kafka.Message) error

// Consumer Kafka 消费者，按 topic 列表消费并分发到 Handler
type Consumer struct {
	reader  *kafka.Reader
	handler Handler
}

// NewConsumer 创建 Kafka 消费者
func NewConsumer(cfg Config, topics []string, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupTopics:    topics,
		GroupID:        cfg.GroupID,
		SessionTimeout: time.Duration(cfg.SessionTimeout) * time.Second,
		StartOffset:    kafka.LastOffset,
		MaxBytes:       10e6,
	})

	logger.Info(context.Background(), "kafka consumer created",
		"brokers", cfg.Brokers,
		"topics", topics,
		"group_id", cfg.GroupID,
	)
	return &Consumer{reader: reader, handler: handler}
}

// Run 持续消费直到 context 取消。处理失败的消息记录日志后仍然提交，
// 投递语义为 at-least-once，重试由消费方自身负责。
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := c.handler(ctx, msg); err != nil {
			logger.Error(ctx, "message handling failed",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "failed to commit offset", "topic", msg.Topic, "error", err)
		}
	}
}

// Close 关闭消费者
func (c *Consumer) Close() error {
	return c.reader.Close()
}
