package mysql

import (
	"encoding/json"
	"time"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
)

// EventPO 礼品卡事件存储对象。
// (aggregate_id, sequence) 上的唯一索引保证每个聚合的事件序列无空洞,
// 并在并发追加时由数据库兜底检测冲突。
type EventPO struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	AggregateID string    `gorm:"column:aggregate_id;type:varchar(36);not null;uniqueIndex:idx_aggregate_sequence,priority:1;comment:聚合ID"`
	Sequence    int64     `gorm:"column:sequence;not null;uniqueIndex:idx_aggregate_sequence,priority:2;comment:事件序号"`
	EventType   string    `gorm:"column:event_type;type:varchar(64);not null;comment:事件类型"`
	Payload     string    `gorm:"column:payload;type:json;not null;comment:事件负载"`
	Metadata    string    `gorm:"column:metadata;type:json;not null;comment:事件元数据"`
	RecordedAt  time.Time `gorm:"column:recorded_at;not null;comment:落库时间"`
}

func (EventPO) TableName() string { return "gift_card_events" }

func toEventPO(aggregateID string, sequence int64, event domain.Event, metadata domain.Metadata, recordedAt time.Time) (*EventPO, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		metadata = domain.Metadata{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return &EventPO{
		AggregateID: aggregateID,
		Sequence:    sequence,
		EventType:   event.EventType(),
		Payload:     string(payload),
		Metadata:    string(meta),
		RecordedAt:  recordedAt,
	}, nil
}

func toRecordedEvent(po *EventPO) (domain.RecordedEvent, error) {
	metadata := domain.Metadata{}
	if po.Metadata != "" {
		if err := json.Unmarshal([]byte(po.Metadata), &metadata); err != nil {
			return domain.RecordedEvent{}, err
		}
	}
	return domain.RecordedEvent{
		AggregateID: po.AggregateID,
		Sequence:    po.Sequence,
		EventType:   po.EventType,
		Payload:     []byte(po.Payload),
		Metadata:    metadata,
		RecordedAt:  po.RecordedAt,
	}, nil
}
