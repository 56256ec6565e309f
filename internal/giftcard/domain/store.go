package domain

import (
	"context"
	"time"
)

// MetadataTenantKey 事件元数据中租户 ID 的键名
const MetadataTenantKey = "tenant_id"

// Metadata 事件元数据，可扩展键值对，至少承载租户 ID
type Metadata map[string]string

// Clone 拷贝元数据，避免装饰器修改调用方的 map
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RecordedEvent 已持久化的事件记录。字段集对重放兼容性保持稳定，
// 模式演进只允许新增事件类型，不允许改变既有字段含义。
type RecordedEvent struct {
	AggregateID string
	// Sequence 每个聚合内严格递增且无空洞
	Sequence   int64
	EventType  string
	Payload    []byte
	Metadata   Metadata
	RecordedAt time.Time
}

// Unmarshal 将记录还原为领域事件
func (r RecordedEvent) Unmarshal() (Event, error) {
	return UnmarshalEvent(r.EventType, r.Payload)
}

// EventStore 追加式事件存储。Append 在事件落盘后才返回成功；
// expectedVersion 为追加前聚合的播放头（空聚合为 -1），
// 存储版本超前时返回 ConcurrencyConflictError。
type EventStore interface {
	Append(ctx context.Context, aggregateID string, expectedVersion int64, events []Event, metadata Metadata) error
	Load(ctx context.Context, aggregateID string) ([]RecordedEvent, error)
	// LoadFromVersion 从指定序号（含）开始的部分流，用于快照优化
	LoadFromVersion(ctx context.Context, aggregateID string, fromVersion int64) ([]RecordedEvent, error)
}
