// Package memory 提供内存版事件存储，用于单元测试与本地开发。
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
)

// EventStore 线程安全的内存事件存储，语义与 MySQL 实现保持一致。
type EventStore struct {
	mu      sync.RWMutex
	streams map[string][]domain.RecordedEvent
}

func NewEventStore() *EventStore {
	return &EventStore{streams: make(map[string][]domain.RecordedEvent)}
}

var _ domain.EventStore = (*EventStore)(nil)

func (s *EventStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, events []domain.Event, metadata domain.Metadata) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[aggregateID]
	current := int64(len(stream)) - 1
	if current != expectedVersion {
		return &domain.ConcurrencyConflictError{
			AggregateID:     aggregateID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   current,
		}
	}

	now := time.Now()
	appended := make([]domain.RecordedEvent, 0, len(events))
	for i, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		appended = append(appended, domain.RecordedEvent{
			AggregateID: aggregateID,
			Sequence:    expectedVersion + 1 + int64(i),
			EventType:   event.EventType(),
			Payload:     payload,
			Metadata:    metadata.Clone(),
			RecordedAt:  now,
		})
	}
	s.streams[aggregateID] = append(stream, appended...)
	return nil
}

func (s *EventStore) Load(ctx context.Context, aggregateID string) ([]domain.RecordedEvent, error) {
	return s.LoadFromVersion(ctx, aggregateID, 0)
}

func (s *EventStore) LoadFromVersion(ctx context.Context, aggregateID string, fromVersion int64) ([]domain.RecordedEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[aggregateID]
	records := make([]domain.RecordedEvent, 0, len(stream))
	for _, record := range stream {
		if record.Sequence >= fromVersion {
			records = append(records, record)
		}
	}
	return records, nil
}
