package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/pkg/contextx"
	"gorm.io/gorm"
)

// EventStore 基于 MySQL 的追加式事件存储。
// 通过 expectedVersion 与当前最大序号比对实现乐观并发控制,
// 落库期间的竞态由 (aggregate_id, sequence) 唯一索引兜底。
type EventStore struct {
	db *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

var _ domain.EventStore = (*EventStore)(nil)

func (s *EventStore) Append(ctx context.Context, aggregateID string, expectedVersion int64, events []domain.Event, metadata domain.Metadata) error {
	if len(events) == 0 {
		return nil
	}
	db := s.getDB(ctx)

	current, err := s.currentVersion(db, aggregateID)
	if err != nil {
		return err
	}
	if current != expectedVersion {
		return &domain.ConcurrencyConflictError{
			AggregateID:     aggregateID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   current,
		}
	}

	now := time.Now()
	pos := make([]*EventPO, 0, len(events))
	for i, event := range events {
		po, err := toEventPO(aggregateID, expectedVersion+1+int64(i), event, metadata, now)
		if err != nil {
			return err
		}
		pos = append(pos, po)
	}

	if err := db.WithContext(ctx).Create(&pos).Error; err != nil {
		// 唯一索引冲突说明另一个写入者先落了同序号的事件。
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			actual, verr := s.currentVersion(db, aggregateID)
			if verr != nil {
				actual = expectedVersion
			}
			return &domain.ConcurrencyConflictError{
				AggregateID:     aggregateID,
				ExpectedVersion: expectedVersion,
				ActualVersion:   actual,
			}
		}
		return err
	}
	return nil
}

func (s *EventStore) Load(ctx context.Context, aggregateID string) ([]domain.RecordedEvent, error) {
	return s.LoadFromVersion(ctx, aggregateID, 0)
}

func (s *EventStore) LoadFromVersion(ctx context.Context, aggregateID string, fromVersion int64) ([]domain.RecordedEvent, error) {
	db := s.getDB(ctx)

	var pos []*EventPO
	if err := db.WithContext(ctx).
		Where("aggregate_id = ? AND sequence >= ?", aggregateID, fromVersion).
		Order("sequence ASC").
		Find(&pos).Error; err != nil {
		return nil, err
	}

	records := make([]domain.RecordedEvent, 0, len(pos))
	for _, po := range pos {
		record, err := toRecordedEvent(po)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *EventStore) currentVersion(db *gorm.DB, aggregateID string) (int64, error) {
	var max sql.NullInt64
	if err := db.Model(&EventPO{}).
		Where("aggregate_id = ?", aggregateID).
		Select("MAX(sequence)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if !max.Valid {
		return -1, nil
	}
	return max.Int64, nil
}

func (s *EventStore) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return s.db
}
