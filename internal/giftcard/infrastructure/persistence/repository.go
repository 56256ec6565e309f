package persistence

import (
	"context"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
)

// GiftCardRepository 事件溯源仓储：读取整条事件流重放聚合，
// 保存时以聚合已提交版本作为期望版本追加未提交事件。
type GiftCardRepository struct {
	store domain.EventStore
}

func NewGiftCardRepository(store domain.EventStore) *GiftCardRepository {
	return &GiftCardRepository{store: store}
}

var _ domain.Repository = (*GiftCardRepository)(nil)

func (r *GiftCardRepository) Get(ctx context.Context, id domain.CardID) (*domain.GiftCard, error) {
	records, err := r.store.Load(ctx, id.String())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrCardNotFound
	}

	events := make([]domain.Event, 0, len(records))
	for _, record := range records {
		event, err := record.Unmarshal()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return domain.Replay(events)
}

func (r *GiftCardRepository) Save(ctx context.Context, card *domain.GiftCard) error {
	uncommitted := card.UncommittedEvents()
	if len(uncommitted) == 0 {
		return nil
	}

	if err := r.store.Append(ctx, card.ID().String(), card.CommittedVersion(), uncommitted, nil); err != nil {
		return err
	}
	card.MarkCommitted()
	return nil
}
