package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/persistence/memory"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
)

var (
	tenantA  = tenant.MustID("7b0ba1a2-0446-4246-a1c5-6f31f84ecbc9")
	tenantB  = tenant.MustID("e3b51937-e5ab-4a0f-9352-adfee9252a71")
	testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func createdEvent(cardID string, tenantID tenant.ID) domain.Event {
	return &domain.CreatedEvent{
		CardID:        cardID,
		TenantID:      tenantID.String(),
		InitialAmount: 100000,
		Currency:      "PLN",
		CreatedAt:     testTime,
	}
}

func TestTenantStoreAppendRequiresTenant(t *testing.T) {
	store := NewTenantEventStore(memory.NewEventStore(), nil)
	cardID := domain.GenerateCardID().String()

	err := store.Append(context.Background(), cardID, -1, []domain.Event{createdEvent(cardID, tenantA)}, nil)
	assert.ErrorIs(t, err, tenant.ErrTenantContextNotSet)

	_, err = store.Load(context.Background(), cardID)
	assert.ErrorIs(t, err, tenant.ErrTenantContextNotSet)
}

func TestTenantStoreStampsMetadata(t *testing.T) {
	inner := memory.NewEventStore()
	store := NewTenantEventStore(inner, nil)
	cardID := domain.GenerateCardID().String()
	ctx := tenant.WithTenant(context.Background(), tenantA)

	require.NoError(t, store.Append(ctx, cardID, -1, []domain.Event{createdEvent(cardID, tenantA)}, nil))

	// 直接读内层，确认元数据已盖章
	records, err := inner.Load(context.Background(), cardID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, tenantA.String(), records[0].Metadata[domain.MetadataTenantKey])
}

// 租户 B 的事件在租户 A 的上下文里读取必须被拒绝。
func TestTenantStoreRejectsForeignStream(t *testing.T) {
	store := NewTenantEventStore(memory.NewEventStore(), nil)
	cardID := domain.GenerateCardID().String()

	ctxB := tenant.WithTenant(context.Background(), tenantB)
	require.NoError(t, store.Append(ctxB, cardID, -1, []domain.Event{createdEvent(cardID, tenantB)}, nil))

	ctxA := tenant.WithTenant(context.Background(), tenantA)
	_, err := store.Load(ctxA, cardID)

	var mismatch *domain.TenantMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, cardID, mismatch.AggregateID)
	assert.Equal(t, tenantB.String(), mismatch.EventTenant)
	assert.Equal(t, tenantA.String(), mismatch.ContextTenant)
}

// 缺失租户元数据的事件属于数据完整性问题，同样拒绝读取。
func TestTenantStoreRejectsMissingMetadata(t *testing.T) {
	inner := memory.NewEventStore()
	cardID := domain.GenerateCardID().String()

	// 绕过装饰器直接写入无元数据的事件
	require.NoError(t, inner.Append(context.Background(), cardID, -1, []domain.Event{createdEvent(cardID, tenantA)}, nil))

	store := NewTenantEventStore(inner, nil)
	ctx := tenant.WithTenant(context.Background(), tenantA)
	_, err := store.Load(ctx, cardID)

	var mismatch *domain.TenantMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Empty(t, mismatch.EventTenant)
}

// 系统路径带审计标记通过装饰器，隔离校验照常生效。
func TestTenantStoreSystemAccessStillVerifies(t *testing.T) {
	store := NewTenantEventStore(memory.NewEventStore(), nil)
	cardID := domain.GenerateCardID().String()

	ctxB := tenant.WithTenant(context.Background(), tenantB)
	require.NoError(t, store.Append(ctxB, cardID, -1, []domain.Event{createdEvent(cardID, tenantB)}, nil))

	systemCtxA := tenant.WithSystemAccess(tenant.WithTenant(context.Background(), tenantA))
	_, err := store.Load(systemCtxA, cardID)
	var mismatch *domain.TenantMismatchError
	assert.ErrorAs(t, err, &mismatch)

	systemCtxB := tenant.WithSystemAccess(ctxB)
	records, err := store.Load(systemCtxB, cardID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGiftCardRepositoryRoundTrip(t *testing.T) {
	store := NewTenantEventStore(memory.NewEventStore(), nil)
	repo := NewGiftCardRepository(store)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	card, err := domain.Create(domain.GenerateCardID(), tenantA, domain.MustMoney(100000, "PLN"), "", "", testTime, nil)
	require.NoError(t, err)
	require.NoError(t, card.Activate(testTime))
	require.NoError(t, repo.Save(ctx, card))
	assert.Empty(t, card.UncommittedEvents())

	loaded, err := repo.Get(ctx, card.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, loaded.CurrentStatus())
	assert.Equal(t, int64(100000), loaded.Balance().Amount())
	assert.Equal(t, int64(1), loaded.Version())

	// 继续操作并保存，期望版本衔接无缝
	require.NoError(t, loaded.Redeem(domain.MustMoney(100000, "PLN"), testTime))
	require.NoError(t, repo.Save(ctx, loaded))

	final, err := repo.Get(ctx, card.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDepleted, final.CurrentStatus())
	assert.Equal(t, int64(3), final.Version())
}

func TestGiftCardRepositoryNotFound(t *testing.T) {
	repo := NewGiftCardRepository(NewTenantEventStore(memory.NewEventStore(), nil))
	ctx := tenant.WithTenant(context.Background(), tenantA)

	_, err := repo.Get(ctx, domain.GenerateCardID())
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

// 并发修改：两个副本基于同一版本保存，后到者冲突且事件流不被污染。
func TestGiftCardRepositoryConcurrentSaveConflicts(t *testing.T) {
	store := NewTenantEventStore(memory.NewEventStore(), nil)
	repo := NewGiftCardRepository(store)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	card, err := domain.Create(domain.GenerateCardID(), tenantA, domain.MustMoney(100000, "PLN"), "", "", testTime, nil)
	require.NoError(t, err)
	require.NoError(t, card.Activate(testTime))
	require.NoError(t, repo.Save(ctx, card))

	first, err := repo.Get(ctx, card.ID())
	require.NoError(t, err)
	second, err := repo.Get(ctx, card.ID())
	require.NoError(t, err)

	require.NoError(t, first.Redeem(domain.MustMoney(40000, "PLN"), testTime))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Suspend("review", testTime, 600))
	err = repo.Save(ctx, second)

	var conflict *domain.ConcurrencyConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(1), conflict.ExpectedVersion)
	assert.Equal(t, int64(2), conflict.ActualVersion)

	// 冲突后重新加载得到的是第一个写入者的结果
	reloaded, err := repo.Get(ctx, card.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, reloaded.CurrentStatus())
	assert.Equal(t, int64(60000), reloaded.Balance().Amount())
}
