package application

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/messaging"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/persistence"
	giftcardmysql "github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/infrastructure/persistence/mysql"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
)

var (
	tenantA  = tenant.MustID("7b0ba1a2-0446-4246-a1c5-6f31f84ecbc9")
	tenantB  = tenant.MustID("e3b51937-e5ab-4a0f-9352-adfee9252a71")
	testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type serviceFixture struct {
	db       *gorm.DB
	commands *CommandService
	store    domain.EventStore
	views    domain.ViewRepository
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&giftcardmysql.EventPO{}, &domain.CardView{}, &messaging.OutboxMessage{}))

	store := persistence.NewTenantEventStore(giftcardmysql.NewEventStore(db), nil)
	repo := persistence.NewGiftCardRepository(store)
	commands := NewCommandService(repo, messaging.NewOutboxPublisher(db), db, nil)
	commands.now = func() time.Time { return testTime }

	return &serviceFixture{
		db:       db,
		commands: commands,
		store:    store,
		views:    giftcardmysql.NewViewRepository(db),
	}
}

func (f *serviceFixture) outboxCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&messaging.OutboxMessage{}).Count(&count).Error)
	return count
}

func TestIssueCard(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	card, err := f.commands.IssueCard(ctx, IssueCardCommand{Amount: 100000, Currency: "PLN"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInactive), card.Status)
	assert.Equal(t, int64(100000), card.Balance)
	assert.Equal(t, tenantA.String(), card.TenantID)
	assert.Equal(t, "1000", card.BalanceDisplay)

	// 发卡事件进入 Outbox
	assert.Equal(t, int64(1), f.outboxCount(t))
}

func TestIssueCardRequiresTenant(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.commands.IssueCard(context.Background(), IssueCardCommand{Amount: 100000, Currency: "PLN"})
	assert.ErrorIs(t, err, tenant.ErrTenantContextNotSet)
}

func TestIssueCardValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	_, err := f.commands.IssueCard(ctx, IssueCardCommand{Amount: -5, Currency: "PLN"})
	assert.ErrorIs(t, err, domain.ErrNegativeAmount)

	_, err = f.commands.IssueCard(ctx, IssueCardCommand{Amount: 100, Currency: "ABC"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
}

// 完整用例：发卡、激活、全额兑换。每个事件各进一条 Outbox 消息，
// 事件流落库四条记录且序号连续。
func TestFullRedemptionLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	issued, err := f.commands.IssueCard(ctx, IssueCardCommand{Amount: 100000, Currency: "PLN"})
	require.NoError(t, err)

	activated, err := f.commands.ActivateCard(ctx, ActivateCardCommand{CardID: issued.CardID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusActive), activated.Status)

	final, err := f.commands.Redeem(ctx, RedeemCommand{CardID: issued.CardID, Amount: 100000, Currency: "PLN"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDepleted), final.Status)
	assert.Equal(t, int64(0), final.Balance)
	assert.Equal(t, int64(3), final.Version)

	records, err := f.store.Load(ctx, issued.CardID)
	require.NoError(t, err)
	require.Len(t, records, 4)
	for i, record := range records {
		assert.Equal(t, int64(i), record.Sequence)
		assert.Equal(t, tenantA.String(), record.Metadata[domain.MetadataTenantKey])
	}

	assert.Equal(t, int64(4), f.outboxCount(t))
}

func TestRedeemRejectedOnSuspendedCard(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	issued, err := f.commands.IssueCard(ctx, IssueCardCommand{Amount: 50000, Currency: "PLN"})
	require.NoError(t, err)
	_, err = f.commands.ActivateCard(ctx, ActivateCardCommand{CardID: issued.CardID})
	require.NoError(t, err)
	_, err = f.commands.SuspendCard(ctx, SuspendCardCommand{CardID: issued.CardID, Reason: "fraud review", DurationSeconds: 3600})
	require.NoError(t, err)

	outboxBefore := f.outboxCount(t)

	_, err = f.commands.Redeem(ctx, RedeemCommand{CardID: issued.CardID, Amount: 1000, Currency: "PLN"})
	var transition *domain.InvalidStateTransitionError
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, domain.StatusSuspended, transition.Status)

	// 失败的命令不追加事件也不写 Outbox
	records, err := f.store.Load(ctx, issued.CardID)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, outboxBefore, f.outboxCount(t))
}

// 租户 B 操作租户 A 的卡必须被隔离层拒绝。
func TestCommandsIsolatedAcrossTenants(t *testing.T) {
	f := newServiceFixture(t)
	ctxA := tenant.WithTenant(context.Background(), tenantA)
	ctxB := tenant.WithTenant(context.Background(), tenantB)

	issued, err := f.commands.IssueCard(ctxA, IssueCardCommand{Amount: 100000, Currency: "PLN"})
	require.NoError(t, err)

	_, err = f.commands.ActivateCard(ctxB, ActivateCardCommand{CardID: issued.CardID})
	var mismatch *domain.TenantMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, tenantA.String(), mismatch.EventTenant)
	assert.Equal(t, tenantB.String(), mismatch.ContextTenant)
}

func TestAdjustAndDecreaseBalance(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	issued, err := f.commands.IssueCard(ctx, IssueCardCommand{Amount: 10000, Currency: "PLN"})
	require.NoError(t, err)

	adjusted, err := f.commands.AdjustBalance(ctx, AdjustBalanceCommand{
		CardID: issued.CardID, Amount: 5000, Currency: "PLN", Reason: "goodwill",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), adjusted.Balance)

	decreased, err := f.commands.DecreaseBalance(ctx, DecreaseBalanceCommand{
		CardID: issued.CardID, Amount: 15000, Currency: "PLN", Reason: "chargeback",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDepleted), decreased.Status)

	_, err = f.commands.AdjustBalance(ctx, AdjustBalanceCommand{
		CardID: issued.CardID, Amount: 100, Currency: "PLN", Reason: "late",
	})
	var transition *domain.InvalidStateTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestCancelCard(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	issued, err := f.commands.IssueCard(ctx, IssueCardCommand{Amount: 10000, Currency: "PLN"})
	require.NoError(t, err)

	cancelled, err := f.commands.CancelCard(ctx, CancelCardCommand{CardID: issued.CardID, Reason: "wrong recipient"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), cancelled.Status)
}

func TestExpireCard(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)
	expiry := testTime.AddDate(0, 1, 0)

	issued, err := f.commands.IssueCard(ctx, IssueCardCommand{Amount: 10000, Currency: "PLN", ExpiresAt: &expiry})
	require.NoError(t, err)

	_, err = f.commands.ExpireCard(ctx, ExpireCardCommand{CardID: issued.CardID, ExpiredAt: testTime})
	assert.ErrorIs(t, err, domain.ErrNotYetExpired)

	expired, err := f.commands.ExpireCard(ctx, ExpireCardCommand{CardID: issued.CardID, ExpiredAt: expiry.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusExpired), expired.Status)
}

func TestCommandOnMissingCard(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	_, err := f.commands.ActivateCard(ctx, ActivateCardCommand{CardID: domain.GenerateCardID().String()})
	assert.ErrorIs(t, err, domain.ErrCardNotFound)

	_, err = f.commands.ActivateCard(ctx, ActivateCardCommand{CardID: "not-a-uuid"})
	assert.ErrorIs(t, err, domain.ErrInvalidCardID)
}

// 投影消费事件后读模型与聚合一致。
func TestProjectionRefresh(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)

	issued, err := f.commands.IssueCard(ctx, IssueCardCommand{Amount: 100000, Currency: "PLN"})
	require.NoError(t, err)
	_, err = f.commands.ActivateCard(ctx, ActivateCardCommand{CardID: issued.CardID})
	require.NoError(t, err)
	_, err = f.commands.Redeem(ctx, RedeemCommand{CardID: issued.CardID, Amount: 100000, Currency: "PLN"})
	require.NoError(t, err)

	projection := NewProjection(f.store, f.views, nil)
	require.NoError(t, projection.Refresh(context.Background(), tenantA.String(), issued.CardID))

	view, err := f.views.Get(ctx, tenantA.String(), issued.CardID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDepleted), view.Status)
	assert.Equal(t, int64(0), view.Balance)
	assert.Equal(t, int64(100000), view.InitialAmount)
	assert.Equal(t, int64(3), view.Playhead)
	assert.Equal(t, "0", view.BalanceDisplay)
	require.NotNil(t, view.DepletedAt)
}
