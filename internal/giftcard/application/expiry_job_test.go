package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
	"github.com/DominikK03/GiftCardSystem-sub001/internal/tenant"
)

// 过期扫描从读模型找到过期卡，并在卡所属租户的上下文中产生 Expired 事件。
func TestExpiryJobSweep(t *testing.T) {
	f := newServiceFixture(t)
	ctx := tenant.WithTenant(context.Background(), tenantA)
	expiry := testTime.AddDate(0, 1, 0)

	issued, err := f.commands.IssueCard(ctx, IssueCardCommand{Amount: 10000, Currency: "PLN", ExpiresAt: &expiry})
	require.NoError(t, err)
	_, err = f.commands.ActivateCard(ctx, ActivateCardCommand{CardID: issued.CardID})
	require.NoError(t, err)

	projection := NewProjection(f.store, f.views, nil)
	require.NoError(t, projection.Refresh(context.Background(), tenantA.String(), issued.CardID))

	job := NewExpiryJob(f.views, f.commands, 100)

	// 有效期未到，扫描不动卡
	job.now = func() time.Time { return expiry.Add(-time.Hour) }
	job.Run(context.Background())

	card, err := f.commands.repo.Get(ctx, domain.MustCardID(issued.CardID))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, card.CurrentStatus())

	// 有效期已过，扫描使卡过期
	job.now = func() time.Time { return expiry.Add(time.Hour) }
	job.Run(context.Background())

	card, err = f.commands.repo.Get(ctx, domain.MustCardID(issued.CardID))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, card.CurrentStatus())
}
