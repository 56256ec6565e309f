package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTenantID = "7b0ba1a2-0446-4246-a1c5-6f31f84ecbc9"

func TestNewID(t *testing.T) {
	id, err := NewID(validTenantID)
	require.NoError(t, err)
	assert.Equal(t, validTenantID, id.String())
	assert.False(t, id.IsZero())

	_, err = NewID("not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidTenantID)

	_, err = NewID("")
	assert.ErrorIs(t, err, ErrInvalidTenantID)

	assert.True(t, ID{}.IsZero())
}

func TestTenantContext(t *testing.T) {
	ctx := context.Background()

	_, err := Current(ctx)
	assert.ErrorIs(t, err, ErrTenantContextNotSet)
	assert.False(t, Has(ctx))

	id := MustID(validTenantID)
	ctx = WithTenant(ctx, id)
	assert.True(t, Has(ctx))

	got, err := Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

// context 值天然具备作用域恢复：内层覆盖租户不影响外层。
func TestTenantContextScoping(t *testing.T) {
	outer := MustID(validTenantID)
	inner := MustID("e3b51937-e5ab-4a0f-9352-adfee9252a71")

	outerCtx := WithTenant(context.Background(), outer)
	innerCtx := WithTenant(outerCtx, inner)

	got, err := Current(innerCtx)
	require.NoError(t, err)
	assert.Equal(t, inner, got)

	got, err = Current(outerCtx)
	require.NoError(t, err)
	assert.Equal(t, outer, got)
}

func TestSystemAccessMarker(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsSystemAccess(ctx))

	ctx = WithSystemAccess(ctx)
	assert.True(t, IsSystemAccess(ctx))

	// 审计标记不替代租户上下文
	_, err := Current(ctx)
	assert.ErrorIs(t, err, ErrTenantContextNotSet)
}
