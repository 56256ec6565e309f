package tenant

import (
	"context"
)

type ctxKey struct{}

type systemAccessKey struct{}

// WithTenant 派生带有租户的 context。租户作用域随 context 的派生关系自然结束，
// 嵌套覆盖（如系统侧跨租户处理）只影响子 context，父 context 不受影响。
func WithTenant(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Current 返回当前租户，未设置时返回 ErrTenantContextNotSet
func Current(ctx context.Context) (ID, error) {
	id, ok := ctx.Value(ctxKey{}).(ID)
	if !ok || id.IsZero() {
		return ID{}, ErrTenantContextNotSet
	}
	return id, nil
}

// Has 当前 context 是否设置了租户
func Has(ctx context.Context) bool {
	_, err := Current(ctx)
	return err == nil
}

// WithSystemAccess 标记系统侧访问。系统路径（如过期扫描、投影重建）在
// 目标租户的上下文里执行，但带上该标记以便持久层审计记录；
// 它不是绕过隔离检查的开关。
func WithSystemAccess(ctx context.Context) context.Context {
	return context.WithValue(ctx, systemAccessKey{}, true)
}

// IsSystemAccess 当前 context 是否为系统侧访问
func IsSystemAccess(ctx context.Context) bool {
	v, ok := ctx.Value(systemAccessKey{}).(bool)
	return ok && v
}
