// Package contextx 提供通过 context 传递环境事务的辅助函数
package contextx

import "context"

type txKey struct{}

// WithTx 将事务对象写入 context，供仓储在同一事务内执行
func WithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx 从 context 中取出事务对象，不存在时返回 nil
func GetTx(ctx context.Context) any {
	return ctx.Value(txKey{})
}
