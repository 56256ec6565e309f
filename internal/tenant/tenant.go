// Package tenant 提供租户标识与请求级租户上下文
package tenant

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTenantID 租户 ID 不是合法的 UUID
	ErrInvalidTenantID = errors.New("invalid tenant id")
	// ErrTenantContextNotSet 当前上下文中没有租户
	ErrTenantContextNotSet = errors.New("tenant context not set")
)

// ID 租户标识，UUID 包装，按值比较
type ID struct {
	value string
}

// NewID 校验并创建租户 ID
func NewID(s string) (ID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidTenantID, s)
	}
	return ID{value: parsed.String()}, nil
}

// MustID 校验并创建租户 ID，非法时 panic，仅用于测试与常量初始化
func MustID(s string) ID {
	id, err := NewID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String 返回规范化的 UUID 字符串
func (id ID) String() string {
	return id.value
}

// IsZero 是否为零值
func (id ID) IsZero() bool {
	return id.value == ""
}
