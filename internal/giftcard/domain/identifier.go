package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// CardID 礼品卡标识，UUID 包装，按值比较
type CardID struct {
	value string
}

// NewCardID 校验并创建礼品卡 ID
func NewCardID(s string) (CardID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return CardID{}, fmt.Errorf("%w: %q", ErrInvalidCardID, s)
	}
	return CardID{value: parsed.String()}, nil
}

// GenerateCardID 生成新的礼品卡 ID
func GenerateCardID() CardID {
	return CardID{value: uuid.New().String()}
}

// MustCardID 校验并创建礼品卡 ID，非法时 panic，仅用于测试
func MustCardID(s string) CardID {
	id, err := NewCardID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String 返回规范化的 UUID 字符串
func (id CardID) String() string {
	return id.value
}

// IsZero 是否为零值
func (id CardID) IsZero() bool {
	return id.value == ""
}
