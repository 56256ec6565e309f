package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// currencies 支持的 ISO 4217 货币及其最小单位位数
var currencies = map[string]int32{
	"PLN": 2,
	"EUR": 2,
	"USD": 2,
	"GBP": 2,
	"CHF": 2,
	"SEK": 2,
	"NOK": 2,
	"CZK": 2,
	"HUF": 2,
	"JPY": 0,
}

// Money 货币值对象：最小单位整数金额 + ISO 4217 代码。
// 不可变，所有算术都要求货币一致，金额永不为负。
type Money struct {
	amount   int64
	currency string
}

// NewMoney 创建 Money，金额为最小单位（如 grosz、cent）
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	if _, ok := currencies[currency]; !ok {
		return Money{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// MustMoney 创建 Money，非法时 panic，仅用于测试
func MustMoney(amount int64, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount 最小单位金额
func (m Money) Amount() int64 {
	return m.amount
}

// Currency ISO 4217 货币代码
func (m Money) Currency() string {
	return m.currency
}

// Add 加法，货币不一致时返回错误，操作数不变
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Subtract 减法，货币不一致或结果为负时返回错误，操作数不变
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	if other.amount > m.amount {
		return Money{}, fmt.Errorf("%w: %d - %d", ErrNegativeBalance, m.amount, other.amount)
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// IsZero 金额是否为零
func (m Money) IsZero() bool {
	return m.amount == 0
}

// LessThan 金额比较，仅在货币一致时有意义
func (m Money) LessThan(other Money) bool {
	return m.amount < other.amount
}

// Decimal 转换为主单位的十进制表示，如 1000 PLN 最小单位 → 10.00
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, -currencies[m.currency])
}

// String 返回 "10.00 PLN" 形式
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(currencies[m.currency]), m.currency)
}

func (m Money) assertSameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}
