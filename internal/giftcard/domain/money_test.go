package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		wantErr  error
	}{
		{name: "valid PLN", amount: 100000, currency: "PLN"},
		{name: "zero amount allowed", amount: 0, currency: "EUR"},
		{name: "zero-decimal currency", amount: 500, currency: "JPY"},
		{name: "negative amount", amount: -1, currency: "PLN", wantErr: ErrNegativeAmount},
		{name: "unknown currency", amount: 100, currency: "XXX", wantErr: ErrUnsupportedCurrency},
		{name: "lowercase currency rejected", amount: 100, currency: "pln", wantErr: ErrUnsupportedCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoney(tt.amount, tt.currency)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, m.Amount())
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney(100000, "PLN")
	b := MustMoney(25050, "PLN")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(125050), sum.Amount())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, int64(74950), diff.Amount())

	// 原值不可变
	assert.Equal(t, int64(100000), a.Amount())
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	pln := MustMoney(1000, "PLN")
	eur := MustMoney(1000, "EUR")

	_, err := pln.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = pln.Subtract(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoneySubtractBelowZero(t *testing.T) {
	small := MustMoney(100, "PLN")
	big := MustMoney(200, "PLN")

	_, err := small.Subtract(big)
	assert.ErrorIs(t, err, ErrNegativeBalance)
}

func TestMoneyDecimalDisplay(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     string
	}{
		{100000, "PLN", "1000"},
		{25050, "PLN", "250.5"},
		{1, "EUR", "0.01"},
		{500, "JPY", "500"},
	}

	for _, tt := range tests {
		m := MustMoney(tt.amount, tt.currency)
		assert.Equal(t, tt.want, m.Decimal().String())
	}
}

func TestMoneyComparison(t *testing.T) {
	assert.True(t, MustMoney(0, "PLN").IsZero())
	assert.False(t, MustMoney(1, "PLN").IsZero())
	assert.True(t, MustMoney(100, "PLN").LessThan(MustMoney(200, "PLN")))
	assert.False(t, MustMoney(200, "PLN").LessThan(MustMoney(100, "PLN")))
}
