package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(700), BRL)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(700).Equal(m.Amount()))
		assert.Equal(t, BRL, m.Currency())
	})

	t.Run("fails with empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), "")
		require.Error(t, err)
	})

	t.Run("parses from string", func(t *testing.T) {
		m, err := NewMoneyFromString("699.90", BRL)
		require.NoError(t, err)
		assert.Equal(t, "699.90", m.StringFixed(2))
	})

	t.Run("rejects invalid string", func(t *testing.T) {
		_, err := NewMoneyBRLFromString("seven hundred")
		require.Error(t, err)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyBRLFromFloat(700.00)
	b := NewMoneyBRLFromFloat(50.50)

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "750.50", sum.StringFixed(2))
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, "649.50", diff.StringFixed(2))
	})

	t.Run("multiply by installment count", func(t *testing.T) {
		total := a.MultiplyByInt(12)
		assert.Equal(t, "8400.00", total.StringFixed(2))
	})

	t.Run("currency mismatch is rejected", func(t *testing.T) {
		usd, _ := NewMoney(decimal.NewFromInt(1), USD)
		_, err := a.Add(usd)
		require.Error(t, err)
		_, err = a.Subtract(usd)
		require.Error(t, err)
	})
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyBRLFromFloat(100)
	b := NewMoneyBRLFromFloat(200)

	lt, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, gt)

	assert.True(t, a.Equals(NewMoneyBRLFromFloat(100)))
	assert.False(t, a.Equals(b))
}

func TestMoney_JSON(t *testing.T) {
	m := NewMoneyBRLFromFloat(700)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"700","currency":"BRL"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_Scan(t *testing.T) {
	t.Run("scans string amount with default currency", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("700.00"))
		assert.Equal(t, BRL, m.Currency())
		assert.Equal(t, "700.00", m.StringFixed(2))
	})

	t.Run("nil scans to zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		var m Money
		require.Error(t, m.Scan(42))
	})
}
