package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromFloat(19.99), USD)
	require.NoError(t, err)
	assert.Equal(t, USD, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(19.99)))

	_, err = NewMoney(decimal.Zero, "")
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyUSDFromFloat(10.50)
	b := NewMoneyUSDFromFloat(4.25)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "14.75", sum.StringFixed(2))

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "6.25", diff.StringFixed(2))

	product := a.MultiplyByInt(3)
	assert.Equal(t, "31.50", product.StringFixed(2))
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd := NewMoneyUSDFromFloat(10)
	gbp, err := NewMoney(decimal.NewFromInt(10), GBP)
	require.NoError(t, err)

	_, err = usd.Add(gbp)
	assert.Error(t, err)

	_, err = usd.Subtract(gbp)
	assert.Error(t, err)

	_, err = usd.LessThan(gbp)
	assert.Error(t, err)
}

func TestMoney_RoundCurrency(t *testing.T) {
	m := NewMoneyUSDFromFloat(3.14159)
	assert.Equal(t, "3.14", m.RoundCurrency().StringFixed(2))

	m = NewMoneyUSDFromFloat(2.675)
	assert.Equal(t, "2.68", m.RoundCurrency().StringFixed(2))
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, ZeroUSD().IsZero())
	assert.True(t, NewMoneyUSDFromFloat(1).IsPositive())
	assert.True(t, NewMoneyUSDFromFloat(-1).IsNegative())
	assert.True(t, NewMoneyUSDFromFloat(5).Equals(NewMoneyUSDFromFloat(5)))
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoneyUSDFromFloat(1234.56)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1234.56","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("42.42"))
	assert.Equal(t, "42.42", m.StringFixed(2))
	assert.Equal(t, DefaultCurrency, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}

func TestMoney_AllocateByPercentages(t *testing.T) {
	t.Run("even split", func(t *testing.T) {
		m := NewMoneyUSDFromFloat(100)
		fifty := decimal.NewFromInt(50)
		shares, err := m.AllocateByPercentages([]decimal.Decimal{fifty, fifty})
		require.NoError(t, err)
		assert.Equal(t, "50.00", shares[0].StringFixed(2))
		assert.Equal(t, "50.00", shares[1].StringFixed(2))
	})

	t.Run("remainder goes to first share", func(t *testing.T) {
		m := NewMoneyUSDFromFloat(100.01)
		onethird := decimal.NewFromFloat(33.33)
		rest := decimal.NewFromFloat(33.34)
		shares, err := m.AllocateByPercentages([]decimal.Decimal{onethird, onethird, rest})
		require.NoError(t, err)

		sum := ZeroUSD()
		for _, s := range shares {
			sum = sum.MustAdd(s)
		}
		assert.Equal(t, "100.01", sum.StringFixed(2))
	})

	t.Run("rejects percentages not summing to 100", func(t *testing.T) {
		m := NewMoneyUSDFromFloat(100)
		_, err := m.AllocateByPercentages([]decimal.Decimal{decimal.NewFromInt(60), decimal.NewFromInt(50)})
		assert.Error(t, err)
	})

	t.Run("rejects negative percentage", func(t *testing.T) {
		m := NewMoneyUSDFromFloat(100)
		_, err := m.AllocateByPercentages([]decimal.Decimal{decimal.NewFromInt(110), decimal.NewFromInt(-10)})
		assert.Error(t, err)
	})
}

func TestMoney_CalculatePercentage(t *testing.T) {
	m := NewMoneyUSDFromFloat(200)
	p := m.CalculatePercentage(decimal.NewFromFloat(12.5))
	assert.Equal(t, "25.00", p.StringFixed(2))
}
