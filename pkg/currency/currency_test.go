package currency_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtm888/medflow-clinic-sub000/pkg/currency"
)

func TestFixedRate_Convert(t *testing.T) {
	conv := currency.NewFixedRate("USD", map[string]decimal.Decimal{"CDF": decimal.NewFromInt(2800)})

	usd, err := conv.Convert(decimal.NewFromInt(140000), "cdf", "USD")
	require.NoError(t, err)
	assert.True(t, usd.Equal(decimal.NewFromInt(50)), "140000 CDF = 50 USD, got %s", usd)

	cdf, err := conv.Convert(decimal.NewFromInt(3), "USD", "CDF")
	require.NoError(t, err)
	assert.True(t, cdf.Equal(decimal.NewFromInt(8400)))

	same, err := conv.Convert(decimal.NewFromInt(7), "EUR", "eur")
	require.NoError(t, err)
	assert.True(t, same.Equal(decimal.NewFromInt(7)))
}

func TestFixedRate_UnknownCurrency(t *testing.T) {
	conv := currency.NewFixedRate("USD", nil)

	_, err := conv.Convert(decimal.NewFromInt(1), "CDF", "USD")

	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)
}

func TestFormatter_Format(t *testing.T) {
	f := currency.NewFormatter("en")

	assert.Equal(t, "1,234,567 CDF", f.Format(decimal.NewFromInt(1234567), "cdf"))
	assert.Contains(t, currency.NewFormatter("fr").Format(decimal.NewFromInt(1000), "USD"), "USD")
}
