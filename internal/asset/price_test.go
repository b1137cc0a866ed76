package asset

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPriceTable_Estimates(t *testing.T) {
	table := DefaultPriceTable()

	tests := []struct {
		symbol string
		want   string
	}{
		{"ETH", "2800"},
		{"MATIC", "0.6"},
		{"USDC", "1"},
		{"DAI", "1"},
		{"USDT", "1"},
		{"eth", "2800"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			p, ok := table.Price(tt.symbol)
			require.True(t, ok)
			assert.True(t, p.Equal(decimal.RequireFromString(tt.want)), "got %s", p)
		})
	}
}

func TestPriceTable_USDValue(t *testing.T) {
	table := DefaultPriceTable()

	got := table.USDValue("ETH", decimal.RequireFromString("1.5"))
	assert.True(t, got.Equal(decimal.NewFromInt(4200)))

	got = table.USDValue("MATIC", decimal.NewFromInt(10))
	assert.True(t, got.Equal(decimal.NewFromInt(6)))

	got = table.USDValue("PEPE", decimal.NewFromInt(1_000_000))
	assert.True(t, got.IsZero())
}

func TestPriceTable_RejectsNegative(t *testing.T) {
	assert.Panics(t, func() {
		NewPriceTable().Set("ETH", decimal.NewFromInt(-1))
	})
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"4200", "$4,200.00"},
		{"1234567.891", "$1,234,567.89"},
		{"999.999", "$1,000.00"},
		{"-12.5", "-$12.50"},
		{"100", "$100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUSD(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.2346", FormatAmount(decimal.RequireFromString("1.23456789"), 4))
	assert.Equal(t, "2", FormatAmount(decimal.RequireFromString("2.000"), 4))
}
