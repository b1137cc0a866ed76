// Package asset provides approximate USD valuation of transferred assets.
//
// Prices are fixed estimates, not a live feed. Unknown symbols are valued
// at zero.
package asset

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// USDPrecision is the number of decimals shown for USD values.
const USDPrecision = 2

// PriceTable maps asset symbols to an estimated USD price.
type PriceTable struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewPriceTable creates an empty table.
func NewPriceTable() *PriceTable {
	return &PriceTable{prices: make(map[string]decimal.Decimal)}
}

// DefaultPriceTable returns the built-in estimates.
func DefaultPriceTable() *PriceTable {
	t := NewPriceTable()
	t.Set("ETH", decimal.NewFromInt(2800))
	t.Set("MATIC", decimal.RequireFromString("0.6"))
	t.Set("USDC", decimal.NewFromInt(1))
	t.Set("DAI", decimal.NewFromInt(1))
	t.Set("USDT", decimal.NewFromInt(1))
	return t
}

// Set stores the price for symbol. Symbols are case-insensitive.
func (t *PriceTable) Set(symbol string, usd decimal.Decimal) {
	if usd.IsNegative() {
		panic("asset: negative price for " + symbol)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prices[normalize(symbol)] = usd
}

// Price returns the estimate for symbol and whether one is known.
func (t *PriceTable) Price(symbol string) (decimal.Decimal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.prices[normalize(symbol)]
	return p, ok
}

// USDValue returns amount * price(symbol), or zero for unknown symbols.
func (t *PriceTable) USDValue(symbol string, amount decimal.Decimal) decimal.Decimal {
	p, ok := t.Price(symbol)
	if !ok {
		return decimal.Zero
	}
	return amount.Mul(p)
}

// FormatUSD renders a USD value as "$1,234.56".
func FormatUSD(v decimal.Decimal) string {
	neg := v.IsNegative()
	s := v.Abs().StringFixed(USDPrecision)

	intPart, frac, _ := strings.Cut(s, ".")
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	sb.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('.')
	sb.WriteString(frac)
	return sb.String()
}

// FormatAmount renders an asset amount with at most places decimals and
// no trailing zeros.
func FormatAmount(v decimal.Decimal, places int32) string {
	return v.Round(places).String()
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
