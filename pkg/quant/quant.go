package quant

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Venue-wide order constraints for Hyperliquid perps.
// Price decimals for an asset are derived as PriceDecimalBudget - szDecimals,
// and a limit price may carry at most MaxPriceSigFigs significant digits.
const (
	PriceDecimalBudget = 6
	MaxPriceSigFigs    = 5
)

// MinOrderNotional is the venue minimum order value in USD.
var MinOrderNotional = decimal.NewFromInt(10)

// RoundSize rounds an order size to the asset's size precision.
// Applying it twice yields the same result as applying it once.
func RoundSize(sz decimal.Decimal, szDecimals int32) decimal.Decimal {
	return sz.Round(szDecimals)
}

// FormatSize renders a size with trailing zeros stripped but the integer
// part retained: 1.00000 -> "1", 0.00100 -> "0.001".
func FormatSize(sz decimal.Decimal) string {
	return StripTrailingZeros(sz.String())
}

// StripTrailingZeros removes superfluous fractional zeros from a decimal
// string. Strings without a decimal point pass through unchanged.
func StripTrailingZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// TickSize returns the minimum price increment for an asset:
// 10^-(PriceDecimalBudget - szDecimals).
func TickSize(szDecimals int32) decimal.Decimal {
	return decimal.New(1, szDecimals-PriceDecimalBudget)
}

// SnapToTick rounds a price to the nearest multiple of the tick size.
func SnapToTick(px, tick decimal.Decimal) decimal.Decimal {
	return px.Div(tick).Round(0).Mul(tick)
}

// PriceDecimals returns the number of decimal places a formatted limit
// price must carry for the given size precision.
func PriceDecimals(szDecimals int32) int32 {
	d := PriceDecimalBudget - szDecimals
	if d < 0 {
		return 0
	}
	return d
}

// FormatPrice renders a limit price at the exact decimal precision the
// venue expects, preserving trailing zeros (unlike sizes, prices must be
// tick-divisible in their textual form).
func FormatPrice(px decimal.Decimal, szDecimals int32) string {
	return px.StringFixed(PriceDecimals(szDecimals))
}

// SignificantDigits counts the significant digits of a decimal.
// Leading zeros are never significant; trailing zeros are significant in
// the integer part (50500 -> 5) but not in the fractional part
// (0.00100 -> 1 digit of "1" plus the two leading to it stripped -> 1).
func SignificantDigits(d decimal.Decimal) int {
	if d.IsZero() {
		return 0
	}
	s := d.Abs().String()
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
		fracPart = strings.TrimRight(fracPart, "0")
	}
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		// Purely fractional: skip the leading zeros after the point.
		return len(strings.TrimLeft(fracPart, "0"))
	}
	return len(intPart) + len(fracPart)
}

// RoundSigFigs rounds a decimal to at most the given number of significant
// figures. The result is not tick-aligned; callers must snap afterwards.
func RoundSigFigs(d decimal.Decimal, figs int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	// Decimal exponent e such that 10^e <= |d| < 10^(e+1).
	abs := d.Abs()
	e := int32(len(abs.Truncate(0).String())) - 1
	if abs.LessThan(decimal.New(1, 0)) {
		e = 0
		frac := strings.SplitN(abs.String(), ".", 2)[1]
		for i := 0; i < len(frac) && frac[i] == '0'; i++ {
			e--
		}
		e-- // first non-zero fractional digit sits at 10^(e)
	}
	return d.Round(figs - 1 - e)
}
