package domain

import "github.com/shopspring/decimal"

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// IsBuy reports whether the side opens or adds to a long.
func (s Side) IsBuy() bool {
	return s == SideBuy
}

// OrderIntent is the user's raw request: either a USD notional or an
// asset-denominated size, exactly one of which must be set.
type OrderIntent struct {
	AssetID    int
	Side       Side
	UsdValue   decimal.Decimal // how many dollars to trade; zero if SizeSet
	AssetSize  decimal.Decimal // how many units to trade; zero if UsdSet
	SizeIsUsd  bool            // true: UsdValue is authoritative
	ReduceOnly bool
}

// OrderParams is a venue-compliant order derived from an OrderIntent.
// LimitPx is tick-aligned and formatted to the venue's exact decimal
// precision; Size is rounded to the asset's size precision with trailing
// zeros stripped; Size x LimitPx meets the minimum notional.
type OrderParams struct {
	AssetID    int
	Side       Side
	LimitPx    string
	Size       string
	ReduceOnly bool
}
