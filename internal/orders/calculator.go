package orders

import (
	"context"

	"github.com/shopspring/decimal"

	"perp_go/internal/domain"
	"perp_go/internal/market"
	"perp_go/pkg/quant"
)

var (
	slippageUp   = decimal.RequireFromString("1.01")
	slippageDown = decimal.RequireFromString("0.99")

	// tickTolerance bounds the price/tick alignment check.
	tickTolerance = decimal.New(1, -7)
)

// Derive turns a raw order intent into venue-compliant parameters given
// the asset's precision and the current mark price. It is a pure
// computation; resolution of the asset and price happens in Calculator.
//
// The limit price carries a fixed slippage buffer (1% through the book)
// so an immediate-or-cancel order fills like a market order. It is
// snapped to the asset's tick, capped at five significant figures, and
// formatted to the venue's exact decimal precision. The size is rounded
// to the asset's size precision and bumped up when the notional would
// fall below the venue minimum.
func Derive(intent domain.OrderIntent, asset domain.AssetMetadata, markPx decimal.Decimal) (domain.OrderParams, error) {
	if markPx.Sign() <= 0 {
		return domain.OrderParams{}, domain.ErrMarketDataUnavailable
	}

	var rawSize decimal.Decimal
	if intent.SizeIsUsd {
		if intent.UsdValue.Sign() <= 0 {
			return domain.OrderParams{}, &domain.ValidationError{
				Field:  "usdValue",
				Reason: "must be a positive amount",
			}
		}
		rawSize = intent.UsdValue.Div(markPx)
	} else {
		if intent.AssetSize.Sign() <= 0 {
			return domain.OrderParams{}, &domain.ValidationError{
				Field:  "assetSize",
				Reason: "must be a positive amount",
			}
		}
		rawSize = intent.AssetSize
	}

	size := quant.RoundSize(rawSize, asset.SzDecimals)

	tick := quant.TickSize(asset.SzDecimals)

	slip := slippageUp
	if !intent.Side.IsBuy() {
		slip = slippageDown
	}
	price := quant.SnapToTick(markPx.Mul(slip), tick)

	if quant.SignificantDigits(price) > quant.MaxPriceSigFigs {
		// Significant-figure rounding can break tick alignment, so the
		// snap always comes last.
		price = quant.SnapToTick(quant.RoundSigFigs(price, quant.MaxPriceSigFigs), tick)
	}
	if !tickAligned(price, tick) {
		price = quant.SnapToTick(price, tick)
	}

	// Minimum notional: first a conservative check against the mark
	// price, then re-verified against the slippage-adjusted price. Both
	// must hold after adjustment.
	size = bumpToMinNotional(size, markPx, asset.SzDecimals)
	size = bumpToMinNotional(size, price, asset.SzDecimals)

	if size.Sign() <= 0 {
		return domain.OrderParams{}, &domain.ValidationError{
			Field:  "size",
			Reason: "resolves to zero at the asset's size precision",
		}
	}

	return domain.OrderParams{
		AssetID:    asset.ID,
		Side:       intent.Side,
		LimitPx:    quant.FormatPrice(price, asset.SzDecimals),
		Size:       quant.FormatSize(size),
		ReduceOnly: intent.ReduceOnly,
	}, nil
}

// bumpToMinNotional raises size to the smallest szDecimals increment whose
// notional at px clears the venue minimum. A size already above the
// minimum is returned unchanged.
func bumpToMinNotional(size decimal.Decimal, px decimal.Decimal, szDecimals int32) decimal.Decimal {
	if size.Mul(px).GreaterThanOrEqual(quant.MinOrderNotional.Sub(tickTolerance)) {
		return size
	}
	return quant.MinOrderNotional.Div(px).RoundCeil(szDecimals)
}

func tickAligned(px, tick decimal.Decimal) bool {
	_, rem := px.QuoRem(tick, 0)
	return rem.Abs().LessThan(tickTolerance)
}

// Calculator resolves an intent's asset and mark price through the shared
// caches and derives compliant order parameters.
type Calculator struct {
	catalog *market.CatalogCache
	prices  *market.PriceCache
}

// NewCalculator builds a calculator over the given caches.
func NewCalculator(catalog *market.CatalogCache, prices *market.PriceCache) *Calculator {
	return &Calculator{catalog: catalog, prices: prices}
}

// Derive resolves the intent's asset metadata and current mark price and
// computes venue-compliant order parameters. Returns
// domain.ErrMarketDataUnavailable when either cache cannot serve yet.
func (c *Calculator) Derive(ctx context.Context, intent domain.OrderIntent) (domain.OrderParams, error) {
	catalog, err := c.catalog.Get(ctx)
	if err != nil {
		return domain.OrderParams{}, domain.ErrMarketDataUnavailable
	}
	asset, ok := catalog.ByID(intent.AssetID)
	if !ok {
		return domain.OrderParams{}, domain.ErrMarketDataUnavailable
	}

	markPx, err := c.prices.Mark(ctx, asset.ID)
	if err != nil {
		return domain.OrderParams{}, err
	}

	return Derive(intent, asset, markPx)
}
