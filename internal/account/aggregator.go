package account

import (
	"strconv"

	"github.com/shopspring/decimal"

	"perp_go/internal/domain"
	"perp_go/internal/infra/hyperliquid"
	"perp_go/internal/market"
)

var hundred = decimal.NewFromInt(100)

// Aggregate derives normalized positions and account-summary metrics from
// one raw account-state fetch. It is a pure transform: the catalog and
// price book are assumed already fetched, and all summary fields come
// from the same state snapshot so they stay mutually consistent.
func Aggregate(state hyperliquid.ClearinghouseState, catalog *market.Catalog, book *market.PriceBook) ([]domain.Position, domain.AccountSummary) {
	positions := make([]domain.Position, 0, len(state.AssetPositions))
	pnlSum := decimal.Zero

	for _, entry := range state.AssetPositions {
		raw := entry.Position

		szi, err := decimal.NewFromString(raw.Szi)
		if err != nil || szi.IsZero() {
			continue
		}

		side := "long"
		if szi.Sign() < 0 {
			side = "short"
		}

		assetID := resolveAssetID(raw.Coin, catalog)

		pos := domain.Position{
			Asset:         assetID,
			AssetName:     raw.Coin,
			Side:          side,
			Size:          szi.Abs().String(),
			EntryPx:       raw.EntryPx,
			Leverage:      raw.LeverageValue(),
			UnrealizedPnl: raw.UnrealizedPnl,
			LiquidationPx: raw.LiquidationPxValue(),
		}

		if book != nil && assetID >= 0 {
			if px, ok := book.Mark(assetID); ok {
				pos.CurrentPx = px.String()
			}
			if f, ok := book.Funding(assetID); ok {
				pos.FundingRate = f.Mul(hundred).StringFixed(4)
			}
		}

		if pnl, err := decimal.NewFromString(raw.UnrealizedPnl); err == nil {
			pnlSum = pnlSum.Add(pnl)
		}

		positions = append(positions, pos)
	}

	summary := domain.AccountSummary{
		AccountValue:          state.MarginSummary.AccountValue,
		TotalNtlPos:           state.MarginSummary.TotalNtlPos,
		UnrealizedPnl:         pnlSum.String(),
		Withdrawable:          state.Withdrawable,
		MarginUsed:            state.MarginSummary.MarginUsed,
		MaintenanceMarginUsed: state.CrossMaintenanceMarginUsed,
	}
	summary.CrossMarginRatio = percentRatio(state.CrossMaintenanceMarginUsed, state.MarginSummary.AccountValue)
	summary.CrossAccountLeverage = plainRatio(state.MarginSummary.TotalNtlPos, state.MarginSummary.AccountValue)

	return positions, summary
}

// resolveAssetID matches the raw coin symbol against the catalog by name,
// falling back to a numeric id when the venue reports one instead of a
// symbol. Returns -1 when neither resolves.
func resolveAssetID(coin string, catalog *market.Catalog) int {
	if catalog == nil {
		return -1
	}
	if asset, ok := catalog.ByName(coin); ok {
		return asset.ID
	}
	if id, err := strconv.Atoi(coin); err == nil {
		if asset, ok := catalog.ByID(id); ok {
			return asset.ID
		}
	}
	return -1
}

// percentRatio computes num/den as a percentage with 2 decimals, guarding
// division by zero with "0.00".
func percentRatio(num, den string) string {
	n, err1 := decimal.NewFromString(num)
	d, err2 := decimal.NewFromString(den)
	if err1 != nil || err2 != nil || d.IsZero() {
		return "0.00"
	}
	return n.Div(d).Mul(hundred).StringFixed(2)
}

// plainRatio computes num/den with 2 decimals and the same zero guard.
func plainRatio(num, den string) string {
	n, err1 := decimal.NewFromString(num)
	d, err2 := decimal.NewFromString(den)
	if err1 != nil || err2 != nil || d.IsZero() {
		return "0.00"
	}
	return n.Div(d).StringFixed(2)
}
