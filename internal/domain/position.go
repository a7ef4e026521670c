package domain

// Position is a normalized open-position record derived from raw account
// state. It is recomputed wholesale on every refresh, never mutated.
type Position struct {
	Asset         int    `json:"asset"`
	AssetName     string `json:"asset_name"`
	Side          string `json:"side"` // "long" or "short"
	Size          string `json:"size"` // absolute magnitude
	EntryPx       string `json:"entry_px"`
	CurrentPx     string `json:"current_px,omitempty"`
	FundingRate   string `json:"funding_rate,omitempty"` // percent, 4 decimals
	Leverage      string `json:"leverage"`
	UnrealizedPnl string `json:"unrealized_pnl"`
	LiquidationPx string `json:"liquidation_px"`
}

// IsLong reports whether the position is long.
func (p *Position) IsLong() bool {
	return p.Side == "long"
}

// AccountSummary aggregates margin metrics for one account snapshot.
// All fields come from the same fetch so they are mutually consistent.
type AccountSummary struct {
	AccountValue            string `json:"account_value"`
	TotalNtlPos             string `json:"total_ntl_pos"`
	UnrealizedPnl           string `json:"unrealized_pnl"`
	Withdrawable            string `json:"withdrawable"`
	MarginUsed              string `json:"margin_used"`
	MaintenanceMarginUsed   string `json:"maintenance_margin_used"`
	CrossMarginRatio        string `json:"cross_margin_ratio"`    // percent
	CrossAccountLeverage    string `json:"cross_account_leverage"`
}

// Fill is one normalized trade-history entry.
type Fill struct {
	Coin      string `json:"coin"`
	Side      Side   `json:"side"`
	Px        string `json:"px"`
	Sz        string `json:"sz"`
	TimeMs    int64  `json:"time"`
	ClosedPnl string `json:"closed_pnl,omitempty"`
	Oid       int64  `json:"oid"`
	Hash      string `json:"hash"`
}
