package hyperliquid

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Wire shapes for the Hyperliquid HTTP API. The venue's JSON evolves, so
// everything here is a tolerant boundary type: the rest of the codebase
// only sees the strict internal/domain types.

// AssetInfo is one entry of the perp universe. The asset id is the entry's
// index in the universe array.
type AssetInfo struct {
	Name       string `json:"name"`
	SzDecimals int32  `json:"szDecimals"`
}

// Meta represents the perp universe metadata.
type Meta struct {
	Universe []AssetInfo `json:"universe"`
}

// AssetCtx is the per-asset market context returned next to the universe.
// The funding rate has appeared under several keys across API revisions.
type AssetCtx struct {
	MarkPx      string `json:"markPx"`
	Funding     string `json:"funding"`
	FundingRate string `json:"fundingRate"`
	Premium     string `json:"premium"`
}

// FundingValue returns the first populated funding field, or "".
func (c AssetCtx) FundingValue() string {
	for _, v := range []string{c.Funding, c.FundingRate, c.Premium} {
		if v != "" {
			return v
		}
	}
	return ""
}

// RawPosition is one per-asset position entry of the clearinghouse state.
// Leverage and liquidationPx arrive either as scalars or as objects
// depending on margin mode, so both are decoded leniently.
type RawPosition struct {
	Coin          string          `json:"coin"`
	Szi           string          `json:"szi"`
	EntryPx       string          `json:"entryPx"`
	UnrealizedPnl string          `json:"unrealizedPnl"`
	Leverage      json.RawMessage `json:"leverage"`
	LiquidationPx json.RawMessage `json:"liquidationPx"`
}

// LeverageValue extracts the leverage multiplier from either the object
// form {"type":"cross","value":20} or a bare scalar. Returns "1" when the
// field is absent or unreadable.
func (p RawPosition) LeverageValue() string {
	if v := scalarOrField(p.Leverage, "value"); v != "" {
		return v
	}
	return "1"
}

// LiquidationPxValue extracts the liquidation price from either the object
// form {"px":"..."} or a bare scalar. Returns "" when the venue reports
// none (fully collateralized positions).
func (p RawPosition) LiquidationPxValue() string {
	return scalarOrField(p.LiquidationPx, "px")
}

// scalarOrField decodes raw JSON that is either a scalar (string/number)
// or an object carrying the value under the given key.
func scalarOrField(raw json.RawMessage, key string) string {
	if len(raw) == 0 {
		return ""
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ""
		}
		inner, ok := obj[key]
		if !ok {
			return ""
		}
		return scalarOrField(inner, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// AssetPosition wraps one RawPosition.
type AssetPosition struct {
	Position RawPosition `json:"position"`
	Type     string      `json:"type"`
}

// MarginSummary carries account-level margin figures.
type MarginSummary struct {
	AccountValue string `json:"accountValue"`
	TotalNtlPos  string `json:"totalNtlPos"`
	TotalRawUsd  string `json:"totalRawUsd"`
	MarginUsed   string `json:"totalMarginUsed"`
}

// ClearinghouseState is the raw account state for one address.
type ClearinghouseState struct {
	AssetPositions             []AssetPosition `json:"assetPositions"`
	MarginSummary              MarginSummary   `json:"marginSummary"`
	CrossMarginSummary         MarginSummary   `json:"crossMarginSummary"`
	CrossMaintenanceMarginUsed string          `json:"crossMaintenanceMarginUsed"`
	Withdrawable               string          `json:"withdrawable"`
}

// UserFill is one raw trade-history entry.
type UserFill struct {
	Coin      string `json:"coin"`
	Px        string `json:"px"`
	Sz        string `json:"sz"`
	Side      string `json:"side"` // "B" buy / "A" sell
	Time      int64  `json:"time"`
	Dir       string `json:"dir"`
	ClosedPnl string `json:"closedPnl"`
	Hash      string `json:"hash"`
	Oid       int64  `json:"oid"`
	Fee       string `json:"fee"`
}

// LimitTif is the wire form of a limit order's time-in-force.
type LimitTif struct {
	Tif string `json:"tif" msgpack:"tif"`
}

// OrderTypeWire selects limit semantics on the wire. IOC market-style
// orders are limit orders with tif "Ioc".
type OrderTypeWire struct {
	Limit *LimitTif `json:"limit,omitempty" msgpack:"limit,omitempty"`
}

// OrderWire is one order in the venue's compressed wire encoding.
// Field order matters: the action hash is computed over the msgpack
// encoding in exactly this order.
type OrderWire struct {
	Asset      int           `json:"a" msgpack:"a"`
	IsBuy      bool          `json:"b" msgpack:"b"`
	LimitPx    string        `json:"p" msgpack:"p"`
	Sz         string        `json:"s" msgpack:"s"`
	ReduceOnly bool          `json:"r" msgpack:"r"`
	OrderType  OrderTypeWire `json:"t" msgpack:"t"`
	Cloid      *string       `json:"c,omitempty" msgpack:"c,omitempty"`
}

// OrderAction is the signed order-placement action.
type OrderAction struct {
	Type     string      `json:"type" msgpack:"type"`
	Orders   []OrderWire `json:"orders" msgpack:"orders"`
	Grouping string      `json:"grouping" msgpack:"grouping"`
}

// Signature is the venue's {r, s, v} signature encoding.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

// ExchangeRequest is the POST /exchange envelope.
type ExchangeRequest struct {
	Action       any       `json:"action"`
	Nonce        uint64    `json:"nonce"`
	Signature    Signature `json:"signature"`
	VaultAddress *string   `json:"vaultAddress"`
}

// OrderStatus is one per-order status in the exchange response. Exactly
// one field is populated.
type OrderStatus struct {
	Resting *struct {
		Oid int64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		TotalSz string `json:"totalSz"`
		AvgPx   string `json:"avgPx"`
		Oid     int64  `json:"oid"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}

// ExchangeResponse is the POST /exchange reply envelope. The response
// field is shape-shifting: on status "ok" it is an object carrying the
// per-order statuses, on status "err" it is a plain string with the venue's
// rejection message, so it stays raw until the status is known.
type ExchangeResponse struct {
	Status   string          `json:"status"` // "ok" or "err"
	Response json.RawMessage `json:"response"`
}

// orderResponseBody is the decoded response payload of an accepted
// submission.
type orderResponseBody struct {
	Type string `json:"type"`
	Data struct {
		Statuses []OrderStatus `json:"statuses"`
	} `json:"data"`
}

// OrderResult is the outcome of one accepted order submission.
type OrderResult struct {
	Oid      int64
	FilledSz string
	AvgPx    string
	Resting  bool
}
