package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"perp_go/internal/domain"
	"perp_go/internal/infra"
	"perp_go/internal/infra/hyperliquid"
	"perp_go/internal/market"
	"perp_go/internal/orders"
)

const testnetBaseURL = "https://api.hyperliquid-testnet.xyz"

// One-shot smoke check: fetch the universe, print a few mark prices, and
// show what an order derivation would produce. Read-only, no signing.
func main() {
	fmt.Println("=== PerpGo Market Data Check (testnet) ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info := hyperliquid.NewInfoClient(testnetBaseURL, logger)
	throttle := infra.NewThrottle()
	catalogCache := market.NewCatalogCache(domain.Testnet, info, throttle, logger)
	priceCache := market.NewPriceCache(domain.Testnet, info, throttle, logger)

	catalog, err := catalogCache.Get(ctx)
	if err != nil {
		fmt.Printf("❌ Catalog fetch failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("📊 Universe: %d assets\n", catalog.Len())

	book, err := priceCache.Get(ctx)
	if err != nil {
		fmt.Printf("❌ Price fetch failed: %v\n", err)
		os.Exit(1)
	}

	for _, name := range []string{"BTC", "ETH", "SOL"} {
		asset, ok := catalog.ByName(name)
		if !ok {
			fmt.Printf("   %-4s not listed\n", name)
			continue
		}
		px, ok := book.Mark(asset.ID)
		if !ok {
			fmt.Printf("   %-4s no mark price\n", name)
			continue
		}
		funding := "n/a"
		if f, ok := book.Funding(asset.ID); ok {
			funding = f.Mul(decimal.NewFromInt(100)).StringFixed(4) + "%"
		}
		fmt.Printf("   %-4s id=%-3d szDecimals=%d mark=$%s funding=%s\n",
			name, asset.ID, asset.SzDecimals, px, funding)
	}
	fmt.Println()

	// Dry-run derivation: what would a $100 market buy of BTC look like?
	if asset, ok := catalog.ByName("BTC"); ok {
		if px, ok := book.Mark(asset.ID); ok {
			intent := domain.OrderIntent{
				AssetID:   asset.ID,
				Side:      domain.SideBuy,
				UsdValue:  decimal.NewFromInt(100),
				SizeIsUsd: true,
			}
			params, err := orders.Derive(intent, asset, px)
			if err != nil {
				fmt.Printf("❌ Derivation failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("🧮 $100 BTC buy derives to size=%s limitPx=%s (IOC)\n",
				params.Size, params.LimitPx)
		}
	}

	fmt.Println()
	fmt.Println("✅ Market data path healthy")
}
