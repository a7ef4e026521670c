package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"perp_go/internal/account"
	"perp_go/internal/domain"
	"perp_go/internal/infra"
	"perp_go/internal/infra/hyperliquid"
	"perp_go/internal/market"
	"perp_go/internal/orders"
)

const testnetBaseURL = "https://api.hyperliquid-testnet.xyz"

// Testnet integration flow. Requires PERP_PRIVATE_KEY in the environment;
// set PERP_PLACE_ORDER=1 to also submit a small reduce-free IOC buy.
// Never point this at mainnet.
func main() {
	// 1. Setup Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	slog.Info("🚀 Starting testnet integration run...")

	privateKey := os.Getenv("PERP_PRIVATE_KEY")
	if privateKey == "" {
		slog.Error("❌ PERP_PRIVATE_KEY not set")
		os.Exit(1)
	}

	wallet, err := hyperliquid.NewLocalWallet(privateKey)
	if err != nil {
		slog.Error("❌ Invalid private key", "error", err)
		os.Exit(1)
	}
	address := wallet.Address().Hex()
	slog.Info("🔑 Wallet loaded", "address", address)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// 2. Wire the read path
	info := hyperliquid.NewInfoClient(testnetBaseURL, logger)
	throttle := infra.NewThrottle()
	catalog := market.NewCatalogCache(domain.Testnet, info, throttle, logger)
	prices := market.NewPriceCache(domain.Testnet, info, throttle, logger)
	accounts := account.NewService(domain.Testnet, info, catalog, prices, throttle, logger)

	// 3. Faucet: idempotent, a repeat claim is fine
	switch err := info.ClaimFaucet(ctx, address); {
	case err == nil:
		slog.Info("💧 Faucet claim accepted")
	case errors.Is(err, hyperliquid.ErrFaucetAlreadyClaimed):
		slog.Info("💧 Faucet already claimed, continuing")
	default:
		slog.Warn("Faucet claim failed", "error", err)
	}

	// 4. Account snapshot + trade history
	snap, err := accounts.Snapshot(ctx, address)
	if err != nil {
		slog.Error("❌ Account snapshot failed", "error", err)
		os.Exit(1)
	}
	slog.Info("📒 Account state",
		"positions", len(snap.Positions),
		"account_value", snap.Summary.AccountValue,
		"withdrawable", snap.Summary.Withdrawable,
	)
	for _, pos := range snap.Positions {
		slog.Info("  position",
			"asset", pos.AssetName,
			"side", pos.Side,
			"size", pos.Size,
			"entry", pos.EntryPx,
			"pnl", pos.UnrealizedPnl,
		)
	}

	fills, err := accounts.Fills(ctx, address)
	if err != nil {
		slog.Warn("Trade history unavailable", "error", err)
	} else {
		slog.Info("🧾 Trade history", "fills", len(fills))
	}

	// 5. Optional order placement, opt-in only
	if os.Getenv("PERP_PLACE_ORDER") != "1" {
		slog.Info("✅ Read path verified (set PERP_PLACE_ORDER=1 to submit an order)")
		return
	}

	exchange := hyperliquid.NewExchangeClient(testnetBaseURL, wallet, domain.Testnet, logger)
	calc := orders.NewCalculator(catalog, prices)
	submitter := orders.NewSubmitter(calc, exchange, logger)

	cat, err := catalog.Get(ctx)
	if err != nil {
		slog.Error("❌ Catalog unavailable", "error", err)
		os.Exit(1)
	}
	btc, ok := cat.ByName("BTC")
	if !ok {
		slog.Error("❌ BTC not listed on testnet")
		os.Exit(1)
	}

	intent := domain.OrderIntent{
		AssetID:   btc.ID,
		Side:      domain.SideBuy,
		UsdValue:  decimal.NewFromInt(12),
		SizeIsUsd: true,
	}

	result, err := submitter.Submit(ctx, intent)
	var notActivated *domain.AccountNotActivatedError
	switch {
	case errors.As(err, &notActivated):
		slog.Error("❌ Account not activated: deposit required before trading",
			"address", notActivated.Address)
		os.Exit(1)
	case err != nil:
		slog.Error("❌ Order failed", "error", err)
		os.Exit(1)
	}

	slog.Info("✅ Order accepted",
		"oid", result.Oid,
		"filled", result.FilledSz,
		"avg_px", result.AvgPx,
		"resting", result.Resting,
	)
}
