package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"perp_go/internal/app"
	"perp_go/internal/infra"
)

func main() {
	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	infra.PrintBanner(bootstrap.Config)

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Background market data refresh (pollers + price stream)
	if err := bootstrap.Start(ctx); err != nil {
		slog.Error("❌ Background refresh failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	// 4. Warm the caches so the first order derivation has data
	if catalog, err := bootstrap.Catalog.Get(ctx); err == nil {
		slog.InfoContext(ctx, "✅ Asset catalog loaded", slog.Int("assets", catalog.Len()))
	}

	if bootstrap.Config.API.Wallet.Address != "" {
		snap, err := bootstrap.Account.Snapshot(ctx, bootstrap.Config.API.Wallet.Address)
		if err != nil {
			slog.Warn("Account snapshot unavailable", slog.Any("error", err))
		} else {
			slog.InfoContext(ctx, "✅ Account loaded",
				slog.Int("positions", len(snap.Positions)),
				slog.String("account_value", snap.Summary.AccountValue),
				slog.String("withdrawable", snap.Summary.Withdrawable),
			)
		}
	}

	slog.InfoContext(ctx, "✨ PerpGo fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
