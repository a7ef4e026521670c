package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"perp_go/internal/account"
	"perp_go/internal/domain"
	"perp_go/internal/infra"
	"perp_go/internal/infra/hyperliquid"
	"perp_go/internal/market"
	"perp_go/internal/orders"
)

// Bootstrap orchestrates the application startup sequence and owns the
// wired component graph.
type Bootstrap struct {
	Config  *infra.Config
	Network domain.Network

	Throttle *infra.Throttle
	Info     *hyperliquid.InfoClient
	Wallet   *hyperliquid.LocalWallet
	Exchange *hyperliquid.ExchangeClient

	Catalog    *market.CatalogCache
	Prices     *market.PriceCache
	Account    *account.Service
	Calculator *orders.Calculator
	Submitter  *orders.Submitter

	stream  *hyperliquid.PriceStreamWorker
	pollers []*market.Poller
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and wires the component graph. No
// network traffic happens here; fetching starts with Start.
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping PerpGo...")

	// 1. Load Config (Dynamic Path Resolution)
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg
	b.Network = cfg.SelectedNetwork()

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Shared request governor, one per process
	b.Throttle = infra.NewThrottle()

	// 4. Venue clients
	baseURL := cfg.BaseURL(b.Network)
	b.Info = hyperliquid.NewInfoClient(baseURL, logger)

	if cfg.API.Wallet.PrivateKey != "" {
		wallet, err := hyperliquid.NewLocalWallet(cfg.API.Wallet.PrivateKey)
		if err != nil {
			return fmt.Errorf("wallet setup: %w", err)
		}
		b.Wallet = wallet
		b.Exchange = hyperliquid.NewExchangeClient(baseURL, wallet, b.Network, logger)
		slog.Info("✅ Wallet ready", "address", wallet.Address().Hex())
	} else {
		slog.Warn("No private key configured, running read-only")
	}

	// 5. Market data caches
	b.Catalog = market.NewCatalogCache(b.Network, b.Info, b.Throttle, logger)
	b.Prices = market.NewPriceCache(b.Network, b.Info, b.Throttle, logger)

	// 6. Account + order layers
	b.Account = account.NewService(b.Network, b.Info, b.Catalog, b.Prices, b.Throttle, logger)
	b.Calculator = orders.NewCalculator(b.Catalog, b.Prices)
	if b.Exchange != nil {
		b.Submitter = orders.NewSubmitter(b.Calculator, b.Exchange, logger)
	}

	slog.Info("✅ Component graph wired", "network", string(b.Network))
	return nil
}

// Start launches the background pollers and the websocket price stream.
func (b *Bootstrap) Start(ctx context.Context) error {
	logger := slog.Default()

	catalogPoller := market.NewPoller("catalog", market.CatalogTTL,
		func(ctx context.Context) error {
			_, err := b.Catalog.Get(ctx)
			return err
		}, logger)

	pricePoller := market.NewPoller("prices",
		time.Duration(b.Config.Poll.PricesIntervalSec)*time.Second,
		func(ctx context.Context) error {
			_, err := b.Prices.Get(ctx)
			return err
		}, logger)

	b.pollers = []*market.Poller{catalogPoller, pricePoller}

	if b.Config.API.Wallet.Address != "" {
		address := b.Config.API.Wallet.Address
		positionPoller := market.NewPoller("positions",
			time.Duration(b.Config.Poll.PositionsIntervalSec)*time.Second,
			func(ctx context.Context) error {
				_, err := b.Account.Snapshot(ctx, address)
				return err
			}, logger)
		tradesPoller := market.NewPoller("trades",
			time.Duration(b.Config.Poll.TradesIntervalSec)*time.Second,
			func(ctx context.Context) error {
				_, err := b.Account.Fills(ctx, address)
				return err
			}, logger)
		b.pollers = append(b.pollers, positionPoller, tradesPoller)
	}

	for _, p := range b.pollers {
		if err := p.Start(ctx); err != nil {
			return err
		}
	}

	// Stream mids over the poll cadence; pushes land in the price cache.
	b.stream = hyperliquid.NewPriceStreamWorker(b.Config.WSURL(b.Network),
		func(mids map[string]string) {
			catalog, err := b.Catalog.Get(ctx)
			if err != nil {
				return
			}
			b.Prices.Publish(mids, catalog)
		}, logger)
	if err := b.stream.Connect(ctx); err != nil {
		return err
	}

	slog.Info("✅ Background refresh started", "pollers", len(b.pollers))
	return nil
}

// Shutdown stops the stream and pollers and waits for them to exit.
func (b *Bootstrap) Shutdown() {
	if b.stream != nil {
		b.stream.Disconnect()
	}
	for _, p := range b.pollers {
		p.Stop()
	}
	slog.Info("👋 Shutdown complete")
}
