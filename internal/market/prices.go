package market

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"perp_go/internal/domain"
	"perp_go/internal/infra"
)

const (
	// PriceTTL is how long a fetched price snapshot stays fresh.
	PriceTTL = 5 * time.Second

	// priceMinInterval spaces the underlying market-data requests. Prices
	// are hot data shared by every consumer, so they get a shorter window
	// than the default.
	priceMinInterval = 2 * time.Second
)

// PriceBook is an immutable snapshot of mark prices and funding rates
// keyed by asset id.
type PriceBook struct {
	markByID    map[int]decimal.Decimal
	fundingByID map[int]decimal.Decimal
}

// Mark returns the mark price for an asset id.
func (b *PriceBook) Mark(assetID int) (decimal.Decimal, bool) {
	px, ok := b.markByID[assetID]
	return px, ok
}

// Funding returns the hourly funding rate fraction for an asset id.
func (b *PriceBook) Funding(assetID int) (decimal.Decimal, bool) {
	f, ok := b.fundingByID[assetID]
	return f, ok
}

// Len returns the number of assets with a known mark price.
func (b *PriceBook) Len() int {
	return len(b.markByID)
}

// PriceCache serves mark prices for one network. Reads within the TTL hit
// the cached snapshot; refreshes are coalesced and spaced through the
// shared throttle, and a refresh failure serves the stale snapshot. A
// websocket price stream can push fresher data in through Publish.
type PriceCache struct {
	network  domain.Network
	fetcher  metaFetcher
	throttle *infra.Throttle
	logger   *slog.Logger

	mu        sync.Mutex
	cached    *PriceBook
	fetchedAt time.Time

	ttl time.Duration
	now func() time.Time
}

// NewPriceCache builds a price cache over the given info client.
func NewPriceCache(network domain.Network, fetcher metaFetcher, throttle *infra.Throttle, logger *slog.Logger) *PriceCache {
	return &PriceCache{
		network:  network,
		fetcher:  fetcher,
		throttle: throttle,
		logger:   logger,
		ttl:      PriceTTL,
		now:      time.Now,
	}
}

// Get returns the current price book, refreshing when the snapshot has
// expired. Stale data is served when a refresh fails and a snapshot
// exists; with no snapshot at all the error surfaces.
func (p *PriceCache) Get(ctx context.Context) (*PriceBook, error) {
	p.mu.Lock()
	if p.cached != nil && p.now().Sub(p.fetchedAt) < p.ttl {
		cached := p.cached
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	key := fmt.Sprintf("prices-%s", p.network)
	book, err := infra.DoTyped(ctx, p.throttle, key, priceMinInterval,
		func(ctx context.Context) (*PriceBook, error) {
			_, ctxs, err := p.fetcher.MetaAndAssetCtxs(ctx)
			if err != nil {
				return nil, err
			}
			book := &PriceBook{
				markByID:    make(map[int]decimal.Decimal, len(ctxs)),
				fundingByID: make(map[int]decimal.Decimal, len(ctxs)),
			}
			// Context order matches the universe order, so the slice index
			// is the asset id.
			for id, c := range ctxs {
				if px, err := decimal.NewFromString(c.MarkPx); err == nil {
					book.markByID[id] = px
				}
				if f, err := decimal.NewFromString(c.FundingValue()); err == nil {
					book.fundingByID[id] = f
				}
			}
			return book, nil
		})

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		if p.cached != nil {
			p.logger.Warn("price refresh failed, serving stale snapshot",
				slog.String("network", string(p.network)),
				slog.Any("error", err),
			)
			return p.cached, nil
		}
		return nil, err
	}

	p.cached = book
	p.fetchedAt = p.now()
	return book, nil
}

// Invalidate expires the cached snapshot so the next Get refreshes. The
// refresh still goes through the throttle, so an invalidate-then-get
// within the spacing window coalesces rather than issuing a hot retry.
func (p *PriceCache) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchedAt = time.Time{}
}

// Mark returns the mark price for one asset, refreshing the book first if
// needed. Returns domain.ErrMarketDataUnavailable when the asset has no
// known price.
func (p *PriceCache) Mark(ctx context.Context, assetID int) (decimal.Decimal, error) {
	book, err := p.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	px, ok := book.Mark(assetID)
	if !ok {
		return decimal.Zero, domain.ErrMarketDataUnavailable
	}
	return px, nil
}

// Publish replaces the cached mark prices with a streamed snapshot, keyed
// by asset name and resolved through the catalog. Funding rates from the
// previous snapshot carry over since the stream does not include them.
func (p *PriceCache) Publish(mids map[string]string, catalog *Catalog) {
	markByID := make(map[int]decimal.Decimal, len(mids))
	for name, raw := range mids {
		asset, ok := catalog.ByName(name)
		if !ok {
			continue
		}
		px, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		markByID[asset.ID] = px
	}
	if len(markByID) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fundingByID := map[int]decimal.Decimal{}
	if p.cached != nil {
		fundingByID = p.cached.fundingByID
	}
	p.cached = &PriceBook{markByID: markByID, fundingByID: fundingByID}
	p.fetchedAt = p.now()
}
