package market

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"perp_go/internal/domain"
	"perp_go/internal/infra"
	"perp_go/internal/infra/hyperliquid"
)

// CatalogTTL is how long a fetched asset catalog stays fresh. The universe
// changes rarely, so this is generous.
const CatalogTTL = 5 * time.Minute

// Catalog is an immutable snapshot of the perp universe with lookup
// indexes by asset name and by asset id.
type Catalog struct {
	assets []domain.AssetMetadata
	byName map[string]domain.AssetMetadata
	byID   map[int]domain.AssetMetadata
}

func newCatalog(assets []domain.AssetMetadata) *Catalog {
	c := &Catalog{
		assets: assets,
		byName: make(map[string]domain.AssetMetadata, len(assets)),
		byID:   make(map[int]domain.AssetMetadata, len(assets)),
	}
	for _, a := range assets {
		c.byName[a.Name] = a
		c.byID[a.ID] = a
	}
	return c
}

// Assets returns all assets in universe order.
func (c *Catalog) Assets() []domain.AssetMetadata {
	return c.assets
}

// ByName looks an asset up by its venue name (e.g. "BTC").
func (c *Catalog) ByName(name string) (domain.AssetMetadata, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// ByID looks an asset up by its universe index.
func (c *Catalog) ByID(id int) (domain.AssetMetadata, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Len returns the number of assets in the catalog.
func (c *Catalog) Len() int {
	return len(c.assets)
}

// metaFetcher is the slice of the info client the catalog cache needs.
type metaFetcher interface {
	MetaAndAssetCtxs(ctx context.Context) (hyperliquid.Meta, []hyperliquid.AssetCtx, error)
}

// CatalogCache serves the asset catalog for one network, refreshing it at
// most once per TTL and collapsing concurrent refreshes through the shared
// request throttle. On refresh failure a stale catalog keeps being served.
type CatalogCache struct {
	network  domain.Network
	fetcher  metaFetcher
	throttle *infra.Throttle
	logger   *slog.Logger

	mu        sync.Mutex
	cached    *Catalog
	fetchedAt time.Time

	ttl time.Duration
	now func() time.Time
}

// NewCatalogCache builds a catalog cache over the given info client.
func NewCatalogCache(network domain.Network, fetcher metaFetcher, throttle *infra.Throttle, logger *slog.Logger) *CatalogCache {
	return &CatalogCache{
		network:  network,
		fetcher:  fetcher,
		throttle: throttle,
		logger:   logger,
		ttl:      CatalogTTL,
		now:      time.Now,
	}
}

// Get returns the current catalog, refreshing it when the cached snapshot
// has expired. A refresh failure with a stale snapshot available logs and
// serves the stale data instead of failing.
func (c *CatalogCache) Get(ctx context.Context) (*Catalog, error) {
	c.mu.Lock()
	if c.cached != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		cached := c.cached
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	key := fmt.Sprintf("meta-%s", c.network)
	catalog, err := infra.DoTyped(ctx, c.throttle, key, infra.DefaultMinInterval,
		func(ctx context.Context) (*Catalog, error) {
			meta, _, err := c.fetcher.MetaAndAssetCtxs(ctx)
			if err != nil {
				return nil, err
			}
			assets := make([]domain.AssetMetadata, 0, len(meta.Universe))
			for id, info := range meta.Universe {
				assets = append(assets, domain.AssetMetadata{
					ID:         id,
					Name:       info.Name,
					SzDecimals: info.SzDecimals,
				})
			}
			return newCatalog(assets), nil
		})

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if c.cached != nil {
			c.logger.Warn("catalog refresh failed, serving stale snapshot",
				slog.String("network", string(c.network)),
				slog.Any("error", err),
			)
			return c.cached, nil
		}
		return nil, err
	}

	// A coalesced caller may land here with a snapshot another goroutine
	// already stored; last write wins, both snapshots are equally fresh.
	c.cached = catalog
	c.fetchedAt = c.now()
	return catalog, nil
}

// Invalidate forces the next Get to refresh.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}
