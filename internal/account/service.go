package account

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"perp_go/internal/domain"
	"perp_go/internal/infra"
	"perp_go/internal/infra/hyperliquid"
	"perp_go/internal/market"
)

// stateAPI is the slice of the info client the account service needs.
type stateAPI interface {
	ClearinghouseState(ctx context.Context, address string) (hyperliquid.ClearinghouseState, error)
	UserFills(ctx context.Context, address string) ([]hyperliquid.UserFill, error)
}

// Snapshot pairs the derived positions with the summary computed from the
// same account-state fetch.
type Snapshot struct {
	Positions []domain.Position
	Summary   domain.AccountSummary
}

// Service fetches raw account state through the shared throttle and
// derives positions, summaries and trade history for one address.
type Service struct {
	network  domain.Network
	api      stateAPI
	catalog  *market.CatalogCache
	prices   *market.PriceCache
	throttle *infra.Throttle
	logger   *slog.Logger
}

// NewService builds an account service over the given info client and
// market caches.
func NewService(network domain.Network, api stateAPI, catalog *market.CatalogCache, prices *market.PriceCache, throttle *infra.Throttle, logger *slog.Logger) *Service {
	return &Service{
		network:  network,
		api:      api,
		catalog:  catalog,
		prices:   prices,
		throttle: throttle,
		logger:   logger,
	}
}

// Snapshot fetches the account state and derives the position set and
// summary. Catalog or price-book gaps degrade the output (missing current
// prices) instead of failing the whole snapshot.
func (s *Service) Snapshot(ctx context.Context, address string) (Snapshot, error) {
	key := fmt.Sprintf("account-%s", s.network)
	state, err := infra.DoTyped(ctx, s.throttle, key, infra.DefaultMinInterval,
		func(ctx context.Context) (hyperliquid.ClearinghouseState, error) {
			return s.api.ClearinghouseState(ctx, address)
		})
	if err != nil {
		return Snapshot{}, err
	}

	catalog, err := s.catalog.Get(ctx)
	if err != nil {
		s.logger.Warn("position snapshot without catalog", slog.Any("error", err))
		catalog = nil
	}
	book, err := s.prices.Get(ctx)
	if err != nil {
		s.logger.Warn("position snapshot without prices", slog.Any("error", err))
		book = nil
	}

	positions, summary := Aggregate(state, catalog, book)
	return Snapshot{Positions: positions, Summary: summary}, nil
}

// Fills fetches the trade history for the address, newest first. An
// address the venue has never seen yields an empty history rather than an
// error.
func (s *Service) Fills(ctx context.Context, address string) ([]domain.Fill, error) {
	key := fmt.Sprintf("trades-%s", s.network)
	raw, err := infra.DoTyped(ctx, s.throttle, key, infra.DefaultMinInterval,
		func(ctx context.Context) ([]hyperliquid.UserFill, error) {
			return s.api.UserFills(ctx, address)
		})
	if err != nil {
		if domain.IsNotActivated(err.Error()) {
			return nil, nil
		}
		return nil, err
	}

	fills := make([]domain.Fill, 0, len(raw))
	for _, f := range raw {
		side := domain.SideSell
		if f.Side == "B" {
			side = domain.SideBuy
		}
		fills = append(fills, domain.Fill{
			Coin:      f.Coin,
			Side:      side,
			Px:        f.Px,
			Sz:        f.Sz,
			TimeMs:    f.Time,
			ClosedPnl: f.ClosedPnl,
			Oid:       f.Oid,
			Hash:      f.Hash,
		})
	}

	sort.SliceStable(fills, func(i, j int) bool {
		return fills[i].TimeMs > fills[j].TimeMs
	})
	return fills, nil
}
