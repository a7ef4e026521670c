package orders

import (
	"context"
	"log/slog"

	"perp_go/internal/domain"
	"perp_go/internal/infra/hyperliquid"
)

// orderPlacer is the slice of the exchange client the submitter needs.
type orderPlacer interface {
	PlaceOrder(ctx context.Context, params domain.OrderParams) (hyperliquid.OrderResult, error)
}

// Submitter turns raw order intents into signed venue submissions. It
// owns no signing state itself; the exchange client carries the wallet.
type Submitter struct {
	calc   *Calculator
	placer orderPlacer
	logger *slog.Logger
}

// NewSubmitter builds a submitter over a calculator and exchange client.
func NewSubmitter(calc *Calculator, placer orderPlacer, logger *slog.Logger) *Submitter {
	return &Submitter{calc: calc, placer: placer, logger: logger}
}

// Submit derives compliant parameters for the intent and places the
// order. Errors keep their domain types: ValidationError and
// ErrMarketDataUnavailable from derivation, AccountNotActivatedError and
// OrderError from the venue.
func (s *Submitter) Submit(ctx context.Context, intent domain.OrderIntent) (hyperliquid.OrderResult, error) {
	params, err := s.calc.Derive(ctx, intent)
	if err != nil {
		return hyperliquid.OrderResult{}, err
	}

	s.logger.Info("submitting order",
		slog.Int("asset", params.AssetID),
		slog.String("side", string(params.Side)),
		slog.String("px", params.LimitPx),
		slog.String("sz", params.Size),
		slog.Bool("reduce_only", params.ReduceOnly),
	)

	result, err := s.placer.PlaceOrder(ctx, params)
	if err != nil {
		return hyperliquid.OrderResult{}, err
	}

	s.logger.Info("order accepted",
		slog.Int64("oid", result.Oid),
		slog.String("filled_sz", result.FilledSz),
		slog.String("avg_px", result.AvgPx),
		slog.Bool("resting", result.Resting),
	)
	return result, nil
}
