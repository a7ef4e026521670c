package market

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Poller runs a refresh function at a fixed interval until stopped. The
// first run happens immediately on Start; a failing run logs and waits for
// the next tick.
type Poller struct {
	name     string
	interval time.Duration
	refresh  func(ctx context.Context) error
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller builds a poller that invokes refresh every interval.
func NewPoller(name string, interval time.Duration, refresh func(ctx context.Context) error, logger *slog.Logger) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		refresh:  refresh,
		logger:   logger,
	}
}

// Start begins polling. Safe to call once.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	if err := p.refresh(ctx); err != nil {
		p.logger.Warn("initial refresh failed",
			slog.String("poller", p.name),
			slog.Any("error", err),
		)
		// Continue anyway, the ticker retries.
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("poller panic recovered",
					slog.String("poller", p.name),
					slog.Any("panic", r),
				)
			}
		}()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("poller stopped", slog.String("poller", p.name))
				return
			case <-ticker.C:
				if err := p.refresh(ctx); err != nil {
					p.logger.Warn("refresh failed",
						slog.String("poller", p.name),
						slog.Any("error", err),
					)
				}
			}
		}
	}()

	return nil
}

// Stop cancels the polling loop and waits for it to exit.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
}
