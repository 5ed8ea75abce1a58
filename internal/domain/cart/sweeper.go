package cart

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically deletes carts whose expiry timestamp has passed.
// Deletion is safe at any time: a cart is never referenced once consumed into
// an order, and an expired cart simply reappears empty on the next add.
type Sweeper struct {
	carts    Repository
	interval time.Duration
	lg       *zap.Logger
	now      func() time.Time
}

// NewSweeper creates a Sweeper collecting expired carts every interval.
func NewSweeper(carts Repository, interval time.Duration, lg *zap.Logger) *Sweeper {
	return &Sweeper{carts: carts, interval: interval, lg: lg, now: time.Now}
}

// Run sweeps until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.carts.DeleteExpired(ctx, s.now())
			if err != nil {
				s.lg.Warn("cart sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.lg.Info("swept expired carts", zap.Int64("count", n))
			}
		}
	}
}
