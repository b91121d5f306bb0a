// Package settler periodically finalises auctions whose end time has
// passed, so bid ledger rows reach their terminal WON/LOST states
// without an inline hook on the read path.
package settler

import (
	"auctionhouse/internal/services/auction"
	"context"
	"time"

	"go.uber.org/zap"
)

// Run starts the settle loop and returns immediately. Run must be
// started once at service boot.
func Run(ctx context.Context, interval time.Duration, svc auction.IAuctionService) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				n, err := svc.SettleDue(ctx)
				if err != nil {
					zap.L().Warn("settler.settle_due", zap.Error(err))
					continue
				}
				if n > 0 {
					zap.L().Info("settler.settled", zap.Int("auctions", n))
				}
			}
		}
	}()
}
