// Package jobs holds background loops started by the serve command.
package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Cleaner deletes revocation entries whose tokens have expired.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// BlacklistPruner periodically removes expired blacklist entries. Entries
// are only ever removed after their token's own expiry, so pruning never
// re-enables a revoked token.
//
// An interval of 0 disables pruning.
type BlacklistPruner struct {
	cleaner  Cleaner
	interval time.Duration
	log      logrus.FieldLogger
}

// NewBlacklistPruner creates a pruner but does not start it.
func NewBlacklistPruner(cleaner Cleaner, interval time.Duration, log logrus.FieldLogger) *BlacklistPruner {
	return &BlacklistPruner{
		cleaner:  cleaner,
		interval: interval,
		log:      log.WithField("job", "blacklist-pruner"),
	}
}

// Run prunes once immediately, then on every tick until ctx is done.
// It returns nil on cancellation so it can run inside an errgroup.
func (p *BlacklistPruner) Run(ctx context.Context) error {
	if p.interval <= 0 {
		p.log.Info("blacklist pruner disabled (interval=0)")
		return nil
	}
	p.log.WithField("interval", p.interval.String()).Info("blacklist pruner started")

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("blacklist pruner stopped")
			return nil
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *BlacklistPruner) prune(ctx context.Context) {
	n, err := p.cleaner.CleanupExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.log.WithError(err).Error("blacklist prune failed")
		}
		return
	}
	if n > 0 {
		p.log.WithField("purged", n).Info("expired blacklist entries purged")
	}
}
