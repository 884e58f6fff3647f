// Package stats runs the periodic refresh pass over assigned player
// records, re-checking each card's metadata against the rarity table.
package stats

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sphera-labs/sphera-backend/internal/metadata"
	"github.com/sphera-labs/sphera-backend/internal/players"
)

type PlayerSource interface {
	All() ([]players.Record, error)
}

type MetadataSource interface {
	Fetch(ctx context.Context, nftID string) (metadata.Metadata, error)
}

type Refresher struct {
	players PlayerSource
	meta    MetadataSource
	log     *zap.Logger
}

func NewRefresher(p PlayerSource, m MetadataSource, log *zap.Logger) *Refresher {
	return &Refresher{players: p, meta: m, log: log}
}

// Run walks every assigned record, re-fetches its card metadata, and logs
// any drift between the stored addition value and the one the rarity table
// yields. Stats are not rewritten here: the addition was applied once at
// assignment and reapplying it would compound.
func (r *Refresher) Run(ctx context.Context) error {
	records, err := r.players.All()
	if err != nil {
		return fmt.Errorf("stats refresh: %w", err)
	}

	checked, drifted := 0, 0
	for _, rec := range records {
		if !rec.Assigned() {
			continue
		}
		meta, err := r.meta.Fetch(ctx, rec.NFTID)
		if err != nil {
			r.log.Warn("stats refresh: metadata unavailable",
				zap.String("nft", rec.NFTID), zap.Error(err))
			continue
		}
		checked++

		computed := metadata.AdditionFromAttributes(meta.Attributes)
		if computed != meta.Addition {
			drifted++
			r.log.Warn("stats refresh: addition drift",
				zap.String("nft", rec.NFTID),
				zap.String("player", rec.Name),
				zap.Int("stored", meta.Addition),
				zap.Int("computed", computed))
		}
	}

	r.log.Info("stats refresh complete", zap.Int("checked", checked), zap.Int("drifted", drifted))
	return nil
}

// Schedule registers the refresh job on a cron spec ("0 2 * * *" for the
// daily 02:00 run) and starts the scheduler. The returned stop function
// waits for any in-flight run.
func (r *Refresher) Schedule(ctx context.Context, spec string) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := r.Run(ctx); err != nil {
			r.log.Error("scheduled stats refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid stats refresh schedule %q: %w", spec, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
