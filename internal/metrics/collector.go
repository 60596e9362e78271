package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StatsSource provides functions to retrieve current counts for gauge metrics.
// Each function returns the current count; returning -1 indicates the source is unavailable.
type StatsSource struct {
	ArtistCount    func() int
	HeadlinerCount func() int
}

// StartCollector launches a goroutine that periodically updates gauge metrics.
// It runs every interval until the context is cancelled.
func StartCollector(ctx context.Context, src StatsSource, interval time.Duration) {
	// Do an initial collection immediately
	collect(src)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect(src)
			}
		}
	}()

	log.Info().Dur("interval", interval).Msg("Metrics collector started")
}

func collect(src StatsSource) {
	if src.ArtistCount != nil {
		if n := src.ArtistCount(); n >= 0 {
			LineupArtistsTotal.Set(float64(n))
		}
	}
	if src.HeadlinerCount != nil {
		if n := src.HeadlinerCount(); n >= 0 {
			LineupHeadlinersTotal.Set(float64(n))
		}
	}
}
