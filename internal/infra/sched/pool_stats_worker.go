package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// StatsReporter publishes a snapshot of some resource's gauges.
type StatsReporter func()

// PoolStatsWorker periodically refreshes connection pool gauges.
type PoolStatsWorker struct {
	interval time.Duration
	report   StatsReporter
	log      *zerolog.Logger
}

func NewPoolStatsWorker(interval time.Duration, report StatsReporter, logger *zerolog.Logger) *PoolStatsWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	l := logger.With().Str("component", "PoolStatsWorker").Logger()
	return &PoolStatsWorker{interval: interval, report: report, log: &l}
}

func (w *PoolStatsWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting pool stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.report()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping pool stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}
