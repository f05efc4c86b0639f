package buildcheck

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-game-bot/internal/config"
	"telegram-game-bot/internal/infra/metrics"
)

type Result struct {
	Name     string
	Detail   string
	Err      error
	Duration time.Duration
}

func (r Result) OK() bool { return r.Err == nil }

// Run executes checks in order, logs each outcome and returns every failure
// joined. A cancelled context stops before the next check.
func Run(ctx context.Context, logger *zerolog.Logger, checks ...Check) ([]Result, error) {
	results := make([]Result, 0, len(checks))
	var errs []error
	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		detail, err := c.Run(ctx)
		res := Result{Name: c.Name(), Detail: detail, Err: err, Duration: time.Since(start)}
		results = append(results, res)

		if err != nil {
			errs = append(errs, err)
			logger.Error().Err(err).Str("check", res.Name).Msg("build check failed")
			continue
		}
		logger.Info().Str("check", res.Name).Str("detail", detail).Dur("duration", res.Duration).Msg("build check passed")
	}
	return results, errors.Join(errs...)
}

// Preflight runs the default checks against the running binary at startup.
// There is no manifest in the image, so only the linked version is compared.
func Preflight(ctx context.Context, cfg config.BuildCheckConfig, logger *zerolog.Logger) error {
	results, err := Run(ctx, logger, DefaultChecks(cfg, nil)...)
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	metrics.SetBuildCheckFailures(failed)
	return err
}
