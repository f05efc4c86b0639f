package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-game-bot/internal/domain/ports/usecase"
	"telegram-game-bot/internal/infra/logging"
)

// Scheduler drives every game timer by calling GameTicker.Tick on a fixed
// interval. Game deadlines live in the stored state, so a restarted process
// picks up where the previous one stopped.
type Scheduler struct {
	interval time.Duration
	ticker   usecase.GameTicker
	now      func() time.Time
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler defaults interval to one second.
func NewScheduler(interval time.Duration, ticker usecase.GameTicker, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	l := logger.With().Str("component", "scheduler").Logger()
	return &Scheduler{
		interval: interval,
		ticker:   ticker,
		now:      time.Now,
		log:      &l,
		done:     make(chan struct{}),
	}
}

// Start begins the loop in a background goroutine; calling it twice has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(parentCtx)
	go s.loop()
}

func (s *Scheduler) loop() {
	t := time.NewTicker(s.interval)
	defer func() {
		t.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-t.C:
			s.RunOnce(s.ctx)
		}
	}
}

// RunOnce performs a single tick bounded by a timeout of a few intervals.
func (s *Scheduler) RunOnce(ctx context.Context) {
	defer logging.TraceDuration(s.log, "scheduler.tick")()
	runCtx, cancel := context.WithTimeout(ctx, 5*s.interval)
	defer cancel()
	changed, err := s.ticker.Tick(runCtx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("tick failed")
	}
	if changed > 0 {
		s.log.Debug().Int("games", changed).Msg("game timers advanced")
	}
}

// Stop cancels the loop and waits for it to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("scheduler stopped")
}
