// Package scheduler drives the background cadence of the economy: proposal
// resolution and gravity well distribution run on a cron schedule.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/app/engine"
	"github.com/bolee10499-png/N8.Ked-Commonwealth-sub000/internal/infra/observability"
)

// DefaultSchedule runs at the top of every hour.
const DefaultSchedule = "0 * * * *"

// Scheduler owns the cron loop. A tick resolves expired proposals first and
// then runs a distribution round, so freshly executed funding payouts are
// visible to the same round's threshold scan.
type Scheduler struct {
	engine   *engine.Engine
	schedule string
	cron     *cron.Cron
	log      zerolog.Logger

	// Injectable clock for testing.
	now func() time.Time
}

// New creates a scheduler with the given cron expression.
func New(e *engine.Engine, schedule string, log zerolog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		engine:   e,
		schedule: schedule,
		log:      log.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
	}
}

// Start begins the cron loop.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("scheduler started")
	return nil
}

// Stop halts the loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// tick is one scheduled pass. A panic in either phase is contained here:
// the economy keeps serving requests and the next tick runs normally.
func (s *Scheduler) tick() {
	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			observability.SchedulerTicks.WithLabelValues("panic").Inc()
			s.log.Error().Interface("panic", r).Msg("tick panicked")
		}
		observability.SchedulerTickDuration.Observe(time.Since(start).Seconds())
	}()

	s.RunOnce(start)
}

// RunOnce executes one resolution + distribution pass at the given time.
// Exposed for tests and for the admin force-trigger path.
func (s *Scheduler) RunOnce(now time.Time) {
	outcome := "ok"

	results, err := s.engine.ResolveExpired(now)
	if err != nil {
		outcome = "error"
		s.log.Error().Err(err).Msg("proposal resolution failed")
	} else if len(results) > 0 {
		s.log.Info().Int("resolved", len(results)).Msg("proposals resolved")
	}

	dist, err := s.engine.Distribute(now, false)
	if err != nil {
		outcome = "error"
		s.log.Error().Err(err).Msg("gravity distribution failed")
	} else if dist.TotalDistributed > 0 {
		s.log.Info().Float64("distributed", dist.TotalDistributed).
			Int("recipients", len(dist.Recipients)).Msg("gravity round complete")
	}

	observability.SchedulerTicks.WithLabelValues(outcome).Inc()
}
