package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hostsync/internal/config"
	"hostsync/internal/updater"
)

// State is the scheduler's position in its cycle.
type State int

const (
	// StateIdle means the scheduler is waiting out the normal interval.
	StateIdle State = iota
	// StateRunning means an update cycle is in flight.
	StateRunning
	// StateBackoff means the last cycle failed transiently and the scheduler
	// is waiting out the shortened cool-down before retrying.
	StateBackoff
)

// String returns a short label for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// Clock abstracts time so the loop can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock {
	return systemClock{}
}

// CycleRunner executes one full update cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) updater.Outcome
}

// OutcomeSink receives the outcome of every cycle. The status server
// implements it to expose the last outcome and update its metrics.
type OutcomeSink interface {
	Record(outcome updater.Outcome)
}

// Notifier sends operator alerts about cycle outcomes.
type Notifier interface {
	NotifyOutcome(ctx context.Context, outcome updater.Outcome)
}

// Scheduler owns the update cadence. It runs one cycle immediately on start,
// then waits the configured interval measured from the end of the previous
// cycle. Transient failures shorten the wait to the backoff interval. Only
// one cycle is ever in flight.
type Scheduler struct {
	cfg      config.SchedulerConfig
	runner   CycleRunner
	db       *DB
	notifier Notifier
	sinks    []OutcomeSink
	clock    Clock
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewScheduler creates a scheduler. db and notifier may be nil; sinks may be
// empty.
func NewScheduler(
	cfg config.SchedulerConfig,
	runner CycleRunner,
	db *DB,
	notifier Notifier,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		runner:   runner,
		db:       db,
		notifier: notifier,
		clock:    SystemClock(),
		logger:   logger.With().Str("component", "Scheduler").Logger(),
		state:    StateIdle,
	}
}

// AddSink registers an outcome sink. Must be called before Run.
func (s *Scheduler) AddSink(sink OutcomeSink) {
	s.sinks = append(s.sinks, sink)
}

// SetClock replaces the clock. Must be called before Run.
func (s *Scheduler) SetClock(clock Clock) {
	s.clock = clock
}

// State returns the scheduler's current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run drives the update loop until ctx is cancelled. The first cycle starts
// immediately. Cancellation is honored at the idle wait and before a cycle's
// network activity begins, but never interrupts a write in progress: a
// running cycle always completes before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.cfg.Interval()).
		Dur("backoff", s.cfg.Backoff()).
		Msg("Scheduler started")

	for {
		if ctx.Err() != nil {
			s.logger.Info().Msg("Scheduler stopped")
			return
		}

		s.setState(StateRunning)
		outcome := s.runner.RunCycle(ctx)
		s.record(ctx, outcome)

		wait := s.cfg.Interval()
		next := StateIdle
		if outcome.Transient() {
			wait = s.cfg.Backoff()
			next = StateBackoff
		}
		s.setState(next)

		s.logger.Info().
			Str("status", string(outcome.Status)).
			Str("state", next.String()).
			Dur("next_cycle_in", wait).
			Msg("Cycle finished")

		select {
		case <-s.clock.After(wait):
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return
		}
	}
}

// record fans the outcome out to the journal, the notifier and the sinks.
// Recording failures are logged and never fail the cycle.
func (s *Scheduler) record(ctx context.Context, outcome updater.Outcome) {
	event := s.logger.Info()
	if outcome.Err != nil {
		event = s.logger.Error().Err(outcome.Err)
	}
	event.
		Str("status", string(outcome.Status)).
		Int("sources_ok", outcome.SourcesOK).
		Int("sources_failed", outcome.SourcesFailed).
		Dur("duration", outcome.FinishedAt.Sub(outcome.StartedAt)).
		Msg("Update cycle outcome")

	if s.db != nil {
		if err := s.db.RecordOutcome(outcome); err != nil {
			s.logger.Error().Err(err).Msg("Failed to record outcome in history journal")
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyOutcome(ctx, outcome)
	}

	for _, sink := range s.sinks {
		sink.Record(outcome)
	}
}
