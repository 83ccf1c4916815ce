package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostsync/internal/config"
	"hostsync/internal/updater"
)

// fakeClock hands out wait channels and records the requested durations so
// tests can assert which interval the scheduler chose.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
	wake  chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		wake: make(chan time.Time),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	return c.wake
}

func (c *fakeClock) recordedWaits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// fakeRunner returns scripted outcomes and signals each cycle start.
type fakeRunner struct {
	mu       sync.Mutex
	outcomes []updater.Outcome
	calls    int
	started  chan struct{}
}

func newFakeRunner(outcomes ...updater.Outcome) *fakeRunner {
	return &fakeRunner{outcomes: outcomes, started: make(chan struct{}, len(outcomes)+1)}
}

func (r *fakeRunner) RunCycle(ctx context.Context) updater.Outcome {
	r.mu.Lock()
	idx := r.calls
	r.calls++
	r.mu.Unlock()

	r.started <- struct{}{}

	if idx < len(r.outcomes) {
		return r.outcomes[idx]
	}
	return updater.Outcome{Status: updater.StatusUpdated}
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type sinkRecorder struct {
	mu       sync.Mutex
	outcomes []updater.Outcome
}

func (s *sinkRecorder) Record(outcome updater.Outcome) {
	s.mu.Lock()
	s.outcomes = append(s.outcomes, outcome)
	s.mu.Unlock()
}

func (s *sinkRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{UpdateIntervalHours: 2, BackoffMinutes: 10}
}

func TestScheduler_RunsFirstCycleImmediately(t *testing.T) {
	clock := newFakeClock()
	runner := newFakeRunner(updater.Outcome{Status: updater.StatusUpdated})
	s := NewScheduler(testSchedulerConfig(), runner, nil, nil, zerolog.Nop())
	s.SetClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not start immediately")
	}

	cancel()
	<-done
	assert.Equal(t, 1, runner.callCount())
}

func TestScheduler_NormalIntervalAfterSuccess(t *testing.T) {
	clock := newFakeClock()
	runner := newFakeRunner(updater.Outcome{Status: updater.StatusUpdated})
	s := NewScheduler(testSchedulerConfig(), runner, nil, nil, zerolog.Nop())
	s.SetClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-runner.started
	require.Eventually(t, func() bool {
		return len(clock.recordedWaits()) == 1 && s.State() == StateIdle
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []time.Duration{2 * time.Hour}, clock.recordedWaits())

	cancel()
	<-done
}

func TestScheduler_BackoffAfterTransientFailure(t *testing.T) {
	clock := newFakeClock()
	runner := newFakeRunner(
		updater.Outcome{Status: updater.StatusFailed},
		updater.Outcome{Status: updater.StatusUpdated},
	)
	s := NewScheduler(testSchedulerConfig(), runner, nil, nil, zerolog.Nop())
	s.SetClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-runner.started
	require.Eventually(t, func() bool {
		return len(clock.recordedWaits()) == 1 && s.State() == StateBackoff
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 10*time.Minute, clock.recordedWaits()[0])

	// Wake the scheduler into the second cycle; it succeeded, so the next
	// wait is the regular interval again.
	clock.wake <- time.Time{}
	<-runner.started
	require.Eventually(t, func() bool {
		return len(clock.recordedWaits()) == 2 && s.State() == StateIdle
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2*time.Hour, clock.recordedWaits()[1])

	cancel()
	<-done
	assert.Equal(t, 2, runner.callCount())
}

func TestScheduler_SkippedCyclesUseNormalInterval(t *testing.T) {
	clock := newFakeClock()
	runner := newFakeRunner(updater.Outcome{Status: updater.StatusSkippedAllFailed})
	s := NewScheduler(testSchedulerConfig(), runner, nil, nil, zerolog.Nop())
	s.SetClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-runner.started
	require.Eventually(t, func() bool {
		return len(clock.recordedWaits()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 2*time.Hour, clock.recordedWaits()[0])
	assert.Equal(t, StateIdle, s.State())

	cancel()
	<-done
}

func TestScheduler_CancellationDuringIdleIsPrompt(t *testing.T) {
	clock := newFakeClock()
	runner := newFakeRunner(updater.Outcome{Status: updater.StatusUpdated})
	s := NewScheduler(testSchedulerConfig(), runner, nil, nil, zerolog.Nop())
	s.SetClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-runner.started
	require.Eventually(t, func() bool {
		return len(clock.recordedWaits()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop promptly while idle")
	}
	assert.Equal(t, 1, runner.callCount(), "no further cycle may start after cancellation")
}

func TestScheduler_SinksReceiveEveryOutcome(t *testing.T) {
	clock := newFakeClock()
	runner := newFakeRunner(
		updater.Outcome{Status: updater.StatusFailed},
		updater.Outcome{Status: updater.StatusUpdated},
	)
	s := NewScheduler(testSchedulerConfig(), runner, nil, nil, zerolog.Nop())
	s.SetClock(clock)
	sink := &sinkRecorder{}
	s.AddSink(sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-runner.started
	require.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	clock.wake <- time.Time{}
	<-runner.started
	require.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	assert.Equal(t, updater.StatusFailed, sink.outcomes[0].Status)
	assert.Equal(t, updater.StatusUpdated, sink.outcomes[1].Status)
}
