package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPender returns the scripted results in order, then nil.
type scriptedPender struct {
	results []error
	panicAt map[int]bool
	calls   int
}

func (p *scriptedPender) RunPending(context.Context) error {
	i := p.calls
	p.calls++
	if p.panicAt[i] {
		panic("pending check exploded")
	}
	if i < len(p.results) {
		return p.results[i]
	}
	return nil
}

// recordingSleep records requested pauses and cancels after limit sleeps.
type recordingSleep struct {
	mu     sync.Mutex
	pauses []time.Duration
	limit  int
	cancel context.CancelFunc
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.pauses = append(r.pauses, d)
	n := len(r.pauses)
	r.mu.Unlock()
	if n >= r.limit {
		r.cancel()
	}
	return ctx.Err()
}

type pollRecorder struct {
	errs []error
}

func (p *pollRecorder) ObservePoll(err error) { p.errs = append(p.errs, err) }

func runSupervisor(t *testing.T, p Pender, limit int, obs PollObserver) ([]time.Duration, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf bytes.Buffer
	sleeper := &recordingSleep{limit: limit, cancel: cancel}
	sup := NewSupervisor(p, SupervisorConfig{
		Sleep:    sleeper.Sleep,
		Logger:   slog.New(slog.NewTextHandler(&buf, nil)),
		Observer: obs,
	})

	err := sup.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	return sleeper.pauses, buf.String()
}

func TestSupervisor_PollIntervalAndCooldown(t *testing.T) {
	p := &scriptedPender{results: []error{nil, errors.New("poll failed"), nil}}

	pauses, logs := runSupervisor(t, p, 4, nil)

	assert.Equal(t, []time.Duration{60 * time.Second, 300 * time.Second, 60 * time.Second, 60 * time.Second}, pauses)
	assert.Equal(t, 4, p.calls)
	assert.Contains(t, logs, "Error in main loop: poll failed")
}

func TestSupervisor_SurvivesPanickingPoll(t *testing.T) {
	p := &scriptedPender{panicAt: map[int]bool{0: true}}
	obs := &pollRecorder{}

	pauses, logs := runSupervisor(t, p, 2, obs)

	assert.Equal(t, []time.Duration{300 * time.Second, 60 * time.Second}, pauses)
	assert.Contains(t, logs, "Error in main loop: poll panicked: pending check exploded")
	require.Len(t, obs.errs, 2)
	assert.Error(t, obs.errs[0])
	assert.NoError(t, obs.errs[1])
}

func TestSupervisor_SurvivesPanickingJob(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := New(WithLocation(time.UTC), WithClock(clock.Now), WithLogger(discardLogger()))
	require.NoError(t, s.Every("daily", "* * * * *", func(context.Context) error { panic("job exploded") }))

	// Each poll lands on a new minute so the job fires every time.
	stepping := penderFunc(func(ctx context.Context) error {
		clock.Set(clock.Now().Add(time.Minute))
		return s.RunPending(ctx)
	})

	pauses, logs := runSupervisor(t, stepping, 3, nil)

	assert.Equal(t, []time.Duration{300 * time.Second, 300 * time.Second, 300 * time.Second}, pauses)
	assert.Contains(t, logs, ErrJobPanicked.Error())
}

func TestSupervisor_CustomDurations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sleeper := &recordingSleep{limit: 2, cancel: cancel}
	p := &scriptedPender{results: []error{errors.New("x")}}

	sup := NewSupervisor(p, SupervisorConfig{
		PollInterval: time.Second,
		Cooldown:     5 * time.Second,
		Sleep:        sleeper.Sleep,
		Logger:       discardLogger(),
	})
	require.ErrorIs(t, sup.Run(ctx), context.Canceled)
	assert.Equal(t, []time.Duration{5 * time.Second, time.Second}, sleeper.pauses)
}

func TestSupervisor_StopsWhenCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedPender{}

	sup := NewSupervisor(p, SupervisorConfig{Logger: discardLogger()})
	assert.ErrorIs(t, sup.Run(ctx), context.Canceled)
	assert.Equal(t, 0, p.calls)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

type penderFunc func(ctx context.Context) error

func (f penderFunc) RunPending(ctx context.Context) error { return f(ctx) }
