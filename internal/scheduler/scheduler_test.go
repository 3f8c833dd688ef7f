package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/poamaps/incident-etl/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testScheduler(clock clockwork.Clock, gate bool) *Scheduler {
	return New(clock, gate, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// monday is a weekday timestamp well inside business hours.
var monday = time.Date(2026, 8, 17, 10, 0, 0, 0, time.UTC)

func TestScheduler_RunsImmediatelyThenOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(monday)
	s := testScheduler(clock, false)

	var runs atomic.Int64
	s.Add(Job{
		Name:     "ingest",
		Interval: 2 * time.Minute,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Immediate run, then the goroutine parks on its ticker.
	clock.BlockUntil(1)
	assert.Equal(t, int64(1), runs.Load())

	clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool { return runs.Load() == 2 }, 5*time.Second, time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_JobErrorDoesNotStopScheduling(t *testing.T) {
	clock := clockwork.NewFakeClockAt(monday)
	s := testScheduler(clock, false)

	var runs atomic.Int64
	s.Add(Job{
		Name:     "retire",
		Interval: time.Minute,
		Run: func(context.Context) error {
			runs.Add(1)
			return errors.New("transport down")
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return runs.Load() == 2 }, 5*time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestScheduler_BusinessHoursGateSkipsRuns(t *testing.T) {
	// Sunday, 03:00: the source account is silent.
	sunday := time.Date(2026, 8, 16, 3, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(sunday)
	s := testScheduler(clock, true)

	var gated, ungated atomic.Int64
	s.Add(Job{
		Name:          "ingest",
		Interval:      time.Minute,
		BusinessHours: true,
		Run: func(context.Context) error {
			gated.Add(1)
			return nil
		},
	})
	s.Add(Job{
		Name:     "stale",
		Interval: time.Minute,
		Run: func(context.Context) error {
			ungated.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	clock.BlockUntil(2)
	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return ungated.Load() == 2 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, int64(0), gated.Load())

	cancel()
	<-done
}

func TestWithinBusinessHours(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday mid-morning", time.Date(2026, 8, 17, 10, 0, 0, 0, time.UTC), true},
		{"monday before open", time.Date(2026, 8, 17, 6, 59, 0, 0, time.UTC), false},
		{"monday at open", time.Date(2026, 8, 17, 7, 0, 0, 0, time.UTC), true},
		{"friday last minute", time.Date(2026, 8, 21, 21, 59, 0, 0, time.UTC), true},
		{"friday after close", time.Date(2026, 8, 21, 22, 0, 0, 0, time.UTC), false},
		{"saturday noon", time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC), false},
		{"sunday noon", time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withinBusinessHours(tt.t))
		})
	}
}
