package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/wal-archiver/internal/logging"
)

// every fires at a fixed sub-second delay; cron.Every rounds up to 1s.
type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

func TestSchedulerRunsRepeatedly(t *testing.T) {
	var runs atomic.Int32
	s := New(every(10*time.Millisecond), func(context.Context) error {
		runs.Add(1)
		return nil
	}, logging.Nop())

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerSurvivesFailures(t *testing.T) {
	var runs atomic.Int32
	s := New(every(5*time.Millisecond), func(context.Context) error {
		n := runs.Add(1)
		switch n {
		case 1:
			return errors.New("disk full")
		case 2:
			panic("boom")
		}
		return nil
	}, logging.Nop())

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerNeverOverlaps(t *testing.T) {
	var active, maxActive, runs atomic.Int32
	s := New(every(time.Millisecond), func(context.Context) error {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		runs.Add(1)
		return nil
	}, logging.Nop())

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 5 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	s := New(every(time.Hour), func(context.Context) error { return nil }, logging.Nop())

	s.Stop()
	s.Start()
	assert.True(t, s.Running())
	assert.False(t, s.Next().IsZero())

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
	assert.True(t, s.Next().IsZero())
}

func TestStopPreventsFurtherRuns(t *testing.T) {
	var runs atomic.Int32
	s := New(every(5*time.Millisecond), func(context.Context) error {
		runs.Add(1)
		return nil
	}, logging.Nop())

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 2*time.Second, time.Millisecond)
	s.Stop()

	// let any in-flight firing drain
	time.Sleep(20 * time.Millisecond)
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestStopCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	done := make(chan error, 1)

	s := New(every(time.Millisecond), func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	}, logging.Nop())

	s.Start()
	<-started
	s.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("job context was not cancelled")
	}
}

func TestReschedule(t *testing.T) {
	var runs atomic.Int32
	s := New(every(time.Hour), func(context.Context) error {
		runs.Add(1)
		return nil
	}, logging.Nop())

	s.Start()
	defer s.Stop()
	assert.Zero(t, runs.Load())

	s.Reschedule(every(5 * time.Millisecond))
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestParse(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 30, 0, 0, time.Local)

	s, err := Parse("", 24)
	require.NoError(t, err)
	assert.Equal(t, base.Add(24*time.Hour), s.Next(base))

	s, err = Parse("0 2 * * *", 24)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 2, 0, 0, 0, time.Local), s.Next(base))

	s, err = Parse("@hourly", 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 11, 0, 0, 0, time.Local), s.Next(base))

	_, err = Parse("bogus", 24)
	assert.Error(t, err)

	_, err = Parse("", 0)
	assert.Error(t, err)

	_, err = Parse("0 0 30 2 *", 24)
	assert.ErrorContains(t, err, "never fires")
}

// never is what robfig/cron returns for a spec like "0 0 30 2 *".
type never struct{}

func (never) Next(time.Time) time.Time { return time.Time{} }

func TestScheduleThatNeverFiresRunsNothing(t *testing.T) {
	var runs atomic.Int32
	s := New(never{}, func(context.Context) error {
		runs.Add(1)
		return nil
	}, logging.Nop())

	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.Zero(t, runs.Load())
}

func TestRescheduleToNeverFiringStopsRuns(t *testing.T) {
	var runs atomic.Int32
	s := New(every(5*time.Millisecond), func(context.Context) error {
		runs.Add(1)
		return nil
	}, logging.Nop())

	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 2*time.Second, time.Millisecond)

	s.Reschedule(never{})
	time.Sleep(20 * time.Millisecond)
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
	assert.True(t, s.Next().IsZero())
}
