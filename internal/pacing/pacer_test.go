package pacing

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeClock jumps straight to each deadline, optionally waking up late.
type fakeClock struct {
	now      time.Time
	lateness time.Duration
	targets  []time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) SleepUntil(ctx context.Context, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.targets = append(c.targets, t)
	if t.After(c.now) {
		c.now = t
	}
	c.now = c.now.Add(c.lateness)
	return nil
}

type recordingIndicator struct {
	total    int
	values   []int
	started  int
	finished int
}

func (r *recordingIndicator) Start(total int) { r.total = total; r.started++ }
func (r *recordingIndicator) Set(n int)       { r.values = append(r.values, n) }
func (r *recordingIndicator) Finish()         { r.finished++ }

func TestWaitDrivesIndicatorToTarget(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	ind := &recordingIndicator{}

	require.NoError(t, New(clock, ind).Wait(context.Background(), 3))

	assert.Equal(t, 3, ind.total)
	assert.Equal(t, []int{1, 2, 3}, ind.values)
	assert.Equal(t, 1, ind.started)
	assert.Equal(t, 1, ind.finished)
	assert.False(t, clock.now.Before(start.Add(3*time.Second)))
}

func TestWaitDoesNotAccumulateDrift(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start, lateness: 300 * time.Millisecond}

	require.NoError(t, New(clock, nil).Wait(context.Background(), 5))

	require.Len(t, clock.targets, 5)
	for i, target := range clock.targets {
		assert.Equal(t, start.Add(time.Duration(i+1)*time.Second), target)
	}
	// Only the final wakeup's lateness remains.
	assert.Equal(t, start.Add(5*time.Second+300*time.Millisecond), clock.now)
}

func TestWaitZeroAndNegative(t *testing.T) {
	for _, s := range []int{0, -4} {
		clock := &fakeClock{now: time.Unix(0, 0)}
		ind := &recordingIndicator{}
		require.NoError(t, New(clock, ind).Wait(context.Background(), s))
		assert.Equal(t, 0, ind.total)
		assert.Empty(t, ind.values)
		assert.Empty(t, clock.targets)
		assert.Equal(t, 1, ind.finished)
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ind := &recordingIndicator{}

	err := New(&fakeClock{now: time.Unix(0, 0)}, ind).Wait(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ind.values)
	assert.Equal(t, 1, ind.finished)
}

func TestWaitRealClock(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps for real")
	}
	ind := &recordingIndicator{}
	began := time.Now()
	require.NoError(t, New(nil, ind).Wait(context.Background(), 3))

	assert.GreaterOrEqual(t, time.Since(began), 3*time.Second)
	assert.Equal(t, []int{1, 2, 3}, ind.values)
}

func TestSystemClockHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := SystemClock.SleepUntil(ctx, time.Now().Add(time.Hour))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, SystemClock.SleepUntil(context.Background(), time.Now().Add(-time.Second)))
}

func TestBarIndicator(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBarIndicator(&buf, "Waiting:")

	bar.Start(3)
	bar.Set(1)
	bar.Set(3)
	bar.Finish()
	assert.Contains(t, buf.String(), "Waiting:")

	bar.Start(0)
	bar.Set(1)
	bar.Finish()
}

func TestLogIndicator(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	clock := &fakeClock{now: time.Unix(0, 0).UTC(), lateness: 250 * time.Millisecond}
	ind := NewLogIndicator(zap.New(core), clock)

	require.NoError(t, New(clock, ind).Wait(context.Background(), 2))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "waiting before next transaction", entries[0].Message)
	assert.EqualValues(t, 2, entries[0].ContextMap()["seconds"])
	assert.Equal(t, time.Unix(2, 0).UTC(), entries[0].ContextMap()["until"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "wait finished", entries[1].Message)
	assert.EqualValues(t, 2, entries[1].ContextMap()["seconds"])
	assert.Equal(t, 2250*time.Millisecond, entries[1].ContextMap()["elapsed"], "elapsed comes from the injected clock")
}

func TestLogIndicatorInfoOnly(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	clock := &fakeClock{now: time.Unix(0, 0)}

	require.NoError(t, New(clock, NewLogIndicator(zap.New(core), clock)).Wait(context.Background(), 3))
	require.NoError(t, New(clock, NewLogIndicator(zap.New(core), clock)).Wait(context.Background(), 0))

	assert.Equal(t, 1, logs.Len(), "one info line per non-empty wait")
}
