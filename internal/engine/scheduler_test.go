package engine

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	events    []string
	active    int
	maxActive int
	errFor    map[string]error
}

func (r *scriptedRunner) RunWallet(_ context.Context, account string) (CycleReport, error) {
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	r.events = append(r.events, "start "+account)
	r.events = append(r.events, "end "+account)
	r.active--
	return CycleReport{Account: account, Planned: 1, Wrapped: 1}, r.errFor[account]
}

// cancelAfterWaiter cancels the context on its n-th wait.
type cancelAfterWaiter struct {
	n      int
	waits  []int
	cancel context.CancelFunc
}

func (w *cancelAfterWaiter) Wait(ctx context.Context, seconds int) error {
	w.waits = append(w.waits, seconds)
	if len(w.waits) >= w.n {
		w.cancel()
	}
	return ctx.Err()
}

func TestSchedulerRunsAccountsSequentially(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &scriptedRunner{}
	waiter := &cancelAfterWaiter{n: 1, cancel: cancel}

	var transitions []State
	s := NewScheduler(runner, waiter, []string{"a", "b", "c"},
		WithStateHook(func(_, to State) { transitions = append(transitions, to) }))

	err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"start a", "end a", "start b", "end b", "start c", "end c"}, runner.events)
	assert.Equal(t, 1, runner.maxActive)
	assert.Equal(t, []int{int(DefaultCyclePause / time.Second)}, waiter.waits)
	assert.Equal(t, 82800, waiter.waits[0])
	assert.Equal(t, []State{StateRunningCycle, StateWaiting, StateIdle}, transitions)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 1, s.Cycles())
}

func TestSchedulerRepeatsCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &scriptedRunner{}
	waiter := &cancelAfterWaiter{n: 3, cancel: cancel}

	s := NewScheduler(runner, waiter, []string{"a", "b", "c"}, WithCyclePause(90*time.Second))
	require.ErrorIs(t, s.Run(ctx), context.Canceled)

	assert.Len(t, runner.events, 18, "three accounts per cycle, three cycles")
	assert.Equal(t, []int{90, 90, 90}, waiter.waits)
	assert.Equal(t, 3, s.Cycles())
}

func TestSchedulerContinuesAfterRunnerError(t *testing.T) {
	runner := &scriptedRunner{errFor: map[string]error{"b": errors.New("boom")}}
	s := NewScheduler(runner, &cancelAfterWaiter{n: 99}, []string{"a", "b", "c"})

	reports, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "c", reports[2].Account)
}

func TestSchedulerCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &scriptedRunner{}

	s := NewScheduler(runner, &cancelAfterWaiter{n: 1, cancel: cancel}, []string{"a"})
	require.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Empty(t, runner.events)
	assert.Equal(t, StateIdle, s.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running-cycle", StateRunningCycle.String())
	assert.Equal(t, "waiting", StateWaiting.String())
	assert.Equal(t, "unknown", State(42).String())
}
