package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ligun0805/wrap-cycler/internal/logging"
)

// DefaultCyclePause is the wait between the end of one cycle and the next.
const DefaultCyclePause = 23 * time.Hour

// State is the scheduler's position in its loop.
type State int

const (
	StateIdle State = iota
	StateRunningCycle
	StateWaiting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunningCycle:
		return "running-cycle"
	case StateWaiting:
		return "waiting"
	}
	return "unknown"
}

// WalletRunner runs one account's cycle. *Runner implements it.
type WalletRunner interface {
	RunWallet(ctx context.Context, account string) (CycleReport, error)
}

// Scheduler runs every account once per cycle, strictly one after another,
// then waits CyclePause and starts over. It never stops on its own.
type Scheduler struct {
	runner   WalletRunner
	pacer    Waiter
	accounts []string
	pause    time.Duration
	log      *zap.Logger
	onState  func(from, to State)
	state    State
	cycles   int
}

type SchedulerOption func(*Scheduler)

func WithCyclePause(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d >= 0 {
			s.pause = d
		}
	}
}

func WithSchedulerLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) { s.log = logging.OrNop(l) }
}

// WithStateHook is called on every state transition.
func WithStateHook(fn func(from, to State)) SchedulerOption {
	return func(s *Scheduler) { s.onState = fn }
}

func NewScheduler(runner WalletRunner, pacer Waiter, accounts []string, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:   runner,
		pacer:    pacer,
		accounts: append([]string(nil), accounts...),
		pause:    DefaultCyclePause,
		log:      zap.NewNop(),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Scheduler) State() State { return s.state }

// Cycles returns how many cycles have been started.
func (s *Scheduler) Cycles() int { return s.cycles }

// Run loops forever. It returns only when ctx is cancelled, with the state
// back at Idle.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.transition(StateIdle)
	for {
		s.transition(StateRunningCycle)
		reports, err := s.RunCycle(ctx)
		if err != nil {
			return err
		}
		s.summarize(reports)

		s.transition(StateWaiting)
		s.log.Info("cycle complete, waiting before the next one", zap.Duration("pause", s.pause))
		if err := s.pacer.Wait(ctx, int(s.pause/time.Second)); err != nil {
			return err
		}
	}
}

// RunCycle runs every account once, in order.
func (s *Scheduler) RunCycle(ctx context.Context) ([]CycleReport, error) {
	s.cycles++
	s.log.Info("starting transaction cycle", zap.Int("cycle", s.cycles), zap.Int("accounts", len(s.accounts)))

	reports := make([]CycleReport, 0, len(s.accounts))
	for _, account := range s.accounts {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		rep, err := s.runner.RunWallet(ctx, account)
		reports = append(reports, rep)
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			s.log.Error("wallet cycle aborted", zap.String("account", account), zap.Error(err))
		}
	}
	return reports, nil
}

func (s *Scheduler) summarize(reports []CycleReport) {
	var total CycleReport
	for _, r := range reports {
		total.Planned += r.Planned
		total.Wrapped += r.Wrapped
		total.Unwrapped += r.Unwrapped
		total.Skipped += r.Skipped
		total.Failed += r.Failed
		total.PersistFailures += r.PersistFailures
	}
	fields := []zap.Field{
		zap.Int("cycle", s.cycles),
		zap.Int("planned", total.Planned),
		zap.Int("wrapped", total.Wrapped),
		zap.Int("unwrapped", total.Unwrapped),
		zap.Int("skipped", total.Skipped),
		zap.Int("failed", total.Failed),
	}
	if total.PersistFailures > 0 {
		s.log.Error("cycle finished with unrecorded transactions",
			append(fields, zap.Int("unrecorded", total.PersistFailures))...)
		return
	}
	s.log.Info("cycle summary", fields...)
}

func (s *Scheduler) transition(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.log.Debug("scheduler state", zap.Stringer("from", from), zap.Stringer("to", to))
	if s.onState != nil {
		s.onState(from, to)
	}
}
