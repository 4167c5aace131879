// Package pacing suspends the scheduler for whole-second waits while driving
// a progress indicator.
package pacing

import (
	"context"
	"time"
)

// Clock abstracts wall time so waits can be simulated.
type Clock interface {
	Now() time.Time
	// SleepUntil blocks until t or until ctx is done.
	SleepUntil(ctx context.Context, t time.Time) error
}

// Indicator renders wait progress. Start is called once per wait, followed
// by Set for each elapsed second and a final Finish.
type Indicator interface {
	Start(total int)
	Set(n int)
	Finish()
}

type systemClock struct{}

// SystemClock is the real wall clock.
var SystemClock Clock = systemClock{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) SleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer performs waits of a whole number of seconds.
type Pacer struct {
	clock     Clock
	indicator Indicator
}

// New builds a Pacer. Nil arguments fall back to the system clock and a
// silent indicator.
func New(clock Clock, indicator Indicator) *Pacer {
	if clock == nil {
		clock = SystemClock
	}
	if indicator == nil {
		indicator = nopIndicator{}
	}
	return &Pacer{clock: clock, indicator: indicator}
}

// Wait blocks for seconds seconds, advancing the indicator once per second.
// Each step sleeps until a deadline computed from the start time, so a late
// wakeup shortens the next step instead of pushing the end back.
// It returns early only when ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context, seconds int) error {
	if seconds < 0 {
		seconds = 0
	}
	p.indicator.Start(seconds)
	defer p.indicator.Finish()

	start := p.clock.Now()
	for i := 1; i <= seconds; i++ {
		if err := p.clock.SleepUntil(ctx, start.Add(time.Duration(i)*time.Second)); err != nil {
			return err
		}
		p.indicator.Set(i)
	}
	return nil
}

type nopIndicator struct{}

func (nopIndicator) Start(int) {}
func (nopIndicator) Set(int)   {}
func (nopIndicator) Finish()   {}
