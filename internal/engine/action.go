// Package engine decides what each account does in a cycle and drives the
// daily loop over all accounts.
package engine

import "github.com/ligun0805/wrap-cycler/internal/history"

// CycleState lives for one account's cycle.
type CycleState struct {
	// WrapStreak counts successful wraps since the last unwrap turn.
	WrapStreak int
	// UnwrapCount counts unwrap turns, including gated-off and failed ones.
	// It is informational; selection does not read it.
	UnwrapCount    int
	TurnsRemaining int
}

// Select picks the action for the next turn: wrap until one wrap has
// succeeded, then one unwrap turn, which resets the streak whatever its outcome.
func Select(s *CycleState) history.Action {
	if s.WrapStreak < 1 {
		return history.ActionWrap
	}
	s.WrapStreak = 0
	s.UnwrapCount++
	return history.ActionUnwrap
}

// RecordWrap is called after a wrap submission succeeded.
func (s *CycleState) RecordWrap() { s.WrapStreak++ }
