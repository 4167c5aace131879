// Package history keeps the rolling log of wrap/unwrap operations that were
// sent on-chain and answers windowed counts over it.
package history

import "time"

// Action identifies the contract operation a record describes.
type Action string

const (
	ActionWrap   Action = "Wrap"
	ActionUnwrap Action = "Unwrap"
)

// DefaultRetention is how old the oldest record may get before the whole
// log is reset.
const DefaultRetention = 30 * 24 * time.Hour

// Record is one successful submission. Records are never edited after Append.
type Record struct {
	Action    Action    `json:"action"`
	Amount    string    `json:"amount"`
	Wallet    string    `json:"wallet"`
	TxHash    string    `json:"txHash"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the persistence contract used by the cycle runner.
type Store interface {
	// Append durably adds rec at the end of the log.
	Append(rec Record) error
	// CountWithin counts records for account stamped in [now-window, now].
	// An empty account counts every record. Stale logs are pruned first.
	CountWithin(account string, window time.Duration) (int, error)
	// PruneIfStale clears the log when its oldest record is older than staleness.
	PruneIfStale(staleness time.Duration) (bool, error)
}

// Stats are the per-account counts printed before each wallet cycle.
type Stats struct {
	Today int
	Week  int
	Month int
}

// Collect gathers the 1, 7 and 30 day counts for account.
func Collect(s Store, account string) (Stats, error) {
	var st Stats
	var err error
	if st.Today, err = s.CountWithin(account, 24*time.Hour); err != nil {
		return Stats{}, err
	}
	if st.Week, err = s.CountWithin(account, 7*24*time.Hour); err != nil {
		return Stats{}, err
	}
	if st.Month, err = s.CountWithin(account, 30*24*time.Hour); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// entries is the in-memory form shared by every Store implementation.
type entries []Record

func (l entries) countWithin(account string, window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	n := 0
	for _, r := range l {
		if account != "" && r.Wallet != account {
			continue
		}
		if r.Timestamp.Before(cutoff) || r.Timestamp.After(now) {
			continue
		}
		n++
	}
	return n
}

// stale reports whether the oldest record is older than staleness. Index 0
// is the oldest record because appends happen in completion order.
func (l entries) stale(staleness time.Duration, now time.Time) bool {
	if len(l) == 0 {
		return false
	}
	return now.Sub(l[0].Timestamp) > staleness
}
