package history

import (
	"sync"
	"time"
)

// MemoryStore is a Store without durable storage.
type MemoryStore struct {
	mu      sync.Mutex
	records entries
	opts    options
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{opts: buildOptions(opts)}
}

func (m *MemoryStore) Append(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryStore) CountWithin(account string, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.opts.now()
	if m.records.stale(m.opts.retention, now) {
		m.records = nil
	}
	return m.records.countWithin(account, window, now), nil
}

func (m *MemoryStore) PruneIfStale(staleness time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.records.stale(staleness, m.opts.now()) {
		return false, nil
	}
	m.records = nil
	return true, nil
}

// Records returns a copy of the current log.
func (m *MemoryStore) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}
