package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrPersist marks a failure to write the history file. The operation it was
// recording has already happened on-chain.
var ErrPersist = errors.New("history persist failed")

// FileStore keeps the log as an indented JSON array, rewritten in full on
// every change.
type FileStore struct {
	mu   sync.Mutex
	path string
	opts options
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens (or lazily creates) the log at path. An existing file
// must contain a JSON array.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	fs := &FileStore{path: path, opts: buildOptions(opts)}
	if _, err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Path returns the location of the log file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Append(rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load()
	if err != nil {
		return errors.Wrapf(ErrPersist, "tx %s: %v", rec.TxHash, err)
	}
	rec.Timestamp = rec.Timestamp.UTC()
	records = append(records, rec)
	if err := f.save(records); err != nil {
		return errors.Wrapf(ErrPersist, "tx %s: %v", rec.TxHash, err)
	}
	return nil
}

func (f *FileStore) CountWithin(account string, window time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load()
	if err != nil {
		return 0, err
	}
	now := f.opts.now()
	if records.stale(f.opts.retention, now) {
		if err := f.save(nil); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return records.countWithin(account, window, now), nil
}

func (f *FileStore) PruneIfStale(staleness time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load()
	if err != nil {
		return false, err
	}
	if !records.stale(staleness, f.opts.now()) {
		return false, nil
	}
	return true, f.save(nil)
}

// Records returns the persisted log.
func (f *FileStore) Records() ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *FileStore) load() (entries, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", f.path)
	}
	if len(b) == 0 {
		return nil, nil
	}
	var out entries
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.path)
	}
	return out, nil
}

// save replaces the file atomically through a temp file in the same directory.
func (f *FileStore) save(records entries) error {
	if records == nil {
		records = entries{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode history")
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write history")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync history")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close history")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), f.path), "replace %s", f.path)
}
