package history

import "time"

type options struct {
	now       func() time.Time
	retention time.Duration
}

// Option configures a Store.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRetention sets the staleness threshold used by CountWithin.
func WithRetention(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retention = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, retention: DefaultRetention}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
