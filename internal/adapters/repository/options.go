package repository

import "time"

const (
	defaultBusyTimeout = 5 * time.Second
	defaultMaxConns    = 4
)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithBusyTimeout sets how long a writer waits for the database lock before
// failing.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d >= 0 {
			s.busyTimeout = d
		}
	}
}

// WithMaxOpenConns caps the connection pool.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxConns = n
		}
	}
}
