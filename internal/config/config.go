// Package config defines service configuration and how it is loaded.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabasePath is the SQLite file holding teams, cars and races.
	DatabasePath string `koanf:"database_path"`

	// BusyTimeoutMS bounds how long a settlement waits for the write lock.
	BusyTimeoutMS int `koanf:"busy_timeout_ms"`

	// DefaultTrack names races submitted without a track.
	DefaultTrack string `koanf:"default_track"`

	// PrizeSplit is the split curve: pool fractions paid by finishing position.
	PrizeSplit []float64 `koanf:"prize_split"`

	// StartingBalance is credited to teams created without an explicit balance.
	StartingBalance float64 `koanf:"starting_balance"`

	// RaceSeed seeds the race random source. Zero draws a seed from crypto/rand.
	RaceSeed int64 `koanf:"race_seed"`

	// DedupeSize caps the number of remembered race request ids.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxHistoryLimit caps GET /races?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8080",
		DatabasePath:    "rally.db",
		BusyTimeoutMS:   5000,
		DefaultTrack:    "Riga Street Circuit",
		PrizeSplit:      []float64{0.6, 0.3, 0.1},
		StartingBalance: 10000,
		DedupeSize:      10_000,
		MaxHistoryLimit: 100,
	}
}
