package service

import (
	"time"

	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/prize"
	"github.com/okian/rally/internal/domain/simulation"
	"github.com/okian/rally/pkg/logger"
	"github.com/shopspring/decimal"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence collaborator. Required.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPrizeCurve sets the payout fraction per finishing position.
func WithPrizeCurve(curve []float64) Option {
	return func(s *Service) {
		if curve != nil {
			s.curve = prize.Curve(append([]float64(nil), curve...))
		}
	}
}

// WithDefaultTrack sets the track used when a request names none.
func WithDefaultTrack(track string) Option {
	return func(s *Service) {
		if track != "" {
			s.defaultTrack = track
		}
	}
}

// WithStartingBalance sets the balance of newly created teams.
func WithStartingBalance(balance float64) Option {
	return func(s *Service) {
		if balance >= 0 {
			s.startingBalance = decimal.NewFromFloat(balance).Round(2)
		}
	}
}

// WithSeed seeds the generator that derives per-race seeds. Zero draws a
// seed from crypto/rand at Start.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithDedupeSize sets how many race request ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithHistoryLimit caps how many races a history listing returns.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithSimulator replaces the race simulator.
func WithSimulator(sim *simulation.Simulator) Option {
	return func(s *Service) {
		if sim != nil {
			s.simulator = sim
		}
	}
}

// WithIDGenerator replaces the race id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock replaces the clock stamping race creation.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}
