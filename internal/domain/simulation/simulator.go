// Package simulation runs a race over a set of entries and ranks them by
// elapsed time.
package simulation

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/performance"
)

const minutesPerHour = 60.0

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithModel replaces the performance model.
func WithModel(m *performance.Model) Option {
	return func(s *Simulator) {
		if m != nil {
			s.model = m
		}
	}
}

// Simulator ranks entries by drawing one effective speed per car.
type Simulator struct {
	model *performance.Model
}

// New creates a Simulator using the standard performance model.
func New(opts ...Option) *Simulator {
	s := &Simulator{model: performance.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type run struct {
	entry   model.Entry
	outcome performance.Outcome
	minutes float64
}

// Simulate races entries over distanceKM and returns one result per entry,
// ordered by position. Ties on elapsed time keep entry order.
//
// Input is fully validated before the first draw from rng, so a rejected race
// leaves the source untouched. Results carry no race id or prize yet.
func (s *Simulator) Simulate(distanceKM float64, entries []model.Entry, rng performance.Source) ([]model.Result, error) {
	if err := Validate(distanceKM, entries); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	runs := make([]run, len(entries))
	for i, e := range entries {
		out := s.model.Speed(e.Car, rng)
		runs[i] = run{entry: e, outcome: out, minutes: distanceKM / out.Speed * minutesPerHour}
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].minutes < runs[j].minutes })

	results := make([]model.Result, len(runs))
	for i, r := range runs {
		results[i] = model.Result{
			CarID:      r.entry.Car.ID,
			TeamID:     r.entry.Team.ID,
			AvgSpeed:   reportedSpeed(r.outcome.Speed, r.entry.Car.TopSpeed),
			FinishTime: round(r.minutes, 3),
			Position:   i + 1,
			Breakdown:  r.outcome.Breakdown,
		}
	}
	return results, nil
}

// Validate checks a race can be run: a positive distance and at least one
// valid entry.
func Validate(distanceKM float64, entries []model.Entry) error {
	if err := model.ValidateDistance(distanceKM); err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrNoEligibleParticipants
	}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// reportedSpeed rounds speed to two places without exceeding topSpeed.
func reportedSpeed(speed, topSpeed float64) float64 {
	v := round(speed, 2)
	if v > topSpeed {
		v = math.Floor(topSpeed*100) / 100
	}
	return v
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
