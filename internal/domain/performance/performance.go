// Package performance converts static car attributes into a race-day
// average speed.
package performance

import (
	"math"

	"github.com/okian/rally/internal/domain/model"
)

// Default model parameters.
const (
	defaultBaseFactor  = 0.7
	defaultNoiseMean   = 1.0
	defaultNoiseStdDev = 0.07
	defaultPenaltyMin  = 0.7
	defaultPenaltyMax  = 0.9
	accelIntercept     = 1.4
	accelSlope         = 0.1
	accelFactorMin     = 0.8
	accelFactorMax     = 1.2
	handlingIntercept  = 0.9
	handlingDivisor    = 1000.0
)

// Source supplies the random draws. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	NormFloat64() float64
}

// Outcome is the effective speed of one entry and whether it broke down.
type Outcome struct {
	Speed     float64
	Breakdown bool
}

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithNoiseStdDev sets the standard deviation of race-day variance.
func WithNoiseStdDev(sd float64) Option {
	return func(m *Model) {
		if sd >= 0 {
			m.noiseStdDev = sd
		}
	}
}

// WithBreakdownPenalty sets the speed multiplier range applied on a breakdown.
func WithBreakdownPenalty(minFactor, maxFactor float64) Option {
	return func(m *Model) {
		if minFactor > 0 && maxFactor >= minFactor && maxFactor <= 1 {
			m.penaltyMin = minFactor
			m.penaltyMax = maxFactor
		}
	}
}

// Model is the parametric speed model. The zero value is not usable; use New.
type Model struct {
	baseFactor  float64
	noiseMean   float64
	noiseStdDev float64
	penaltyMin  float64
	penaltyMax  float64
}

// New creates a Model with the standard parameters.
func New(opts ...Option) *Model {
	m := &Model{
		baseFactor:  defaultBaseFactor,
		noiseMean:   defaultNoiseMean,
		noiseStdDev: defaultNoiseStdDev,
		penaltyMin:  defaultPenaltyMin,
		penaltyMax:  defaultPenaltyMax,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AccelFactor rewards quick 0-100 times, bounded to [0.8, 1.2].
func AccelFactor(accelSeconds float64) float64 {
	return clamp(accelIntercept-accelSlope*accelSeconds, accelFactorMin, accelFactorMax)
}

// HandlingFactor is a small linear bonus from the handling rating.
func HandlingFactor(handling float64) float64 {
	return handlingIntercept + handling/handlingDivisor
}

// Speed draws one race-day average speed for car, in km/h.
//
// Draw order is fixed (noise, reliability roll, then the penalty only on a
// breakdown) so a seeded source reproduces the same outcome. The result
// always lies in [FloorPaceKMH, car.TopSpeed] for a car that passed
// validation.
func (m *Model) Speed(car model.Car, rng Source) Outcome {
	noise := m.noiseMean + m.noiseStdDev*rng.NormFloat64()
	speed := m.baseFactor * car.TopSpeed * AccelFactor(car.Accel) * HandlingFactor(car.Handling) * noise

	var out Outcome
	if rng.Float64() > car.Reliability {
		out.Breakdown = true
		speed *= m.penaltyMin + (m.penaltyMax-m.penaltyMin)*rng.Float64()
	}
	out.Speed = clamp(speed, model.FloorPaceKMH, car.TopSpeed)
	return out
}

var defaultModel = New()

// EffectiveSpeed runs the standard model.
func EffectiveSpeed(car model.Car, rng Source) Outcome {
	return defaultModel.Speed(car, rng)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}
