package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidAttribute}, args...)...)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Validate checks the car attributes the performance model depends on.
func (c Car) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return invalid("car name is required")
	case !finite(c.TopSpeed) || c.TopSpeed < FloorPaceKMH:
		return invalid("car %q: top speed %v must be at least %v km/h", c.Name, c.TopSpeed, FloorPaceKMH)
	case !finite(c.Accel) || c.Accel <= 0:
		return invalid("car %q: acceleration time %v must be positive", c.Name, c.Accel)
	case !finite(c.Reliability) || c.Reliability < 0 || c.Reliability > 1:
		return invalid("car %q: reliability %v outside [0,1]", c.Name, c.Reliability)
	case !finite(c.Handling) || c.Handling < 0 || c.Handling > HandlingMax:
		return invalid("car %q: handling %v outside [0,%v]", c.Name, c.Handling, HandlingMax)
	case !finite(c.Weight) || c.Weight <= 0:
		return invalid("car %q: weight %v must be positive", c.Name, c.Weight)
	}
	return nil
}

// Validate checks that the entry is raceable: a valid car owned by a known team.
func (e Entry) Validate() error {
	if e.Team.ID == 0 {
		return invalid("car %q has no team", e.Car.Name)
	}
	if e.Car.TeamID != nil && *e.Car.TeamID != e.Team.ID {
		return invalid("car %q is owned by team %d, entered for team %d", e.Car.Name, *e.Car.TeamID, e.Team.ID)
	}
	return e.Car.Validate()
}

// ValidateDistance checks a race distance in kilometres.
func ValidateDistance(km float64) error {
	if !finite(km) || km <= 0 {
		return invalid("distance %v km must be positive", km)
	}
	return nil
}

// Validate checks the race parameters.
func (s RaceSpec) Validate() error {
	if strings.TrimSpace(s.Track) == "" {
		return invalid("track name is required")
	}
	if err := ValidateDistance(s.DistanceKM); err != nil {
		return err
	}
	if err := validMoney("entry fee", s.EntryFee); err != nil {
		return err
	}
	return validMoney("prize pool", s.PrizePool)
}

func validMoney(what string, d decimal.Decimal) error {
	if d.IsNegative() {
		return invalid("%s %s must not be negative", what, d)
	}
	if !d.Equal(d.Truncate(2)) {
		return invalid("%s %s has fractions of a cent", what, d)
	}
	return nil
}

// Validate checks a team before it is created.
func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return invalid("team name is required")
	}
	return nil
}
