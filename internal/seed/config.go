// Package seed generates reproducible demo teams and cars.
package seed

import (
	"errors"
	"fmt"
)

// ErrInvalidPlan is returned when a Plan cannot produce a fleet.
var ErrInvalidPlan = errors.New("invalid seed plan")

// Plan describes the demo fleet to generate.
type Plan struct {
	Teams       int   // number of teams
	CarsPerTeam int   // cars assigned to each team
	Unassigned  int   // extra cars left without a team
	Seed        int64 // generator seed; equal seeds give equal fleets
}

// DefaultPlan returns a small fleet suitable for a first race.
func DefaultPlan() Plan {
	return Plan{Teams: 4, CarsPerTeam: 2, Unassigned: 1, Seed: 1}
}

// Validate checks the plan bounds.
func (p Plan) Validate() error {
	switch {
	case p.Teams < 0 || p.Teams > maxTeams:
		return fmt.Errorf("%w: teams must be in [0,%d]", ErrInvalidPlan, maxTeams)
	case p.CarsPerTeam < 0 || p.CarsPerTeam > maxCarsPerTeam:
		return fmt.Errorf("%w: cars per team must be in [0,%d]", ErrInvalidPlan, maxCarsPerTeam)
	case p.Unassigned < 0 || p.Unassigned > maxUnassigned:
		return fmt.Errorf("%w: unassigned cars must be in [0,%d]", ErrInvalidPlan, maxUnassigned)
	}
	return nil
}
