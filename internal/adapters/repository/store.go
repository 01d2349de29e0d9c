// Package repository persists teams, cars, races and settlements.
package repository

import (
	"context"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/settlement"
	"github.com/okian/rally/internal/domain/types"
)

// Counts summarises the size of the store.
type Counts struct {
	Teams int `json:"teams"`
	Cars  int `json:"cars"`
	Races int `json:"races"`
}

// Store provides read/write access to the race state.
type Store interface {
	// WithinTx runs fn inside one write transaction. It is the only way to
	// change a team balance.
	settlement.Store

	CreateTeam(ctx context.Context, team model.Team) (model.Team, error)
	GetTeam(ctx context.Context, id int64) (model.Team, error)
	ListTeams(ctx context.Context) ([]model.Team, error)

	CreateCar(ctx context.Context, car model.Car) (model.Car, error)
	GetCar(ctx context.Context, id int64) (model.Car, error)
	ListCars(ctx context.Context) ([]types.CarView, error)
	// AssignCar moves a car to teamID, or unassigns it when teamID is nil.
	// Returns ErrNotFound for an unknown car or team.
	AssignCar(ctx context.Context, carID int64, teamID *int64) (model.Car, error)

	// ListEntries returns every team-assigned car with its team, ordered by
	// car id.
	ListEntries(ctx context.Context) ([]model.Entry, error)

	// ListRaces returns up to limit races, newest first.
	ListRaces(ctx context.Context, limit int) ([]model.Race, error)
	GetRace(ctx context.Context, id string) (model.Race, error)
	// ListRaceResults returns the standings of a race ordered by position.
	ListRaceResults(ctx context.Context, raceID string) ([]types.Standing, error)
	ListTeamSettlements(ctx context.Context, raceID string) ([]model.TeamSettlement, error)

	Counts(ctx context.Context) (Counts, error)
	Ping(ctx context.Context) error
	Close() error
}
