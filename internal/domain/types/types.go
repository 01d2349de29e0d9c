// Package types contains read shapes returned by the API.
package types

import (
	"github.com/okian/rally/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Standing is one row of a race result joined with team and car names.
type Standing struct {
	Position   int             `json:"position"`
	TeamID     int64           `json:"team_id"`
	TeamName   string          `json:"team_name"`
	CarID      int64           `json:"car_id"`
	CarName    string          `json:"car_name"`
	AvgSpeed   float64         `json:"avg_speed_kmh"`
	FinishTime float64         `json:"finish_time_min"`
	Prize      decimal.Decimal `json:"prize"`
	Breakdown  bool            `json:"breakdown"`
}

// RaceReport is the outcome of a settled race.
type RaceReport struct {
	Race        model.Race             `json:"race"`
	Standings   []Standing             `json:"standings"`
	Settlements []model.TeamSettlement `json:"settlements"`
}

// CarView is a car together with the name of its team, if any.
type CarView struct {
	model.Car
	TeamName string `json:"team_name,omitempty"`
}

// RaceRequest asks for a race among every team-assigned car.
// RequestID, when set, makes the submission idempotent.
type RaceRequest struct {
	model.RaceSpec
	RequestID string
}
