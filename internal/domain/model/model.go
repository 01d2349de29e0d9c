// Package model contains the domain records shared by the simulator,
// the settlement engine and the store.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FloorPaceKMH is the slowest average speed a running car is credited with.
const FloorPaceKMH = 60.0

// HandlingMax is the upper bound of the handling rating scale.
const HandlingMax = 100.0

// Team owns cars and carries the balance that settlements adjust.
type Team struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Members string          `json:"members"`
	Balance decimal.Decimal `json:"balance"`
}

// Car holds the static performance attributes of a vehicle.
// TeamID is nil while the car is unassigned; unassigned cars never race.
type Car struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	TopSpeed    float64 `json:"top_speed_kmh"`
	Accel       float64 `json:"accel_0_100_s"`
	Reliability float64 `json:"reliability"`
	Handling    float64 `json:"handling"`
	Weight      float64 `json:"weight_kg"`
	TeamID      *int64  `json:"team_id,omitempty"`
}

// Entry is a car paired with the team that owns it at race time.
type Entry struct {
	Car  Car
	Team Team
}

// Race is an immutable record of one simulated and settled race.
type Race struct {
	ID         string          `json:"id"`
	Track      string          `json:"track"`
	DistanceKM float64         `json:"distance_km"`
	EntryFee   decimal.Decimal `json:"entry_fee"`
	PrizePool  decimal.Decimal `json:"prize_pool"`
	Seed       int64           `json:"seed"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Result is one entry's outcome in a race.
type Result struct {
	RaceID     string          `json:"race_id"`
	CarID      int64           `json:"car_id"`
	TeamID     int64           `json:"team_id"`
	AvgSpeed   float64         `json:"avg_speed_kmh"`
	FinishTime float64         `json:"finish_time_min"`
	Position   int             `json:"position"`
	Prize      decimal.Decimal `json:"prize"`
	Breakdown  bool            `json:"breakdown"`
}

// TeamSettlement is the per-team ledger line written by a settlement.
type TeamSettlement struct {
	RaceID     string          `json:"race_id"`
	TeamID     int64           `json:"team_id"`
	Entries    int             `json:"entries"`
	FeeTotal   decimal.Decimal `json:"fee_total"`
	PrizeTotal decimal.Decimal `json:"prize_total"`
	Delta      decimal.Decimal `json:"delta"`
}

// RaceSpec is the caller-supplied description of a race to run.
type RaceSpec struct {
	Track      string
	DistanceKM float64
	EntryFee   decimal.Decimal
	PrizePool  decimal.Decimal
}
