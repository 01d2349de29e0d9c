package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/types"
)

type scanFunc func(dest ...any) error

const teamColumns = "id, name, members, balance_cents"

func scanTeam(scan scanFunc) (model.Team, error) {
	var (
		t     model.Team
		cents int64
	)
	if err := scan(&t.ID, &t.Name, &t.Members, &cents); err != nil {
		return model.Team{}, err
	}
	t.Balance = fromCents(cents)
	return t, nil
}

const carColumns = "c.id, c.name, c.top_speed_kmh, c.accel_s, c.reliability, c.handling, c.weight_kg, c.team_id"

func scanCar(scan scanFunc, extra ...any) (model.Car, error) {
	var (
		c      model.Car
		teamID sql.NullInt64
	)
	dest := append([]any{&c.ID, &c.Name, &c.TopSpeed, &c.Accel, &c.Reliability, &c.Handling, &c.Weight, &teamID}, extra...)
	if err := scan(dest...); err != nil {
		return model.Car{}, err
	}
	if teamID.Valid {
		id := teamID.Int64
		c.TeamID = &id
	}
	return c, nil
}

// CreateTeam inserts team and returns it with its id. A taken name yields
// ErrConflict.
func (s *SQLiteStore) CreateTeam(ctx context.Context, team model.Team) (model.Team, error) {
	defer observe("create_team", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Team{}, err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO teams (name, members, balance_cents) VALUES (?, ?, ?)",
		team.Name, team.Members, toCents(team.Balance),
	)
	if err != nil {
		return model.Team{}, mapConstraint(err, "create team")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Team{}, fmt.Errorf("create team: %w", err)
	}
	team.ID = id
	team.Balance = fromCents(toCents(team.Balance))
	return team, nil
}

// GetTeam loads one team.
func (s *SQLiteStore) GetTeam(ctx context.Context, id int64) (model.Team, error) {
	defer observe("get_team", time.Now())
	row := s.db.QueryRowContext(ctx, "SELECT "+teamColumns+" FROM teams WHERE id = ?", id)
	t, err := scanTeam(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Team{}, fmt.Errorf("team %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Team{}, fmt.Errorf("get team %d: %w", id, err)
	}
	return t, nil
}

// ListTeams returns every team ordered by name.
func (s *SQLiteStore) ListTeams(ctx context.Context) ([]model.Team, error) {
	defer observe("list_teams", time.Now())
	rows, err := s.db.QueryContext(ctx, "SELECT "+teamColumns+" FROM teams ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := []model.Team{}
	for rows.Next() {
		t, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// CreateCar inserts car. A TeamID naming an unknown team yields ErrNotFound.
func (s *SQLiteStore) CreateCar(ctx context.Context, car model.Car) (model.Car, error) {
	defer observe("create_car", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Car{}, err
	}
	var teamID sql.NullInt64
	if car.TeamID != nil {
		teamID = sql.NullInt64{Int64: *car.TeamID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO cars (name, top_speed_kmh, accel_s, reliability, handling, weight_kg, team_id)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		car.Name, car.TopSpeed, car.Accel, car.Reliability, car.Handling, car.Weight, teamID,
	)
	if err != nil {
		return model.Car{}, mapConstraint(err, "create car")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Car{}, fmt.Errorf("create car: %w", err)
	}
	car.ID = id
	return car, nil
}

// GetCar loads one car.
func (s *SQLiteStore) GetCar(ctx context.Context, id int64) (model.Car, error) {
	defer observe("get_car", time.Now())
	row := s.db.QueryRowContext(ctx, "SELECT "+carColumns+" FROM cars c WHERE c.id = ?", id)
	c, err := scanCar(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Car{}, fmt.Errorf("car %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Car{}, fmt.Errorf("get car %d: %w", id, err)
	}
	return c, nil
}

// ListCars returns every car with its team name, ordered by id.
func (s *SQLiteStore) ListCars(ctx context.Context) ([]types.CarView, error) {
	defer observe("list_cars", time.Now())
	rows, err := s.db.QueryContext(ctx, `
SELECT `+carColumns+`, COALESCE(t.name, '')
FROM cars c LEFT JOIN teams t ON t.id = c.team_id
ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	defer rows.Close()

	cars := []types.CarView{}
	for rows.Next() {
		var v types.CarView
		c, err := scanCar(rows.Scan, &v.TeamName)
		if err != nil {
			return nil, fmt.Errorf("scan car: %w", err)
		}
		v.Car = c
		cars = append(cars, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	return cars, nil
}

// AssignCar sets or clears the owning team of a car.
func (s *SQLiteStore) AssignCar(ctx context.Context, carID int64, teamID *int64) (model.Car, error) {
	defer observe("assign_car", time.Now())
	if teamID != nil {
		if _, err := s.GetTeam(ctx, *teamID); err != nil {
			return model.Car{}, fmt.Errorf("assign car %d: %w", carID, err)
		}
	}
	var team sql.NullInt64
	if teamID != nil {
		team = sql.NullInt64{Int64: *teamID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, "UPDATE cars SET team_id = ? WHERE id = ?", team, carID)
	if err != nil {
		return model.Car{}, mapConstraint(err, fmt.Sprintf("assign car %d", carID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Car{}, fmt.Errorf("assign car %d: %w", carID, err)
	}
	if n == 0 {
		return model.Car{}, fmt.Errorf("car %d: %w", carID, ErrNotFound)
	}
	return s.GetCar(ctx, carID)
}

// ListEntries returns the cars eligible to race: those assigned to a team.
func (s *SQLiteStore) ListEntries(ctx context.Context) ([]model.Entry, error) {
	defer observe("list_entries", time.Now())
	rows, err := s.db.QueryContext(ctx, `
SELECT `+carColumns+`, t.id, t.name, t.members, t.balance_cents
FROM cars c JOIN teams t ON t.id = c.team_id
ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		var (
			team  model.Team
			cents int64
		)
		car, err := scanCar(rows.Scan, &team.ID, &team.Name, &team.Members, &cents)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		team.Balance = fromCents(cents)
		entries = append(entries, model.Entry{Car: car, Team: team})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Counts returns how many teams, cars and races are stored.
func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	defer observe("counts", time.Now())
	var c Counts
	err := s.db.QueryRowContext(ctx, `
SELECT (SELECT COUNT(*) FROM teams), (SELECT COUNT(*) FROM cars), (SELECT COUNT(*) FROM races)`,
	).Scan(&c.Teams, &c.Cars, &c.Races)
	if err != nil {
		return Counts{}, fmt.Errorf("counts: %w", err)
	}
	return c, nil
}
