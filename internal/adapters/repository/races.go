package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/settlement"
	"github.com/okian/rally/internal/domain/types"
	"github.com/shopspring/decimal"
)

// WithinTx runs fn in one immediate transaction. The transaction commits only
// if fn returns nil; an error or a panic inside fn rolls it back.
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(settlement.Ledger) error) error {
	defer observe("settle_tx", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settlement: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w: rollback settlement: %v", cause, rbErr)
		}
		return cause
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txLedger{tx: tx}); err != nil {
		return rollbackWith(err)
	}
	if err := tx.Commit(); err != nil {
		return rollbackWith(fmt.Errorf("commit settlement: %w", err))
	}
	return nil
}

// txLedger issues settlement writes on an open transaction.
type txLedger struct {
	tx *sql.Tx
}

func (l *txLedger) InsertRace(ctx context.Context, r model.Race) error {
	_, err := l.tx.ExecContext(ctx, `
INSERT INTO races (id, track, distance_km, entry_fee_cents, prize_pool_cents, seed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Track, r.DistanceKM, toCents(r.EntryFee), toCents(r.PrizePool), r.Seed, toMillis(r.CreatedAt),
	)
	if err != nil {
		return mapConstraint(err, "insert race "+r.ID)
	}
	return nil
}

func (l *txLedger) InsertResult(ctx context.Context, r model.Result) error {
	_, err := l.tx.ExecContext(ctx, `
INSERT INTO race_results (race_id, car_id, team_id, avg_speed_kmh, finish_time_min, position, prize_cents, breakdown)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RaceID, r.CarID, r.TeamID, r.AvgSpeed, r.FinishTime, r.Position, toCents(r.Prize), r.Breakdown,
	)
	if err != nil {
		return mapConstraint(err, fmt.Sprintf("insert result %s/%d", r.RaceID, r.CarID))
	}
	return nil
}

func (l *txLedger) InsertTeamSettlement(ctx context.Context, ts model.TeamSettlement) error {
	_, err := l.tx.ExecContext(ctx, `
INSERT INTO team_settlements (race_id, team_id, entries, fee_total_cents, prize_total_cents, delta_cents)
VALUES (?, ?, ?, ?, ?, ?)`,
		ts.RaceID, ts.TeamID, ts.Entries, toCents(ts.FeeTotal), toCents(ts.PrizeTotal), toCents(ts.Delta),
	)
	if err != nil {
		return mapConstraint(err, fmt.Sprintf("insert settlement %s/%d", ts.RaceID, ts.TeamID))
	}
	return nil
}

// AdjustTeamBalance applies a relative delta so concurrent settlements
// compose instead of overwriting each other.
func (l *txLedger) AdjustTeamBalance(ctx context.Context, teamID int64, delta decimal.Decimal) error {
	res, err := l.tx.ExecContext(ctx,
		"UPDATE teams SET balance_cents = balance_cents + ? WHERE id = ?",
		toCents(delta), teamID,
	)
	if err != nil {
		return fmt.Errorf("adjust balance of team %d: %w", teamID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance of team %d: %w", teamID, err)
	}
	if n != 1 {
		return fmt.Errorf("adjust balance of team %d: %w", teamID, ErrNotFound)
	}
	return nil
}

const raceColumns = "id, track, distance_km, entry_fee_cents, prize_pool_cents, seed, created_at"

func scanRace(scan scanFunc) (model.Race, error) {
	var (
		r           model.Race
		fee, pool   int64
		createdAtMs int64
	)
	if err := scan(&r.ID, &r.Track, &r.DistanceKM, &fee, &pool, &r.Seed, &createdAtMs); err != nil {
		return model.Race{}, err
	}
	r.EntryFee = fromCents(fee)
	r.PrizePool = fromCents(pool)
	r.CreatedAt = fromMillis(createdAtMs)
	return r, nil
}

// ListRaces returns up to limit races, newest first.
func (s *SQLiteStore) ListRaces(ctx context.Context, limit int) ([]model.Race, error) {
	defer observe("list_races", time.Now())
	if limit <= 0 {
		return nil, fmt.Errorf("list races: %w: %d", ErrInvalidLimit, limit)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+raceColumns+" FROM races ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list races: %w", err)
	}
	defer rows.Close()

	races := []model.Race{}
	for rows.Next() {
		r, err := scanRace(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan race: %w", err)
		}
		races = append(races, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list races: %w", err)
	}
	return races, nil
}

// GetRace loads one race.
func (s *SQLiteStore) GetRace(ctx context.Context, id string) (model.Race, error) {
	defer observe("get_race", time.Now())
	r, err := scanRace(s.db.QueryRowContext(ctx, "SELECT "+raceColumns+" FROM races WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Race{}, fmt.Errorf("race %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Race{}, fmt.Errorf("get race %s: %w", id, err)
	}
	return r, nil
}

// ListRaceResults returns the standings of a race ordered by position.
func (s *SQLiteStore) ListRaceResults(ctx context.Context, raceID string) ([]types.Standing, error) {
	defer observe("list_results", time.Now())
	rows, err := s.db.QueryContext(ctx, `
SELECT r.position, r.team_id, t.name, r.car_id, c.name, r.avg_speed_kmh, r.finish_time_min, r.prize_cents, r.breakdown
FROM race_results r
JOIN teams t ON t.id = r.team_id
JOIN cars c ON c.id = r.car_id
WHERE r.race_id = ?
ORDER BY r.position`, raceID)
	if err != nil {
		return nil, fmt.Errorf("list results of %s: %w", raceID, err)
	}
	defer rows.Close()

	standings := []types.Standing{}
	for rows.Next() {
		var (
			st    types.Standing
			cents int64
		)
		if err := rows.Scan(&st.Position, &st.TeamID, &st.TeamName, &st.CarID, &st.CarName,
			&st.AvgSpeed, &st.FinishTime, &cents, &st.Breakdown); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		st.Prize = fromCents(cents)
		standings = append(standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results of %s: %w", raceID, err)
	}
	return standings, nil
}

// ListTeamSettlements returns the per-team ledger lines of a race by team id.
func (s *SQLiteStore) ListTeamSettlements(ctx context.Context, raceID string) ([]model.TeamSettlement, error) {
	defer observe("list_settlements", time.Now())
	rows, err := s.db.QueryContext(ctx, `
SELECT race_id, team_id, entries, fee_total_cents, prize_total_cents, delta_cents
FROM team_settlements WHERE race_id = ? ORDER BY team_id`, raceID)
	if err != nil {
		return nil, fmt.Errorf("list settlements of %s: %w", raceID, err)
	}
	defer rows.Close()

	out := []model.TeamSettlement{}
	for rows.Next() {
		var (
			ts                model.TeamSettlement
			fee, prize, delta int64
		)
		if err := rows.Scan(&ts.RaceID, &ts.TeamID, &ts.Entries, &fee, &prize, &delta); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		ts.FeeTotal, ts.PrizeTotal, ts.Delta = fromCents(fee), fromCents(prize), fromCents(delta)
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settlements of %s: %w", raceID, err)
	}
	return out, nil
}
