package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/settlement"
	"github.com/okian/rally/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func openTempStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "rally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, err = store.Migrate(ctx)
	require.NoError(t, err)
	return store
}

func mustTeam(t *testing.T, s *SQLiteStore, name string, balance int64) model.Team {
	t.Helper()
	team, err := s.CreateTeam(context.Background(), model.Team{Name: name, Balance: decimal.NewFromInt(balance)})
	require.NoError(t, err)
	return team
}

func mustCar(t *testing.T, s *SQLiteStore, name string, teamID *int64) model.Car {
	t.Helper()
	car, err := s.CreateCar(context.Background(), model.Car{
		Name: name, TopSpeed: 280, Accel: 3.6, Reliability: 0.92, Handling: 88, Weight: 1200, TeamID: teamID,
	})
	require.NoError(t, err)
	return car
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := Open(ctx, filepath.Join(t.TempDir(), "rally.db"))
	require.NoError(t, err)
	defer store.Close()

	applied, err := store.Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"001_init.sql"}, applied)

	applied, err = store.Migrate(ctx)
	require.NoError(t, err)
	require.Empty(t, applied)

	require.NoError(t, store.Ping(ctx))
}

func TestUpSection(t *testing.T) {
	t.Parallel()

	got := upSection("-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;\n")
	require.Equal(t, "\nCREATE TABLE a (x);\n", got)
	require.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}

func TestTeamsAndCars(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	blue := mustTeam(t, store, "Blue", 10000)
	require.NotZero(t, blue.ID)

	_, err := store.CreateTeam(ctx, model.Team{Name: "Blue"})
	require.ErrorIs(t, err, ErrConflict)

	got, err := store.GetTeam(ctx, blue.ID)
	require.NoError(t, err)
	require.Equal(t, "Blue", got.Name)
	require.True(t, got.Balance.Equal(decimal.NewFromInt(10000)))

	_, err = store.GetTeam(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)

	red := mustTeam(t, store, "Red", 500)
	teams, err := store.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	require.Equal(t, "Blue", teams[0].Name)
	require.Equal(t, "Red", teams[1].Name)

	free := mustCar(t, store, "Free", nil)
	owned := mustCar(t, store, "Owned", &red.ID)

	cars, err := store.ListCars(ctx)
	require.NoError(t, err)
	require.Len(t, cars, 2)
	require.Empty(t, cars[0].TeamName)
	require.Equal(t, "Red", cars[1].TeamName)

	_, err = store.CreateCar(ctx, model.Car{Name: "Ghost", TopSpeed: 200, Accel: 4, Reliability: 0.5, Handling: 50, Weight: 900, TeamID: ptr(int64(404))})
	require.ErrorIs(t, err, ErrNotFound)

	assigned, err := store.AssignCar(ctx, free.ID, &blue.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.TeamID)
	require.Equal(t, blue.ID, *assigned.TeamID)

	_, err = store.AssignCar(ctx, free.ID, ptr(int64(404)))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.AssignCar(ctx, 404, &blue.ID)
	require.ErrorIs(t, err, ErrNotFound)

	unassigned, err := store.AssignCar(ctx, owned.ID, nil)
	require.NoError(t, err)
	require.Nil(t, unassigned.TeamID)

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, free.ID, entries[0].Car.ID)
	require.Equal(t, blue.ID, entries[0].Team.ID)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, Counts{Teams: 2, Cars: 2, Races: 0}, counts)
}

func TestListEntriesOrderedByCar(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	a := mustTeam(t, store, "A", 0)
	b := mustTeam(t, store, "B", 0)
	for i := range 6 {
		team := &a.ID
		if i%2 == 1 {
			team = &b.ID
		}
		mustCar(t, store, fmt.Sprintf("car-%d", i), team)
	}

	entries, err := store.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 6)
	for i := 1; i < len(entries); i++ {
		require.Less(t, entries[i-1].Car.ID, entries[i].Car.ID)
		require.Equal(t, *entries[i].Car.TeamID, entries[i].Team.ID)
	}
}

func raceFixture(id string, created time.Time) model.Race {
	return model.Race{
		ID:         id,
		Track:      "Riga Street Circuit",
		DistanceKM: 100,
		EntryFee:   decimal.NewFromInt(1000),
		PrizePool:  decimal.NewFromInt(10000),
		Seed:       42,
		CreatedAt:  created,
	}
}

// podium builds a three car race with the default 60/30/10 payouts.
func podium(t *testing.T, s *SQLiteStore) (model.Race, []model.Result, []model.Team) {
	t.Helper()
	var teams []model.Team
	var results []model.Result
	prizes := []int64{6000, 3000, 1000}
	for i, name := range []string{"Alpha", "Bravo", "Charlie"} {
		team := mustTeam(t, s, name, 10000)
		car := mustCar(t, s, name+" car", &team.ID)
		teams = append(teams, team)
		results = append(results, model.Result{
			CarID: car.ID, TeamID: team.ID, AvgSpeed: 200 - float64(i), FinishTime: 30 + float64(i),
			Position: i + 1, Prize: decimal.NewFromInt(prizes[i]),
		})
	}
	return raceFixture("race-1", time.Now()), results, teams
}

func balance(t *testing.T, s *SQLiteStore, id int64) decimal.Decimal {
	t.Helper()
	team, err := s.GetTeam(context.Background(), id)
	require.NoError(t, err)
	return team.Balance
}

func TestSettleCommits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)
	race, results, teams := podium(t, store)
	bystander := mustTeam(t, store, "Bystander", 10000)

	got, err := settlement.New(store).Settle(ctx, race, results)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.True(t, balance(t, store, teams[0].ID).Equal(decimal.NewFromInt(15000)))
	require.True(t, balance(t, store, teams[1].ID).Equal(decimal.NewFromInt(12000)))
	require.True(t, balance(t, store, teams[2].ID).Equal(decimal.NewFromInt(10000)))
	require.True(t, balance(t, store, bystander.ID).Equal(decimal.NewFromInt(10000)))

	stored, err := store.GetRace(ctx, race.ID)
	require.NoError(t, err)
	require.Equal(t, int64(42), stored.Seed)
	require.True(t, stored.EntryFee.Equal(race.EntryFee))
	require.Equal(t, race.CreatedAt.UnixMilli(), stored.CreatedAt.UnixMilli())

	standings, err := store.ListRaceResults(ctx, race.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	require.Equal(t, "Alpha", standings[0].TeamName)
	require.Equal(t, "Alpha car", standings[0].CarName)
	require.Equal(t, 3, standings[2].Position)
	require.True(t, standings[0].Prize.Equal(decimal.NewFromInt(6000)))

	lines, err := store.ListTeamSettlements(ctx, race.ID)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.True(t, lines[0].Delta.Equal(decimal.NewFromInt(5000)))

	// A second settlement of the same race must not land.
	_, err = settlement.New(store).Settle(ctx, race, results)
	require.ErrorIs(t, err, settlement.ErrSettlementFailure)
	require.ErrorIs(t, err, ErrConflict)
	require.True(t, balance(t, store, teams[0].ID).Equal(decimal.NewFromInt(15000)))
}

// failingStore wraps a real store and fails one ledger step.
type failingStore struct {
	*SQLiteStore
	failAt string
}

type failingLedger struct {
	settlement.Ledger
	failAt string
}

var errInjected = errors.New("injected failure")

func (f failingStore) WithinTx(ctx context.Context, fn func(settlement.Ledger) error) error {
	return f.SQLiteStore.WithinTx(ctx, func(l settlement.Ledger) error {
		return fn(failingLedger{Ledger: l, failAt: f.failAt})
	})
}

func (l failingLedger) InsertTeamSettlement(ctx context.Context, ts model.TeamSettlement) error {
	if l.failAt == settlement.StepInsertTeam {
		return errInjected
	}
	return l.Ledger.InsertTeamSettlement(ctx, ts)
}

func (l failingLedger) AdjustTeamBalance(ctx context.Context, teamID int64, delta decimal.Decimal) error {
	if l.failAt == settlement.StepAdjustBalance {
		return errInjected
	}
	return l.Ledger.AdjustTeamBalance(ctx, teamID, delta)
}

func TestSettleRollsBack(t *testing.T) {
	t.Parallel()

	for _, step := range []string{settlement.StepInsertTeam, settlement.StepAdjustBalance} {
		t.Run(step, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := openTempStore(t)
			race, results, teams := podium(t, store)

			_, err := settlement.New(failingStore{SQLiteStore: store, failAt: step}).Settle(ctx, race, results)
			require.ErrorIs(t, err, settlement.ErrSettlementFailure)
			require.ErrorIs(t, err, errInjected)

			_, err = store.GetRace(ctx, race.ID)
			require.ErrorIs(t, err, ErrNotFound)
			standings, err := store.ListRaceResults(ctx, race.ID)
			require.NoError(t, err)
			require.Empty(t, standings)
			lines, err := store.ListTeamSettlements(ctx, race.ID)
			require.NoError(t, err)
			require.Empty(t, lines)
			for _, team := range teams {
				require.True(t, balance(t, store, team.ID).Equal(decimal.NewFromInt(10000)))
			}
		})
	}
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	require.Panics(t, func() {
		_ = store.WithinTx(ctx, func(l settlement.Ledger) error {
			require.NoError(t, l.InsertRace(ctx, raceFixture("race-panic", time.Now())))
			panic("boom")
		})
	})

	_, err := store.GetRace(ctx, "race-panic")
	require.ErrorIs(t, err, ErrNotFound)

	// The connection must be usable again.
	require.NoError(t, store.WithinTx(ctx, func(l settlement.Ledger) error {
		return l.InsertRace(ctx, raceFixture("race-after", time.Now()))
	}))
}

func TestAdjustUnknownTeam(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	err := store.WithinTx(ctx, func(l settlement.Ledger) error {
		return l.AdjustTeamBalance(ctx, 12345, decimal.NewFromInt(1))
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentDeltasCompose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)
	team := mustTeam(t, store, "Shared", 0)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.WithinTx(ctx, func(l settlement.Ledger) error {
				return l.AdjustTeamBalance(ctx, team.ID, decimal.RequireFromString("12.34"))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, "98.72", balance(t, store, team.ID).StringFixed(2))
}

func TestListRaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, store.WithinTx(ctx, func(l settlement.Ledger) error {
			return l.InsertRace(ctx, raceFixture(fmt.Sprintf("race-%d", i), base.Add(time.Duration(i)*time.Minute)))
		}))
	}

	races, err := store.ListRaces(ctx, 3)
	require.NoError(t, err)
	require.Len(t, races, 3)
	require.Equal(t, "race-4", races[0].ID)
	require.Equal(t, "race-2", races[2].ID)

	_, err = store.ListRaces(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidLimit)

	_, err = store.GetRace(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, counts.Races)
}

func TestCentsConversion(t *testing.T) {
	t.Parallel()

	require.Equal(t, int64(123457), toCents(decimal.RequireFromString("1234.567")))
	require.Equal(t, int64(-100), toCents(decimal.NewFromInt(-1)))
	require.Equal(t, "12.34", fromCents(1234).StringFixed(2))
}

func ptr[T any](v T) *T { return &v }
