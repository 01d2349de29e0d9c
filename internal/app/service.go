// Package service wires the simulator, prize allocator and settlement engine
// to the store and exposes the operations the HTTP API depends on.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/dedupe"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/prize"
	"github.com/okian/rally/internal/domain/settlement"
	"github.com/okian/rally/internal/domain/simulation"
	"github.com/okian/rally/internal/domain/types"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
	"github.com/shopspring/decimal"
)

const (
	defaultTrack        = "Riga Street Circuit"
	defaultDedupeSize   = 10_000
	defaultHistoryLimit = 100
)

// Service implements the API dependencies for the race system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	simulator *simulation.Simulator
	engine    *settlement.Engine

	// Configuration
	curve           prize.Curve
	defaultTrack    string
	startingBalance decimal.Decimal
	seed            int64
	dedupeSize      int
	historyLimit    int
	newID           func() string
	now             func() time.Time

	// seeds derives one seed per race; guarded by seedMu.
	seedMu sync.Mutex
	seeds  *rand.Rand

	started bool
	logger  logger.Logger
}

// New constructs a Service. Start must be called before use.
func New(opts ...Option) *Service {
	s := &Service{
		curve:           prize.DefaultCurve(),
		defaultTrack:    defaultTrack,
		startingBalance: decimal.Zero,
		dedupeSize:      defaultDedupeSize,
		historyLimit:    defaultHistoryLimit,
		newID:           uuid.NewString,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates the configuration and builds the race pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		return ErrNoStore
	}
	if err := s.curve.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if s.seed == 0 {
		seed, err := newSeed()
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		s.seed = seed
	}

	s.seeds = rand.New(rand.NewSource(s.seed)) //nolint:gosec // simulation randomness, not security
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	if s.simulator == nil {
		s.simulator = simulation.New()
	}
	s.engine = settlement.New(s.store, settlement.WithLogger(s.logger.Named("settlement")))

	s.started = true
	s.logger.Info(ctx, "race service started",
		logger.Int64("seed", s.seed),
		logger.Any("prize_curve", []float64(s.curve)),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "close store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "race service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) nextSeed() int64 {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return s.seeds.Int63()
}

// StartRace simulates a race among every team-assigned car, allocates the
// prize pool and settles it. Nothing is persisted unless the whole settlement
// commits.
func (s *Service) StartRace(ctx context.Context, req types.RaceRequest) (types.RaceReport, error) {
	if err := s.ready(); err != nil {
		return types.RaceReport{}, err
	}

	spec := req.RaceSpec
	spec.Track = strings.TrimSpace(spec.Track)
	if spec.Track == "" {
		spec.Track = s.defaultTrack
	}
	if err := spec.Validate(); err != nil {
		metrics.RecordRaceRejected("invalid_attribute")
		return types.RaceReport{}, fmt.Errorf("start race: %w", err)
	}

	requestID := strings.TrimSpace(req.RequestID)
	if requestID != "" {
		if !s.deduper.Claim(ctx, requestID) {
			metrics.RecordDuplicateRequest()
			if raceID, ok := s.deduper.Lookup(ctx, requestID); ok {
				return types.RaceReport{}, fmt.Errorf("request %s already produced race %s: %w", requestID, raceID, dedupe.ErrDuplicateRequest)
			}
			return types.RaceReport{}, fmt.Errorf("request %s is in flight: %w", requestID, dedupe.ErrDuplicateRequest)
		}
	}

	report, err := s.runRace(ctx, spec)
	if requestID != "" {
		if err != nil {
			s.deduper.Release(ctx, requestID)
		} else {
			s.deduper.Complete(ctx, requestID, report.Race.ID)
		}
	}
	return report, err
}

func (s *Service) runRace(ctx context.Context, spec model.RaceSpec) (types.RaceReport, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return types.RaceReport{}, fmt.Errorf("start race: %w", err)
	}

	if err := simulation.Validate(spec.DistanceKM, entries); err != nil {
		reason := "invalid_attribute"
		if errors.Is(err, simulation.ErrNoEligibleParticipants) {
			reason = "no_participants"
		}
		metrics.RecordRaceRejected(reason)
		return types.RaceReport{}, fmt.Errorf("start race: %w", err)
	}

	race := model.Race{
		ID:         s.newID(),
		Track:      spec.Track,
		DistanceKM: spec.DistanceKM,
		EntryFee:   spec.EntryFee,
		PrizePool:  spec.PrizePool,
		Seed:       s.nextSeed(),
		CreatedAt:  s.now().UTC(),
	}

	simStart := time.Now()
	results, err := s.simulator.Simulate(race.DistanceKM, entries, rand.New(rand.NewSource(race.Seed))) //nolint:gosec // simulation randomness
	if err != nil {
		return types.RaceReport{}, fmt.Errorf("start race: %w", err)
	}
	metrics.RecordSimulationLatency(float64(time.Since(simStart).Microseconds()) / 1000)
	metrics.RecordRaceStarted(len(entries))

	results = prize.Allocate(results, race.PrizePool, s.curve)
	settlements, err := s.engine.Settle(ctx, race, results)
	if err != nil {
		return types.RaceReport{}, fmt.Errorf("start race: %w", err)
	}

	breakdowns := 0
	for _, r := range results {
		if r.Breakdown {
			breakdowns++
		}
	}
	metrics.RecordBreakdowns(breakdowns)

	s.logger.Info(ctx, "race finished",
		logger.String("race_id", race.ID),
		logger.String("track", race.Track),
		logger.Float64("distance_km", race.DistanceKM),
		logger.Int("entries", len(entries)),
		logger.Int("breakdowns", breakdowns),
		logger.Int64("seed", race.Seed),
	)
	return types.RaceReport{
		Race:        race,
		Standings:   standings(results, entries),
		Settlements: settlements,
	}, nil
}

func standings(results []model.Result, entries []model.Entry) []types.Standing {
	byCar := make(map[int64]model.Entry, len(entries))
	for _, e := range entries {
		byCar[e.Car.ID] = e
	}
	out := make([]types.Standing, len(results))
	for i, r := range results {
		e := byCar[r.CarID]
		out[i] = types.Standing{
			Position:   r.Position,
			TeamID:     r.TeamID,
			TeamName:   e.Team.Name,
			CarID:      r.CarID,
			CarName:    e.Car.Name,
			AvgSpeed:   r.AvgSpeed,
			FinishTime: r.FinishTime,
			Prize:      r.Prize,
			Breakdown:  r.Breakdown,
		}
	}
	return out
}

// CreateTeam registers a team with the configured starting balance.
func (s *Service) CreateTeam(ctx context.Context, name, members string) (model.Team, error) {
	if err := s.ready(); err != nil {
		return model.Team{}, err
	}
	team := model.Team{
		Name:    strings.TrimSpace(name),
		Members: strings.TrimSpace(members),
		Balance: s.startingBalance,
	}
	if err := team.Validate(); err != nil {
		return model.Team{}, fmt.Errorf("create team: %w", err)
	}
	created, err := s.store.CreateTeam(ctx, team)
	if err != nil {
		return model.Team{}, err
	}
	s.logger.Info(ctx, "team created", logger.Int64("team_id", created.ID), logger.String("name", created.Name))
	return created, nil
}

// GetTeam returns one team.
func (s *Service) GetTeam(ctx context.Context, id int64) (model.Team, error) {
	if err := s.ready(); err != nil {
		return model.Team{}, err
	}
	return s.store.GetTeam(ctx, id)
}

// ListTeams returns every team.
func (s *Service) ListTeams(ctx context.Context) ([]model.Team, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListTeams(ctx)
}

// CreateCar validates and registers a car, optionally already assigned.
func (s *Service) CreateCar(ctx context.Context, car model.Car) (model.Car, error) {
	if err := s.ready(); err != nil {
		return model.Car{}, err
	}
	car.Name = strings.TrimSpace(car.Name)
	if err := car.Validate(); err != nil {
		return model.Car{}, fmt.Errorf("create car: %w", err)
	}
	created, err := s.store.CreateCar(ctx, car)
	if err != nil {
		return model.Car{}, err
	}
	s.logger.Info(ctx, "car created", logger.Int64("car_id", created.ID), logger.String("name", created.Name))
	return created, nil
}

// ListCars returns every car with its team name.
func (s *Service) ListCars(ctx context.Context) ([]types.CarView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.ListCars(ctx)
}

// AssignCar moves a car to a team, or unassigns it when teamID is nil.
func (s *Service) AssignCar(ctx context.Context, carID int64, teamID *int64) (model.Car, error) {
	if err := s.ready(); err != nil {
		return model.Car{}, err
	}
	car, err := s.store.AssignCar(ctx, carID, teamID)
	if err != nil {
		return model.Car{}, err
	}
	fields := []logger.Field{logger.Int64("car_id", carID)}
	if teamID != nil {
		fields = append(fields, logger.Int64("team_id", *teamID))
	}
	s.logger.Info(ctx, "car assigned", fields...)
	return car, nil
}

// ListRaces returns recent races, newest first. A non-positive or too large
// limit is clamped to the configured history limit.
func (s *Service) ListRaces(ctx context.Context, limit int) ([]model.Race, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	return s.store.ListRaces(ctx, limit)
}

// GetRace returns a stored race with its standings and settlements.
func (s *Service) GetRace(ctx context.Context, id string) (types.RaceReport, error) {
	if err := s.ready(); err != nil {
		return types.RaceReport{}, err
	}
	race, err := s.store.GetRace(ctx, id)
	if err != nil {
		return types.RaceReport{}, err
	}
	st, err := s.store.ListRaceResults(ctx, id)
	if err != nil {
		return types.RaceReport{}, err
	}
	ts, err := s.store.ListTeamSettlements(ctx, id)
	if err != nil {
		return types.RaceReport{}, err
	}
	return types.RaceReport{Race: race, Standings: st, Settlements: ts}, nil
}

// RaceResults returns the standings of a race.
func (s *Service) RaceResults(ctx context.Context, id string) ([]types.Standing, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetRace(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListRaceResults(ctx, id)
}

// RaceSettlements returns the per-team settlement rows of a race.
func (s *Service) RaceSettlements(ctx context.Context, id string) ([]model.TeamSettlement, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetRace(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListTeamSettlements(ctx, id)
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]any{
		"started":     started,
		"prize_curve": []float64(s.curve),
		"dedupe_size": s.dedupeSize,
	}
	if !started {
		return stats
	}

	stats["tracked_requests"] = s.deduper.Size()
	counts, err := s.store.Counts(ctx)
	if err != nil {
		s.logger.Warn(ctx, "stats counts", logger.Error(err))
		metrics.RecordErrorByComponent("store", "counts")
		return stats
	}
	stats["teams"] = counts.Teams
	stats["cars"] = counts.Cars
	stats["races"] = counts.Races
	metrics.UpdateStoreTotals(counts.Teams, counts.Cars, counts.Races)
	return stats
}
