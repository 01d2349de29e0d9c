// Package settlement records a simulated race and moves money between the
// prize pool and team balances as one atomic unit.
package settlement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Ledger is the set of writes a settlement performs. It is only valid inside
// the Store.WithinTx callback that produced it.
type Ledger interface {
	InsertRace(ctx context.Context, race model.Race) error
	InsertResult(ctx context.Context, result model.Result) error
	InsertTeamSettlement(ctx context.Context, s model.TeamSettlement) error
	// AdjustTeamBalance adds delta to the stored balance. It never writes an
	// absolute value.
	AdjustTeamBalance(ctx context.Context, teamID int64, delta decimal.Decimal) error
}

// Store opens the atomic unit. fn's writes are committed only when it returns
// nil; any error or panic rolls every write back.
type Store interface {
	WithinTx(ctx context.Context, fn func(Ledger) error) error
}

// Steps reported on failure.
const (
	StepInsertRace     = "insert_race"
	StepInsertResult   = "insert_result"
	StepInsertTeam     = "insert_team_settlement"
	StepAdjustBalance  = "adjust_balance"
	StepCommit         = "commit"
	StepInvalidResults = "invalid_results"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine settles races against a Store.
type Engine struct {
	store Store
	log   logger.Logger
}

// New creates an Engine writing to store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, log: logger.Get()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summarize groups results by team and computes each team's fee, prize and
// net delta. Rows are ordered by team id.
func Summarize(raceID string, fee decimal.Decimal, results []model.Result) []model.TeamSettlement {
	byTeam := make(map[int64]*model.TeamSettlement)
	for _, r := range results {
		s, ok := byTeam[r.TeamID]
		if !ok {
			s = &model.TeamSettlement{RaceID: raceID, TeamID: r.TeamID, PrizeTotal: decimal.Zero}
			byTeam[r.TeamID] = s
		}
		s.Entries++
		s.PrizeTotal = s.PrizeTotal.Add(r.Prize)
	}

	out := make([]model.TeamSettlement, 0, len(byTeam))
	for _, s := range byTeam {
		s.FeeTotal = fee.Mul(decimal.NewFromInt(int64(s.Entries)))
		s.Delta = s.PrizeTotal.Sub(s.FeeTotal)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// Settle persists race and its results, writes one settlement row per team and
// applies each team's delta. Either all of it commits or none of it does; on
// failure the returned error wraps ErrSettlementFailure.
func (e *Engine) Settle(ctx context.Context, race model.Race, results []model.Result) ([]model.TeamSettlement, error) {
	start := time.Now()
	if len(results) == 0 {
		return nil, e.fail(ctx, race.ID, StepInvalidResults, fmt.Errorf("race %s has no results", race.ID))
	}

	settlements := Summarize(race.ID, race.EntryFee, results)
	step := StepCommit
	err := e.store.WithinTx(ctx, func(l Ledger) error {
		step = StepInsertRace
		if err := l.InsertRace(ctx, race); err != nil {
			return err
		}
		step = StepInsertResult
		for _, r := range results {
			r.RaceID = race.ID
			if err := l.InsertResult(ctx, r); err != nil {
				return fmt.Errorf("car %d: %w", r.CarID, err)
			}
		}
		for _, s := range settlements {
			step = StepInsertTeam
			if err := l.InsertTeamSettlement(ctx, s); err != nil {
				return fmt.Errorf("team %d: %w", s.TeamID, err)
			}
			step = StepAdjustBalance
			if err := l.AdjustTeamBalance(ctx, s.TeamID, s.Delta); err != nil {
				return fmt.Errorf("team %d: %w", s.TeamID, err)
			}
		}
		step = StepCommit
		return nil
	})
	if err != nil {
		return nil, e.fail(ctx, race.ID, step, err)
	}

	fees, prizes := decimal.Zero, decimal.Zero
	for _, s := range settlements {
		fees = fees.Add(s.FeeTotal)
		prizes = prizes.Add(s.PrizeTotal)
	}
	metrics.RecordRaceSettled(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordMoneyFlow(fees.InexactFloat64(), prizes.InexactFloat64())
	metrics.RecordBalanceAdjustments(len(settlements))
	e.log.Info(ctx, "race settled",
		logger.String("race_id", race.ID),
		logger.Int("results", len(results)),
		logger.Int("teams", len(settlements)),
		logger.String("fees", fees.StringFixed(2)),
		logger.String("prizes", prizes.StringFixed(2)),
	)
	return settlements, nil
}

func (e *Engine) fail(ctx context.Context, raceID, step string, err error) error {
	metrics.RecordSettlementFailure(step)
	e.log.Error(ctx, "settlement rolled back",
		logger.String("race_id", raceID),
		logger.String("step", step),
		logger.Error(err),
	)
	return fmt.Errorf("settle %s at %s: %w: %w", raceID, step, ErrSettlementFailure, err)
}
