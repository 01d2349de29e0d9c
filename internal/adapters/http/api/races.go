package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/types"
	"github.com/shopspring/decimal"
)

// idempotencyHeader carries the request id when the body has none.
const idempotencyHeader = "Idempotency-Key"

// RaceDependencies defines the race operations used by the handlers.
type RaceDependencies interface {
	StartRace(ctx context.Context, req types.RaceRequest) (RaceReport, error)
	ListRaces(ctx context.Context, limit int) ([]model.Race, error)
	GetRace(ctx context.Context, id string) (RaceReport, error)
	RaceResults(ctx context.Context, id string) ([]Standing, error)
	RaceSettlements(ctx context.Context, id string) ([]model.TeamSettlement, error)
}

// RacesHandler handles race requests.
type RacesHandler struct {
	deps RaceDependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps RaceDependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// raceRequest mirrors the OpenAPI schema for POST /races.
type raceRequest struct {
	Track      string           `json:"track"`
	DistanceKM *float64         `json:"distance_km"`
	Fee        *decimal.Decimal `json:"fee"`
	PrizePool  *decimal.Decimal `json:"prize_pool"`
	RequestID  string           `json:"request_id"`
}

func (req raceRequest) toDomain(headerID string) (types.RaceRequest, error) {
	switch {
	case req.DistanceKM == nil:
		return types.RaceRequest{}, NewKind("missing distance_km", ErrBadRequest)
	case req.Fee == nil:
		return types.RaceRequest{}, NewKind("missing fee", ErrBadRequest)
	case req.PrizePool == nil:
		return types.RaceRequest{}, NewKind("missing prize_pool", ErrBadRequest)
	}
	id := strings.TrimSpace(req.RequestID)
	if id == "" {
		id = strings.TrimSpace(headerID)
	}
	return types.RaceRequest{
		RaceSpec: model.RaceSpec{
			Track:      req.Track,
			DistanceKM: *req.DistanceKM,
			EntryFee:   *req.Fee,
			PrizePool:  *req.PrizePool,
		},
		RequestID: id,
	}, nil
}

// HandleStart handles POST /races: simulate, allocate and settle one race.
func (h *RacesHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_race"
	var body raceRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := body.toDomain(r.Header.Get(idempotencyHeader))
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	report, err := h.deps.StartRace(r.Context(), req)
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// HandleList handles GET /races?limit=N.
func (h *RacesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_races"
	limit, err := queryLimit(r)
	if err != nil {
		respondError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	races, err := h.deps.ListRaces(r.Context(), limit)
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, races)
}

// HandleGet handles GET /races/{id}.
func (h *RacesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_race"
	report, err := h.deps.GetRace(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleResults handles GET /races/{id}/results.
func (h *RacesHandler) HandleResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.race_results"
	standings, err := h.deps.RaceResults(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

// HandleSettlements handles GET /races/{id}/settlements.
func (h *RacesHandler) HandleSettlements(w http.ResponseWriter, r *http.Request) {
	const op = "api.race_settlements"
	rows, err := h.deps.RaceSettlements(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
