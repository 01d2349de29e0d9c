// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/dedupe"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/settlement"
	"github.com/okian/rally/internal/domain/simulation"
	"github.com/okian/rally/internal/domain/types"
	"github.com/okian/rally/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	TeamDependencies
	CarDependencies
	RaceDependencies
	StatsProvider
	Pinger
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	teamsHandler  *TeamsHandler
	carsHandler   *CarsHandler
	racesHandler  *RacesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(deps),
		statsHandler:  NewStatsHandler(deps),
		teamsHandler:  NewTeamsHandler(deps),
		carsHandler:   NewCarsHandler(deps),
		racesHandler:  NewRacesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("GET /metrics", MetricsHandler())

	mux.HandleFunc("POST /teams", MetricsMiddleware(s.teamsHandler.HandleCreate, "teams"))
	mux.HandleFunc("GET /teams", MetricsMiddleware(s.teamsHandler.HandleList, "teams"))
	mux.HandleFunc("GET /teams/{id}", MetricsMiddleware(s.teamsHandler.HandleGet, "team"))

	mux.HandleFunc("POST /cars", MetricsMiddleware(s.carsHandler.HandleCreate, "cars"))
	mux.HandleFunc("GET /cars", MetricsMiddleware(s.carsHandler.HandleList, "cars"))
	mux.HandleFunc("POST /cars/{id}/assign", MetricsMiddleware(s.carsHandler.HandleAssign, "car_assign"))

	mux.HandleFunc("POST /races", MetricsMiddleware(s.racesHandler.HandleStart, "races"))
	mux.HandleFunc("GET /races", MetricsMiddleware(s.racesHandler.HandleList, "races"))
	mux.HandleFunc("GET /races/{id}", MetricsMiddleware(s.racesHandler.HandleGet, "race"))
	mux.HandleFunc("GET /races/{id}/results", MetricsMiddleware(s.racesHandler.HandleResults, "race_results"))
	mux.HandleFunc("GET /races/{id}/settlements", MetricsMiddleware(s.racesHandler.HandleSettlements, "race_settlements"))
}

// Read shapes re-exported for handler signatures.
type (
	Standing   = types.Standing
	RaceReport = types.RaceReport
	CarView    = types.CarView
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps a domain error to an HTTP status and error code. A failed
// settlement is a server error whatever store error caused it.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, settlement.ErrSettlementFailure):
		return http.StatusInternalServerError, "race_not_recorded"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrInvalidAttribute):
		return http.StatusBadRequest, "invalid_attribute"
	case errors.Is(err, simulation.ErrNoEligibleParticipants):
		return http.StatusUnprocessableEntity, "no_eligible_participants"
	case errors.Is(err, dedupe.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes err with the status its kind maps to. Server errors
// are logged and their detail is kept out of the response.
func respondError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status < http.StatusInternalServerError {
		writeError(w, status, code, err)
		return
	}
	logger.Get().Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	if errors.Is(err, settlement.ErrSettlementFailure) {
		writeError(w, status, code, settlement.ErrSettlementFailure)
		return
	}
	writeError(w, status, code, nil)
}
