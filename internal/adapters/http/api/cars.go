package api

import (
	"context"
	"net/http"

	"github.com/okian/rally/internal/domain/model"
)

// CarDependencies defines the car operations used by the handlers.
type CarDependencies interface {
	CreateCar(ctx context.Context, car model.Car) (model.Car, error)
	ListCars(ctx context.Context) ([]CarView, error)
	AssignCar(ctx context.Context, carID int64, teamID *int64) (model.Car, error)
}

// CarsHandler handles car requests.
type CarsHandler struct {
	deps CarDependencies
}

// NewCarsHandler creates a new cars handler.
func NewCarsHandler(deps CarDependencies) *CarsHandler {
	return &CarsHandler{deps: deps}
}

type carRequest struct {
	Name        string  `json:"name"`
	TopSpeed    float64 `json:"top_speed_kmh"`
	Accel       float64 `json:"accel_0_100_s"`
	Reliability float64 `json:"reliability"`
	Handling    float64 `json:"handling"`
	Weight      float64 `json:"weight_kg"`
	TeamID      *int64  `json:"team_id"`
}

type assignRequest struct {
	TeamID *int64 `json:"team_id"`
}

// HandleCreate handles POST /cars.
func (h *CarsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_car"
	var req carRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	car, err := h.deps.CreateCar(r.Context(), model.Car{
		Name:        req.Name,
		TopSpeed:    req.TopSpeed,
		Accel:       req.Accel,
		Reliability: req.Reliability,
		Handling:    req.Handling,
		Weight:      req.Weight,
		TeamID:      req.TeamID,
	})
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, car)
}

// HandleList handles GET /cars.
func (h *CarsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_cars"
	cars, err := h.deps.ListCars(r.Context())
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, cars)
}

// HandleAssign handles POST /cars/{id}/assign. A null team_id unassigns.
func (h *CarsHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign_car"
	id, err := pathID(r, "id")
	if err != nil {
		respondError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	car, err := h.deps.AssignCar(r.Context(), id, req.TeamID)
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, car)
}
