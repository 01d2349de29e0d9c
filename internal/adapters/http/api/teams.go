package api

import (
	"context"
	"net/http"

	"github.com/okian/rally/internal/domain/model"
)

// TeamDependencies defines the team operations used by the handlers.
type TeamDependencies interface {
	CreateTeam(ctx context.Context, name, members string) (model.Team, error)
	GetTeam(ctx context.Context, id int64) (model.Team, error)
	ListTeams(ctx context.Context) ([]model.Team, error)
}

// TeamsHandler handles team requests.
type TeamsHandler struct {
	deps TeamDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

type teamRequest struct {
	Name    string `json:"name"`
	Members string `json:"members"`
}

// HandleCreate handles POST /teams.
func (h *TeamsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_team"
	var req teamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	team, err := h.deps.CreateTeam(r.Context(), req.Name, req.Members)
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

// HandleList handles GET /teams.
func (h *TeamsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_teams"
	teams, err := h.deps.ListTeams(r.Context())
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

// HandleGet handles GET /teams/{id}.
func (h *TeamsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_team"
	id, err := pathID(r, "id")
	if err != nil {
		respondError(r.Context(), w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	team, err := h.deps.GetTeam(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, op, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, team)
}
