package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/pitchmech/internal/domain/profile"
)

// ProfilesHandler handles reference profile requests.
type ProfilesHandler struct {
	deps ProfileDependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps ProfileDependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

type profilesResponse struct {
	Profiles []profile.Key `json:"profiles"`
}

// HandleListProfiles handles GET /v1/profiles.
func (h *ProfilesHandler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	keys, err := h.deps.ListProfiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if keys == nil {
		keys = []profile.Key{}
	}
	writeJSON(w, http.StatusOK, profilesResponse{Profiles: keys})
}

// HandleGetProfile handles GET /v1/profiles/{pitcherID}/{pitchType}.
func (h *ProfilesHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.GetProfile(r.Context(), chi.URLParam(r, "pitcherID"), chi.URLParam(r, "pitchType"))
	if err != nil {
		writeScoringError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Document())
}
