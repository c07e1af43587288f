package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/pitchmech/internal/adapters/repository"
	"github.com/okian/pitchmech/internal/domain/fatigue"
)

const maxPitchBodyBytes = 64 << 10

// OutingsHandler handles fatigue tracking requests.
type OutingsHandler struct {
	deps OutingDependencies
}

// NewOutingsHandler creates a new outings handler.
func NewOutingsHandler(deps OutingDependencies) *OutingsHandler {
	return &OutingsHandler{deps: deps}
}

type pitchResponse struct {
	PitcherID   string             `json:"pitcher_id"`
	PitchNumber int                `json:"pitch_number"`
	Assessment  fatigue.Assessment `json:"assessment"`
}

// HandleRecordPitch handles POST /v1/outings/{pitcherID}/pitches.
func (h *OutingsHandler) HandleRecordPitch(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_pitch"
	var m fatigue.Metrics
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPitchBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	pitcherID := chi.URLParam(r, "pitcherID")
	assessment, outing, err := h.deps.RecordPitch(r.Context(), pitcherID, m)
	switch {
	case errors.Is(err, fatigue.ErrFatigueComputation):
		writeJSON(w, http.StatusUnprocessableEntity, pitchResponse{PitcherID: pitcherID, Assessment: assessment})
	case errors.Is(err, repository.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	default:
		writeJSON(w, http.StatusOK, pitchResponse{
			PitcherID:   outing.PitcherID,
			PitchNumber: len(outing.Pitches),
			Assessment:  assessment,
		})
	}
}

// HandleGetOuting handles GET /v1/outings/{pitcherID}.
func (h *OutingsHandler) HandleGetOuting(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_outing"
	outing, err := h.deps.Outing(r.Context(), chi.URLParam(r, "pitcherID"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, outing)
}

// HandleResetOuting handles DELETE /v1/outings/{pitcherID}.
func (h *OutingsHandler) HandleResetOuting(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_outing"
	err := h.deps.ResetOuting(r.Context(), chi.URLParam(r, "pitcherID"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
