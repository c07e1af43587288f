package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/okian/pitchmech/internal/adapters/posesource"
	"github.com/okian/pitchmech/internal/adapters/repository"
	"github.com/okian/pitchmech/internal/domain/deviation"
	"github.com/okian/pitchmech/internal/domain/model"
	"github.com/okian/pitchmech/internal/domain/profile"
	"github.com/okian/pitchmech/pkg/metrics"
)

// ClipsHandler handles clip scoring requests.
type ClipsHandler struct {
	deps    ClipDependencies
	maxBody int64
}

// NewClipsHandler creates a new clips handler.
func NewClipsHandler(deps ClipDependencies, maxBody int64) *ClipsHandler {
	return &ClipsHandler{deps: deps, maxBody: maxBody}
}

type ackResponse struct {
	Status    string `json:"status"`
	ClipID    string `json:"clip_id"`
	Duplicate bool   `json:"duplicate"`
}

type unscorableResponse struct {
	errorResponse
	Deviation deviation.ClipDeviation `json:"deviation"`
}

func (h *ClipsHandler) decode(w http.ResponseWriter, r *http.Request) (model.Clip, error) {
	return posesource.Decode(http.MaxBytesReader(w, r.Body, h.maxBody))
}

// HandleScoreClip handles POST /v1/clips/score.
func (h *ClipsHandler) HandleScoreClip(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_clip"
	clip, err := h.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	dev, err := h.deps.ScoreClip(r.Context(), clip)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dev)
	case errors.Is(err, deviation.ErrUnscorableClip):
		writeJSON(w, http.StatusUnprocessableEntity, unscorableResponse{
			errorResponse: errorResponse{Code: "unscorable", Message: err.Error()},
			Deviation:     dev,
		})
	default:
		writeScoringError(w, err)
	}
}

// HandleSubmitClip handles POST /v1/clips.
func (h *ClipsHandler) HandleSubmitClip(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_clip"
	clip, err := h.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if clip.ClipID == "" {
		clip.ClipID = uuid.NewString()
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), clip.ClipID) {
		metrics.RecordClipDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ClipID: clip.ClipID, Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), clip); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), clip.ClipID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	w.Header().Set("Location", "/v1/clips/"+clip.ClipID)
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ClipID: clip.ClipID})
}

// HandleGetClip handles GET /v1/clips/{clipID}.
func (h *ClipsHandler) HandleGetClip(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_clip"
	res, err := h.deps.ClipResult(r.Context(), chi.URLParam(r, "clipID"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeScoringError maps profile and context failures to status codes.
func writeScoringError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile_not_found", err)
	case errors.Is(err, profile.ErrConfiguration):
		writeError(w, http.StatusInternalServerError, "profile_invalid", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
