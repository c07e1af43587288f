package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/pitchmech/internal/domain/variance"
)

const maxAssessmentBytes = 1 << 20

// VarianceHandler exposes the variance classifier.
type VarianceHandler struct{}

// NewVarianceHandler creates a new variance handler.
func NewVarianceHandler() *VarianceHandler {
	return &VarianceHandler{}
}

type categoryResponse struct {
	Pct      *float64          `json:"pct,omitempty"`
	Category variance.Category `json:"category"`
	Label    string            `json:"label"`
	Range    [2]float64        `json:"range"`
}

func newCategoryResponse(c variance.Category, pct *float64) categoryResponse {
	lo, hi := c.Range()
	return categoryResponse{Pct: pct, Category: c, Label: c.Label(), Range: [2]float64{lo, hi}}
}

// HandleClassify handles GET /v1/variance?pct=.
func (h *VarianceHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	pct, err := strconv.ParseFloat(r.URL.Query().Get("pct"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := variance.Classify(pct)
	if err != nil {
		writeError(w, http.StatusBadRequest, "out_of_range", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, newCategoryResponse(c, &pct))
}

// HandleParseAssessment handles POST /v1/variance/assessment. The body is a
// free-text report containing a "Mechanics Assessment: <label>" line.
func (h *VarianceHandler) HandleParseAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.parse_assessment"
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAssessmentBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := variance.ParseAssessment(string(body))
	switch {
	case errors.Is(err, variance.ErrNoAssessment), errors.Is(err, variance.ErrUnknownLabel):
		writeError(w, http.StatusUnprocessableEntity, "invalid_assessment", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	default:
		writeJSON(w, http.StatusOK, newCategoryResponse(c, nil))
	}
}
