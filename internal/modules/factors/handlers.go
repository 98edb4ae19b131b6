package factors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/domain"
)

// Handler serves the factor-exposure and style-analysis endpoints.
type Handler struct {
	estimator *Estimator
	style     *StyleAnalyzer
	log       zerolog.Logger
}

// NewHandler creates a factors handler.
func NewHandler(estimator *Estimator, style *StyleAnalyzer, log zerolog.Logger) *Handler {
	return &Handler{
		estimator: estimator,
		style:     style,
		log:       log.With().Str("component", "factors_handler").Logger(),
	}
}

// HandleExposures handles POST /api/analytics/exposures.
func (h *Handler) HandleExposures(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Portfolio domain.Portfolio `json:"portfolio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exposures, err := h.estimator.Exposures(req.Portfolio)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"exposures": exposures})
}

// HandleStyle handles POST /api/analytics/style.
func (h *Handler) HandleStyle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReturnsHistory domain.ReturnTable `json:"returns_history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	weights, err := h.style.Analyze(req.ReturnsHistory)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"style_weights": weights})
}

func (h *Handler) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientData), errors.Is(err, domain.ErrDegenerateInput):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Factor analysis failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
