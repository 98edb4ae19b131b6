package attribution

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/domain"
)

// Handler serves the attribution endpoint.
type Handler struct {
	analyzer *Analyzer
	log      zerolog.Logger
}

// NewHandler creates an attribution handler.
func NewHandler(analyzer *Analyzer, log zerolog.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		log:      log.With().Str("component", "attribution_handler").Logger(),
	}
}

// HandleAttribution handles POST /api/analytics/attribution.
func (h *Handler) HandleAttribution(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Portfolio domain.Portfolio   `json:"portfolio"`
		Benchmark domain.Portfolio   `json:"benchmark"`
		Returns   map[string]float64 `json:"returns"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.analyzer.Analyze(req.Portfolio, req.Benchmark, req.Returns)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientData) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Attribution failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
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
