package risk

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/domain"
)

// Handler serves the risk metrics endpoint.
type Handler struct {
	calculator *Calculator
	log        zerolog.Logger
}

// NewHandler creates a risk handler.
func NewHandler(calculator *Calculator, log zerolog.Logger) *Handler {
	return &Handler{
		calculator: calculator,
		log:        log.With().Str("component", "risk_handler").Logger(),
	}
}

// HandleMetrics handles POST /api/analytics/risk.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReturnsHistory domain.ReturnTable `json:"returns_history"`
		RiskFreeRate   *float64           `json:"risk_free_rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	riskFree := DefaultRiskFreeRate
	if req.RiskFreeRate != nil {
		riskFree = *req.RiskFreeRate
	}

	metrics, err := h.calculator.Metrics(req.ReturnsHistory, riskFree)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientData) || errors.Is(err, domain.ErrDegenerateInput) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Risk metrics failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, metrics)
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
