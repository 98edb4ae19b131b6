package optimization

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/domain"
)

// runCache stores the last optimization run for the status endpoint.
type runCache struct {
	mu          sync.RWMutex
	lastRunID   string
	lastResult  *Result
	lastUpdated time.Time
}

// Handler serves the optimizer and frontier endpoints.
type Handler struct {
	optimizer *Optimizer
	frontier  *FrontierGenerator
	cache     *runCache
	log       zerolog.Logger
}

// NewHandler creates an optimization handler.
func NewHandler(optimizer *Optimizer, frontier *FrontierGenerator, log zerolog.Logger) *Handler {
	return &Handler{
		optimizer: optimizer,
		frontier:  frontier,
		cache:     &runCache{},
		log:       log.With().Str("component", "optimizer_handler").Logger(),
	}
}

// HandleStatus handles GET /api/optimizer - returns the last run, if any.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.cache.mu.RLock()
	defer h.cache.mu.RUnlock()

	response := map[string]interface{}{
		"status":   "ready",
		"last_run": nil,
	}
	if h.cache.lastResult != nil {
		response["last_run"] = h.cache.lastResult
		response["last_run_id"] = h.cache.lastRunID
		response["last_run_time"] = h.cache.lastUpdated.Format(time.RFC3339)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleFrontier handles POST /api/optimizer/frontier.
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Returns       domain.ReturnTable `json:"returns"`
		RiskFreeRate  float64            `json:"risk_free_rate"`
		NumPortfolios int                `json:"num_portfolios"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	points, err := h.frontier.Generate(req.Returns, req.RiskFreeRate, req.NumPortfolios)
	if err != nil {
		h.writeOptimizationError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"frontier": points})
}

// HandleMaxSharpe handles POST /api/optimizer/max-sharpe.
func (h *Handler) HandleMaxSharpe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Returns      domain.ReturnTable `json:"returns"`
		RiskFreeRate float64            `json:"risk_free_rate"`
		Constraints  *Constraints       `json:"constraints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.optimizer.MaximumSharpe(req.Returns, req.RiskFreeRate, req.Constraints)
	if err != nil {
		h.writeOptimizationError(w, err)
		return
	}

	h.respondWithRun(w, result)
}

// HandleRiskConstraints handles POST /api/optimizer/risk-constraints.
func (h *Handler) HandleRiskConstraints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Returns        domain.ReturnTable `json:"returns"`
		MaxRisk        *float64           `json:"max_risk"`
		TargetReturn   *float64           `json:"target_return"`
		CurrentWeights map[string]float64 `json:"current_weights"`
		RiskFreeRate   float64            `json:"risk_free_rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.optimizer.WithRiskConstraints(req.Returns, RiskConstraintParams{
		MaxRisk:        req.MaxRisk,
		TargetReturn:   req.TargetReturn,
		CurrentWeights: req.CurrentWeights,
		RiskFreeRate:   req.RiskFreeRate,
	})
	if err != nil {
		h.writeOptimizationError(w, err)
		return
	}

	h.respondWithRun(w, result)
}

// HandleRiskBudget handles POST /api/optimizer/risk-budget.
func (h *Handler) HandleRiskBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Portfolio   domain.Portfolio   `json:"portfolio"`
		Returns     domain.ReturnTable `json:"returns"`
		RiskBudget  map[string]float64 `json:"risk_budget"`
		Constraints *Constraints       `json:"constraints"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.optimizer.RiskBudget(req.Portfolio, req.Returns, req.RiskBudget, req.Constraints)
	if err != nil {
		h.writeOptimizationError(w, err)
		return
	}

	h.respondWithRun(w, result)
}

// respondWithRun caches the result under a fresh run id and writes it.
func (h *Handler) respondWithRun(w http.ResponseWriter, result Result) {
	runID := uuid.New().String()

	h.cache.mu.Lock()
	h.cache.lastRunID = runID
	h.cache.lastResult = &result
	h.cache.lastUpdated = time.Now()
	h.cache.mu.Unlock()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"result": result,
	})
}

func (h *Handler) writeOptimizationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientData), errors.Is(err, domain.ErrDegenerateInput):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrSolverFailure):
		h.log.Error().Err(err).Msg("Solver failure")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.log.Error().Err(err).Msg("Optimization failed")
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
