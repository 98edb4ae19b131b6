package optimization

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *Handler {
	log := zerolog.Nop()
	return NewHandler(NewOptimizer(log), NewFrontierGenerator(0, log), log)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandler_HandleStatus_NoRuns(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/optimizer", nil)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ready", response["status"])
	assert.Nil(t, response["last_run"])
}

func TestHandler_HandleMaxSharpe(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.HandleMaxSharpe, "/api/optimizer/max-sharpe", map[string]interface{}{
		"returns":        syntheticReturns(120),
		"risk_free_rate": 0.0001,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		RunID  string `json:"run_id"`
		Result Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEmpty(t, response.RunID)
	assert.NotEmpty(t, response.Result.Weights)

	// The run is now visible on the status endpoint.
	statusReq := httptest.NewRequest(http.MethodGet, "/api/optimizer", nil)
	statusRec := httptest.NewRecorder()
	h.HandleStatus(statusRec, statusReq)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &status))
	assert.Equal(t, response.RunID, status["last_run_id"])
	assert.NotNil(t, status["last_run"])
}

func TestHandler_HandleFrontier(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.HandleFrontier, "/api/optimizer/frontier", map[string]interface{}{
		"returns":        syntheticReturns(120),
		"risk_free_rate": 0.0001,
		"num_portfolios": 100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Frontier []FrontierPoint `json:"frontier"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Frontier)
}

func TestHandler_HandleRiskBudget(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.HandleRiskBudget, "/api/optimizer/risk-budget", map[string]interface{}{
		"portfolio": map[string]interface{}{
			"holdings": []map[string]interface{}{
				{"symbol": "AAPL", "sector": "Technology", "current_value": 5000},
				{"symbol": "JPM", "sector": "Financials", "current_value": 3000},
				{"symbol": "XOM", "sector": "Energy", "current_value": 2000},
			},
		},
		"returns":     syntheticReturns(120),
		"risk_budget": map[string]float64{"AAPL": 1, "JPM": 1, "XOM": 1},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Result Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Result.RiskContributions)
}

func TestHandler_InsufficientDataMapsTo422(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.HandleMaxSharpe, "/api/optimizer/max-sharpe", map[string]interface{}{
		"returns": map[string]interface{}{"dates": []string{}, "data": map[string][]float64{}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_MalformedBodyMapsTo400(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/optimizer/max-sharpe",
		strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.HandleMaxSharpe(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
