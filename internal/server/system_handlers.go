package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var startupTime = time.Now()

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(startupTime).String(),
	})
}

// handleSystemStatus handles GET /api/system/status with host CPU and memory
// usage.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"uptime": time.Since(startupTime).String(),
	}

	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		status["cpu_percent"] = percentages[0]
	} else if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read CPU usage")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		status["memory_percent"] = vm.UsedPercent
		status["memory_total"] = vm.Total
		status["memory_used"] = vm.Used
	} else {
		s.log.Warn().Err(err).Msg("Failed to read memory usage")
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
