package server

import (
	"chat-exchange/contract"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/shirou/gopsutil/process"
)

type HealthStatus struct {
	Status     string  `json:"status"`
	Peers      int     `json:"peers"`
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}

// HealthHandler reports liveness, the number of connected peers and process stats.
type HealthHandler struct {
	log      *slog.Logger
	registry contract.IRegistry
	process  *process.Process
}

func NewHealthHandler(log *slog.Logger, registry contract.IRegistry) *HealthHandler {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process stats unavailable", "error", err)
	}
	return &HealthHandler{log: log, registry: registry, process: p}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	status := HealthStatus{Status: "ok", Peers: h.registry.Len(), PID: int32(os.Getpid())}
	if h.process != nil {
		if mem, err := h.process.MemoryInfo(); err == nil {
			status.RSSBytes = mem.RSS
		}
		if cpu, err := h.process.CPUPercent(); err == nil {
			status.CPUPercent = cpu
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.log.Error("Failed to encode health status", "error", err)
	}
}
