package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

var startTime = time.Now()

// ToolChecker reports the version of the probing tool.
type ToolChecker interface {
	Version(ctx context.Context) (string, error)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	tool    ToolChecker
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(tool ToolChecker, version string) *HealthHandler {
	return &HealthHandler{
		tool:    tool,
		version: version,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	FFprobe   string `json:"ffprobe,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe. The service is ready when
// ffprobe can be executed.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	version, err := h.tool.Version(ctx)
	if err != nil {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Error:     fmt.Sprintf("ffprobe unavailable: %v", err),
		})
		return
	}

	writeHealth(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		FFprobe:   version,
	})
}

// SystemStats contains process resource statistics.
type SystemStats struct {
	Version       string `json:"version"`
	Uptime        int64  `json:"uptime_seconds"`
	UptimeHuman   string `json:"uptime_human"`
	MemAllocMB    int64  `json:"mem_alloc_mb"`
	MemSysMB      int64  `json:"mem_sys_mb"`
	MemHeapMB     int64  `json:"mem_heap_mb"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`

	// Process figures from the OS; omitted when unavailable.
	RSSMB      uint64  `json:"rss_mb,omitempty"`
	CPUPercent float64 `json:"cpu_percent,omitempty"`
	Children   int     `json:"child_processes"`
}

// Stats handles GET /stats - process statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)

	stats := SystemStats{
		Version:       h.version,
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		MemHeapMB:     int64(m.HeapAlloc / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
	}
	addProcessStats(r.Context(), &stats)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

// addProcessStats fills in OS-level figures for this process. Running
// ffprobe invocations show up as child processes.
func addProcessStats(ctx context.Context, stats *SystemStats) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return
	}
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
		stats.RSSMB = mem.RSS / 1024 / 1024
	}
	if pct, err := p.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = pct
	}
	if children, err := p.ChildrenWithContext(ctx); err == nil {
		stats.Children = len(children)
	}
}

func writeHealth(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
