package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"runmatch/internal/dispatch"
	"runmatch/internal/platform"
)

// EngineStats is the dispatch-side slice of the monitoring payload.
type EngineStats struct {
	RunningTasks int `json:"running_tasks"`
}

// SystemStats mixes process and host metrics.
type SystemStats struct {
	// Process specific
	NumGoroutine int    `json:"num_goroutine"`
	Alloc        uint64 `json:"alloc_bytes"`
	Sys          uint64 `json:"sys_bytes"`
	NumGC        uint32 `json:"num_gc"`

	// System wide
	TotalRAM        uint64    `json:"total_ram"`
	AvailableRAM    uint64    `json:"available_ram"`
	UsedRAMPercent  float64   `json:"used_ram_percent"`
	TotalCPUCores   int       `json:"total_cpu_cores"`
	CPUUsagePercent []float64 `json:"cpu_usage_percent"`
}

// MonitoringStatus is the full payload of GET /monitoring.
type MonitoringStatus struct {
	Timestamp time.Time   `json:"timestamp"`
	MongoDB   string      `json:"mongodb"`
	Engine    EngineStats `json:"engine"`
	System    SystemStats `json:"system"`
}

// Service assembles the monitoring snapshot.
type Service interface {
	GetStatus(ctx context.Context) MonitoringStatus
}

type monitoringService struct {
	mongo      *platform.MongoService // nil in memory mode
	dispatcher *dispatch.Dispatcher
}

// NewService creates the monitoring service.
func NewService(mongo *platform.MongoService, dispatcher *dispatch.Dispatcher) Service {
	return &monitoringService{mongo: mongo, dispatcher: dispatcher}
}

func (s *monitoringService) GetStatus(ctx context.Context) MonitoringStatus {
	mongoStatus := "disabled"
	if s.mongo != nil {
		mongoStatus = "ok"
		if err := s.mongo.Ping(ctx); err != nil {
			mongoStatus = "down"
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	vMem, _ := mem.VirtualMemory()
	cpuPercent, _ := cpu.Percent(0, true)

	sysStats := SystemStats{
		NumGoroutine:    runtime.NumGoroutine(),
		Alloc:           memStats.Alloc,
		Sys:             memStats.Sys,
		NumGC:           memStats.NumGC,
		TotalCPUCores:   runtime.NumCPU(),
		CPUUsagePercent: cpuPercent,
	}
	if vMem != nil {
		sysStats.TotalRAM = vMem.Total
		sysStats.AvailableRAM = vMem.Available
		sysStats.UsedRAMPercent = vMem.UsedPercent
	}

	return MonitoringStatus{
		Timestamp: time.Now(),
		MongoDB:   mongoStatus,
		Engine:    EngineStats{RunningTasks: s.dispatcher.RunningCount()},
		System:    sysStats,
	}
}

// Handler exposes GET /monitoring.
type Handler struct {
	svc Service
}

// NewHandler creates the monitoring handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the monitoring route.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/monitoring", h.GetMonitoringStatus)
}

// GetMonitoringStatus serves the snapshot.
func (h *Handler) GetMonitoringStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GetStatus(c.Request.Context()))
}
