package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"runmatch/internal/dispatch"
	"runmatch/internal/platform"
)

// Status aggregates dependency health for the engine.
type Status struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

// Service checks the engine's dependencies.
type Service interface {
	Check(ctx context.Context) Status
}

type healthService struct {
	mongo      *platform.MongoService // nil in memory mode
	redis      *redis.Client          // nil when broadcast is disabled
	dispatcher *dispatch.Dispatcher
}

// NewService builds the health checker. Nil dependencies are reported
// as disabled rather than down.
func NewService(mongo *platform.MongoService, rdb *redis.Client, dispatcher *dispatch.Dispatcher) Service {
	return &healthService{mongo: mongo, redis: rdb, dispatcher: dispatcher}
}

func (s *healthService) Check(ctx context.Context) Status {
	services := make(map[string]interface{})
	overall := "ok"

	mongoStatus := "disabled"
	if s.mongo != nil {
		mongoStatus = "ok"
		if err := s.mongo.Ping(ctx); err != nil {
			mongoStatus = "down"
			overall = "degraded"
		}
	}
	services["mongodb"] = map[string]string{"status": mongoStatus}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "ok"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "down"
			overall = "degraded"
		}
	}
	services["redis"] = map[string]string{"status": redisStatus}

	services["dispatcher"] = map[string]interface{}{
		"status":        "ok",
		"running_tasks": s.dispatcher.RunningCount(),
	}

	return Status{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
	}
}

// Handler exposes GET /health.
type Handler struct {
	svc Service
}

// NewHandler creates the health handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the health route.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/health", h.HealthCheck)
}

// HealthCheck serves the dependency summary; 503 when degraded.
func (h *Handler) HealthCheck(c *gin.Context) {
	status := h.svc.Check(c.Request.Context())
	httpStatus := http.StatusOK
	if status.Status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, status)
}
