package httpserver

import (
	"github.com/gin-gonic/gin"

	"runmatch/internal/dispatch"
	"runmatch/internal/health"
	"runmatch/internal/monitoring"
)

// Deps are the wired services the router exposes.
type Deps struct {
	Dispatch   *dispatch.Handler
	Health     *health.Handler
	Monitoring *monitoring.Handler
}

// NewRouter assembles the engine's HTTP control surface. Listening is
// the caller's job so tests can drive the router directly.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	api := r.Group("/api")
	deps.Dispatch.RegisterRoutes(api.Group("/dispatch"))
	deps.Health.RegisterRoutes(api)
	deps.Monitoring.RegisterRoutes(api)

	return r
}
