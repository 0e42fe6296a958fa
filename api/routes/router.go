// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	_ "tablebook/docs"
	"tablebook/internal/app"
	"tablebook/internal/assignment"
	"tablebook/internal/availability"
	"tablebook/internal/reservations"
	"tablebook/internal/shared/config"
	"tablebook/internal/shared/database"
	"tablebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// JobStatusReporter reports the state of a background job on /status
type JobStatusReporter interface {
	GetJobStatus() map[string]interface{}
}

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	container *app.Container
	jobs      map[string]JobStatusReporter
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, container *app.Container) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		container: container,
		jobs:      make(map[string]JobStatusReporter),
	}
}

// WithJob adds a background job to the /status report
func (r *Router) WithJob(name string, job JobStatusReporter) *Router {
	r.jobs[name] = job
	return r
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.JWTAuth(r.config)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAvailabilityRoutes(api, auth)
		r.setupReservationRoutes(api, auth)
		r.setupAssignmentRoutes(api, auth)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tablebook",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "tablebook",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		jobs := make(gin.H, len(r.jobs))
		for name, job := range r.jobs {
			jobs[name] = job.GetJobStatus()
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"database":    r.db.Driver,
			"redis":       r.db.Redis != nil,
			"jobs":        jobs,
			"timestamp":   time.Now(),
		})
	})
}

// setupAvailabilityRoutes configures slot availability and diagnostics
func (r *Router) setupAvailabilityRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	controller := availability.NewController(r.container.Availability)
	availability.SetupAvailabilityRoutes(rg, controller, auth)
}

// setupReservationRoutes configures reservation lifecycle routes
func (r *Router) setupReservationRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	controller := reservations.NewController(r.container.ReservationService)
	reservations.SetupReservationRoutes(rg, controller, auth)
}

// setupAssignmentRoutes configures table assignment routes
func (r *Router) setupAssignmentRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	controller := assignment.NewController(r.container.Assignment)
	assignment.SetupAssignmentRoutes(rg, controller, auth)
}
