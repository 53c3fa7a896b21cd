package router

import (
	"github.com/gin-gonic/gin"

	"medrecon/internal/handler"
	"medrecon/internal/middleware"
	"medrecon/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	tokens service.TokenService,
	corsOrigins []string,
	reconH *handler.ReconciliationHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(tokens))

	recon := v1.Group("/reconciliations")
	recon.POST("", reconH.Create)
	recon.POST("/export", reconH.Export)
	recon.GET("", reconH.List)
	recon.GET("/:id", reconH.GetByID)
	recon.GET("/:id/report", reconH.Report)

	return r
}
