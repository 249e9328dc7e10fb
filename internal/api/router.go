package api

import (
	"github.com/bomatic/bomatic-server/internal/logger"
	"github.com/bomatic/bomatic-server/internal/server"
	"github.com/bomatic/bomatic-server/internal/server/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	STT      *STTHandler
	Analysis *AnalysisHandler
	Pipeline *PipelineHandler
	// TokenParser guards the authenticated routes.
	TokenParser middleware.TokenParser
}

// RegisterRoutes applies the middleware chain and mounts every route on the
// server's engine.
func RegisterRoutes(srv *server.Server, h Handlers, allowedOrigins []string, log *logger.Logger) {
	engine := srv.GinEngine()

	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(allowedOrigins),
		middleware.RequestLogger(log),
	)

	engine.GET("/health", h.Health.Health)
	engine.GET("/alive", h.Health.Alive)
	engine.GET("/ready", h.Health.Ready)

	v1 := engine.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.GET("/verify", h.Auth.Verify)
	}

	sttGroup := v1.Group("/stt")
	{
		sttGroup.POST("/start", h.STT.Start)
		sttGroup.POST("/upload", h.STT.Upload)
		sttGroup.GET("/status/:id", h.STT.Status)
		sttGroup.DELETE("/jobs/:id", h.STT.Delete)
	}

	analysisGroup := v1.Group("/analysis")
	analysisGroup.Use(middleware.RequireAuth(h.TokenParser))
	{
		analysisGroup.POST("/analyze", h.Analysis.Analyze)
	}

	v1.POST("/pipeline/full-analysis", h.Pipeline.FullAnalysis)
}
