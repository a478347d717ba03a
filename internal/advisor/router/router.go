// Package router wires the advisor service routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/advisor-x/internal/advisor/handler"
)

// New builds the gin engine with all advisor routes registered.
func New(advisorHandler *handler.AdvisorHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	// The bare /recommend route matches the legacy surface; the /v1 group is
	// the versioned equivalent.
	engine.POST("/recommend", advisorHandler.Recommend)
	engine.GET("/healthz", advisorHandler.Healthz)
	engine.GET("/stats", advisorHandler.Stats)
	engine.GET("/metrics", advisorHandler.Metrics)

	v1 := engine.Group("/v1")
	{
		v1.POST("/recommend", advisorHandler.Recommend)
		v1.POST("/ingest", advisorHandler.Ingest)
		v1.DELETE("/cache", advisorHandler.ClearCache)
	}

	logger.Info("HTTP routes registered")
	return engine
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Infow("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
