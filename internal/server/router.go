package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ecclesia/internal/app"
)

func NewRouter(service *app.Service, allowedOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(corsMiddleware(allowedOrigins))

	h := NewHandler(service)

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.POST("/cuts/allocate", h.AllocateCuts)
		api.POST("/cuts/rebalance", h.RebalanceCuts)

		api.POST("/scenarios", h.CreateScenario)

		api.GET("/history", h.ListHistory)
		api.GET("/history/:id", h.GetHistory)
		api.DELETE("/history/:id", h.DeleteHistory)
		api.DELETE("/history", h.ClearHistory)

		api.GET("/messages/:lang", h.Messages)
	}

	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	if len(allowedOrigins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept-Language"},
		MaxAge:       12 * time.Hour,
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
