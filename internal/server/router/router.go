// Package router wires the gin engine.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tiliavir/shiftpay/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/reports", handler.Report)
	api.GET("/reports/export", handler.Export)
	api.GET("/employees", handler.Employees)

	entries := api.Group("/entries")
	entries.GET("", handler.List)
	entries.POST("", handler.Create)
	entries.POST("/preview", handler.Preview)
	entries.GET("/:id", handler.Get)
	entries.PUT("/:id", handler.Update)
	entries.DELETE("/:id", handler.Delete)
	entries.POST("/:id/approve", handler.Approve)
	entries.POST("/:id/reject", handler.Reject)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
