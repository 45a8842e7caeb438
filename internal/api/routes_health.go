package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/noticeboard/internal/database"
	"github.com/charlesng35/noticeboard/internal/handlers"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func registerHealthRoutes(r *gin.Engine, deps Dependencies) {
	if !deps.Config.Monitoring.Health.Enabled {
		r.GET("/health", disabledHealthHandler)
		return
	}

	checks := []handlers.HealthCheck{{
		Name:  "database",
		Check: func(ctx context.Context) error { return database.Ping(ctx, deps.DB) },
	}}
	if p, ok := deps.Store.(pinger); ok {
		checks = append(checks, handlers.HealthCheck{Name: "cache", Check: p.Ping})
	}

	r.GET("/health", handlers.Health(checks...))
}

func disabledHealthHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}
