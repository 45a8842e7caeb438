package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/noticeboard/pkg/logger"
	"github.com/charlesng35/noticeboard/pkg/response"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Health returns a status payload useful for readiness checks. Any failing
// check turns the response into 503.
func Health(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(requestContext(c), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(gin.H, len(checks))
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				logger.WithModule("health").Warn("health check failed", zap.String("check", check.Name), zap.Error(err))
				results[check.Name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[check.Name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		payload := gin.H{"status": state}
		if len(results) > 0 {
			payload["checks"] = results
		}
		response.Success(c, status, payload)
	}
}
