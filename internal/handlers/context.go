package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/noticeboard/internal/middleware"
	"github.com/charlesng35/noticeboard/internal/notices"
)

// requestContext returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

// subjectFromContext reads the identity stored by middleware.Auth.
func subjectFromContext(c *gin.Context) notices.Subject {
	return notices.Subject{
		UserID:    c.GetString(middleware.CtxUserIDKey),
		SessionID: c.GetString(middleware.CtxSessionIDKey),
	}
}
