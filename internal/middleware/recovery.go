package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/noticeboard/pkg/errors"
	"github.com/charlesng35/noticeboard/pkg/logger"
	"github.com/charlesng35/noticeboard/pkg/response"
)

// Recovery turns a panic into a 500. Routes listed in bareRoutes answer with
// the bare {"success":false} body their clients expect instead of the error
// envelope.
func Recovery(bareRoutes ...string) gin.HandlerFunc {
	bare := make(map[string]struct{}, len(bareRoutes))
	for _, route := range bareRoutes {
		bare[route] = struct{}{}
	}

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.WithModule("http").Error("panic recovered",
				zap.String("request_id", c.GetString(CtxRequestIDKey)),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)

			if _, ok := bare[c.FullPath()]; ok {
				response.Outcome(c, http.StatusInternalServerError, false)
			} else {
				response.Error(c, errors.ErrInternalServer)
			}
			c.Abort()
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with a JSON 404.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.ErrNotFound)
}
