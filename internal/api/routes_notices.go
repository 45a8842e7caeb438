package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/noticeboard/internal/handlers"
	"github.com/charlesng35/noticeboard/internal/notices"
)

// dismissRoute answers with a bare {"success":bool} body, panics included.
const dismissRoute = "/notices/dismiss"

func registerNoticeRoutes(r *gin.Engine, deps Dependencies, requireAuth gin.HandlerFunc) error {
	defaults := deps.Config.Notices.Defaults

	renderer, err := notices.NewRenderer(defaults, deps.Flags)
	if err != nil {
		return err
	}
	dismisser, err := notices.NewDismisser(deps.JWT, deps.Flags, defaults, notices.WithCatalog(deps.Notices))
	if err != nil {
		return err
	}
	handler, err := handlers.NewNoticeHandler(renderer, dismisser, deps.Notices, deps.JWT)
	if err != nil {
		return err
	}

	// The script is public so pages can load it before the session is known.
	r.GET("/notices/dismiss.js", handler.Script)

	board := r.Group("/notices", requireAuth)
	{
		board.GET("", handler.Banners)
		board.POST("/dismiss", handler.Dismiss)
	}

	admin := r.Group("/api/notices", requireAuth)
	{
		admin.GET("", handler.List)
		admin.POST("", handler.Create)
		admin.DELETE("/:id", handler.Delete)
		admin.DELETE("/:id/dismissals", handler.ResetDismissals)
	}

	return nil
}
