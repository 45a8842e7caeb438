package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/noticeboard/internal/app"
	iauth "github.com/charlesng35/noticeboard/internal/auth"
	"github.com/charlesng35/noticeboard/internal/cache"
	"github.com/charlesng35/noticeboard/internal/middleware"
	"github.com/charlesng35/noticeboard/internal/notices"
	"github.com/charlesng35/noticeboard/internal/services"
)

// Dependencies are the long-lived components the router is built from.
// Constructing them has no side effects on routing; everything is registered
// explicitly by NewRouter.
type Dependencies struct {
	Config      *app.Config
	DB          *gorm.DB
	JWT         *iauth.JWTService
	Store       cache.Store
	Revocations *iauth.RevocationList
	Flags       *notices.FlagStore
	Notices     *services.NoticeService
}

func (d Dependencies) validate() error {
	switch {
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.JWT == nil:
		return fmt.Errorf("jwt service must be provided")
	case d.Store == nil:
		return fmt.Errorf("shared store must be provided")
	case d.Flags == nil:
		return fmt.Errorf("flag store must be provided")
	case d.Notices == nil:
		return fmt.Errorf("notice service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	metricsPath := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	r := gin.New()

	r.Use(middleware.Recovery(dismissRoute))
	r.Use(middleware.Logger())
	if cfg.Monitoring.Prometheus.Enabled {
		r.Use(middleware.Metrics(metricsPath))
	}
	r.Use(middleware.SecurityHeaders(cfg.Server.HSTS))
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF())
	}
	if cfg.Server.RateLimit.Requests > 0 {
		r.Use(middleware.RateLimit(deps.Store, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	}

	registerHealthRoutes(r, deps)

	requireAuth := middleware.Auth(deps.JWT, middleware.AuthOptions{
		CookieName:  cfg.Auth.SessionCookie,
		Revocations: deps.Revocations,
	})
	if err := registerNoticeRoutes(r, deps, requireAuth); err != nil {
		return nil, err
	}

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
