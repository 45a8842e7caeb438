package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/noticeboard/internal/api"
	"github.com/charlesng35/noticeboard/internal/app"
	"github.com/charlesng35/noticeboard/internal/app/maintenance"
	iauth "github.com/charlesng35/noticeboard/internal/auth"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	Stores  *app.Stores
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime initialises stores, services, maintenance jobs and the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.Stores, err = app.OpenStores(cfg, log)
	if err != nil {
		return nil, err
	}

	jwtCfg, err := cfg.Auth.JWTServiceConfig()
	if err != nil {
		return nil, fmt.Errorf("decode jwt secret: %w", err)
	}
	jwtSvc, err := iauth.NewJWTService(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	flags, noticeSvc, err := stack.Stores.NoticeStack(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise notice service: %w", err)
	}

	stack.Cleaner = maintenance.NewCleaner(stack.Stores.Purger, noticeSvc,
		maintenance.WithPurgeSchedule(cfg.Cache.PurgeSchedule),
	)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:      cfg,
		DB:          stack.Stores.DB,
		JWT:         jwtSvc,
		Store:       stack.Stores.Shared,
		Revocations: iauth.NewRevocationList(stack.Stores.Shared),
		Flags:       flags,
		Notices:     noticeSvc,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		<-stopCtx.Done()
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
		s.Cleaner = nil
	}

	if s.Stores != nil {
		s.Stores.Close(log)
		s.Stores = nil
	}
}
