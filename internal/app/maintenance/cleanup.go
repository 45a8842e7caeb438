package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/noticeboard/internal/cache"
	"github.com/charlesng35/noticeboard/pkg/logger"
)

const (
	defaultPurgeSpec = "@every 1h"
	defaultPruneSpec = "@daily"
)

// FlagPruner removes per-user dismissal flags of notices that no longer exist.
type FlagPruner interface {
	PruneOrphanedFlags(ctx context.Context) (int64, error)
}

// Cleaner coordinates background maintenance: sweeping expired shared entries
// and pruning orphaned per-user flags.
type Cleaner struct {
	purger  cache.Purger
	pruner  FlagPruner
	cron    *cron.Cron
	log     *zap.Logger
	enabled bool

	purgeSchedule string
	pruneSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithPurgeSchedule overrides the cron specification for the shared store sweep.
func WithPurgeSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.purgeSchedule = spec
		}
	}
}

// WithPruneSchedule overrides the cron specification for orphaned flag pruning.
func WithPruneSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.pruneSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips the matching job;
// stores that expire entries on their own (Redis) pass a nil purger.
func NewCleaner(purger cache.Purger, pruner FlagPruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		purger:        purger,
		pruner:        pruner,
		purgeSchedule: defaultPurgeSpec,
		pruneSchedule: defaultPruneSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	cleaner.enabled = cleaner.purger != nil || cleaner.pruner != nil

	return cleaner
}

// Start registers the jobs and launches the scheduler if at least one is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.purger != nil {
		if _, err := c.cron.AddFunc(c.purgeSchedule, func() {
			c.purge(context.Background())
		}); err != nil {
			return err
		}
	}

	if c.pruner != nil {
		if _, err := c.cron.AddFunc(c.pruneSchedule, func() {
			c.prune(context.Background())
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially. Used by the CLI and
// during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if _, err := c.purge(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := c.prune(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (c *Cleaner) purge(ctx context.Context) (int64, error) {
	if c.purger == nil {
		return 0, nil
	}
	start := time.Now()
	removed, err := c.purger.PurgeExpired(ctx)
	if err != nil {
		c.log.Warn("shared store purge failed", zap.Error(err))
		return 0, err
	}
	c.log.Debug("shared store purged",
		zap.Int64("removed", removed),
		zap.Duration("duration", time.Since(start)),
	)
	return removed, nil
}

func (c *Cleaner) prune(ctx context.Context) (int64, error) {
	if c.pruner == nil {
		return 0, nil
	}
	removed, err := c.pruner.PruneOrphanedFlags(ctx)
	if err != nil {
		c.log.Warn("orphaned flag pruning failed", zap.Error(err))
		return 0, err
	}
	return removed, nil
}
