package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/charlesng35/noticeboard/internal/app"
	"github.com/charlesng35/noticeboard/internal/app/maintenance"
	iauth "github.com/charlesng35/noticeboard/internal/auth"
	"github.com/charlesng35/noticeboard/internal/notices"
	"github.com/charlesng35/noticeboard/pkg/logger"
)

// ctl holds global flags and the configuration loaded before any command runs.
type ctl struct {
	configPath string
	logLevel   string
	cfg        *app.Config

	tokenUser    string
	tokenSession string
	tokenAction  bool

	resetID string

	revokeSession string
	revokeTTL     time.Duration
}

func newApp() *cli.Command {
	c := &ctl{}
	return &cli.Command{
		Name:  "noticectl",
		Usage: "Operate a noticeboard deployment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to configuration directory or file",
				Sources:     cli.EnvVars("NOTICEBOARD_CONFIG"),
				Destination: &c.configPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "warn",
				Destination: &c.logLevel,
			},
		},
		Before: c.before,
		Commands: []*cli.Command{
			c.tokenCmd(),
			c.purgeCmd(),
			c.resetCmd(),
			c.revokeCmd(),
		},
	}
}

func (c *ctl) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := app.ConfigureLogging(c.logLevel, "console"); err != nil {
		return ctx, err
	}

	var paths []string
	if p := strings.TrimSpace(c.configPath); p != "" {
		paths = append(paths, p)
	}
	cfg, err := app.LoadConfig(paths...)
	if err != nil {
		return ctx, err
	}
	c.cfg = cfg
	return ctx, nil
}

func (c *ctl) tokenCmd() *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "Mint an access token for local testing",
		UsageText: "noticectl token --user <id> [--session <id>] [--action]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true, Destination: &c.tokenUser},
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Destination: &c.tokenSession},
			&cli.BoolFlag{Name: "action", Usage: "mint a dismiss action token instead", Destination: &c.tokenAction},
		},
		Action: c.runToken,
	}
}

func (c *ctl) purgeCmd() *cli.Command {
	return &cli.Command{
		Name:   "purge",
		Usage:  "Delete expired shared entries and orphaned per-user flags",
		Action: c.runPurge,
	}
}

func (c *ctl) resetCmd() *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Clear every dismissal of a notice",
		UsageText: "noticectl reset --id <notice-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Required: true, Destination: &c.resetID},
		},
		Action: c.runReset,
	}
}

func (c *ctl) revokeCmd() *cli.Command {
	return &cli.Command{
		Name:      "revoke",
		Usage:     "Reject access tokens of a session until they expire",
		UsageText: "noticectl revoke --session <id> [--ttl 12h]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Required: true, Destination: &c.revokeSession},
			&cli.DurationFlag{Name: "ttl", Usage: "how long to keep the revocation; defaults to the access token lifetime", Destination: &c.revokeTTL},
		},
		Action: c.runRevoke,
	}
}

func (c *ctl) runToken(ctx context.Context, cmd *cli.Command) error {
	jwtCfg, err := c.cfg.Auth.JWTServiceConfig()
	if err != nil {
		return fmt.Errorf("auth.jwt.secret: %w", err)
	}
	svc, err := iauth.NewJWTService(jwtCfg)
	if err != nil {
		return err
	}

	var token string
	if c.tokenAction {
		token, err = svc.IssueActionToken(notices.ActionDismiss, c.tokenUser, c.tokenSession)
	} else {
		token, err = svc.GenerateAccessToken(iauth.AccessTokenInput{UserID: c.tokenUser, SessionID: c.tokenSession})
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, token)
	return err
}

func (c *ctl) runPurge(ctx context.Context, cmd *cli.Command) error {
	return c.withStores(func(stores *app.Stores) error {
		_, svc, err := stores.NoticeStack(c.cfg)
		if err != nil {
			return err
		}
		if err := maintenance.NewCleaner(stores.Purger, svc).RunOnce(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.Root().Writer, "purge complete")
		return err
	})
}

func (c *ctl) runReset(ctx context.Context, cmd *cli.Command) error {
	return c.withStores(func(stores *app.Stores) error {
		_, svc, err := stores.NoticeStack(c.cfg)
		if err != nil {
			return err
		}
		removed, err := svc.ResetDismissals(ctx, c.resetID)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.Root().Writer, "reset %s: %d user flags removed\n", notices.StorageKey(c.resetID), removed)
		return err
	})
}

func (c *ctl) runRevoke(ctx context.Context, cmd *cli.Command) error {
	ttl := c.revokeTTL
	if ttl <= 0 {
		ttl = c.cfg.Auth.JWT.TTL
	}
	if ttl <= 0 {
		ttl = iauth.DefaultAccessTokenTTL
	}

	return c.withStores(func(stores *app.Stores) error {
		list := iauth.NewRevocationList(stores.Shared)
		if err := list.Revoke(ctx, c.revokeSession, ttl); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.Root().Writer, "session %s revoked for %s\n", c.revokeSession, ttl)
		return err
	})
}

func (c *ctl) withStores(fn func(*app.Stores) error) error {
	if c.cfg == nil {
		return errors.New("configuration not loaded")
	}
	log := logger.WithModule("noticectl")
	stores, err := app.OpenStores(c.cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close(log)

	if err := fn(stores); err != nil {
		log.Debug("command failed", zap.Error(err))
		return err
	}
	return nil
}
