package notices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/noticeboard/pkg/logger"
	"github.com/charlesng35/noticeboard/pkg/metrics"
)

var (
	// ErrInvalidToken is returned when the action token does not verify.
	ErrInvalidToken = errors.New("notices: invalid token")
	// ErrUnknownAction is returned when the request names another action.
	ErrUnknownAction = errors.New("notices: unknown action")
	// ErrMissingID is returned when the id is empty after sanitising.
	ErrMissingID = errors.New("notices: missing id")
	// ErrStoreWrite wraps flag store failures.
	ErrStoreWrite = errors.New("notices: store write failed")
)

// Outcome is the result of an accepted dismiss request.
type Outcome string

const (
	// OutcomeDismissed means the flag was written.
	OutcomeDismissed Outcome = "dismissed"
	// OutcomeIgnored means the request was accepted but the notice is
	// required and nothing was written.
	OutcomeIgnored Outcome = "ignored"
)

// Subject is the authenticated caller of a dismiss request.
type Subject struct {
	UserID    string
	SessionID string
}

// TokenVerifier checks an action token was issued to subject for action.
type TokenVerifier interface {
	VerifyActionToken(token, action, userID, sessionID string) error
}

// DismissRequest carries the decoded wire fields of a dismiss call.
type DismissRequest struct {
	// Action is optional; when set it must be ActionDismiss.
	Action     string
	ID         string
	Scope      string
	TTLSeconds int64
	Required   bool
	Token      string
	Subject    Subject
}

// Dismisser validates dismiss requests and records the flag.
type Dismisser struct {
	verifier TokenVerifier
	flags    *FlagStore
	defaults Defaults
	catalog  Catalog
}

// DismisserOption customises a Dismisser.
type DismisserOption func(*Dismisser)

// WithCatalog makes server-known metadata override client-supplied scope,
// ttl and required values.
func WithCatalog(catalog Catalog) DismisserOption {
	return func(d *Dismisser) {
		d.catalog = catalog
	}
}

// NewDismisser constructs a Dismisser.
func NewDismisser(verifier TokenVerifier, flags *FlagStore, defaults Defaults, opts ...DismisserOption) (*Dismisser, error) {
	if verifier == nil {
		return nil, errors.New("notice dismisser: token verifier is required")
	}
	if flags == nil {
		return nil, errors.New("notice dismisser: flag store is required")
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	d := &Dismisser{verifier: verifier, flags: flags, defaults: defaults}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dismiss processes one request. The token is checked before any other
// field; a required notice is acknowledged without writing anything.
func (d *Dismisser) Dismiss(ctx context.Context, req DismissRequest) (Outcome, error) {
	scope := ParseScope(req.Scope)

	if err := d.verifier.VerifyActionToken(req.Token, ActionDismiss, req.Subject.UserID, req.Subject.SessionID); err != nil {
		metrics.NoticeDismissals.WithLabelValues(string(scope), "invalid_token").Inc()
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if action := strings.TrimSpace(req.Action); action != "" && action != ActionDismiss {
		metrics.NoticeDismissals.WithLabelValues(string(scope), "unknown_action").Inc()
		return "", ErrUnknownAction
	}

	if req.Required {
		metrics.NoticeDismissals.WithLabelValues(string(scope), string(OutcomeIgnored)).Inc()
		return OutcomeIgnored, nil
	}

	id := SanitizeID(req.ID)
	if id == "" {
		metrics.NoticeDismissals.WithLabelValues(string(scope), "missing_id").Inc()
		return "", ErrMissingID
	}

	ttl := d.requestTTL(req.TTLSeconds)
	if d.catalog != nil {
		known, ok, err := d.catalog.Lookup(ctx, id)
		if err != nil {
			logger.WithModule("notices").Warn("catalog lookup failed, using request values",
				zap.String("id", id),
				zap.Error(err),
			)
		} else if ok {
			known = d.defaults.Merge(known)
			if known.Required {
				metrics.NoticeDismissals.WithLabelValues(string(known.Scope), string(OutcomeIgnored)).Inc()
				return OutcomeIgnored, nil
			}
			scope = known.Scope
			ttl = known.TTL
		}
	}

	var writeTTL time.Duration
	if scope != ScopeUser {
		writeTTL = d.defaults.ClampTTL(ttl)
	}

	if err := d.flags.MarkDismissed(ctx, scope, req.Subject.UserID, StorageKey(id), writeTTL); err != nil {
		metrics.NoticeDismissals.WithLabelValues(string(scope), "store_error").Inc()
		return "", fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	metrics.NoticeDismissals.WithLabelValues(string(scope), string(OutcomeDismissed)).Inc()
	return OutcomeDismissed, nil
}

// requestTTL converts client seconds to a duration, saturating at MaxTTL
// instead of overflowing.
func (d *Dismisser) requestTTL(seconds int64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	if seconds > int64(d.defaults.MaxTTL/time.Second) {
		return d.defaults.MaxTTL
	}
	return time.Duration(seconds) * time.Second
}
