package notices

import (
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/noticeboard/pkg/validator"
)

// ActionDismiss is the action name bound into dismiss tokens and sent by the
// client script.
const ActionDismiss = "dismiss-notice"

// KeyPrefix is prepended to the sanitised notice id to build its storage key.
const KeyPrefix = "notice-"

// MaxButtons caps the number of action links rendered per notice.
const MaxButtons = 2

// Type selects the visual severity of a notice.
type Type string

const (
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeSuccess Type = "success"
)

// Format is the markup language of a notice message.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Scope decides where a dismissed flag is kept.
type Scope string

const (
	// ScopeUser flags are stored against the viewer and never expire.
	ScopeUser Scope = "user"
	// ScopeTransient flags are shared by every viewer until their TTL elapses.
	ScopeTransient Scope = "transient"
)

var scopeNames = map[string]Scope{
	"user":               ScopeUser,
	"per-user":           ScopeUser,
	"transient":          ScopeTransient,
	"shared":             ScopeTransient,
	"shared-with-expiry": ScopeTransient,
}

// LookupScope resolves a scope name or one of its aliases.
func LookupScope(value string) (Scope, bool) {
	scope, ok := scopeNames[strings.ToLower(strings.TrimSpace(value))]
	return scope, ok
}

// ParseScope maps a value posted by the client script to a Scope. Unknown
// values are treated as transient.
func ParseScope(value string) Scope {
	if scope, ok := LookupScope(value); ok {
		return scope
	}
	return ScopeTransient
}

// Button is an action link rendered under the message.
type Button struct {
	URL   string `json:"url" mapstructure:"url" validate:"required"`
	Label string `json:"label" mapstructure:"label" validate:"required"`
}

// Notice describes one banner. Zero fields are filled from Defaults.
type Notice struct {
	ID          string        `json:"id" mapstructure:"id"`
	Type        Type          `json:"type" mapstructure:"type" validate:"omitempty,oneof=info warning error success"`
	Message     string        `json:"message" mapstructure:"message"`
	Format      Format        `json:"format" mapstructure:"format" validate:"omitempty,oneof=html markdown"`
	Class       string        `json:"class" mapstructure:"class"`
	Dismissible bool          `json:"dismissible" mapstructure:"dismissible"`
	Scope       Scope         `json:"scope" mapstructure:"scope"`
	TTL         time.Duration `json:"ttl" mapstructure:"ttl"`
	Required    bool          `json:"required" mapstructure:"required"`
	// ShowIf is the caller-evaluated display predicate; nil means show.
	ShowIf  *bool    `json:"show_if,omitempty" mapstructure:"show_if"`
	Buttons []Button `json:"buttons,omitempty" mapstructure:"buttons" validate:"max=2,dive"`
}

// Validate checks a declared catalog record before it is served.
func (n Notice) Validate() error {
	if SanitizeID(n.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if n.Scope != "" {
		if _, ok := LookupScope(string(n.Scope)); !ok {
			return fmt.Errorf("unknown scope %q", n.Scope)
		}
	}
	return validator.ValidateStruct(n)
}

// Key returns the storage key of the notice's dismissed flag.
func (n Notice) Key() string {
	return StorageKey(n.ID)
}

// Visible reports the ShowIf predicate.
func (n Notice) Visible() bool {
	return n.ShowIf == nil || *n.ShowIf
}

// Defaults holds the values applied to unset notice fields.
type Defaults struct {
	Type   Type          `mapstructure:"type" validate:"oneof=info warning error success"`
	Format Format        `mapstructure:"format" validate:"oneof=html markdown"`
	Class  string        `mapstructure:"class" validate:"required"`
	Scope  Scope         `mapstructure:"scope" validate:"oneof=user transient"`
	TTL    time.Duration `mapstructure:"ttl" validate:"gt=0"`
	// MaxTTL clamps client-supplied transient lifetimes.
	MaxTTL time.Duration `mapstructure:"max_ttl" validate:"gtefield=TTL"`
}

// DefaultDefaults returns the built-in notice defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		Type:   TypeInfo,
		Format: FormatHTML,
		Class:  "noticeboard-active-notice",
		Scope:  ScopeUser,
		TTL:    7 * 24 * time.Hour,
		MaxTTL: 90 * 24 * time.Hour,
	}
}

// Validate checks the defaults are usable.
func (d Defaults) Validate() error {
	if err := validator.ValidateStruct(d); err != nil {
		return fmt.Errorf("notice defaults: %w", err)
	}
	return nil
}

// Merge fills the zero fields of n from d.
func (d Defaults) Merge(n Notice) Notice {
	n.ID = SanitizeID(n.ID)
	if n.Type == "" {
		n.Type = d.Type
	}
	if n.Format == "" {
		n.Format = d.Format
	}
	if strings.TrimSpace(n.Class) == "" {
		n.Class = d.Class
	}
	if n.Scope == "" {
		n.Scope = d.Scope
	} else if scope, ok := LookupScope(string(n.Scope)); ok {
		n.Scope = scope
	} else {
		// An unrecognised record scope keeps flags per user so one dismissal
		// never hides the notice from everyone.
		n.Scope = ScopeUser
	}
	if n.TTL <= 0 {
		n.TTL = d.TTL
	}
	if len(n.Buttons) > MaxButtons {
		n.Buttons = n.Buttons[:MaxButtons]
	}
	return n
}

// ClampTTL resolves a requested transient lifetime: non-positive values take
// the default and anything above MaxTTL is capped.
func (d Defaults) ClampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = d.TTL
	}
	if d.MaxTTL > 0 && ttl > d.MaxTTL {
		ttl = d.MaxTTL
	}
	return ttl
}

// SanitizeID lower-cases id and strips everything outside [a-z0-9_-].
func SanitizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StorageKey derives the flag key for a notice id. The result is empty when
// the id sanitises to nothing.
func StorageKey(id string) string {
	clean := SanitizeID(id)
	if clean == "" {
		return ""
	}
	return KeyPrefix + clean
}

// Viewer is the identity a notice is rendered for.
type Viewer struct {
	UserID    string
	SessionID string
	// Token is embedded in dismissible banners and echoed back by the client.
	Token string
}
