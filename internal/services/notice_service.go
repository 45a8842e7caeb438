package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/noticeboard/internal/models"
	"github.com/charlesng35/noticeboard/internal/notices"
	apperrors "github.com/charlesng35/noticeboard/pkg/errors"
	"github.com/charlesng35/noticeboard/pkg/logger"
	"github.com/charlesng35/noticeboard/pkg/validator"
)

var (
	// ErrNoticeNotFound indicates the requested notice does not exist.
	ErrNoticeNotFound = apperrors.New("NOTICE_NOT_FOUND", "Notice not found", http.StatusNotFound)
	// ErrNoticeExists indicates the slug is already taken.
	ErrNoticeExists = apperrors.New("NOTICE_EXISTS", "Notice already exists", http.StatusConflict)
	// ErrNoticeReadOnly indicates the notice is declared in configuration.
	ErrNoticeReadOnly = apperrors.New("NOTICE_READ_ONLY", "Configured notices cannot be modified", http.StatusConflict)
)

// CreateNoticeInput describes a notice created through the admin API.
type CreateNoticeInput struct {
	Slug        string                `json:"slug" validate:"required,max=128,slug"`
	Type        string                `json:"type" validate:"omitempty,oneof=info warning error success"`
	Message     string                `json:"message" validate:"required"`
	Format      string                `json:"format" validate:"omitempty,oneof=html markdown"`
	Class       string                `json:"class" validate:"max=128"`
	Dismissible bool                  `json:"dismissible"`
	Scope       string                `json:"scope" validate:"omitempty,oneof=user transient"`
	TTLSeconds  int64                 `json:"ttl_seconds" validate:"gte=0"`
	Required    bool                  `json:"required"`
	Hidden      bool                  `json:"hidden"`
	Buttons     []models.NoticeButton `json:"buttons" validate:"max=2,dive"`
}

// NoticeView is the API representation of a catalog entry.
type NoticeView struct {
	ID         string         `json:"id,omitempty"`
	Source     string         `json:"source"`
	Notice     notices.Notice `json:"notice"`
	TTLSeconds int64          `json:"ttl_seconds"`
	Hidden     bool           `json:"hidden"`
}

// NoticeService manages the notice catalog: configured notices first, then
// those persisted through the API.
type NoticeService struct {
	db         *gorm.DB
	configured *notices.StaticCatalog
	flags      *notices.FlagStore
	meta       *UserMetaService
}

// NewNoticeService constructs a NoticeService.
func NewNoticeService(db *gorm.DB, configured *notices.StaticCatalog, flags *notices.FlagStore, meta *UserMetaService) (*NoticeService, error) {
	if db == nil {
		return nil, fmt.Errorf("notice service: db is required")
	}
	if flags == nil || meta == nil {
		return nil, fmt.Errorf("notice service: flag store and user meta service are required")
	}
	if configured == nil {
		configured = notices.NewStaticCatalog(nil)
	}
	return &NoticeService{db: db, configured: configured, flags: flags, meta: meta}, nil
}

// Create persists a new notice.
func (s *NoticeService) Create(ctx context.Context, input CreateNoticeInput) (*models.Notice, error) {
	ctx = ensureContext(ctx)
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	if err := validator.ValidateStruct(input); err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}
	if _, ok, _ := s.configured.Lookup(ctx, input.Slug); ok {
		return nil, ErrNoticeExists
	}

	record := &models.Notice{
		Slug:        input.Slug,
		Type:        input.Type,
		Message:     input.Message,
		Format:      input.Format,
		Class:       strings.TrimSpace(input.Class),
		Dismissible: input.Dismissible,
		Scope:       input.Scope,
		TTLSeconds:  input.TTLSeconds,
		Required:    input.Required,
		Hidden:      input.Hidden,
		Buttons:     datatypes.JSONSlice[models.NoticeButton](input.Buttons),
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrNoticeExists
		}
		return nil, fmt.Errorf("notice service: create notice: %w", err)
	}
	return record, nil
}

// List returns configured notices followed by persisted ones.
func (s *NoticeService) List(ctx context.Context) ([]NoticeView, error) {
	ctx = ensureContext(ctx)

	configured := s.configured.All()
	persisted, err := s.persisted(ctx, false)
	if err != nil {
		return nil, err
	}

	views := make([]NoticeView, 0, len(configured)+len(persisted))
	for _, n := range configured {
		views = append(views, NoticeView{Source: "config", Notice: n, TTLSeconds: int64(n.TTL / time.Second)})
	}
	for _, record := range persisted {
		n := toDomainNotice(record)
		views = append(views, NoticeView{ID: record.ID, Source: "api", Notice: n, TTLSeconds: record.TTLSeconds, Hidden: record.Hidden})
	}
	return views, nil
}

// Get loads a persisted notice by UUID or slug.
func (s *NoticeService) Get(ctx context.Context, idOrSlug string) (*models.Notice, error) {
	ctx = ensureContext(ctx)
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, apperrors.NewBadRequest("notice id is required")
	}

	var record models.Notice
	err := s.db.WithContext(ctx).
		Where("id = ? OR slug = ?", idOrSlug, strings.ToLower(idOrSlug)).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoticeNotFound
		}
		return nil, fmt.Errorf("notice service: load notice: %w", err)
	}
	return &record, nil
}

// Delete removes a persisted notice. Configured notices are read-only.
func (s *NoticeService) Delete(ctx context.Context, idOrSlug string) error {
	ctx = ensureContext(ctx)
	if _, ok, _ := s.configured.Lookup(ctx, idOrSlug); ok {
		return ErrNoticeReadOnly
	}

	record, err := s.Get(ctx, idOrSlug)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(record).Error; err != nil {
		return fmt.Errorf("notice service: delete notice: %w", err)
	}
	return nil
}

// Active returns every notice that should be offered to the renderer.
func (s *NoticeService) Active(ctx context.Context) ([]notices.Notice, error) {
	ctx = ensureContext(ctx)

	out := s.configured.All()
	persisted, err := s.persisted(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, record := range persisted {
		out = append(out, toDomainNotice(record))
	}
	return out, nil
}

// Lookup resolves a notice by id for the dismisser.
func (s *NoticeService) Lookup(ctx context.Context, id string) (notices.Notice, bool, error) {
	ctx = ensureContext(ctx)
	if n, ok, _ := s.configured.Lookup(ctx, id); ok {
		return n, true, nil
	}

	slug := notices.SanitizeID(id)
	if slug == "" {
		return notices.Notice{}, false, nil
	}

	var record models.Notice
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notices.Notice{}, false, nil
		}
		return notices.Notice{}, false, fmt.Errorf("notice service: lookup %q: %w", slug, err)
	}
	return toDomainNotice(record), true, nil
}

// ResetDismissals clears the shared flag and every per-user flag of a notice
// id so it is shown again. It returns the number of user flags removed.
func (s *NoticeService) ResetDismissals(ctx context.Context, id string) (int64, error) {
	ctx = ensureContext(ctx)
	key := notices.StorageKey(id)
	if key == "" {
		return 0, apperrors.NewBadRequest("notice id is required")
	}

	if err := s.flags.ClearShared(ctx, key); err != nil {
		return 0, fmt.Errorf("notice service: clear shared flag: %w", err)
	}
	removed, err := s.meta.DeleteMetaKey(ctx, key)
	if err != nil {
		return 0, err
	}

	logger.WithModule("notices").Info("dismissals reset",
		zap.String("key", key),
		zap.Int64("user_flags", removed),
	)
	return removed, nil
}

// PruneOrphanedFlags deletes per-user dismissal flags whose notice is no
// longer in the catalog. It returns the number of rows removed.
func (s *NoticeService) PruneOrphanedFlags(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	persisted, err := s.persisted(ctx, false)
	if err != nil {
		return 0, err
	}

	keep := make([]string, 0, len(persisted))
	for _, n := range s.configured.All() {
		keep = append(keep, n.Key())
	}
	for _, record := range persisted {
		keep = append(keep, notices.StorageKey(record.Slug))
	}

	removed, err := s.meta.DeleteMetaKeysWithPrefix(ctx, notices.KeyPrefix, keep)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.WithModule("notices").Info("orphaned dismissals pruned", zap.Int64("user_flags", removed))
	}
	return removed, nil
}

func (s *NoticeService) persisted(ctx context.Context, visibleOnly bool) ([]models.Notice, error) {
	query := s.db.WithContext(ctx).Order("created_at ASC")
	if visibleOnly {
		query = query.Where("hidden = ?", false)
	}

	var records []models.Notice
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("notice service: list notices: %w", err)
	}
	return records, nil
}

func toDomainNotice(record models.Notice) notices.Notice {
	n := notices.Notice{
		ID:          record.Slug,
		Type:        notices.Type(record.Type),
		Message:     record.Message,
		Format:      notices.Format(record.Format),
		Class:       record.Class,
		Dismissible: record.Dismissible,
		Scope:       notices.Scope(record.Scope),
		TTL:         time.Duration(record.TTLSeconds) * time.Second,
		Required:    record.Required,
	}
	for _, b := range record.Buttons {
		n.Buttons = append(n.Buttons, notices.Button{URL: b.URL, Label: b.Label})
	}
	return n
}
