package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/noticeboard/internal/models"
	apperrors "github.com/charlesng35/noticeboard/pkg/errors"
)

// UserMetaService persists per-user key/value pairs in the user_meta table.
type UserMetaService struct {
	db *gorm.DB
}

// NewUserMetaService constructs a UserMetaService.
func NewUserMetaService(db *gorm.DB) (*UserMetaService, error) {
	if db == nil {
		return nil, fmt.Errorf("user meta service: db is required")
	}
	return &UserMetaService{db: db}, nil
}

// GetUserMeta returns the stored value and whether it exists.
func (s *UserMetaService) GetUserMeta(ctx context.Context, userID, key string) ([]byte, bool, error) {
	ctx = ensureContext(ctx)
	userID, key = strings.TrimSpace(userID), strings.TrimSpace(key)
	if userID == "" || key == "" {
		return nil, false, apperrors.NewBadRequest("user id and meta key are required")
	}

	var row models.UserMeta
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND meta_key = ?", userID, key).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("user meta service: load %q: %w", key, err)
	}
	return []byte(row.Value), true, nil
}

// SetUserMeta upserts the value. Values that are not valid JSON are stored as
// JSON strings.
func (s *UserMetaService) SetUserMeta(ctx context.Context, userID, key string, value []byte) error {
	ctx = ensureContext(ctx)
	userID, key = strings.TrimSpace(userID), strings.TrimSpace(key)
	if userID == "" || key == "" {
		return apperrors.NewBadRequest("user id and meta key are required")
	}

	if !json.Valid(value) {
		encoded, err := json.Marshal(string(value))
		if err != nil {
			return fmt.Errorf("user meta service: encode %q: %w", key, err)
		}
		value = encoded
	}

	now := time.Now().UTC()
	row := models.UserMeta{
		UserID:    userID,
		MetaKey:   key,
		Value:     datatypes.JSON(value),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "meta_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("user meta service: store %q: %w", key, err)
	}
	return nil
}

// DeleteMetaKey removes key for every user and returns the number of rows deleted.
func (s *UserMetaService) DeleteMetaKey(ctx context.Context, key string) (int64, error) {
	ctx = ensureContext(ctx)
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, apperrors.NewBadRequest("meta key is required")
	}

	result := s.db.WithContext(ctx).Where("meta_key = ?", key).Delete(&models.UserMeta{})
	if result.Error != nil {
		return 0, fmt.Errorf("user meta service: delete key %q: %w", key, result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteMetaKeysWithPrefix removes every row whose key starts with prefix and
// is not listed in keep. It returns the number of rows deleted. The prefix is
// matched with LIKE and must not contain wildcards.
func (s *UserMetaService) DeleteMetaKeysWithPrefix(ctx context.Context, prefix string, keep []string) (int64, error) {
	ctx = ensureContext(ctx)
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || strings.ContainsAny(prefix, "%_") {
		return 0, apperrors.NewBadRequest("meta key prefix is required")
	}

	query := s.db.WithContext(ctx).Where("meta_key LIKE ?", prefix+"%")
	if len(keep) > 0 {
		query = query.Where("meta_key NOT IN ?", keep)
	}
	result := query.Delete(&models.UserMeta{})
	if result.Error != nil {
		return 0, fmt.Errorf("user meta service: delete prefix %q: %w", prefix, result.Error)
	}
	return result.RowsAffected, nil
}
