package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserMeta stores one JSON value per (user, key). Dismissed per-user notices
// live here, keyed by their storage key.
type UserMeta struct {
	UserID    string         `gorm:"primaryKey;size:64" json:"user_id"`
	MetaKey   string         `gorm:"primaryKey;size:191" json:"meta_key"`
	Value     datatypes.JSON `json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName keeps the singular table name used by the meta store.
func (UserMeta) TableName() string {
	return "user_meta"
}
