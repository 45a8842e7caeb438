package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NoticeButton is an action link attached to a persisted notice.
type NoticeButton struct {
	URL   string `json:"url" validate:"required,max=2048"`
	Label string `json:"label" validate:"required,max=128"`
}

// Notice is a catalog entry created through the admin API. Slug is the
// notice id used to build the storage key of its dismissed flag.
type Notice struct {
	ID          string                            `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt   time.Time                         `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time                         `json:"updated_at"`
	Slug        string                            `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	Type        string                            `gorm:"size:16;not null" json:"type"`
	Message     string                            `gorm:"type:text" json:"message"`
	Format      string                            `gorm:"size:16" json:"format"`
	Class       string                            `gorm:"size:128" json:"class,omitempty"`
	Dismissible bool                              `json:"dismissible"`
	Scope       string                            `gorm:"size:16" json:"scope"`
	TTLSeconds  int64                             `json:"ttl_seconds"`
	Required    bool                              `json:"required"`
	Hidden      bool                              `json:"hidden"`
	Buttons     datatypes.JSONSlice[NoticeButton] `json:"buttons,omitempty"`
}

// BeforeCreate assigns a UUID unless the caller supplied one.
func (n *Notice) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
