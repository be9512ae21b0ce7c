package models

import (
	"time"

	"dompet/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. UpdatedAt stays nil until the
// first mutation after creation, so GORM's automatic update timestamp is off.
type Base struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// Touch stamps the record as modified at now.
func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = &now
}
