package entities

import (
	"time"

	"github.com/lib/pq"
)

// MediaAsset represents the persisted catalog entry for one uploaded file.
type MediaAsset struct {
	ID            string         `gorm:"type:varchar(40);primaryKey"`
	Title         string         `gorm:"type:varchar(255);not null"`
	FileName      string         `gorm:"type:varchar(255);not null"`
	Tags          pq.StringArray `gorm:"type:text[]"`
	Kind          string         `gorm:"type:varchar(16);not null;index"`
	MimeType      string         `gorm:"type:varchar(64);not null"`
	SizeBytes     int64          `gorm:"not null"`
	StorageKey    string         `gorm:"type:varchar(255);not null"`
	ThumbnailKey  *string        `gorm:"type:varchar(255)"`
	DurationLabel *string        `gorm:"type:varchar(16)"`
	UploadedBy    string         `gorm:"type:varchar(64)"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
}

func (MediaAsset) TableName() string {
	return "media_assets"
}
