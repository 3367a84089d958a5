package media

import (
	"fmt"
	"io"
	"time"
)

// MediaAsset represents stored media metadata. ThumbnailKey and DurationLabel
// stay nil until the derivation worker has run; both are replaced atomically
// when derivation finishes.
type MediaAsset struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	FileName      string    `json:"file_name"`
	Kind          Kind      `json:"kind"`
	MimeType      string    `json:"mime"`
	SizeBytes     int64     `json:"bytes"`
	StorageKey    string    `json:"storage_key"`
	ThumbnailKey  *string   `json:"thumbnail_key,omitempty"`
	DurationLabel *string   `json:"duration_label,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	UploadedBy    string    `json:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IngestRequest carries one upload into the service.
type IngestRequest struct {
	FileName     string
	Title        string
	DeclaredKind Kind
	Tags         []string
	RequesterID  string
	Size         int64
	Content      io.Reader
}

// ThumbnailPrefix returns the listing prefix that matches every thumbnail
// ever written for the asset. The trailing separator keeps one id from
// matching another id's artifacts.
func ThumbnailPrefix(mediaID string) string {
	return "thumbnails/thumb_" + mediaID + "_"
}

// NewThumbnailKey returns a fresh, timestamped thumbnail key for the asset.
func NewThumbnailKey(mediaID string, ext string) string {
	return fmt.Sprintf("%s%d%s", ThumbnailPrefix(mediaID), time.Now().UnixMilli(), ext)
}

// PrimaryKey returns the deterministic storage key for an asset's original
// file: kind prefix, asset id, original extension.
func PrimaryKey(mediaID string, kind Kind, filename string) string {
	ext := NormalizedExt(filename)
	if ext == "" {
		return kind.StoragePrefix() + mediaID
	}
	return kind.StoragePrefix() + mediaID + "." + ext
}
