package responses

import (
	"fmt"
	"time"

	"github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
)

// MediaAssetResponse represents a catalog entry.
type MediaAssetResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	FileName      string    `json:"file_name"`
	Kind          string    `json:"kind"`
	Mime          string    `json:"mime"`
	Bytes         int64     `json:"bytes"`
	Tags          []string  `json:"tags,omitempty"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	DurationLabel string    `json:"duration_label,omitempty"`
	UploadedBy    string    `json:"uploaded_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BuildMediaAssetResponse creates response from domain object
func BuildMediaAssetResponse(asset *media.MediaAsset) *MediaAssetResponse {
	resp := &MediaAssetResponse{
		ID:         asset.ID,
		Title:      asset.Title,
		FileName:   asset.FileName,
		Kind:       string(asset.Kind),
		Mime:       asset.MimeType,
		Bytes:      asset.SizeBytes,
		Tags:       asset.Tags,
		UploadedBy: asset.UploadedBy,
		CreatedAt:  asset.CreatedAt,
		UpdatedAt:  asset.UpdatedAt,
	}
	if asset.ThumbnailKey != nil {
		resp.ThumbnailURL = fmt.Sprintf("/v1/media/%s/thumbnail", asset.ID)
	}
	if asset.DurationLabel != nil {
		resp.DurationLabel = *asset.DurationLabel
	}
	return resp
}

// StreamURLResponse contains a signed stream URL.
type StreamURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// BuildStreamURLResponse creates response from an issued grant
func BuildStreamURLResponse(grant streaming.Grant, ttl time.Duration) *StreamURLResponse {
	return &StreamURLResponse{
		URL:       grant.StreamPath(),
		ExpiresIn: int(ttl.Seconds()),
	}
}
