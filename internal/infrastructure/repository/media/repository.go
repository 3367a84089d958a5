package media

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	domain "github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/database/entities"
	"github.com/tbnobed/tdmedia-sub001/internal/utils/platformerrors"
)

// Repository handles media asset persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, asset *domain.MediaAsset) error {
	entity := entities.MediaAsset{
		ID:            asset.ID,
		Title:         asset.Title,
		FileName:      asset.FileName,
		Tags:          pq.StringArray(asset.Tags),
		Kind:          string(asset.Kind),
		MimeType:      asset.MimeType,
		SizeBytes:     asset.SizeBytes,
		StorageKey:    asset.StorageKey,
		ThumbnailKey:  asset.ThumbnailKey,
		DurationLabel: asset.DurationLabel,
		UploadedBy:    asset.UploadedBy,
	}
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create media asset",
			err,
			"4f8a2c6e-9b1d-4e3a-8c5f-7a0b1c2d3e40",
		)
	}
	asset.CreatedAt = entity.CreatedAt
	asset.UpdatedAt = entity.UpdatedAt
	return nil
}

// GetByID returns the asset, or (nil, nil) when no row matches.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.MediaAsset, error) {
	var entity entities.MediaAsset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get media asset by id",
			err,
			"8d3e5f7a-1b2c-4d6e-9f0a-3b4c5d6e7f41",
		)
	}
	asset := mapEntity(entity)
	return &asset, nil
}

// UpdateDerived persists the artifacts produced by a derivation run.
func (r *Repository) UpdateDerived(ctx context.Context, id string, thumbnailKey *string, durationLabel *string) error {
	updates := map[string]any{
		"thumbnail_key":  thumbnailKey,
		"duration_label": durationLabel,
		"updated_at":     time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).Model(&entities.MediaAsset{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update derived artifacts",
			result.Error,
			"2a6b8c0d-3e4f-4a5b-8c7d-9e0f1a2b3c42",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"media asset not found",
			gorm.ErrRecordNotFound,
			"6c0d2e4f-5a6b-4c7d-8e9f-1a2b3c4d5e43",
		)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.MediaAsset{}).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete media asset",
			err,
			"0e4f6a8b-7c8d-4e9f-a0b1-5c6d7e8f9a44",
		)
	}
	return nil
}

func mapEntity(entity entities.MediaAsset) domain.MediaAsset {
	return domain.MediaAsset{
		ID:            entity.ID,
		Title:         entity.Title,
		FileName:      entity.FileName,
		Tags:          []string(entity.Tags),
		Kind:          domain.Kind(entity.Kind),
		MimeType:      entity.MimeType,
		SizeBytes:     entity.SizeBytes,
		StorageKey:    entity.StorageKey,
		ThumbnailKey:  entity.ThumbnailKey,
		DurationLabel: entity.DurationLabel,
		UploadedBy:    entity.UploadedBy,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
	}
}
