package uploads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/photostream-labs/photostream-backend/pkg/db/models"
)

// Repository exposes pending upload persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an uploads repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a pending upload record.
func (r *Repository) Create(ctx context.Context, upload *models.PendingUpload) (*models.PendingUpload, error) {
	if err := r.db.WithContext(ctx).Create(upload).Error; err != nil {
		return nil, err
	}
	return upload, nil
}

// FindByImageKey retrieves a pending upload by its blob key.
func (r *Repository) FindByImageKey(ctx context.Context, imageKey string) (*models.PendingUpload, error) {
	var u models.PendingUpload
	if err := r.db.WithContext(ctx).First(&u, "image_key = ?", imageKey).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ConsumeByImageKey deletes the pending upload for the given blob key and
// reports whether a row existed. Registration uses this so that a key can be
// turned into a photo at most once.
func (r *Repository) ConsumeByImageKey(ctx context.Context, imageKey string) (bool, error) {
	res := r.db.WithContext(ctx).Where("image_key = ?", imageKey).Delete(&models.PendingUpload{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListStaleBefore returns pending uploads created before the cutoff, oldest first.
func (r *Repository) ListStaleBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.PendingUpload, error) {
	var rows []models.PendingUpload
	q := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes a pending upload record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PendingUpload{}).Error
}
