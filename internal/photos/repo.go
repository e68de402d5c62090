package photos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/photostream-labs/photostream-backend/pkg/db/models"
	"github.com/photostream-labs/photostream-backend/pkg/pagination"
)

// Repository exposes photo and like persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a photos repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a photo record.
func (r *Repository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return nil, err
	}
	return photo, nil
}

// FindByID retrieves a photo by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	var p models.Photo
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByImageKey retrieves the photo backed by the given blob key.
func (r *Repository) FindByImageKey(ctx context.Context, imageKey string) (*models.Photo, error) {
	var p models.Photo
	if err := r.db.WithContext(ctx).First(&p, "image_key = ?", imageKey).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPage returns up to limit photos newest first, starting after the cursor.
// Callers pass a limit one beyond the page size to detect whether more rows exist.
func (r *Repository) ListPage(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Photo, error) {
	q := r.db.WithContext(ctx).Model(&models.Photo{})
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Photo
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByOwner returns every photo for one owner, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]models.Photo, error) {
	var rows []models.Photo
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertLike adds the user's like if absent and reports whether a row was inserted.
func (r *Repository) InsertLike(ctx context.Context, photoID uuid.UUID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Exec(`INSERT INTO photo_likes (photo_id, user_id) VALUES (?, ?) ON CONFLICT (photo_id, user_id) DO NOTHING`, photoID, userID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteLike removes the user's like if present and reports whether a row was deleted.
func (r *Repository) DeleteLike(ctx context.Context, photoID uuid.UUID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("photo_id = ? AND user_id = ?", photoID, userID).
		Delete(&models.PhotoLike{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// HasLike reports whether the user currently likes the photo.
func (r *Repository) HasLike(ctx context.Context, photoID uuid.UUID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PhotoLike{}).
		Where("photo_id = ? AND user_id = ?", photoID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LikesFor returns the liker ids for each of the given photos in one query,
// ordered oldest like first within a photo.
func (r *Repository) LikesFor(ctx context.Context, photoIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	likes := make(map[uuid.UUID][]string, len(photoIDs))
	if len(photoIDs) == 0 {
		return likes, nil
	}
	var rows []models.PhotoLike
	err := r.db.WithContext(ctx).
		Where("photo_id IN ?", photoIDs).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		likes[row.PhotoID] = append(likes[row.PhotoID], row.UserID)
	}
	return likes, nil
}

// CountLikes returns the like total for one photo.
func (r *Repository) CountLikes(ctx context.Context, photoID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PhotoLike{}).
		Where("photo_id = ?", photoID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// DeleteWithLikes removes the photo and its likes in one transaction.
func (r *Repository) DeleteWithLikes(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", id).Delete(&models.PhotoLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Photo{}).Error
	})
}
