package models

import (
	"time"

	"github.com/google/uuid"
)

// PhotoLike records one user's like on one photo. The unique index is what
// keeps the liked-by set free of duplicates.
type PhotoLike struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PhotoID   uuid.UUID `gorm:"column:photo_id;type:uuid;not null;index:photo_likes_photo_id_idx;uniqueIndex:photo_likes_photo_user_key"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:photo_likes_photo_user_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
