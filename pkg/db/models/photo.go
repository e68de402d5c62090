package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo is the sole content entity: one uploaded image plus its owner snapshot.
// Owner fields are captured at upload time and never updated afterwards.
type Photo struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ImageKey         string    `gorm:"column:image_key;not null;unique"`
	OwnerID          string    `gorm:"column:owner_id;not null;index:photos_owner_id_idx"`
	OwnerDisplayName string    `gorm:"column:owner_display_name;not null"`
	OwnerAvatarKey   *string   `gorm:"column:owner_avatar_key"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime;index:photos_created_at_idx"`
}
