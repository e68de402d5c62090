package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingUpload tracks a presigned blob write target that has not yet been
// registered as a Photo. Rows are consumed on registration; stale rows are
// swept by the cron worker along with their orphaned blobs.
type PendingUpload struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ImageKey  string    `gorm:"column:image_key;not null;unique"`
	OwnerID   string    `gorm:"column:owner_id;not null"`
	FileName  string    `gorm:"column:file_name;not null"`
	MimeType  string    `gorm:"column:mime_type;not null"`
	SizeBytes int64     `gorm:"column:size_bytes;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:pending_uploads_created_at_idx"`
}
