package uploads

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/photostream-labs/photostream-backend/pkg/db/models"
)

func setupUploadsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	pendingUploads := `
CREATE TABLE IF NOT EXISTS pending_uploads (
  id TEXT PRIMARY KEY,
  image_key TEXT NOT NULL UNIQUE,
  owner_id TEXT NOT NULL,
  file_name TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  size_bytes INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(pendingUploads).Error)
	return db
}

func insertPendingUpload(t *testing.T, db *gorm.DB, created time.Time) *models.PendingUpload {
	t.Helper()

	upload := &models.PendingUpload{
		ID:        uuid.New(),
		ImageKey:  fmt.Sprintf("photos/%s/img.jpg", uuid.NewString()),
		OwnerID:   "user-owner0001",
		FileName:  "img.jpg",
		MimeType:  "image/jpeg",
		SizeBytes: 1024,
		CreatedAt: created,
	}
	require.NoError(t, db.Create(upload).Error)
	return upload
}

func TestRepoConsumeByImageKeyDeletesOnce(t *testing.T) {
	db := setupUploadsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	upload := insertPendingUpload(t, db, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	found, err := repo.FindByImageKey(ctx, upload.ImageKey)
	require.NoError(t, err)
	assert.Equal(t, upload.ID, found.ID)

	consumed, err := repo.ConsumeByImageKey(ctx, upload.ImageKey)
	require.NoError(t, err)
	assert.True(t, consumed)

	consumed, err = repo.ConsumeByImageKey(ctx, upload.ImageKey)
	require.NoError(t, err)
	assert.False(t, consumed, "a key must register at most once")

	_, err = repo.FindByImageKey(ctx, upload.ImageKey)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepoListStaleBefore(t *testing.T) {
	db := setupUploadsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	oldest := insertPendingUpload(t, db, now.Add(-3*time.Hour))
	middle := insertPendingUpload(t, db, now.Add(-2*time.Hour))
	newest := insertPendingUpload(t, db, now.Add(-time.Hour))
	insertPendingUpload(t, db, now.Add(-time.Minute))

	cutoff := now.Add(-30 * time.Minute)

	limited, err := repo.ListStaleBefore(ctx, cutoff, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, oldest.ID, limited[0].ID, "oldest row comes first")
	assert.Equal(t, middle.ID, limited[1].ID)

	all, err := repo.ListStaleBefore(ctx, cutoff, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[2].ID)
}

func TestRepoDeleteRemovesRow(t *testing.T) {
	db := setupUploadsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	upload := insertPendingUpload(t, db, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Delete(ctx, upload.ID))

	_, err := repo.FindByImageKey(ctx, upload.ImageKey)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
