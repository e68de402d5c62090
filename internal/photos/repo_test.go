package photos

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
	"github.com/photostream-labs/photostream-backend/pkg/pagination"
)

func setupPhotosTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	photos := `
CREATE TABLE IF NOT EXISTS photos (
  id TEXT PRIMARY KEY,
  image_key TEXT NOT NULL UNIQUE,
  owner_id TEXT NOT NULL,
  owner_display_name TEXT NOT NULL,
  owner_avatar_key TEXT,
  created_at DATETIME
);`
	photoLikes := `
CREATE TABLE IF NOT EXISTS photo_likes (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  photo_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	likesUnique := `
CREATE UNIQUE INDEX IF NOT EXISTS photo_likes_photo_user_key
  ON photo_likes (photo_id, user_id);`
	require.NoError(t, db.Exec(photos).Error)
	require.NoError(t, db.Exec(photoLikes).Error)
	require.NoError(t, db.Exec(likesUnique).Error)
	return db
}

func insertPhoto(t *testing.T, db *gorm.DB, ownerID string, created time.Time) *models.Photo {
	t.Helper()

	photo := &models.Photo{
		ID:               uuid.New(),
		ImageKey:         fmt.Sprintf("photos/%s/img.jpg", uuid.NewString()),
		OwnerID:          ownerID,
		OwnerDisplayName: "User42",
		CreatedAt:        created,
	}
	require.NoError(t, db.Create(photo).Error)
	return photo
}

func TestRepoListPagePagesNewestFirst(t *testing.T) {
	db := setupPhotosTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seeded := make(map[uuid.UUID]bool, 25)
	for i := 0; i < 25; i++ {
		p := insertPhoto(t, db, "user-owner0001", base.Add(time.Duration(i)*time.Minute))
		seeded[p.ID] = true
	}

	first, err := repo.ListPage(ctx, nil, pagination.LimitWithBuffer(pagination.DefaultLimit))
	require.NoError(t, err)
	require.Len(t, first, pagination.DefaultLimit+1)

	page := first[:pagination.DefaultLimit]
	for i := 1; i < len(page); i++ {
		assert.True(t, page[i].CreatedAt.Before(page[i-1].CreatedAt), "rows must be newest first")
	}

	last := page[len(page)-1]
	encoded := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	cursor, err := pagination.ParseCursor(encoded)
	require.NoError(t, err)

	second, err := repo.ListPage(ctx, cursor, pagination.LimitWithBuffer(pagination.DefaultLimit))
	require.NoError(t, err)
	require.Len(t, second, 5)

	seen := make(map[uuid.UUID]bool, 25)
	for _, row := range append(page, second...) {
		assert.False(t, seen[row.ID], "photo %s returned twice", row.ID)
		assert.True(t, seeded[row.ID], "unexpected photo %s", row.ID)
		seen[row.ID] = true
	}
	assert.Len(t, seen, 25)
}

func TestRepoListPageBreaksTiesByID(t *testing.T) {
	db := setupPhotosTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	ids := make(map[uuid.UUID]bool, 3)
	for i := 0; i < 3; i++ {
		p := insertPhoto(t, db, "user-owner0001", created)
		ids[p.ID] = true
	}

	first, err := repo.ListPage(ctx, nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.True(t, first[0].ID.String() > first[1].ID.String(), "equal timestamps must order by id desc")
	assert.True(t, first[1].ID.String() > first[2].ID.String(), "equal timestamps must order by id desc")

	cursor := &pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	rest, err := repo.ListPage(ctx, cursor, 3)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, first[2].ID, rest[0].ID)
}

func TestRepoListByOwnerFiltersAndOrders(t *testing.T) {
	db := setupPhotosTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	older := insertPhoto(t, db, "user-owner0001", base)
	newer := insertPhoto(t, db, "user-owner0001", base.Add(time.Minute))
	insertPhoto(t, db, "user-other00001", base.Add(2*time.Minute))

	rows, err := repo.ListByOwner(ctx, "user-owner0001")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)
}

func TestRepoFindByImageKey(t *testing.T) {
	db := setupPhotosTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	photo := insertPhoto(t, db, "user-owner0001", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	found, err := repo.FindByImageKey(ctx, photo.ImageKey)
	require.NoError(t, err)
	assert.Equal(t, photo.ID, found.ID)

	_, err = repo.FindByImageKey(ctx, "photos/nope/missing.jpg")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepoInsertLikeIsIdempotent(t *testing.T) {
	db := setupPhotosTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	photo := insertPhoto(t, db, "user-owner0001", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	inserted, err := repo.InsertLike(ctx, photo.ID, "user-liker00001")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertLike(ctx, photo.ID, "user-liker00001")
	require.NoError(t, err)
	assert.False(t, inserted, "second like must hit the conflict clause")

	has, err := repo.HasLike(ctx, photo.ID, "user-liker00001")
	require.NoError(t, err)
	assert.True(t, has)

	count, err := repo.CountLikes(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deleted, err := repo.DeleteLike(ctx, photo.ID, "user-liker00001")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteLike(ctx, photo.ID, "user-liker00001")
	require.NoError(t, err)
	assert.False(t, deleted)

	count, err = repo.CountLikes(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRepoLikesForGroupsByPhoto(t *testing.T) {
	db := setupPhotosTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	first := insertPhoto(t, db, "user-owner0001", base)
	second := insertPhoto(t, db, "user-owner0001", base.Add(time.Minute))
	unliked := insertPhoto(t, db, "user-owner0001", base.Add(2*time.Minute))

	likes := []models.PhotoLike{
		{ID: uuid.New(), PhotoID: first.ID, UserID: "user-liker00001", CreatedAt: base},
		{ID: uuid.New(), PhotoID: first.ID, UserID: "user-liker00002", CreatedAt: base.Add(time.Second)},
		{ID: uuid.New(), PhotoID: second.ID, UserID: "user-liker00003", CreatedAt: base},
	}
	for i := range likes {
		require.NoError(t, db.Create(&likes[i]).Error)
	}

	got, err := repo.LikesFor(ctx, []uuid.UUID{first.ID, second.ID, unliked.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"user-liker00001", "user-liker00002"}, got[first.ID])
	assert.Equal(t, []string{"user-liker00003"}, got[second.ID])
	assert.NotContains(t, got, unliked.ID)
}

func TestRepoDeleteWithLikesRemovesBoth(t *testing.T) {
	db := setupPhotosTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	photo := insertPhoto(t, db, "user-owner0001", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	kept := insertPhoto(t, db, "user-owner0001", time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC))

	for _, liker := range []string{"user-liker00001", "user-liker00002"} {
		inserted, err := repo.InsertLike(ctx, photo.ID, liker)
		require.NoError(t, err)
		require.True(t, inserted)
	}
	inserted, err := repo.InsertLike(ctx, kept.ID, "user-liker00001")
	require.NoError(t, err)
	require.True(t, inserted)

	require.NoError(t, repo.DeleteWithLikes(ctx, photo.ID))

	_, err = repo.FindByID(ctx, photo.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repo.CountLikes(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = repo.CountLikes(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "other photos' likes must survive")
}
