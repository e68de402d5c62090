package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/photostream-labs/photostream-backend/pkg/db/models"
	pkgerrors "github.com/photostream-labs/photostream-backend/pkg/errors"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
	"github.com/photostream-labs/photostream-backend/pkg/pagination"
)

const urlResolveConcurrency = 8

type photosRepository interface {
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	ListPage(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Photo, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Photo, error)
	InsertLike(ctx context.Context, photoID uuid.UUID, userID string) (bool, error)
	DeleteLike(ctx context.Context, photoID uuid.UUID, userID string) (bool, error)
	LikesFor(ctx context.Context, photoIDs []uuid.UUID) (map[uuid.UUID][]string, error)
	CountLikes(ctx context.Context, photoID uuid.UUID) (int, error)
	DeleteWithLikes(ctx context.Context, id uuid.UUID) error
}

type pendingUploadsRepository interface {
	FindByImageKey(ctx context.Context, imageKey string) (*models.PendingUpload, error)
	ConsumeByImageKey(ctx context.Context, imageKey string) (bool, error)
}

type blobStore interface {
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Service exposes the photo feed semantics.
type Service interface {
	Create(ctx context.Context, ownerID string, input CreateInput) (*PhotoDTO, error)
	ListAll(ctx context.Context, params pagination.Params) (*ListResult, error)
	ListByOwner(ctx context.Context, ownerID string) ([]PhotoDTO, error)
	ToggleLike(ctx context.Context, userID string, photoID uuid.UUID) (*ToggleLikeResult, error)
	Delete(ctx context.Context, userID string, photoID uuid.UUID) error
}

type service struct {
	repo        photosRepository
	uploads     pendingUploadsRepository
	blobs       blobStore
	cache       *FeedCache
	logg        *logger.Logger
	bucket      string
	downloadTTL time.Duration
}

// NewService constructs a photos service backed by the provided repositories and blob store.
func NewService(repo photosRepository, uploads pendingUploadsRepository, blobs blobStore, cache *FeedCache, logg *logger.Logger, bucket string, downloadTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("photos repository required")
	}
	if uploads == nil {
		return nil, fmt.Errorf("uploads repository required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("blob bucket required")
	}
	if downloadTTL <= 0 {
		return nil, fmt.Errorf("download ttl must be positive")
	}
	return &service{
		repo:        repo,
		uploads:     uploads,
		blobs:       blobs,
		cache:       cache,
		logg:        logg,
		bucket:      bucket,
		downloadTTL: downloadTTL,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID string, input CreateInput) (*PhotoDTO, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	imageKey := strings.TrimSpace(input.ImageKey)
	if imageKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image_key is required")
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name is required")
	}

	pending, err := s.uploads.FindByImageKey(ctx, imageKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "image_key does not match a pending upload")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up pending upload")
	}
	if pending.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "upload belongs to another user")
	}

	consumed, err := s.uploads.ConsumeByImageKey(ctx, imageKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume pending upload")
	}
	if !consumed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "upload already registered")
	}

	photo := &models.Photo{
		ID:               uuid.New(),
		ImageKey:         imageKey,
		OwnerID:          ownerID,
		OwnerDisplayName: displayName,
	}
	if avatarKey := strings.TrimSpace(input.AvatarKey); avatarKey != "" {
		photo.OwnerAvatarKey = &avatarKey
	}

	if _, err := s.repo.Create(ctx, photo); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist photo")
	}

	s.cache.Invalidate(ctx)

	dto, err := s.toDTO(*photo, nil)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*ListResult, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursorValue := strings.TrimSpace(params.Cursor)

	firstPage := cursorValue == "" && limit == pagination.DefaultLimit
	if firstPage {
		if cached := s.cache.GetFirstPage(ctx); cached != nil {
			return cached, nil
		}
	}

	cursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListPage(ctx, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos")
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	items, err := s.resolvePage(ctx, rows)
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if hasMore {
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	result := &ListResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}
	if firstPage {
		s.cache.SetFirstPage(ctx, result)
	}
	return result, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID string) ([]PhotoDTO, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos by owner")
	}
	return s.resolvePage(ctx, rows)
}

func (s *service) ToggleLike(ctx context.Context, userID string, photoID uuid.UUID) (*ToggleLikeResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if photoID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo id required")
	}

	if _, err := s.repo.FindByID(ctx, photoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find photo")
	}

	inserted, err := s.repo.InsertLike(ctx, photoID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert like")
	}
	liked := inserted
	if !inserted {
		if _, err := s.repo.DeleteLike(ctx, photoID, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete like")
		}
		liked = false
	}

	count, err := s.repo.CountLikes(ctx, photoID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count likes")
	}

	s.cache.Invalidate(ctx)

	return &ToggleLikeResult{Liked: liked, LikeCount: count}, nil
}

func (s *service) Delete(ctx context.Context, userID string, photoID uuid.UUID) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if photoID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "photo id required")
	}

	photo, err := s.repo.FindByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find photo")
	}
	if photo.OwnerID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "photo belongs to another user")
	}

	// Blob release is best effort: the record goes away regardless, and the
	// stale-upload sweep reconciles blobs that outlive their rows.
	if err := s.blobs.DeleteObject(ctx, s.bucket, photo.ImageKey); err != nil {
		s.logg.Warn(s.logg.WithPhotoID(ctx, photo.ID.String()), "blob delete failed: "+err.Error())
	}

	if err := s.repo.DeleteWithLikes(ctx, photoID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete photo")
	}

	s.cache.Invalidate(ctx)
	return nil
}

// resolvePage hydrates DB rows into card DTOs: one batched likes query, then
// signed read URLs resolved concurrently.
func (s *service) resolvePage(ctx context.Context, rows []models.Photo) ([]PhotoDTO, error) {
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	likes, err := s.repo.LikesFor(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load likes")
	}

	items := make([]PhotoDTO, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(urlResolveConcurrency)
	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dto, err := s.toDTO(row, likes[row.ID])
			if err != nil {
				return err
			}
			items[i] = dto
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *service) toDTO(photo models.Photo, likes []string) (PhotoDTO, error) {
	url, err := s.blobs.SignedReadURL(s.bucket, photo.ImageKey, s.downloadTTL)
	if err != nil {
		return PhotoDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate signed read url")
	}
	avatarURL := ""
	if photo.OwnerAvatarKey != nil && *photo.OwnerAvatarKey != "" {
		avatarURL, err = s.blobs.SignedReadURL(s.bucket, *photo.OwnerAvatarKey, s.downloadTTL)
		if err != nil {
			return PhotoDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate avatar read url")
		}
	}
	if likes == nil {
		likes = []string{}
	}
	return PhotoDTO{
		ID:               photo.ID,
		URL:              url,
		OwnerID:          photo.OwnerID,
		OwnerDisplayName: photo.OwnerDisplayName,
		OwnerAvatarURL:   avatarURL,
		CreatedAt:        photo.CreatedAt,
		Likes:            likes,
		LikeCount:        len(likes),
	}, nil
}
