package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/photostream-labs/photostream-backend/pkg/db/models"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
)

const (
	defaultPendingRetention = 48 * time.Hour
	staleUploadBatchSize    = 500
)

// StaleUploadCleanupJobParams configure the stale upload sweep.
type StaleUploadCleanupJobParams struct {
	Logger    *logger.Logger
	Repo      staleUploadRepo
	Blobs     blobDeleter
	Bucket    string
	Retention time.Duration
}

type staleUploadRepo interface {
	ListStaleBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.PendingUpload, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type blobDeleter interface {
	DeleteObject(ctx context.Context, bucket, object string) error
}

// NewStaleUploadCleanupJob builds the job that removes presigned uploads that
// were never registered as photos, together with any blob the client did PUT.
func NewStaleUploadCleanupJob(params StaleUploadCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("uploads repository required")
	}
	if params.Blobs == nil {
		return nil, fmt.Errorf("blob deleter required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("blob bucket required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultPendingRetention
	}
	return &staleUploadCleanupJob{
		logg:      params.Logger,
		repo:      params.Repo,
		blobs:     params.Blobs,
		bucket:    params.Bucket,
		retention: retention,
		now:       time.Now,
	}, nil
}

type staleUploadCleanupJob struct {
	logg      *logger.Logger
	repo      staleUploadRepo
	blobs     blobDeleter
	bucket    string
	retention time.Duration
	now       func() time.Time
}

func (j *staleUploadCleanupJob) Name() string { return "stale-upload-cleanup" }

func (j *staleUploadCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)

	rows, err := j.repo.ListStaleBefore(ctx, cutoff, staleUploadBatchSize)
	if err != nil {
		return fmt.Errorf("query stale uploads: %w", err)
	}

	var (
		swept    int
		failures error
	)
	for _, row := range rows {
		// Blob first: a row that survives a failed blob delete is retried
		// next cycle, while a deleted row would orphan the blob for good.
		if err := j.blobs.DeleteObject(ctx, j.bucket, row.ImageKey); err != nil {
			failures = multierr.Append(failures, fmt.Errorf("delete blob %s: %w", row.ImageKey, err))
			continue
		}
		if err := j.repo.Delete(ctx, row.ID); err != nil {
			failures = multierr.Append(failures, fmt.Errorf("delete upload row %s: %w", row.ID, err))
			continue
		}
		swept++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(rows),
		"swept":      swept,
	})
	j.logg.Info(logCtx, "stale upload cleanup complete")

	if failures != nil {
		return fmt.Errorf("stale upload cleanup: %w", failures)
	}
	return nil
}
