package uploads

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/photostream-labs/photostream-backend/pkg/db/models"
	pkgerrors "github.com/photostream-labs/photostream-backend/pkg/errors"
)

type uploadsRepository interface {
	Create(ctx context.Context, upload *models.PendingUpload) (*models.PendingUpload, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type blobSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
}

// Service exposes upload-presign semantics.
type Service interface {
	Presign(ctx context.Context, ownerID string, input PresignInput) (*PresignOutput, error)
}

type service struct {
	repo           uploadsRepository
	signer         blobSigner
	bucket         string
	uploadTTL      time.Duration
	maxUploadBytes int64
}

// NewService constructs an uploads service backed by the provided repository and blob signer.
func NewService(repo uploadsRepository, signer blobSigner, bucket string, uploadTTL time.Duration, maxUploadBytes int64) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("uploads repository required")
	}
	if signer == nil {
		return nil, fmt.Errorf("blob signer required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("blob bucket required")
	}
	if uploadTTL <= 0 {
		return nil, fmt.Errorf("upload ttl must be positive")
	}
	if maxUploadBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	return &service{
		repo:           repo,
		signer:         signer,
		bucket:         bucket,
		uploadTTL:      uploadTTL,
		maxUploadBytes: maxUploadBytes,
	}, nil
}

// PresignInput models the payload required to request an upload URL.
type PresignInput struct {
	MimeType  string
	FileName  string
	SizeBytes int64
}

// PresignOutput contains the write target returned to the client. The client
// PUTs the bytes to SignedPUTURL and then registers ImageKey as a photo.
type PresignOutput struct {
	UploadID     uuid.UUID `json:"upload_id"`
	ImageKey     string    `json:"image_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *service) Presign(ctx context.Context, ownerID string, input PresignInput) (*PresignOutput, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}

	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be <= %d bytes", s.maxUploadBytes))
	}

	mimeType := strings.ToLower(strings.TrimSpace(input.MimeType))
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type must be an image type")
	}

	uploadID := uuid.New()
	imageKey := buildImageKey(uploadID, fileName)

	row := &models.PendingUpload{
		ID:        uploadID,
		ImageKey:  imageKey,
		OwnerID:   ownerID,
		FileName:  fileName,
		MimeType:  mimeType,
		SizeBytes: input.SizeBytes,
	}

	if _, err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist pending upload")
	}

	expiresAt := time.Now().Add(s.uploadTTL)
	signedURL, err := s.signer.SignedURL(s.bucket, imageKey, mimeType, s.uploadTTL)
	if err != nil {
		_ = s.repo.Delete(ctx, uploadID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		UploadID:     uploadID,
		ImageKey:     imageKey,
		SignedPUTURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    expiresAt,
	}, nil
}

func buildImageKey(id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("photos/%s/%s", id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
