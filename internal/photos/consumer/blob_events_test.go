package consumer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/photostream-labs/photostream-backend/pkg/db/models"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
)

type stubPhotosRepo struct {
	photo     *models.Photo
	findErr   error
	deleted   []uuid.UUID
	deleteErr error
}

func (s *stubPhotosRepo) FindByImageKey(ctx context.Context, imageKey string) (*models.Photo, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.photo, nil
}

func (s *stubPhotosRepo) DeleteWithLikes(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return s.deleteErr
}

type stubUploadsRepo struct {
	pending *models.PendingUpload
	findErr error
	deleted []uuid.UUID
}

func (s *stubUploadsRepo) FindByImageKey(ctx context.Context, imageKey string) (*models.PendingUpload, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.pending, nil
}

func (s *stubUploadsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type countingCache struct {
	invalidations int
}

func (c *countingCache) Invalidate(ctx context.Context) {
	c.invalidations++
}

func encodePayload(payload gcsPayload) []byte {
	data, _ := json.Marshal(payload)
	return []byte(base64.StdEncoding.EncodeToString(data))
}

func buildMessage(name string) *pubsub.Message {
	return &pubsub.Message{
		Attributes: map[string]string{
			"eventType":     objectDeleteEvent,
			"payloadFormat": payloadFormatJSONAPI,
		},
		Data: encodePayload(gcsPayload{Name: name, Bucket: "photostream-media"}),
	}
}

func newTestConsumer(t *testing.T, photos *stubPhotosRepo, uploads *stubUploadsRepo, cache *countingCache) *BlobEventsConsumer {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	c, err := NewBlobEventsConsumer(photos, uploads, cache, &pubsub.Subscriber{}, logg)
	if err != nil {
		t.Fatalf("NewBlobEventsConsumer: %v", err)
	}
	return c
}

func TestProcessRemovesPhotoForDeletedBlob(t *testing.T) {
	t.Parallel()

	photoID := uuid.New()
	photos := &stubPhotosRepo{photo: &models.Photo{ID: photoID, ImageKey: "photos/x/img.png"}}
	uploads := &stubUploadsRepo{findErr: gorm.ErrRecordNotFound}
	cache := &countingCache{}
	c := newTestConsumer(t, photos, uploads, cache)

	res := c.process(context.Background(), buildMessage("photos/x/img.png"))
	if !res.ack || res.nack {
		t.Fatalf("expected ack, got %+v", res)
	}
	if len(photos.deleted) != 1 || photos.deleted[0] != photoID {
		t.Fatalf("expected photo %s deleted, got %v", photoID, photos.deleted)
	}
	if cache.invalidations != 1 {
		t.Fatalf("expected one cache invalidation, got %d", cache.invalidations)
	}
}

func TestProcessRemovesPendingUploadForDeletedBlob(t *testing.T) {
	t.Parallel()

	uploadID := uuid.New()
	photos := &stubPhotosRepo{findErr: gorm.ErrRecordNotFound}
	uploads := &stubUploadsRepo{pending: &models.PendingUpload{ID: uploadID, ImageKey: "photos/y/img.png"}}
	c := newTestConsumer(t, photos, uploads, &countingCache{})

	res := c.process(context.Background(), buildMessage("photos/y/img.png"))
	if !res.ack {
		t.Fatalf("expected ack, got %+v", res)
	}
	if len(uploads.deleted) != 1 || uploads.deleted[0] != uploadID {
		t.Fatalf("expected pending upload %s deleted, got %v", uploadID, uploads.deleted)
	}
}

func TestProcessAcksWhenNothingMatches(t *testing.T) {
	t.Parallel()

	photos := &stubPhotosRepo{findErr: gorm.ErrRecordNotFound}
	uploads := &stubUploadsRepo{findErr: gorm.ErrRecordNotFound}
	c := newTestConsumer(t, photos, uploads, &countingCache{})

	res := c.process(context.Background(), buildMessage("photos/z/img.png"))
	if !res.ack || res.nack {
		t.Fatalf("expected ack for unmatched blob, got %+v", res)
	}
}

func TestProcessSkipsNonDeleteEvents(t *testing.T) {
	t.Parallel()

	photos := &stubPhotosRepo{photo: &models.Photo{ID: uuid.New()}}
	uploads := &stubUploadsRepo{}
	c := newTestConsumer(t, photos, uploads, &countingCache{})

	msg := buildMessage("photos/x/img.png")
	msg.Attributes["eventType"] = "OBJECT_FINALIZE"
	res := c.process(context.Background(), msg)
	if !res.ack {
		t.Fatalf("expected ack for skipped event, got %+v", res)
	}
	if len(photos.deleted) != 0 {
		t.Fatal("non-delete event must not remove photos")
	}
}

func TestProcessAcksMalformedPayload(t *testing.T) {
	t.Parallel()

	photos := &stubPhotosRepo{}
	uploads := &stubUploadsRepo{}
	c := newTestConsumer(t, photos, uploads, &countingCache{})

	msg := &pubsub.Message{
		Attributes: map[string]string{
			"eventType":     objectDeleteEvent,
			"payloadFormat": payloadFormatJSONAPI,
		},
		Data: []byte(base64.StdEncoding.EncodeToString([]byte("{not json"))),
	}
	res := c.process(context.Background(), msg)
	if !res.ack || res.nack {
		t.Fatalf("expected ack for malformed payload, got %+v", res)
	}
}

func TestProcessNacksTransientDBError(t *testing.T) {
	t.Parallel()

	photos := &stubPhotosRepo{findErr: context.DeadlineExceeded}
	uploads := &stubUploadsRepo{}
	c := newTestConsumer(t, photos, uploads, &countingCache{})

	res := c.process(context.Background(), buildMessage("photos/x/img.png"))
	if !res.nack {
		t.Fatalf("expected nack for transient db error, got %+v", res)
	}
}
