// Package consumer reconciles out-of-band blob deletions. When an object
// vanishes from the bucket, the matching photo or pending upload row is
// removed so the feed never serves dead links.
package consumer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/photostream-labs/photostream-backend/pkg/db/models"
	"github.com/photostream-labs/photostream-backend/pkg/logger"
)

const (
	objectDeleteEvent    = "OBJECT_DELETE"
	payloadFormatJSONAPI = "JSON_API_V1"
)

type photosRepository interface {
	FindByImageKey(ctx context.Context, imageKey string) (*models.Photo, error)
	DeleteWithLikes(ctx context.Context, id uuid.UUID) error
}

type pendingUploadsRepository interface {
	FindByImageKey(ctx context.Context, imageKey string) (*models.PendingUpload, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// BlobEventsConsumer watches Pub/Sub for GCS OBJECT_DELETE notifications.
type BlobEventsConsumer struct {
	photos       photosRepository
	uploads      pendingUploadsRepository
	cache        cacheInvalidator
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewBlobEventsConsumer wires the dependencies required for blob reconciliation.
func NewBlobEventsConsumer(photos photosRepository, uploads pendingUploadsRepository, cache cacheInvalidator, subscription *pubsub.Subscriber, logg *logger.Logger) (*BlobEventsConsumer, error) {
	if photos == nil {
		return nil, errors.New("photos repository is required")
	}
	if uploads == nil {
		return nil, errors.New("uploads repository is required")
	}
	if subscription == nil {
		return nil, errors.New("blob events subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &BlobEventsConsumer{
		photos:       photos,
		uploads:      uploads,
		cache:        cache,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes deletion notifications until the context is canceled.
func (c *BlobEventsConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *BlobEventsConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	attrs := parseAttributes(msg.Attributes)
	fields := c.buildLogFields(msg.ID, attrs, nil)
	logCtx := c.logg.WithFields(ctx, fields)

	if attrs.EventType != objectDeleteEvent {
		c.logg.Info(logCtx, "skipping non-delete event")
		return processResult{ack: true}
	}
	if attrs.PayloadFormat != payloadFormatJSONAPI {
		c.logg.Warn(logCtx, "unsupported payload format")
		return processResult{ack: true}
	}

	payload, err := decodePayload(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		return processResult{ack: true}
	}

	var gcs gcsPayload
	if err := json.Unmarshal(payload, &gcs); err != nil {
		fields = c.buildLogFields(msg.ID, attrs, nil)
		fields["payload_preview"] = previewBytes(payload, 800)
		fields["payload_len"] = len(payload)
		logCtx = c.logg.WithFields(ctx, fields)
		c.logg.Error(logCtx, "failed to unmarshal payload", err)
		return processResult{ack: true}
	}

	if strings.TrimSpace(gcs.Name) == "" {
		fields = c.buildLogFields(msg.ID, attrs, &gcs)
		logCtx = c.logg.WithFields(ctx, fields)
		c.logg.Error(logCtx, "payload missing gcs object name", fmt.Errorf("empty name"))
		return processResult{ack: true}
	}

	fields = c.buildLogFields(msg.ID, attrs, &gcs)
	logCtx = c.logg.WithFields(ctx, fields)

	photo, err := c.photos.FindByImageKey(logCtx, gcs.Name)
	if err == nil {
		if err := c.photos.DeleteWithLikes(ctx, photo.ID); err != nil {
			return c.handleDBError(logCtx, err)
		}
		if c.cache != nil {
			c.cache.Invalidate(ctx)
		}
		logCtx = c.logg.WithFields(logCtx, map[string]any{"photo_id": photo.ID.String()})
		c.logg.Info(logCtx, "removed photo for deleted blob")
		return processResult{ack: true}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.handleDBError(logCtx, err)
	}

	pending, err := c.uploads.FindByImageKey(logCtx, gcs.Name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.logg.Info(logCtx, "no record for deleted blob")
			return processResult{ack: true}
		}
		return c.handleDBError(logCtx, err)
	}
	if err := c.uploads.Delete(ctx, pending.ID); err != nil {
		return c.handleDBError(logCtx, err)
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{"upload_id": pending.ID.String()})
	c.logg.Info(logCtx, "removed pending upload for deleted blob")
	return processResult{ack: true}
}

func (c *BlobEventsConsumer) handleDBError(ctx context.Context, err error) processResult {
	c.logg.Error(ctx, "blob reconciliation db error", err)
	if isTransientDBError(err) {
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *BlobEventsConsumer) buildLogFields(messageID string, attrs gcsAttributes, payload *gcsPayload) map[string]any {
	fields := map[string]any{
		"message_id": messageID,
		"event_type": attrs.EventType,
		"bucket":     firstNonEmpty(attrs.BucketID, gcsBucket(payload)),
	}
	if payload != nil {
		fields["image_key"] = payload.Name
	}
	return fields
}

func gcsBucket(p *gcsPayload) string {
	if p == nil {
		return ""
	}
	return p.Bucket
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseAttributes(attrs map[string]string) gcsAttributes {
	return gcsAttributes{
		EventType:     attrs["eventType"],
		BucketID:      attrs["bucketId"],
		ObjectID:      attrs["objectId"],
		PayloadFormat: attrs["payloadFormat"],
	}
}

type gcsAttributes struct {
	EventType     string
	BucketID      string
	ObjectID      string
	PayloadFormat string
}

type gcsPayload struct {
	Name        string `json:"name"`
	Bucket      string `json:"bucket"`
	Generation  string `json:"generation"`
	ContentType string `json:"contentType"`
	Size        string `json:"size"`
}

func decodePayload(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("payload empty")
	}
	if decoded, err := base64.StdEncoding.DecodeString(string(data)); err == nil {
		return decoded, nil
	}
	return data, nil
}

func isTransientDBError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func previewBytes(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "...(truncated)"
}
