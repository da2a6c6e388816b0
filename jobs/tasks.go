package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/sitelink-pm/sitelink/internal/platform/blob"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeBlobSweep reclaims a blob whose reference write failed
	// after the upload succeeded.
	TaskTypeBlobSweep = "blob:sweep"
)

// BlobSweepPayload identifies the orphaned blob to reclaim.
type BlobSweepPayload struct {
	URL string `json:"url"`
}

// NewBlobSweepTask constructs an Asynq task for an orphaned blob.
func NewBlobSweepTask(payload BlobSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBlobSweep, data), nil
}

// NewBlobSweepHandler returns the handler that deletes orphaned blobs.
// Delete failures are returned so Asynq retries with backoff; the blob
// keeps existing until a retry lands, which is the acceptable side of
// the upload-first tradeoff.
func NewBlobSweepHandler(blobs blob.Store, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload BlobSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.URL == "" {
			return asynq.SkipRetry
		}
		if err := blobs.Delete(ctx, payload.URL); err != nil {
			logger.Warn("blob sweep failed", slog.String("url", payload.URL), slog.Any("error", err))
			return err
		}
		logger.Info("blob swept", slog.String("url", payload.URL))
		return nil
	}
}
