package jobs

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/sitelink-pm/sitelink/internal/platform/blob"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBlobSweepDeletesOrphan(t *testing.T) {
	blobs := blob.NewMemory()
	url, err := blobs.Upload(context.Background(), "projects/p1/attachments/a1/plan.pdf", "application/pdf", strings.NewReader("x"))
	require.NoError(t, err)

	task, err := NewBlobSweepTask(BlobSweepPayload{URL: url})
	require.NoError(t, err)

	handler := NewBlobSweepHandler(blobs, discard())
	require.NoError(t, handler(context.Background(), task))
	require.False(t, blobs.Stored("projects/p1/attachments/a1/plan.pdf"))
}

func TestBlobSweepRetriesOnFailure(t *testing.T) {
	blobs := blob.NewMemory()
	blobs.FailDeletes = true

	task, err := NewBlobSweepTask(BlobSweepPayload{URL: "https://blobs.test/projects/p1/attachments/a1/plan.pdf"})
	require.NoError(t, err)

	handler := NewBlobSweepHandler(blobs, discard())
	require.Error(t, handler(context.Background(), task))
}

func TestBlobSweepSkipsMalformedPayload(t *testing.T) {
	handler := NewBlobSweepHandler(blob.NewMemory(), discard())

	err := handler(context.Background(), asynq.NewTask(TaskTypeBlobSweep, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = handler(context.Background(), asynq.NewTask(TaskTypeBlobSweep, []byte(`{"url":""}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
