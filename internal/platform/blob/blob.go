// Package blob abstracts the external binary store that holds
// attachment payloads. Objects are write-once: a fresh path is
// generated per upload, so the only mutations are upload and delete.
package blob

import (
	"context"
	"io"
)

// Store is the blob collaborator contract.
type Store interface {
	// Upload writes the object at path and returns its public
	// reference URL.
	Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error)
	// Delete removes the object identified by the reference URL
	// returned from Upload.
	Delete(ctx context.Context, url string) error
}
