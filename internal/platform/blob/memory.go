package blob

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is an in-process Store for tests. It records objects by path
// and remembers the order of delete calls so cascade tests can assert
// on sequencing.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes []string
	// FailDeletes makes every Delete return an error, for exercising
	// cascade abort paths.
	FailDeletes bool
}

// NewMemory constructs an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("blob: read body: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
	return "https://blobs.test/" + path, nil
}

func (m *Memory) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDeletes {
		return fmt.Errorf("blob: delete %s: forced failure", ref)
	}
	path := refPath(ref)
	delete(m.objects, path)
	m.deletes = append(m.deletes, path)
	return nil
}

// Deletes returns the paths deleted so far, in call order.
func (m *Memory) Deletes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deletes))
	copy(out, m.deletes)
	return out
}

// Stored reports whether an object exists at path.
func (m *Memory) Stored(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[path]
	return ok
}

func refPath(ref string) string {
	const prefix = "https://blobs.test/"
	if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):]
	}
	return ref
}
