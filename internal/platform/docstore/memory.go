package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and local development.
// Documents are deep-copied on the way in and out so callers never
// share state with the store.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Document)}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(doc)
}

func (m *Memory) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Document
	for _, doc := range m.collections[collection] {
		if !matches(doc, q.Conditions) {
			continue
		}
		copied, err := deepCopy(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}
	if q.OrderBy != "" {
		field, desc := q.OrderBy, q.Descending
		sort.SliceStable(out, func(i, j int) bool {
			a := fmt.Sprint(out[i][field])
			b := fmt.Sprint(out[j][field])
			if desc {
				return a > b
			}
			return a < b
		})
	}
	return out, nil
}

func (m *Memory) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	copied, err := deepCopy(resolveServerTime(doc, time.Now()))
	if err != nil {
		return "", err
	}
	id, _ := copied["id"].(string)
	if id == "" {
		id = uuid.NewString()
		copied["id"] = id
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Document)
	}
	m.collections[collection][id] = copied
	return id, nil
}

func (m *Memory) Merge(ctx context.Context, collection, id string, fields Document) error {
	copied, err := deepCopy(resolveServerTime(fields, time.Now()))
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range copied {
		doc[k] = v
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	return nil
}

// resolveServerTime substitutes the ServerTime sentinel in top-level
// fields with the given instant.
func resolveServerTime(doc Document, now time.Time) Document {
	out := make(Document, len(doc))
	stamp := FormatTime(now)
	for k, v := range doc {
		if IsServerTime(v) {
			out[k] = stamp
			continue
		}
		out[k] = v
	}
	return out
}

func matches(doc Document, conds []Condition) bool {
	for _, c := range conds {
		switch c.Op {
		case OpEqual:
			if fmt.Sprint(doc[c.Field]) != fmt.Sprint(c.Value) {
				return false
			}
		case OpContains:
			arr, ok := doc[c.Field].([]any)
			if !ok {
				return false
			}
			found := false
			for _, item := range arr {
				if fmt.Sprint(item) == fmt.Sprint(c.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func deepCopy(doc Document) (Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("docstore: copy document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("docstore: copy document: %w", err)
	}
	return out, nil
}
