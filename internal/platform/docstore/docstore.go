// Package docstore abstracts the document-oriented persistence
// collaborator: named collections of schemaless documents addressed by
// string id, with shallow field-merge updates and simple filtered
// listing. Drivers exist for MongoDB, Postgres (JSONB) and an
// in-memory fake used by tests.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("docstore: not found")

// Document is a schemaless record. Values survive a JSON round-trip:
// maps, slices, strings, numbers, booleans and RFC 3339 time strings.
type Document = map[string]any

// serverTime marks a field whose value must be assigned by the store's
// own clock at write time rather than the client clock.
type serverTime struct{}

// ServerTime is the sentinel placed in a Document field to request a
// store-assigned timestamp. Only top-level fields are translated;
// values embedded deeper (inside arrays) cannot be addressed by the
// stores' server-clock primitives.
var ServerTime = serverTime{}

// Op selects a filter comparison.
type Op string

const (
	// OpEqual matches documents whose field equals the value.
	OpEqual Op = "eq"
	// OpContains matches documents whose array field contains the value.
	OpContains Op = "contains"
)

// Condition is a single field predicate.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Query narrows and orders a List call. All conditions must match.
type Query struct {
	Conditions []Condition
	OrderBy    string
	Descending bool
}

// Where appends an equality condition.
func (q Query) Where(field string, value any) Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: OpEqual, Value: value})
	return q
}

// WhereContains appends an array-membership condition.
func (q Query) WhereContains(field string, value any) Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: OpContains, Value: value})
	return q
}

// Store is the persistence contract consumed by aggregate services.
type Store interface {
	// Get loads a document by id. Returns ErrNotFound when absent.
	Get(ctx context.Context, collection, id string) (Document, error)
	// List returns documents matching the query.
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	// Insert stores a new document and returns its id. When the
	// document carries an "id" field that value is used, otherwise the
	// store generates one.
	Insert(ctx context.Context, collection string, doc Document) (string, error)
	// Merge shallow-merges fields into an existing document. Returns
	// ErrNotFound when the document does not exist.
	Merge(ctx context.Context, collection, id string, fields Document) error
	// Delete removes a document. Returns ErrNotFound when absent.
	Delete(ctx context.Context, collection, id string) error
}

// IsServerTime reports whether v is the ServerTime sentinel.
func IsServerTime(v any) bool {
	_, ok := v.(serverTime)
	return ok
}

// timeLayout is RFC 3339 with a fixed-width nanosecond fraction.
// RFC3339Nano trims trailing zeros, and a trimmed fraction that is a
// prefix of another ("…00.5Z" vs "…00.52Z") breaks lexicographic
// ordering, which the drivers rely on when sorting by timestamp
// fields.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders a timestamp the way every driver stores it. The
// output sorts lexicographically in chronological order.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
