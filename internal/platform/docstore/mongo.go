package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo implements Store on a MongoDB database. Document ids double as
// the collection _id so lookups stay indexed.
type Mongo struct {
	db *mongo.Database
}

// NewMongo connects to MongoDB and returns a Store bound to dbName.
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("docstore: connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("docstore: ping mongo: %w", err)
	}
	return &Mongo{db: client.Database(dbName)}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	return normalizeMongoDoc(raw), nil
}

func (m *Mongo) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	filter := bson.M{}
	for _, c := range q.Conditions {
		switch c.Op {
		case OpEqual, OpContains:
			// Mongo equality on an array field already means "array
			// contains value", so both ops share one shape.
			filter[c.Field] = c.Value
		default:
			return nil, fmt.Errorf("docstore: unsupported filter op %q", c.Op)
		}
	}
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	cursor, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var out []Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("docstore: decode %s: %w", collection, err)
		}
		out = append(out, normalizeMongoDoc(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("docstore: iterate %s: %w", collection, err)
	}
	return out, nil
}

func (m *Mongo) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	set, current := splitServerTime(doc)
	set["id"] = id
	update := bson.M{"$set": set}
	if len(current) > 0 {
		update["$currentDate"] = current
	}
	_, err := m.db.Collection(collection).UpdateOne(
		ctx,
		bson.M{"_id": id},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return "", fmt.Errorf("docstore: insert %s: %w", collection, err)
	}
	return id, nil
}

func (m *Mongo) Merge(ctx context.Context, collection, id string, fields Document) error {
	set, current := splitServerTime(fields)
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(current) > 0 {
		update["$currentDate"] = current
	}
	if len(update) == 0 {
		return nil
	}
	res, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("docstore: merge %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// splitServerTime separates ServerTime sentinel fields, which become
// $currentDate entries, from regular $set fields.
func splitServerTime(doc Document) (set bson.M, current bson.M) {
	set = bson.M{}
	current = bson.M{}
	for k, v := range doc {
		if IsServerTime(v) {
			current[k] = true
			continue
		}
		set[k] = v
	}
	return set, current
}

// normalizeMongoDoc converts driver-specific BSON values into the
// JSON-shaped values the rest of the system expects: dates become
// RFC 3339 strings, bson arrays become []any, and the _id alias is
// dropped in favour of the embedded id field.
func normalizeMongoDoc(raw bson.M) Document {
	doc := normalizeMongoValue(raw).(map[string]any)
	delete(doc, "_id")
	return doc
}

func normalizeMongoValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeMongoValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeMongoValue(item)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeMongoValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeMongoValue(item)
		}
		return out
	case primitive.DateTime:
		return FormatTime(val.Time())
	case primitive.ObjectID:
		return val.Hex()
	default:
		return v
	}
}
