package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/google/uuid"

	"github.com/sitelink-pm/sitelink/internal/platform/db"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
    collection text NOT NULL,
    id         text NOT NULL,
    body       jsonb NOT NULL,
    PRIMARY KEY (collection, id)
)`

// Postgres implements Store on a single JSONB table. Each document is
// one row; Merge maps onto the jsonb shallow concatenation operator,
// which has the same replace-top-level-fields semantics as the other
// drivers.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to Postgres and ensures the documents table.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := db.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("docstore: ensure schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("docstore: decode %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (p *Postgres) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	sql, args, err := buildListQuery(collection, q)
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("docstore: scan %s: %w", collection, err)
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("docstore: decode %s: %w", collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: iterate %s: %w", collection, err)
	}
	return out, nil
}

// Insert resolves server timestamps and writes the row in one
// transaction so the clock read and the visible document agree.
func (p *Postgres) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	err := db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		now, err := serverNow(ctx, tx)
		if err != nil {
			return err
		}
		resolved := resolveServerTime(doc, now)
		resolved["id"] = id
		raw, err := json.Marshal(resolved)
		if err != nil {
			return fmt.Errorf("docstore: encode %s: %w", collection, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)
			 ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body`,
			collection, id, raw,
		); err != nil {
			return fmt.Errorf("docstore: insert %s: %w", collection, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) Merge(ctx context.Context, collection, id string, fields Document) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		now, err := serverNow(ctx, tx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(resolveServerTime(fields, now))
		if err != nil {
			return fmt.Errorf("docstore: encode %s/%s: %w", collection, id, err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE documents SET body = body || $3 WHERE collection = $1 AND id = $2`,
			collection, id, raw,
		)
		if err != nil {
			return fmt.Errorf("docstore: merge %s/%s: %w", collection, id, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// serverNow reads the database clock so timestamps are consistent
// across callers regardless of client clock skew.
func serverNow(ctx context.Context, tx pgx.Tx) (time.Time, error) {
	var now time.Time
	if err := tx.QueryRow(ctx, `SELECT now()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("docstore: server clock: %w", err)
	}
	return now, nil
}

// buildListQuery renders the SQL for a List call. Field names come from
// code, never from callers, so they are embedded as jsonb path
// literals; values are always bound parameters.
func buildListQuery(collection string, q Query) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT body FROM documents WHERE collection = $1`)
	args := []any{collection}
	for _, c := range q.Conditions {
		if !validFieldName(c.Field) {
			return "", nil, fmt.Errorf("docstore: invalid filter field %q", c.Field)
		}
		args = append(args, fmt.Sprint(c.Value))
		switch c.Op {
		case OpEqual:
			fmt.Fprintf(&sb, ` AND body->>'%s' = $%d`, c.Field, len(args))
		case OpContains:
			fmt.Fprintf(&sb, ` AND body->'%s' ? $%d`, c.Field, len(args))
		default:
			return "", nil, fmt.Errorf("docstore: unsupported filter op %q", c.Op)
		}
	}
	if q.OrderBy != "" {
		if !validFieldName(q.OrderBy) {
			return "", nil, fmt.Errorf("docstore: invalid order field %q", q.OrderBy)
		}
		fmt.Fprintf(&sb, ` ORDER BY body->>'%s'`, q.OrderBy)
		if q.Descending {
			sb.WriteString(` DESC`)
		}
	}
	return sb.String(), args, nil
}

func validFieldName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
