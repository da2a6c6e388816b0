package projects

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sitelink-pm/sitelink/internal/platform/blob"
	"github.com/sitelink-pm/sitelink/internal/platform/docstore"
)

func newCachedService(t *testing.T) (*Service, *docstore.Memory) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	docs := docstore.NewMemory()
	svc := NewService(docs, blob.NewMemory(), ServiceConfig{Cache: NewCache(client, time.Minute)})
	return svc, docs
}

func TestGetProjectReadsThroughCache(t *testing.T) {
	svc, docs := newCachedService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)

	first, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)

	// A direct write behind the cache is not observed until
	// invalidation: the second read is served from Redis.
	require.NoError(t, docs.Merge(ctx, Collection, p.ID, docstore.Document{"name": "changed behind the cache"}))
	second, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, first.Name, second.Name)
}

func TestMutatorsInvalidateCache(t *testing.T) {
	svc, _ := newCachedService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	_, err = svc.GetProject(ctx, p.ID)
	require.NoError(t, err)

	_, err = svc.UpdateProject(ctx, p.ID, docstore.Document{"name": "Renamed through the service"})
	require.NoError(t, err)

	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed through the service", got.Name)
}

func TestNilCacheDelegatesToLoader(t *testing.T) {
	var c *Cache
	p, err := c.FetchProject(context.Background(), "p1", func(context.Context) (Project, error) {
		return Project{ID: "p1"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
	require.NoError(t, c.Invalidate(context.Background(), "p1"))
}
