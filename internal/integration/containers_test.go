//go:build integration

// Package integration runs the storage adapters against real Postgres and Redis containers.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fairyhunter13/policy-advisor/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/policy-advisor/internal/adapter/store/redisstore"
	"github.com/fairyhunter13/policy-advisor/internal/catalogseed"
	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	host, err := c.Host(ctx)
	require.NoError(t, err)
	p, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return host + ":" + p.Port()
}

func Test_Catalog_On_Postgres(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	addr := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "app"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(90 * time.Second),
	}, "5432")

	pool, err := postgres.NewPool(ctx, "postgres://postgres:postgres@"+addr+"/app?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.Eventually(t, func() bool { return pool.Ping(ctx) == nil }, 30*time.Second, time.Second)

	repo := postgres.NewProductRepo(pool)
	seed := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
- name: 安心住院醫療保險
  insure_age: 0-65
  description: 住院 手術 實支實付
  source: 健康醫療.xlsx
- name: 海外旅平險
  insure_age: 20-80
  description: 旅行 海外
  source: 網路投保商品.xlsx
- name: 安心住院醫療保險
`), 0o600))
	n, err := catalogseed.Seed(ctx, repo, seed, catalogseed.Options{AllowAbsPaths: true, Replace: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	tables, err := repo.Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "policies")

	hits, err := repo.SearchByKeywords(ctx, []string{"住院", "100%"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "安心住院醫療保險", hits[0].Name)
	assert.Equal(t, catalogseed.FillValue, hits[0].Terms)

	latest, err := repo.Latest(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "海外旅平險", latest[0].Name)

	got, err := repo.Get(ctx, hits[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "0-65", got.InsureAge)
	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err = catalogseed.Seed(ctx, repo, seed, catalogseed.Options{AllowAbsPaths: true, Replace: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func Test_ResultStore_On_Redis(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	addr := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}, "6379")

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.Eventually(t, func() bool { return rdb.Ping(ctx).Err() == nil }, 30*time.Second, time.Second)
	store := redisstore.New(rdb, time.Minute)
	t.Cleanup(func() { _ = store.Close(ctx) })

	require.NoError(t, store.Put(ctx, "result:u1", []byte(`{"status":"success"}`)))
	b, err := store.Get(ctx, "result:u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success"}`, string(b))

	ttl, err := rdb.TTL(ctx, redisstore.KeyPrefix+"result:u1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = store.Get(ctx, "result:missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
