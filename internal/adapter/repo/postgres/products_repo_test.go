package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/policy-advisor/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

func TestProductRepo_SearchByKeywords(t *testing.T) {
	t.Parallel()
	pool := &poolStub{rows: &rowsStub{data: [][]any{
		productRow(1, "住院醫療險", "0-70", "實支實付", "網路投保"),
		productRow(4, "意外險", "", "", ""),
	}}}
	repo := postgres.NewProductRepo(pool)

	got, err := repo.SearchByKeywords(context.Background(), []string{"醫療", " ", "住院"}, 120)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "住院醫療險", got[0].Name)
	assert.Equal(t, "0-70", got[0].InsureAge)
	assert.Equal(t, "網路投保", got[0].Source)
	assert.True(t, pool.rows.closed)

	require.Len(t, pool.queries, 1)
	q := pool.queries[0]
	assert.Contains(t, q.sql, "(name LIKE $1 OR description LIKE $1 OR source LIKE $1) OR (name LIKE $2 OR description LIKE $2 OR source LIKE $2)")
	assert.Contains(t, q.sql, "ORDER BY id ASC LIMIT $3")
	assert.Equal(t, []any{"%醫療%", "%住院%", 120}, q.args)
}

func TestProductRepo_SearchByKeywords_NoKeywords(t *testing.T) {
	t.Parallel()
	pool := &poolStub{}
	got, err := postgres.NewProductRepo(pool).SearchByKeywords(context.Background(), []string{"", "  "}, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, pool.queries)
}

func TestProductRepo_SearchByKeywords_EscapesLikeMetacharacters(t *testing.T) {
	t.Parallel()
	pool := &poolStub{}
	_, err := postgres.NewProductRepo(pool).SearchByKeywords(context.Background(), []string{"100%_保障"}, 5)
	require.NoError(t, err)
	assert.Equal(t, `%100\%\_保障%`, pool.queries[0].args[0])
}

func TestProductRepo_QueryErrors(t *testing.T) {
	t.Parallel()
	pool := &poolStub{queryErr: assert.AnError}
	repo := postgres.NewProductRepo(pool)

	_, err := repo.SearchByKeywords(context.Background(), []string{"醫療"}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=product.search")

	_, err = repo.Latest(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=product.latest")

	_, err = repo.Tables(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=product.tables")
}

func TestProductRepo_Latest_ScanAndRowsErrors(t *testing.T) {
	t.Parallel()
	pool := &poolStub{rows: &rowsStub{data: [][]any{productRow(9, "x", "", "", "")}, scanErr: errors.New("bad column")}}
	_, err := postgres.NewProductRepo(pool).Latest(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, pool.rows.closed)

	pool = &poolStub{rows: &rowsStub{err: errors.New("conn reset")}}
	_, err = postgres.NewProductRepo(pool).Latest(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestProductRepo_Latest_OrdersNewestFirst(t *testing.T) {
	t.Parallel()
	pool := &poolStub{rows: &rowsStub{data: [][]any{productRow(9, "新", "", "", ""), productRow(3, "舊", "", "", "")}}}
	got, err := postgres.NewProductRepo(pool).Latest(context.Background(), 200)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(9), got[0].ID)
	assert.Contains(t, pool.queries[0].sql, "ORDER BY id DESC LIMIT $1")
	assert.Equal(t, []any{200}, pool.queries[0].args)
}

func TestProductRepo_Get(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{vals: productRow(7, "旅平險", "滿18歲以上", "海外", "")}}
	got, err := postgres.NewProductRepo(pool).Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "旅平險", got.Name)
	assert.Equal(t, []any{int64(7)}, pool.queries[0].args)
}

func TestProductRepo_Get_NotFound(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{err: pgx.ErrNoRows}}
	_, err := postgres.NewProductRepo(pool).Get(context.Background(), 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pool = &poolStub{row: rowStub{err: assert.AnError}}
	_, err = postgres.NewProductRepo(pool).Get(context.Background(), 99)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "op=product.get")
}

func TestProductRepo_Count(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{vals: []any{int64(42)}}}
	n, err := postgres.NewProductRepo(pool).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	pool = &poolStub{row: rowStub{err: assert.AnError}}
	_, err = postgres.NewProductRepo(pool).Count(context.Background())
	assert.ErrorContains(t, err, "op=product.count")
}

func TestProductRepo_Tables(t *testing.T) {
	t.Parallel()
	pool := &poolStub{rows: &rowsStub{data: [][]any{{"policies"}, {"schema_migrations"}}}}
	got, err := postgres.NewProductRepo(pool).Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"policies", "schema_migrations"}, got)
}
