package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/policy-advisor/internal/adapter/httpserver"
	"github.com/fairyhunter13/policy-advisor/internal/adapter/store/memstore"
	"github.com/fairyhunter13/policy-advisor/internal/app"
	"github.com/fairyhunter13/policy-advisor/internal/config"
	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/internal/retrieval"
	"github.com/fairyhunter13/policy-advisor/internal/usecase"
)

type emptyCatalog struct{}

func (emptyCatalog) SearchByKeywords(domain.Context, []string, int) ([]domain.Product, error) {
	return nil, nil
}
func (emptyCatalog) Latest(domain.Context, int) ([]domain.Product, error) { return nil, nil }
func (emptyCatalog) Get(domain.Context, int64) (domain.Product, error) {
	return domain.Product{}, domain.ErrNotFound
}
func (emptyCatalog) Count(domain.Context) (int64, error)     { return 0, nil }
func (emptyCatalog) Tables(domain.Context) ([]string, error) { return []string{}, nil }

type staticGen struct{}

func (staticGen) Generate(context.Context, string, any) (map[string]any, error) {
	return map[string]any{"status": "success", "person_summary": "ok"}, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newRouter(t *testing.T, cfg config.Config, aiErr error) http.Handler {
	t.Helper()
	store := memstore.New()
	subs := usecase.NewSubmissionService(retrieval.NewRecommender(emptyCatalog{}, 10, 10), staticGen{}, store)
	db, st, ai := app.BuildReadinessChecks(pinger{}, store, pinger{err: aiErr})
	srv := httpserver.NewServer(cfg, subs, usecase.NewResultService(store), usecase.NewProductService(emptyCatalog{}), db, st, ai)
	return app.BuildRouter(cfg, srv)
}

func TestBuildRouter_HealthEndpoints(t *testing.T) {
	t.Parallel()
	h := newRouter(t, config.Config{}, nil)
	for _, path := range []string{"/health", "/healthz", "/readyz", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestBuildRouter_ReadyzFailsWhenModelDown(t *testing.T) {
	t.Parallel()
	h := newRouter(t, config.Config{}, errors.New("connection refused"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuildRouter_SubmitAndResult(t *testing.T) {
	t.Parallel()
	h := newRouter(t, config.Config{}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{"quiz_id":"insurance","answers":{"Q1":"A"}}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Body.String(), `"status":"success"`)
}

func TestBuildRouter_RateLimitsSubmit(t *testing.T) {
	t.Parallel()
	h := newRouter(t, config.Config{RateLimitPerMin: 1}, nil)
	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{}`))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestBuildReadinessChecks_NilDependency(t *testing.T) {
	t.Parallel()
	db, _, _ := app.BuildReadinessChecks(nil, pinger{}, pinger{})
	assert.EqualError(t, db(context.Background()), "db not configured")
}
