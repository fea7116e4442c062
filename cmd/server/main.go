// Command server starts the policy advisor HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/policy-advisor/internal/adapter/ai/ollama"
	httpserver "github.com/fairyhunter13/policy-advisor/internal/adapter/httpserver"
	"github.com/fairyhunter13/policy-advisor/internal/adapter/observability"
	"github.com/fairyhunter13/policy-advisor/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/policy-advisor/internal/adapter/store/memstore"
	"github.com/fairyhunter13/policy-advisor/internal/adapter/store/redisstore"
	"github.com/fairyhunter13/policy-advisor/internal/app"
	"github.com/fairyhunter13/policy-advisor/internal/config"
	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/internal/retrieval"
	"github.com/fairyhunter13/policy-advisor/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	products := postgres.NewProductRepo(pool)

	var store domain.KVStore
	switch cfg.ResultStoreMode() {
	case "redis":
		rs, err := redisstore.Open(cfg.RedisURL, cfg.ResultTTL)
		if err != nil {
			slog.Error("redis connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = rs.Close(context.Background()) }()
		store = rs
	default:
		store = memstore.New()
	}
	slog.Info("result store ready", slog.String("mode", cfg.ResultStoreMode()))

	gen := ollama.New(cfg)
	rec := retrieval.NewRecommender(products, cfg.RecommendCandidateLimit, cfg.RecommendFallbackLimit)

	submissions := usecase.NewSubmissionService(rec, gen, store)
	results := usecase.NewResultService(store)
	productSvc := usecase.NewProductService(products)

	dbCheck, storeCheck, aiCheck := app.BuildReadinessChecks(pool, store, gen)
	srv := httpserver.NewServer(cfg, submissions, results, productSvc, dbCheck, storeCheck, aiCheck)
	handler := otelhttp.NewHandler(app.BuildRouter(cfg, srv), "http.server")

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port), slog.String("model", cfg.OllamaModel))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
