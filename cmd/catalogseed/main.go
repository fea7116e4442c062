// Command catalogseed loads a YAML or JSON product catalog into the policies table.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/fairyhunter13/policy-advisor/internal/adapter/observability"
	"github.com/fairyhunter13/policy-advisor/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/policy-advisor/internal/catalogseed"
	"github.com/fairyhunter13/policy-advisor/internal/config"
)

func main() {
	file := flag.String("file", "configs/catalog/products.yaml", "catalog file (YAML or JSON)")
	replace := flag.Bool("replace", false, "empty the policies table before inserting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	n, err := catalogseed.Seed(ctx, postgres.NewProductRepo(pool), *file, catalogseed.Options{
		AllowAbsPaths: cfg.CatalogAllowAbsPaths,
		Replace:       *replace,
	})
	if err != nil {
		slog.Error("catalog seed failed", slog.String("file", *file), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("catalog seed done", slog.Int("rows", n))
}
