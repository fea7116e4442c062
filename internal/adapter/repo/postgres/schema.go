package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

const createProductsSQL = `CREATE TABLE IF NOT EXISTS policies (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	main_rider TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL DEFAULT '',
	insure_age TEXT NOT NULL DEFAULT '',
	pay_type TEXT NOT NULL DEFAULT '',
	pay_period TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	benefits TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	departure TEXT NOT NULL DEFAULT '',
	insurance_period TEXT NOT NULL DEFAULT '',
	target TEXT NOT NULL DEFAULT '',
	product_code TEXT NOT NULL DEFAULT '',
	terms TEXT NOT NULL DEFAULT ''
)`

const createNameIndexSQL = `CREATE INDEX IF NOT EXISTS idx_policies_name ON policies(name)`

// EnsureSchema creates the policies table and its name index.
func (r *ProductRepo) EnsureSchema(ctx domain.Context) error {
	tracer := otel.Tracer("repo.products")
	ctx, span := tracer.Start(ctx, "products.EnsureSchema")
	defer span.End()
	for _, q := range []string{createProductsSQL, createNameIndexSQL} {
		if _, err := r.Pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("op=product.ensure_schema: %w", err)
		}
	}
	return nil
}

// ReplaceAll inserts products in one transaction. When truncate is set the
// table is emptied first and ids restart at 1. Product ids are ignored.
func (r *ProductRepo) ReplaceAll(ctx domain.Context, products []domain.Product, truncate bool) (n int, err error) {
	tracer := otel.Tracer("repo.products")
	ctx, span := tracer.Start(ctx, "products.ReplaceAll")
	defer span.End()
	span.SetAttributes(attribute.Int("products", len(products)), attribute.Bool("truncate", truncate))

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("op=product.replace_all: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if truncate {
		if _, err = tx.Exec(ctx, `TRUNCATE TABLE policies RESTART IDENTITY`); err != nil {
			return 0, fmt.Errorf("op=product.replace_all: %w", err)
		}
	}
	q := `INSERT INTO policies (name, main_rider, currency, insure_age, pay_type, pay_period, description, note,
	benefits, source, departure, insurance_period, target, product_code, terms)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`
	for _, p := range products {
		if _, err = tx.Exec(ctx, q, p.Name, p.MainRider, p.Currency, p.InsureAge, p.PayType, p.PayPeriod,
			p.Description, p.Note, p.Benefits, p.Source, p.Departure, p.InsurancePeriod, p.Target,
			p.ProductCode, p.Terms); err != nil {
			return 0, fmt.Errorf("op=product.replace_all name=%q: %w", p.Name, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("op=product.replace_all: %w", err)
	}
	return len(products), nil
}
