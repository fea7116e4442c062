package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

// ProductTable is the flat catalog table.
const ProductTable = "policies"

const productColumns = `id, name, main_rider, currency, insure_age, pay_type, pay_period, description, note,
	benefits, source, departure, insurance_period, target, product_code, terms`

// ProductRepo reads catalog rows from the policies table.
type ProductRepo struct{ Pool PgxPool }

var _ domain.ProductRepository = (*ProductRepo)(nil)

// NewProductRepo constructs a ProductRepo with the given pool.
func NewProductRepo(p PgxPool) *ProductRepo { return &ProductRepo{Pool: p} }

// SearchByKeywords returns rows whose name, description or source contains any
// keyword, in insertion order. Blank keywords are ignored; no keywords means no rows.
func (r *ProductRepo) SearchByKeywords(ctx domain.Context, keywords []string, limit int) ([]domain.Product, error) {
	tracer := otel.Tracer("repo.products")
	ctx, span := tracer.Start(ctx, "products.SearchByKeywords")
	defer span.End()

	where, args := keywordFilter(keywords)
	if where == "" {
		return []domain.Product{}, nil
	}
	span.SetAttributes(attribute.Int("keywords", len(args)), attribute.Int("limit", limit))
	args = append(args, limit)
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY id ASC LIMIT $%d`, productColumns, ProductTable, where, len(args))
	out, err := r.queryProducts(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("op=product.search: %w", err)
	}
	return out, nil
}

// Latest returns up to limit rows, newest first.
func (r *ProductRepo) Latest(ctx domain.Context, limit int) ([]domain.Product, error) {
	tracer := otel.Tracer("repo.products")
	ctx, span := tracer.Start(ctx, "products.Latest")
	defer span.End()
	q := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id DESC LIMIT $1`, productColumns, ProductTable)
	out, err := r.queryProducts(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("op=product.latest: %w", err)
	}
	return out, nil
}

// Get loads a product by id.
func (r *ProductRepo) Get(ctx domain.Context, id int64) (domain.Product, error) {
	tracer := otel.Tracer("repo.products")
	ctx, span := tracer.Start(ctx, "products.Get")
	defer span.End()
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id=$1`, productColumns, ProductTable)
	p, err := scanProduct(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("op=product.get: %w", domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("op=product.get: %w", err)
	}
	return p, nil
}

// Count returns the number of catalog rows.
func (r *ProductRepo) Count(ctx domain.Context) (int64, error) {
	tracer := otel.Tracer("repo.products")
	ctx, span := tracer.Start(ctx, "products.Count")
	defer span.End()
	var n int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+ProductTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=product.count: %w", err)
	}
	return n, nil
}

// Tables lists the tables of the current schema.
func (r *ProductRepo) Tables(ctx domain.Context) ([]string, error) {
	tracer := otel.Tracer("repo.products")
	ctx, span := tracer.Start(ctx, "products.Tables")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("op=product.tables: %w", err)
	}
	defer rows.Close()
	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("op=product.tables: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=product.tables: %w", err)
	}
	return tables, nil
}

func (r *ProductRepo) queryProducts(ctx domain.Context, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// keywordFilter builds "(name LIKE $1 OR description LIKE $1 OR source LIKE $1) OR ..." with one
// %kw% argument per non-blank keyword.
func keywordFilter(keywords []string) (string, []any) {
	var parts []string
	var args []any
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		args = append(args, "%"+escapeLike(kw)+"%")
		n := len(args)
		parts = append(parts, fmt.Sprintf("(name LIKE $%d OR description LIKE $%d OR source LIKE $%d)", n, n, n))
	}
	return strings.Join(parts, " OR "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.MainRider, &p.Currency, &p.InsureAge, &p.PayType, &p.PayPeriod,
		&p.Description, &p.Note, &p.Benefits, &p.Source, &p.Departure, &p.InsurancePeriod, &p.Target,
		&p.ProductCode, &p.Terms)
	return p, err
}
