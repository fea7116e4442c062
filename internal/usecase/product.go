package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/internal/retrieval"
)

// ProductService serves catalog details and the database check.
type ProductService struct {
	Products domain.ProductRepository
}

// NewProductService constructs a ProductService.
func NewProductService(p domain.ProductRepository) ProductService {
	return ProductService{Products: p}
}

// Detail loads a product by its decimal id and cleans it for display.
func (s ProductService) Detail(ctx domain.Context, rawID string) (domain.Product, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return domain.Product{}, fmt.Errorf("%w: product id must be a positive integer", domain.ErrInvalidArgument)
	}
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return retrieval.PresentDetail(p), nil
}

// DBStatus is the /db_check payload. PoliciesCount is nil when the table is missing.
type DBStatus struct {
	Status        string   `json:"status"`
	Tables        []string `json:"tables"`
	PoliciesCount *int64   `json:"policies_count"`
}

// DBCheck lists the tables and counts the product rows.
func (s ProductService) DBCheck(ctx domain.Context) (DBStatus, error) {
	tables, err := s.Products.Tables(ctx)
	if err != nil {
		return DBStatus{}, err
	}
	st := DBStatus{Status: "ok", Tables: tables}
	for _, t := range tables {
		if t != "policies" {
			continue
		}
		n, err := s.Products.Count(ctx)
		if err != nil {
			return DBStatus{}, err
		}
		st.PoliciesCount = &n
		break
	}
	return st, nil
}
