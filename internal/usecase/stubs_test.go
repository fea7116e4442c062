package usecase

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

// mockGenerator is a testify mock of domain.TextGenerator.
type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, system string, payload any) (map[string]any, error) {
	args := m.Called(ctx, system, payload)
	out, _ := args.Get(0).(map[string]any)
	return out, args.Error(1)
}

// catalogStub is an in-memory domain.ProductRepository with LIKE-style matching.
type catalogStub struct {
	rows      []domain.Product
	tables    []string
	searchErr error
	countErr  error
}

func (c *catalogStub) SearchByKeywords(_ domain.Context, kws []string, limit int) ([]domain.Product, error) {
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	out := []domain.Product{}
	for _, p := range c.rows {
		for _, kw := range kws {
			if strings.Contains(p.Name, kw) || strings.Contains(p.Description, kw) || strings.Contains(p.Source, kw) {
				out = append(out, p)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *catalogStub) Latest(_ domain.Context, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	for i := len(c.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, c.rows[i])
	}
	return out, nil
}

func (c *catalogStub) Get(_ domain.Context, id int64) (domain.Product, error) {
	for _, p := range c.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (c *catalogStub) Count(domain.Context) (int64, error) {
	if c.countErr != nil {
		return 0, c.countErr
	}
	return int64(len(c.rows)), nil
}

func (c *catalogStub) Tables(domain.Context) ([]string, error) { return c.tables, nil }

// failingStore fails every call with err.
type failingStore struct{ err error }

func (f failingStore) Put(domain.Context, string, []byte) error   { return f.err }
func (f failingStore) Get(domain.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Ping(domain.Context) error                  { return f.err }

func sampleCatalog() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "安心住院醫療險", InsureAge: "0-70", Description: "住院 醫療 實支實付", Source: "網路投保"},
		{ID: 2, Name: "防癌健康保險", InsureAge: "滿18歲以上", Description: "癌症 重大疾病"},
		{ID: 3, Name: "平安意外險", InsureAge: "0-75", Description: "意外 傷害 骨折", Source: "銀行通路"},
		{ID: 4, Name: "旅遊平安險", InsureAge: "見條款細節", Description: "旅行 海外 突發疾病"},
		{ID: 5, Name: "定期壽險", InsureAge: "20-65", Description: "壽險 身故 保障"},
	}
}
