package retrieval

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fairyhunter13/policy-advisor/internal/adapter/observability"
	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/internal/scoring"
)

// MaxRecommendations is the number of products returned for a submission.
const MaxRecommendations = 3

// Recommender searches the product table for the ranked categories.
type Recommender struct {
	Products       domain.ProductRepository
	CandidateLimit int
	FallbackLimit  int
}

// NewRecommender constructs a Recommender with row bounds for the keyword and fallback queries.
func NewRecommender(p domain.ProductRepository, candidateLimit, fallbackLimit int) Recommender {
	return Recommender{Products: p, CandidateLimit: candidateLimit, FallbackLimit: fallbackLimit}
}

// Recommend returns up to three distinct products. Each bucket contributes
// its best keyword-hit candidate that passes the age filter; remaining slots
// are filled from the newest rows.
func (r Recommender) Recommend(ctx domain.Context, top []scoring.TopCategory, age *int) ([]domain.Product, error) {
	buckets := BucketsFor(top)
	picked := make([]domain.Product, 0, MaxRecommendations)
	used := make(map[int64]bool, MaxRecommendations)

	for _, b := range buckets {
		if len(picked) >= MaxRecommendations {
			break
		}
		kws := Keywords[b]
		cands, err := r.Products.SearchByKeywords(ctx, kws, r.CandidateLimit)
		if err != nil {
			return nil, fmt.Errorf("op=retrieval.Recommend bucket=%s: %w", b, err)
		}
		cands = presentEligible(cands, age)
		rankByKeywordHits(cands, kws)
		for _, c := range cands {
			if used[c.ID] {
				continue
			}
			used[c.ID] = true
			picked = append(picked, c)
			break
		}
	}

	if len(picked) < MaxRecommendations {
		rows, err := r.Products.Latest(ctx, r.FallbackLimit)
		if err != nil {
			return nil, fmt.Errorf("op=retrieval.Recommend fallback: %w", err)
		}
		before := len(picked)
		for _, c := range presentEligible(rows, age) {
			if len(picked) >= MaxRecommendations {
				break
			}
			if used[c.ID] {
				continue
			}
			used[c.ID] = true
			picked = append(picked, c)
		}
		observability.LoggerFromContext(ctx).Debug("recommend fallback used", slog.Int("added", len(picked)-before), slog.Int("picked", len(picked)))
	}
	return AttachRiders(picked), nil
}

func presentEligible(rows []domain.Product, age *int) []domain.Product {
	out := rows[:0:0]
	for _, p := range rows {
		if !AgeOK(p.InsureAge, age) {
			continue
		}
		out = append(out, Present(p))
	}
	return out
}

// rankByKeywordHits orders candidates by how many keywords appear in
// name, description and source. Equal counts keep query order.
func rankByKeywordHits(cands []domain.Product, kws []string) {
	hits := make(map[int64]int, len(cands))
	for _, c := range cands {
		text := c.Name + " " + c.Description + " " + c.Source
		n := 0
		for _, kw := range kws {
			if kw != "" && strings.Contains(text, kw) {
				n++
			}
		}
		hits[c.ID] = n
	}
	sort.SliceStable(cands, func(i, j int) bool { return hits[cands[i].ID] > hits[cands[j].ID] })
}
