package retrieval

import (
	"strings"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

// UnnamedProduct is displayed for rows without a name.
const UnnamedProduct = "（未命名商品）"

var placeholders = map[string]bool{
	"見條款細節":   true,
	"未提供":     true,
	"請參閱保單條款": true,
	"請參閱條款":   true,
	"依條款":     true,
	"依條款細節":   true,
}

// Clean trims v and blanks the catalog's placeholder texts.
func Clean(v string) string {
	s := strings.TrimSpace(v)
	if placeholders[s] {
		return ""
	}
	return s
}

// InferChannel guesses the sales channel from a product's source tag.
func InferChannel(source string) string {
	s := strings.ToLower(source)
	switch {
	case strings.Contains(s, "網路"):
		return "網路"
	case strings.Contains(s, "銀行"):
		return "銀行"
	case strings.Contains(s, "團體"), strings.Contains(s, "團保"):
		return "團體"
	default:
		return "一般"
	}
}

// Present fills the display fields of a stored row: name fallback, inferred
// channel and a non-nil rider list. Eligibility text is kept verbatim.
func Present(p domain.Product) domain.Product {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = UnnamedProduct
	}
	p.Channel = InferChannel(p.Source)
	p.GenderLimit = ""
	if p.Riders == nil {
		p.Riders = []domain.Product{}
	}
	return p
}

// PresentDetail is Present plus placeholder cleaning of the descriptive fields.
func PresentDetail(p domain.Product) domain.Product {
	p = Present(p)
	for _, f := range []*string{
		&p.MainRider, &p.Currency, &p.PayType, &p.PayPeriod, &p.Description, &p.Note,
		&p.Benefits, &p.Departure, &p.InsurancePeriod, &p.Target, &p.ProductCode, &p.Terms,
	} {
		*f = Clean(*f)
	}
	return p
}

// AttachRiders gives every product an empty rider list. The catalog has no
// main-policy/rider linkage to follow.
func AttachRiders(products []domain.Product) []domain.Product {
	for i := range products {
		if products[i].Riders == nil {
			products[i].Riders = []domain.Product{}
		}
	}
	return products
}
