// Package retrieval picks candidate products for ranked categories with a
// keyword search, a permissive age filter and a newest-rows fallback.
package retrieval

import (
	"strings"

	"github.com/fairyhunter13/policy-advisor/internal/scoring"
)

// Bucket is a keyword group used to search the product table.
type Bucket string

const (
	BucketHealthMedical Bucket = "health_medical"
	BucketAccident      Bucket = "accident"
	BucketTravel        Bucket = "travel"
	BucketLongTermCare  Bucket = "long_term_care"
	BucketLife          Bucket = "life"
	BucketInvestment    Bucket = "investment"
	BucketGroup         Bucket = "group"
	BucketOnline        Bucket = "online"
	BucketBank          Bucket = "bank"
)

// Keywords lists the substrings searched for each bucket.
var Keywords = map[Bucket][]string{
	BucketHealthMedical: {"健康", "醫療", "住院", "實支", "重大傷病", "癌症", "醫療險"},
	BucketAccident:      {"意外", "傷害", "骨折", "燒燙傷", "意外險"},
	BucketTravel:        {"旅行", "旅平", "旅遊", "海外", "出發地點"},
	BucketLongTermCare:  {"長期照顧", "長照", "失能", "照護"},
	BucketLife:          {"壽險", "定期", "終身", "身故", "壽"},
	BucketInvestment:    {"投資", "投資型", "外幣", "美元", "變額"},
	BucketGroup:         {"團體保險", "團保", "員工", "公司員工"},
	BucketOnline:        {"網路投保", "網路"},
	BucketBank:          {"銀行保險", "銀行"},
}

var defaultBuckets = []Bucket{BucketHealthMedical, BucketAccident, BucketLife}

// Substring rules for keys that are not bucket names; first match wins.
var bucketRules = []struct {
	needles []string
	bucket  Bucket
}{
	{[]string{"醫療", "健康"}, BucketHealthMedical},
	{[]string{"意外"}, BucketAccident},
	{[]string{"旅行", "旅"}, BucketTravel},
	{[]string{"長照", "照顧", "失能"}, BucketLongTermCare},
	{[]string{"壽"}, BucketLife},
	{[]string{"投資", "外幣", "美元"}, BucketInvestment},
	{[]string{"團體", "團保"}, BucketGroup},
	{[]string{"網路"}, BucketOnline},
	{[]string{"銀行"}, BucketBank},
}

// BucketFor maps a category key or display name to a bucket.
func BucketFor(k string) (Bucket, bool) {
	k = strings.TrimSpace(k)
	if k == "" {
		return "", false
	}
	if _, ok := Keywords[Bucket(strings.ToLower(k))]; ok {
		return Bucket(strings.ToLower(k)), true
	}
	for _, r := range bucketRules {
		for _, n := range r.needles {
			if strings.Contains(k, n) {
				return r.bucket, true
			}
		}
	}
	return "", false
}

// BucketsFor maps ranked categories to distinct buckets, keeping rank order.
// The key is tried before the display name; unmapped categories are dropped.
// When nothing maps the default health/accident/life order is used.
func BucketsFor(top []scoring.TopCategory) []Bucket {
	out := make([]Bucket, 0, len(top))
	seen := make(map[Bucket]bool, len(top))
	for _, c := range top {
		b, ok := BucketFor(string(c.Key))
		if !ok {
			b, ok = BucketFor(c.Name)
		}
		if !ok || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	if len(out) == 0 {
		return append(out, defaultBuckets...)
	}
	return out
}
