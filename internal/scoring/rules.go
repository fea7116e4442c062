package scoring

import (
	"sort"
	"strings"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/pkg/textx"
)

// RulesVersion tags the additive rule set in scoring output.
const RulesVersion = "smooth_v1"

const (
	reasonMaxRunes = 30
	defaultReason  = "依問卷整體偏好推估"
	topN           = 3
)

// CategoryInfo pairs a category with its display name. Categories lists them in
// declaration order, which is also the tie-break order of the ranking.
type CategoryInfo struct {
	Key  domain.Category
	Name string
}

var Categories = []CategoryInfo{
	{domain.CategoryHealthMedical, "健康醫療"},
	{domain.CategoryCancerMedical, "癌症醫療"},
	{domain.CategoryLongTermCare, "長期照顧"},
	{domain.CategoryLifeProtection, "壽險保障"},
	{domain.CategoryAccident, "意外傷害"},
	{domain.CategoryTravel, "旅行險"},
	{domain.CategoryInvestment, "投資型保險"},
	{domain.CategoryGroup, "團體保險"},
	{domain.CategorySavingsAnnuity, "還本/增額/年金"},
	{domain.CategoryHealthManagement, "健康管理"},
}

var defaultTop = []domain.Category{domain.CategoryHealthMedical, domain.CategoryAccident, domain.CategoryLifeProtection}

var channels = []domain.Channel{domain.ChannelOnline, domain.ChannelBank, domain.ChannelAgent}

// CategoryName returns the display name of c, or its key when unknown.
func CategoryName(c domain.Category) string {
	for _, ci := range Categories {
		if ci.Key == c {
			return ci.Name
		}
	}
	return string(c)
}

type catWeight struct {
	cat    domain.Category
	weight int
}

type chanWeight struct {
	ch     domain.Channel
	weight int
}

type rule struct {
	keywords  []string
	cats      []catWeight
	channels  []chanWeight
	reasonCat domain.Category
	reason    string
}

type questionRules struct {
	question string
	// multi scans every selected option; otherwise only the single choice text.
	multi bool
	// firstOnly stops at the first matching rule.
	firstOnly bool
	rules     []rule
}

var ruleBook = []questionRules{
	{question: "Q1", rules: []rule{
		{keywords: []string{"公司", "員工", "一群人", "E."},
			cats: []catWeight{{domain.CategoryGroup, 4}}, channels: []chanWeight{{domain.ChannelAgent, 1}},
			reasonCat: domain.CategoryGroup, reason: "投保對象偏團體"},
	}},
	{question: "Q4", rules: []rule{
		{keywords: []string{"已婚", "小孩"},
			cats:      []catWeight{{domain.CategoryLifeProtection, 1}},
			reasonCat: domain.CategoryLifeProtection, reason: "家庭責任較高"},
		{keywords: []string{"照顧", "長輩"},
			cats:      []catWeight{{domain.CategoryLongTermCare, 2}},
			reasonCat: domain.CategoryLongTermCare, reason: "有長照情境"},
	}},
	{question: "Q5", multi: true, rules: []rule{
		{keywords: []string{"生病", "住院", "手術"},
			cats:      []catWeight{{domain.CategoryHealthMedical, 2}, {domain.CategoryCancerMedical, 1}},
			reasonCat: domain.CategoryHealthMedical, reason: "在意住院/手術支出"},
		{keywords: []string{"癌症", "重大疾病"},
			cats:      []catWeight{{domain.CategoryCancerMedical, 2}, {domain.CategoryHealthMedical, 1}},
			reasonCat: domain.CategoryCancerMedical, reason: "擔心癌症/重疾"},
		{keywords: []string{"失能", "長期照顧"},
			cats:      []catWeight{{domain.CategoryLongTermCare, 3}},
			reasonCat: domain.CategoryLongTermCare, reason: "擔心失能/照護"},
		{keywords: []string{"身故", "家人生活"},
			cats:      []catWeight{{domain.CategoryLifeProtection, 3}},
			reasonCat: domain.CategoryLifeProtection, reason: "重視家庭保障"},
		{keywords: []string{"車禍", "骨折", "意外"},
			cats:      []catWeight{{domain.CategoryAccident, 3}},
			reasonCat: domain.CategoryAccident, reason: "意外風險較高"},
		{keywords: []string{"退休", "教育", "穩穩存", "穩穩領"},
			cats:      []catWeight{{domain.CategorySavingsAnnuity, 3}},
			reasonCat: domain.CategorySavingsAnnuity, reason: "偏好穩健儲蓄/年金"},
		{keywords: []string{"投資", "漲跌", "報酬"},
			cats: []catWeight{{domain.CategoryInvestment, 3}}, channels: []chanWeight{{domain.ChannelBank, 1}},
			reasonCat: domain.CategoryInvestment, reason: "可接受投資波動"},
		{keywords: []string{"健康檢查", "健康管理", "線上"},
			cats:      []catWeight{{domain.CategoryHealthManagement, 3}},
			reasonCat: domain.CategoryHealthManagement, reason: "想要健康管理/服務"},
		{keywords: []string{"老闆", "管理者", "員工"},
			cats:      []catWeight{{domain.CategoryGroup, 3}},
			reasonCat: domain.CategoryGroup, reason: "有員工保障需求"},
	}},
	{question: "Q6", firstOnly: true, rules: []rule{
		{keywords: []string{"短期", "1–3", "1-3"},
			cats:      []catWeight{{domain.CategoryTravel, 1}, {domain.CategoryAccident, 1}},
			reasonCat: domain.CategoryTravel, reason: "短期需求可能有旅行/活動"},
		{keywords: []string{"10–20", "10-20", "中長期"},
			cats: []catWeight{{domain.CategoryLifeProtection, 1}, {domain.CategorySavingsAnnuity, 1}}},
		{keywords: []string{"到老", "終身"},
			cats: []catWeight{{domain.CategoryLongTermCare, 1}, {domain.CategoryLifeProtection, 1}}},
	}},
	{question: "Q7", firstOnly: true, rules: []rule{
		{keywords: []string{"保守"},
			cats: []catWeight{{domain.CategorySavingsAnnuity, 2}}, channels: []chanWeight{{domain.ChannelBank, 1}}},
		{keywords: []string{"有漲有跌", "不要太刺激"},
			cats: []catWeight{{domain.CategoryInvestment, 1}}, channels: []chanWeight{{domain.ChannelBank, 1}}},
		{keywords: []string{"大波動", "成長"},
			cats: []catWeight{{domain.CategoryInvestment, 2}}},
	}},
	{question: "Q8", firstOnly: true, rules: []rule{
		{keywords: []string{"線上", "手機", "電腦", "A."}, channels: []chanWeight{{domain.ChannelOnline, 3}}},
		{keywords: []string{"銀行", "B."}, channels: []chanWeight{{domain.ChannelBank, 3}}},
		{keywords: []string{"業務", "面談", "C."}, channels: []chanWeight{{domain.ChannelAgent, 2}}},
	}},
	{question: "Q9", multi: true, rules: []rule{
		{keywords: []string{"海外", "旅遊", "出差"},
			cats:      []catWeight{{domain.CategoryTravel, 2}},
			reasonCat: domain.CategoryTravel, reason: "有旅行/出差情境"},
		{keywords: []string{"登山", "潛水", "環島", "活動"},
			cats: []catWeight{{domain.CategoryTravel, 1}, {domain.CategoryAccident, 1}}},
		{keywords: []string{"團體保險", "員工"},
			cats:      []catWeight{{domain.CategoryGroup, 2}},
			reasonCat: domain.CategoryGroup, reason: "公司團保情境"},
	}},
}

// TopCategory is one ranked category with the first reason logged for it.
type TopCategory struct {
	Key    domain.Category `json:"key"`
	Name   string          `json:"name"`
	Score  int             `json:"score"`
	Reason string          `json:"reason"`
}

// InsuranceScoring is the rule engine output.
type InsuranceScoring struct {
	Scores        map[domain.Category]int      `json:"scores"`
	Channels      map[domain.Channel]int       `json:"channels"`
	Reasons       map[domain.Category][]string `json:"reasons"`
	TopCategories []TopCategory                `json:"top_categories"`
	Meta          map[string]string            `json:"meta"`
}

// ScoreInsurance accumulates category and channel weights from keyword matches.
// Weights are only ever added, so no category is disqualified.
func ScoreInsurance(a domain.Answers) InsuranceScoring {
	res := InsuranceScoring{
		Scores:   make(map[domain.Category]int, len(Categories)),
		Channels: make(map[domain.Channel]int, len(channels)),
		Reasons:  make(map[domain.Category][]string, len(Categories)),
		Meta:     map[string]string{"version": RulesVersion},
	}
	for _, c := range Categories {
		res.Scores[c.Key] = 0
		res.Reasons[c.Key] = []string{}
	}
	for _, ch := range channels {
		res.Channels[ch] = 0
	}

	for _, qr := range ruleBook {
		ans := a.Get(qr.question)
		var texts []string
		if qr.multi {
			texts = ans.SelectedOptions()
		} else if t := ans.ChoiceText(); t != "" {
			texts = []string{t}
		}
		for _, text := range texts {
			for _, r := range qr.rules {
				if !containsAny(text, r.keywords) {
					continue
				}
				res.apply(r)
				if qr.firstOnly {
					break
				}
			}
		}
	}
	res.TopCategories = res.rankTop()
	return res
}

func (s *InsuranceScoring) apply(r rule) {
	for _, cw := range r.cats {
		s.Scores[cw.cat] += cw.weight
	}
	for _, chw := range r.channels {
		s.Channels[chw.ch] += chw.weight
	}
	if r.reason != "" {
		s.Reasons[r.reasonCat] = append(s.Reasons[r.reasonCat], r.reason)
	}
}

// rankTop takes up to three positive categories by score, ties in declaration
// order, and pads with the default triple at score 1.
func (s *InsuranceScoring) rankTop() []TopCategory {
	ranked := make([]CategoryInfo, len(Categories))
	copy(ranked, Categories)
	sort.SliceStable(ranked, func(i, j int) bool {
		return s.Scores[ranked[i].Key] > s.Scores[ranked[j].Key]
	})

	top := make([]TopCategory, 0, topN)
	seen := make(map[domain.Category]bool, topN)
	for _, c := range ranked {
		if len(top) == topN || s.Scores[c.Key] <= 0 {
			break
		}
		top = append(top, s.topEntry(c.Key, s.Scores[c.Key]))
		seen[c.Key] = true
	}
	for _, c := range defaultTop {
		if len(top) == topN {
			break
		}
		if !seen[c] {
			top = append(top, s.topEntry(c, 1))
			seen[c] = true
		}
	}
	return top
}

func (s *InsuranceScoring) topEntry(c domain.Category, score int) TopCategory {
	reason := defaultReason
	if rs := s.Reasons[c]; len(rs) > 0 {
		reason = rs[0]
	}
	return TopCategory{Key: c, Name: CategoryName(c), Score: score, Reason: textx.Truncate(reason, reasonMaxRunes)}
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
