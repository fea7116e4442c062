package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/internal/scoring"
	"github.com/fairyhunter13/policy-advisor/pkg/textx"
)

const (
	statusSuccess = "success"

	insuranceFallbackSummary = "（AI 文案解析失敗，以下為系統依問卷規則產生的推薦結果。）"
	insuranceMissingSummary  = "（系統未回傳完整摘要）"
	topReasonMaxRunes        = 30
	maxTopCategories         = 3
)

var (
	insuranceFallbackNextSteps = []string{
		"如需更精準建議，可補充：目前保單狀況、預算、是否有家族病史。",
		"確認保障缺口：醫療實支、重大傷病、長照、意外、壽險。",
		"先選主約再挑附約，避免保障重複或保費失衡。",
	}
	insuranceFallbackProductAdvice = []string{
		"比較重點：承保年齡、繳費期間、保障範圍與除外責任。",
		"若有多個類別需求，優先補齊醫療與意外，再做長期與資產規劃。",
		"附約/條款建議搭配主約選擇，並確認是否可附加與續保條件。",
	}

	valuesMissingProfile = scoring.Profile{Type: "未知", Reason: "AI 回傳格式不完整"}

	valuesStrengths = []string{
		"能用長期視角看待保費與保障，較不容易衝動買錯方向。",
		"對風險有基本認知，願意透過制度（保險/預備金）降低不確定性。",
		"可接受分階段完善配置，不會一次把資源押在單一商品。",
	}
	valuesBlindspots = []string{
		"容易只看『保費』或只看『保障額度』，忽略除外責任與續保條件。",
		"若有家庭責任，可能低估『收入中斷』帶來的連鎖影響（醫療+生活費）。",
		"若偏進取，可能高估自己的波動承受力，缺少緊急預備金會讓策略失效。",
	}
	valuesAdvice = []string{
		"先把醫療實支與重大傷病做成『底盤』，再往意外與長期規劃延伸。",
		"如果你有家庭責任，建議加入定期壽險概念，用較低成本換取高額收入替代。",
		"選商品時，除了保障項目，更要看續保、除外責任、等待期與理賠條件。",
	}
)

// RoadmapPhase is one step of the fallback values roadmap.
type RoadmapPhase struct {
	Phase   string   `json:"phase"`
	Goal    string   `json:"goal"`
	Actions []string `json:"actions"`
}

var valuesRoadmap = []RoadmapPhase{
	{
		Phase: "Phase 1（0–1 個月）",
		Goal:  "盤點現況與缺口，先把高頻風險補起來",
		Actions: []string{
			"盤點既有保單：醫療實支、意外、重大傷病是否齊全且額度合理。",
			"建立緊急預備金（至少 3–6 個月生活費），避免保費或投資策略被迫中斷。",
			"把『必要保障』與『加值規劃』分開：先穩住底層，再談優化。",
		},
	},
	{
		Phase: "Phase 2（1–3 個月）",
		Goal:  "做分層配置：核心保障穩定、彈性項目可調",
		Actions: []string{
			"核心：醫療 + 意外 + 重大傷病（依你的健康敏感度調整權重）。",
			"家庭責任高者：補壽險/收入替代概念（用定期型更有效率）。",
			"檢查繳費期間與現金流：避免過度壓縮生活品質導致中途停繳。",
		},
	},
	{
		Phase: "Phase 3（3–12 個月）",
		Goal:  "依人生事件迭代（結婚/小孩/換工作/購屋）",
		Actions: []string{
			"每次人生事件觸發一次『保障校正』：保障額度跟著責任變動。",
			"把保障視為風險管理工具，不與投資績效綁死，降低情緒化決策。",
			"建立年度檢視表：保費占比、保障缺口、條款變動與理賠案例追蹤。",
		},
	},
}

// ruleTopCategories renders the rule engine ranking as the report's top_categories.
func ruleTopCategories(sc scoring.InsuranceScoring) []map[string]string {
	out := make([]map[string]string, 0, len(sc.TopCategories))
	for _, c := range sc.TopCategories {
		name := c.Name
		if name == "" {
			name = string(c.Key)
		}
		out = append(out, map[string]string{"name": name, "reason": textx.Truncate(c.Reason, topReasonMaxRunes)})
	}
	return out
}

// modelTopCategories keeps up to three model entries that carry a name and
// trims their reasons. Without any usable entry the rule ranking is used.
func modelTopCategories(v any, sc scoring.InsuranceScoring) []map[string]string {
	items, _ := v.([]any)
	out := make([]map[string]string, 0, maxTopCategories)
	for _, it := range items {
		if len(out) == maxTopCategories {
			break
		}
		var name, reason string
		switch e := it.(type) {
		case string:
			name = e
		case map[string]any:
			name, _ = e["name"].(string)
			reason, _ = e["reason"].(string)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, map[string]string{"name": name, "reason": textx.Truncate(strings.TrimSpace(reason), topReasonMaxRunes)})
	}
	if len(out) == 0 {
		return ruleTopCategories(sc)
	}
	return out
}

// InsuranceFallback is the report used when model output cannot be read.
func InsuranceFallback(sc scoring.InsuranceScoring) map[string]any {
	return map[string]any{
		"status":         statusSuccess,
		"quiz_id":        string(domain.QuizInsurance),
		"person_summary": insuranceFallbackSummary,
		"top_categories": ruleTopCategories(sc),
		"next_step":      append([]string(nil), insuranceFallbackNextSteps...),
		"product_advice": append([]string(nil), insuranceFallbackProductAdvice...),
	}
}

// applyInsuranceDefaults fills missing fields of a model report and attaches the products.
func applyInsuranceDefaults(m map[string]any, sc scoring.InsuranceScoring, products []domain.Product) map[string]any {
	setDefault(m, "quiz_id", string(domain.QuizInsurance))
	setDefault(m, "person_summary", insuranceMissingSummary)
	m["top_categories"] = modelTopCategories(m["top_categories"], sc)
	setDefault(m, "next_step", []string{})
	setDefault(m, "product_advice", []string{})
	if products == nil {
		products = []domain.Product{}
	}
	m["recommended_products"] = products
	return m
}

// ValuesFallback is the deterministic values report built from the Likert profile.
func ValuesFallback(pm scoring.ProfileMetrics, vm scoring.ValueMetrics) map[string]any {
	return map[string]any{
		"status":           statusSuccess,
		"quiz_id":          string(domain.QuizValues),
		"value_profile":    pm.Profile,
		"insights":         valuesInsights(pm),
		"strengths":        append([]string(nil), valuesStrengths...),
		"blindspots":       append([]string(nil), valuesBlindspots...),
		"roadmap":          valuesRoadmap,
		"insurance_advice": append([]string(nil), valuesAdvice...),
		"value_metrics":    vm,
	}
}

func valuesInsights(pm scoring.ProfileMetrics) []string {
	risk := pm.DimensionScore("風險承受度")
	sec := pm.DimensionScore("保障安全感需求")
	plan := pm.DimensionScore("長期規劃程度")
	health := pm.DimensionScore("健康風險敏感度")

	riskWord := "中性"
	if risk >= 70 {
		riskWord = "進取"
	} else if risk <= 45 {
		riskWord = "保守"
	}
	secWord := "高"
	if sec >= 70 {
		secWord = "低"
	}
	planWord := "仍可加強"
	if plan >= 65 {
		planWord = "較強"
	}
	healthWord := "相對不敏感"
	if health >= 65 {
		healthWord = "敏感"
	}
	return []string{
		fmt.Sprintf("你的「風險承受度」約 %d/100，代表你在波動與報酬間的態度偏向 %s。", risk, riskWord),
		fmt.Sprintf("「保障安全感需求」約 %d/100，顯示你對突發事件的心理門檻較 %s，需要用制度化保障來穩定。", sec, secWord),
		fmt.Sprintf("「長期規劃程度」約 %d/100，代表你在目標設定與紀律性上 %s。", plan, planWord),
		fmt.Sprintf("「健康風險敏感度」約 %d/100，代表你對醫療成本的不確定性 %s。", health, healthWord),
	}
}

// applyValuesDefaults fills missing fields of a model report and attaches the chart metrics.
func applyValuesDefaults(m map[string]any, vm scoring.ValueMetrics) map[string]any {
	setDefault(m, "quiz_id", string(domain.QuizValues))
	m["value_profile"] = valueProfile(m["value_profile"])
	setDefault(m, "insurance_advice", []string{})
	m["value_metrics"] = vm
	return m
}

// valueProfile fills a blank Type or Reason of the model profile. Anything
// other than an object is replaced with the placeholder profile.
func valueProfile(v any) any {
	p, ok := v.(map[string]any)
	if !ok {
		return valuesMissingProfile
	}
	for key, def := range map[string]string{"Type": valuesMissingProfile.Type, "Reason": valuesMissingProfile.Reason} {
		if s, _ := p[key].(string); strings.TrimSpace(s) == "" {
			p[key] = def
		}
	}
	return p
}

// setDefault sets key when it is absent or null.
func setDefault(m map[string]any, key string, v any) {
	if cur, ok := m[key]; !ok || cur == nil {
		m[key] = v
	}
}

// reportFailed reports whether the model declared a non-success status.
func reportFailed(m map[string]any) bool {
	st, ok := m["status"]
	if !ok || st == nil {
		return false
	}
	s, isStr := st.(string)
	return !isStr || s != statusSuccess
}
