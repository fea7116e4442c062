package scoring

import (
	"fmt"
	"math"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/pkg/textx"
)

// NeutralScore stands in for a dimension without any answered question when classifying profiles.
const NeutralScore = 50

// DimensionSpec names a dimension and the question slots averaged into it.
type DimensionSpec struct {
	Label     string
	Questions []string
}

// HybridDimensions feeds the value-metrics radar chart (letter/digit scale).
var HybridDimensions = []DimensionSpec{
	{Label: "風險承受度", Questions: []string{"Q1", "Q7"}},
	{Label: "保障安全感需求", Questions: []string{"Q2", "Q8"}},
	{Label: "家庭責任傾向", Questions: []string{"Q3", "Q9"}},
	{Label: "健康風險敏感度", Questions: []string{"Q4", "Q10"}},
	{Label: "長期規劃程度", Questions: []string{"Q5"}},
	{Label: "彈性與流動性偏好", Questions: []string{"Q6"}},
}

// ProfileDimensions feeds profile classification (pure Likert scale).
var ProfileDimensions = []DimensionSpec{
	{Label: "風險承受度", Questions: []string{"Q3", "Q7"}},
	{Label: "保障安全感需求", Questions: []string{"Q1", "Q5"}},
	{Label: "家庭責任導向", Questions: []string{"Q2", "Q8"}},
	{Label: "健康風險敏感度", Questions: []string{"Q4", "Q9"}},
	{Label: "長期規劃程度", Questions: []string{"Q6", "Q10"}},
	{Label: "彈性與流動性偏好", Questions: []string{"Q7", "Q10"}},
}

// Profile dimension indexes used by ClassifyProfile.
const (
	profileRisk     = 0
	profileSecurity = 1
	profilePlanning = 4
)

// Dimension is one aggregated axis. Score is 0 when Answered is 0.
type Dimension struct {
	Label    string `json:"label"`
	Score    int    `json:"score"`
	Answered int    `json:"answered"`
}

// Aggregate averages the answered slots of each dimension.
func Aggregate(specs []DimensionSpec, scores map[string]int) []Dimension {
	out := make([]Dimension, 0, len(specs))
	for _, spec := range specs {
		d := Dimension{Label: spec.Label}
		sum := 0
		for _, q := range spec.Questions {
			if v, ok := scores[q]; ok {
				sum += v
				d.Answered++
			}
		}
		if d.Answered > 0 {
			d.Score = int(math.Round(float64(sum) / float64(d.Answered)))
		}
		out = append(out, d)
	}
	return out
}

// HybridConfidence is min(0.55 + 0.4*answered/total, 0.95) rounded to two decimals.
func HybridConfidence(answered, total int) float64 {
	if total <= 0 {
		return 0
	}
	c := math.Min(0.55+0.4*float64(answered)/float64(total), 0.95)
	return math.Round(c*100) / 100
}

// CompletionConfidence is round(100*answered/total).
func CompletionConfidence(answered, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(answered) / float64(total)))
}

// Chart is a labelled series for the result page.
type Chart struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// Charts holds the radar (dimensions) and bar (questions) series.
type Charts struct {
	Radar Chart `json:"radar"`
	Bar   Chart `json:"bar"`
}

// ValueMetrics is the chart payload attached to every values-quiz result.
type ValueMetrics struct {
	Completion string  `json:"completion"`
	Confidence float64 `json:"confidence"`
	Mode       string  `json:"mode"`
	Charts     Charts  `json:"charts"`
}

// ComputeValueMetrics scores the answers on LetterScale and builds the hybrid chart payload.
func ComputeValueMetrics(a domain.Answers) ValueMetrics {
	scores := QuestionScores(a, LetterScale)
	dims := Aggregate(HybridDimensions, scores)
	return ValueMetrics{
		Completion: fmt.Sprintf("%d/%d", len(scores), TotalQuestions),
		Confidence: HybridConfidence(len(scores), TotalQuestions),
		Mode:       "hybrid",
		Charts:     buildCharts(dims, scores),
	}
}

// Profile is the value-profile label and its explanation.
type Profile struct {
	Type   string `json:"Type"`
	Reason string `json:"Reason"`
}

const profileReasonMax = 110

var (
	profileGrowth = Profile{Type: "成長進取型",
		Reason: "你願意承擔波動換取長期成長，且具備規劃能力；適合以「保障打底 + 成長配置」的方式布局。"}
	profileDefensive = Profile{Type: "穩健防禦型",
		Reason: "你優先追求可預期與安全感，風險承受度較保守；適合先把醫療/意外/重大傷病缺口補齊。"}
	profileResponsible = Profile{Type: "責任規劃型",
		Reason: "你重視保障與長期可控，願意用規劃降低不確定性；適合分層保費、分階段完成保障與資產目標。"}
	profileBalanced = Profile{Type: "均衡務實型",
		Reason: "你在風險與穩定間取得平衡，會兼顧眼前需求與長期目標；適合用核心保障穩住，再做彈性加值。"}
)

// ClassifyProfile evaluates the decision table in priority order; the first match wins.
// Dimensions without answers count as NeutralScore.
func ClassifyProfile(risk, security, planning Dimension) Profile {
	rt, sec, plan := neutralIfEmpty(risk), neutralIfEmpty(security), neutralIfEmpty(planning)
	var p Profile
	switch {
	case rt >= 70 && plan >= 65 && sec <= 55:
		p = profileGrowth
	case sec >= 70 && rt <= 55:
		p = profileDefensive
	case sec >= 65 && plan >= 65:
		p = profileResponsible
	default:
		p = profileBalanced
	}
	p.Reason = textx.Truncate(p.Reason, profileReasonMax)
	return p
}

func neutralIfEmpty(d Dimension) int {
	if d.Answered == 0 {
		return NeutralScore
	}
	return d.Score
}

// ProfileMetrics is the pure-Likert profile used by the deterministic values report.
type ProfileMetrics struct {
	Profile    Profile     `json:"profile"`
	Confidence int         `json:"confidence"`
	AnsweredN  int         `json:"answered_n"`
	TotalN     int         `json:"total_n"`
	Dimensions []Dimension `json:"dims"`
	Charts     Charts      `json:"charts"`
}

// ComputeProfile scores the answers on LikertScale, aggregates ProfileDimensions and classifies them.
func ComputeProfile(a domain.Answers) ProfileMetrics {
	scores := QuestionScores(a, LikertScale)
	dims := Aggregate(ProfileDimensions, scores)
	return ProfileMetrics{
		Profile:    ClassifyProfile(dims[profileRisk], dims[profileSecurity], dims[profilePlanning]),
		Confidence: CompletionConfidence(len(scores), TotalQuestions),
		AnsweredN:  len(scores),
		TotalN:     TotalQuestions,
		Dimensions: dims,
		Charts:     buildCharts(dims, scores),
	}
}

// DimensionScore returns the score of the labelled dimension, or NeutralScore when it has no answers.
func (m ProfileMetrics) DimensionScore(label string) int {
	for _, d := range m.Dimensions {
		if d.Label == label {
			return neutralIfEmpty(d)
		}
	}
	return NeutralScore
}

func buildCharts(dims []Dimension, scores map[string]int) Charts {
	c := Charts{
		Radar: Chart{Labels: make([]string, 0, len(dims)), Data: make([]int, 0, len(dims))},
		Bar:   Chart{Labels: make([]string, 0, TotalQuestions), Data: make([]int, 0, TotalQuestions)},
	}
	for _, d := range dims {
		c.Radar.Labels = append(c.Radar.Labels, d.Label)
		c.Radar.Data = append(c.Radar.Data, d.Score)
	}
	for i := 1; i <= TotalQuestions; i++ {
		k := QuestionKey(i)
		c.Bar.Labels = append(c.Bar.Labels, k)
		c.Bar.Data = append(c.Bar.Data, scores[k])
	}
	return c
}
