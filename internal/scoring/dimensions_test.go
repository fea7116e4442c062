package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

func TestAggregate_NoDataUsesZeroWithAnsweredCount(t *testing.T) {
	t.Parallel()
	dims := Aggregate(HybridDimensions, map[string]int{})
	require.Len(t, dims, 6)
	for _, d := range dims {
		assert.Equal(t, 0, d.Score)
		assert.Equal(t, 0, d.Answered)
	}

	// an answered minimum is distinguishable from no data
	dims = Aggregate([]DimensionSpec{{Label: "x", Questions: []string{"Q1"}}}, map[string]int{"Q1": 0})
	assert.Equal(t, 0, dims[0].Score)
	assert.Equal(t, 1, dims[0].Answered)
}

func TestAggregate_RoundedMeanOfAnsweredOnly(t *testing.T) {
	t.Parallel()
	specs := []DimensionSpec{
		{Label: "pair", Questions: []string{"Q1", "Q7"}},
		{Label: "half", Questions: []string{"Q2", "Q8"}},
		{Label: "odd", Questions: []string{"Q3", "Q9"}},
	}
	dims := Aggregate(specs, map[string]int{"Q1": 20, "Q7": 80, "Q2": 40, "Q3": 30, "Q9": 60})
	assert.Equal(t, Dimension{Label: "pair", Score: 50, Answered: 2}, dims[0])
	assert.Equal(t, Dimension{Label: "half", Score: 40, Answered: 1}, dims[1])
	assert.Equal(t, Dimension{Label: "odd", Score: 45, Answered: 2}, dims[2])
}

func TestConfidenceFormulas(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.55, HybridConfidence(0, 10))
	assert.Equal(t, 0.75, HybridConfidence(5, 10))
	assert.Equal(t, 0.91, HybridConfidence(9, 10))
	assert.Equal(t, 0.95, HybridConfidence(10, 10))
	assert.Equal(t, 0.0, HybridConfidence(1, 0))

	assert.Equal(t, 0, CompletionConfidence(0, 10))
	assert.Equal(t, 30, CompletionConfidence(3, 10))
	assert.Equal(t, 100, CompletionConfidence(10, 10))
}

func TestComputeValueMetrics(t *testing.T) {
	t.Parallel()
	a := domain.Answers{
		"Q1": domain.Scalar("A"),
		"Q7": domain.Scalar("E"),
		"Q2": domain.Scalar("非常同意"),
		"Q5": domain.Scalar("3"),
	}
	m := ComputeValueMetrics(a)
	assert.Equal(t, "4/10", m.Completion)
	assert.Equal(t, 0.71, m.Confidence)
	assert.Equal(t, "hybrid", m.Mode)
	assert.Equal(t, []string{"風險承受度", "保障安全感需求", "家庭責任傾向", "健康風險敏感度", "長期規劃程度", "彈性與流動性偏好"}, m.Charts.Radar.Labels)
	assert.Equal(t, []int{60, 100, 0, 0, 60, 0}, m.Charts.Radar.Data)
	assert.Equal(t, []string{"Q1", "Q2", "Q3", "Q4", "Q5", "Q6", "Q7", "Q8", "Q9", "Q10"}, m.Charts.Bar.Labels)
	assert.Equal(t, []int{20, 100, 0, 0, 60, 0, 100, 0, 0, 0}, m.Charts.Bar.Data)
}

func TestClassifyProfile(t *testing.T) {
	t.Parallel()
	dim := func(score int) Dimension { return Dimension{Score: score, Answered: 2} }
	empty := Dimension{}
	tests := []struct {
		name                string
		risk, sec, planning Dimension
		want                string
	}{
		{"growth", dim(70), dim(50), dim(70), "成長進取型"},
		{"growth blocked by security", dim(90), dim(60), dim(90), "均衡務實型"},
		{"defensive", dim(50), dim(70), dim(10), "穩健防禦型"},
		{"responsible", dim(70), dim(70), dim(70), "責任規劃型"},
		{"balanced", dim(50), dim(50), dim(50), "均衡務實型"},
		{"no data is neutral", empty, empty, empty, "均衡務實型"},
		{"no-data security counts as 50", dim(90), empty, dim(90), "成長進取型"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ClassifyProfile(tt.risk, tt.sec, tt.planning)
			assert.Equal(t, tt.want, p.Type)
			assert.NotEmpty(t, p.Reason)
		})
	}
}

func TestComputeProfile(t *testing.T) {
	t.Parallel()
	a := domain.Answers{
		"Q1": domain.Number(5), "Q5": domain.Number(5), // security 90
		"Q3": domain.Number(1), "Q7": domain.Number(2), // risk 20
		"Q6": domain.Scalar("A"), // letters are not Likert
	}
	m := ComputeProfile(a)
	assert.Equal(t, "穩健防禦型", m.Profile.Type)
	assert.Equal(t, 4, m.AnsweredN)
	assert.Equal(t, 10, m.TotalN)
	assert.Equal(t, 40, m.Confidence)
	assert.Equal(t, 20, m.DimensionScore("風險承受度"))
	assert.Equal(t, 90, m.DimensionScore("保障安全感需求"))
	assert.Equal(t, NeutralScore, m.DimensionScore("長期規劃程度"))
	assert.Equal(t, NeutralScore, m.DimensionScore("unknown"))
	assert.Equal(t, []int{90, 0, 10, 0, 90, 0, 30, 0, 0, 0}, m.Charts.Bar.Data)
}
