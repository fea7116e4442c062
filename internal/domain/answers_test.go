package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawAnswer_UnmarshalJSON_Shapes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		kind    AnswerKind
		text    string
		options []string
		number  bool
	}{
		{"string", `"A. 同意"`, AnswerScalar, "A. 同意", nil, false},
		{"number", `3`, AnswerScalar, "3", nil, true},
		{"choice object", `{"choice":"B. 住院"}`, AnswerChoice, "B. 住院", nil, false},
		{"value object", `{"value":"非常同意"}`, AnswerChoice, "非常同意", nil, false},
		{"choice beats value", `{"value":"x","choice":"y"}`, AnswerChoice, "y", nil, false},
		{"empty choice falls to answer", `{"choice":"","answer":"C"}`, AnswerChoice, "C", nil, false},
		{"score object", `{"score":4}`, AnswerChoice, "4", nil, true},
		{"nested object", `{"choice":{"value":"D"}}`, AnswerChoice, "D", nil, false},
		{"multi object", `{"multi":["擔心生病住院"," ",""]}`, AnswerMulti, "", []string{"擔心生病住院"}, false},
		{"array", `["海外旅遊", "登山"]`, AnswerMulti, "", []string{"海外旅遊", "登山"}, false},
		{"null", `null`, AnswerEmpty, "", nil, false},
		{"bool", `true`, AnswerEmpty, "", nil, false},
		{"empty object", `{}`, AnswerEmpty, "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a RawAnswer
			require.NoError(t, json.Unmarshal([]byte(tt.in), &a))
			assert.Equal(t, tt.kind, a.Kind)
			assert.Equal(t, tt.text, a.Text)
			if tt.options != nil {
				assert.Equal(t, tt.options, a.Options)
			}
			assert.Equal(t, tt.number, a.Number != nil)
		})
	}
}

func TestRawAnswer_SelectedOptions(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"意外"}, Scalar(" 意外 ").SelectedOptions())
	assert.Equal(t, []string{}, Scalar("  ").SelectedOptions())
	assert.Equal(t, []string{"a", "b"}, Multi("a", "", " b").SelectedOptions())
	assert.True(t, RawAnswer{}.IsEmpty())
	assert.False(t, Number(0).IsEmpty())
}

func TestRawAnswer_MarshalRoundTripKeepsMeaning(t *testing.T) {
	t.Parallel()
	in := Answers{
		"Q1": Choice("E. 公司員工"),
		"Q3": Number(4),
		"Q5": Multi("擔心生病住院"),
		"Q6": Scalar("短期"),
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	var out Answers
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "E. 公司員工", out["Q1"].ChoiceText())
	require.NotNil(t, out["Q3"].Number)
	assert.Equal(t, 4.0, *out["Q3"].Number)
	assert.Equal(t, []string{"擔心生病住院"}, out["Q5"].SelectedOptions())
	assert.Equal(t, "短期", out["Q6"].ChoiceText())
}

func TestCanonicalKey(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"Q1":          "Q1",
		"q1":          "Q1",
		"question_1":  "Q1",
		"QUESTION-10": "Q10",
		"question1":   "Q1",
		"1":           "Q1",
		"07":          "Q7",
		" Age ":       "age",
		"gender":      "gender",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalKey(in), in)
	}
}

func TestCanonicalizeAnswers_CollisionKeepsFirstNonEmpty(t *testing.T) {
	t.Parallel()
	out := CanonicalizeAnswers(map[string]RawAnswer{
		"Q1":         {},
		"question_1": Scalar("B"),
		"q2":         Scalar("C"),
		"job":        Scalar("工程師"),
	})
	assert.Equal(t, "B", out["Q1"].Text)
	assert.Equal(t, "C", out["Q2"].Text)
	assert.Equal(t, "工程師", out["job"].Text)
}
