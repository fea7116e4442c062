// Package scoring turns questionnaire answers into canonical scores,
// dimension profiles and category rankings. Every function here is pure.
package scoring

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/pkg/textx"
)

// TotalQuestions is the number of scored question slots (Q1..Q10) in both quizzes.
const TotalQuestions = 10

// Scale maps one answer onto the canonical 0..100 range. ok is false when
// the answer is unanswered or unrecognized.
type Scale func(a domain.RawAnswer) (score int, ok bool)

var letterGrades = map[rune]int{'A': 20, 'B': 40, 'C': 60, 'D': 80, 'E': 100}

// Longer phrases come first so "非常不同意" never reads as "不同意" or "同意".
var sentimentPhrases = []struct {
	phrase string
	score  int
}{
	{"非常不同意", 20},
	{"不同意", 40},
	{"非常同意", 100},
	{"同意", 80},
	{"普通", 60},
	{"一般", 60},
	{"中立", 60},
}

var levelWords = []struct {
	word  string
	score int
}{
	{"低", 30},
	{"中", 60},
	{"高", 90},
}

const openBrackets = "([【「〔"

// LetterScale maps A..E, 1..5, Chinese agreement phrases and 低/中/高 onto
// 20..100 (levels onto 30/60/90). Out-of-range numbers are unrecognized, not clamped.
func LetterScale(a domain.RawAnswer) (int, bool) {
	if a.Number != nil {
		x, ok := likertPoint(*a.Number, false)
		if !ok {
			return 0, false
		}
		return x * 20, true
	}
	s := strings.TrimSpace(textx.FoldWidth(a.Text))
	if s == "" {
		return 0, false
	}
	if v, ok := leadingLetter(s); ok {
		return v, true
	}
	if v, ok := inlineLetter(s); ok {
		return v, true
	}
	if d, ok := leadingDigit(s); ok {
		return d * 20, true
	}
	if d, ok := inlinePoints(s); ok {
		return d * 20, true
	}
	for _, p := range sentimentPhrases {
		if strings.Contains(s, p.phrase) {
			return p.score, true
		}
	}
	for _, l := range levelWords {
		if strings.Contains(s, l.word) {
			return l.score, true
		}
	}
	return 0, false
}

// LikertScale maps a pure 1..5 Likert value onto 10..90 as 10+(x-1)*20.
// Letters are not graded on this scale.
func LikertScale(a domain.RawAnswer) (int, bool) {
	var x int
	var ok bool
	if a.Number != nil {
		x, ok = likertPoint(*a.Number, true)
	} else {
		s := strings.TrimSpace(textx.FoldWidth(a.Text))
		n, err := strconv.Atoi(s)
		if err == nil && s != "" && s[0] != '+' && s[0] != '-' {
			x, ok = n, n >= 1 && n <= 5
		}
	}
	if !ok {
		return 0, false
	}
	return 10 + (x-1)*20, true
}

// likertPoint accepts 1..5. Fractions are rounded when round is set and rejected otherwise.
func likertPoint(f float64, round bool) (int, bool) {
	if round {
		f = math.Round(f)
	}
	if f != math.Trunc(f) || f < 1 || f > 5 {
		return 0, false
	}
	return int(f), true
}

func leadingLetter(s string) (int, bool) {
	s = strings.TrimLeft(s, openBrackets+" ")
	r, size := utf8.DecodeRuneInString(s)
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	v, ok := letterGrades[r]
	if !ok {
		return 0, false
	}
	// "Excellent" is a word, not a grade.
	next, _ := utf8.DecodeRuneInString(s[size:])
	if isASCIILetter(next) {
		return 0, false
	}
	return v, true
}

func inlineLetter(s string) (int, bool) {
	u := strings.ToUpper(s)
	for _, prefix := range []string{"選項", "選"} {
		idx := strings.Index(u, prefix)
		if idx < 0 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(u[idx+len(prefix):])
		if v, ok := letterGrades[r]; ok {
			return v, true
		}
	}
	return 0, false
}

func leadingDigit(s string) (int, bool) {
	if s[0] < '1' || s[0] > '5' {
		return 0, false
	}
	if len(s) > 1 && s[1] >= '0' && s[1] <= '9' {
		return 0, false
	}
	return int(s[0] - '0'), true
}

// inlinePoints finds "3分" or "3 分" not preceded by another digit.
func inlinePoints(s string) (int, bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '1' || c > '5' || (i > 0 && s[i-1] >= '0' && s[i-1] <= '9') {
			continue
		}
		rest := strings.TrimPrefix(s[i+1:], " ")
		if strings.HasPrefix(rest, "分") {
			return int(c - '0'), true
		}
	}
	return 0, false
}

func isASCIILetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }

// QuestionScores scores Q1..Q10 on the given scale. Unanswered slots are absent.
func QuestionScores(a domain.Answers, scale Scale) map[string]int {
	out := make(map[string]int, TotalQuestions)
	for i := 1; i <= TotalQuestions; i++ {
		k := QuestionKey(i)
		if v, ok := scale(a.Get(k)); ok {
			out[k] = v
		}
	}
	return out
}

// QuestionKey returns the canonical key of question i.
func QuestionKey(i int) string { return "Q" + strconv.Itoa(i) }
