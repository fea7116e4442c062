package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// AnswerKind tags the shape of a RawAnswer.
type AnswerKind int

const (
	AnswerEmpty AnswerKind = iota
	AnswerScalar
	AnswerChoice
	AnswerMulti
)

// RawAnswer is one questionnaire response after shape resolution.
//
//	Scalar: a bare string or number ("A. 同意", 3)
//	Choice: an object carrying choice/value/answer/text (or score/val)
//	Multi:  a list of free-text options, or an object with a "multi" list
type RawAnswer struct {
	Kind AnswerKind
	// Text is the resolved free text. For numbers it is the decimal rendering.
	Text string
	// Number is set when the resolved value was a JSON number.
	Number  *float64
	Options []string
}

// Scalar builds a scalar answer from free text.
func Scalar(s string) RawAnswer { return RawAnswer{Kind: AnswerScalar, Text: s} }

// Number builds a scalar answer from a numeric value.
func Number(f float64) RawAnswer {
	return RawAnswer{Kind: AnswerScalar, Text: formatNumber(f), Number: &f}
}

// Choice builds an object-style answer.
func Choice(s string) RawAnswer { return RawAnswer{Kind: AnswerChoice, Text: s} }

// Multi builds a multi-select answer.
func Multi(opts ...string) RawAnswer { return RawAnswer{Kind: AnswerMulti, Options: opts} }

// IsEmpty reports whether the answer carries nothing usable.
func (a RawAnswer) IsEmpty() bool {
	return strings.TrimSpace(a.Text) == "" && a.Number == nil && len(a.SelectedOptions()) == 0
}

// ChoiceText returns the trimmed single-choice text.
func (a RawAnswer) ChoiceText() string { return strings.TrimSpace(a.Text) }

// SelectedOptions returns trimmed non-empty multi-select options.
// A single-choice answer given to a multi-select question counts as one option.
func (a RawAnswer) SelectedOptions() []string {
	src := a.Options
	if a.Kind != AnswerMulti {
		src = []string{a.Text}
	}
	out := make([]string, 0, len(src))
	for _, o := range src {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

var choiceFields = []string{"choice", "value", "answer", "text", "score", "val"}

// UnmarshalJSON resolves any JSON value into the tagged variant.
func (a *RawAnswer) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*a = fromValue(v)
	return nil
}

// MarshalJSON writes the answer back in the shape it was resolved from.
func (a RawAnswer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerScalar:
		if a.Number != nil {
			return json.Marshal(*a.Number)
		}
		return json.Marshal(a.Text)
	case AnswerChoice:
		return json.Marshal(map[string]string{"choice": a.Text})
	case AnswerMulti:
		m := map[string]any{"multi": a.Options}
		if a.Text != "" {
			m["choice"] = a.Text
		}
		return json.Marshal(m)
	default:
		return []byte("null"), nil
	}
}

func fromValue(v any) RawAnswer {
	switch t := v.(type) {
	case string:
		return Scalar(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Scalar(t.String())
		}
		return Number(f)
	case float64:
		return Number(t)
	case []any:
		opts := make([]string, 0, len(t))
		for _, x := range t {
			if s := fromValue(x).Text; s != "" {
				opts = append(opts, s)
			}
		}
		return RawAnswer{Kind: AnswerMulti, Options: opts}
	case map[string]any:
		out := RawAnswer{Kind: AnswerChoice}
		for _, f := range choiceFields {
			inner, ok := t[f]
			if !ok {
				continue
			}
			r := fromValue(inner)
			if r.Text == "" && r.Number == nil {
				continue
			}
			out.Text, out.Number = r.Text, r.Number
			break
		}
		if m, ok := t["multi"]; ok {
			out.Kind = AnswerMulti
			out.Options = fromValue(m).SelectedOptions()
		} else if out.Text == "" && out.Number == nil {
			out.Kind = AnswerEmpty
		}
		return out
	default:
		return RawAnswer{}
	}
}

func formatNumber(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Answers maps canonical question keys ("Q1".."Q10", or lower-cased
// demographic keys such as "age") to resolved answers.
type Answers map[string]RawAnswer

// Get returns the answer stored under a canonical key.
func (a Answers) Get(key string) RawAnswer { return a[key] }

// CanonicalKey maps Q1, q1, question_1, QUESTION-1 and bare "1" to "Q1".
// Other keys are trimmed and lower-cased.
func CanonicalKey(k string) string {
	ks := strings.TrimSpace(k)
	if ks == "" {
		return ""
	}
	u := strings.ToUpper(ks)
	switch {
	case strings.HasPrefix(u, "Q") && isDigits(u[1:]):
		return "Q" + trimZeros(u[1:])
	case strings.Contains(u, "QUESTION"):
		if d := digitsOf(u); d != "" {
			return "Q" + trimZeros(d)
		}
	case isDigits(u):
		return "Q" + trimZeros(u)
	}
	return strings.ToLower(ks)
}

// CanonicalizeAnswers runs CanonicalKey over every key. On key collisions
// the first non-empty answer in sorted raw-key order wins.
func CanonicalizeAnswers(raw map[string]RawAnswer) Answers {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Answers, len(raw))
	for _, k := range keys {
		ck := CanonicalKey(k)
		if ck == "" {
			continue
		}
		if prev, ok := out[ck]; ok && !prev.IsEmpty() {
			continue
		}
		out[ck] = raw[k]
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func trimZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}
