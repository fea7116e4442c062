package retrieval

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fairyhunter13/policy-advisor/pkg/textx"
)

var (
	numberRe      = regexp.MustCompile(`\d+`)
	lowerBoundCue = []string{"以上", "起", "滿", "至少"}
	upperBoundCue = []string{"以下", "至", "不超過", "內"}
)

// AgeOK reports whether age passes a free-text eligibility string. Anything it
// cannot read passes: an unknown age, empty text, text without numbers, or a
// single number without a bound cue. Two or more numbers form an inclusive
// range from the first two.
func AgeOK(eligibility string, age *int) bool {
	if age == nil {
		return true
	}
	t := strings.TrimSpace(textx.FoldWidth(eligibility))
	if t == "" {
		return true
	}
	nums := extractNumbers(t)
	switch {
	case len(nums) >= 2:
		lo, hi := nums[0], nums[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		return lo <= *age && *age <= hi
	case len(nums) == 1:
		n := nums[0]
		if containsAny(t, lowerBoundCue) {
			return *age >= n
		}
		if containsAny(t, upperBoundCue) {
			return *age <= n
		}
	}
	return true
}

func extractNumbers(s string) []int {
	m := numberRe.FindAllString(s, -1)
	out := make([]int, 0, len(m))
	for _, x := range m {
		n, err := strconv.Atoi(x)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

var ageGroups = []struct {
	needles []string
	age     int
}{
	{[]string{"0–20", "0-20"}, 18},
	{[]string{"21–30", "21-30"}, 26},
	{[]string{"31–45", "31-45"}, 38},
	{[]string{"46–60", "46-60"}, 53},
	{[]string{"61"}, 65},
}

// AgeFromGroup maps an age-group choice such as "B. 21–30 歲" to a representative age.
func AgeFromGroup(choice string) *int {
	s := textx.FoldWidth(choice)
	for _, g := range ageGroups {
		if containsAny(s, g.needles) {
			age := g.age
			return &age
		}
	}
	return nil
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
