// Package cityname canonicalizes city names and decides whether two names
// denote the same place under typos, casing and word-order noise.
package cityname

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultThreshold is the minimum similarity score (0-100) accepted in fuzzy mode.
const DefaultThreshold = 85

// Canonicalize trims and title-cases a city name.
func Canonicalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	// cases.Caser is stateful, not safe to share across goroutines.
	return cases.Title(language.Und).String(name)
}

// Ratio returns the normalized indel similarity of a and b on a 0-100 scale:
// 200 * LCS(a, b) / (len(a) + len(b)), measured in runes.
// Two empty strings score 100.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcsLen(ra, rb)) / float64(total)
}

// TokenSortRatio splits both strings on whitespace, sorts the tokens,
// rejoins them with single spaces and returns their Ratio.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortTokens(a), sortTokens(b))
}

// Score is the larger of Ratio and TokenSortRatio over canonical forms.
func Score(a, b string) float64 {
	ca, cb := Canonicalize(a), Canonicalize(b)
	return max(Ratio(ca, cb), TokenSortRatio(ca, cb))
}

// Matcher decides city equality in fuzzy or exact mode.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a Matcher. A threshold outside (0, 100] falls back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the configured acceptance score.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match reports whether a and b name the same city.
// Fuzzy mode accepts Score >= threshold; exact mode compares canonical forms
// case-insensitively. Match is reflexive for any input, blank included;
// a blank name never matches a non-blank one.
func (m *Matcher) Match(a, b string, fuzzy bool) bool {
	if !fuzzy {
		return strings.EqualFold(Canonicalize(a), Canonicalize(b))
	}
	return Score(a, b) >= m.threshold
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// lcsLen is the length of the longest common subsequence, O(len(a)*len(b)) time
// with a single row of memory.
func lcsLen(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			saved := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prevDiag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prevDiag = saved
		}
	}
	return row[len(b)]
}
