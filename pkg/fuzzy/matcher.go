// Package fuzzy corrects misspelled tokens to the closest canonical token by
// normalized Levenshtein similarity.
package fuzzy

import (
	"fmt"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// DefaultThreshold is the similarity a candidate must exceed to be accepted.
// Tuned for short dialectal Arabic tokens where hamza elision and letter
// doubling cost more edits than an English typo of the same word.
const DefaultThreshold = 0.4

// Match is the best candidate found for a token.
type Match struct {
	Term       string  `json:"term"`
	Similarity float64 `json:"similarity"`
}

// Matcher finds the closest pool entry for a token.
type Matcher struct {
	threshold float64
}

// NewMatcher returns a Matcher with the given threshold. Values outside
// [0,1] fall back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold < 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the configured threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Similarity is 1 - lev(a, b) / max(len(a), len(b)), lengths in runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := edlib.LevenshteinDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

// BestMatch returns the pool entry most similar to token. The first entry
// wins ties. The match is accepted only when its similarity is strictly
// greater than the threshold; a similarity equal to the threshold is
// reported as no match.
func (m *Matcher) BestMatch(token string, pool []string) (Match, bool) {
	best := Match{Similarity: -1}
	for _, candidate := range pool {
		sim := Similarity(token, candidate)
		if sim > best.Similarity {
			best = Match{Term: candidate, Similarity: sim}
		}
	}
	if best.Similarity <= m.threshold {
		return Match{}, false
	}
	return best, true
}

// Rank returns every pool entry above the threshold, most similar first,
// pool order kept among equal similarities.
func (m *Matcher) Rank(token string, pool []string) []Match {
	var matches []Match
	for _, candidate := range pool {
		if sim := Similarity(token, candidate); sim > m.threshold {
			matches = append(matches, Match{Term: candidate, Similarity: sim})
		}
	}
	// Insertion sort keeps equal similarities in pool order.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Similarity > matches[j-1].Similarity; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	return matches
}

// String implements fmt.Stringer.
func (m Match) String() string {
	return fmt.Sprintf("%s (%.2f)", m.Term, m.Similarity)
}
