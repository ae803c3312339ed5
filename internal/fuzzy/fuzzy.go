// Package fuzzy ranks flag and command names by similarity to a mistyped token.
// The parser uses it to attach "did you mean" suggestions to unknown flags and
// the app uses it for unknown commands.
package fuzzy

import (
	"cmp"
	"slices"
	"strings"
)

// Matcher ranks candidates within a maximum edit distance
type Matcher struct {
	maxDistance int
	minLength   int
}

// NewMatcher creates a new fuzzy matcher with the given max edit distance
func NewMatcher(maxDistance int) *Matcher {
	return &Matcher{
		maxDistance: maxDistance,
		minLength:   2, // single characters match too much
	}
}

// Match is a ranked candidate
type Match struct {
	Value    string
	Distance int
	Score    float64 // 0.0 to 1.0, higher is better
}

// FindBest returns the best candidate for input, or "" when none is close enough
func (m *Matcher) FindBest(input string, candidates []string) string {
	matches := m.FindMatches(input, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Value
}

// FindMatches returns every candidate within the max distance, best first.
// Exact (case-insensitive) matches and duplicates are skipped.
func (m *Matcher) FindMatches(input string, candidates []string) []Match {
	if len(input) < m.minLength {
		return nil
	}

	input = strings.ToLower(input)
	seen := make(map[string]struct{}, len(candidates))
	var matches []Match

	for _, candidate := range candidates {
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}

		lower := strings.ToLower(candidate)
		if lower == input {
			continue
		}

		distance := m.distance(input, lower)
		if distance > m.maxDistance {
			continue
		}
		matches = append(matches, Match{
			Value:    candidate,
			Distance: distance,
			Score:    m.score(input, lower, distance),
		})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Distance, b.Distance)
	})
	return matches
}

// score mixes edit distance with a shared-prefix bonus, since typos tend to
// happen at the end of a flag name.
func (m *Matcher) score(input, candidate string, distance int) float64 {
	longest := max(len(input), len(candidate))
	if longest == 0 {
		return 1.0
	}

	s := 1.0 - float64(distance)/float64(longest)
	if prefix := commonPrefixLength(input, candidate); prefix > 0 {
		s += float64(prefix) / float64(min(len(input), len(candidate))) * 0.25
	}
	return min(s, 1.0)
}

// distance is the Levenshtein distance of a and b, cut off at maxDistance+1
func (m *Matcher) distance(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(b)-len(a) > m.maxDistance {
		return m.maxDistance + 1
	}
	if len(a) == 0 {
		return len(b)
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for i := 1; i <= len(b); i++ {
		curr[0] = i
		rowMin := i
		for j := 1; j <= len(a); j++ {
			cost := 1
			if a[j-1] == b[i-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
			rowMin = min(rowMin, curr[j])
		}
		if rowMin > m.maxDistance {
			return m.maxDistance + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(a)]
}

func commonPrefixLength(a, b string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// FindSuggestions returns up to limit candidates close to input, best first
func FindSuggestions(input string, candidates []string, maxDistance, limit int) []string {
	matches := NewMatcher(maxDistance).FindMatches(input, candidates)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, len(matches))
	for i, match := range matches {
		out[i] = match.Value
	}
	return out
}
