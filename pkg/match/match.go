// Package match provides fuzzy string matching for package names, field
// vocabularies and platform identifiers.
//
// Matching is based on the normalized indel similarity ratio (insertions and
// deletions only, case-insensitive, 0.0 to 1.0). Two thresholds are used
// throughout the application: ThresholdField for vocabulary lookups where
// queries are near-exact, and ThresholdPackage for user-supplied names where
// typos are expected.
package match

import (
	"strings"

	"github.com/adrg/strutil/metrics"
)

// Similarity thresholds. A candidate below the applicable threshold is not a
// match; the caller surfaces NOT_FOUND with the closest candidate attached as
// a suggestion.
const (
	// ThresholdField is used for field-name and filename vocabulary matching.
	ThresholdField = 0.95

	// ThresholdPackage is used for package and platform name matching, where
	// a transposed character in a short name must still resolve.
	ThresholdPackage = 0.85
)

// Result is one scored candidate.
type Result struct {
	Value string
	Score float64
}

// lev computes indel distance: substitutions cost as much as a delete plus
// an insert, so a transposition counts two edits against the combined length
// rather than two against the longer string. The metric is stateless once
// configured and safe for concurrent use.
var lev = func() *metrics.Levenshtein {
	m := metrics.NewLevenshtein()
	m.CaseSensitive = false
	m.ReplaceCost = 2
	return m
}()

// Ratio returns the indel similarity of a and b, case-insensitive, in
// [0.0, 1.0]: one minus the indel distance normalized by the combined rune
// length of both strings.
func Ratio(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1
	}
	d := lev.Distance(a, b)
	return 1 - float64(d)/float64(total)
}

// Best returns the highest-scoring candidate at or above threshold.
// Ties keep the first candidate at the maximum score in the given candidate
// order, so callers wanting determinism should pass a sorted slice.
func Best(query string, candidates []string, threshold float64) (Result, bool) {
	best := Closest(query, candidates)
	if best.Value == "" || best.Score < threshold {
		return Result{}, false
	}
	return best, true
}

// Closest returns the highest-scoring candidate regardless of threshold.
// It backs the "did you mean" diagnostics attached to NOT_FOUND errors.
// Returns a zero Result when candidates is empty.
func Closest(query string, candidates []string) Result {
	var best Result
	for _, c := range candidates {
		score := Ratio(query, c)
		if best.Value == "" || score > best.Score {
			best = Result{Value: c, Score: score}
		}
	}
	return best
}

// Contains reports whether query matches any candidate at or above threshold.
func Contains(query string, candidates []string, threshold float64) bool {
	_, ok := Best(query, candidates, threshold)
	return ok
}

// Exact reports whether query equals candidate ignoring case and surrounding
// whitespace. Used where the vocabulary entry must match verbatim before a
// fuzzy pass is attempted.
func Exact(query, candidate string) bool {
	return strings.EqualFold(strings.TrimSpace(query), strings.TrimSpace(candidate))
}
