// Package similarity ranks decision contexts by condition overlap.
package similarity

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/contexture-ai/contexture/pkg/types"
)

// DefaultLimit is the ranking size used when callers pass a
// non-positive limit.
const DefaultLimit = 3

// Classification labels. The thresholds are load-bearing; the label
// strings are preserved verbatim from the upstream contract.
const (
	LabelSuccess    = "Success"
	LabelFailure    = "Failure"
	LabelIrrelevant = "Irrelevant"
)

// conditionSet lowers and dedupes a context's conditions. Empty entries
// are discarded.
func conditionSet(conditions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(conditions))
	for _, c := range conditions {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		set[c] = struct{}{}
	}
	return set
}

// score is |A ∩ B| / max(|A|, |B|). The max denominator is deliberate:
// it penalizes condition-heavy contexts less than union-based Jaccard
// would.
func score(a, b map[string]struct{}) float64 {
	shared := 0
	for c := range a {
		if _, ok := b[c]; ok {
			shared++
		}
	}
	return float64(shared) / math.Max(float64(len(a)), float64(len(b)))
}

// FormatScore renders a score as a plain decimal with at least one
// fractional digit: "1.0", "0.67", "0.5".
func FormatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func classify(s float64) string {
	switch {
	case s >= 0.8:
		return LabelSuccess
	case s >= 0.6:
		return LabelFailure
	default:
		return LabelIrrelevant
	}
}

// Build ranks the corpus against the given context by condition-set
// overlap. A context with no conditions has no similarity defined and
// yields an empty result; the context itself is excluded by id. Ties
// keep corpus order; scores are rounded to two decimals after
// classification.
func Build(context types.Context, corpus []types.Context, limit int) []types.SimilarityMatch {
	if limit <= 0 {
		limit = DefaultLimit
	}

	base := conditionSet(context.Conditions)
	if len(base) == 0 {
		return []types.SimilarityMatch{}
	}

	matches := make([]types.SimilarityMatch, 0, len(corpus))
	for _, other := range corpus {
		if other.ContextID == context.ContextID {
			continue
		}
		conditions := conditionSet(other.Conditions)
		if len(conditions) == 0 {
			continue
		}
		s := score(base, conditions)
		if s <= 0 {
			continue
		}
		matches = append(matches, types.SimilarityMatch{
			ContextID: other.ContextID,
			Score:     math.Round(s*100) / 100,
			Label:     classify(s),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
