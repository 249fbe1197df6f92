// Package match scores source column names against a template's canonical
// fields. Exact name/synonym hits win outright; everything else falls back
// to an edit-distance similarity ratio.
package match

import (
	"github.com/agext/levenshtein"

	"bankmerge/internal/schema"
)

// DefaultThreshold is the similarity a match must exceed before callers
// accept it as an auto-suggestion. The matcher itself always returns the
// best candidate; the threshold is a caller policy.
const DefaultThreshold = 0.6

// Best returns the canonical field of t most similar to column, with a score
// in [0,1].
//
// An exact, case-sensitive match against a field name or one of its synonyms
// short-circuits with score 1.0. Otherwise each field scores the maximum
// similarity over {field name} ∪ synonyms, and the highest-scoring field
// wins. Ties break by template declaration order: the first field to reach
// the top score keeps it, which keeps results deterministic when synonym
// sets overlap.
func Best(column string, t *schema.Template) (string, float64) {
	bestName := ""
	bestScore := -1.0

	for _, f := range t.Fields {
		if column == f.Name {
			return f.Name, 1.0
		}
		for _, syn := range f.Synonyms {
			if column == syn {
				return f.Name, 1.0
			}
		}

		score := levenshtein.Similarity(column, f.Name, nil)
		for _, syn := range f.Synonyms {
			if s := levenshtein.Similarity(column, syn, nil); s > score {
				score = s
			}
		}
		if score > bestScore {
			bestName, bestScore = f.Name, score
		}
	}
	if bestScore < 0 {
		bestScore = 0
	}
	return bestName, bestScore
}
