package linker

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"

	"github.com/nidhogg/fived/internal/entity"
)

// DefaultMatchThreshold is the minimum NameSimilarity FindBestMatch accepts
// when no explicit threshold is given.
const DefaultMatchThreshold = 0.6

// Candidate is anything with an id and a display name.
type Candidate struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type entity.Type `json:"type,omitempty"`
}

// Match is a candidate paired with how closely it matched a query.
type Match struct {
	Candidate
	Score float64 `json:"score"` // 0.0 - 1.0
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// NameSimilarity compares two names case-insensitively as 1 - distance/longest.
// Equal names score 1; an empty name scores 0 against anything.
func NameSimilarity(a, b string) float64 {
	a, b = entity.NormalizeName(a), entity.NormalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// FindBestMatch returns the candidate whose name is closest to query, or nil
// when none reaches threshold. Ties keep the earlier candidate.
func FindBestMatch(query string, candidates []Candidate, threshold float64) *Match {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	var best *Match
	for _, c := range candidates {
		score := NameSimilarity(query, c.Name)
		if score < threshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &Match{Candidate: c, Score: score}
		}
	}
	return best
}

// candidateNames adapts a candidate slice to fuzzy.Source.
type candidateNames []Candidate

func (c candidateNames) String(i int) string { return c[i].Name }
func (c candidateNames) Len() int            { return len(c) }

// SearchNames ranks candidates whose names contain query as a fuzzy
// subsequence. Scores are normalized so the best hit is 1. A non-positive
// limit returns every hit.
func SearchNames(query string, candidates []Candidate, limit int) []Match {
	if query == "" || len(candidates) == 0 {
		return []Match{}
	}
	hits := fuzzy.FindFrom(query, candidateNames(candidates))
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]Match, 0, len(hits))
	if len(hits) == 0 {
		return out
	}
	top := hits[0].Score
	for _, h := range hits {
		score := 1.0
		if top > 0 {
			score = clamp01(float64(h.Score) / float64(top))
		}
		out = append(out, Match{Candidate: candidates[h.Index], Score: score})
	}
	return out
}
