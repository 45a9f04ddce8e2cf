package linker

import "strings"

// KeywordSimilarity is the Jaccard index of two keyword lists: shared distinct
// keywords over all distinct keywords. Either list being empty yields 0.
func KeywordSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	union := make(map[string]struct{}, len(a)+len(b))
	for w := range setA {
		union[w] = struct{}{}
	}

	var matches int
	seen := make(map[string]struct{}, len(b))
	for _, w := range b {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := setA[w]; ok {
			matches++
		}
		union[w] = struct{}{}
	}

	return float64(matches) / float64(len(union))
}

// sameFold reports whether two non-empty strings are equal ignoring case.
// Surrounding whitespace is significant.
func sameFold(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.ToLower(a) == strings.ToLower(b)
}

// containsFold reports whether haystack contains a non-empty needle, ignoring case.
// An empty needle never matches: absent text is not a mention.
func containsFold(haystack, needle string) bool {
	if needle == "" || haystack == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
