package linker

import (
	"strings"
	"unicode"
)

const (
	// maxKeywords bounds how many tokens a single text contributes.
	maxKeywords = 30
	// minKeywordLen is the shortest token kept; anything of length <= 3 is dropped.
	minKeywordLen = 4
)

// stopwords are common English function words that carry no topical signal.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the a an and or but if then else when at by for with about against between
		into through during before after above below to from up down in out on off
		over under again further once here there where why how all any both each few
		more most other some such only own same so than too very can will just should
		now this that these those what which who whom been being have has had having
		does did doing would could their them they theirs your yours were was also
		onto upon while because until within without she he her his its it`) {
		stopwords[w] = struct{}{}
	}
}

// ExtractKeywords turns free text into at most 30 lowercase keywords in order
// of first appearance. Stopwords and tokens of three characters or fewer are
// dropped. Empty input yields an empty slice.
func ExtractKeywords(text string) []string {
	if text == "" {
		return []string{}
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '\ufeff':
			b.WriteByte(' ')
		}
	}

	keywords := make([]string, 0, maxKeywords)
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) < minKeywordLen {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		keywords = append(keywords, tok)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// joinText concatenates non-empty parts with single spaces.
func joinText(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
