package linker

import "fmt"

// ReasonCode tags why a heuristic fired.
type ReasonCode string

const (
	ReasonGenreMatch         ReasonCode = "genre_match"
	ReasonSimilarGenre       ReasonCode = "similar_genre"
	ReasonToneAlignment      ReasonCode = "tone_alignment"
	ReasonContentSimilarity  ReasonCode = "content_similarity"
	ReasonCharacterMentioned ReasonCode = "character_mentioned"
	ReasonWorldMentioned     ReasonCode = "world_mentioned"
	ReasonWorldReferenced    ReasonCode = "world_referenced"
	ReasonRoleFit            ReasonCode = "role_fit"
)

// Reason is one structured rationale behind a score. Only the fields relevant
// to Code are set.
type Reason struct {
	Code    ReasonCode `json:"code"`
	Genre   string     `json:"genre,omitempty"`
	Tone    string     `json:"tone,omitempty"`
	Term    string     `json:"term,omitempty"`
	Percent int        `json:"percent,omitempty"`
}

// String renders the reason as display text.
func (r Reason) String() string {
	switch r.Code {
	case ReasonGenreMatch:
		return "Same genre: " + r.Genre
	case ReasonSimilarGenre:
		return "Similar genre"
	case ReasonToneAlignment:
		return "Tone alignment: " + r.Tone
	case ReasonContentSimilarity:
		return fmt.Sprintf("Content similarity (%d%%)", r.Percent)
	case ReasonCharacterMentioned:
		return "Character mentioned in world"
	case ReasonWorldMentioned:
		return "World mentioned in backstory"
	case ReasonWorldReferenced:
		return "World referenced in synopsis"
	case ReasonRoleFit:
		return "Fits " + r.Term + " role"
	}
	return string(r.Code)
}
