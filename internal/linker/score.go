package linker

import (
	"math"
	"strings"

	"github.com/nidhogg/fived/internal/entity"
)

// Score is a bounded confidence in [0,1] and the rationales that produced it,
// in the order the heuristics fired.
type Score struct {
	Value   float64  `json:"value"`
	Reasons []Reason `json:"reasons"`
}

// Strings renders every reason as display text.
func (s Score) Strings() []string {
	out := make([]string, len(s.Reasons))
	for i, r := range s.Reasons {
		out[i] = r.String()
	}
	return out
}

func (s *Score) add(v float64, r Reason) {
	s.Value += v
	s.Reasons = append(s.Reasons, r)
}

// Scorer applies a Weights policy to entity pairs. The zero value is not
// usable; build one with NewScorer.
type Scorer struct {
	w Weights
}

// NewScorer returns a scorer using the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// CharacterWorld scores how well a character fits a world.
func (s *Scorer) CharacterWorld(c entity.Character, w entity.World) Score {
	cw := s.w.CharacterWorld
	var sc Score

	switch {
	case sameFold(c.Genre, w.Genre):
		sc.add(cw.SameGenre, Reason{Code: ReasonGenreMatch, Genre: w.Genre})
	case containsFold(c.Genre, w.Genre) || containsFold(w.Genre, c.Genre):
		sc.add(cw.SimilarGenre, Reason{Code: ReasonSimilarGenre})
	}

	if containsFold(c.ArcProse+c.PersonalityProse, w.Tone) {
		sc.add(cw.Tone, Reason{Code: ReasonToneAlignment, Tone: w.Tone})
	}

	charText := joinText(
		c.BackstoryProse, c.PersonalityProse, c.CoreConcept, c.Origin,
		strings.Join(c.Motivations, " "), strings.Join(c.Fears, " "),
	)
	sim := KeywordSimilarity(ExtractKeywords(charText), ExtractKeywords(worldText(w, true)))
	if v, ok := cw.Content.contribution(sim); ok {
		sc.add(v, contentReason(sim))
	}

	if containsFold(w.OverviewProse, c.Name) {
		sc.add(cw.CharacterMentioned, Reason{Code: ReasonCharacterMentioned})
	}
	if containsFold(c.BackstoryProse, w.Name) {
		sc.add(cw.WorldMentioned, Reason{Code: ReasonWorldMentioned})
	}

	sc.Value = clamp01(sc.Value)
	return sc
}

// CharacterProject scores how well a character fits a project. Unlike world
// scoring there is no partial credit for overlapping genre names.
func (s *Scorer) CharacterProject(c entity.Character, p entity.Project) Score {
	cp := s.w.CharacterProject
	var sc Score

	if sameFold(c.Genre, p.Genre) {
		sc.add(cp.SameGenre, Reason{Code: ReasonGenreMatch, Genre: p.Genre})
	}

	charText := joinText(c.BackstoryProse, c.PersonalityProse, c.CoreConcept)
	sim := KeywordSimilarity(ExtractKeywords(charText), ExtractKeywords(projectText(p)))
	if v, ok := cp.Content.contribution(sim); ok {
		sc.add(v, contentReason(sim))
	}

	for _, term := range roleTerms {
		if containsFold(c.Role, term) && containsFold(p.Summary, term) {
			sc.add(cp.RoleFit, Reason{Code: ReasonRoleFit, Term: term})
		}
	}

	sc.Value = clamp01(sc.Value)
	return sc
}

// WorldProject scores how well a world fits a project.
func (s *Scorer) WorldProject(w entity.World, p entity.Project) Score {
	wp := s.w.WorldProject
	var sc Score

	if sameFold(w.Genre, p.Genre) {
		sc.add(wp.SameGenre, Reason{Code: ReasonGenreMatch, Genre: p.Genre})
	}

	sim := KeywordSimilarity(ExtractKeywords(worldText(w, false)), ExtractKeywords(projectText(p)))
	if v, ok := wp.Content.contribution(sim); ok {
		sc.add(v, contentReason(sim))
	}

	if containsFold(p.Summary, w.Name) {
		sc.add(wp.WorldReferenced, Reason{Code: ReasonWorldReferenced})
	}

	sc.Value = clamp01(sc.Value)
	return sc
}

// worldText gathers a world's prose; magic and factions only count when
// comparing against characters.
func worldText(w entity.World, full bool) string {
	if !full {
		return joinText(w.Description, w.OverviewProse, w.HistoryProse)
	}
	parts := []string{w.Description, w.OverviewProse, w.HistoryProse, w.MagicSystem}
	for _, f := range w.Factions {
		parts = append(parts, f.Name, f.Description)
	}
	return joinText(parts...)
}

func projectText(p entity.Project) string {
	return joinText(p.Description, p.Summary)
}

func contentReason(sim float64) Reason {
	return Reason{Code: ReasonContentSimilarity, Percent: int(math.Round(sim * 100))}
}
