package linker

import (
	"sort"

	"github.com/nidhogg/fived/internal/entity"
)

// Suggestion is a proposed, not yet applied link between two entities.
type Suggestion struct {
	ID         string          `json:"id"`
	SourceID   string          `json:"source_id"`
	SourceType entity.Type     `json:"source_type"`
	TargetID   string          `json:"target_id"`
	TargetType entity.Type     `json:"target_type"`
	Kind       entity.LinkKind `json:"kind"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason"`
	Reasons    []Reason        `json:"reasons,omitempty"`
}

// Link returns the link this suggestion would create.
func (s Suggestion) Link() entity.Link {
	return entity.Link{
		SourceID:   s.SourceID,
		SourceType: s.SourceType,
		TargetID:   s.TargetID,
		TargetType: s.TargetType,
	}
}

// SuggestionID is the deterministic identifier of a source/target pair.
func SuggestionID(sourceID, targetID string) string {
	return sourceID + "-" + targetID
}

// Options tunes a suggestion run. Start from DefaultOptions.
type Options struct {
	MinConfidence       float64  `json:"min_confidence"`
	MaxSuggestions      int      `json:"max_suggestions"`
	IncludeWorldLinks   bool     `json:"include_world_links"`
	IncludeProjectLinks bool     `json:"include_project_links"`
	Dismissed           []string `json:"dismissed,omitempty"` // suggestion IDs to leave out
}

const (
	defaultMinConfidence  = 0.3
	defaultMaxSuggestions = 10
)

// DefaultOptions returns the stock thresholds with every pairing enabled.
func DefaultOptions() Options {
	return Options{
		MinConfidence:       defaultMinConfidence,
		MaxSuggestions:      defaultMaxSuggestions,
		IncludeWorldLinks:   true,
		IncludeProjectLinks: true,
	}
}

// fallback reasons for a qualifying score with no recorded rationale.
const (
	fallbackCharacterWorld   = "Similar content"
	fallbackCharacterProject = "Possible project fit"
	fallbackWorldProject     = "Related setting"
)

// Engine generates ranked link suggestions. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	scorer *Scorer
}

// NewEngine creates an engine scoring with the given weights.
func NewEngine(w Weights) *Engine {
	return &Engine{scorer: NewScorer(w)}
}

// Scorer exposes the engine's pairwise scorer.
func (e *Engine) Scorer() *Scorer { return e.scorer }

var defaultEngine = NewEngine(DefaultWeights())

// GenerateLinkSuggestions runs the default engine with default options.
func GenerateLinkSuggestions(chars []entity.Character, worlds []entity.World, projects []entity.Project) []Suggestion {
	return defaultEngine.Generate(chars, worlds, projects, DefaultOptions())
}

// GetSuggestionsForEntity runs the default engine for a single entity.
func GetSuggestionsForEntity(id string, typ entity.Type, chars []entity.Character, worlds []entity.World, projects []entity.Project) []Suggestion {
	return defaultEngine.ForEntity(id, typ, chars, worlds, projects, DefaultOptions())
}

// Generate scores every unlinked source against every candidate target in the
// enabled categories and returns the qualifying suggestions, best first.
func (e *Engine) Generate(chars []entity.Character, worlds []entity.World, projects []entity.Project, opts Options) []Suggestion {
	return e.generate(chars, worlds, worlds, projects, opts)
}

// ForEntity returns suggestions involving one entity: as the source for
// characters and worlds, as the target for projects. An unknown id yields an
// empty result.
func (e *Engine) ForEntity(id string, typ entity.Type, chars []entity.Character, worlds []entity.World, projects []entity.Project, opts Options) []Suggestion {
	switch typ {
	case entity.TypeCharacter:
		for _, c := range chars {
			if c.ID == id {
				return e.generate([]entity.Character{c}, nil, worlds, projects, opts)
			}
		}
	case entity.TypeWorld:
		for _, w := range worlds {
			if w.ID == id {
				return e.generate(nil, []entity.World{w}, worlds, projects, withoutWorldLinks(opts))
			}
		}
	case entity.TypeProject:
		for _, p := range projects {
			if p.ID == id {
				return e.generate(chars, worlds, worlds, []entity.Project{p}, withoutWorldLinks(opts))
			}
		}
	}
	return []Suggestion{}
}

// withoutWorldLinks disables character-to-world pairs, which can never
// involve a world source or a project target.
func withoutWorldLinks(opts Options) Options {
	opts.IncludeWorldLinks = false
	return opts
}

// generate keeps world sources separate from world targets so a single-entity
// run can restrict one side without the other.
func (e *Engine) generate(chars []entity.Character, worldSources, worldTargets []entity.World, projects []entity.Project, opts Options) []Suggestion {
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = defaultMaxSuggestions
	}
	dismissed := make(map[string]struct{}, len(opts.Dismissed))
	for _, id := range opts.Dismissed {
		dismissed[id] = struct{}{}
	}

	out := []Suggestion{}
	emit := func(src, dst string, st, tt entity.Type, kind entity.LinkKind, sc Score, fallback string) {
		id := SuggestionID(src, dst)
		if _, skip := dismissed[id]; skip || sc.Value < opts.MinConfidence {
			return
		}
		reason := fallback
		if len(sc.Reasons) > 0 {
			reason = sc.Reasons[0].String()
		}
		out = append(out, Suggestion{
			ID:         id,
			SourceID:   src,
			SourceType: st,
			TargetID:   dst,
			TargetType: tt,
			Kind:       kind,
			Confidence: sc.Value,
			Reason:     reason,
			Reasons:    sc.Reasons,
		})
	}

	if opts.IncludeWorldLinks {
		for _, c := range chars {
			if c.WorldID != "" {
				continue
			}
			for _, w := range worldTargets {
				emit(c.ID, w.ID, entity.TypeCharacter, entity.TypeWorld, entity.KindCharacterWorld,
					e.scorer.CharacterWorld(c, w), fallbackCharacterWorld)
			}
		}
	}

	if opts.IncludeProjectLinks {
		for _, c := range chars {
			if c.ProjectID != "" {
				continue
			}
			for _, p := range projects {
				emit(c.ID, p.ID, entity.TypeCharacter, entity.TypeProject, entity.KindCharacterProject,
					e.scorer.CharacterProject(c, p), fallbackCharacterProject)
			}
		}
		for _, w := range worldSources {
			if w.ProjectID != "" {
				continue
			}
			for _, p := range projects {
				emit(w.ID, p.ID, entity.TypeWorld, entity.TypeProject, entity.KindWorldProject,
					e.scorer.WorldProject(w, p), fallbackWorldProject)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if len(out) > opts.MaxSuggestions {
		out = out[:opts.MaxSuggestions]
	}
	return out
}
