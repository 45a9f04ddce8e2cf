package linker

// ContentWeights controls how keyword overlap turns into score.
type ContentWeights struct {
	Threshold  float64 `json:"threshold"`  // similarity must exceed this to count
	Multiplier float64 `json:"multiplier"` // similarity is scaled by this
	Cap        float64 `json:"cap"`        // and capped here
}

func (c ContentWeights) contribution(sim float64) (float64, bool) {
	if sim <= c.Threshold {
		return 0, false
	}
	return min(sim*c.Multiplier, c.Cap), true
}

// CharacterWorldWeights scores a character against a world.
type CharacterWorldWeights struct {
	SameGenre          float64        `json:"same_genre"`
	SimilarGenre       float64        `json:"similar_genre"`
	Tone               float64        `json:"tone"`
	Content            ContentWeights `json:"content"`
	CharacterMentioned float64        `json:"character_mentioned"`
	WorldMentioned     float64        `json:"world_mentioned"`
}

// CharacterProjectWeights scores a character against a project.
type CharacterProjectWeights struct {
	SameGenre float64        `json:"same_genre"`
	Content   ContentWeights `json:"content"`
	RoleFit   float64        `json:"role_fit"`
}

// WorldProjectWeights scores a world against a project.
type WorldProjectWeights struct {
	SameGenre       float64        `json:"same_genre"`
	Content         ContentWeights `json:"content"`
	WorldReferenced float64        `json:"world_referenced"`
}

// Weights is the full scoring policy, one table per pairing.
type Weights struct {
	CharacterWorld   CharacterWorldWeights   `json:"character_world"`
	CharacterProject CharacterProjectWeights `json:"character_project"`
	WorldProject     WorldProjectWeights     `json:"world_project"`
}

// roleTerms are the archetypes checked against a character's role and a
// project's summary.
var roleTerms = []string{"protagonist", "antagonist", "hero", "villain", "mentor", "sidekick"}

// DefaultWeights returns the stock scoring policy.
func DefaultWeights() Weights {
	content := ContentWeights{Threshold: 0.1, Multiplier: 2, Cap: 0.3}
	return Weights{
		CharacterWorld: CharacterWorldWeights{
			SameGenre:          0.4,
			SimilarGenre:       0.2,
			Tone:               0.1,
			Content:            content,
			CharacterMentioned: 0.15,
			WorldMentioned:     0.15,
		},
		CharacterProject: CharacterProjectWeights{
			SameGenre: 0.5,
			Content:   content,
			RoleFit:   0.1,
		},
		WorldProject: WorldProjectWeights{
			SameGenre:       0.5,
			Content:         content,
			WorldReferenced: 0.2,
		},
	}
}
