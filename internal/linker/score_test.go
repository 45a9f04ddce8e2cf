package linker

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/nidhogg/fived/internal/entity"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCharacterWorldGenreMatch(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterWorld(
		entity.Character{Genre: "Fantasy"},
		entity.World{Genre: "Fantasy"},
	)
	if got.Value < 0.4 {
		t.Errorf("got score %v, want >= 0.4", got.Value)
	}
	if len(got.Reasons) == 0 || got.Reasons[0].String() != "Same genre: Fantasy" {
		t.Errorf("got reasons %v, want first %q", got.Strings(), "Same genre: Fantasy")
	}
}

func TestCharacterWorldDisjoint(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterWorld(
		entity.Character{Genre: "Horror", BackstoryProse: "abandoned lighthouse"},
		entity.World{Genre: "Romance", Description: "sunny beach wedding"},
	)
	if got.Value != 0 {
		t.Errorf("got score %v, want 0", got.Value)
	}
	if len(got.Reasons) != 0 {
		t.Errorf("got reasons %v, want none", got.Strings())
	}
}

func TestCharacterWorldNameMention(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterWorld(
		entity.Character{Name: "Elara"},
		entity.World{Name: "Virelith", OverviewProse: "Elara was born here"},
	)
	if !approx(got.Value, 0.15) {
		t.Errorf("got score %v, want 0.15", got.Value)
	}
	want := []string{"Character mentioned in world"}
	if !reflect.DeepEqual(got.Strings(), want) {
		t.Errorf("got reasons %v, want %v", got.Strings(), want)
	}
}

func TestCharacterWorldSimilarGenre(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterWorld(
		entity.Character{Genre: "Dark Fantasy"},
		entity.World{Genre: "fantasy"},
	)
	if !approx(got.Value, 0.2) {
		t.Errorf("got score %v, want 0.2", got.Value)
	}
	if got.Reasons[0].Code != ReasonSimilarGenre {
		t.Errorf("got code %q, want %q", got.Reasons[0].Code, ReasonSimilarGenre)
	}
}

func TestCharacterWorldPaddedGenreIsOnlySimilar(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterWorld(
		entity.Character{Genre: "Fantasy "},
		entity.World{Genre: "fantasy"},
	)
	if !approx(got.Value, 0.2) {
		t.Errorf("got score %v, want 0.2", got.Value)
	}
	if len(got.Reasons) != 1 || got.Reasons[0].Code != ReasonSimilarGenre {
		t.Errorf("got reasons %v, want one similar genre", got.Strings())
	}
}

func TestCharacterWorldToneSpansProse(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterWorld(
		entity.Character{ArcProse: "dar", PersonalityProse: "k"},
		entity.World{Tone: "dark"},
	)
	if !approx(got.Value, 0.1) {
		t.Errorf("got score %v, want 0.1", got.Value)
	}
	want := []string{"Tone alignment: dark"}
	if !reflect.DeepEqual(got.Strings(), want) {
		t.Errorf("got reasons %v, want %v", got.Strings(), want)
	}
}

func TestCharacterWorldContent(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterWorld(
		entity.Character{BackstoryProse: "storm harbor sailor"},
		entity.World{Description: "storm harbor kingdom"},
	)
	if !approx(got.Value, 0.3) {
		t.Errorf("got score %v, want 0.3", got.Value)
	}
	want := []string{"Content similarity (50%)"}
	if !reflect.DeepEqual(got.Strings(), want) {
		t.Errorf("got reasons %v, want %v", got.Strings(), want)
	}
}

func TestCharacterWorldFactionsCount(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterWorld(
		entity.Character{Motivations: []string{"overthrow", "ironclad"}, Fears: []string{"council"}},
		entity.World{Factions: []entity.Faction{{Name: "Ironclad Council", Description: "overthrow"}}},
	)
	if !approx(got.Value, 0.3) {
		t.Errorf("got score %v, want 0.3 from faction overlap", got.Value)
	}
}

func TestCharacterWorldClamped(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterWorld(
		entity.Character{
			Name:           "Elara",
			Genre:          "Fantasy",
			ArcProse:       "a grim journey",
			BackstoryProse: "storm harbor sailor from Virelith",
		},
		entity.World{
			Name:          "Virelith",
			Genre:         "fantasy",
			Tone:          "Grim",
			Description:   "storm harbor sailor",
			OverviewProse: "Elara lives here",
		},
	)
	if got.Value != 1 {
		t.Errorf("got score %v, want clamp to 1", got.Value)
	}
	want := []string{
		"Same genre: fantasy",
		"Tone alignment: Grim",
		"Content similarity (50%)",
		"Character mentioned in world",
		"World mentioned in backstory",
	}
	if !reflect.DeepEqual(got.Strings(), want) {
		t.Errorf("got reasons %v, want %v", got.Strings(), want)
	}
}

func TestCharacterProject(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterProject(
		entity.Character{Genre: "Sci-Fi", Role: "Reluctant hero and mentor"},
		entity.Project{Genre: "sci-fi", Summary: "A hero finds a mentor among the stars"},
	)
	if !approx(got.Value, 0.7) {
		t.Errorf("got score %v, want 0.7", got.Value)
	}
	want := []string{"Same genre: sci-fi", "Fits hero role", "Fits mentor role"}
	if !reflect.DeepEqual(got.Strings(), want) {
		t.Errorf("got reasons %v, want %v", got.Strings(), want)
	}
}

func TestCharacterProjectNoPartialGenre(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.CharacterProject(
		entity.Character{Genre: "Dark Fantasy"},
		entity.Project{Genre: "Fantasy"},
	)
	if got.Value != 0 {
		t.Errorf("got score %v, want 0 (no partial genre credit for projects)", got.Value)
	}
}

func TestWorldProject(t *testing.T) {
	s := NewScorer(DefaultWeights())
	got := s.WorldProject(
		entity.World{Name: "Virelith", Genre: "Fantasy"},
		entity.Project{Genre: "fantasy", Summary: "War comes to Virelith"},
	)
	if !approx(got.Value, 0.7) {
		t.Errorf("got score %v, want 0.7", got.Value)
	}
	want := []string{"Same genre: fantasy", "World referenced in synopsis"}
	if !reflect.DeepEqual(got.Strings(), want) {
		t.Errorf("got reasons %v, want %v", got.Strings(), want)
	}
}

func TestCustomWeights(t *testing.T) {
	w := DefaultWeights()
	w.WorldProject.SameGenre = 0.9
	s := NewScorer(w)
	got := s.WorldProject(entity.World{Genre: "Noir"}, entity.Project{Genre: "noir"})
	if !approx(got.Value, 0.9) {
		t.Errorf("got score %v, want 0.9", got.Value)
	}
}

func TestScoresAlwaysBounded(t *testing.T) {
	words := []string{"storm", "hero", "mentor", "villain", "Fantasy", "grim", "Virelith", "Elara", "harbor", ""}
	rng := rand.New(rand.NewSource(42))
	text := func() string {
		out := ""
		for i := rng.Intn(8); i > 0; i-- {
			out += words[rng.Intn(len(words))] + " "
		}
		return out
	}

	w := DefaultWeights()
	w.CharacterProject.RoleFit = 0.5
	s := NewScorer(w)
	for i := 0; i < 300; i++ {
		c := entity.Character{
			Name: text(), Genre: text(), Role: text(), BackstoryProse: text(),
			PersonalityProse: text(), ArcProse: text(), CoreConcept: text(),
		}
		wd := entity.World{Name: text(), Genre: text(), Tone: text(), Description: text(), OverviewProse: text()}
		p := entity.Project{Name: text(), Genre: text(), Summary: text(), Description: text()}

		for _, sc := range []Score{s.CharacterWorld(c, wd), s.CharacterProject(c, p), s.WorldProject(wd, p)} {
			if sc.Value < 0 || sc.Value > 1 {
				t.Fatalf("score %v out of [0,1]", sc.Value)
			}
		}
	}
}
