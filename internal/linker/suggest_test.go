package linker

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/nidhogg/fived/internal/entity"
)

func sampleEntities() ([]entity.Character, []entity.World, []entity.Project) {
	chars := []entity.Character{
		{ID: "c1", Name: "Elara", Genre: "Fantasy", Role: "hero", BackstoryProse: "Raised in Virelith among storm sailors"},
		{ID: "c2", Name: "Brann", Genre: "Horror", BackstoryProse: "abandoned lighthouse keeper"},
		{ID: "c3", Name: "Mira", Genre: "Fantasy", WorldID: "w1", ProjectID: "p1"},
	}
	worlds := []entity.World{
		{ID: "w1", Name: "Virelith", Genre: "Fantasy", OverviewProse: "Home of Elara and the storm fleets"},
		{ID: "w2", Name: "Saltmere", Genre: "Romance", Description: "sunny beach wedding"},
	}
	projects := []entity.Project{
		{ID: "p1", Name: "Tides of Virelith", Genre: "Fantasy", Summary: "A hero returns to Virelith"},
	}
	return chars, worlds, projects
}

func TestGenerateRankedAndFiltered(t *testing.T) {
	chars, worlds, projects := sampleEntities()
	got := GenerateLinkSuggestions(chars, worlds, projects)

	if len(got) == 0 {
		t.Fatal("expected suggestions")
	}
	for i, s := range got {
		if s.Confidence < defaultMinConfidence {
			t.Errorf("suggestion %s below min confidence: %v", s.ID, s.Confidence)
		}
		if i > 0 && got[i-1].Confidence < s.Confidence {
			t.Errorf("not sorted at %d: %v < %v", i, got[i-1].Confidence, s.Confidence)
		}
		if s.ID != s.SourceID+"-"+s.TargetID {
			t.Errorf("got id %q, want %q", s.ID, s.SourceID+"-"+s.TargetID)
		}
		if s.SourceID == "c3" {
			t.Errorf("linked character c3 should not be a source: %+v", s)
		}
		if s.Reason == "" {
			t.Errorf("suggestion %s has no reason", s.ID)
		}
	}

	ids := map[string]Suggestion{}
	for _, s := range got {
		ids[s.ID] = s
	}
	top, ok := ids["c1-w1"]
	if !ok {
		t.Fatalf("expected c1-w1 in %v", got)
	}
	if top.Reason != "Same genre: Fantasy" {
		t.Errorf("got reason %q, want %q", top.Reason, "Same genre: Fantasy")
	}
	if top.Kind != entity.KindCharacterWorld {
		t.Errorf("got kind %q, want %q", top.Kind, entity.KindCharacterWorld)
	}
	if _, ok := ids["c2-w2"]; ok {
		t.Error("disjoint horror/romance pair should not be suggested")
	}
	if _, ok := ids["w1-p1"]; !ok {
		t.Error("expected unlinked world w1 to be suggested for p1")
	}
}

func TestGenerateCapsOutput(t *testing.T) {
	var chars []entity.Character
	var worlds []entity.World
	for i := 0; i < 6; i++ {
		chars = append(chars, entity.Character{ID: fmt.Sprintf("c%d", i), Genre: "Noir"})
		worlds = append(worlds, entity.World{ID: fmt.Sprintf("w%d", i), Genre: "Noir"})
	}
	e := NewEngine(DefaultWeights())

	got := e.Generate(chars, worlds, nil, DefaultOptions())
	if len(got) != defaultMaxSuggestions {
		t.Fatalf("got %d suggestions, want %d", len(got), defaultMaxSuggestions)
	}

	opts := DefaultOptions()
	opts.MaxSuggestions = 3
	if got := e.Generate(chars, worlds, nil, opts); len(got) != 3 {
		t.Errorf("got %d suggestions, want 3", len(got))
	}

	opts.MaxSuggestions = 0
	if got := e.Generate(chars, worlds, nil, opts); len(got) != defaultMaxSuggestions {
		t.Errorf("non-positive max: got %d suggestions, want default %d", len(got), defaultMaxSuggestions)
	}
}

func TestGenerateTiesKeepEncounterOrder(t *testing.T) {
	chars := []entity.Character{{ID: "c1", Genre: "Noir"}}
	worlds := []entity.World{{ID: "wa", Genre: "Noir"}, {ID: "wb", Genre: "Noir"}, {ID: "wc", Genre: "Noir"}}
	got := NewEngine(DefaultWeights()).Generate(chars, worlds, nil, DefaultOptions())

	var order []string
	for _, s := range got {
		order = append(order, s.TargetID)
	}
	want := []string{"wa", "wb", "wc"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("got order %v, want %v", order, want)
	}
}

func TestGenerateCategoryGates(t *testing.T) {
	chars, worlds, projects := sampleEntities()
	e := NewEngine(DefaultWeights())

	opts := DefaultOptions()
	opts.IncludeProjectLinks = false
	for _, s := range e.Generate(chars, worlds, projects, opts) {
		if s.TargetType == entity.TypeProject {
			t.Errorf("project links disabled but got %s", s.ID)
		}
	}

	opts = DefaultOptions()
	opts.IncludeWorldLinks = false
	for _, s := range e.Generate(chars, worlds, projects, opts) {
		if s.Kind == entity.KindCharacterWorld {
			t.Errorf("world links disabled but got %s", s.ID)
		}
	}
}

func TestGenerateSkipsDismissed(t *testing.T) {
	chars, worlds, projects := sampleEntities()
	opts := DefaultOptions()
	opts.Dismissed = []string{"c1-w1"}

	for _, s := range NewEngine(DefaultWeights()).Generate(chars, worlds, projects, opts) {
		if s.ID == "c1-w1" {
			t.Fatal("dismissed suggestion was returned")
		}
	}
}

func TestGenerateFallbackReason(t *testing.T) {
	opts := DefaultOptions()
	opts.MinConfidence = 0
	got := NewEngine(DefaultWeights()).Generate(
		[]entity.Character{{ID: "c1", Genre: "Horror"}},
		[]entity.World{{ID: "w1", Genre: "Romance"}},
		[]entity.Project{{ID: "p1", Genre: "Western"}},
		opts,
	)
	want := map[string]string{
		"c1-w1": fallbackCharacterWorld,
		"c1-p1": fallbackCharacterProject,
		"w1-p1": fallbackWorldProject,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d suggestions, want %d", len(got), len(want))
	}
	for _, s := range got {
		if s.Reason != want[s.ID] {
			t.Errorf("%s: got reason %q, want %q", s.ID, s.Reason, want[s.ID])
		}
	}
}

func TestGenerateIdempotentAndPure(t *testing.T) {
	chars, worlds, projects := sampleEntities()
	before := fmt.Sprintf("%+v%+v%+v", chars, worlds, projects)

	first := GenerateLinkSuggestions(chars, worlds, projects)
	second := GenerateLinkSuggestions(chars, worlds, projects)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ between runs:\n%v\n%v", first, second)
	}
	if after := fmt.Sprintf("%+v%+v%+v", chars, worlds, projects); after != before {
		t.Error("inputs were mutated")
	}
}

func TestGenerateConcurrent(t *testing.T) {
	chars, worlds, projects := sampleEntities()
	want := GenerateLinkSuggestions(chars, worlds, projects)

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := GenerateLinkSuggestions(chars, worlds, projects); !reflect.DeepEqual(got, want) {
				errs <- fmt.Sprintf("got %v", got)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestForEntity(t *testing.T) {
	chars, worlds, projects := sampleEntities()

	got := GetSuggestionsForEntity("c1", entity.TypeCharacter, chars, worlds, projects)
	if len(got) == 0 {
		t.Fatal("expected suggestions for c1")
	}
	for _, s := range got {
		if s.SourceID != "c1" {
			t.Errorf("got suggestion for source %s, want only c1", s.SourceID)
		}
	}

	for _, s := range GetSuggestionsForEntity("w1", entity.TypeWorld, chars, worlds, projects) {
		if s.SourceID != "w1" || s.TargetType != entity.TypeProject {
			t.Errorf("unexpected suggestion for world w1: %+v", s)
		}
	}

	for _, s := range GetSuggestionsForEntity("p1", entity.TypeProject, chars, worlds, projects) {
		if s.TargetID != "p1" {
			t.Errorf("unexpected suggestion for project p1: %+v", s)
		}
	}
}

func TestForEntityMatchesGlobalScoring(t *testing.T) {
	chars, worlds, projects := sampleEntities()
	opts := DefaultOptions()
	opts.MaxSuggestions = 100
	e := NewEngine(DefaultWeights())

	global := map[string]float64{}
	for _, s := range e.Generate(chars, worlds, projects, opts) {
		global[s.ID] = s.Confidence
	}
	for _, s := range e.ForEntity("c1", entity.TypeCharacter, chars, worlds, projects, opts) {
		if global[s.ID] != s.Confidence {
			t.Errorf("%s: entity score %v, global score %v", s.ID, s.Confidence, global[s.ID])
		}
	}
}

func TestForEntityMissing(t *testing.T) {
	got := GetSuggestionsForEntity("missing-id", entity.TypeCharacter, nil, nil, nil)
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}
