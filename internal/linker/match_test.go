package linker

import (
	"math"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"elara", "", 5},
		{"elara", "elara", 0},
		{"elara", "elora", 1},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNameSimilarity(t *testing.T) {
	if got := NameSimilarity("Elara", " elara "); got != 1 {
		t.Errorf("got %v, want 1 for case/space variants", got)
	}
	if got := NameSimilarity("", "Elara"); got != 0 {
		t.Errorf("got %v, want 0 for empty name", got)
	}
	if got := NameSimilarity("Elara", "Elora"); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("got %v, want 0.8", got)
	}
}

func TestFindBestMatch(t *testing.T) {
	candidates := []Candidate{
		{ID: "c1", Name: "Elora"},
		{ID: "c2", Name: "Elara"},
		{ID: "c3", Name: "Brann"},
	}

	m := FindBestMatch("elara", candidates, 0)
	if m == nil || m.ID != "c2" || m.Score != 1 {
		t.Fatalf("got %+v, want exact match c2", m)
	}

	m = FindBestMatch("Elura", candidates, 0)
	if m == nil || m.ID != "c1" {
		t.Fatalf("got %+v, want first of tied candidates c1", m)
	}

	if m := FindBestMatch("Zoltan", candidates, 0); m != nil {
		t.Errorf("got %+v, want nil when nothing qualifies", m)
	}
	if m := FindBestMatch("Elara", nil, 0.5); m != nil {
		t.Errorf("got %+v, want nil for no candidates", m)
	}
}

func TestSearchNames(t *testing.T) {
	candidates := []Candidate{
		{ID: "w1", Name: "Virelith"},
		{ID: "w2", Name: "Saltmere"},
		{ID: "w3", Name: "Vale of Irith"},
	}

	got := SearchNames("vir", candidates, 0)
	if len(got) == 0 || got[0].ID != "w1" {
		t.Fatalf("got %+v, want Virelith first", got)
	}
	if got[0].Score != 1 {
		t.Errorf("got top score %v, want 1", got[0].Score)
	}
	for _, m := range got {
		if m.ID == "w2" {
			t.Errorf("Saltmere should not match %q", "vir")
		}
	}

	if got := SearchNames("", candidates, 0); len(got) != 0 {
		t.Errorf("got %v for empty query, want none", got)
	}
	if got := SearchNames("i", candidates, 1); len(got) != 1 {
		t.Errorf("got %d hits, want limit 1", len(got))
	}
}
