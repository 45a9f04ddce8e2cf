package linker

import (
	"math"
	"math/rand"
	"testing"
)

func TestKeywordSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, nil, 0},
		{"left empty", nil, []string{"storm"}, 0},
		{"right empty", []string{"storm"}, []string{}, 0},
		{"disjoint", []string{"storm", "harbor"}, []string{"wedding", "beach"}, 0},
		{"identical", []string{"storm", "harbor"}, []string{"storm", "harbor"}, 1},
		{"identical as sets", []string{"storm", "harbor", "storm"}, []string{"harbor", "storm"}, 1},
		{"half overlap", []string{"storm", "harbor", "sailor"}, []string{"storm", "harbor", "kingdom"}, 0.5},
		{"one of three", []string{"storm", "harbor"}, []string{"storm", "kingdom"}, 1.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeywordSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("KeywordSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestKeywordSimilarityProperties(t *testing.T) {
	vocab := []string{"storm", "harbor", "sailor", "kingdom", "dragon", "tower", "glass", "tide"}
	rng := rand.New(rand.NewSource(7))
	pick := func() []string {
		n := rng.Intn(6)
		out := make([]string, n)
		for i := range out {
			out[i] = vocab[rng.Intn(len(vocab))]
		}
		return out
	}

	for i := 0; i < 500; i++ {
		a, b := pick(), pick()
		ab, ba := KeywordSimilarity(a, b), KeywordSimilarity(b, a)
		if ab != ba {
			t.Fatalf("not symmetric for %v / %v: %v vs %v", a, b, ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf("out of range for %v / %v: %v", a, b, ab)
		}
		if (len(a) == 0 || len(b) == 0) && ab != 0 {
			t.Fatalf("expected 0 with an empty side, got %v", ab)
		}
		if ab == 1 && !sameSet(a, b) {
			t.Fatalf("similarity 1 for different sets %v / %v", a, b)
		}
	}
}

func sameSet(a, b []string) bool {
	as := map[string]bool{}
	for _, w := range a {
		as[w] = true
	}
	bs := map[string]bool{}
	for _, w := range b {
		bs[w] = true
	}
	if len(as) != len(bs) || len(as) == 0 {
		return false
	}
	for w := range as {
		if !bs[w] {
			return false
		}
	}
	return true
}

func TestContainsFold(t *testing.T) {
	if containsFold("Elara was born here", "") {
		t.Error("empty needle must not match")
	}
	if containsFold("", "Elara") {
		t.Error("empty haystack must not match")
	}
	if !containsFold("ELARA was born here", "elara") {
		t.Error("expected case-insensitive match")
	}
	if sameFold("Fantasy ", "fantasy") {
		t.Error("surrounding whitespace must keep genres distinct")
	}
	if !containsFold("Fantasy ", "fantasy") {
		t.Error("expected padded genre to contain the bare one")
	}
	if sameFold("", "") {
		t.Error("two empty strings must not count as equal genres")
	}
}
