package match

import (
	"testing"
	"time"
)

type fixedScorer struct {
	scores map[string]float64
	calls  int
}

func (f *fixedScorer) ScoreAll(_ string, candidates []string) []Candidate {
	f.calls++
	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = Candidate{Key: c, Score: f.scores[c]}
	}
	return out
}

func TestMatchEmptyCatalogSkipsScorer(t *testing.T) {
	t.Parallel()

	s := &fixedScorer{}
	m := NewMatcher(s, DefaultThresholds())
	if out := m.Match("anything", nil); out.Kind != NoMatch {
		t.Fatalf("expected NoMatch, got %s", out.Kind)
	}
	if out := m.Match("", []string{"a"}); out.Kind != NoMatch {
		t.Fatalf("expected NoMatch for empty query, got %s", out.Kind)
	}
	if s.calls != 0 {
		t.Fatalf("scorer should not run, ran %d times", s.calls)
	}
}

func TestMatchThresholds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		scores map[string]float64
		keys   []string
		want   Kind
		first  string
		count  int
	}{
		{"single above high", map[string]float64{"a": 97, "b": 40}, []string{"a", "b"}, Confident, "a", 1},
		{"single between low and high", map[string]float64{"a": 88}, []string{"a"}, Ambiguous, "a", 1},
		{"two above low", map[string]float64{"a": 99, "b": 81}, []string{"a", "b"}, Ambiguous, "a", 2},
		{"two above high", map[string]float64{"a": 100, "b": 100}, []string{"a", "b"}, Ambiguous, "a", 2},
		{"broad only", map[string]float64{"a": 61, "b": 79, "c": 10}, []string{"a", "b", "c"}, Suggestions, "b", 2},
		{"nothing", map[string]float64{"a": 59.9}, []string{"a"}, NoMatch, "", 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := NewMatcher(&fixedScorer{scores: tc.scores}, DefaultThresholds())
			out := m.Match("q", tc.keys)
			if out.Kind != tc.want {
				t.Fatalf("kind = %s, want %s", out.Kind, tc.want)
			}
			if len(out.Candidates) != tc.count {
				t.Fatalf("candidates = %d, want %d", len(out.Candidates), tc.count)
			}
			if tc.count > 0 && out.Candidates[0].Key != tc.first {
				t.Fatalf("first = %s, want %s", out.Candidates[0].Key, tc.first)
			}
			if out.Kind == Confident && out.Key != tc.first {
				t.Fatalf("confident key = %s, want %s", out.Key, tc.first)
			}
		})
	}
}

func TestMatchSuggestionsCappedAndStable(t *testing.T) {
	t.Parallel()

	scores := map[string]float64{"a": 70, "b": 70, "c": 75, "d": 70, "e": 65, "f": 70, "g": 70}
	keys := []string{"a", "b", "c", "d", "e", "f", "g"}
	out := NewMatcher(&fixedScorer{scores: scores}, DefaultThresholds()).Match("q", keys)
	if out.Kind != Suggestions {
		t.Fatalf("expected Suggestions, got %s", out.Kind)
	}
	got := make([]string, 0, len(out.Candidates))
	for _, c := range out.Candidates {
		got = append(got, c.Key)
	}
	want := []string{"c", "a", "b", "d", "f"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMatchWithLevenshteinScorer(t *testing.T) {
	t.Parallel()

	m := NewMatcher(LevenshteinScorer{}, DefaultThresholds())

	if out := m.Match("amaran", []string{"amaran (2024)"}); out.Kind != Confident || out.Key != "amaran (2024)" {
		t.Fatalf("expected confident amaran, got %+v", out)
	}
	if out := m.Match("amaran 2", []string{"amaran (2024)"}); out.Kind == Confident || out.Kind == Ambiguous {
		t.Fatalf("sequel-like query must not clear the low threshold, got %+v", out)
	}
	if out := m.Match("movie name", []string{"movie name (2025)", "leo (2023)"}); out.Kind != Confident {
		t.Fatalf("expected confident, got %+v", out)
	}
	out := m.Match("leo", []string{"leo (2023)", "leo 2 (2025)"})
	if out.Kind != Ambiguous || len(out.Candidates) != 2 || out.Candidates[0].Key != "leo (2023)" {
		t.Fatalf("expected ambiguous leo, got %+v", out)
	}
	if out := m.Match("zzzz", []string{"amaran (2024)"}); out.Kind != NoMatch {
		t.Fatalf("expected no match, got %+v", out)
	}
}

func TestCacheKeyedByGeneration(t *testing.T) {
	t.Parallel()

	c := NewCache(4, time.Minute)
	c.Add(1, "leo", Outcome{Kind: Confident, Key: "leo"})
	if out, ok := c.Get(1, "leo"); !ok || out.Key != "leo" {
		t.Fatalf("expected hit, got %+v %v", out, ok)
	}
	if _, ok := c.Get(2, "leo"); ok {
		t.Fatal("newer generation must miss")
	}

	disabled := NewCache(0, time.Minute)
	disabled.Add(1, "leo", Outcome{Kind: Confident})
	if _, ok := disabled.Get(1, "leo"); ok || disabled.Len() != 0 {
		t.Fatal("disabled cache should never hit")
	}
}
