// Package match resolves a normalized query against catalog keys.
package match

import "sort"

// Kind classifies a match outcome.
type Kind int

const (
	NoMatch Kind = iota
	Confident
	Ambiguous
	Suggestions
)

func (k Kind) String() string {
	switch k {
	case Confident:
		return "confident"
	case Ambiguous:
		return "ambiguous"
	case Suggestions:
		return "suggestions"
	default:
		return "no_match"
	}
}

// Outcome is the matcher's decision. Key is set only for Confident;
// Candidates is sorted by descending score for Ambiguous and Suggestions.
type Outcome struct {
	Kind       Kind
	Key        string
	Candidates []Candidate
}

// Thresholds are scores in [0,100]. High >= Low >= Broad.
type Thresholds struct {
	High             float64
	Low              float64
	Broad            float64
	SuggestionsLimit int
}

func DefaultThresholds() Thresholds {
	return Thresholds{High: 95, Low: 80, Broad: 60, SuggestionsLimit: 5}
}

type Matcher struct {
	scorer     Scorer
	thresholds Thresholds
}

func NewMatcher(scorer Scorer, thresholds Thresholds) *Matcher {
	if scorer == nil {
		scorer = LevenshteinScorer{}
	}
	if thresholds.SuggestionsLimit <= 0 {
		thresholds.SuggestionsLimit = DefaultThresholds().SuggestionsLimit
	}
	return &Matcher{scorer: scorer, thresholds: thresholds}
}

// Match ranks keys against query. Both sides must already be normalized.
// Ties keep the order of keys.
func (m *Matcher) Match(query string, keys []string) Outcome {
	if len(keys) == 0 || query == "" {
		return Outcome{Kind: NoMatch}
	}
	scored := m.scorer.ScoreAll(query, keys)
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	var strong []Candidate
	for _, c := range scored {
		if c.Score >= m.thresholds.Low {
			strong = append(strong, c)
		}
	}
	switch {
	case len(strong) == 1 && strong[0].Score >= m.thresholds.High:
		return Outcome{Kind: Confident, Key: strong[0].Key, Candidates: strong}
	case len(strong) > 0:
		return Outcome{Kind: Ambiguous, Candidates: strong}
	}

	var broad []Candidate
	for _, c := range scored {
		if c.Score < m.thresholds.Broad || len(broad) == m.thresholds.SuggestionsLimit {
			break
		}
		broad = append(broad, c)
	}
	if len(broad) == 0 {
		return Outcome{Kind: NoMatch}
	}
	return Outcome{Kind: Suggestions, Candidates: broad}
}
