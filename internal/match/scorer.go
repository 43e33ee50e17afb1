package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Candidate is a catalog key with its similarity to a query, in [0,100].
type Candidate struct {
	Key   string
	Score float64
}

// Scorer rates every candidate against a query. Results keep the input
// order; ranking is the matcher's job.
type Scorer interface {
	ScoreAll(query string, candidates []string) []Candidate
}

var yearSuffix = regexp.MustCompile(`\s*\(\d{4}\)`)

const (
	partialLengthRatio = 1.5
	partialWeight      = 0.9
	partialMinRunes    = 3
)

// LevenshteinScorer scores by edit distance. A candidate is compared in two
// forms, with its parenthesized year dropped and with only the parentheses
// dropped, and the better form wins. Queries much shorter than the candidate
// also get a discounted best-window score so a title fragment still ranks.
type LevenshteinScorer struct{}

func (LevenshteinScorer) ScoreAll(query string, candidates []string) []Candidate {
	q := stripParens(query)
	out := make([]Candidate, len(candidates))
	for i, key := range candidates {
		out[i] = Candidate{Key: key, Score: score(q, key)}
	}
	return out
}

func score(query, key string) float64 {
	best := 0.0
	for _, form := range []string{
		strings.Join(strings.Fields(yearSuffix.ReplaceAllString(key, "")), " "),
		stripParens(key),
	} {
		if s := formScore(query, form); s > best {
			best = s
		}
	}
	return best
}

func formScore(a, b string) float64 {
	s := ratio(a, b)
	if ts := ratio(sortTokens(a), sortTokens(b)); ts > s {
		s = ts
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) >= partialMinRunes && float64(len(long)) >= partialLengthRatio*float64(len(short)) {
		if p := partialWeight * partialRatio(short, long); p > s {
			s = p
		}
	}
	return s
}

// ratio is 100 for identical strings and falls linearly with edit distance.
func ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

func partialRatio(short, long []rune) float64 {
	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := ratio(s, string(long[i:i+len(short)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func stripParens(s string) string {
	s = strings.NewReplacer("(", " ", ")", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
