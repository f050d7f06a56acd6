package location

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"rent-estimator/models"
)

// StringSimilarity scores two normalized strings on a 0-100 scale. Scores must
// be symmetric and return 100 for identical non-empty input.
type StringSimilarity interface {
	Similarity(a, b string) int
}

const (
	AlgorithmLevenshtein = "levenshtein"
	AlgorithmJaroWinkler = "jaro_winkler"
)

// NewStringSimilarity returns the implementation registered under name. An
// empty name selects the Levenshtein ratio.
func NewStringSimilarity(name string) (StringSimilarity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AlgorithmLevenshtein:
		return LevenshteinRatio{}, nil
	case AlgorithmJaroWinkler:
		return JaroWinklerRatio{}, nil
	default:
		return nil, fmt.Errorf("location: unknown similarity algorithm %q", name)
	}
}

// LevenshteinRatio is a token-sort ratio: tokens of each side are sorted
// before comparing, so word order does not matter.
type LevenshteinRatio struct{}

func (LevenshteinRatio) Similarity(a, b string) int {
	a, b, done, score := prepareTokenSort(a, b)
	if done {
		return score
	}
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	dist := levenshtein.ComputeDistance(a, b)
	return toPercent(1 - float64(dist)/float64(longest))
}

// JaroWinklerRatio is the token-sort variant built on Jaro-Winkler distance.
// It rewards shared prefixes, which suits truncated street names.
type JaroWinklerRatio struct{}

func (JaroWinklerRatio) Similarity(a, b string) int {
	a, b, done, score := prepareTokenSort(a, b)
	if done {
		return score
	}
	return toPercent(smetrics.JaroWinkler(a, b, 0.7, 4))
}

// prepareTokenSort sorts tokens on both sides and puts the pair in a fixed
// order so that every implementation is symmetric.
func prepareTokenSort(a, b string) (string, string, bool, int) {
	a, b = sortTokens(a), sortTokens(b)
	if a == "" || b == "" {
		return a, b, true, 0
	}
	if a == b {
		return a, b, true, 100
	}
	if b < a {
		a, b = b, a
	}
	return a, b, false, 0
}

func sortTokens(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func toPercent(r float64) int {
	p := int(math.Round(r * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// foldSegment lowercases, strips diacritics and collapses whitespace.
func foldSegment(s string) string {
	return strings.Join(strings.Fields(fold(s)), " ")
}

// Scorer implements the two-tier location similarity: an exact match on any
// comma-separated segment scores 100, anything else falls through to the
// fuzzy StringSimilarity over normalized text.
type Scorer struct {
	norm *Normalizer
	sim  StringSimilarity
}

// NewScorer builds a Scorer. sim may differ from the one the normalizer uses
// for neighborhood lookup; nil selects LevenshteinRatio.
func NewScorer(norm *Normalizer, sim StringSimilarity) *Scorer {
	if sim == nil {
		sim = LevenshteinRatio{}
	}
	return &Scorer{norm: norm, sim: sim}
}

// Score returns the similarity of two raw locations in [0,100].
func (s *Scorer) Score(a, b string) int {
	return s.score(a, b, "", "")
}

// ScoreListings is Score over two records, reusing their cached normalized
// locations when present.
func (s *Scorer) ScoreListings(a, b *models.ListingRecord) int {
	return s.score(a.LocationRaw, b.LocationRaw, a.LocationNormalized, b.LocationNormalized)
}

func (s *Scorer) score(a, b, normA, normB string) int {
	fa, fb := foldSegment(a), foldSegment(b)
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 100
	}

	segsB := s.segments(b)
	for seg := range s.segments(a) {
		if _, ok := segsB[seg]; ok {
			return 100
		}
	}

	if normA == "" {
		normA = s.norm.Normalize(a)
	}
	if normB == "" {
		normB = s.norm.Normalize(b)
	}
	return s.sim.Similarity(normA, normB)
}

func (s *Scorer) segments(raw string) map[string]struct{} {
	parts := strings.Split(raw, ",")
	out := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		seg := foldSegment(p)
		if seg == "" {
			continue
		}
		if _, skip := s.norm.ignore[seg]; skip {
			continue
		}
		out[seg] = struct{}{}
	}
	return out
}
