package location

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// DefaultFuzzyNeighborhoodThreshold is the minimum score for the comma-segment
// heuristic to accept a misspelt neighborhood.
const DefaultFuzzyNeighborhoodThreshold = 85

var (
	// house numbers ("25", "3a") and ordinals ("2nd", "3o")
	numberTokenRegexp = regexp.MustCompile(`^\d+(?:[a-z]|st|nd|rd|th)?$`)

	streetTypes = toSet(
		"rua", "r", "avenida", "av", "avda", "avenue", "ave",
		"travessa", "tv", "trav", "largo", "lg", "praca", "pc", "pca",
		"estrada", "beco", "calcada", "escadinhas",
		"street", "st", "road", "rd", "square", "sq", "lane",
	)
	floorWords = toSet("floor", "andar", "piso", "esq", "esquerdo", "dto", "direito", "rc", "cave")
	stopWords  = toSet("de", "do", "da", "dos", "das", "e", "o", "a", "os", "as", "em", "no", "na", "the", "of", "in")
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// fold lowercases and strips diacritics.
func fold(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}

// tokenize folds s and splits it on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Normalizer canonicalises free-text locations and resolves them to a
// neighborhood from its Table.
type Normalizer struct {
	table          Table
	sim            StringSimilarity
	fuzzyThreshold int
	names          []entry
	synonyms       []entry
	ignore         map[string]struct{}
}

// NewNormalizer builds a Normalizer over table. sim is used by the fuzzy
// segment fallback of ExtractNeighborhood; nil selects LevenshteinRatio.
func NewNormalizer(table Table, sim StringSimilarity) *Normalizer {
	if sim == nil {
		sim = LevenshteinRatio{}
	}

	names := make(map[string]string, len(table.Names))
	for _, n := range table.Names {
		names[n] = n
	}

	ignore := make(map[string]struct{}, len(table.IgnoreSegments))
	for _, seg := range table.IgnoreSegments {
		if f := foldSegment(seg); f != "" {
			ignore[f] = struct{}{}
		}
	}

	return &Normalizer{
		table:          table,
		sim:            sim,
		fuzzyThreshold: DefaultFuzzyNeighborhoodThreshold,
		names:          buildEntries(names),
		synonyms:       buildEntries(table.Synonyms),
		ignore:         ignore,
	}
}

// TableVersion reports the version of the lookup data in use.
func (n *Normalizer) TableVersion() string {
	return n.table.Version
}

// Normalize reduces a raw location to its distinguishing tokens: folded,
// lowercase, without street types, house numbers, floor indicators,
// stop words or punctuation.
func (n *Normalizer) Normalize(raw string) string {
	tokens := tokenize(raw)
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, ok := streetTypes[tok]; ok {
			continue
		}
		if _, ok := floorWords[tok]; ok {
			continue
		}
		if _, ok := stopWords[tok]; ok {
			continue
		}
		if numberTokenRegexp.MatchString(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// ExtractNeighborhood resolves raw to a canonical neighborhood name. The
// second return value is false when nothing matched; callers must treat that
// as unknown, not as a mismatch.
func (n *Normalizer) ExtractNeighborhood(raw string) (string, bool) {
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return "", false
	}
	padded := " " + strings.Join(tokens, " ") + " "

	for _, e := range n.names {
		if strings.Contains(padded, " "+e.key+" ") {
			return e.canonical, true
		}
	}
	for _, e := range n.synonyms {
		if strings.Contains(padded, " "+e.key+" ") {
			return e.canonical, true
		}
	}

	segments := strings.Split(raw, ",")
	for back := 1; back <= 2 && back <= len(segments); back++ {
		seg := strings.Join(tokenize(segments[len(segments)-back]), " ")
		if seg == "" {
			continue
		}
		if name, ok := n.closestName(seg); ok {
			return name, true
		}
	}
	return "", false
}

func (n *Normalizer) closestName(seg string) (string, bool) {
	best, bestScore := "", -1
	for _, e := range n.names {
		if score := n.sim.Similarity(seg, e.key); score > bestScore {
			best, bestScore = e.canonical, score
		}
	}
	if bestScore < n.fuzzyThreshold {
		return "", false
	}
	return best, true
}
