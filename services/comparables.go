package services

import (
	"math"
	"sort"
	"strings"

	"rent-estimator/location"
	"rent-estimator/models"
	"rent-estimator/utils"
)

// LocationScorer scores two listings' locations on a 0-100 scale.
type LocationScorer interface {
	ScoreListings(a, b *models.ListingRecord) int
}

// ComparableFilter selects rentals that resemble a target. It never relaxes
// its own parameters; relaxation is the caller's fallback chain.
type ComparableFilter struct {
	scorer LocationScorer
	logger *utils.Logger
}

// NewComparableFilter creates a filter scoring locations with scorer.
func NewComparableFilter(scorer LocationScorer, logger *utils.Logger) *ComparableFilter {
	return &ComparableFilter{scorer: scorer, logger: logger}
}

// Filter returns the corpus entries passing every predicate, in corpus order.
// params must already be validated.
func (f *ComparableFilter) Filter(target *models.ListingRecord, corpus []*models.ListingRecord, params models.MatchParameters) []models.Candidate {
	var out []models.Candidate
	for _, c := range corpus {
		if cand, ok := f.evaluate(target, c, params); ok {
			out = append(out, cand)
		}
	}
	return out
}

// FilterIndexed is Filter restricted to the index's pre-selected positions.
// It returns exactly what Filter would over the indexed corpus.
func (f *ComparableFilter) FilterIndexed(target *models.ListingRecord, idx *CorpusIndex, params models.MatchParameters) []models.Candidate {
	var out []models.Candidate
	for _, pos := range idx.Positions(target, params) {
		if cand, ok := f.evaluate(target, idx.corpus[pos], params); ok {
			out = append(out, cand)
		}
	}
	return out
}

func (f *ComparableFilter) evaluate(target, c *models.ListingRecord, params models.MatchParameters) (models.Candidate, bool) {
	if target.SizeSqm > 0 {
		lo, hi := sizeWindow(target.SizeSqm, params.SizeRangePercent)
		if c.SizeSqm < lo || c.SizeSqm > hi {
			return models.Candidate{}, false
		}
	}

	if params.RequireRoomTypeMatch {
		tr, cr := normalizeRoomType(target.RoomType), normalizeRoomType(c.RoomType)
		if tr != "" && cr != "" && tr != cr {
			return models.Candidate{}, false
		}
	}

	sim := f.scorer.ScoreListings(target, c)
	if sim < params.LocationSimilarityThreshold {
		return models.Candidate{}, false
	}

	return models.Candidate{
		Listing:            c,
		SizeDiffFraction:   sizeDiffFraction(target.SizeSqm, c.SizeSqm),
		LocationSimilarity: sim,
	}, true
}

func sizeWindow(size, pct float64) (float64, float64) {
	return size * (1 - pct/100), size * (1 + pct/100)
}

func sizeDiffFraction(target, cand float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Abs(target-cand) / target
}

func normalizeRoomType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// defaultSizeBucket is the width in square metres of one index bucket.
const defaultSizeBucket = 10.0

type indexKey struct {
	room   string
	bucket int
}

// CorpusIndex pre-buckets a rental corpus by room type and size so the
// filter only scans plausible rentals. It is read-only after construction and
// safe for concurrent use.
type CorpusIndex struct {
	corpus     []*models.ListingRecord
	bucketSize float64
	keys       []indexKey
	positions  map[indexKey][]int
}

// NewCorpusIndex indexes corpus. The slice must not be modified afterwards.
func NewCorpusIndex(corpus []*models.ListingRecord) *CorpusIndex {
	idx := &CorpusIndex{
		corpus:     corpus,
		bucketSize: defaultSizeBucket,
		positions:  make(map[indexKey][]int),
	}
	for i, c := range corpus {
		k := indexKey{room: normalizeRoomType(c.RoomType), bucket: idx.bucket(c.SizeSqm)}
		if _, ok := idx.positions[k]; !ok {
			idx.keys = append(idx.keys, k)
		}
		idx.positions[k] = append(idx.positions[k], i)
	}
	sort.Slice(idx.keys, func(i, j int) bool {
		if idx.keys[i].room != idx.keys[j].room {
			return idx.keys[i].room < idx.keys[j].room
		}
		return idx.keys[i].bucket < idx.keys[j].bucket
	})
	return idx
}

// Len returns the number of indexed rentals.
func (idx *CorpusIndex) Len() int {
	return len(idx.corpus)
}

// Corpus returns the indexed rentals in insertion order.
func (idx *CorpusIndex) Corpus() []*models.ListingRecord {
	return idx.corpus
}

func (idx *CorpusIndex) bucket(size float64) int {
	return int(math.Floor(size / idx.bucketSize))
}

// Positions returns, in ascending corpus order, every position that could
// pass the size and room predicates for target.
func (idx *CorpusIndex) Positions(target *models.ListingRecord, params models.MatchParameters) []int {
	if target.SizeSqm <= 0 {
		all := make([]int, len(idx.corpus))
		for i := range all {
			all[i] = i
		}
		return all
	}

	lo, hi := sizeWindow(target.SizeSqm, params.SizeRangePercent)
	bLo, bHi := idx.bucket(lo), idx.bucket(hi)
	room := normalizeRoomType(target.RoomType)
	filterRoom := params.RequireRoomTypeMatch && room != ""

	var out []int
	for _, k := range idx.keys {
		if k.bucket < bLo || k.bucket > bHi {
			continue
		}
		if filterRoom && k.room != "" && k.room != room {
			continue
		}
		out = append(out, idx.positions[k]...)
	}
	sort.Ints(out)
	return out
}

// compile-time check that the location scorer satisfies the filter's needs.
var _ LocationScorer = (*location.Scorer)(nil)
