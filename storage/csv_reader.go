package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"rent-estimator/models"
)

// column aliases accepted in listing exports, first match wins
var columnAliases = map[string][]string{
	"url":       {"url", "link", "href"},
	"title":     {"title", "name"},
	"price":     {"price", "raw_price", "preco", "rent"},
	"size":      {"size", "area", "size_sqm", "area_m2"},
	"room_type": {"room_type", "rooms", "typology", "tipologia"},
	"location":  {"location", "address", "localizacao"},
	"details":   {"details", "description", "features"},
}

// CSVListingSource reads listing exports from CSV files, one per kind.
type CSVListingSource struct {
	paths map[models.ListingKind]string
}

// NewCSVListingSource maps each listing kind to its CSV file.
func NewCSVListingSource(salesPath, rentalsPath string) *CSVListingSource {
	return &CSVListingSource{paths: map[models.ListingKind]string{
		models.KindSale:   salesPath,
		models.KindRental: rentalsPath,
	}}
}

// FetchListings reads every row of the file configured for kind.
func (s *CSVListingSource) FetchListings(kind models.ListingKind) ([]*models.RawListing, error) {
	path, ok := s.paths[kind]
	if !ok || path == "" {
		return nil, fmt.Errorf("csv: no file configured for %s listings", kind)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	listings, err := ReadListings(f, kind)
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	return listings, nil
}

func (s *CSVListingSource) Close() error { return nil }

// ReadListings parses a header-driven CSV. The url and price columns are
// required; the rest are optional.
func ReadListings(r io.Reader, kind models.ListingKind) ([]*models.RawListing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, fmt.Errorf("header: %w", err)
	}

	cols := resolveColumns(header)
	for _, required := range []string{"url", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	now := time.Now()
	var out []*models.RawListing
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		out = append(out, &models.RawListing{
			Kind:     kind,
			URL:      get("url"),
			Title:    get("title"),
			RawPrice: get("price"),
			RawSize:  get("size"),
			RoomType: get("room_type"),
			Location: get("location"),
			Details:  get("details"),
			LoadedAt: now,
		})
	}
	return out, nil
}

func resolveColumns(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	cols := make(map[string]int)
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := index[a]; ok {
				cols[field] = i
				break
			}
		}
	}
	return cols
}
