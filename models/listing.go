package models

import "time"

// ListingKind distinguishes properties for sale (estimation targets) from
// rental listings (the comparable corpus).
type ListingKind string

const (
	KindSale   ListingKind = "sale"
	KindRental ListingKind = "rental"
)

// RawListing holds an unprocessed listing row exactly as exported by the
// upstream collectors. Prices and sizes are still free text here.
type RawListing struct {
	Kind     ListingKind
	URL      string
	Title    string
	RawPrice string
	RawSize  string
	RoomType string
	Location string
	Details  string
	LoadedAt time.Time
}

// ListingRecord is a cleaned property. For sales Price is the asking price,
// for rentals it is the monthly rent.
type ListingRecord struct {
	Kind     ListingKind
	URL      string
	Price    float64
	SizeSqm  float64
	RoomType string

	LocationRaw string
	// Derived once by the cleaner and cached. Empty means not computed yet.
	LocationNormalized string
	Neighborhood       string
}

// PricePerSqm returns price divided by size, or 0 when either is unusable.
func (l *ListingRecord) PricePerSqm() float64 {
	if l.Price <= 0 || l.SizeSqm <= 0 {
		return 0
	}
	return l.Price / l.SizeSqm
}

// Usable reports whether the record has the positive price and size needed to
// act as a comparable or a valid target.
func (l *ListingRecord) Usable() bool {
	return l.Price > 0 && l.SizeSqm > 0
}
