package storage

import "rent-estimator/models"

// ListingSource is any backend that can supply listings of one kind.
type ListingSource interface {
	FetchListings(kind models.ListingKind) ([]*models.RawListing, error)
	Close() error
}

// EstimateWriter is the interface any estimate sink must satisfy.
type EstimateWriter interface {
	Write(estimates []*models.RentEstimate) error
	Close() error
}
