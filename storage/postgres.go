package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"rent-estimator/models"
	"rent-estimator/utils"
)

const batchSize = 50

// PostgresStore reads listings from and persists rent estimates to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations and returns a ready-to-use store.
func NewPostgresStore(dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id          SERIAL PRIMARY KEY,
			kind        VARCHAR(10)   NOT NULL,
			url         TEXT          UNIQUE NOT NULL,
			title       TEXT          NOT NULL DEFAULT '',
			price       NUMERIC(12,2) NOT NULL DEFAULT 0,
			size_sqm    NUMERIC(8,2)  NOT NULL DEFAULT 0,
			room_type   VARCHAR(10)   NOT NULL DEFAULT '',
			location    TEXT          NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_kind      ON listings(kind);
		CREATE INDEX IF NOT EXISTS idx_listings_room_type ON listings(room_type);

		CREATE TABLE IF NOT EXISTS rental_estimates (
			url                    TEXT PRIMARY KEY,
			price                  NUMERIC(12,2) NOT NULL DEFAULT 0,
			comparable_count       INTEGER       NOT NULL DEFAULT 0,
			avg_price_per_sqm      NUMERIC(10,2) NOT NULL DEFAULT 0,
			estimated_monthly_rent NUMERIC(10,2) NOT NULL DEFAULT 0,
			estimated_annual_rent  NUMERIC(12,2) NOT NULL DEFAULT 0,
			gross_rental_yield     NUMERIC(6,2)  NOT NULL DEFAULT 0,
			reason                 TEXT          NOT NULL,
			confidence             VARCHAR(10)   NOT NULL DEFAULT 'low',
			neighborhood           TEXT          NOT NULL DEFAULT '',
			match_level            INTEGER       NOT NULL DEFAULT 0,
			clamped                BOOLEAN       NOT NULL DEFAULT FALSE,
			updated_at             TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_estimates_reason ON rental_estimates(reason);
	`)
	return err
}

// FetchListings returns every stored listing of the given kind in insertion
// order, formatted as raw rows so they go through the same cleaning as CSV
// input.
func (ps *PostgresStore) FetchListings(kind models.ListingKind) ([]*models.RawListing, error) {
	rows, err := ps.db.Query(`
		SELECT url, title, price, size_sqm, room_type, location, created_at
		FROM listings
		WHERE kind = $1
		ORDER BY id
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch %s listings: %w", kind, err)
	}
	defer rows.Close()

	var listings []*models.RawListing
	for rows.Next() {
		var (
			price, size float64
			l           = &models.RawListing{Kind: kind}
		)
		if err := rows.Scan(&l.URL, &l.Title, &price, &size, &l.RoomType, &l.Location, &l.LoadedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		l.RawPrice = strconv.FormatFloat(price, 'f', 2, 64)
		l.RawSize = strconv.FormatFloat(size, 'f', 2, 64)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// UpsertListings stores cleaned listings, replacing rows with the same URL.
func (ps *PostgresStore) UpsertListings(listings []*models.ListingRecord) error {
	return inBatches(len(listings), func(i, j int) error {
		return ps.upsertListingBatch(listings[i:j])
	})
}

func (ps *PostgresStore) upsertListingBatch(batch []*models.ListingRecord) error {
	const cols = 6
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		valueStrings = append(valueStrings, placeholders(idx*cols, cols))
		valueArgs = append(valueArgs,
			string(l.Kind), l.URL, l.Price, l.SizeSqm, l.RoomType, l.LocationRaw)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (kind, url, price, size_sqm, room_type, location)
		VALUES %s
		ON CONFLICT (url) DO UPDATE SET
			kind = EXCLUDED.kind,
			price = EXCLUDED.price,
			size_sqm = EXCLUDED.size_sqm,
			room_type = EXCLUDED.room_type,
			location = EXCLUDED.location
	`, strings.Join(valueStrings, ","))

	if _, err := ps.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert listings: %w", err)
	}
	return nil
}

// Write batch-upserts estimates keyed by target URL.
func (ps *PostgresStore) Write(estimates []*models.RentEstimate) error {
	return inBatches(len(estimates), func(i, j int) error {
		return ps.upsertEstimateBatch(estimates[i:j])
	})
}

func (ps *PostgresStore) upsertEstimateBatch(batch []*models.RentEstimate) error {
	const cols = 13
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)
	now := time.Now()

	for idx, e := range batch {
		valueStrings = append(valueStrings, placeholders(idx*cols, cols))
		valueArgs = append(valueArgs,
			e.TargetURL, e.TargetPrice, e.ComparableCount, e.AvgPricePerSqm,
			e.EstimatedMonthlyRent, e.EstimatedAnnualRent, e.GrossYieldPercent,
			e.Reason, string(e.Confidence), e.Neighborhood, e.MatchLevel, e.Clamped, now)
	}

	query := fmt.Sprintf(`
		INSERT INTO rental_estimates (
			url, price, comparable_count, avg_price_per_sqm,
			estimated_monthly_rent, estimated_annual_rent, gross_rental_yield,
			reason, confidence, neighborhood, match_level, clamped, updated_at)
		VALUES %s
		ON CONFLICT (url) DO UPDATE SET
			price = EXCLUDED.price,
			comparable_count = EXCLUDED.comparable_count,
			avg_price_per_sqm = EXCLUDED.avg_price_per_sqm,
			estimated_monthly_rent = EXCLUDED.estimated_monthly_rent,
			estimated_annual_rent = EXCLUDED.estimated_annual_rent,
			gross_rental_yield = EXCLUDED.gross_rental_yield,
			reason = EXCLUDED.reason,
			confidence = EXCLUDED.confidence,
			neighborhood = EXCLUDED.neighborhood,
			match_level = EXCLUDED.match_level,
			clamped = EXCLUDED.clamped,
			updated_at = EXCLUDED.updated_at
	`, strings.Join(valueStrings, ","))

	if _, err := ps.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: upsert estimates: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

// placeholders renders "($base+1,...,$base+n)".
func placeholders(base, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(base+i+1)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// inBatches calls fn with [i, j) windows of at most batchSize.
func inBatches(total int, fn func(i, j int) error) error {
	for i := 0; i < total; i += batchSize {
		end := i + batchSize
		if end > total {
			end = total
		}
		if err := fn(i, end); err != nil {
			return err
		}
	}
	return nil
}
