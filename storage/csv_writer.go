package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"rent-estimator/models"
)

// EstimateCSVWriter writes rent estimates to a CSV report.
// It is safe for concurrent use.
type EstimateCSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewEstimateCSVWriter creates (or truncates) the CSV file at the given path
// and writes the header row. Intermediate directories are created automatically.
func NewEstimateCSVWriter(path string) (*EstimateCSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"url", "price", "comparable_count", "avg_price_per_sqm",
		"estimated_monthly_rent", "estimated_annual_rent", "gross_rental_yield", "reason",
		"confidence", "neighborhood", "match_level", "raw_monthly_rent", "clamp_steps",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &EstimateCSVWriter{file: f, writer: w}, nil
}

// Write appends one row per estimate.
func (c *EstimateCSVWriter) Write(estimates []*models.RentEstimate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range estimates {
		row := []string{
			e.TargetURL,
			money(e.TargetPrice),
			strconv.Itoa(e.ComparableCount),
			money(e.AvgPricePerSqm),
			money(e.EstimatedMonthlyRent),
			money(e.EstimatedAnnualRent),
			money(e.GrossYieldPercent),
			e.Reason,
			string(e.Confidence),
			e.Neighborhood,
			strconv.Itoa(e.MatchLevel),
			money(e.RawMonthlyRent),
			strings.Join(e.ClampSteps, "|"),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *EstimateCSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
