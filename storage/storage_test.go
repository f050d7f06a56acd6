package storage

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"rent-estimator/models"
)

func TestReadListings(t *testing.T) {
	in := "\ufeffURL,Price,Area,Tipologia,Address,Description\n" +
		"https://example.pt/1,\"350.000 €\",75 m²,T2,\"Rua da Prata, Baixa\",bright\n" +
		"https://example.pt/2,1.100 €,,T1,Alfama\n"

	got, err := ReadListings(strings.NewReader(in), models.KindSale)
	if err != nil {
		t.Fatalf("ReadListings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows: got %d, want 2", len(got))
	}
	first := got[0]
	if first.URL != "https://example.pt/1" || first.RawPrice != "350.000 €" || first.RawSize != "75 m²" {
		t.Errorf("first row: got %+v", first)
	}
	if first.Location != "Rua da Prata, Baixa" || first.RoomType != "T2" || first.Details != "bright" {
		t.Errorf("first row optional fields: got %+v", first)
	}
	if got[1].Details != "" || got[1].Kind != models.KindSale {
		t.Errorf("short row: got %+v", got[1])
	}
}

func TestReadListingsRequiresColumns(t *testing.T) {
	if _, err := ReadListings(strings.NewReader("url,location\nx,y\n"), models.KindRental); err == nil {
		t.Error("expected error for missing price column")
	}
	if _, err := ReadListings(strings.NewReader(""), models.KindRental); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestCSVListingSource(t *testing.T) {
	dir := t.TempDir()
	rentals := filepath.Join(dir, "rentals.csv")
	if err := os.WriteFile(rentals, []byte("url,price,size\nr/1,900,50\n"), 0644); err != nil {
		t.Fatal(err)
	}

	src := NewCSVListingSource("", rentals)
	got, err := src.FetchListings(models.KindRental)
	if err != nil {
		t.Fatalf("FetchListings: %v", err)
	}
	if len(got) != 1 || got[0].Kind != models.KindRental {
		t.Errorf("got %+v", got)
	}
	if _, err := src.FetchListings(models.KindSale); err == nil {
		t.Error("expected error for unconfigured sales file")
	}
}

func sampleEstimates() []*models.RentEstimate {
	return []*models.RentEstimate{
		{TargetURL: "s/1", TargetPrice: 300000, ComparableCount: 3, AvgPricePerSqm: 15.48,
			EstimatedMonthlyRent: 1083.8, EstimatedAnnualRent: 13005.6, GrossYieldPercent: 4.34,
			Reason: models.ReasonValid, Confidence: models.ConfidenceMedium, Neighborhood: "Alfama"},
		{TargetURL: "s/2", TargetPrice: 100000, ComparableCount: 1,
			Reason: models.ReasonInsufficient(1), Confidence: models.ConfidenceLow,
			ClampSteps: nil},
	}
}

func TestEstimateCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "estimates.csv")
	w, err := NewEstimateCSVWriter(path)
	if err != nil {
		t.Fatalf("NewEstimateCSVWriter: %v", err)
	}
	if err := w.Write(sampleEstimates()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(rows))
	}
	wantHead := []string{"url", "price", "comparable_count", "avg_price_per_sqm",
		"estimated_monthly_rent", "estimated_annual_rent", "gross_rental_yield", "reason"}
	if !reflect.DeepEqual(rows[0][:8], wantHead) {
		t.Errorf("header: got %v", rows[0][:8])
	}
	if rows[1][4] != "1083.80" || rows[2][7] != "Insufficient comparables (1)" {
		t.Errorf("data rows: got %v / %v", rows[1], rows[2])
	}
}

func TestWriteJSONReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteJSONReport(path, sampleEstimates()); err != nil {
		t.Fatalf("WriteJSONReport: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["s/1"]["reason"] != models.ReasonValid {
		t.Errorf("s/1 reason: got %v", got["s/1"]["reason"])
	}
	if got["s/2"]["comparable_count"] != float64(1) {
		t.Errorf("s/2 comparable_count: got %v", got["s/2"]["comparable_count"])
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(6, 3); got != "($7,$8,$9)" {
		t.Errorf("placeholders: got %q", got)
	}
}

func TestInBatches(t *testing.T) {
	var windows [][2]int
	_ = inBatches(120, func(i, j int) error {
		windows = append(windows, [2]int{i, j})
		return nil
	})
	want := [][2]int{{0, 50}, {50, 100}, {100, 120}}
	if !reflect.DeepEqual(windows, want) {
		t.Errorf("got %v, want %v", windows, want)
	}
}
