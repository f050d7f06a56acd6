package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"rent-estimator/config"
	"rent-estimator/location"
	"rent-estimator/models"
	"rent-estimator/recorder"
	"rent-estimator/services"
	"rent-estimator/storage"
	"rent-estimator/utils"
)

// pipeline holds every wired component for one process.
type pipeline struct {
	cfg        *config.Config
	profile    *config.Profile
	logger     *utils.Logger
	normalizer *location.Normalizer
	scorer     *location.Scorer
	cleaner    *services.Cleaner
	analyzer   *services.Analyzer
	insights   *services.InsightService
}

func newPipeline(cfg *config.Config, logger *utils.Logger) (*pipeline, error) {
	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}

	sim, err := location.NewStringSimilarity(profile.Similarity)
	if err != nil {
		return nil, err
	}
	norm := location.NewNormalizer(*profile.Neighborhoods, sim)
	scorer := location.NewScorer(norm, sim)

	clamp, err := services.NewClampPolicy(profile.Clamp, logger)
	if err != nil {
		return nil, err
	}
	analyzer, err := services.NewAnalyzer(
		services.NewComparableFilter(scorer, logger),
		services.NewWeightedEstimator(logger),
		clamp,
		services.NewAssembler(logger),
		profile.MatchLevels,
		cfg.MaxConcurrency,
		logger,
	)
	if err != nil {
		return nil, err
	}

	logger.Info("Profile %q — %d match level(s) | similarity: %s | neighborhoods: %s",
		profile.Name, len(profile.MatchLevels), profile.Similarity, norm.TableVersion())

	return &pipeline{
		cfg:        cfg,
		profile:    profile,
		logger:     logger,
		normalizer: norm,
		scorer:     scorer,
		cleaner:    services.NewCleaner(logger, norm, profile.MaxRentPricePerSqm),
		analyzer:   analyzer,
		insights:   services.NewInsightService(logger),
	}, nil
}

func (p *pipeline) retryConfig() *utils.RetryConfig {
	return &utils.RetryConfig{
		MaxAttempts: p.cfg.MaxRetries,
		BaseDelay:   time.Second,
		MaxDelay:    15 * time.Second,
		Logger:      p.logger,
	}
}

// openSource returns the configured listing source. The Postgres store is
// also returned so the caller can write estimates back to it.
func (p *pipeline) openSource() (storage.ListingSource, *storage.PostgresStore, error) {
	switch p.cfg.Source {
	case "csv":
		return storage.NewCSVListingSource(p.cfg.SalesCSVPath, p.cfg.RentalsCSVPath), nil, nil
	case "postgres":
		pg, err := storage.NewPostgresStore(p.cfg.DSN(), p.retryConfig())
		if err != nil {
			return nil, nil, err
		}
		return pg, pg, nil
	default:
		return nil, nil, fmt.Errorf("unknown SOURCE %q (want csv or postgres)", p.cfg.Source)
	}
}

func (p *pipeline) openRecorder() (recorder.Recorder, error) {
	if p.cfg.HistoryDBPath == "" {
		return recorder.NewNoopRecorder(), nil
	}
	return recorder.NewSQLiteRecorder(p.cfg.HistoryDBPath, p.logger)
}

// load fetches and cleans both listing kinds from src.
func (p *pipeline) load(src storage.ListingSource) (sales, rentals []*models.ListingRecord, err error) {
	rawSales, err := src.FetchListings(models.KindSale)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch sales: %w", err)
	}
	rawRentals, err := src.FetchListings(models.KindRental)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch rentals: %w", err)
	}
	p.logger.Info("Loaded %d sale and %d rental rows", len(rawSales), len(rawRentals))

	return p.cleaner.Clean(rawSales), p.cleaner.Clean(rawRentals), nil
}

// runBatch is one full estimation run: load, analyse, write, summarise, record.
func (p *pipeline) runBatch() error {
	src, pg, err := p.openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	rec, err := p.openRecorder()
	if err != nil {
		return err
	}
	defer rec.Close()

	run := &models.AnalysisRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Source:    p.cfg.Source,
		Levels:    p.analyzer.Levels(),
	}
	p.logger.Info("=== Rent estimation run %s starting ===", run.ID)

	sales, rentals, err := p.load(src)
	if err != nil {
		return err
	}
	if len(sales) == 0 {
		return fmt.Errorf("no sale listings to estimate")
	}
	run.TargetCount = len(sales)
	run.CorpusSize = len(rentals)

	estimates, err := p.analyzer.Run(sales, rentals)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if err := p.writeReports(estimates, pg); err != nil {
		return err
	}

	summary := p.insights.Generate(estimates, rentals)
	p.insights.Print(summary)

	run.Summary = summary
	run.FinishedAt = time.Now().UTC()
	if err := rec.RecordRun(run); err != nil {
		p.logger.Warn("Run history not recorded: %v", err)
	}

	p.logger.Info("=== Run %s complete in %v ===", run.ID, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return nil
}

func (p *pipeline) writeReports(estimates []*models.RentEstimate, pg *storage.PostgresStore) error {
	csvWriter, err := storage.NewEstimateCSVWriter(p.cfg.OutputCSVPath)
	if err != nil {
		return err
	}
	defer csvWriter.Close()

	writers := []storage.EstimateWriter{csvWriter}
	if pg != nil {
		writers = append(writers, pg)
	}
	for _, w := range writers {
		if err := w.Write(estimates); err != nil {
			return fmt.Errorf("write estimates: %w", err)
		}
	}
	p.logger.Info("Estimates saved to %s", p.cfg.OutputCSVPath)

	if p.cfg.OutputJSONPath != "" {
		if err := storage.WriteJSONReport(p.cfg.OutputJSONPath, estimates); err != nil {
			return err
		}
		p.logger.Info("JSON report saved to %s", p.cfg.OutputJSONPath)
	}
	return nil
}

// importCSV loads the configured CSV files into PostgreSQL so later runs can
// use SOURCE=postgres.
func (p *pipeline) importCSV() error {
	sales, rentals, err := p.load(storage.NewCSVListingSource(p.cfg.SalesCSVPath, p.cfg.RentalsCSVPath))
	if err != nil {
		return err
	}

	pg, err := storage.NewPostgresStore(p.cfg.DSN(), p.retryConfig())
	if err != nil {
		return err
	}
	defer pg.Close()

	records := p.mergeByURL(sales, rentals)
	if err := pg.UpsertListings(records); err != nil {
		return err
	}
	p.logger.Info("Imported %d listings into PostgreSQL (%d sales, %d rentals before merge)",
		len(records), len(sales), len(rentals))
	return nil
}

// mergeByURL concatenates the groups keeping the first record per URL, so
// one upsert batch never touches the same row twice.
func (p *pipeline) mergeByURL(groups ...[]*models.ListingRecord) []*models.ListingRecord {
	seen := utils.NewURLSet()
	var out []*models.ListingRecord
	for _, group := range groups {
		for _, rec := range group {
			if !seen.Add(rec.URL) {
				p.logger.Warn("[import] Duplicate URL across exports, keeping the first (%s dropped): %s", rec.Kind, rec.URL)
				continue
			}
			out = append(out, rec)
		}
	}
	return out
}
