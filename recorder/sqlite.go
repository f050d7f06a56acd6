package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"rent-estimator/models"
	"rent-estimator/utils"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *utils.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *utils.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	logger.Info("[recorder] Run history opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id              TEXT PRIMARY KEY,
			started_at      INTEGER NOT NULL,
			finished_at     INTEGER NOT NULL,
			source          TEXT,
			target_count    INTEGER,
			corpus_size     INTEGER,
			valid_estimates INTEGER,
			valid_percent   REAL,
			average_rent    REAL,
			average_yield   REAL,
			clamped_count   INTEGER,
			match_levels    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON analysis_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS comparable_distribution (
			run_id           TEXT    NOT NULL,
			comparable_count INTEGER NOT NULL,
			targets          INTEGER NOT NULL,
			PRIMARY KEY (run_id, comparable_count)
		)`,

		`CREATE TABLE IF NOT EXISTS reason_counts (
			run_id  TEXT    NOT NULL,
			reason  TEXT    NOT NULL,
			targets INTEGER NOT NULL,
			PRIMARY KEY (run_id, reason)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run and its summary in one transaction.
func (r *SQLiteRecorder) RecordRun(run *models.AnalysisRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := run.Summary
	if s == nil {
		s = &models.BatchSummary{}
	}
	levels, err := json.Marshal(run.Levels)
	if err != nil {
		return fmt.Errorf("sqlite: encode match levels: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO analysis_runs (
			id, started_at, finished_at, source, target_count, corpus_size,
			valid_estimates, valid_percent, average_rent, average_yield, clamped_count, match_levels)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Source, run.TargetCount, run.CorpusSize,
		s.ValidEstimates, s.ValidPercent, s.AverageMonthlyRent, s.AverageGrossYield, s.ClampedCount, string(levels),
	); err != nil {
		return fmt.Errorf("sqlite: insert run: %w", err)
	}

	for n, targets := range s.ComparableCountDistribution {
		if _, err := tx.Exec(`INSERT INTO comparable_distribution (run_id, comparable_count, targets) VALUES (?, ?, ?)`,
			run.ID, n, targets); err != nil {
			return fmt.Errorf("sqlite: insert distribution: %w", err)
		}
	}
	for reason, targets := range s.ReasonCounts {
		if _, err := tx.Exec(`INSERT INTO reason_counts (run_id, reason, targets) VALUES (?, ?, ?)`,
			run.ID, reason, targets); err != nil {
			return fmt.Errorf("sqlite: insert reasons: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	r.logger.Debug("[recorder] Recorded run %s", run.ID)
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]*RunRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, source, target_count, corpus_size,
		       valid_estimates, valid_percent, average_rent, average_yield, clamped_count
		FROM analysis_runs
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		var (
			rec             = &RunRecord{Distribution: make(map[int]int)}
			started, finish int64
		)
		if err := rows.Scan(&rec.ID, &started, &finish, &rec.Source, &rec.TargetCount, &rec.CorpusSize,
			&rec.ValidEstimates, &rec.ValidPercent, &rec.AverageRent, &rec.AverageYield, &rec.ClampedCount); err != nil {
			return nil, fmt.Errorf("sqlite: scan run: %w", err)
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.FinishedAt = time.Unix(finish, 0)
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range runs {
		if err := r.loadDistribution(rec); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (r *SQLiteRecorder) loadDistribution(rec *RunRecord) error {
	rows, err := r.db.Query(`SELECT comparable_count, targets FROM comparable_distribution WHERE run_id = ?`, rec.ID)
	if err != nil {
		return fmt.Errorf("sqlite: query distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n, targets int
		if err := rows.Scan(&n, &targets); err != nil {
			return fmt.Errorf("sqlite: scan distribution: %w", err)
		}
		rec.Distribution[n] = targets
	}
	return rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
