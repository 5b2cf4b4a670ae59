package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"MarketSeasonality/internal/model"
)

// SQLiteRecorder persists refresh history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a cycle writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refresh_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			years       INTEGER NOT NULL,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER,
			rows        INTEGER,
			degenerate  INTEGER,
			from_cache  INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON refresh_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_run_id ON refresh_runs(run_id)`,

		`CREATE TABLE IF NOT EXISTS monthly_stats (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL,
			years    INTEGER NOT NULL,
			month    INTEGER NOT NULL,
			avg      REAL,
			max      REAL,
			max_year INTEGER,
			freq     REAL,
			samples  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stats_run ON monthly_stats(run_id, years)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRefresh(run *RefreshRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO refresh_runs
		(run_id, years, started_at, duration_ms, rows, degenerate, from_cache, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.RunID, run.Years, run.StartedAt.Unix(), run.Duration.Milliseconds(),
		run.Rows, run.Degenerate, run.FromCache, run.Error,
	)
	return err
}

// RecordMonthlyStats stores the raw month-of-year statistics of one period.
func (r *SQLiteRecorder) RecordMonthlyStats(runID string, years int, stats []model.MonthStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO monthly_stats
		(run_id, years, month, avg, max, max_year, freq, samples)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		if _, err := stmt.Exec(runID, years, int(s.Month), s.Avg, s.Max, s.MaxYear, s.Freq, s.Count); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert month %d: %w", s.Month, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the latest period runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RefreshRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, years, started_at, duration_ms, rows, degenerate, from_cache, error
		FROM refresh_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RefreshRun
	for rows.Next() {
		var (
			run        RefreshRun
			startedAt  int64
			durationMs int64
		)
		if err := rows.Scan(&run.RunID, &run.Years, &startedAt, &durationMs,
			&run.Rows, &run.Degenerate, &run.FromCache, &run.Error); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(startedAt, 0)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
