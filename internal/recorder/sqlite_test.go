package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"MarketSeasonality/internal/model"
)

func TestSQLiteRecorder_RefreshRuns(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	started := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	runs := []*RefreshRun{
		{RunID: "r1", Years: 10, StartedAt: started, Duration: 1500 * time.Millisecond, Rows: 2516},
		{RunID: "r1", Years: 20, StartedAt: started, Duration: 2 * time.Second, FromCache: true, Rows: 5033, Degenerate: 3},
		{RunID: "r1", Years: 50, StartedAt: started, Error: "price data unavailable"},
	}
	for _, run := range runs {
		if err := r.RecordRefresh(run); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := r.RecentRuns(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	if got[0].Years != 50 || got[0].Succeeded() {
		t.Errorf("expected newest failed 50y run first, got %+v", got[0])
	}
	if got[1].Years != 20 || !got[1].FromCache || got[1].Degenerate != 3 || got[1].Duration != 2*time.Second {
		t.Errorf("unexpected 20y run %+v", got[1])
	}
	if !got[1].StartedAt.Equal(started) {
		t.Errorf("expected start %s, got %s", started, got[1].StartedAt)
	}
}

func TestSQLiteRecorder_MonthlyStats(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	stats := []model.MonthStat{
		{Month: time.January, GroupedStat: model.GroupedStat{Avg: 1.2, Max: 7.9, MaxYear: 1987, Freq: 60, Count: 10}},
		{Month: time.February, GroupedStat: model.GroupedStat{Avg: -0.3, Max: 5.1, MaxYear: 1991, Freq: 50, Count: 10}},
	}
	if err := r.RecordMonthlyStats("r1", 10, stats); err != nil {
		t.Fatalf("record stats: %v", err)
	}

	var n int
	var maxYear int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM monthly_stats WHERE run_id = ? AND years = ?`, "r1", 10).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}
	if err := r.db.QueryRow(`SELECT max_year FROM monthly_stats WHERE month = 2`).Scan(&maxYear); err != nil {
		t.Fatalf("select: %v", err)
	}
	if maxYear != 1991 {
		t.Errorf("expected 1991, got %d", maxYear)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordRefresh(&RefreshRun{}); err != nil {
		t.Fatal(err)
	}
	runs, err := r.RecentRuns(5)
	if err != nil || runs != nil {
		t.Fatalf("expected no runs, got %v, %v", runs, err)
	}
}
