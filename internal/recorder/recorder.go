package recorder

import (
	"time"

	"MarketSeasonality/internal/model"
)

// RefreshRun is the outcome of one lookback period within a refresh cycle.
type RefreshRun struct {
	RunID      string
	Years      int
	StartedAt  time.Time
	Duration   time.Duration
	Rows       int
	Degenerate int
	FromCache  bool
	Error      string // empty on success
}

// Succeeded reports whether the period produced a report.
func (r RefreshRun) Succeeded() bool { return r.Error == "" }

// Recorder persists refresh history for analysis.
type Recorder interface {
	RecordRefresh(run *RefreshRun) error
	RecordMonthlyStats(runID string, years int, stats []model.MonthStat) error
	RecentRuns(limit int) ([]RefreshRun, error)
	Close() error
}
