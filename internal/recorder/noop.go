package recorder

import "MarketSeasonality/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRefresh(_ *RefreshRun) error { return nil }

func (n *NoopRecorder) RecordMonthlyStats(_ string, _ int, _ []model.MonthStat) error {
	return nil
}

func (n *NoopRecorder) RecentRuns(_ int) ([]RefreshRun, error) { return nil, nil }

func (n *NoopRecorder) Close() error { return nil }
