package model

import "time"

// GroupedStat aggregates the returns of one calendar bucket across years.
type GroupedStat struct {
	Avg     float64 `json:"avg"`
	Max     float64 `json:"max"`
	MaxYear int     `json:"max_year"`
	Freq    float64 `json:"freq"` // percent of strictly positive values
	Count   int     `json:"count"`
}

// MonthStat is the GroupedStat of one month-of-year bucket.
type MonthStat struct {
	Month time.Month `json:"month"`
	GroupedStat
}

// DayStat is the GroupedStat of one day-of-year bucket.
type DayStat struct {
	Day DayKey `json:"day"`
	GroupedStat
}

// ChartPoint is one day of the average year-to-date curve.
type ChartPoint struct {
	Day           DayKey   `json:"day"`
	Label         string   `json:"label"`
	Average       float64  `json:"average"`
	MovingAverage *float64 `json:"moving_average"` // nil until the window is filled
}

// Table is a formatted, display-ready statistics table.
type Table struct {
	IndexName string     `json:"index_name"`
	Columns   []string   `json:"columns"`
	Rows      []TableRow `json:"rows"`
}

// TableRow is one bucket of a Table.
type TableRow struct {
	Label string `json:"label"`
	Avg   string `json:"avg"`
	Max   string `json:"max"`
	Freq  string `json:"freq"`
}

// Find returns the row with the given label.
func (t *Table) Find(label string) (TableRow, bool) {
	if t == nil {
		return TableRow{}, false
	}
	for _, r := range t.Rows {
		if r.Label == label {
			return r, true
		}
	}
	return TableRow{}, false
}

// MonthToDate is the live return of the month still in progress.
type MonthToDate struct {
	Key      MonthKey  `json:"key"`
	AsOf     time.Time `json:"as_of"`
	Increase float64   `json:"increase"`
}

// PeriodReport is the complete aggregation result for one lookback period.
type PeriodReport struct {
	Years        int          `json:"years"`
	Symbol       string       `json:"symbol"`
	From         time.Time    `json:"from"`
	To           time.Time    `json:"to"`
	Rows         int          `json:"rows"`
	Degenerate   int          `json:"degenerate"`
	FromCache    bool         `json:"from_cache"`
	Chart        []ChartPoint `json:"chart"`
	MonthlyStats []MonthStat  `json:"monthly_stats"`
	DailyStats   []DayStat    `json:"daily_stats"`
	Monthly      *Table       `json:"monthly"`
	Daily        *Table       `json:"daily"`
	MonthToDate  *MonthToDate `json:"month_to_date,omitempty"`
	GeneratedAt  time.Time    `json:"generated_at"`
}

// Snapshot is an immutable, published set of period reports.
// Readers must never modify a Snapshot obtained from the store.
type Snapshot struct {
	RunID       string                `json:"run_id"`
	RefreshedAt time.Time             `json:"refreshed_at"`
	Periods     map[int]*PeriodReport `json:"periods"`
	Errors      map[int]string        `json:"errors,omitempty"`
}

// Period returns the report for the given lookback in years.
func (s *Snapshot) Period(years int) (*PeriodReport, bool) {
	if s == nil {
		return nil, false
	}
	r, ok := s.Periods[years]
	return r, ok && r != nil
}
