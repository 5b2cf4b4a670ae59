package seasonality

import (
	"fmt"
	"time"
)

// MissingOriginPolicy decides what happens when a return has no usable base.
type MissingOriginPolicy string

const (
	// MissingOriginFail aborts the aggregation with an *OriginError.
	MissingOriginFail MissingOriginPolicy = "fail"
	// MissingOriginSkip drops the affected rows from every aggregate.
	MissingOriginSkip MissingOriginPolicy = "skip"
)

// DailyMetric selects the return aggregated into the day-of-year table.
type DailyMetric string

const (
	// DailyMetricDaily aggregates the day-over-day change.
	DailyMetricDaily DailyMetric = "daily"
	// DailyMetricMonthToDate aggregates the month-to-date change on each day.
	DailyMetricMonthToDate DailyMetric = "month_to_date"
)

// DefaultMovingAverageWindow is the smoothing window of the chart curve.
const DefaultMovingAverageWindow = 7

// Options tunes a single aggregation run.
type Options struct {
	Now                 time.Time // decides which month is still open
	MissingOrigin       MissingOriginPolicy
	DailyMetric         DailyMetric
	MovingAverageWindow int
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.MissingOrigin == "" {
		o.MissingOrigin = MissingOriginFail
	}
	if o.DailyMetric == "" {
		o.DailyMetric = DailyMetricDaily
	}
	if o.MovingAverageWindow <= 0 {
		o.MovingAverageWindow = DefaultMovingAverageWindow
	}
	return o
}

// ParseMissingOriginPolicy validates a policy name from configuration.
func ParseMissingOriginPolicy(s string) (MissingOriginPolicy, error) {
	switch p := MissingOriginPolicy(s); p {
	case MissingOriginFail, MissingOriginSkip:
		return p, nil
	case "":
		return MissingOriginFail, nil
	default:
		return "", fmt.Errorf("unknown missing origin policy %q", s)
	}
}

// ParseDailyMetric validates a daily metric name from configuration.
func ParseDailyMetric(s string) (DailyMetric, error) {
	switch m := DailyMetric(s); m {
	case DailyMetricDaily, DailyMetricMonthToDate:
		return m, nil
	case "":
		return DailyMetricDaily, nil
	default:
		return "", fmt.Errorf("unknown daily metric %q", s)
	}
}
