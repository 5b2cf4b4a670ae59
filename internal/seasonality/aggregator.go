package seasonality

import (
	"context"
	"fmt"

	"MarketSeasonality/internal/model"
)

// Compute runs the full aggregation for one lookback period and returns a
// report that is never mutated afterwards.
func Compute(ctx context.Context, years int, series model.PriceSeries, src OriginSource, opts Options) (*model.PeriodReport, error) {
	opts = opts.withDefaults()
	if series.Len() == 0 {
		return nil, ErrEmptySeries
	}

	rows, degenerate, err := BuildRows(ctx, series.Points, src, opts.MissingOrigin)
	if err != nil {
		return nil, fmt.Errorf("build returns (%d years): %w", years, err)
	}
	rows = FlagMonthEnds(rows, opts.Now)

	monthly := GroupMonthly(rows)
	daily := GroupDaily(rows, opts.DailyMetric)

	report := &model.PeriodReport{
		Years:        years,
		Symbol:       series.Symbol,
		From:         rows[0].Date,
		To:           rows[len(rows)-1].Date,
		Rows:         len(rows),
		Degenerate:   degenerate,
		FromCache:    series.FromCache,
		Chart:        Chart(rows, opts.MovingAverageWindow),
		MonthlyStats: monthly,
		DailyStats:   daily,
		Monthly:      FormatMonthly(monthly),
		Daily:        FormatDaily(daily),
		MonthToDate:  monthToDate(rows, opts),
		GeneratedAt:  opts.Now,
	}
	return report, nil
}

// monthToDate reports the latest month-to-date return when the series ends
// inside the month that is still open.
func monthToDate(rows []Row, opts Options) *model.MonthToDate {
	last := rows[len(rows)-1]
	key := model.MonthKeyOf(last.Date)
	if key != model.MonthKeyOf(opts.Now) || !last.MonthValid {
		return nil
	}
	return &model.MonthToDate{Key: key, AsOf: last.Date, Increase: last.MonthlyIncrease}
}
