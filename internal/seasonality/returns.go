package seasonality

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"MarketSeasonality/internal/model"
)

// OriginSource resolves the close preceding the first period of a series.
type OriginSource interface {
	// YearOrigin returns the last close before January 1 of year.
	YearOrigin(ctx context.Context, year int) (float64, error)
	// MonthOrigin returns the last close before the first day of key.
	MonthOrigin(ctx context.Context, key model.MonthKey) (float64, error)
}

// Row is one session of the series with every derived return.
type Row struct {
	Date     time.Time
	AdjClose float64

	Increase        float64 // year to date
	MonthlyIncrease float64 // month to date
	DailyIncrease   float64 // day over day, divided by the current close

	YearValid    bool
	MonthValid   bool
	HasDaily     bool
	LastMonthDay bool
}

// percIncrease returns (value-origin)/origin.
func percIncrease(origin, value float64) (float64, error) {
	if origin == 0 || math.IsNaN(origin) || math.IsInf(origin, 0) {
		return 0, ErrZeroBase
	}
	v := (value - origin) / origin
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrZeroBase
	}
	return v, nil
}

// dailyIncrease returns (cur-prev)/cur.
func dailyIncrease(prev, cur float64) (float64, error) {
	if cur == 0 || math.IsNaN(cur) || math.IsInf(cur, 0) {
		return 0, ErrZeroBase
	}
	v := (cur - prev) / cur
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrZeroBase
	}
	return v, nil
}

type origin struct {
	value  float64
	err    error
	period string
}

func (o origin) apply(value float64) (float64, error) {
	if o.err != nil {
		return 0, &OriginError{Period: o.period, Err: o.err}
	}
	v, err := percIncrease(o.value, value)
	if err != nil {
		return 0, &OriginError{Period: o.period, Err: err}
	}
	return v, nil
}

// BuildRows derives the yearly, monthly and daily returns of every session.
// Only the first year and the first month need an external origin lookup;
// later periods start from the close of the session before them.
// With MissingOriginFail the first unusable base aborts the build; with
// MissingOriginSkip the affected rows are marked invalid and counted.
func BuildRows(ctx context.Context, points []model.PricePoint, src OriginSource, policy MissingOriginPolicy) ([]Row, int, error) {
	if len(points) == 0 {
		return nil, 0, ErrEmptySeries
	}

	rows := make([]Row, len(points))
	var yo, mo origin
	var curYear int
	var curMonth model.MonthKey
	degenerate := 0

	for i, p := range points {
		r := Row{Date: p.Date, AdjClose: p.AdjClose}

		if i == 0 || p.Date.Year() != curYear {
			curYear = p.Date.Year()
			yo = origin{period: fmt.Sprintf("year %d", curYear)}
			if i == 0 {
				yo.value, yo.err = src.YearOrigin(ctx, curYear)
			} else {
				yo.value = points[i-1].AdjClose
			}
			if isContextErr(yo.err) {
				return nil, 0, yo.err
			}
		}
		if key := model.MonthKeyOf(p.Date); i == 0 || key != curMonth {
			curMonth = key
			mo = origin{period: "month " + key.String()}
			if i == 0 {
				mo.value, mo.err = src.MonthOrigin(ctx, key)
			} else {
				mo.value = points[i-1].AdjClose
			}
			if isContextErr(mo.err) {
				return nil, 0, mo.err
			}
		}

		var errs []error
		if v, err := yo.apply(p.AdjClose); err != nil {
			errs = append(errs, err)
		} else {
			r.Increase, r.YearValid = v, true
		}
		if v, err := mo.apply(p.AdjClose); err != nil {
			errs = append(errs, err)
		} else {
			r.MonthlyIncrease, r.MonthValid = v, true
		}
		if i > 0 {
			if v, err := dailyIncrease(points[i-1].AdjClose, p.AdjClose); err != nil {
				errs = append(errs, &OriginError{Period: "day " + p.Date.Format("2006-01-02"), Err: err})
			} else {
				r.DailyIncrease, r.HasDaily = v, true
			}
		}

		if len(errs) > 0 {
			if policy == MissingOriginFail {
				return nil, 0, errs[0]
			}
			degenerate++
		}
		rows[i] = r
	}
	return rows, degenerate, nil
}

// FlagMonthEnds returns a copy of rows with LastMonthDay set on the final
// session of every month, detected by comparing each row with the next one.
// The last row has no successor and is never flagged, and neither is any row
// of the month that contains now, which is still open.
func FlagMonthEnds(rows []Row, now time.Time) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	open := model.MonthKeyOf(now)
	for i := 0; i < len(out)-1; i++ {
		key := model.MonthKeyOf(out[i].Date)
		out[i].LastMonthDay = key != model.MonthKeyOf(out[i+1].Date) && key != open
	}
	if n := len(out); n > 0 {
		out[n-1].LastMonthDay = false
	}
	return out
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
