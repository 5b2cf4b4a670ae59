package seasonality

import (
	"sort"
	"time"

	"MarketSeasonality/internal/model"
)

type accumulator struct {
	sum     float64
	max     float64
	maxYear int
	wins    int
	n       int
}

// add keeps the earliest year when the maximum repeats.
func (a *accumulator) add(v float64, year int) {
	if a.n == 0 || v > a.max {
		a.max = v
		a.maxYear = year
	}
	a.sum += v
	if v > 0 {
		a.wins++
	}
	a.n++
}

func (a *accumulator) stat() model.GroupedStat {
	if a.n == 0 {
		return model.GroupedStat{}
	}
	return model.GroupedStat{
		Avg:     a.sum / float64(a.n),
		Max:     a.max,
		MaxYear: a.maxYear,
		Freq:    float64(a.wins) / float64(a.n) * 100,
		Count:   a.n,
	}
}

// Summarize computes the GroupedStat of a single bucket.
func Summarize(values []float64, years []int) model.GroupedStat {
	var a accumulator
	for i, v := range values {
		a.add(v, years[i])
	}
	return a.stat()
}

// GroupMonthly aggregates the month-to-date return of every last trading day
// of a month, bucketed by month of year.
func GroupMonthly(rows []Row) []model.MonthStat {
	buckets := make(map[time.Month]*accumulator)
	for _, r := range rows {
		if !r.LastMonthDay || !r.MonthValid {
			continue
		}
		m := r.Date.Month()
		if buckets[m] == nil {
			buckets[m] = &accumulator{}
		}
		buckets[m].add(r.MonthlyIncrease, r.Date.Year())
	}

	out := make([]model.MonthStat, 0, len(buckets))
	for m, a := range buckets {
		out = append(out, model.MonthStat{Month: m, GroupedStat: a.stat()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// GroupDaily aggregates every session by day of year. February 29 is dropped.
func GroupDaily(rows []Row, metric DailyMetric) []model.DayStat {
	buckets := make(map[model.DayKey]*accumulator)
	for _, r := range rows {
		key := model.DayKeyOf(r.Date)
		if key == model.LeapDay {
			continue
		}
		var v float64
		switch metric {
		case DailyMetricMonthToDate:
			if !r.MonthValid {
				continue
			}
			v = r.MonthlyIncrease
		default:
			if !r.HasDaily {
				continue
			}
			v = r.DailyIncrease
		}
		if buckets[key] == nil {
			buckets[key] = &accumulator{}
		}
		buckets[key].add(v, r.Date.Year())
	}

	out := make([]model.DayStat, 0, len(buckets))
	for k, a := range buckets {
		out = append(out, model.DayStat{Day: k, GroupedStat: a.stat()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Less(out[j].Day) })
	return out
}
