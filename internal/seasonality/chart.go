package seasonality

import (
	"sort"
	"time"

	"MarketSeasonality/internal/model"
)

var newYear = model.DayKey{Month: time.January, Day: 1}

// Chart averages the year-to-date return by day of year and smooths it with
// a trailing moving average. January 1 is pinned to zero.
func Chart(rows []Row, window int) []model.ChartPoint {
	type sum struct {
		total float64
		n     int
	}
	byDay := make(map[model.DayKey]*sum)
	for _, r := range rows {
		if !r.YearValid {
			continue
		}
		key := model.DayKeyOf(r.Date)
		if key == model.LeapDay {
			continue
		}
		if byDay[key] == nil {
			byDay[key] = &sum{}
		}
		byDay[key].total += r.Increase
		byDay[key].n++
	}
	if _, ok := byDay[newYear]; !ok && len(byDay) > 0 {
		byDay[newYear] = &sum{}
	}

	keys := make([]model.DayKey, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	values := make([]float64, len(keys))
	for i, k := range keys {
		if k == newYear {
			continue
		}
		s := byDay[k]
		values[i] = s.total / float64(s.n)
	}

	ma := MovingAverage(values, window)
	points := make([]model.ChartPoint, len(keys))
	for i, k := range keys {
		points[i] = model.ChartPoint{
			Day:           k,
			Label:         k.Label(),
			Average:       values[i],
			MovingAverage: ma[i],
		}
	}
	return points
}
