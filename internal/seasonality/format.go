package seasonality

import (
	"fmt"
	"math"
	"strconv"

	"MarketSeasonality/internal/model"
)

// FormatMonthly renders monthly statistics as a display table.
func FormatMonthly(stats []model.MonthStat) *model.Table {
	t := newTable("Month", "Monthly")
	for _, s := range stats {
		t.Rows = append(t.Rows, formatRow(model.MonthLabel(s.Month), s.GroupedStat))
	}
	return t
}

// FormatDaily renders day-of-year statistics as a display table.
func FormatDaily(stats []model.DayStat) *model.Table {
	t := newTable("Day", "Daily")
	for _, s := range stats {
		if s.Day == model.LeapDay {
			continue
		}
		t.Rows = append(t.Rows, formatRow(s.Day.Label(), s.GroupedStat))
	}
	return t
}

func newTable(index, period string) *model.Table {
	return &model.Table{
		IndexName: index,
		Columns: []string{
			fmt.Sprintf("Average %s %% gain", period),
			fmt.Sprintf("Max %s %% gain", period),
			fmt.Sprintf("%s gain frequency", period),
		},
	}
}

func formatRow(label string, s model.GroupedStat) model.TableRow {
	return model.TableRow{
		Label: label,
		Avg:   FormatPercent(s.Avg*100, 2),
		Max:   fmt.Sprintf("%s (%d)", FormatPercent(s.Max*100, 2), s.MaxYear),
		Freq:  FormatPercent(s.Freq, 1),
	}
}

// FormatPercent renders an already scaled percentage with a fixed number of
// decimals. Halves round away from zero (0.125 gives "0.13%"), not to even.
func FormatPercent(v float64, decimals int) string {
	scale := math.Pow(10, float64(decimals))
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0 // no "-0.00%"
	}
	return strconv.FormatFloat(r, 'f', decimals, 64) + "%"
}
