package snapshot

import (
	"time"

	"MarketSeasonality/internal/model"
)

// BuildOutlook collects the rows for the current and next month and for
// today and tomorrow (in now's location) across every period of snap.
// Buckets a period has no row for, such as Feb-29, are left out.
func BuildOutlook(snap *model.Snapshot, now time.Time) *model.Outlook {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	nextMonth := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())

	o := &model.Outlook{
		AsOf:      now,
		ThisMonth: model.OutlookSection{Label: model.MonthLabel(now.Month())},
		NextMonth: model.OutlookSection{Label: model.MonthLabel(nextMonth.Month())},
		Today:     model.OutlookSection{Label: model.DayKeyOf(today).Label()},
		Tomorrow:  model.OutlookSection{Label: model.DayKeyOf(tomorrow).Label()},
	}
	for _, years := range Years(snap) {
		r := snap.Periods[years]
		appendRow(&o.ThisMonth, years, r.Monthly)
		appendRow(&o.NextMonth, years, r.Monthly)
		appendRow(&o.Today, years, r.Daily)
		appendRow(&o.Tomorrow, years, r.Daily)
	}
	return o
}

func appendRow(sec *model.OutlookSection, years int, t *model.Table) {
	if row, ok := t.Find(sec.Label); ok {
		sec.Rows = append(sec.Rows, model.OutlookRow{Years: years, Row: row})
	}
}
