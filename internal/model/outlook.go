package model

import "time"

// OutlookRow is one lookback period's statistics for a single bucket.
type OutlookRow struct {
	Years int      `json:"years"`
	Row   TableRow `json:"row"`
}

// OutlookSection compares one month or day bucket across lookback periods.
type OutlookSection struct {
	Label string       `json:"label"`
	Rows  []OutlookRow `json:"rows"` // longest period first
}

// Outlook is the this/next month and today/tomorrow view of a snapshot.
type Outlook struct {
	AsOf      time.Time      `json:"as_of"`
	ThisMonth OutlookSection `json:"this_month"`
	NextMonth OutlookSection `json:"next_month"`
	Today     OutlookSection `json:"today"`
	Tomorrow  OutlookSection `json:"tomorrow"`
}

// Sections returns the four sections in display order.
func (o *Outlook) Sections() []OutlookSection {
	return []OutlookSection{o.ThisMonth, o.NextMonth, o.Today, o.Tomorrow}
}
