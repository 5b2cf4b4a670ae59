package model

import "time"

// PricePoint is one trading session of an index.
type PricePoint struct {
	Date     time.Time // session date, UTC midnight
	AdjClose float64
}

// PriceSeries holds the daily adjusted closes of a single symbol, ascending by date.
type PriceSeries struct {
	Symbol    string
	Points    []PricePoint
	FetchedAt time.Time
	FromCache bool
}

// Len returns the number of sessions in the series.
func (s PriceSeries) Len() int { return len(s.Points) }

// Window returns a copy of the series restricted to [start, end).
func (s PriceSeries) Window(start, end time.Time) PriceSeries {
	out := PriceSeries{Symbol: s.Symbol, FetchedAt: s.FetchedAt, FromCache: s.FromCache}
	for _, p := range s.Points {
		if p.Date.Before(start) || !p.Date.Before(end) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}

// SessionDate truncates t to its calendar date in UTC.
func SessionDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
