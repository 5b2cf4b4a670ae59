package model

import (
	"fmt"
	"time"
)

// MonthKey identifies one calendar month of one year.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf returns the month bucket t falls into.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Less orders keys chronologically.
func (k MonthKey) Less(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// Prev returns the month before k.
func (k MonthKey) Prev() MonthKey {
	if k.Month == time.January {
		return MonthKey{Year: k.Year - 1, Month: time.December}
	}
	return MonthKey{Year: k.Year, Month: k.Month - 1}
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// DayKey identifies a calendar position (month and day) independent of the year.
type DayKey struct {
	Month time.Month
	Day   int
}

// LeapDay is excluded from every day-of-year grouping.
var LeapDay = DayKey{Month: time.February, Day: 29}

// DayKeyOf returns the day-of-year bucket t falls into.
func DayKeyOf(t time.Time) DayKey {
	return DayKey{Month: t.Month(), Day: t.Day()}
}

// Less orders keys by calendar position.
func (k DayKey) Less(o DayKey) bool {
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	return k.Day < o.Day
}

// String renders the key as "MM-DD".
func (k DayKey) String() string {
	return fmt.Sprintf("%02d-%02d", int(k.Month), k.Day)
}

// Label renders the key as "Jan-02".
func (k DayKey) Label() string {
	return fmt.Sprintf("%s-%02d", MonthLabel(k.Month), k.Day)
}

// MonthLabel returns the three letter month abbreviation.
func MonthLabel(m time.Month) string {
	return m.String()[:3]
}

// ParseMonthLabel is the inverse of MonthLabel.
func ParseMonthLabel(s string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		if MonthLabel(m) == s {
			return m, true
		}
	}
	return 0, false
}
