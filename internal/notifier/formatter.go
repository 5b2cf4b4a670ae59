package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"MarketSeasonality/internal/model"
)

// FormatRefreshFailure formats the alert sent when periods failed in a cycle.
func FormatRefreshFailure(runID string, at time.Time, errs map[int]string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❌ <b>Seasonality refresh failed</b> | %s\n\n", at.Format("2006-01-02 15:04 MST")))

	years := make([]int, 0, len(errs))
	for y := range errs {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	for _, y := range years {
		b.WriteString(fmt.Sprintf("• %d years: %s\n", y, html.EscapeString(errs[y])))
	}
	b.WriteString(fmt.Sprintf("\nPrevious results stay published. Run %s", runID))
	return b.String()
}

// FormatOutlook formats one or more outlook sections as a Telegram message.
func FormatOutlook(title string, sections ...model.OutlookSection) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>%s</b>\n", title))
	for _, sec := range sections {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", sec.Label))
		if len(sec.Rows) == 0 {
			b.WriteString("  no data\n")
			continue
		}
		for _, r := range sec.Rows {
			b.WriteString(fmt.Sprintf("  %d years: avg %s | max %s | up %s\n",
				r.Years, r.Row.Avg, html.EscapeString(r.Row.Max), r.Row.Freq))
		}
	}
	return b.String()
}

// FormatStatus formats the published snapshot and the latest recorded runs.
func FormatStatus(snap *model.Snapshot, runs []RunSummary, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("📦 <b>Seasonality status</b>\n\n")
	if snap == nil {
		b.WriteString("No snapshot published yet.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Refreshed: %s\n", snap.RefreshedAt.In(loc).Format("2006-01-02 15:04 MST")))
	b.WriteString(fmt.Sprintf("Run: %s\n", snap.RunID))

	years := make([]int, 0, len(snap.Periods))
	for y := range snap.Periods {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	for _, y := range years {
		r := snap.Periods[y]
		line := fmt.Sprintf("• %d years: %d sessions %s..%s", y, r.Rows, r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
		if r.FromCache {
			line += " (cache)"
		}
		if r.Degenerate > 0 {
			line += fmt.Sprintf(" (%d skipped)", r.Degenerate)
		}
		if msg, failed := snap.Errors[y]; failed {
			line += " ⚠️ stale: " + html.EscapeString(msg)
		}
		b.WriteString(line + "\n")
	}

	if len(runs) > 0 {
		b.WriteString("\n<b>Recent runs</b>\n")
		for _, r := range runs {
			status := "ok"
			if r.Error != "" {
				status = html.EscapeString(r.Error)
			}
			b.WriteString(fmt.Sprintf("  %s %dy %s: %s\n", r.StartedAt.In(loc).Format("01-02 15:04"), r.Years, r.Duration.Round(time.Millisecond), status))
		}
	}
	return b.String()
}

// RunSummary is the part of a recorded refresh run shown in status messages.
type RunSummary struct {
	Years     int
	StartedAt time.Time
	Duration  time.Duration
	Error     string
}

// HelpText lists the supported commands.
func HelpText() string {
	return "Available commands:\n• /month - this and next month\n• /today - today and tomorrow\n• /status - refresh status\n• /refresh - recompute now"
}
