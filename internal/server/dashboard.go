package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"MarketSeasonality/internal/model"
	"MarketSeasonality/internal/seasonality"
	"MarketSeasonality/internal/snapshot"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"periodLabel": func(years int) string { return fmt.Sprintf("%d years", years) },
}).ParseFS(templateFS, "templates/dashboard.html"))

const (
	chartWidth  = 960
	chartHeight = 360
	padLeft     = 56
	padRight    = 12
	padTop      = 12
	padBottom   = 28
)

type dashboardView struct {
	Symbol       string
	Years        int
	Periods      []int
	Months       []string
	Month        string
	RefreshedAt  string
	RunID        string
	Stale        string
	FromCache    bool
	Degenerate   int
	Outlook      *model.Outlook
	Chart        chartSVG
	MonthlyTitle string
	DailyTitle   string
	Monthly      *model.Table
	Daily        *model.Table
	ThisMonth    string
	Today        string
	MonthToDate  string
}

type chartSVG struct {
	Width, Height int
	Average       string // polyline points
	Smoothed      string
	Ticks         []chartTick
	Levels        []chartTick
	Left, Right   int
	Bottom        int
	TickEnd       int
	Empty         bool
}

type chartTick struct {
	Pos   float64
	Label string
}

// Dashboard handles GET / with optional ?years= and ?month= selection.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshots.Current()
	periods := snapshot.Years(snap)
	if len(periods) == 0 {
		renderError(w, r, ErrNotReady)
		return
	}
	now := s.now()

	years := periods[0]
	if v := r.URL.Query().Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			renderError(w, r, ErrInvalidPeriod)
			return
		}
		years = n
	}
	report, ok := snap.Period(years)
	if !ok {
		renderError(w, r, ErrPeriodNotFound)
		return
	}

	month := now.Month()
	if v := r.URL.Query().Get("month"); v != "" {
		m, ok := model.ParseMonthLabel(v)
		if !ok {
			renderError(w, r, ErrInvalidMonth)
			return
		}
		month = m
	}

	symbol := displaySymbol(report.Symbol)
	view := dashboardView{
		Symbol:       symbol,
		Years:        years,
		Periods:      periods,
		Month:        model.MonthLabel(month),
		RefreshedAt:  snap.RefreshedAt.In(s.Location).Format("2006-01-02 15:04 MST"),
		RunID:        snap.RunID,
		Stale:        snap.Errors[years],
		FromCache:    report.FromCache,
		Degenerate:   report.Degenerate,
		Outlook:      snapshot.BuildOutlook(snap, now),
		Chart:        buildChart(report.Chart),
		MonthlyTitle: fmt.Sprintf("Monthly %s average gains table (over last %d years)", symbol, years),
		DailyTitle:   fmt.Sprintf("Daily %s average gains table (over last %d years)", symbol, years),
		Monthly:      report.Monthly,
		Daily:        filterMonth(report.Daily, month),
		ThisMonth:    model.MonthLabel(now.Month()),
		Today:        model.DayKeyOf(now).Label(),
	}
	for m := time.January; m <= time.December; m++ {
		view.Months = append(view.Months, model.MonthLabel(m))
	}
	if mtd := report.MonthToDate; mtd != nil {
		view.MonthToDate = fmt.Sprintf("%s month to date (as of %s): %s",
			model.MonthLabel(mtd.Key.Month), mtd.AsOf.Format("Jan 02"), seasonality.FormatPercent(mtd.Increase*100, 2))
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		log.Printf("[ERROR] render dashboard: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// buildChart scales the average and smoothed curves into SVG coordinates.
func buildChart(points []model.ChartPoint) chartSVG {
	c := chartSVG{
		Width:   chartWidth,
		Height:  chartHeight,
		Left:    padLeft,
		Right:   chartWidth - padRight,
		Bottom:  chartHeight - padBottom,
		TickEnd: chartHeight - padBottom + 5,
	}
	if len(points) < 2 {
		c.Empty = true
		return c
	}

	lo, hi := 0.0, 0.0
	for _, p := range points {
		lo, hi = minMax(lo, hi, p.Average)
		if p.MovingAverage != nil {
			lo, hi = minMax(lo, hi, *p.MovingAverage)
		}
	}
	if hi == lo {
		hi = lo + 0.01
	}

	plotW := float64(chartWidth - padLeft - padRight)
	plotH := float64(chartHeight - padTop - padBottom)
	x := func(i int) float64 { return padLeft + float64(i)*plotW/float64(len(points)-1) }
	y := func(v float64) float64 { return padTop + (hi-v)/(hi-lo)*plotH }

	var avg, ma strings.Builder
	for i, p := range points {
		fmt.Fprintf(&avg, "%.1f,%.1f ", x(i), y(p.Average))
		if p.MovingAverage != nil {
			fmt.Fprintf(&ma, "%.1f,%.1f ", x(i), y(*p.MovingAverage))
		}
		if p.Day.Day == 1 || i == 0 {
			c.Ticks = append(c.Ticks, chartTick{Pos: x(i), Label: model.MonthLabel(p.Day.Month)})
		}
	}
	c.Average = strings.TrimSpace(avg.String())
	c.Smoothed = strings.TrimSpace(ma.String())
	for _, v := range []float64{hi, 0, lo} {
		c.Levels = append(c.Levels, chartTick{Pos: y(v), Label: seasonality.FormatPercent(v*100, 1)})
	}
	return c
}

func minMax(lo, hi, v float64) (float64, float64) {
	if v < lo {
		lo = v
	}
	if v > hi {
		hi = v
	}
	return lo, hi
}
