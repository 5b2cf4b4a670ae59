package server

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"MarketSeasonality/internal/exporter"
	"MarketSeasonality/internal/model"
	"MarketSeasonality/internal/snapshot"
)

// Healthz reports liveness.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// Readyz reports whether a snapshot has been published.
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	if !s.Snapshots.IsReady() {
		renderError(w, r, ErrNotReady)
		return
	}
	snap := s.Snapshots.Current()
	render.JSON(w, r, map[string]interface{}{
		"status":       "ready",
		"run_id":       snap.RunID,
		"refreshed_at": snap.RefreshedAt,
	})
}

// PeriodSummary describes one lookback period in the period list.
type PeriodSummary struct {
	Years       int       `json:"years"`
	Symbol      string    `json:"symbol"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Rows        int       `json:"rows"`
	Degenerate  int       `json:"degenerate"`
	FromCache   bool      `json:"from_cache"`
	GeneratedAt time.Time `json:"generated_at"`
	Error       string    `json:"error,omitempty"` // last cycle failed, report is stale
}

// PeriodList is the response of GET /api/v1/periods.
type PeriodList struct {
	RunID       string          `json:"run_id"`
	RefreshedAt time.Time       `json:"refreshed_at"`
	Periods     []PeriodSummary `json:"periods"`
	Errors      map[int]string  `json:"errors,omitempty"`
}

// ListPeriods handles GET /api/v1/periods.
func (s *Server) ListPeriods(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshots.Current()
	resp := PeriodList{RunID: snap.RunID, RefreshedAt: snap.RefreshedAt, Errors: snap.Errors}
	for _, years := range snapshot.Years(snap) {
		p := snap.Periods[years]
		resp.Periods = append(resp.Periods, PeriodSummary{
			Years:       years,
			Symbol:      p.Symbol,
			From:        p.From,
			To:          p.To,
			Rows:        p.Rows,
			Degenerate:  p.Degenerate,
			FromCache:   p.FromCache,
			GeneratedAt: p.GeneratedAt,
			Error:       snap.Errors[years],
		})
	}
	render.JSON(w, r, resp)
}

// GetChart handles GET /api/v1/periods/{years}/chart.
func (s *Server) GetChart(w http.ResponseWriter, r *http.Request) {
	report := reportFrom(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"years":  report.Years,
		"points": report.Chart,
	})
}

// GetMonthly handles GET /api/v1/periods/{years}/monthly.
func (s *Server) GetMonthly(w http.ResponseWriter, r *http.Request) {
	report := reportFrom(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"years":         report.Years,
		"title":         fmt.Sprintf("Monthly %s average gains table (over last %d years)", displaySymbol(report.Symbol), report.Years),
		"table":         report.Monthly,
		"stats":         report.MonthlyStats,
		"month_to_date": report.MonthToDate,
	})
}

// GetDaily handles GET /api/v1/periods/{years}/daily?month=Jan.
// Without a month the full day-of-year table is returned.
func (s *Server) GetDaily(w http.ResponseWriter, r *http.Request) {
	report := reportFrom(r.Context())
	table := report.Daily
	if m := r.URL.Query().Get("month"); m != "" {
		month, ok := model.ParseMonthLabel(m)
		if !ok {
			renderError(w, r, ErrInvalidMonth)
			return
		}
		table = filterMonth(table, month)
	}
	render.JSON(w, r, map[string]interface{}{
		"years": report.Years,
		"title": fmt.Sprintf("Daily %s average gains table (over last %d years)", displaySymbol(report.Symbol), report.Years),
		"table": table,
	})
}

// ExportWorkbook handles GET /api/v1/periods/{years}/export.xlsx.
func (s *Server) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	report := reportFrom(r.Context())
	var buf bytes.Buffer
	if err := exporter.WriteWorkbook(&buf, report); err != nil {
		log.Printf("[ERROR] export %dy workbook (request %s): %v", report.Years, middleware.GetReqID(r.Context()), err)
		renderError(w, r, ErrExportFailed)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="seasonality_%dy.xlsx"`, report.Years))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// GetOutlook handles GET /api/v1/outlook.
func (s *Server) GetOutlook(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, snapshot.BuildOutlook(s.Snapshots.Current(), s.now()))
}

// filterMonth returns the rows of a day table that fall in month.
func filterMonth(t *model.Table, month time.Month) *model.Table {
	if t == nil {
		return nil
	}
	out := &model.Table{IndexName: t.IndexName, Columns: t.Columns, Rows: []model.TableRow{}}
	prefix := model.MonthLabel(month) + "-"
	for _, row := range t.Rows {
		if strings.HasPrefix(row.Label, prefix) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func displaySymbol(symbol string) string {
	switch symbol {
	case "^GSPC", "SPX", "SPX500", "":
		return "SPX"
	default:
		return symbol
	}
}
