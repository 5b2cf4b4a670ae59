package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"MarketSeasonality/internal/model"
)

// SnapshotSource is the read side of the snapshot store.
type SnapshotSource interface {
	Current() *model.Snapshot
	IsReady() bool
}

// Server serves the published seasonality snapshot over HTTP.
type Server struct {
	Snapshots SnapshotSource
	Metrics   http.Handler // nil disables /metrics
	Location  *time.Location
	Now       func() time.Time
	Timeout   time.Duration
}

// New creates a Server reading from src.
func New(src SnapshotSource, metricsHandler http.Handler, loc *time.Location, timeout time.Duration) *Server {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{Snapshots: src, Metrics: metricsHandler, Location: loc, Now: time.Now, Timeout: timeout}
}

// Routes builds the chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.Timeout))

	r.Get("/healthz", s.Healthz)
	r.Get("/readyz", s.Readyz)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.RequireReady)
		r.Get("/", s.Dashboard)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/periods", s.ListPeriods)
			r.Get("/outlook", s.GetOutlook)
			r.Route("/periods/{years}", func(r chi.Router) {
				r.Use(s.PeriodCtx)
				r.Get("/chart", s.GetChart)
				r.Get("/monthly", s.GetMonthly)
				r.Get("/daily", s.GetDaily)
				r.Get("/export.xlsx", s.ExportWorkbook)
			})
		})
	})
	return r
}

// RequireReady answers 503 until the first snapshot has been published.
func (s *Server) RequireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Snapshots.IsReady() {
			w.Header().Set("Retry-After", "30")
			renderError(w, r, ErrNotReady)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey int

const reportKey ctxKey = 0

// PeriodCtx resolves {years} against the current snapshot and stores the
// report in the request context, so a handler never sees two snapshots.
func (s *Server) PeriodCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		years, err := strconv.Atoi(chi.URLParam(r, "years"))
		if err != nil || years <= 0 {
			renderError(w, r, ErrInvalidPeriod)
			return
		}
		snap := s.Snapshots.Current()
		report, ok := snap.Period(years)
		if !ok {
			renderError(w, r, ErrPeriodNotFound)
			return
		}
		ctx := context.WithValue(r.Context(), reportKey, report)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func reportFrom(ctx context.Context) *model.PeriodReport {
	report, _ := ctx.Value(reportKey).(*model.PeriodReport)
	return report
}

func (s *Server) now() time.Time {
	return s.Now().In(s.Location)
}
