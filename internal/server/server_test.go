package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"MarketSeasonality/internal/collector"
	"MarketSeasonality/internal/metrics"
	"MarketSeasonality/internal/model"
	"MarketSeasonality/internal/seasonality"
	"MarketSeasonality/internal/snapshot"
)

var testNow = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

func computeReport(t *testing.T, years int) *model.PeriodReport {
	t.Helper()
	col := collector.NewCollector(&collector.MockFetcher{}, nil, "^GSPC")
	col.Now = func() time.Time { return testNow }
	series, err := col.History(context.Background(), years)
	require.NoError(t, err)
	report, err := seasonality.Compute(context.Background(), years, series, col, seasonality.Options{Now: testNow})
	require.NoError(t, err)
	return report
}

func newTestServer(t *testing.T, publish bool) (*Server, *snapshot.Store) {
	t.Helper()
	store := snapshot.NewStore()
	if publish {
		store.Publish(&model.Snapshot{
			RunID:       "run-1",
			RefreshedAt: testNow,
			Periods:     map[int]*model.PeriodReport{10: computeReport(t, 10), 20: computeReport(t, 20)},
			Errors:      map[int]string{20: "price data unavailable"},
		})
	}
	s := New(store, metrics.New().Handler(), time.UTC, 5*time.Second)
	s.Now = func() time.Time { return testNow }
	return s, store
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRequireReady_BeforePublish(t *testing.T) {
	s, store := newTestServer(t, false)

	for _, path := range []string{"/", "/api/v1/periods", "/api/v1/periods/10/chart", "/readyz"} {
		rec := get(t, s, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
	var apiErr APIError
	require.NoError(t, json.Unmarshal(get(t, s, "/api/v1/outlook").Body.Bytes(), &apiErr))
	assert.Equal(t, "NOT_READY", apiErr.ErrorCode)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)

	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)

	store.Publish(&model.Snapshot{RunID: "late", Periods: map[int]*model.PeriodReport{10: computeReport(t, 10)}})
	assert.Equal(t, http.StatusOK, get(t, s, "/readyz").Code)
}

func TestListPeriods(t *testing.T) {
	s, _ := newTestServer(t, true)
	rec := get(t, s, "/api/v1/periods")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PeriodList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	require.Len(t, resp.Periods, 2)
	assert.Equal(t, 20, resp.Periods[0].Years, "longest period first")
	assert.Equal(t, "price data unavailable", resp.Periods[0].Error)
	assert.Empty(t, resp.Periods[1].Error)
	assert.Greater(t, resp.Periods[1].Rows, 2000)
}

func TestGetChart(t *testing.T) {
	s, _ := newTestServer(t, true)
	rec := get(t, s, "/api/v1/periods/10/chart")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Years  int                `json:"years"`
		Points []model.ChartPoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Years)
	require.NotEmpty(t, resp.Points)
	assert.Equal(t, "Jan-01", resp.Points[0].Label)
	assert.Zero(t, resp.Points[0].Average)
	assert.Nil(t, resp.Points[0].MovingAverage)
	assert.NotNil(t, resp.Points[6].MovingAverage)
	for _, p := range resp.Points {
		assert.NotEqual(t, "Feb-29", p.Label)
	}
}

func TestGetMonthlyAndDaily(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/v1/periods/10/monthly")
	require.Equal(t, http.StatusOK, rec.Code)
	var monthly struct {
		Title string      `json:"title"`
		Table model.Table `json:"table"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))
	assert.Equal(t, "Monthly SPX average gains table (over last 10 years)", monthly.Title)
	assert.Equal(t, "Month", monthly.Table.IndexName)
	assert.Equal(t, []string{"Average Monthly % gain", "Max Monthly % gain", "Monthly gain frequency"}, monthly.Table.Columns)
	assert.Len(t, monthly.Table.Rows, 12)

	rec = get(t, s, "/api/v1/periods/10/daily?month=Feb")
	require.Equal(t, http.StatusOK, rec.Code)
	var daily struct {
		Table model.Table `json:"table"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &daily))
	require.NotEmpty(t, daily.Table.Rows)
	for _, row := range daily.Table.Rows {
		assert.True(t, strings.HasPrefix(row.Label, "Feb-"), row.Label)
		assert.NotEqual(t, "Feb-29", row.Label)
	}
}

func TestPeriodErrors(t *testing.T) {
	s, _ := newTestServer(t, true)
	tests := []struct {
		path string
		code int
		err  string
	}{
		{"/api/v1/periods/30/chart", http.StatusNotFound, "PERIOD_NOT_FOUND"},
		{"/api/v1/periods/abc/chart", http.StatusBadRequest, "INVALID_PERIOD"},
		{"/api/v1/periods/10/daily?month=Foo", http.StatusBadRequest, "INVALID_MONTH"},
		{"/?years=30", http.StatusNotFound, "PERIOD_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path)
			assert.Equal(t, tt.code, rec.Code)
			var apiErr APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.err, apiErr.ErrorCode)
		})
	}
}

func TestExportWorkbook(t *testing.T) {
	s, _ := newTestServer(t, true)
	rec := get(t, s, "/api/v1/periods/10/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "seasonality_10y.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Monthly", "Daily", "Chart"}, f.GetSheetList())
}

func TestGetOutlook(t *testing.T) {
	s, _ := newTestServer(t, true)
	rec := get(t, s, "/api/v1/outlook")
	require.Equal(t, http.StatusOK, rec.Code)

	var o model.Outlook
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, "Mar", o.ThisMonth.Label)
	assert.Equal(t, "Apr", o.NextMonth.Label)
	assert.Equal(t, "Mar-15", o.Today.Label)
	require.Len(t, o.ThisMonth.Rows, 2)
	assert.Equal(t, 20, o.ThisMonth.Rows[0].Years)
}

func TestDashboard(t *testing.T) {
	s, _ := newTestServer(t, true)
	rec := get(t, s, "/?years=10&month=Feb")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "Monthly SPX average gains table (over last 10 years)")
	assert.Contains(t, body, "Daily SPX average gains table (over last 10 years)")
	assert.Contains(t, body, "<polyline class=\"ma\"")
	assert.Contains(t, body, "<td>Feb-02</td>")
	assert.NotContains(t, body, "<td>Mar-04</td>", "daily table is filtered to the selected month")

	// default period is the longest, flagged stale
	body = get(t, s, "/").Body.String()
	assert.Contains(t, body, "over last 20 years")
	assert.Contains(t, body, "price data unavailable")
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildChart(t *testing.T) {
	assert.True(t, buildChart(nil).Empty)

	ma := 0.02
	c := buildChart([]model.ChartPoint{
		{Day: model.DayKey{Month: time.January, Day: 1}, Average: 0},
		{Day: model.DayKey{Month: time.January, Day: 2}, Average: 0.01},
		{Day: model.DayKey{Month: time.February, Day: 1}, Average: -0.01, MovingAverage: &ma},
	})
	assert.False(t, c.Empty)
	assert.Equal(t, 3, len(strings.Fields(c.Average)))
	assert.Equal(t, 1, len(strings.Fields(c.Smoothed)))
	require.Len(t, c.Ticks, 2)
	assert.Equal(t, "Jan", c.Ticks[0].Label)
	assert.Equal(t, "Feb", c.Ticks[1].Label)
	assert.Equal(t, "2.0%", c.Levels[0].Label)
	assert.Equal(t, "-1.0%", c.Levels[2].Label)
}
