package collector

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"MarketSeasonality/internal/cache"
	"MarketSeasonality/internal/model"
	"MarketSeasonality/internal/seasonality"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestCollector(t *testing.T, f Fetcher) *Collector {
	t.Helper()
	store := cache.NewStore(filepath.Join(t.TempDir(), "history.csv"))
	c := NewCollector(f, store, "^GSPC")
	c.Now = func() time.Time { return time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC) }
	return c
}

func TestCollector_CacheFallbackReturnsWindowUnchanged(t *testing.T) {
	full := GenerateMockCloses(day(2000, 1, 1), day(2024, 3, 16), 1000)
	f := &MockFetcher{Points: full}
	c := newTestCollector(t, f)

	// populate the cache with the full history
	if _, err := c.Load(context.Background(), day(2000, 1, 1), day(2024, 3, 16)); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	f.Err = errors.New("connection refused")
	start, end := c.Window(10)
	got, err := c.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected cache fallback, got %v", err)
	}
	if !got.FromCache {
		t.Error("series should be marked as served from cache")
	}

	var want []model.PricePoint
	for _, p := range full {
		if !p.Date.Before(start) && p.Date.Before(end) {
			want = append(want, p)
		}
	}
	if !reflect.DeepEqual(got.Points, want) {
		t.Fatalf("cached window differs: got %d points, want %d", got.Len(), len(want))
	}
}

func TestCollector_NoCacheIsDataUnavailable(t *testing.T) {
	c := newTestCollector(t, &MockFetcher{Err: errors.New("timeout")})
	_, err := c.History(context.Background(), 10)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestCollector_ShorterWindowDoesNotShrinkCache(t *testing.T) {
	f := &MockFetcher{Points: GenerateMockCloses(day(1990, 1, 1), day(2024, 3, 16), 300)}
	c := newTestCollector(t, f)

	if _, err := c.History(context.Background(), 30); err != nil {
		t.Fatalf("load 30y: %v", err)
	}
	if _, err := c.History(context.Background(), 10); err != nil {
		t.Fatalf("load 10y: %v", err)
	}
	first, _, err := c.Cache.Span()
	if err != nil {
		t.Fatalf("span: %v", err)
	}
	start, _ := c.Window(30)
	if first.Before(start) || first.After(start.AddDate(0, 0, 4)) {
		t.Errorf("cache should still start near %s, starts %s", start.Format("2006-01-02"), first.Format("2006-01-02"))
	}
}

func TestCollector_CacheFollowsMovingWindow(t *testing.T) {
	f := &MockFetcher{Points: GenerateMockCloses(day(1970, 1, 1), day(2024, 4, 1), 100)}
	c := newTestCollector(t, f)
	ctx := context.Background()

	if _, err := c.History(ctx, 50); err != nil {
		t.Fatalf("load day 1: %v", err)
	}
	firstDay1, lastDay1, err := c.Cache.Span()
	if err != nil {
		t.Fatalf("span day 1: %v", err)
	}
	if !lastDay1.Equal(day(2024, 3, 15)) {
		t.Fatalf("expected cache to end 2024-03-15, ends %s", lastDay1.Format("2006-01-02"))
	}

	// a week later, from a fresh process sharing the cache file
	later := NewCollector(f, c.Cache, "^GSPC")
	later.Now = func() time.Time { return time.Date(2024, 3, 22, 14, 0, 0, 0, time.UTC) }
	if _, err := later.History(ctx, 50); err != nil {
		t.Fatalf("load week later: %v", err)
	}
	first, last, err := later.Cache.Span()
	if err != nil {
		t.Fatalf("span week later: %v", err)
	}
	if !last.Equal(day(2024, 3, 22)) {
		t.Errorf("expected cache to end 2024-03-22, ends %s", last.Format("2006-01-02"))
	}
	if !first.Equal(firstDay1) {
		t.Errorf("cache should keep older sessions from %s, starts %s", firstDay1.Format("2006-01-02"), first.Format("2006-01-02"))
	}

	f.Err = errors.New("connection refused")
	got, err := later.History(ctx, 10)
	if err != nil {
		t.Fatalf("expected cache fallback, got %v", err)
	}
	if end := got.Points[got.Len()-1].Date; !end.Equal(day(2024, 3, 22)) {
		t.Errorf("fallback should serve the latest cached session, ends %s", end.Format("2006-01-02"))
	}
}

func TestCollector_Origins(t *testing.T) {
	points := []model.PricePoint{
		{Date: day(2019, 12, 26), AdjClose: 3239.91},
		{Date: day(2019, 12, 27), AdjClose: 3240.02},
		{Date: day(2019, 12, 30), AdjClose: 3221.29},
		{Date: day(2019, 12, 31), AdjClose: 3230.78},
		{Date: day(2020, 1, 2), AdjClose: 3257.85},
		{Date: day(2020, 2, 27), AdjClose: 2978.76},
		{Date: day(2020, 2, 28), AdjClose: 2954.22},
		{Date: day(2020, 3, 2), AdjClose: 3090.23},
	}
	c := newTestCollector(t, &MockFetcher{Points: points})
	ctx := context.Background()

	if v, err := c.YearOrigin(ctx, 2020); err != nil || v != 3230.78 {
		t.Errorf("year origin 2020: got %.2f, %v", v, err)
	}
	if v, err := c.MonthOrigin(ctx, model.MonthKey{Year: 2020, Month: time.March}); err != nil || v != 2954.22 {
		t.Errorf("month origin 2020-03: got %.2f, %v", v, err)
	}
	// January looks back into December of the prior year.
	if v, err := c.MonthOrigin(ctx, model.MonthKey{Year: 2020, Month: time.January}); err != nil || v != 3230.78 {
		t.Errorf("month origin 2020-01: got %.2f, %v", v, err)
	}
	if _, err := c.YearOrigin(ctx, 1990); !errors.Is(err, seasonality.ErrMissingOrigin) {
		t.Errorf("expected ErrMissingOrigin, got %v", err)
	}
}

func TestCollector_OriginFallsBackToCache(t *testing.T) {
	f := &MockFetcher{Points: []model.PricePoint{
		{Date: day(2015, 12, 30), AdjClose: 2063.36},
		{Date: day(2015, 12, 31), AdjClose: 2043.94},
		{Date: day(2016, 1, 4), AdjClose: 2012.66},
	}}
	c := newTestCollector(t, f)
	if _, err := c.Load(context.Background(), day(2015, 1, 1), day(2016, 2, 1)); err != nil {
		t.Fatalf("load: %v", err)
	}
	f.Err = errors.New("rate limited")
	if v, err := c.YearOrigin(context.Background(), 2016); err != nil || v != 2043.94 {
		t.Errorf("expected cached origin 2043.94, got %.2f, %v", v, err)
	}
}

func TestMockFetcher_GeneratesWeekdays(t *testing.T) {
	points := GenerateMockCloses(day(2024, 1, 1), day(2024, 1, 15), 100)
	if len(points) != 10 {
		t.Fatalf("expected 10 weekdays, got %d", len(points))
	}
	for _, p := range points {
		if p.Date.Weekday() == time.Saturday || p.Date.Weekday() == time.Sunday {
			t.Errorf("unexpected weekend session %s", p.Date.Format("2006-01-02"))
		}
	}
}
