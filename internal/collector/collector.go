package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"MarketSeasonality/internal/cache"
	"MarketSeasonality/internal/model"
	"MarketSeasonality/internal/seasonality"
)

// ErrDataUnavailable means neither the data source nor the cache could serve a window.
var ErrDataUnavailable = errors.New("price data unavailable")

// Collector fetches price history and falls back to the local cache when
// the data source fails.
type Collector struct {
	Fetcher Fetcher
	Cache   *cache.Store
	Symbol  string
	Now     func() time.Time

	mu                      sync.Mutex
	cachedFirst, cachedLast time.Time // cached session span, zero when unknown
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, store *cache.Store, symbol string) *Collector {
	return &Collector{Fetcher: fetcher, Cache: store, Symbol: symbol, Now: time.Now}
}

// Window returns the [start, end) session window of a lookback in years.
func (c *Collector) Window(years int) (start, end time.Time) {
	today := model.SessionDate(c.Now())
	return today.AddDate(-years, 0, 0), today.AddDate(0, 0, 1)
}

// History returns the series for the last years years.
func (c *Collector) History(ctx context.Context, years int) (model.PriceSeries, error) {
	start, end := c.Window(years)
	return c.Load(ctx, start, end)
}

// Load fetches [start, end). A successful fetch that reaches past either end
// of the cached history is merged into the cache; a failed fetch is served
// from the cache.
func (c *Collector) Load(ctx context.Context, start, end time.Time) (model.PriceSeries, error) {
	points, err := c.Fetcher.FetchDailyCloses(ctx, c.Symbol, start, end)
	if err == nil && len(points) == 0 {
		err = fmt.Errorf("%s returned no sessions", c.Fetcher.Name())
	}
	if err == nil {
		series := model.PriceSeries{Symbol: c.Symbol, Points: points, FetchedAt: c.Now()}
		c.maybeSave(series)
		return series, nil
	}
	if ctx.Err() != nil {
		return model.PriceSeries{}, ctx.Err()
	}

	log.Printf("[WARN] %s fetch %s..%s failed: %v, falling back to cache",
		c.Fetcher.Name(), start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	if c.Cache == nil {
		return model.PriceSeries{}, fmt.Errorf("%w: %v (no cache configured)", ErrDataUnavailable, err)
	}
	cached, cerr := c.Cache.LoadHistory(start, end)
	if cerr != nil {
		return model.PriceSeries{}, fmt.Errorf("%w: fetch: %v; cache: %v", ErrDataUnavailable, err, cerr)
	}
	if cached.Len() == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: fetch: %v; cache has no sessions in window", ErrDataUnavailable, err)
	}
	cached.Symbol = c.Symbol
	return cached, nil
}

func (c *Collector) maybeSave(series model.PriceSeries) {
	if c.Cache == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachedFirst.IsZero() {
		if first, last, err := c.Cache.Span(); err == nil {
			c.cachedFirst, c.cachedLast = first, last
		}
	}
	first := series.Points[0].Date
	last := series.Points[series.Len()-1].Date
	if !c.cachedFirst.IsZero() && !first.Before(c.cachedFirst) && !last.After(c.cachedLast) {
		return
	}

	merged := series
	if !c.cachedFirst.IsZero() {
		merged = c.mergeCached(series, first, last)
	}
	if err := c.Cache.SaveFullHistory(merged); err != nil {
		log.Printf("[ERROR] save price cache: %v", err)
		return
	}
	c.cachedFirst = merged.Points[0].Date
	c.cachedLast = merged.Points[merged.Len()-1].Date
	log.Printf("[INFO] price cache updated: %d sessions %s..%s", merged.Len(),
		c.cachedFirst.Format("2006-01-02"), c.cachedLast.Format("2006-01-02"))
}

// mergeCached surrounds the fetched sessions with the cached sessions outside
// [first, last]. Fetched closes win inside the span.
func (c *Collector) mergeCached(series model.PriceSeries, first, last time.Time) model.PriceSeries {
	var before, after []model.PricePoint
	if cached, err := c.Cache.LoadHistory(time.Time{}, first); err == nil {
		before = cached.Points
	}
	if cached, err := c.Cache.LoadHistory(last.AddDate(0, 0, 1), c.cachedLast.AddDate(0, 0, 1)); err == nil {
		after = cached.Points
	}
	points := make([]model.PricePoint, 0, len(before)+series.Len()+len(after))
	points = append(points, before...)
	points = append(points, series.Points...)
	points = append(points, after...)
	series.Points = points
	return series
}

// YearOrigin returns the last close before January 1 of year, searching
// December 27 to 31 of the prior year.
func (c *Collector) YearOrigin(ctx context.Context, year int) (float64, error) {
	start := time.Date(year-1, time.December, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return c.lastClose(ctx, start, end)
}

// MonthOrigin returns the last close before the first day of key, searching
// the last four days of the previous month.
func (c *Collector) MonthOrigin(ctx context.Context, key model.MonthKey) (float64, error) {
	end := time.Date(key.Year, key.Month, 1, 0, 0, 0, 0, time.UTC)
	lastDay := end.AddDate(0, 0, -1)
	start := lastDay.AddDate(0, 0, -3)
	return c.lastClose(ctx, start, end)
}

func (c *Collector) lastClose(ctx context.Context, start, end time.Time) (float64, error) {
	series, err := c.loadWindow(ctx, start, end)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %v", seasonality.ErrMissingOrigin, err)
	}
	if series.Len() == 0 {
		return 0, seasonality.ErrMissingOrigin
	}
	return series.Points[series.Len()-1].AdjClose, nil
}

// loadWindow is Load without cache writes, for small origin windows.
func (c *Collector) loadWindow(ctx context.Context, start, end time.Time) (model.PriceSeries, error) {
	points, err := c.Fetcher.FetchDailyCloses(ctx, c.Symbol, start, end)
	if err == nil && len(points) > 0 {
		return model.PriceSeries{Symbol: c.Symbol, Points: points}, nil
	}
	if ctx.Err() != nil {
		return model.PriceSeries{}, ctx.Err()
	}
	if c.Cache == nil {
		if err == nil {
			return model.PriceSeries{}, nil
		}
		return model.PriceSeries{}, err
	}
	return c.Cache.LoadHistory(start, end)
}
