package collector

import (
	"context"
	"sync"
	"time"

	"MarketSeasonality/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Points []model.PricePoint // served filtered by window; generated when nil
	Err    error

	mu    sync.Mutex
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCloses(_ context.Context, _ string, start, end time.Time) ([]model.PricePoint, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	points := m.Points
	if points == nil {
		points = GenerateMockCloses(start, end, 4000)
	}
	var out []model.PricePoint
	for _, p := range points {
		if p.Date.Before(start) || !p.Date.Before(end) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GenerateMockCloses emits one close per weekday in [start, end) on a slow
// upward drift with a yearly wave.
func GenerateMockCloses(start, end time.Time, basePrice float64) []model.PricePoint {
	var points []model.PricePoint
	for d := model.SessionDate(start); d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		i := float64(len(points))
		p := basePrice * (1 + i*0.0002) * (1 + 0.03*wave(d.YearDay()))
		points = append(points, model.PricePoint{Date: d, AdjClose: p})
	}
	return points
}

// wave is a cheap periodic pattern in [-1, 1] over a 365 day year.
func wave(yearDay int) float64 {
	x := float64(yearDay%365)/365*4 - 2 // [-2, 2)
	switch {
	case x < -1:
		return -(x + 2)
	case x < 1:
		return x
	default:
		return 2 - x
	}
}
