package collector

import (
	"context"
	"time"

	"MarketSeasonality/internal/model"
)

// Fetcher defines the interface for fetching daily index closes.
type Fetcher interface {
	// FetchDailyCloses returns adjusted closes for sessions in [start, end), ascending.
	FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error)
	Name() string
}
