package snapshot

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"MarketSeasonality/internal/model"
)

// Store publishes snapshots by pointer replacement. Readers never block and
// never observe a partially built snapshot.
type Store struct {
	current   atomic.Pointer[model.Snapshot]
	ready     chan struct{}
	readyOnce sync.Once
}

// NewStore creates an empty, not yet ready store.
func NewStore() *Store {
	return &Store{ready: make(chan struct{})}
}

// Publish makes snap the current snapshot and opens the readiness gate.
func (s *Store) Publish(snap *model.Snapshot) {
	if snap == nil {
		return
	}
	s.current.Store(snap)
	s.readyOnce.Do(func() { close(s.ready) })
}

// Current returns the published snapshot, nil before the first publish.
func (s *Store) Current() *model.Snapshot {
	return s.current.Load()
}

// Ready is closed once the first snapshot has been published.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// IsReady reports whether a snapshot has been published.
func (s *Store) IsReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Merge builds the next snapshot from a refresh cycle. Periods that failed in
// this cycle keep their report from prev, so readers see stale but valid data.
func Merge(prev *model.Snapshot, results map[int]*model.PeriodReport, errs map[int]error, runID string, at time.Time) *model.Snapshot {
	next := &model.Snapshot{
		RunID:       runID,
		RefreshedAt: at,
		Periods:     make(map[int]*model.PeriodReport, len(results)+len(errs)),
	}
	for years, r := range results {
		if r != nil {
			next.Periods[years] = r
		}
	}
	for years, err := range errs {
		if next.Errors == nil {
			next.Errors = make(map[int]string, len(errs))
		}
		next.Errors[years] = err.Error()
		if old, ok := prev.Period(years); ok {
			next.Periods[years] = old
		}
	}
	return next
}

// Years returns the periods present in snap, longest first.
func Years(snap *model.Snapshot) []int {
	if snap == nil {
		return nil
	}
	years := make([]int, 0, len(snap.Periods))
	for y := range snap.Periods {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
