package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"MarketSeasonality/internal/collector"
	"MarketSeasonality/internal/model"
	"MarketSeasonality/internal/recorder"
	"MarketSeasonality/internal/snapshot"
)

var testNow = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

// flakyFetcher fails every request that reaches back before failBefore while fail is set.
type flakyFetcher struct {
	*collector.MockFetcher
	failBefore time.Time
	fail       atomic.Bool
}

func (f *flakyFetcher) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	if f.fail.Load() && start.Before(f.failBefore) {
		return nil, errors.New("upstream timeout")
	}
	return f.MockFetcher.FetchDailyCloses(ctx, symbol, start, end)
}

func newTestScheduler(t *testing.T, f collector.Fetcher, periods []int) *Scheduler {
	t.Helper()
	col := collector.NewCollector(f, nil, "^GSPC")
	col.Now = func() time.Time { return testNow }
	s := NewScheduler(context.Background(), col, snapshot.NewStore(), nil, recorder.NewNoopRecorder(), nil, Settings{
		Periods:      periods,
		SnapshotPath: filepath.Join(t.TempDir(), "snapshot.json"),
	})
	s.Now = func() time.Time { return testNow }
	return s
}

func TestRefreshNow_PublishesAllPeriods(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{}, []int{20, 10})

	if err := s.RefreshNow(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Store.IsReady() {
		t.Fatal("store should be ready after a successful cycle")
	}
	snap := s.Store.Current()
	if snap.RunID == "" || !snap.RefreshedAt.Equal(testNow) {
		t.Errorf("unexpected run metadata %q %s", snap.RunID, snap.RefreshedAt)
	}
	for _, years := range []int{10, 20} {
		r, ok := snap.Period(years)
		if !ok {
			t.Fatalf("missing %d year report", years)
		}
		if r.Years != years || r.Rows == 0 {
			t.Errorf("%dy: unexpected report %d rows", years, r.Rows)
		}
		if _, ok := r.Monthly.Find("Jan"); !ok {
			t.Errorf("%dy: monthly table has no Jan row", years)
		}
		if r.MonthToDate == nil || r.MonthToDate.Key != (model.MonthKey{Year: 2024, Month: time.March}) {
			t.Errorf("%dy: expected a March 2024 month-to-date, got %+v", years, r.MonthToDate)
		}
	}
	if len(snap.Errors) != 0 {
		t.Errorf("unexpected errors %v", snap.Errors)
	}

	dumped, err := snapshot.LoadFile(s.Settings.SnapshotPath)
	if err != nil || dumped == nil || dumped.RunID != snap.RunID {
		t.Errorf("snapshot dump not written: %v", err)
	}
}

func TestRefreshNow_FailedPeriodKeepsPreviousReport(t *testing.T) {
	f := &flakyFetcher{MockFetcher: &collector.MockFetcher{}, failBefore: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestScheduler(t, f, []int{50, 10})

	if err := s.RefreshNow(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	first := s.Store.Current()

	f.fail.Store(true)
	err := s.RefreshNow(context.Background())
	if err == nil || !strings.Contains(err.Error(), "50 years") {
		t.Fatalf("expected 50 year failure, got %v", err)
	}
	if !errors.Is(err, collector.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable in chain, got %v", err)
	}

	second := s.Store.Current()
	if second == first {
		t.Fatal("a new snapshot should have been published")
	}
	if second.Periods[50] != first.Periods[50] {
		t.Error("failed period should keep its previous report")
	}
	if second.Periods[10] == first.Periods[10] {
		t.Error("successful period should carry a fresh report")
	}
	if _, ok := second.Errors[50]; !ok {
		t.Error("failed period should be listed in errors")
	}
	if _, ok := first.Errors[50]; ok {
		t.Error("previous snapshot must not be mutated")
	}
}

func TestRefreshNow_NothingPublishedWhenAllFail(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{Err: errors.New("dns failure")}, []int{10})

	if err := s.RefreshNow(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.Store.IsReady() || s.Store.Current() != nil {
		t.Error("store must stay unready without any report")
	}
}

func TestRefreshNow_Cancelled(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{}, []int{10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.RefreshNow(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.Store.IsReady() {
		t.Error("cancelled cycle must not publish")
	}
}

func TestHandleCommand(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{}, []int{20, 10})
	if err := s.RefreshNow(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	ctx := context.Background()

	month := s.HandleCommand(ctx, "/month@SeasonalityBot")
	if !strings.Contains(month, "<b>Mar</b>") || !strings.Contains(month, "<b>Apr</b>") {
		t.Errorf("expected Mar and Apr sections:\n%s", month)
	}
	if strings.Index(month, "20 years") > strings.Index(month, "10 years") {
		t.Errorf("longest period should come first:\n%s", month)
	}

	today := s.HandleCommand(ctx, "/today")
	if !strings.Contains(today, "Mar-15") || !strings.Contains(today, "Mar-16") {
		t.Errorf("expected today and tomorrow:\n%s", today)
	}

	if status := s.HandleCommand(ctx, "/status"); !strings.Contains(status, s.Store.Current().RunID) {
		t.Errorf("status should name the run:\n%s", status)
	}

	before := s.Store.Current().RunID
	s.HandleCommand(ctx, "/refresh")
	if s.Store.Current().RunID == before {
		t.Error("/refresh should publish a new snapshot")
	}

	if help := s.HandleCommand(ctx, "hello"); !strings.Contains(help, "/month") {
		t.Errorf("unknown command should list commands, got %q", help)
	}
}

func TestOutlook_UsesExchangeLocation(t *testing.T) {
	s := newTestScheduler(t, &collector.MockFetcher{}, []int{10})
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("no tz database")
	}
	s.Settings.Location = ny
	s.Now = func() time.Time { return time.Date(2024, 4, 1, 2, 0, 0, 0, time.UTC) }

	o := s.Outlook()
	if o.ThisMonth.Label != "Mar" || o.Today.Label != "Mar-31" {
		t.Errorf("expected New York calendar day Mar-31, got %s / %s", o.ThisMonth.Label, o.Today.Label)
	}
}
