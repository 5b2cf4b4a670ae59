package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"MarketSeasonality/internal/collector"
	"MarketSeasonality/internal/metrics"
	"MarketSeasonality/internal/model"
	"MarketSeasonality/internal/notifier"
	"MarketSeasonality/internal/recorder"
	"MarketSeasonality/internal/seasonality"
	"MarketSeasonality/internal/snapshot"
)

// Settings are the refresh parameters taken from configuration.
type Settings struct {
	Periods      []int
	Parallelism  int
	Options      seasonality.Options
	SnapshotPath string // JSON dump of every published snapshot, empty to disable
	Location     *time.Location
	StartupRetry time.Duration // delay between cycles until the first publish
}

// Scheduler refreshes every lookback period on a cron schedule and publishes
// the results to the snapshot store.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Store     *snapshot.Store
	Notifier  *notifier.TelegramNotifier
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Settings  Settings
	Now       func() time.Time
	Ctx       context.Context

	cycle sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, store *snapshot.Store, tn *notifier.TelegramNotifier,
	rec recorder.Recorder, met *metrics.Metrics, settings Settings) *Scheduler {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.Parallelism <= 0 {
		settings.Parallelism = len(settings.Periods)
	}
	if settings.StartupRetry <= 0 {
		settings.StartupRetry = time.Minute
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(settings.Location),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Collector: col,
		Store:     store,
		Notifier:  tn,
		Recorder:  rec,
		Metrics:   met,
		Settings:  settings,
		Now:       time.Now,
		Ctx:       ctx,
	}
}

// Register adds the refresh task under the given cron spec.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler and runs a first cycle in the background.
// Until a snapshot is published the cycle is retried every StartupRetry.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
	go s.warmUp()
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) warmUp() {
	for {
		if err := s.RefreshNow(s.Ctx); err != nil {
			log.Printf("[WARN] startup refresh: %v", err)
		}
		if s.Store.IsReady() {
			return
		}
		select {
		case <-s.Ctx.Done():
			return
		case <-time.After(s.Settings.StartupRetry):
		}
	}
}

func (s *Scheduler) refreshTask() {
	if err := s.RefreshNow(s.Ctx); err != nil {
		log.Printf("[ERROR] refresh: %v", err)
	}
}

type periodResult struct {
	years    int
	report   *model.PeriodReport
	err      error
	duration time.Duration
}

// RefreshNow runs one refresh cycle. Every period is fetched and aggregated
// independently; a failed period keeps its previous report. The returned
// error joins the per-period failures.
func (s *Scheduler) RefreshNow(ctx context.Context) error {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	runID := uuid.NewString()
	started := s.Now()
	opts := s.Settings.Options
	opts.Now = started.In(s.Settings.Location)
	log.Printf("[INFO] refresh %s: %d periods", runID, len(s.Settings.Periods))

	results := make([]periodResult, len(s.Settings.Periods))
	var g errgroup.Group
	g.SetLimit(s.Settings.Parallelism)
	for i, years := range s.Settings.Periods {
		g.Go(func() error {
			t0 := time.Now()
			report, err := s.computePeriod(ctx, years, opts)
			results[i] = periodResult{years: years, report: report, err: err, duration: time.Since(t0)}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		log.Printf("[WARN] refresh %s cancelled, nothing published", runID)
		return err
	}

	reports := make(map[int]*model.PeriodReport, len(results))
	errs := make(map[int]error)
	var joined []error
	for _, r := range results {
		run := &recorder.RefreshRun{RunID: runID, Years: r.years, StartedAt: started, Duration: r.duration}
		if r.err != nil {
			errs[r.years] = r.err
			joined = append(joined, fmt.Errorf("%d years: %w", r.years, r.err))
			run.Error = r.err.Error()
			s.Metrics.ObserveFailure(r.years, r.duration)
			log.Printf("[ERROR] period %dy: %v", r.years, r.err)
		} else {
			reports[r.years] = r.report
			run.Rows = r.report.Rows
			run.Degenerate = r.report.Degenerate
			run.FromCache = r.report.FromCache
			s.Metrics.ObserveSuccess(r.years, r.duration, r.report.Rows, r.report.FromCache, s.Now())
			if err := s.Recorder.RecordMonthlyStats(runID, r.years, r.report.MonthlyStats); err != nil {
				log.Printf("[ERROR] record monthly stats %dy: %v", r.years, err)
			}
			log.Printf("[INFO] period %dy: %d sessions in %v", r.years, r.report.Rows, r.duration.Round(time.Millisecond))
		}
		if err := s.Recorder.RecordRefresh(run); err != nil {
			log.Printf("[ERROR] record refresh %dy: %v", r.years, err)
		}
	}

	snap := snapshot.Merge(s.Store.Current(), reports, errs, runID, s.Now())
	if len(snap.Periods) > 0 {
		s.Store.Publish(snap)
		if s.Settings.SnapshotPath != "" {
			if err := snapshot.SaveFile(s.Settings.SnapshotPath, snap); err != nil {
				log.Printf("[ERROR] save snapshot: %v", err)
			}
		}
		log.Printf("[INFO] refresh %s published: %d periods, %d failed", runID, len(reports), len(errs))
	} else {
		log.Printf("[WARN] refresh %s produced no report, keeping previous state", runID)
	}

	if len(errs) > 0 {
		msgs := make(map[int]string, len(errs))
		for y, err := range errs {
			msgs[y] = err.Error()
		}
		s.trySend(ctx, notifier.FormatRefreshFailure(runID, started.In(s.Settings.Location), msgs))
	}
	return errors.Join(joined...)
}

func (s *Scheduler) computePeriod(ctx context.Context, years int, opts seasonality.Options) (*model.PeriodReport, error) {
	series, err := s.Collector.History(ctx, years)
	if err != nil {
		return nil, err
	}
	return seasonality.Compute(ctx, years, series, s.Collector, opts)
}

// Outlook builds the this/next month and today/tomorrow view of the current snapshot.
func (s *Scheduler) Outlook() *model.Outlook {
	return snapshot.BuildOutlook(s.Store.Current(), s.Now().In(s.Settings.Location))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	cmd := strings.Fields(command)
	if len(cmd) == 0 {
		return notifier.HelpText()
	}
	// "/month@SomeBot" in group chats
	name, _, _ := strings.Cut(cmd[0], "@")

	switch name {
	case "/month":
		o := s.Outlook()
		return notifier.FormatOutlook("Monthly outlook", o.ThisMonth, o.NextMonth)
	case "/today":
		o := s.Outlook()
		return notifier.FormatOutlook("Daily outlook", o.Today, o.Tomorrow)
	case "/status":
		return s.status()
	case "/refresh":
		if err := s.RefreshNow(ctx); err != nil {
			log.Printf("[WARN] manual refresh: %v", err)
		}
		return s.status()
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) status() string {
	runs, err := s.Recorder.RecentRuns(len(s.Settings.Periods))
	if err != nil {
		log.Printf("[ERROR] load recent runs: %v", err)
	}
	summaries := make([]notifier.RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, notifier.RunSummary{Years: r.Years, StartedAt: r.StartedAt, Duration: r.Duration, Error: r.Error})
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Years > summaries[j].Years })
	return notifier.FormatStatus(s.Store.Current(), summaries, s.Settings.Location)
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
