package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"MarketSeasonality/internal/cache"
	"MarketSeasonality/internal/collector"
	"MarketSeasonality/internal/config"
	"MarketSeasonality/internal/metrics"
	"MarketSeasonality/internal/notifier"
	"MarketSeasonality/internal/recorder"
	"MarketSeasonality/internal/scheduler"
	"MarketSeasonality/internal/server"
	"MarketSeasonality/internal/snapshot"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketSeasonality starting...")

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	loc := cfg.Location()

	// Init fetcher
	var fetcher collector.Fetcher
	switch {
	case cfg.DataSource.Mock:
		fetcher = &collector.MockFetcher{}
	case cfg.DataSource.BaseURL != "":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s, symbol %s", fetcher.Name(), cfg.DataSource.Symbol)

	// Init collector with the CSV price cache
	col := collector.NewCollector(fetcher, cache.NewStore(cfg.Cache.Path), cfg.DataSource.Symbol)
	col.Now = func() time.Time { return time.Now().In(loc) }

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	met := metrics.New()
	store := snapshot.NewStore()
	if cfg.Snapshot.WarmStart {
		prev, err := snapshot.LoadFile(cfg.Snapshot.Path)
		switch {
		case err != nil:
			log.Printf("[WARN] load snapshot dump: %v", err)
		case prev != nil && len(prev.Periods) > 0:
			store.Publish(prev)
			log.Printf("[INFO] warm start from snapshot %s (%s)", prev.RunID, prev.RefreshedAt.Format(time.RFC3339))
		}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, store, tn, rec, met, scheduler.Settings{
		Periods:      cfg.Periods,
		Parallelism:  cfg.Schedule.Parallelism,
		Options:      cfg.SeasonalityOptions(),
		SnapshotPath: cfg.Snapshot.Path,
		Location:     loc,
	})
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)

	// HTTP server; everything but health and metrics answers 503 until ready
	srv := server.New(store, met.Handler(), loc, cfg.Server.RequestTimeout)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[INFO] dashboard listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()
	go func() {
		select {
		case <-store.Ready():
			log.Println("[INFO] first snapshot published, dashboard ready")
		case <-ctx.Done():
		}
	}()

	log.Println("[INFO] MarketSeasonality is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] MarketSeasonality stopped")
}
