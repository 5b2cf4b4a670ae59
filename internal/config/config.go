package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // exchange zone on hosts without zoneinfo

	"gopkg.in/yaml.v3"

	"MarketSeasonality/internal/seasonality"
)

// DefaultPeriods are the lookback lengths in years computed each cycle.
var DefaultPeriods = []int{10, 20, 30, 40, 50}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Symbol  string `yaml:"symbol"`
		Mock    bool   `yaml:"mock"`
	} `yaml:"data_source"`
	Periods  []int `yaml:"periods"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		Parallelism int    `yaml:"parallelism"`
	} `yaml:"schedule"`
	Cache struct {
		Path string `yaml:"path"`
	} `yaml:"cache"`
	Snapshot struct {
		Path      string `yaml:"path"`
		WarmStart bool   `yaml:"warm_start"` // publish the last dump before the first cycle
	} `yaml:"snapshot"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr           string        `yaml:"addr"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`
	Seasonality struct {
		MissingOrigin       string `yaml:"missing_origin"`
		DailyMetric         string `yaml:"daily_metric"`
		MovingAverageWindow int    `yaml:"moving_average_window"`
	} `yaml:"seasonality"`
	Timezone string `yaml:"timezone"`
	Proxy    string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SEASONALITY_SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SEASONALITY_PERIODS"); v != "" {
		periods, err := ParsePeriods(v)
		if err != nil {
			return nil, fmt.Errorf("SEASONALITY_PERIODS: %w", err)
		}
		cfg.Periods = periods
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MISSING_ORIGIN_POLICY"); v != "" {
		cfg.Seasonality.MissingOrigin = v
	}
	if v := os.Getenv("TZ_EXCHANGE"); v != "" {
		cfg.Timezone = v
	}

	// Defaults
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "^GSPC"
	}
	if len(cfg.Periods) == 0 {
		cfg.Periods = append([]int(nil), DefaultPeriods...)
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "@every 1h"
	}
	if cfg.Schedule.Parallelism == 0 {
		cfg.Schedule.Parallelism = len(cfg.Periods)
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "data/spx_history.csv"
	}
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = "data/snapshot.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/seasonality.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8050"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Seasonality.MovingAverageWindow == 0 {
		cfg.Seasonality.MovingAverageWindow = seasonality.DefaultMovingAverageWindow
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/New_York"
	}

	sort.Sort(sort.Reverse(sort.IntSlice(cfg.Periods)))
	return cfg, nil
}

// ParsePeriods parses a comma separated list of lookback years.
func ParsePeriods(s string) ([]int, error) {
	var periods []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid period %q", part)
		}
		periods = append(periods, n)
	}
	return periods, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	seen := make(map[int]bool, len(c.Periods))
	for _, p := range c.Periods {
		if p <= 0 {
			return fmt.Errorf("periods: %d is not a positive number of years", p)
		}
		if seen[p] {
			return fmt.Errorf("periods: %d listed twice", p)
		}
		seen[p] = true
	}
	if c.Schedule.Parallelism < 0 {
		return fmt.Errorf("schedule.parallelism must not be negative")
	}
	if c.Seasonality.MovingAverageWindow < 1 {
		return fmt.Errorf("seasonality.moving_average_window must be at least 1")
	}
	if _, err := seasonality.ParseMissingOriginPolicy(c.Seasonality.MissingOrigin); err != nil {
		return fmt.Errorf("seasonality.missing_origin: %w", err)
	}
	if _, err := seasonality.ParseDailyMetric(c.Seasonality.DailyMetric); err != nil {
		return fmt.Errorf("seasonality.daily_metric: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Location returns the exchange time zone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SeasonalityOptions converts the seasonality section into aggregator options.
// Validate must have passed.
func (c *Config) SeasonalityOptions() seasonality.Options {
	policy, _ := seasonality.ParseMissingOriginPolicy(c.Seasonality.MissingOrigin)
	metric, _ := seasonality.ParseDailyMetric(c.Seasonality.DailyMetric)
	return seasonality.Options{
		MissingOrigin:       policy,
		DailyMetric:         metric,
		MovingAverageWindow: c.Seasonality.MovingAverageWindow,
	}
}

// TelegramEnabled reports whether alerts and command polling are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
