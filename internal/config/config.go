package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Indexer  IndexerConfig  `mapstructure:"indexer"`
	Search   SearchConfig   `mapstructure:"search"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Download DownloadConfig `mapstructure:"download"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// DatabaseConfig holds database configuration. The concrete storage engine
// is an implementer choice (spec §6 Non-goal); this only names where its
// state lives on disk.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`  // Max size in MB before rotation (default: 10)
	MaxBackups int    `mapstructure:"max_backups"`  // Max number of old log files to keep (default: 5)
	MaxAgeDays int    `mapstructure:"max_age_days"` // Max age in days to keep old files (default: 30)
	Compress   bool   `mapstructure:"compress"`     // Compress rotated files (default: true)
}

// IndexerConfig holds indexer-related configuration shared across every
// configured indexer adapter.
type IndexerConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds the sliding-window rate limits the search
// orchestrator applies to every indexer and every host bucket
// (internal/search/ratelimit); a limit declared on an indexer definition is
// not consulted.
type RateLimitConfig struct {
	QueryLimit  int `mapstructure:"query_limit"`  // Default: 100
	QueryPeriod int `mapstructure:"query_period"` // Default: 60 (minutes)
	HostLimit   int `mapstructure:"host_limit"`   // Default: 50, shared per base domain
	HostPeriod  int `mapstructure:"host_period"`  // Default: 60 (minutes)
}

// QueryPeriodDuration returns the query period as a time.Duration.
func (r *RateLimitConfig) QueryPeriodDuration() time.Duration {
	return time.Duration(r.QueryPeriod) * time.Minute
}

// HostPeriodDuration returns the host-bucket period as a time.Duration.
func (r *RateLimitConfig) HostPeriodDuration() time.Duration {
	return time.Duration(r.HostPeriod) * time.Minute
}

// SearchConfig tunes the Search Orchestrator (spec §4.4).
type SearchConfig struct {
	MaxConcurrentSearches int `mapstructure:"max_concurrent_searches"` // Default: 8
	MaxRetries            int `mapstructure:"max_retries"`             // Default: 2
	RetryBaseDelayMs      int `mapstructure:"retry_base_delay_ms"`     // Default: 500
	CacheCapacity         int `mapstructure:"cache_capacity"`          // Default: 256
}

// RetryBaseDelayDuration returns the retry base delay as a time.Duration.
func (c *SearchConfig) RetryBaseDelayDuration() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// MonitorConfig tunes the Monitoring Scheduler and its five tasks (spec
// §4.5).
type MonitorConfig struct {
	MissingContent TaskIntervalConfig `mapstructure:"missing_content"`
	Upgrade        TaskIntervalConfig `mapstructure:"upgrade"`
	CutoffUnmet    TaskIntervalConfig `mapstructure:"cutoff_unmet"`
	NewEpisode     TaskIntervalConfig `mapstructure:"new_episode"`
	PendingRelease TaskIntervalConfig `mapstructure:"pending_release"`

	NewEpisodeWindowHours int `mapstructure:"new_episode_window_hours"` // Default: 24
}

// TaskIntervalConfig describes one monitoring task's cron schedule.
type TaskIntervalConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Cron          string `mapstructure:"cron"`
	IntervalHours int    `mapstructure:"interval_hours"` // feeds the search-cooldown math (spec §4.5)
}

// DownloadConfig tunes the Download Lifecycle Controller, the pending
// delay queue, and the orphan-cleanup sweep (spec §4.6, §4.6a).
type DownloadConfig struct {
	MaxImportAttempts   int    `mapstructure:"max_import_attempts"`    // Default: 3
	BlocklistTTLHours   int    `mapstructure:"blocklist_ttl_hours"`    // Default: 24
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`  // Default: 10
	PendingMaxAgeHours  int    `mapstructure:"pending_max_age_hours"`  // Default: 72
	Category            string `mapstructure:"category"`               // Default: "cinephage"

	OrphanSweepIntervalMinutes int  `mapstructure:"orphan_sweep_interval_minutes"` // Default: 30
	OrphanPendingRetentionDays int  `mapstructure:"orphan_pending_retention_days"` // Default: 7
	OrphanSweepDryRun          bool `mapstructure:"orphan_sweep_dry_run"`
}

// BlocklistTTLDuration returns the blocklist entry TTL as a time.Duration.
func (c *DownloadConfig) BlocklistTTLDuration() time.Duration {
	return time.Duration(c.BlocklistTTLHours) * time.Hour
}

// PollIntervalDuration returns the queue poll interval as a time.Duration.
func (c *DownloadConfig) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// PendingMaxAgeDuration returns the pending-release max age as a
// time.Duration.
func (c *DownloadConfig) PendingMaxAgeDuration() time.Duration {
	return time.Duration(c.PendingMaxAgeHours) * time.Hour
}

// OrphanSweepIntervalDuration returns the orphan-sweep interval as a
// time.Duration.
func (c *DownloadConfig) OrphanSweepIntervalDuration() time.Duration {
	return time.Duration(c.OrphanSweepIntervalMinutes) * time.Minute
}

// OrphanPendingRetentionDuration returns the orphan-sweep pending-release
// retention window as a time.Duration.
func (c *DownloadConfig) OrphanPendingRetentionDuration() time.Duration {
	return time.Duration(c.OrphanPendingRetentionDays) * 24 * time.Hour
}

// WorkerConfig tunes the generic Worker/BackgroundService framework (spec
// §4.7).
type WorkerConfig struct {
	MaxConcurrentPerType int `mapstructure:"max_concurrent_per_type"` // Default: 4
	LogBufferSize        int `mapstructure:"log_buffer_size"`         // Default: 200
	GCIntervalMinutes    int `mapstructure:"gc_interval_minutes"`     // Default: 5
	GCAfterMinutes       int `mapstructure:"gc_after_minutes"`        // Default: 60
}

// GCIntervalDuration returns the worker-GC interval as a time.Duration.
func (c *WorkerConfig) GCIntervalDuration() time.Duration {
	return time.Duration(c.GCIntervalMinutes) * time.Minute
}

// GCAfterDuration returns the worker-GC retention window as a
// time.Duration.
func (c *WorkerConfig) GCAfterDuration() time.Duration {
	return time.Duration(c.GCAfterMinutes) * time.Minute
}

// Default returns a Config with default values.
func Default() *Config {
	dataDir := getDataDir()
	logDir := getLogDir()

	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "cinephage.db"),
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Path:     logDir,
			Compress: true,
		},
		Indexer: IndexerConfig{
			RateLimit: RateLimitConfig{
				QueryLimit:  100,
				QueryPeriod: 60,
				HostLimit:   50,
				HostPeriod:  60,
			},
		},
		Search: SearchConfig{
			MaxConcurrentSearches: 8,
			MaxRetries:            2,
			RetryBaseDelayMs:      500,
			CacheCapacity:         256,
		},
		Monitor: MonitorConfig{
			MissingContent:        TaskIntervalConfig{Enabled: true, Cron: "0 */6 * * *", IntervalHours: 6},
			Upgrade:               TaskIntervalConfig{Enabled: true, Cron: "0 2 * * *", IntervalHours: 24},
			CutoffUnmet:           TaskIntervalConfig{Enabled: true, Cron: "0 3 * * *", IntervalHours: 24},
			NewEpisode:            TaskIntervalConfig{Enabled: true, Cron: "*/15 * * * *", IntervalHours: 1},
			PendingRelease:        TaskIntervalConfig{Enabled: true, Cron: "* * * * *"},
			NewEpisodeWindowHours: 24,
		},
		Download: DownloadConfig{
			MaxImportAttempts:          3,
			BlocklistTTLHours:          24,
			PollIntervalSeconds:        10,
			PendingMaxAgeHours:         72,
			Category:                   "cinephage",
			OrphanSweepIntervalMinutes: 30,
			OrphanPendingRetentionDays: 7,
		},
		Worker: WorkerConfig{
			MaxConcurrentPerType: 4,
			LogBufferSize:        200,
			GCIntervalMinutes:    5,
			GCAfterMinutes:       60,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env file > config file > defaults
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists (secrets go here)
	envFiles := []string{".env", "configs/.env"}
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile) // Ignore error, env vars are optional
			break
		}
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		switch runtime.GOOS {
		case "windows":
			if appData := os.Getenv("APPDATA"); appData != "" {
				v.AddConfigPath(filepath.Join(appData, "Cinephage"))
			}
		case "darwin":
			if home, err := os.UserHomeDir(); err == nil {
				v.AddConfigPath(filepath.Join(home, "Library", "Application Support", "Cinephage"))
			}
		case "linux":
			configHome := os.Getenv("XDG_CONFIG_HOME")
			if configHome == "" {
				if home, err := os.UserHomeDir(); err == nil {
					configHome = filepath.Join(home, ".config")
				}
			}
			if configHome != "" {
				v.AddConfigPath(filepath.Join(configHome, "cinephage"))
			}
		}
		v.AddConfigPath("$HOME/.cinephage")
	}

	v.SetEnvPrefix("CINEPHAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in viper.
func setDefaults(v *viper.Viper) {
	dataDir := getDataDir()
	logDir := getLogDir()

	v.SetDefault("database.path", filepath.Join(dataDir, "cinephage.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", logDir)
	v.SetDefault("logging.compress", true)

	v.SetDefault("indexer.rate_limit.query_limit", 100)
	v.SetDefault("indexer.rate_limit.query_period", 60)
	v.SetDefault("indexer.rate_limit.host_limit", 50)
	v.SetDefault("indexer.rate_limit.host_period", 60)

	v.SetDefault("search.max_concurrent_searches", 8)
	v.SetDefault("search.max_retries", 2)
	v.SetDefault("search.retry_base_delay_ms", 500)
	v.SetDefault("search.cache_capacity", 256)

	v.SetDefault("monitor.missing_content.enabled", true)
	v.SetDefault("monitor.missing_content.cron", "0 */6 * * *")
	v.SetDefault("monitor.missing_content.interval_hours", 6)
	v.SetDefault("monitor.upgrade.enabled", true)
	v.SetDefault("monitor.upgrade.cron", "0 2 * * *")
	v.SetDefault("monitor.upgrade.interval_hours", 24)
	v.SetDefault("monitor.cutoff_unmet.enabled", true)
	v.SetDefault("monitor.cutoff_unmet.cron", "0 3 * * *")
	v.SetDefault("monitor.cutoff_unmet.interval_hours", 24)
	v.SetDefault("monitor.new_episode.enabled", true)
	v.SetDefault("monitor.new_episode.cron", "*/15 * * * *")
	v.SetDefault("monitor.new_episode.interval_hours", 1)
	v.SetDefault("monitor.pending_release.enabled", true)
	v.SetDefault("monitor.pending_release.cron", "* * * * *")
	v.SetDefault("monitor.new_episode_window_hours", 24)

	v.SetDefault("download.max_import_attempts", 3)
	v.SetDefault("download.blocklist_ttl_hours", 24)
	v.SetDefault("download.poll_interval_seconds", 10)
	v.SetDefault("download.pending_max_age_hours", 72)
	v.SetDefault("download.category", "cinephage")
	v.SetDefault("download.orphan_sweep_interval_minutes", 30)
	v.SetDefault("download.orphan_pending_retention_days", 7)
	v.SetDefault("download.orphan_sweep_dry_run", false)

	v.SetDefault("worker.max_concurrent_per_type", 4)
	v.SetDefault("worker.log_buffer_size", 200)
	v.SetDefault("worker.gc_interval_minutes", 5)
	v.SetDefault("worker.gc_after_minutes", 60)
}

// getDataDir returns the platform-specific data directory.
func getDataDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Cinephage")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support", "Cinephage")
		}
	case "linux":
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			if home, err := os.UserHomeDir(); err == nil {
				configHome = filepath.Join(home, ".config")
			}
		}
		if configHome != "" {
			return filepath.Join(configHome, "cinephage")
		}
	}
	return "./data"
}

// getLogDir returns the platform-specific log directory.
func getLogDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Cinephage", "logs")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Logs", "Cinephage")
		}
	case "linux":
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			if home, err := os.UserHomeDir(); err == nil {
				configHome = filepath.Join(home, ".config")
			}
		}
		if configHome != "" {
			return filepath.Join(configHome, "cinephage", "logs")
		}
	}
	return "./data/logs"
}
