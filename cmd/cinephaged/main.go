// Command cinephaged runs the Cinephage decision/orchestration core as a
// headless daemon: no GUI, no HTTP/UI server (explicit Non-goal). It loads
// configuration, wires the in-memory reference store, builds every
// in-scope component, starts the background services, and waits for a
// shutdown signal.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinephage/cinephage/internal/config"
	"github.com/cinephage/cinephage/internal/download"
	"github.com/cinephage/cinephage/internal/external"
	"github.com/cinephage/cinephage/internal/format"
	"github.com/cinephage/cinephage/internal/logger"
	"github.com/cinephage/cinephage/internal/monitor"
	"github.com/cinephage/cinephage/internal/scoring"
	"github.com/cinephage/cinephage/internal/search"
	"github.com/cinephage/cinephage/internal/search/ratelimit"
	"github.com/cinephage/cinephage/internal/store/memstore"
	"github.com/cinephage/cinephage/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().Str("version", config.Version).Str("logLevel", cfg.Logging.Level).Msg("starting cinephage")

	db := memstore.New()
	profiles := scoring.BuiltinProfiles()
	profileByID := make(map[int64]scoring.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}
	scorer := scoring.NewScorer(format.Builtins())

	// No concrete indexer or download-client adapters ship with this module
	// (spec §6 Non-goal); a deployment wires its own via these slices.
	indexers := []external.IndexerAdapter{}
	clients := []external.DownloadClientAdapter{}
	var importer external.ImportCollaborator

	orchestrator := search.New(search.Config{
		MaxConcurrentSearches: cfg.Search.MaxConcurrentSearches,
		MaxRetries:            uint(cfg.Search.MaxRetries),
		RetryBaseDelay:        cfg.Search.RetryBaseDelayDuration(),
		CacheCapacity:         cfg.Search.CacheCapacity,
		IndexerRateLimit: ratelimit.Config{
			Requests: cfg.Indexer.RateLimit.QueryLimit,
			Period:   cfg.Indexer.RateLimit.QueryPeriodDuration(),
		},
		HostRateLimit: ratelimit.Config{
			Requests: cfg.Indexer.RateLimit.HostLimit,
			Period:   cfg.Indexer.RateLimit.HostPeriodDuration(),
		},
	}, indexers, scorer, log.Logger)

	downloadCfg := download.Config{
		MaxImportAttempts: cfg.Download.MaxImportAttempts,
		BlocklistTTL:      cfg.Download.BlocklistTTLDuration(),
		PollInterval:      cfg.Download.PollIntervalDuration(),
		PendingMaxAge:      cfg.Download.PendingMaxAgeDuration(),
		Category:           cfg.Download.Category,
	}
	controller := download.New(downloadCfg, clients, db.Queue, db.Pending, db.Blocklist, db.Library, importer, log.Logger)

	sched, err := monitor.New(db.History, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create monitoring scheduler")
	}

	monitorCfg := monitor.Config{
		MissingContent: taskInterval(cfg.Monitor.MissingContent),
		Upgrade:        taskInterval(cfg.Monitor.Upgrade),
		CutoffUnmet:    taskInterval(cfg.Monitor.CutoffUnmet),
		NewEpisode:     taskInterval(cfg.Monitor.NewEpisode),
		PendingRelease: taskInterval(cfg.Monitor.PendingRelease),
	}
	err = monitor.RegisterTasks(sched, monitorCfg, monitor.Deps{
		Library:               db.Library,
		Cooldowns:              db.Cooldown,
		Blocklist:              db.Blocklist,
		History:                db.History,
		Searcher:               orchestrator,
		Grabber:                controller,
		Pending:                controller,
		Profiles:               func(id int64) scoring.Profile { return profileByID[id] },
		Scorer:                 scorer,
		Log:                    log.Logger,
		NewEpisodeWindowHours:  cfg.Monitor.NewEpisodeWindowHours,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register monitoring tasks")
	}

	workerManager := worker.NewManager(worker.ManagerConfig{
		MaxConcurrentPerType: cfg.Worker.MaxConcurrentPerType,
		LogBufferSize:        cfg.Worker.LogBufferSize,
		GCInterval:           cfg.Worker.GCIntervalDuration(),
		GCAfter:              cfg.Worker.GCAfterDuration(),
	}, log.Logger)

	services := worker.NewServiceManager(log.Logger)
	services.Register(schedulerService{sched: sched})
	services.Register(worker.NewPeriodicService("search_cache_sweep", 5*time.Minute, func(ctx context.Context) {
		orchestrator.SweepCache()
	}))
	services.Register(worker.NewPeriodicService("download_poll", cfg.Download.PollIntervalDuration(), func(ctx context.Context) {
		if err := controller.PollOnce(ctx); err != nil {
			log.Error().Err(err).Msg("download poll failed")
		}
	}))
	services.Register(download.NewOrphanSweeper(controller, download.OrphanSweepConfig{
		Interval:         cfg.Download.OrphanSweepIntervalDuration(),
		PendingRetention: cfg.Download.OrphanPendingRetentionDuration(),
		DryRun:           cfg.Download.OrphanSweepDryRun,
	}, log.Logger))
	services.Register(worker.NewPeriodicService("worker_gc", cfg.Worker.GCIntervalDuration(), func(ctx context.Context) {
		if n := workerManager.GC(); n > 0 {
			log.Info().Int("reaped", n).Msg("worker GC reaped terminal workers")
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	if err := services.StartAll(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("failed to start background services")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("received shutdown signal")

	cancel()
	workerManager.CancelAll()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	services.StopAll(stopCtx)

	log.Info().Msg("cinephage stopped")
}

func taskInterval(c config.TaskIntervalConfig) monitor.TaskInterval {
	return monitor.TaskInterval{Enabled: c.Enabled, Cron: c.Cron, IntervalHours: c.IntervalHours}
}

// schedulerService adapts *monitor.Scheduler (whose Start takes no context
// and returns no error) into a worker.BackgroundService.
type schedulerService struct {
	sched *monitor.Scheduler
}

func (s schedulerService) Name() string { return "monitor_scheduler" }

func (s schedulerService) Start(ctx context.Context) error {
	s.sched.Start()
	return nil
}

func (s schedulerService) Stop(ctx context.Context) error {
	return s.sched.Stop()
}
