package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinephage/cinephage/internal/scoring"
	"github.com/cinephage/cinephage/internal/search"
	"github.com/cinephage/cinephage/internal/specification"
	"github.com/cinephage/cinephage/internal/store"
)

// batchCap bounds how many library items one task invocation considers
// (spec §4.5 default 50).
const batchCap = 50

// Searcher is the subset of the Search Orchestrator a monitoring task
// needs, kept as an interface so this package never imports
// internal/search's adapter wiring directly.
type Searcher interface {
	Search(ctx context.Context, criteria search.Criteria, profile scoring.Profile, scoringCtx scoring.Context) (search.Response, error)
}

// Grabber dispatches an accepted candidate to the Download Lifecycle
// Controller, either immediately or via the pending-release delay queue
// (spec §4.6). Implemented by internal/download.
type Grabber interface {
	Grab(ctx context.Context, contentKey string, result search.Result, profile scoring.Profile, delay *specification.DelayDecision) error
}

// PendingProcessor runs the pending-release queue sweep (spec §4.6),
// implemented by internal/download.
type PendingProcessor interface {
	ProcessDue(ctx context.Context) (considered, grabbed int, err error)
}

// ProfileLookup resolves a library item's scoring profile by id.
type ProfileLookup func(profileID int64) scoring.Profile

// Deps bundles every collaborator RegisterTasks needs to wire the five
// monitoring tasks (SPEC_FULL.md §4.5a: "task registration via one
// RegisterTasks call").
type Deps struct {
	Library   store.LibraryStore
	Cooldowns store.CooldownStore
	Blocklist store.BlocklistStore
	History   store.HistoryStore
	Searcher  Searcher
	Grabber   Grabber
	Pending   PendingProcessor
	Profiles  ProfileLookup
	Scorer    *scoring.Scorer
	Log       zerolog.Logger

	NewEpisodeWindowHours int // spec §4.5 default 24
}

// Config enables/disables and intervals each of the five tasks.
type Config struct {
	MissingContent TaskInterval
	Upgrade        TaskInterval
	CutoffUnmet    TaskInterval
	NewEpisode     TaskInterval
	PendingRelease TaskInterval
}

// TaskInterval is one task's schedule.
type TaskInterval struct {
	Enabled       bool
	Cron          string
	IntervalHours int // used for cooldown math; 0 disables cooldown math
}

// RegisterTasks registers the five monitoring tasks with sched
// (SPEC_FULL.md §4.5a).
func RegisterTasks(sched *Scheduler, cfg Config, deps Deps) error {
	registrations := []struct {
		id       string
		taskType string
		kind     specification.TaskKind
		interval TaskInterval
	}{
		{"missing_content", "missing_content", specification.TaskMissingContent, cfg.MissingContent},
		{"upgrade", "upgrade", specification.TaskUpgrade, cfg.Upgrade},
		{"cutoff_unmet", "cutoff_unmet", specification.TaskCutoffUnmet, cfg.CutoffUnmet},
		{"new_episode", "new_episode", specification.TaskNewEpisode, cfg.NewEpisode},
	}

	for _, reg := range registrations {
		if !reg.interval.Enabled {
			continue
		}
		kind := reg.kind
		err := sched.RegisterTask(TaskConfig{
			ID:       reg.id,
			Name:     reg.id,
			TaskType: reg.taskType,
			Cron:     reg.interval.Cron,
			Func: func(ctx context.Context) (int, int, error) {
				return runMonitoringTask(ctx, kind, deps, time.Duration(reg.interval.IntervalHours)*time.Hour)
			},
		})
		if err != nil {
			return err
		}
	}

	if cfg.PendingRelease.Enabled {
		err := sched.RegisterTask(TaskConfig{
			ID:       "pending_release",
			Name:     "pending_release",
			TaskType: "pending_release",
			Cron:     cfg.PendingRelease.Cron,
			Func: func(ctx context.Context) (int, int, error) {
				if deps.Pending == nil {
					return 0, 0, nil
				}
				return deps.Pending.ProcessDue(ctx)
			},
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// runMonitoringTask is the shared body for the four content-driven tasks:
// iterate monitored items, evaluate each against the fixed-order
// Specification pipeline, search+grab the first accepted candidate, and
// set a search cooldown for every item the gating steps reject or whose
// search yields no grab (spec §4.5). A search that returns an error sets no
// cooldown.
func runMonitoringTask(ctx context.Context, kind specification.TaskKind, deps Deps, interval time.Duration) (int, int, error) {
	mediaTypes := []string{"movie", "episode"}
	considered := 0
	grabbed := 0

	for _, mediaType := range mediaTypes {
		items, err := deps.Library.MonitoredItems(ctx, mediaType, batchCap)
		if err != nil {
			return considered, grabbed, err
		}

		for _, item := range items {
			select {
			case <-ctx.Done():
				return considered, grabbed, ctx.Err()
			default:
			}

			considered++
			if !evaluateAndGrab(ctx, kind, item, deps, interval) {
				continue
			}
			grabbed++
		}
	}

	return considered, grabbed, nil
}

// evaluateAndGrab runs one library item through the cooldown check, the
// Specification pipeline (pre-search steps only — monitored/content-gate),
// then a live search, per-result evaluation, and dispatch of the first
// accepted candidate. Returns true if a grab was dispatched.
func evaluateAndGrab(ctx context.Context, kind specification.TaskKind, item store.LibraryItem, deps Deps, interval time.Duration) bool {
	if active, _ := nextSearchAt(ctx, deps.Cooldowns, item.ContentKey); active != nil && active.After(time.Now()) {
		return false
	}

	profile := deps.Profiles(item.ProfileID)
	mt := scoring.MediaTypeMovie
	if item.MediaType == "episode" {
		mt = scoring.MediaTypeTV
	}

	baseCtx := specification.Context{
		Now:                   time.Now(),
		MediaType:             mt,
		Monitored:             item.Monitored,
		SeriesMonitored:       item.SeriesMonitored,
		SeasonMonitored:       item.SeasonMonitored,
		EpisodeMonitored:      item.EpisodeMonitored,
		HasFile:               item.HasFile,
		ExistingTitle:         item.ExistingTitle,
		ExistingSize:          item.ExistingSize,
		Profile:               &profile,
		AirDate:               item.AirDate,
		NewEpisodeWindowHours: deps.NewEpisodeWindowHours,
	}

	upgradeSpec := specification.UpgradeableSpec(deps.Scorer, profile.MinScoreIncrement)
	steps := specification.Pipeline(kind, item.ExistingScore, upgradeSpec)

	// The pipeline's later steps (protocol/size/blocklist/upgradeable) all
	// require a Candidate, which doesn't exist until after a search runs.
	// Gate on just the steps that don't (monitored, plus the task-specific
	// content check) before paying for a search.
	gating := steps[:2]
	if _, decision := specification.Evaluate(baseCtx, gating); !decision.Accepted {
		recordRejection(ctx, deps, item, kind, decision)
		_ = setCooldown(ctx, deps.Cooldowns, item.ContentKey, baseCtx.Now, interval)
		return false
	}

	criteria := search.Criteria{
		MediaType:   item.MediaType,
		TmdbID:      item.TmdbID,
		Title:       item.Title,
		Year:        item.Year,
		Season:      item.SeasonNumber,
		Episode:     item.EpisodeNumber,
		EpisodePack: item.IsSeasonPack,
	}
	scoringCtx := scoring.Context{MediaType: mt, EpisodeCount: item.EpisodeCount}

	resp, err := deps.Searcher.Search(ctx, criteria, profile, scoringCtx)
	if err != nil {
		return false
	}

	for _, result := range resp.Results {
		candCtx := baseCtx
		candCtx.Candidate = &specification.Candidate{
			Title: result.Title, SizeBytes: result.SizeBytes,
			Protocol: result.Protocol, InfoHash: result.InfoHash,
			PublishDate: result.PublishDate, Score: result.Score,
		}
		if blocked, _ := deps.Blocklist.ForContentKey(ctx, item.ContentKey); matchesBlocklist(blocked, result) {
			candCtx.Blocklist = specification.BlocklistMatch{Matched: true, Reason: "blocklisted"}
		}

		_, decision := specification.Evaluate(candCtx, steps)
		if !decision.Accepted {
			recordRejection(ctx, deps, item, kind, decision)
			continue
		}

		delay := specification.DelaySpec(candCtx, string(result.Attributes.Resolution), false)
		if err := deps.Grabber.Grab(ctx, item.ContentKey, result, profile, &delay); err != nil {
			continue
		}
		if deps.History != nil {
			_ = deps.History.RecordMonitoring(ctx, store.MonitoringHistory{
				ContentKey: item.ContentKey, TaskType: string(kind), Accepted: true,
				Title: result.Title, Score: result.Score.TotalScore, CreatedAt: time.Now(),
			})
		}
		return true
	}

	_ = setCooldown(ctx, deps.Cooldowns, item.ContentKey, baseCtx.Now, interval)
	return false
}

func matchesBlocklist(entries []store.BlocklistEntry, result search.Result) bool {
	for _, e := range entries {
		if e.InfoHash != "" && e.InfoHash == result.InfoHash {
			return true
		}
		if e.Title != "" && e.Title == result.Title {
			return true
		}
	}
	return false
}

func recordRejection(ctx context.Context, deps Deps, item store.LibraryItem, kind specification.TaskKind, decision specification.Decision) {
	if deps.History == nil {
		return
	}
	_ = deps.History.RecordMonitoring(ctx, store.MonitoringHistory{
		ContentKey: item.ContentKey, TaskType: string(kind), Accepted: false,
		Reason: string(decision.Reason), CreatedAt: time.Now(),
	})
}
