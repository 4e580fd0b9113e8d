// Package download implements the Download Lifecycle Controller and the
// pending-release delay queue (spec §4.6): dispatching grabs to a
// download-client adapter, polling in-flight jobs for status transitions,
// handing completed downloads to the import collaborator, and blocklisting
// releases that repeatedly fail to import.
//
// Grounded on the teacher's internal/downloader/service.go client-pool
// cache pattern (a mutex-guarded map[int64]Client keyed by client id),
// adapted to the external.DownloadClientAdapter collaborator interface.
package download

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinephage/cinephage/internal/external"
	"github.com/cinephage/cinephage/internal/scoring"
	"github.com/cinephage/cinephage/internal/search"
	"github.com/cinephage/cinephage/internal/specification"
	"github.com/cinephage/cinephage/internal/store"
)

// Config tunes the controller's retry/cleanup thresholds (spec §4.6).
type Config struct {
	MaxImportAttempts int           // default 3
	BlocklistTTL      time.Duration // default 24h
	PollInterval      time.Duration // default 10s
	PendingMaxAge     time.Duration // default 72h
	Category          string
}

// DefaultConfig returns the spec's defaults.
func DefaultConfig() Config {
	return Config{
		MaxImportAttempts: 3,
		BlocklistTTL:      24 * time.Hour,
		PollInterval:      10 * time.Second,
		PendingMaxAge:     72 * time.Hour,
		Category:          "cinephage",
	}
}

// Controller owns the grab -> poll -> import-or-blocklist state machine and
// the pending-release delay queue. It structurally satisfies
// internal/monitor's Grabber and PendingProcessor interfaces.
type Controller struct {
	cfg Config

	queue     store.QueueStore
	pending   store.PendingReleaseStore
	blocklist store.BlocklistStore
	library   store.LibraryStore
	importer  external.ImportCollaborator
	log       zerolog.Logger

	clientsMu sync.RWMutex
	clients   map[int64]external.DownloadClientAdapter
}

// New creates a Controller over the given download-client pool.
func New(cfg Config, clients []external.DownloadClientAdapter, queue store.QueueStore, pending store.PendingReleaseStore, blocklist store.BlocklistStore, library store.LibraryStore, importer external.ImportCollaborator, log zerolog.Logger) *Controller {
	pool := make(map[int64]external.DownloadClientAdapter, len(clients))
	for _, c := range clients {
		pool[c.Definition().ID] = c
	}
	return &Controller{
		cfg: cfg, clients: pool, queue: queue, pending: pending,
		blocklist: blocklist, library: library, importer: importer,
		log: log.With().Str("component", "download_controller").Logger(),
	}
}

// Grab implements monitor.Grabber: either hold the release in the pending
// queue until its delay window elapses, or dispatch it to a download
// client immediately (spec §4.6).
func (c *Controller) Grab(ctx context.Context, contentKey string, result search.Result, profile scoring.Profile, delay *specification.DelayDecision) error {
	if delay != nil && delay.ShouldDelay {
		return c.enqueuePending(ctx, contentKey, result, delay.ProcessAt)
	}
	return c.dispatch(ctx, contentKey, result)
}

// enqueuePending enforces the single-pending-per-content-key invariant
// (spec §4.6 step 2): a fresh delayed grab only supersedes an existing
// pending row for the same content when it scores higher; a worse release
// arriving later is dropped instead of displacing a better one already
// held. The superseded row is marked, not deleted, so the supersession
// stays in the audit trail.
func (c *Controller) enqueuePending(ctx context.Context, contentKey string, result search.Result, processAt time.Time) error {
	existing, err := c.pending.ByContentKey(ctx, contentKey)
	if err != nil {
		return err
	}
	if existing != nil && existing.Score >= result.Score.TotalScore {
		c.log.Info().Str("contentKey", contentKey).Int("existingScore", existing.Score).Int("candidateScore", result.Score.TotalScore).
			Msg("pending candidate does not beat existing pending release, dropping")
		return nil
	}

	newID, err := c.pending.Add(ctx, store.PendingRelease{
		ContentKey:   contentKey,
		Title:        result.Title,
		InfoHash:     result.InfoHash,
		SizeBytes:    result.SizeBytes,
		Protocol:     string(result.Protocol),
		DownloadURL:  result.DownloadURL,
		MagnetURL:    result.MagnetURL,
		Score:        result.Score.TotalScore,
		Status:       store.PendingStatusPending,
		DiscoveredAt: time.Now(),
		ProcessAt:    processAt,
	})
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Status = store.PendingStatusSuperseded
		existing.SupersededBy = newID
		if err := c.pending.Update(ctx, *existing); err != nil {
			return fmt.Errorf("mark pending release %d superseded: %w", existing.ID, err)
		}
	}
	return nil
}

// dispatch sends result to the highest-priority enabled client whose
// protocol matches, then records a QueueItem (spec §4.6).
func (c *Controller) dispatch(ctx context.Context, contentKey string, result search.Result) error {
	client := c.selectClient(result.Protocol)
	if client == nil {
		return fmt.Errorf("no enabled download client supports protocol %q", result.Protocol)
	}

	payload := external.DownloadPayload{Magnet: result.MagnetURL}
	externalID, err := client.Add(ctx, payload, c.cfg.Category)
	if err != nil {
		return fmt.Errorf("dispatch to client %q: %w", client.Definition().Name, err)
	}

	_, err = c.queue.Add(ctx, store.QueueItem{
		ContentKey:       contentKey,
		Title:            result.Title,
		InfoHash:         result.InfoHash,
		DownloadClientID: client.Definition().ID,
		ExternalID:       externalID,
		Status:           store.QueueStatusDownloading,
		SizeBytes:        result.SizeBytes,
		Score:            result.Score.TotalScore,
		AddedAt:          time.Now(),
		UpdatedAt:        time.Now(),
	})
	return err
}

// selectClient returns the enabled client with the highest priority that
// accepts proto, or nil.
func (c *Controller) selectClient(proto scoring.Protocol) external.DownloadClientAdapter {
	c.clientsMu.RLock()
	defer c.clientsMu.RUnlock()

	candidates := make([]external.DownloadClientAdapter, 0, len(c.clients))
	for _, cl := range c.clients {
		def := cl.Definition()
		if !def.Enabled {
			continue
		}
		if def.Protocol != "" && string(def.Protocol) != string(proto) {
			continue
		}
		candidates = append(candidates, cl)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Definition().Priority > candidates[j].Definition().Priority
	})
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

// PollOnce walks every active QueueItem, fetches its current client status,
// and reacts to the transition: completed jobs are handed to the import
// collaborator; jobs that have failed to import MaxImportAttempts times are
// blocklisted and dropped from the queue (spec §4.6).
func (c *Controller) PollOnce(ctx context.Context) error {
	items, err := c.queue.Active(ctx)
	if err != nil {
		return err
	}

	for _, item := range items {
		c.clientsMu.RLock()
		client, ok := c.clients[item.DownloadClientID]
		c.clientsMu.RUnlock()
		if !ok {
			continue
		}

		status, err := client.Status(ctx, item.ExternalID)
		if err != nil {
			c.log.Warn().Err(err).Str("contentKey", item.ContentKey).Msg("status poll failed")
			continue
		}

		switch status.State {
		case external.ClientStateCompleted:
			c.handleCompleted(ctx, item, status)
		case external.ClientStateError, external.ClientStateMissing:
			c.handleFailure(ctx, item, store.BlocklistReasonDownloadFailed, status.ErrorMessage)
		default:
			item.Status = store.QueueStatusDownloading
			_ = c.queue.Update(ctx, item)
		}
	}
	return nil
}

func (c *Controller) handleCompleted(ctx context.Context, item store.QueueItem, status external.ClientStatus) {
	item.Status = store.QueueStatusImporting
	item.UpdatedAt = time.Now()
	_ = c.queue.Update(ctx, item)

	if c.importer == nil {
		return
	}

	if _, err := c.importer.Import(ctx, item.ContentKey, status.SavePath); err != nil {
		c.handleFailure(ctx, item, store.BlocklistReasonImportFailed, err.Error())
		return
	}

	item.Status = store.QueueStatusCompleted
	item.UpdatedAt = time.Now()
	_ = c.queue.Update(ctx, item)
}

// handleFailure increments the import-attempt counter and blocklists the
// release once it reaches the configured threshold (spec §4.6:
// "importAttempts=3-then-blocklist-with-24h-TTL"). reason is one of the
// closed BlocklistReason values; rawErr is the collaborator's own error
// text, logged but never persisted (spec §7).
func (c *Controller) handleFailure(ctx context.Context, item store.QueueItem, reason store.BlocklistReason, rawErr string) {
	item.ImportAttempts++
	item.UpdatedAt = time.Now()

	if item.ImportAttempts < c.cfg.MaxImportAttempts {
		_ = c.queue.Update(ctx, item)
		c.log.Warn().Str("contentKey", item.ContentKey).Str("reason", string(reason)).Str("error", rawErr).
			Int("attempts", item.ImportAttempts).Msg("queue item failed, will retry")
		return
	}

	c.log.Warn().Str("contentKey", item.ContentKey).Str("reason", string(reason)).Str("error", rawErr).
		Msg("queue item exhausted import attempts, blocklisting")

	expires := time.Now().Add(c.cfg.BlocklistTTL)
	_, _ = c.blocklist.Add(ctx, store.BlocklistEntry{
		ContentKey: item.ContentKey,
		InfoHash:   item.InfoHash,
		Title:      item.Title,
		Reason:     reason,
		CreatedAt:  time.Now(),
		ExpiresAt:  &expires,
	})
	_ = c.queue.Delete(ctx, item.ID)
}

// newCorrelationID returns a random id for tagging a poll cycle in
// structured logs; nothing in this package calls it.
func newCorrelationID() string { return uuid.NewString() }

// SweepOrphans removes queue rows that can no longer be polled (their
// download client was removed from the pool since they were dispatched),
// pending rows that have sat unprocessed well past their delay window, and
// expired blocklist entries (spec §4.6a). When dryRun is true, orphaned
// queue and pending rows are logged and counted but nothing is deleted;
// expired blocklist entries are neither pruned nor counted in dry-run. It
// returns the total rows matched (or, outside dry-run, removed).
func (c *Controller) SweepOrphans(ctx context.Context, pendingRetention time.Duration, dryRun bool) (int, error) {
	removed := 0

	active, err := c.queue.Active(ctx)
	if err != nil {
		return removed, fmt.Errorf("list active queue items: %w", err)
	}
	c.clientsMu.RLock()
	for _, item := range active {
		if _, ok := c.clients[item.DownloadClientID]; ok {
			continue
		}
		c.clientsMu.RUnlock()
		c.log.Warn().Bool("dryRun", dryRun).Str("contentKey", item.ContentKey).Int64("clientId", item.DownloadClientID).
			Msg("orphaned queue item: download client no longer configured")
		if dryRun {
			removed++
		} else if err := c.queue.Delete(ctx, item.ID); err == nil {
			removed++
		}
		c.clientsMu.RLock()
	}
	c.clientsMu.RUnlock()

	stale, err := c.pending.OlderThan(ctx, time.Now().Add(-pendingRetention))
	if err != nil {
		return removed, fmt.Errorf("list stale pending releases: %w", err)
	}
	for _, p := range stale {
		c.log.Warn().Bool("dryRun", dryRun).Str("contentKey", p.ContentKey).Msg("orphaned pending release: exceeded retention, dropping")
		if dryRun {
			removed++
		} else if err := c.pending.Delete(ctx, p.ID); err == nil {
			removed++
		}
	}

	if dryRun {
		return removed, nil
	}

	pruned, err := c.blocklist.PruneExpired(ctx, time.Now())
	if err != nil {
		return removed, fmt.Errorf("prune expired blocklist entries: %w", err)
	}
	removed += pruned

	return removed, nil
}
