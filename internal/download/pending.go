package download

import (
	"context"
	"time"

	"github.com/cinephage/cinephage/internal/scoring"
	"github.com/cinephage/cinephage/internal/search"
	"github.com/cinephage/cinephage/internal/specification"
	"github.com/cinephage/cinephage/internal/store"
)

// ProcessDue implements monitor.PendingProcessor: for every pending release
// whose delay window has elapsed, re-verifies the content is still worth
// grabbing before dispatching without re-applying a delay (spec §4.6:
// "grab-without-redelay"). A row whose content has vanished, is no longer
// monitored, already has a file, or has since been blocklisted is marked
// expired instead of dispatched. Rows older than PendingMaxAge that were
// never dispatched are also marked expired.
func (c *Controller) ProcessDue(ctx context.Context) (considered, grabbed int, err error) {
	now := time.Now()
	due, err := c.pending.DueBefore(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	for _, p := range due {
		considered++

		if now.Sub(p.DiscoveredAt) > c.cfg.PendingMaxAge {
			c.expirePending(ctx, p, "exceeded max pending age")
			continue
		}

		if reason, ok := c.staleCheck(ctx, p); !ok {
			c.expirePending(ctx, p, reason)
			continue
		}

		result := search.Result{
			Title:       p.Title,
			InfoHash:    p.InfoHash,
			SizeBytes:   p.SizeBytes,
			Protocol:    scoring.Protocol(p.Protocol),
			DownloadURL: p.DownloadURL,
			MagnetURL:   p.MagnetURL,
		}
		result.Score.TotalScore = p.Score

		if err := c.dispatch(ctx, p.ContentKey, result); err != nil {
			c.log.Warn().Err(err).Str("contentKey", p.ContentKey).Msg("pending release dispatch failed")
			continue
		}
		p.Status = store.PendingStatusGrabbed
		_ = c.pending.Update(ctx, p)
		grabbed++
	}

	return considered, grabbed, nil
}

// staleCheck re-verifies a due pending row still deserves dispatch (spec
// §4.6 step 2): the content must still exist, still be monitored, not
// already have a file, and not have since been blocklisted.
func (c *Controller) staleCheck(ctx context.Context, p store.PendingRelease) (reason string, ok bool) {
	if c.library != nil {
		item, err := c.library.GetByContentKey(ctx, p.ContentKey)
		if err != nil {
			c.log.Warn().Err(err).Str("contentKey", p.ContentKey).Msg("pending re-verify: library lookup failed")
		} else if item == nil {
			return "content no longer exists", false
		} else {
			mt := scoring.MediaTypeMovie
			if item.MediaType == "episode" {
				mt = scoring.MediaTypeTV
			}
			monitorCtx := specification.Context{
				MediaType:        mt,
				Monitored:        item.Monitored,
				SeriesMonitored:  item.SeriesMonitored,
				SeasonMonitored:  item.SeasonMonitored,
				EpisodeMonitored: item.EpisodeMonitored,
			}
			if !monitorCtx.IsMonitored() {
				return "content no longer monitored", false
			}
			if item.HasFile {
				return "content already has a file", false
			}
		}
	}

	if c.blocklist != nil {
		entries, err := c.blocklist.ForContentKey(ctx, p.ContentKey)
		if err != nil {
			c.log.Warn().Err(err).Str("contentKey", p.ContentKey).Msg("pending re-verify: blocklist lookup failed")
		} else if matchesBlocklist(entries, p.InfoHash, p.Title) {
			return "release now blocklisted", false
		}
	}

	return "", true
}

func (c *Controller) expirePending(ctx context.Context, p store.PendingRelease, reason string) {
	c.log.Info().Str("contentKey", p.ContentKey).Str("reason", reason).Msg("pending release expired")
	p.Status = store.PendingStatusExpired
	_ = c.pending.Update(ctx, p)
}

func matchesBlocklist(entries []store.BlocklistEntry, infoHash, title string) bool {
	for _, e := range entries {
		if e.InfoHash != "" && e.InfoHash == infoHash {
			return true
		}
		if e.Title != "" && e.Title == title {
			return true
		}
	}
	return false
}
