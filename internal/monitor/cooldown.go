package monitor

import (
	"context"
	"time"

	"github.com/cinephage/cinephage/internal/store"
)

// cooldownFraction is applied to a task's interval to compute the next
// allowed search time after a non-accepting evaluation (spec §4.5:
// "nextSearchAt = now + taskInterval * 0.75").
const cooldownFraction = 0.75

// setCooldown records that contentKey should not be searched again until
// taskInterval * 0.75 has elapsed.
func setCooldown(ctx context.Context, cooldowns store.CooldownStore, contentKey string, now time.Time, taskInterval time.Duration) error {
	next := now.Add(time.Duration(float64(taskInterval) * cooldownFraction))
	return cooldowns.Set(ctx, store.SearchCooldown{ContentKey: contentKey, NextSearchAt: next})
}

// nextSearchAt returns the stored cooldown expiry for contentKey, or nil if
// no cooldown is active.
func nextSearchAt(ctx context.Context, cooldowns store.CooldownStore, contentKey string) (*time.Time, error) {
	c, err := cooldowns.Get(ctx, contentKey)
	if err != nil || c == nil {
		return nil, err
	}
	return &c.NextSearchAt, nil
}
