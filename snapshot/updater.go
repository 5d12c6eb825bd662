package snapshot

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ckr3453/finito/domain"
)

// TaskSource supplies the tasks shown on a user's widget.
type TaskSource interface {
	TasksForDay(ctx context.Context, userID string, day time.Time) ([]domain.Task, error)
}

const slotSuffix = "ws"

// SlotKey is the per-user widget slot in the cache.
func SlotKey(userID string) string {
	return userID + ":" + slotSuffix
}

// Updater rebuilds a user's widget snapshot after the sweep touched their
// tasks. Failures are logged and swallowed: a stale snapshot is acceptable,
// a broken sweep is not.
type Updater struct {
	source TaskSource
	redis  *redis.Client
	ttl    time.Duration
	loc    *time.Location
	now    func() time.Time
}

func NewUpdater(source TaskSource, rc *redis.Client, ttl time.Duration, loc *time.Location) *Updater {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Updater{source: source, redis: rc, ttl: ttl, loc: loc, now: time.Now}
}

// Refresh queries today's tasks and writes the serialized snapshot to the
// user's slot.
func (u *Updater) Refresh(ctx context.Context, userID string) {
	if u == nil || u.redis == nil || u.source == nil {
		return
	}
	now := u.now().In(u.loc)
	tasks, err := u.source.TasksForDay(ctx, userID, now)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("failed to list tasks for widget snapshot")
		return
	}
	snap := Snapshot{
		Tasks:       make([]Task, 0, len(tasks)),
		LastUpdated: now.Format(time.RFC3339),
	}
	for _, t := range tasks {
		entry := Task{
			ID:        t.ID,
			Title:     t.Title,
			Priority:  string(t.Priority),
			Completed: t.Status == domain.StatusCompleted,
		}
		if t.DueDate != nil {
			entry.DueDate = t.DueDate.In(u.loc).Format(time.RFC3339)
		}
		if !entry.Completed {
			snap.TodayCount++
		}
		snap.Tasks = append(snap.Tasks, entry)
	}
	data, err := Encode(snap)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("failed to encode widget snapshot")
		return
	}
	if err := u.redis.Set(ctx, SlotKey(userID), data, u.ttl).Err(); err != nil {
		log.WithError(err).WithField("user", userID).Error("failed to store widget snapshot")
	}
}
