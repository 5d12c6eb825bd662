package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Outcome of one task on one channel within a tick.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// SweepReport aggregates a single tick on one channel. It is transient:
// the only durable effects of a tick are task flags and token pruning.
type SweepReport struct {
	Channel Channel `json:"channel"`
	RunID   string  `json:"runId"`
	// Users counts enumerated users, Tasks the due tasks found for them.
	Users int `json:"users"`
	Tasks int `json:"tasks"`
	// Per-task outcomes. Sent includes push tasks whose multicast call
	// completed regardless of individual token failures.
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	// Errors counts store and registry failures that did not map to a
	// single task outcome (query pages, flag writes, token deletes).
	Errors       int `json:"errors"`
	PrunedTokens int `json:"prunedTokens,omitempty"`
}

// Dispatcher runs the reminder sweep: one pass over all users for one
// channel, dispatching due reminders and recording sent flags. It holds no
// state across ticks beyond what the task store persists.
type Dispatcher struct {
	store    TaskStore
	dir      Directory
	resolver Resolver
	composer Composer
	email    EmailSender
	push     PushSender
	from     string
	snapshot SnapshotRefresher
}

// NewDispatcher wires the sweep over its collaborators. snapshot may be
// nil when no widget cache is configured.
func NewDispatcher(store TaskStore, dir Directory, composer Composer, email EmailSender, push PushSender, from string, snapshot SnapshotRefresher) *Dispatcher {
	return &Dispatcher{
		store:    store,
		dir:      dir,
		resolver: NewResolver(dir),
		composer: composer,
		email:    email,
		push:     push,
		from:     from,
		snapshot: snapshot,
	}
}

// Sweep executes one tick for one channel. No failure inside the tick is
// fatal: user enumeration always runs to completion, and per-user or
// per-task failures only surface in the report.
func (d *Dispatcher) Sweep(ctx context.Context, ch Channel, now time.Time) SweepReport {
	report := SweepReport{Channel: ch, RunID: uuid.NewString()}
	logger := log.WithFields(log.Fields{"channel": ch, "run_id": report.RunID})
	logger.Debug("reminder sweep starting")

	it := d.store.ListUsers(ctx)
	for it.More() {
		ids, err := it.NextPage(ctx)
		if err != nil {
			// A failed page leaves no continuation token to resume from,
			// so the rest of the enumeration waits for the next tick.
			report.Errors++
			logger.WithError(err).Error("user enumeration failed")
			break
		}
		for _, userID := range ids {
			report.Users++
			d.sweepUser(ctx, ch, userID, now, &report)
		}
	}
	logger.WithFields(log.Fields{
		"users":   report.Users,
		"sent":    report.Sent,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	}).Debug("reminder sweep finished")
	return report
}

func (d *Dispatcher) sweepUser(ctx context.Context, ch Channel, userID string, now time.Time, report *SweepReport) {
	tasks, err := d.store.DueUnsentTasks(ctx, userID, ch, now)
	if err != nil {
		report.Errors++
		log.WithError(err).WithFields(log.Fields{"user": userID, "channel": ch}).Error("due task query failed")
		return
	}
	if len(tasks) == 0 {
		// Recipient resolution is skipped entirely for users without
		// due tasks.
		return
	}
	report.Tasks += len(tasks)
	if ch == ChannelPush {
		d.sweepUserPush(ctx, userID, tasks, report)
		return
	}
	d.sweepUserEmail(ctx, userID, tasks, report)
}

func (d *Dispatcher) sweepUserEmail(ctx context.Context, userID string, tasks []Task, report *SweepReport) {
	addr, ok := d.resolver.ResolveEmail(ctx, userID)
	if !ok {
		report.Skipped += len(tasks)
		return
	}
	touched := false
	for _, t := range tasks {
		content := d.composer.Email(t)
		msg := EmailMessage{
			From:    fmt.Sprintf("%s <%s>", d.composer.AppName, d.from),
			To:      addr,
			Subject: content.Subject,
			HTML:    content.HTML,
		}
		if err := d.email.Send(ctx, msg); err != nil {
			report.Failed++
			log.WithError(err).WithFields(log.Fields{"user": userID, "task": t.ID, "to": addr, "outcome": OutcomeFailed}).Error("reminder email failed")
			continue
		}
		if d.markSent(ctx, userID, t.ID, ChannelEmail, report) {
			touched = true
		}
		report.Sent++
		log.WithFields(log.Fields{"user": userID, "task": t.ID, "to": addr, "outcome": OutcomeSent}).Info("reminder email sent")
	}
	if touched {
		d.refreshSnapshot(ctx, userID)
	}
}

func (d *Dispatcher) sweepUserPush(ctx context.Context, userID string, tasks []Task, report *SweepReport) {
	tokens, ok := d.resolver.ResolveTokens(ctx, userID)
	if !ok {
		report.Skipped += len(tasks)
		return
	}
	touched := false
	for _, t := range tasks {
		if len(tokens) == 0 {
			// Every token was pruned earlier in this tick; the task is
			// retried once the user registers a new device.
			report.Skipped++
			log.WithFields(log.Fields{"user": userID, "task": t.ID, "outcome": OutcomeSkipped}).Debug("push reminder skipped, no tokens left")
			continue
		}
		content := d.composer.Push(t)
		results, err := d.push.Send(ctx, PushMessage{
			Title:  content.Title,
			Body:   content.Body,
			Data:   content.Data,
			Tokens: tokens,
		})
		if err != nil {
			report.Failed++
			log.WithError(err).WithFields(log.Fields{"user": userID, "task": t.ID, "outcome": OutcomeFailed}).Error("push multicast failed")
			continue
		}
		// The multicast call completed, so the task counts as notified
		// even when individual tokens failed.
		if d.markSent(ctx, userID, t.ID, ChannelPush, report) {
			touched = true
		}
		report.Sent++
		log.WithFields(log.Fields{"user": userID, "task": t.ID, "tokens": len(tokens), "outcome": OutcomeSent}).Info("push reminder sent")
		tokens = d.pruneTokens(ctx, userID, tokens, results, report)
	}
	if touched {
		d.refreshSnapshot(ctx, userID)
	}
}

// pruneTokens removes permanently failed tokens from the user's registry
// and returns the tokens still usable for the rest of this tick. Pruning
// is scoped to the batch used in the call that reported the failures.
func (d *Dispatcher) pruneTokens(ctx context.Context, userID string, tokens []string, results []PushResult, report *SweepReport) []string {
	dead := map[string]bool{}
	for _, res := range results {
		if !res.Permanent {
			continue
		}
		dead[res.Token] = true
		if err := d.dir.RemoveToken(ctx, userID, res.Token); err != nil {
			report.Errors++
			log.WithError(err).WithField("user", userID).Error("failed to remove dead push token")
			continue
		}
		report.PrunedTokens++
		log.WithFields(log.Fields{"user": userID, "cause": res.Err}).Info("pruned dead push token")
	}
	if len(dead) == 0 {
		return tokens
	}
	live := tokens[:0]
	for _, tok := range tokens {
		if !dead[tok] {
			live = append(live, tok)
		}
	}
	return live
}

// markSent records the delivery flag. A failed write is logged and counted
// but does not undo the send: the worst case is a duplicate attempt on the
// next tick, which the at-least-once delivery model allows.
func (d *Dispatcher) markSent(ctx context.Context, userID, taskID string, ch Channel, report *SweepReport) bool {
	if err := d.store.MarkSent(ctx, userID, taskID, ch); err != nil {
		report.Errors++
		log.WithError(err).WithFields(log.Fields{"user": userID, "task": taskID, "channel": ch}).Error("failed to record sent flag")
		return false
	}
	return true
}

func (d *Dispatcher) refreshSnapshot(ctx context.Context, userID string) {
	if d.snapshot == nil {
		return
	}
	d.snapshot.Refresh(ctx, userID)
}
