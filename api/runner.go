package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ckr3453/finito/domain"
)

// Sweeper runs one dispatch tick for a channel.
type Sweeper interface {
	Sweep(ctx context.Context, ch domain.Channel, now time.Time) domain.SweepReport
}

// Runner wraps the dispatcher with per-sweep metrics and tracing. Both the
// HTTP triggers and the interval scheduler go through it.
type Runner struct {
	sweeper Sweeper
	logger  *log.Logger
	now     func() time.Time
}

func NewRunner(s Sweeper, logger *log.Logger) *Runner {
	return &Runner{sweeper: s, logger: logger, now: time.Now}
}

// Run executes one tick and records its outcome.
func (r *Runner) Run(ctx context.Context, ch domain.Channel) domain.SweepReport {
	metrics, ctx := newSweepMetrics(ctx, r.logger, ch)
	report := r.sweeper.Sweep(ctx, ch, r.now())
	metrics.Finish(report)
	return report
}
