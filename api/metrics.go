package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ckr3453/finito/domain"
)

const tracerName = "finito/reminders"

type sweepMetrics struct {
	logger  *log.Logger
	start   time.Time
	span    trace.Span
	channel domain.Channel
}

func newSweepMetrics(ctx context.Context, logger *log.Logger, ch domain.Channel) (*sweepMetrics, context.Context) {
	tracer := otel.GetTracerProvider().Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "reminders.sweep",
		trace.WithAttributes(attribute.String("channel", string(ch))))
	return &sweepMetrics{
		logger:  logger,
		start:   time.Now(),
		span:    span,
		channel: ch,
	}, ctx
}

func (m *sweepMetrics) Finish(report domain.SweepReport) {
	if m == nil {
		return
	}
	m.span.SetAttributes(
		attribute.String("run_id", report.RunID),
		attribute.Int("users", report.Users),
		attribute.Int("tasks", report.Tasks),
		attribute.Int("sent", report.Sent),
		attribute.Int("skipped", report.Skipped),
		attribute.Int("failed", report.Failed),
		attribute.Int("errors", report.Errors),
		attribute.Int("pruned_tokens", report.PrunedTokens),
	)
	if report.Failed > 0 || report.Errors > 0 {
		m.span.SetStatus(codes.Error, "sweep finished with failures")
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"channel":  string(m.channel),
		"run_id":   report.RunID,
		"users":    report.Users,
		"tasks":    report.Tasks,
		"sent":     report.Sent,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"errors":   report.Errors,
		"total_ms": durationToMillis(time.Since(m.start)),
	}
	if report.PrunedTokens > 0 {
		fields["pruned_tokens"] = report.PrunedTokens
	}
	m.logger.WithFields(fields).Info("reminders.sweep.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
