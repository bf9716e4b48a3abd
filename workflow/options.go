package workflow

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// options holds configuration options for the Orchestrator.
type options struct {
	logger *slog.Logger
	tracer trace.Tracer
	policy RetryPolicy
	now    func() time.Time
}

// Option is a functional option for configuring the Orchestrator.
type Option func(*options)

// WithLogger sets the logging sink. If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer sets the tracer used for per-stage spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithClock sets the clock used to time executions.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func defaultOptions() *options {
	return &options{
		logger: slog.New(slog.DiscardHandler),
		tracer: noop.NewTracerProvider().Tracer("workflow"),
		policy: DefaultRetryPolicy(),
		now:    time.Now,
	}
}
