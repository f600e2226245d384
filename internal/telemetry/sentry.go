// Package telemetry wires Sentry error reporting and tracing.
package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

const serverName = "brandforge"

// Config controls Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init starts the Sentry client and returns a flush function. With an
// empty DSN, or when initialization fails, the process runs without
// telemetry and the flush function is a no-op.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serverName,
		TracesSampler: sentry.TracesSampler(func(sc sentry.SamplingContext) float64 {
			// Health probes would dominate the trace volume.
			if sc.Span.Name == "GET /health" {
				return 0.0
			}
			// Child spans inherit the parent decision.
			var zero sentry.SpanID
			if sc.Span.ParentSpanID != zero {
				if sc.Span.Sampled.Bool() {
					return 1.0
				}
				return 0.0
			}
			return cfg.TracesSampleRate
		}),
	})
	if err != nil {
		log.Printf("Sentry init failed, continuing without telemetry: %v", err)
		return func() {}, nil
	}

	log.Printf("Sentry telemetry enabled (environment %s, sample rate %.2f)", cfg.Environment, cfg.TracesSampleRate)
	return func() { sentry.Flush(5 * time.Second) }, nil
}

// SpanAttributes are the tags every pipeline span can carry.
type SpanAttributes struct {
	AgentID   string
	ContentID string
	JobID     string
	Operation string
}

// Span is a finished-once wrapper around a Sentry span. All methods
// are safe on a Span created without an active client.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span failed and reports the error.
func (s *Span) SetError(err error) {
	if s.inner == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

// Context returns the context carrying the span.
func (s *Span) Context() context.Context {
	if s.inner != nil {
		return s.inner.Context()
	}
	return context.Background()
}

// StartSpan opens a span named name. Inside an active transaction it
// becomes a child span; otherwise it starts a new transaction.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	if attrs.AgentID != "" {
		span.SetTag("agent_id", attrs.AgentID)
	}
	if attrs.ContentID != "" {
		span.SetTag("content_id", attrs.ContentID)
	}
	if attrs.JobID != "" {
		span.SetTag("job_id", attrs.JobID)
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}

	return span.Context(), &Span{inner: span}
}

// CaptureError reports err, preferring the request-scoped hub.
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
