package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "linearbridge"

// Metrics holds all bridge metric instruments. A nil *Metrics is valid and
// records nothing, so collaborators can treat metrics as optional.
type Metrics struct {
	sessionsStarted   metric.Int64Counter
	sessionsCompleted metric.Int64Counter
	sessionsFailed    metric.Int64Counter
	turns             metric.Int64Counter
	activities        metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.sessionsStarted, err = meter.Int64Counter("linearbridge.sessions.started",
		metric.WithDescription("Number of session runs started"))
	if err != nil {
		return nil, err
	}

	m.sessionsCompleted, err = meter.Int64Counter("linearbridge.sessions.completed",
		metric.WithDescription("Number of session runs reaching a terminal state"))
	if err != nil {
		return nil, err
	}

	m.sessionsFailed, err = meter.Int64Counter("linearbridge.sessions.failed",
		metric.WithDescription("Number of session runs ended by a backend failure"))
	if err != nil {
		return nil, err
	}

	m.turns, err = meter.Int64Counter("linearbridge.turns",
		metric.WithDescription("Number of backend turns completed"))
	if err != nil {
		return nil, err
	}

	m.activities, err = meter.Int64Counter("linearbridge.activities",
		metric.WithDescription("Number of activities posted to the sink"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// SessionStarted records the start of a session run.
func (m *Metrics) SessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsStarted.Add(ctx, 1)
}

// SessionCompleted records a run reaching the given terminal state.
func (m *Metrics) SessionCompleted(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.sessionsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// SessionFailed records a run ended by a backend failure.
func (m *Metrics) SessionFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsFailed.Add(ctx, 1)
}

// TurnCompleted records one successful backend call.
func (m *Metrics) TurnCompleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.turns.Add(ctx, 1)
}

// ActivityPosted records one activity posted to the sink.
func (m *Metrics) ActivityPosted(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.activities.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
