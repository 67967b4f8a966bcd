// Package observe provides the OpenTelemetry metrics used by the trainer and
// the HTTP server. A Prometheus exporter bridge is set up by [InitProvider]
// so metrics can be scraped from /metrics. Tests should build their own
// [Metrics] with [NewMetrics] and a manual reader.
package observe

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/abhisek/laesemaskine"

// Metrics holds the metric instruments. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// WordsServed counts words shown to a learner.
	WordsServed metric.Int64Counter

	// Answers counts evaluated answers. Attributes: correct, source (api|fallback).
	Answers metric.Int64Counter

	// RecognitionErrors counts failed listens. Attribute: kind.
	RecognitionErrors metric.Int64Counter

	// LevelChanges counts difficulty level shifts. Attribute: direction (up|down).
	LevelChanges metric.Int64Counter

	// Refetches counts mid-session word refetches. Attribute: status (ok|error|short).
	Refetches metric.Int64Counter

	// ListenDuration tracks how long each listen took.
	ListenDuration metric.Float64Histogram

	// ActiveSessions tracks running training sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks API request latency. Attributes: method, path.
	HTTPRequestDuration metric.Float64Histogram
}

// listenBuckets are histogram boundaries in seconds, sized for listens
// bounded by the word budget.
var listenBuckets = []float64{
	0.25, 0.5, 1, 2, 3, 4, 6, 8, 10, 12.5, 15, 20,
}

// NewMetrics creates all instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.WordsServed, err = m.Int64Counter("laesemaskine.words.served",
		metric.WithDescription("Words shown to a learner."),
	); err != nil {
		return nil, err
	}
	if met.Answers, err = m.Int64Counter("laesemaskine.answers",
		metric.WithDescription("Evaluated answers by correctness and verdict source."),
	); err != nil {
		return nil, err
	}
	if met.RecognitionErrors, err = m.Int64Counter("laesemaskine.recognition.errors",
		metric.WithDescription("Failed listens by error kind."),
	); err != nil {
		return nil, err
	}
	if met.LevelChanges, err = m.Int64Counter("laesemaskine.level.changes",
		metric.WithDescription("Difficulty level shifts by direction."),
	); err != nil {
		return nil, err
	}
	if met.Refetches, err = m.Int64Counter("laesemaskine.refetch",
		metric.WithDescription("Mid-session word refetches by status."),
	); err != nil {
		return nil, err
	}
	if met.ListenDuration, err = m.Float64Histogram("laesemaskine.listen.duration",
		metric.WithDescription("Duration of a single listen."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(listenBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("laesemaskine.sessions.active",
		metric.WithDescription("Training sessions currently running."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("laesemaskine.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a package-level instance built on the global meter
// provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) RecordWordServed(ctx context.Context, level int) {
	if m == nil {
		return
	}
	m.WordsServed.Add(ctx, 1, metric.WithAttributes(attribute.Int("level", level)))
}

// RecordAnswer counts an answer; source is "api" or "fallback".
func (m *Metrics) RecordAnswer(ctx context.Context, correct bool, source string) {
	if m == nil {
		return
	}
	m.Answers.Add(ctx, 1, metric.WithAttributes(
		attribute.String("correct", strconv.FormatBool(correct)),
		attribute.String("source", source),
	))
}

func (m *Metrics) RecordRecognitionError(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.RecognitionErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordLevelChange records a shift from one level to another. Equal levels
// are ignored.
func (m *Metrics) RecordLevelChange(ctx context.Context, from, to int) {
	if m == nil || from == to {
		return
	}
	dir := "up"
	if to < from {
		dir = "down"
	}
	m.LevelChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", dir)))
}

func (m *Metrics) RecordRefetch(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.Refetches.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) RecordListen(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.ListenDuration.Record(ctx, d.Seconds())
}

// SessionStarted increments the active session gauge and returns the
// matching decrement.
func (m *Metrics) SessionStarted(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.ActiveSessions.Add(ctx, 1)
	return func() { m.ActiveSessions.Add(ctx, -1) }
}
