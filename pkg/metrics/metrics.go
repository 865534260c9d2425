// Package metrics records pipeline metrics through OpenTelemetry and exposes
// them in Prometheus format. A batch run has no scrape endpoint, so the
// registry is written out as a node-exporter textfile instead.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds for
// stage durations.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

const meterName = "demography"

// Row outcomes.
const (
	OutcomeKept       = "kept"
	OutcomeIncomplete = "incomplete"
	OutcomeUnresolved = "unresolved"
	OutcomeDuplicate  = "duplicate"
)

// Recorder records the metrics of pipeline runs.
type Recorder struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry

	rows     metric.Int64Counter
	universe metric.Int64Gauge
	duration metric.Float64Histogram
}

// New creates a Recorder backed by a private Prometheus registry.
func New() (*Recorder, error) {
	reg := prometheus.NewRegistry()

	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))

	r := &Recorder{provider: mp, registry: reg}
	if err := r.init(mp.Meter(meterName)); err != nil {
		return nil, err
	}

	return r, nil
}

// Nop returns a Recorder that discards everything.
func Nop() *Recorder {
	r := &Recorder{}
	// the noop meter never fails to create instruments
	_ = r.init(noop.NewMeterProvider().Meter(meterName))

	return r
}

func (r *Recorder) init(meter metric.Meter) error {
	var err error

	r.rows, err = meter.Int64Counter("demography_rows",
		metric.WithDescription("Data rows read from indicator sources, by outcome"))
	if err != nil {
		return fmt.Errorf("could not create rows counter: %w", err)
	}

	r.universe, err = meter.Int64Gauge("demography_universe_countries",
		metric.WithDescription("Countries present in every indicator table after the last run"))
	if err != nil {
		return fmt.Errorf("could not create universe gauge: %w", err)
	}

	r.duration, err = meter.Float64Histogram("demography_stage_duration",
		metric.WithDescription("Duration of pipeline stages"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return fmt.Errorf("could not create stage histogram: %w", err)
	}

	return nil
}

// Rows adds n rows of indicator with the given outcome.
func (r *Recorder) Rows(ctx context.Context, indicator, outcome string, n int) {
	if n == 0 {
		return
	}
	r.rows.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("indicator", indicator),
		attribute.String("outcome", outcome),
	))
}

// Universe records the size of the country universe.
func (r *Recorder) Universe(ctx context.Context, n int) {
	r.universe.Record(ctx, int64(n))
}

// Stage records how long a pipeline stage took.
func (r *Recorder) Stage(ctx context.Context, stage string, d time.Duration) {
	r.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// Gatherer exposes the registry; nil for a Nop recorder.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r.registry == nil {
		return nil
	}

	return r.registry
}

// WriteTextfile writes the current metrics to path in the Prometheus text
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("could not write metrics textfile: %w", err)
	}

	return nil
}

// Shutdown releases the meter provider.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.provider == nil {
		return nil
	}
	if err := r.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not shut down meter provider: %w", err)
	}

	return nil
}
