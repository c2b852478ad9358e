// Package metrics exposes OpenTelemetry instruments backed by a Prometheus
// exporter.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the instruments recorded by the HTTP layer and services.
// A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequests     metric.Int64Counter
	HTTPDuration     metric.Float64Histogram
	UploadGrants     metric.Int64Counter
	MediaResolutions metric.Int64Counter
}

// Setup installs a Prometheus-backed meter provider as the global provider
// and returns the instruments together with the /metrics handler.
func Setup(serviceName string) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	m, err := New(provider.Meter(serviceName))
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// New creates the instruments on the given meter.
func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.HTTPRequests, err = meter.Int64Counter(
		"mithril_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http request counter: %w", err)
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"mithril_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http duration histogram: %w", err)
	}

	m.UploadGrants, err = meter.Int64Counter(
		"mithril_upload_grants_total",
		metric.WithDescription("Upload grant requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating upload grant counter: %w", err)
	}

	m.MediaResolutions, err = meter.Int64Counter(
		"mithril_media_resolutions_total",
		metric.WithDescription("Media ids looked up during entry export, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating media resolution counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records one served request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

// RecordUploadGrant records an upload grant request outcome, e.g. "issued"
// or "rejected".
func (m *Metrics) RecordUploadGrant(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.UploadGrants.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordMediaResolution records n media ids with the given outcome:
// "resolved", "unresolved" or "failed".
func (m *Metrics) RecordMediaResolution(ctx context.Context, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MediaResolutions.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
}
