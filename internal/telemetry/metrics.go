package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/latosol/latosol"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Accept loop metrics
	ConnectionsAcceptedTotal metric.Int64Counter
	AcceptErrorsTotal        metric.Int64Counter

	// Handshake metrics
	HandshakeFailuresTotal metric.Int64Counter
	HandshakeDuration      metric.Float64Histogram

	// Connection metrics
	ActiveConnections  metric.Int64UpDownCounter
	HandlerErrorsTotal metric.Int64Counter

	// Credential metrics
	CredentialCertificates metric.Int64Gauge
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.ConnectionsAcceptedTotal, _ = meter.Int64Counter(
		"latosol.connections.accepted.total",
		metric.WithDescription("Total number of TCP connections accepted"),
		metric.WithUnit("{connection}"),
	)

	m.AcceptErrorsTotal, _ = meter.Int64Counter(
		"latosol.connections.accept_errors.total",
		metric.WithDescription("Total number of failed accept calls"),
		metric.WithUnit("{error}"),
	)

	m.HandshakeFailuresTotal, _ = meter.Int64Counter(
		"latosol.connections.handshake_failures.total",
		metric.WithDescription("Total number of failed TLS handshakes"),
		metric.WithUnit("{connection}"),
	)

	m.HandshakeDuration, _ = meter.Float64Histogram(
		"latosol.connections.handshake.duration",
		metric.WithDescription("Duration of successful TLS handshakes"),
		metric.WithUnit("ms"),
	)

	m.ActiveConnections, _ = meter.Int64UpDownCounter(
		"latosol.connections.active",
		metric.WithDescription("Number of established connections with a running handler"),
		metric.WithUnit("{connection}"),
	)

	m.HandlerErrorsTotal, _ = meter.Int64Counter(
		"latosol.handler.errors.total",
		metric.WithDescription("Total number of connection handlers that failed or panicked"),
		metric.WithUnit("{error}"),
	)

	m.CredentialCertificates, _ = meter.Int64Gauge(
		"latosol.credentials.certificates",
		metric.WithDescription("Number of certificates in the loaded chain"),
		metric.WithUnit("{certificate}"),
	)

	return m
}
