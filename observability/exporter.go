package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"io"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/xsortedlist/lib/infra"
)

type MetricsExporterType string

const (
	ConsoleMetricsExporter    MetricsExporterType = "console"
	PrometheusMetricsExporter MetricsExporterType = "prometheus"
	NoneMetricsExporter       MetricsExporterType = "none"
)

func ParseMetricsExporterType(typ string) (MetricsExporterType, error) {
	switch t := MetricsExporterType(strings.ToLower(strings.TrimSpace(typ))); t {
	case ConsoleMetricsExporter, PrometheusMetricsExporter, NoneMetricsExporter:
		return t, nil
	case "":
		return NoneMetricsExporter, nil
	}
	return "", infra.NewErrorStack("[observability] unknown metrics exporter " + typ)
}

// ShutdownCallback flushes and stops the meter provider.
type ShutdownCallback func(ctx context.Context) error

// NewConsoleMetricsExporter serves for test/dev environment.
// A nil w writes to stdout.
func NewConsoleMetricsExporter(w io.Writer, interval, timeout time.Duration, opts ...stdoutmetric.Option) (ShutdownCallback, error) {
	if w != nil {
		opts = append(opts, stdoutmetric.WithWriter(w))
	}
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[observability] console metrics exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// NewPrometheusMetricsExporter serves for the product environment,
// the stats are fetched by HTTP from reg. A nil reg registers to
// the prometheus default registerer.
func NewPrometheusMetricsExporter(reg promclient.Registerer, opts ...prometheus.Option) (ShutdownCallback, error) {
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[observability] prometheus metrics exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
