package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestParseMetricsExporterType(t *testing.T) {
	testcases := []struct {
		in       string
		expected MetricsExporterType
		hasErr   bool
	}{
		{"console", ConsoleMetricsExporter, false},
		{" Prometheus ", PrometheusMetricsExporter, false},
		{"none", NoneMetricsExporter, false},
		{"", NoneMetricsExporter, false},
		{"jaeger", "", true},
	}
	for _, tc := range testcases {
		t.Run(tc.in, func(tt *testing.T) {
			typ, err := ParseMetricsExporterType(tc.in)
			if tc.hasErr {
				require.Error(tt, err)
				return
			}
			require.NoError(tt, err)
			require.Equal(tt, tc.expected, typ)
		})
	}
}

func TestConsoleMetricsExporter(t *testing.T) {
	buf := &bytes.Buffer{}
	shutdown, err := NewConsoleMetricsExporter(buf, time.Hour, time.Second)
	require.NoError(t, err)

	counter, err := otel.Meter("xboot/test").Int64Counter("test.count")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	// Shutdown flushes the periodic reader.
	require.NoError(t, shutdown(context.Background()))
	require.Contains(t, buf.String(), "test.count")
}

func TestPrometheusMetricsExporter(t *testing.T) {
	reg := promclient.NewRegistry()
	shutdown, err := NewPrometheusMetricsExporter(reg)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, shutdown(context.Background()))
	}()

	counter, err := otel.Meter("xboot/test").Int64Counter("test.prom.count")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, f := range families {
		if f.GetName() == "test_prom_count_total" {
			found = true
		}
	}
	require.True(t, found)
}

func TestInitAppStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	defer func() {
		require.NoError(t, provider.Shutdown(context.Background()))
	}()

	require.NoError(t, InitAppStats(context.Background(), ""))
	// Only the first call registers.
	require.NoError(t, InitAppStats(context.Background(), "again"))
	require.NotNil(t, globalStats)

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := make(map[string]struct{})
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != appStatsName("") {
			continue
		}
		for _, m := range sm.Metrics {
			names[m.Name] = struct{}{}
		}
	}
	require.Contains(t, names, "app.core.goroutines")
	require.Contains(t, names, "app.core.processes")
	require.Contains(t, names, "app.mem.rss")
}

func TestAppStatsName(t *testing.T) {
	require.Equal(t, "xboot/app/default", appStatsName(" "))
	require.Equal(t, "xboot/app/xsl", appStatsName("xsl"))
}
