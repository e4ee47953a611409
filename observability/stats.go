package observability

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xsortedlist/lib/infra"
)

const (
	AppStatsName = "xboot/app"
)

var (
	once        sync.Once
	appStatsErr error
	globalStats *appStats
)

type appStats struct {
	goroutines metric.Int64ObservableUpDownCounter
	processes  metric.Int64ObservableUpDownCounter
	rss        metric.Int64ObservableGauge
}

func appStatsName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString(AppStatsName)
	builder.WriteString("/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// InitAppStats registers the process level gauges and starts the
// otel runtime instrumentation once. Later calls return the result
// of the first one. The meter provider owner shuts them down.
func InitAppStats(ctx context.Context, name string) error {
	once.Do(func() {
		meter := otel.Meter(
			appStatsName(name),
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		// Without the process handle only the rss gauge stays silent.
		proc, _ := process.NewProcessWithContext(ctx, int32(os.Getpid()))
		globalStats = &appStats{
			goroutines: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.goroutines",
				metric.WithDescription(`The application goroutines' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.NumGoroutine()))
					return nil
				}),
			)),
			processes: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.processes",
				metric.WithDescription(`The application processes' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.GOMAXPROCS(0)))
					return nil
				}),
			)),
			rss: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
				"app.mem.rss",
				metric.WithDescription(`The application resident set size.`),
				metric.WithUnit("By"),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					if proc == nil {
						return nil
					}
					info, err := proc.MemoryInfoWithContext(ctx)
					if err != nil {
						return err
					}
					ob.Observe(int64(info.RSS))
					return nil
				}),
			)),
		}
		if err := otelruntime.Start(); err != nil {
			appStatsErr = infra.WrapErrorStack(err, "[observability] otel runtime instrumentation")
		}
	})
	return appStatsErr
}
