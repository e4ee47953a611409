package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/benz9527/xsortedlist/lib/infra"
	"github.com/benz9527/xsortedlist/lib/list"
	"github.com/benz9527/xsortedlist/observability"
	"github.com/benz9527/xsortedlist/xlog"
)

const (
	appName = "xsortedlist"
)

// runIDCtxKey is extracted into the context log records.
const runIDCtxKey = "xsl.run"

var errAppListUnsorted = errors.New("[" + appName + "] list is not sorted")

type appBanner struct {
	cfg *appConfig
}

func (b appBanner) PlainText() string {
	return fmt.Sprintf("%s | values %d | workers %d | mutex %s | metrics %s",
		appName, b.cfg.values, b.cfg.workers, b.cfg.mutex, b.cfg.metrics)
}

func (b appBanner) JSON() string {
	return fmt.Sprintf(`{"app":%q,"values":%d,"workers":%d,"mutex":%q,"metrics":%q}`,
		appName, b.cfg.values, b.cfg.workers, b.cfg.mutex, b.cfg.metrics)
}

// metricsReady orders the list after the meter provider.
type metricsReady struct{}

func newXLogger(lc fx.Lifecycle, cfg *appConfig) xlog.XLogger {
	logger := xlog.NewXLogger(cfg.xlogOptions()...)
	// XLOG_LVL only applies until the flag is read.
	logger.IncreaseLogLevel(cfg.logLevel)
	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger
}

func newMetrics(lc fx.Lifecycle, cfg *appConfig, out io.Writer, logger xlog.XLogger) (metricsReady, error) {
	var (
		shutdown observability.ShutdownCallback
		err      error
	)
	switch cfg.metrics {
	case observability.ConsoleMetricsExporter:
		shutdown, err = observability.NewConsoleMetricsExporter(out, cfg.metricsInterval, 5*time.Second)
	case observability.PrometheusMetricsExporter:
		shutdown, err = observability.NewPrometheusMetricsExporter(nil)
	default:
		return metricsReady{}, nil
	}
	if err != nil {
		return metricsReady{}, err
	}

	lc.Append(fx.StopHook(func(ctx context.Context) error {
		return shutdown(ctx)
	}))
	if err = observability.InitAppStats(context.Background(), appName); err != nil {
		return metricsReady{}, err
	}

	if cfg.metrics != observability.PrometheusMetricsExporter || len(cfg.metricsAddr) == 0 {
		return metricsReady{}, nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              cfg.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error(err, "metrics server stopped", zap.String("addr", cfg.metricsAddr))
				}
			}()
			logger.Info("metrics server started", zap.String("addr", cfg.metricsAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return metricsReady{}, nil
}

func newSortedList(cfg *appConfig, logger xlog.XLogger, _ metricsReady) (list.SortedList[int], error) {
	opts := append(cfg.listOptions(), list.WithSortedListLogger(logger))
	return list.NewSortedList[int](opts...)
}

func randomValues(cfg *appConfig) []int {
	r := rand.New(rand.NewSource(cfg.seed))
	values := make([]int, cfg.values)
	for i := range values {
		values[i] = r.Intn(cfg.max)
	}
	return values
}

func runID(cfg *appConfig) string {
	return appName + "-" + strconv.FormatInt(cfg.seed, 36)
}

func registerRun(lc fx.Lifecycle, cfg *appConfig, l list.SortedList[int], logger xlog.XLogger, out io.Writer) {
	lc.Append(fx.StartHook(func(ctx context.Context) error {
		logger.Banner(appBanner{cfg: cfg})
		ctx = context.WithValue(ctx, runIDCtxKey, runID(cfg))
		logger.InfoContext(ctx, "run started", zap.String("level", logger.Level()))

		start := time.Now()
		err := list.ParallelInsert[int](ctx, l, randomValues(cfg),
			list.WithParallelInsertPoolSize(cfg.workers),
			list.WithParallelInsertBatchSize(cfg.batch),
			list.WithParallelInsertLogger(logger),
		)
		if err != nil {
			logger.ErrorStackContext(ctx, err, "parallel insert failed")
			return err
		}
		sorted, err := l.IsSorted()
		if err != nil {
			logger.ErrorStackContext(ctx, err, "sorted check failed")
			return err
		}
		logger.InfoContext(ctx, "values inserted",
			zap.Int64("len", l.Len()),
			zap.Bool("sorted", sorted),
			zap.String("mutex", cfg.mutex),
			zap.Int("workers", cfg.workers),
			zap.Duration("cost", time.Since(start)),
		)
		if !sorted {
			logger.ErrorContext(ctx, errAppListUnsorted, "run failed")
			return infra.WrapErrorStack(errAppListUnsorted, "["+appName+"] run")
		}
		if cfg.print {
			return l.PrintTo(out)
		}
		return nil
	}))
}

func appOptions(cfg *appConfig, out io.Writer) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			func() io.Writer { return out },
			newXLogger,
			newMetrics,
			newSortedList,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Invoke(registerRun),
	)
}
