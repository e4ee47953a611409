package main

import (
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xsortedlist/lib/infra"
	"github.com/benz9527/xsortedlist/lib/list"
	"github.com/benz9527/xsortedlist/observability"
	"github.com/benz9527/xsortedlist/xlog"
)

type appConfig struct {
	values          int
	workers         int
	batch           int
	max             int
	seed            int64
	mutex           string
	print           bool
	metrics         observability.MetricsExporterType
	metricsAddr     string
	metricsInterval time.Duration
	logLevel        zapcore.Level
	logJSON         bool
}

func (cfg *appConfig) listOptions() []list.SortedListOption {
	opts := make([]list.SortedListOption, 0, 2)
	switch cfg.mutex {
	case "spin":
		opts = append(opts, list.WithSortedListSpinMutex())
	default:
		opts = append(opts, list.WithSortedListGoNativeMutex())
	}
	if cfg.metrics != observability.NoneMetricsExporter {
		opts = append(opts, list.WithSortedListStats(appName))
	}
	return opts
}

// xlogOptions renders plain logs for a terminal and json logs with
// epoch millis for the collectors.
func (cfg *appConfig) xlogOptions() []xlog.XLoggerOption {
	if cfg.logJSON {
		return []xlog.XLoggerOption{
			xlog.WithXLoggerStdOutWriter(),
			xlog.WithXLoggerEncoder(xlog.JSON),
			xlog.WithXLoggerLevelEncoder(zapcore.CapitalLevelEncoder),
			xlog.WithXLoggerTimeEncoder(zapcore.EpochMillisTimeEncoder),
			xlog.WithXLoggerContextFieldExtract(runIDCtxKey, "run"),
		}
	}
	return []xlog.XLoggerOption{
		xlog.WithXLoggerStdOutWriter(),
		xlog.WithXLoggerEncoder(xlog.PlainText),
		xlog.WithXLoggerLevelEncoder(zapcore.CapitalColorLevelEncoder),
		xlog.WithXLoggerTimeEncoder(zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")),
		xlog.WithXLoggerContextFieldExtract(runIDCtxKey, "run"),
	}
}

func parseAppConfig(args []string) (*appConfig, error) {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	cfg := &appConfig{}
	fs.IntVarP(&cfg.values, "values", "n", 10000, "number of random values to insert")
	fs.IntVarP(&cfg.workers, "workers", "w", runtime.GOMAXPROCS(0), "parallel insert workers")
	fs.IntVarP(&cfg.batch, "batch", "b", 64, "values per worker task")
	fs.IntVar(&cfg.max, "max", 1<<20, "values are drawn from [0, max)")
	fs.Int64Var(&cfg.seed, "seed", time.Now().UnixNano(), "random seed")
	fs.StringVar(&cfg.mutex, "mutex", "native", "node mutex, native or spin")
	fs.BoolVarP(&cfg.print, "print", "p", false, "print the list once sorted")
	metrics := fs.String("metrics", string(observability.NoneMetricsExporter), "metrics exporter, console, prometheus or none")
	fs.StringVar(&cfg.metricsAddr, "metrics-addr", ":9464", "prometheus scrape address")
	fs.DurationVar(&cfg.metricsInterval, "metrics-interval", 10*time.Second, "console metrics export interval")
	logLevel := fs.String("log-level", "info", "log level, debug, info, warn or error")
	logFormat := fs.String("log-format", "plain", "log format, plain or json")
	if err := fs.Parse(args); err != nil {
		return nil, infra.WrapErrorStack(err, "["+appName+"] parse flags")
	}

	typ, err := observability.ParseMetricsExporterType(*metrics)
	if err != nil {
		return nil, err
	}
	cfg.metrics = typ
	if cfg.logLevel, err = xlog.ParseLogLevel(*logLevel); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(*logFormat)) {
	case "json":
		cfg.logJSON = true
	case "plain":
	default:
		return nil, infra.NewErrorStack("[" + appName + "] unknown log format " + *logFormat)
	}
	cfg.mutex = strings.ToLower(strings.TrimSpace(cfg.mutex))
	switch {
	case cfg.mutex != "native" && cfg.mutex != "spin":
		return nil, infra.NewErrorStack("[" + appName + "] unknown mutex " + cfg.mutex)
	case cfg.values < 0:
		return nil, infra.NewErrorStack("[" + appName + "] negative values")
	case cfg.max <= 0:
		return nil, infra.NewErrorStack("[" + appName + "] max must be positive")
	}
	return cfg, nil
}
