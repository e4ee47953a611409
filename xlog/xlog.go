package xlog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xsortedlist/lib/infra"
	"github.com/benz9527/xsortedlist/lib/kv"
)

var printBanner = sync.Once{}

// Every record passes XLogger method -> write -> zap.Logger.Check.
const xLoggerCallerSkip = 2

// xLogger is the wrapper logger of Uber zap logger.
type xLogger struct {
	logger              atomic.Pointer[zap.Logger]
	ctxFields           kv.ThreadSafeStorer[string, string]
	dynamicLevelEnabler zap.AtomicLevel
	writer              logOutWriterType
	encoder             logEncoderType
}

func (l *xLogger) zap() *zap.Logger {
	return l.logger.Load()
}

// IncreaseLogLevel we can increase or decrease the log level concurrently.
// The component loggers follow.
func (l *xLogger) IncreaseLogLevel(level zapcore.Level) {
	l.dynamicLevelEnabler.SetLevel(level)
}

func (l *xLogger) Level() string {
	return l.dynamicLevelEnabler.Level().String()
}

func (l *xLogger) Sync() error {
	return l.logger.Load().Sync()
}

// Banner is written once per process, straight to the writer and
// regardless of the level.
func (l *xLogger) Banner(banner Banner) {
	if banner == nil {
		return
	}
	printBanner.Do(func() {
		cfg := zapcore.EncoderConfig{
			MessageKey:    "banner",
			LevelKey:      coreKeyIgnored,
			TimeKey:       coreKeyIgnored,
			CallerKey:     coreKeyIgnored,
			NameKey:       coreKeyIgnored,
			StacktraceKey: coreKeyIgnored,
		}
		text := banner.JSON()
		if l.encoder == PlainText {
			text = banner.PlainText()
		}
		buf, err := getEncoderByType(l.encoder)(cfg).EncodeEntry(zapcore.Entry{Message: text}, nil)
		if err != nil {
			return
		}
		defer buf.Free()
		ws := getOutWriterByType(l.writer)
		_, _ = ws.Write(buf.Bytes())
		_ = ws.Sync()
	})
}

// write checks the level first, the context fields are extracted
// only for records which will be written.
func (l *xLogger) write(ctx context.Context, lvl zapcore.Level, msg string, lead, fields []zap.Field) {
	ce := l.logger.Load().Check(lvl, msg)
	if ce == nil {
		return
	}
	ctxFields := extractFieldsFromContext(ctx, l.ctxFields)
	if len(ctxFields) == 0 && len(lead) == 0 {
		ce.Write(fields...)
		return
	}
	all := make([]zap.Field, 0, len(ctxFields)+len(lead)+len(fields))
	all = append(all, ctxFields...)
	all = append(all, lead...)
	all = append(all, fields...)
	ce.Write(all...)
}

func errorFields(err error) []zap.Field {
	if err == nil {
		return nil
	}
	return []zap.Field{zap.String("error", err.Error())}
}

func errorStackFields(err error) []zap.Field {
	var es infra.ErrorStack
	if errors.As(err, &es) && es != nil {
		return []zap.Field{zap.Inline(es)}
	}
	return errorFields(err)
}

func (l *xLogger) Debug(msg string, fields ...zap.Field) {
	l.write(nil, zapcore.DebugLevel, msg, nil, fields)
}

func (l *xLogger) Info(msg string, fields ...zap.Field) {
	l.write(nil, zapcore.InfoLevel, msg, nil, fields)
}

func (l *xLogger) Error(err error, msg string, fields ...zap.Field) {
	l.write(nil, zapcore.ErrorLevel, msg, errorFields(err), fields)
}

func (l *xLogger) ErrorStack(err error, msg string, fields ...zap.Field) {
	l.write(nil, zapcore.ErrorLevel, msg, errorStackFields(err), fields)
}

func (l *xLogger) DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.write(ctx, zapcore.DebugLevel, msg, nil, fields)
}

func (l *xLogger) InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.write(ctx, zapcore.InfoLevel, msg, nil, fields)
}

func (l *xLogger) WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.write(ctx, zapcore.WarnLevel, msg, nil, fields)
}

func (l *xLogger) ErrorContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	l.write(ctx, zapcore.ErrorLevel, msg, errorFields(err), fields)
}

func (l *xLogger) ErrorStackContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	l.write(ctx, zapcore.ErrorLevel, msg, errorStackFields(err), fields)
}

// Logf is slower than the structured methods, it serves the
// printf style loggers of the third-party components.
func (l *xLogger) Logf(lvl zapcore.Level, format string, args ...any) {
	l.write(nil, lvl, fmt.Sprintf(format, args...), nil, nil)
}

func NewXLogger(opts ...XLoggerOption) XLogger {
	cfg := &loggerCfg{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cfg); err != nil {
			panic(err)
		}
	}
	xl := &xLogger{}
	cfg.apply(xl)

	// Disable zap logger error stack.
	l := zap.New(
		XLogTeeCore(cfg.cores...),
		zap.AddCallerSkip(xLoggerCallerSkip),
		zap.AddCaller(),
	)
	xl.logger.Store(l)
	return xl
}

// newComponentLogger shares the parent's cores and level but
// drops the caller, the component name takes its place.
func newComponentLogger(parent XLogger, name string) *xLogger {
	l := &xLogger{}
	if p, ok := parent.(*xLogger); ok {
		l.ctxFields = p.ctxFields
		l.dynamicLevelEnabler = p.dynamicLevelEnabler
		l.writer, l.encoder = p.writer, p.encoder
	}
	l.logger.Store(parent.
		zap().
		Named(name).
		WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			var (
				cc  xLogCore
				err error
			)
			switch c := core.(type) {
			case xLogMultiCore:
				cc, err = WrapCores(c, componentCoreEncoderCfg)
			case xLogCore:
				cc, err = WrapCore(c, componentCoreEncoderCfg)
			default:
				err = infra.NewErrorStack("[XLogger] core is not xLogCore")
			}
			if err != nil {
				panic(err)
			}
			return cc
		})),
	)
	return l
}

func extractFieldsFromContext(
	ctx context.Context,
	targets kv.ThreadSafeStorer[string, string],
) []zap.Field {
	if ctx == nil || targets == nil {
		return nil
	}

	keys := targets.ListKeys()
	sort.Strings(keys)
	newFields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		mapTo, _ := targets.Get(key)
		if mapTo == ContextKeyMapToOmitempty {
			continue
		}
		if v := ctx.Value(key); v != nil {
			newFields = append(newFields, zap.Any(mapTo, v))
		} else {
			newFields = append(newFields, zap.String(mapTo, "nil"))
		}
	}
	return newFields
}
