package xlog

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xsortedlist/lib/infra"
	"github.com/benz9527/xsortedlist/lib/kv"
)

type loggerCfg struct {
	ctxFields        kv.ThreadSafeStorer[string, string]
	encoderType      *logEncoderType
	writerType       *logOutWriterType
	lvlEncoder       zapcore.LevelEncoder
	tsEncoder        zapcore.TimeEncoder
	level            *zapcore.Level
	coreConstructors []XLogCoreConstructor
	cores            []xLogCore
}

func (cfg *loggerCfg) apply(l *xLogger) {
	l.encoder, l.writer = JSON, StdOut
	if cfg.encoderType != nil {
		l.encoder = *cfg.encoderType
	}
	if cfg.writerType != nil {
		l.writer = *cfg.writerType
	}

	lvl := getLogLevelOrDefault(os.Getenv("XLOG_LVL"))
	if cfg.level != nil {
		lvl = *cfg.level
	}
	l.dynamicLevelEnabler = zap.NewAtomicLevelAt(lvl)
	l.ctxFields = cfg.ctxFields

	if cfg.lvlEncoder == nil {
		cfg.lvlEncoder = zapcore.CapitalLevelEncoder
	}
	if cfg.tsEncoder == nil {
		cfg.tsEncoder = zapcore.ISO8601TimeEncoder
	}
	if len(cfg.coreConstructors) == 0 {
		cfg.coreConstructors = []XLogCoreConstructor{newConsoleCore}
	}

	cfg.cores = make([]xLogCore, 0, len(cfg.coreConstructors))
	for _, newCore := range cfg.coreConstructors {
		cfg.cores = append(cfg.cores, newCore(
			l.dynamicLevelEnabler,
			l.encoder,
			l.writer,
			cfg.lvlEncoder,
			cfg.tsEncoder,
		))
	}
}

type XLoggerOption func(*loggerCfg) error

func WithXLoggerStdOutWriter() XLoggerOption {
	return func(cfg *loggerCfg) error {
		w := StdOut
		cfg.writerType = &w
		cfg.coreConstructors = append(cfg.coreConstructors, newConsoleCore)
		return nil
	}
}

func withXLoggerWriter(w logOutWriterType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if w >= _writerMax {
			return infra.NewErrorStack("unknown xlogger writer")
		}
		cfg.writerType = &w
		return nil
	}
}

func WithXLoggerEncoder(logEnc logEncoderType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if logEnc >= _encMax {
			return infra.NewErrorStack("unknown xlogger encoder")
		}
		cfg.encoderType = &logEnc
		return nil
	}
}

func WithXLoggerLevel(lvl logLevel) XLoggerOption {
	return func(cfg *loggerCfg) error {
		_lvl := lvl.zapLevel()
		cfg.level = &_lvl
		return nil
	}
}

// WithXLoggerLevelEncoder nil falls back to the capital encoder.
func WithXLoggerLevelEncoder(lvlEnc zapcore.LevelEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.lvlEncoder = lvlEnc
		return nil
	}
}

// WithXLoggerTimeEncoder nil falls back to ISO8601.
func WithXLoggerTimeEncoder(tsEnc zapcore.TimeEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.tsEncoder = tsEnc
		return nil
	}
}

// WithXLoggerContextFieldExtract copies ctx.Value(field) into every
// context record under the key mapTo[0]. ContextKeyMapToItself keeps
// the field name, ContextKeyMapToOmitempty registers nothing visible.
func WithXLoggerContextFieldExtract(field string, mapTo ...string) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if len(field) == 0 {
			return nil
		}
		if cfg.ctxFields == nil {
			cfg.ctxFields = kv.NewThreadSafeMap[string, string]()
		}
		key := field
		if len(mapTo) > 0 && mapTo[0] != ContextKeyMapToItself {
			key = mapTo[0]
		}
		cfg.ctxFields.AddOrUpdate(field, key)
		return nil
	}
}

// ParseLogLevel accepts DEBUG, INFO, WARN and ERROR in any case.
func ParseLogLevel(level string) (zapcore.Level, error) {
	switch logLevel(strings.ToUpper(strings.TrimSpace(level))) {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	}
	return zapcore.DebugLevel, infra.NewErrorStack("[XLogger] unknown log level " + level)
}

func getLogLevelOrDefault(level string) zapcore.Level {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return zapcore.DebugLevel
	}
	return lvl
}
