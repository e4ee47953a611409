package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xsortedlist/lib/infra"
)

type testMemOutWriter struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (w *testMemOutWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.buf.Write(p)
}

func (w *testMemOutWriter) Sync() error { return nil }

func (w *testMemOutWriter) records(t *testing.T) []map[string]any {
	w.lock.Lock()
	defer w.lock.Unlock()
	lines := strings.Split(strings.TrimSpace(w.buf.String()), "\n")
	res := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		res = append(res, rec)
	}
	return res
}

func (w *testMemOutWriter) reset() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.buf.Reset()
}

var testMemWriterOnce sync.Once

// The writer registry is global, so every test shares one memory writer.
var testMemWriter = &testMemOutWriter{}

func newTestMemLogger(t *testing.T, opts ...XLoggerOption) XLogger {
	testMemWriterOnce.Do(func() {
		writerMap.AddOrUpdate(testMemAsOut, testMemWriter)
	})
	testMemWriter.reset()
	opts = append([]XLoggerOption{
		withXLoggerWriter(testMemAsOut),
		WithXLoggerEncoder(JSON),
		WithXLoggerTimeEncoder(zapcore.ISO8601TimeEncoder),
		WithXLoggerLevelEncoder(zapcore.CapitalLevelEncoder),
	}, opts...)
	return NewXLogger(opts...)
}

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "INFO", LogLevelInfo.String())
	require.Equal(t, "WARN", LogLevelWarn.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	require.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())
}

func TestGetLogLevelOrDefault(t *testing.T) {
	testcases := []struct {
		in       string
		expected zapcore.Level
	}{
		{"", zapcore.DebugLevel},
		{"  ", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"Error", zapcore.ErrorLevel},
		{"debug", zapcore.DebugLevel},
		{"trace", zapcore.DebugLevel},
	}
	for _, tc := range testcases {
		t.Run(tc.in, func(tt *testing.T) {
			require.Equal(tt, tc.expected, getLogLevelOrDefault(tc.in))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel(" warn ")
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLogLevel("trace")
	require.Error(t, err)
}

func TestXLogger_Encoders(t *testing.T) {
	logger := newTestMemLogger(t,
		WithXLoggerLevelEncoder(zapcore.LowercaseLevelEncoder),
		WithXLoggerTimeEncoder(zapcore.EpochMillisTimeEncoder),
	)
	logger.Info("encoded")
	require.NoError(t, logger.Sync())

	recs := testMemWriter.records(t)
	require.Len(t, recs, 1)
	require.Equal(t, "info", recs[0]["lvl"])
	_, isNumber := recs[0]["ts"].(float64)
	require.True(t, isNumber)
}

func TestXLogger_LevelAndFields(t *testing.T) {
	logger := newTestMemLogger(t, WithXLoggerLevel(LogLevelInfo))
	require.Equal(t, "info", logger.Level())

	logger.Debug("dropped")
	logger.Info("kept", zap.Int("n", 1))
	logger.WarnContext(context.Background(), "warned")
	logger.Error(errors.New("boom"), "failed")
	logger.IncreaseLogLevel(zapcore.DebugLevel)
	logger.Debug("debug now")
	logger.Logf(zapcore.InfoLevel, "formatted %d", 2)
	require.NoError(t, logger.Sync())

	recs := testMemWriter.records(t)
	require.Len(t, recs, 5)
	require.Equal(t, "kept", recs[0]["msg"])
	require.Equal(t, "INFO", recs[0]["lvl"])
	require.Equal(t, float64(1), recs[0]["n"])
	require.Equal(t, "WARN", recs[1]["lvl"])
	require.Equal(t, "boom", recs[2]["error"])
	require.Equal(t, "debug now", recs[3]["msg"])
	require.Equal(t, "formatted 2", recs[4]["msg"])
	require.Contains(t, recs[0]["callAt"], "xlog_test.go")
}

func TestXLogger_ErrorStack(t *testing.T) {
	logger := newTestMemLogger(t)
	err := infra.WrapErrorStack(errors.New("root"), "wrapped")
	logger.ErrorStack(err, "with stack")
	logger.ErrorStack(errors.New("plain"), "without stack")
	require.NoError(t, logger.Sync())

	recs := testMemWriter.records(t)
	require.Len(t, recs, 2)
	require.Equal(t, "wrapped: root", recs[0]["error"])
	frames, ok := recs[0]["errorStack"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, frames)
	require.Equal(t, "plain", recs[1]["error"])
	require.Nil(t, recs[1]["errorStack"])
}

func TestXLogger_ContextFields(t *testing.T) {
	logger := newTestMemLogger(t,
		WithXLoggerContextFieldExtract("traceId"),
		WithXLoggerContextFieldExtract("svc", "service"),
		WithXLoggerContextFieldExtract("secret", ContextKeyMapToOmitempty),
		WithXLoggerContextFieldExtract(""),
	)
	ctx := context.WithValue(context.Background(), "traceId", "t-1")
	ctx = context.WithValue(ctx, "secret", "s")
	logger.InfoContext(ctx, "ctx info")
	logger.ErrorContext(ctx, errors.New("ctx err"), "ctx error")
	logger.ErrorStackContext(ctx, infra.NewErrorStack("ctx stack"), "ctx error stack")
	require.NoError(t, logger.Sync())

	recs := testMemWriter.records(t)
	require.Len(t, recs, 3)
	for _, rec := range recs {
		require.Equal(t, "t-1", rec["traceId"])
		require.Equal(t, "nil", rec["service"])
		require.NotContains(t, rec, "secret")
	}
	require.Equal(t, "ctx err", recs[1]["error"])
	require.Equal(t, "ctx stack", recs[2]["error"])
}

func TestXLogger_InvalidOptions(t *testing.T) {
	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
	require.Panics(t, func() {
		NewXLogger(withXLoggerWriter(_writerMax))
	})
}

func TestComponentLoggers(t *testing.T) {
	parent := newTestMemLogger(t, WithXLoggerLevel(LogLevelDebug))
	ants := NewAntsXLogger(parent)
	ants.Printf("worker exits from a panic: %v", "oops")

	var nilAnts *AntsXLogger
	nilAnts.Printf("ignored")
	NewAntsXLogger(nil).Printf("ignored")

	parent.IncreaseLogLevel(zapcore.ErrorLevel+1)
	ants.Printf("filtered by parent level")
	parent.IncreaseLogLevel(zapcore.DebugLevel)
	require.NoError(t, parent.Sync())

	recs := testMemWriter.records(t)
	require.Len(t, recs, 1)
	require.Equal(t, "Ants", recs[0]["component"])
	require.Equal(t, "ERROR", recs[0]["lvl"])
	require.Equal(t, "worker exits from a panic: oops", recs[0]["msg"])
	require.NotContains(t, recs[0], "callAt")
}

type testBanner struct{}

func (b testBanner) JSON() string      { return `{"app":"xsortedlist"}` }
func (b testBanner) PlainText() string { return "xsortedlist" }

func TestXLogger_Banner(t *testing.T) {
	logger := newTestMemLogger(t, WithXLoggerLevel(LogLevelError))
	logger.Banner(nil)
	logger.Banner(testBanner{})
	logger.Banner(testBanner{})
	require.NoError(t, logger.Sync())

	recs := testMemWriter.records(t)
	require.Len(t, recs, 1)
	require.Equal(t, `{"app":"xsortedlist"}`, recs[0]["banner"])
}
