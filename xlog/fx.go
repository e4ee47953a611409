package xlog

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

// FxXLogger routes the fx lifecycle events into the "Fx" component
// logger. Successful wiring steps are debug records, failures are
// error records carrying the fx stacktrace.
type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) hookFields(function, caller string) []zap.Field {
	return []zap.Field{
		zap.String("function", function),
		zap.String("caller", caller),
	}
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("hook OnStart executing", l.hookFields(e.FunctionName, e.CallerName)...)
	case *fxevent.OnStartExecuted:
		fields := append(l.hookFields(e.FunctionName, e.CallerName), zap.Duration("in", e.Runtime))
		if e.Err != nil {
			l.logger.Error(e.Err, "hook OnStart failed", fields...)
			return
		}
		l.logger.Debug("hook OnStart executed", fields...)
	case *fxevent.OnStopExecuting:
		l.logger.Debug("hook OnStop executing", l.hookFields(e.FunctionName, e.CallerName)...)
	case *fxevent.OnStopExecuted:
		fields := append(l.hookFields(e.FunctionName, e.CallerName), zap.Duration("in", e.Runtime))
		if e.Err != nil {
			l.logger.Error(e.Err, "hook OnStop failed", fields...)
			return
		}
		l.logger.Debug("hook OnStop executed", fields...)
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "supply failed",
				zap.String("type", e.TypeName),
				zap.Strings("stacktrace", e.StackTrace),
			)
			return
		}
		l.logger.Debug("supplied", zap.String("type", e.TypeName), zap.String("module", e.ModuleName))
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error(e.Err, "provide failed",
				zap.String("constructor", e.ConstructorName),
				zap.Strings("stacktrace", e.StackTrace),
			)
			return
		}
		for _, rtype := range e.OutputTypeNames {
			l.logger.Debug("provided",
				zap.String("rtype", rtype),
				zap.String("constructor", e.ConstructorName),
				zap.String("module", e.ModuleName),
				zap.Bool("private", e.Private),
			)
		}
	case *fxevent.Replaced:
		if e.Err != nil {
			l.logger.Error(e.Err, "replace failed", zap.Strings("stacktrace", e.StackTrace))
			return
		}
		l.logger.Debug("replaced", zap.Strings("rtypes", e.OutputTypeNames), zap.String("module", e.ModuleName))
	case *fxevent.Decorated:
		if e.Err != nil {
			l.logger.Error(e.Err, "decorate failed", zap.Strings("stacktrace", e.StackTrace))
			return
		}
		l.logger.Debug("decorated",
			zap.Strings("rtypes", e.OutputTypeNames),
			zap.String("decorator", e.DecoratorName),
			zap.String("module", e.ModuleName),
		)
	case *fxevent.Invoking:
		l.logger.Debug("invoking", zap.String("function", e.FunctionName), zap.String("module", e.ModuleName))
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "invoke failed",
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)
		}
	case *fxevent.Stopping:
		l.logger.Info("stopping", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "stop failed")
		}
	case *fxevent.RollingBack:
		l.logger.Error(e.StartErr, "start failed, rolling back")
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "roll back failed")
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "start failed")
			return
		}
		l.logger.Debug("running")
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "custom logger initialization failed")
			return
		}
		l.logger.Debug("custom logger initialized", zap.String("constructor", e.ConstructorName))
	}
}

func NewFxXLogger(logger XLogger) *FxXLogger {
	if logger == nil {
		return &FxXLogger{}
	}
	return &FxXLogger{logger: newComponentLogger(logger, "Fx")}
}
