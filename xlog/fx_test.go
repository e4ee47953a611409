package xlog

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"
)

func TestFxXLoggerAllCases(t *testing.T) {
	testcases := []struct {
		name   string
		event  fxevent.Event
		errLvl bool
	}{
		{"onStartExecuting", &fxevent.OnStartExecuting{FunctionName: "f1", CallerName: "c1"}, false},
		{"onStartExecuted_err", &fxevent.OnStartExecuted{FunctionName: "f2", Runtime: time.Millisecond, Err: errors.New("e")}, true},
		{"onStartExecuted_succ", &fxevent.OnStartExecuted{FunctionName: "f3", Runtime: time.Millisecond}, false},
		{"onStopExecuting", &fxevent.OnStopExecuting{FunctionName: "f4"}, false},
		{"onStopExecuted_err", &fxevent.OnStopExecuted{FunctionName: "f5", Err: errors.New("e")}, true},
		{"onStopExecuted_succ", &fxevent.OnStopExecuted{FunctionName: "f6"}, false},
		{"supplied_err", &fxevent.Supplied{TypeName: "t1", Err: errors.New("e"), StackTrace: []string{"s"}}, true},
		{"supplied_succ", &fxevent.Supplied{TypeName: "t2", ModuleName: "m"}, false},
		{"provided_err", &fxevent.Provided{ConstructorName: "c", Err: errors.New("e")}, true},
		{"provided_succ", &fxevent.Provided{ConstructorName: "c", OutputTypeNames: []string{"t3"}}, false},
		{"replaced_err", &fxevent.Replaced{Err: errors.New("e")}, true},
		{"replaced_succ", &fxevent.Replaced{OutputTypeNames: []string{"t4"}}, false},
		{"decorated_err", &fxevent.Decorated{Err: errors.New("e")}, true},
		{"decorated_succ", &fxevent.Decorated{OutputTypeNames: []string{"t5"}, DecoratorName: "d"}, false},
		{"invoking", &fxevent.Invoking{FunctionName: "f7"}, false},
		{"invoked_err", &fxevent.Invoked{FunctionName: "f8", Err: errors.New("e"), Trace: "tr"}, true},
		{"stopping", &fxevent.Stopping{Signal: os.Interrupt}, false},
		{"stopped_err", &fxevent.Stopped{Err: errors.New("e")}, true},
		{"rollingBack", &fxevent.RollingBack{StartErr: errors.New("e")}, true},
		{"rolledBack_err", &fxevent.RolledBack{Err: errors.New("e")}, true},
		{"started_err", &fxevent.Started{Err: errors.New("e")}, true},
		{"started_succ", &fxevent.Started{}, false},
		{"loggerInitialized_err", &fxevent.LoggerInitialized{Err: errors.New("e")}, true},
		{"loggerInitialized_succ", &fxevent.LoggerInitialized{ConstructorName: "c"}, false},
	}

	parent := newTestMemLogger(t, WithXLoggerLevel(LogLevelDebug))
	logger := NewFxXLogger(parent)
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			testMemWriter.reset()
			logger.LogEvent(tc.event)
			require.NoError(tt, parent.Sync())
			recs := testMemWriter.records(tt)
			require.Len(tt, recs, 1)
			require.Equal(tt, "Fx", recs[0]["component"])
			if tc.errLvl {
				require.Equal(tt, "ERROR", recs[0]["lvl"])
			} else {
				require.NotEqual(tt, "ERROR", recs[0]["lvl"])
			}
		})
	}

	var nilLogger *FxXLogger
	nilLogger.LogEvent(&fxevent.Started{})
	NewFxXLogger(nil).LogEvent(&fxevent.Started{})
}
