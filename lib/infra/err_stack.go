package infra

import (
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// References:
// https://github.com/pkg/errors/blob/master/stack.go

type Frame uintptr

func (frame Frame) pc() uintptr {
	return uintptr(frame) - 1
}

func (frame Frame) file() string {
	pc := frame.pc()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknownFile"
	}
	f, _ := fn.FileLine(pc)
	return f
}

func (frame Frame) line() int {
	pc := frame.pc()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return 0
	}
	_, l := fn.FileLine(pc)
	return l
}

func (frame Frame) name() string {
	pc := frame.pc()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknownFunc"
	}
	return fn.Name()
}

// Format characters:
// %s - source file
// %d - source line
// %n - function name
// %v - verbose, equivalent to %s:%d
// %+s - full path, (<function-name>\n\t<path>)
// %+v - equivalent to %+s:%d
func (frame Frame) Format(s fmt.State, verb rune) {
	switch verb {
	case 's':
		if s.Flag('+') {
			_, _ = io.WriteString(s, frame.name())
			_, _ = io.WriteString(s, "\n\t")
			_, _ = io.WriteString(s, frame.file())
		} else {
			_, _ = io.WriteString(s, path.Base(frame.file()))
		}
	case 'd':
		_, _ = io.WriteString(s, strconv.Itoa(frame.line()))
	case 'n':
		_, _ = io.WriteString(s, funcName(frame.name()))
	case 'v':
		frame.Format(s, 's')
		_, _ = io.WriteString(s, ":")
		frame.Format(s, 'd')
	}
}

// MarshalText is used by the encoders when json.Marshaler is absent.
func (frame Frame) MarshalText() ([]byte, error) {
	name := frame.name()
	if name == "unknownFunc" {
		return []byte("unknownFrame"), nil
	}
	builder := strings.Builder{}
	_, _ = builder.WriteString(name)
	_, _ = builder.WriteString(" ")
	_, _ = builder.WriteString(frame.file())
	_, _ = builder.WriteString(":")
	_, _ = builder.WriteString(strconv.Itoa(frame.line()))
	return []byte(builder.String()), nil
}

func funcName(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}

// ErrorStack is an error with the call frames captured at creation.
// It is inlined into the zap fields by the xlog ErrorStack methods,
// so the log aggregator receives the frames as a JSON array.
type ErrorStack interface {
	error
	zapcore.ObjectMarshaler
	Unwrap() []error
	Frames() []Frame
}

var _ ErrorStack = (*errorStack)(nil)

type errorStack struct {
	msg    string
	errs   []error
	frames []Frame
}

func (es *errorStack) Error() string {
	if es == nil {
		return ""
	}
	if len(es.errs) == 0 {
		return es.msg
	}
	cause := multierr.Combine(es.errs...)
	if len(es.msg) == 0 {
		return cause.Error()
	}
	return es.msg + ": " + cause.Error()
}

func (es *errorStack) Unwrap() []error {
	if es == nil {
		return nil
	}
	return es.errs
}

func (es *errorStack) Frames() []Frame {
	if es == nil {
		return nil
	}
	return es.frames
}

func (es *errorStack) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("error", es.Error())
	return enc.AddArray("errorStack", zapcore.ArrayMarshalerFunc(func(arr zapcore.ArrayEncoder) error {
		for _, frame := range es.frames {
			text, _ := frame.MarshalText()
			arr.AppendByteString(text)
		}
		return nil
	}))
}

// Format supports %s, %v and %+v. The last one prints
// the message followed by every captured frame.
func (es *errorStack) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = io.WriteString(s, es.Error())
			for _, frame := range es.frames {
				_, _ = io.WriteString(s, "\n")
				frame.Format(s, 's')
				_, _ = io.WriteString(s, ":")
				frame.Format(s, 'd')
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, es.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", es.Error())
	}
}

const maxStackDepth = 32

func callers(skip int) []Frame {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, Frame(pcs[i]))
	}
	return frames
}

func NewErrorStack(msg string) error {
	return &errorStack{
		msg:    msg,
		frames: callers(3),
	}
}

// WrapErrorStack attaches msg and the current frames to err.
// A nil err returns nil.
func WrapErrorStack(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &errorStack{
		msg:    msg,
		errs:   []error{err},
		frames: callers(3),
	}
}

// WrapErrorStackWithMessage keeps the frames of an existing ErrorStack
// instead of capturing new ones.
func WrapErrorStackWithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	var es ErrorStack
	frames := callers(3)
	if errors.As(err, &es) {
		frames = es.Frames()
	}
	return &errorStack{
		msg:    msg,
		errs:   []error{err},
		frames: frames,
	}
}

// AppendErrorStack merges errs into a single ErrorStack.
// Nil errors are skipped, and nil is returned if nothing is left.
func AppendErrorStack(errs ...error) error {
	merged := multierr.Combine(errs...)
	if merged == nil {
		return nil
	}
	return &errorStack{
		errs:   multierr.Errors(merged),
		frames: callers(3),
	}
}
