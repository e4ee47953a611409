package list

import (
	"strings"

	"github.com/benz9527/xsortedlist/lib/infra"
	"github.com/benz9527/xsortedlist/xlog"
)

type sortedListOptions struct {
	logger       xlog.XLogger
	statsName    string
	impl         mutexImpl
	statsEnabled bool
}

type SortedListOption func(*sortedListOptions) error

// WithSortedListGoNativeMutex guards every node by sync.Mutex. It is the default.
func WithSortedListGoNativeMutex() SortedListOption {
	return func(o *sortedListOptions) error {
		o.impl = goNativeMutex
		return nil
	}
}

// WithSortedListSpinMutex guards every node by a CAS spin lock with
// backoff. It suits short critical sections on few contended nodes.
func WithSortedListSpinMutex() SortedListOption {
	return func(o *sortedListOptions) error {
		o.impl = spinMutexImpl
		return nil
	}
}

func WithSortedListLogger(logger xlog.XLogger) SortedListOption {
	return func(o *sortedListOptions) error {
		if logger == nil {
			return infra.NewErrorStack("[sorted-list] logger is nil")
		}
		o.logger = logger
		return nil
	}
}

// WithSortedListStats records the otel metrics under the meter
// "xboot/xsl/<name>".
func WithSortedListStats(name string) SortedListOption {
	return func(o *sortedListOptions) error {
		name = strings.TrimSpace(name)
		if len(name) == 0 {
			name = "default"
		}
		o.statsEnabled = true
		o.statsName = name
		return nil
	}
}
