package list

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xsortedlist/lib/infra"
	"github.com/benz9527/xsortedlist/xlog"
)

const (
	defaultParallelInsertBatchSize = 64
)

type parallelInsertOptions struct {
	logger    xlog.XLogger
	poolSize  int
	batchSize int
}

type ParallelInsertOption func(*parallelInsertOptions)

// WithParallelInsertPoolSize defaults to GOMAXPROCS.
func WithParallelInsertPoolSize(size int) ParallelInsertOption {
	return func(o *parallelInsertOptions) {
		o.poolSize = size
	}
}

func WithParallelInsertBatchSize(size int) ParallelInsertOption {
	return func(o *parallelInsertOptions) {
		o.batchSize = size
	}
}

func WithParallelInsertLogger(logger xlog.XLogger) ParallelInsertOption {
	return func(o *parallelInsertOptions) {
		o.logger = logger
	}
}

// ParallelInsert splits values into batches and inserts them from
// an ants worker pool. The errors of all batches are combined. ctx
// is checked between two inserts, a goroutine blocked on a node
// lock is never interrupted.
//
// A panicking worker is reported as ErrSortedListWorkerPanic, the
// node locks it held are poisoned by the list itself.
//
// Progress is logged by the context variants of the logger, so the
// fields registered by xlog.WithXLoggerContextFieldExtract show up.
func ParallelInsert[T any](ctx context.Context, l SortedList[T], values []T, opts ...ParallelInsertOption) (err error) {
	if isNilSortedList[T](l) {
		return infra.WrapErrorStack(ErrSortedListNil, "[sorted-list] parallel insert")
	}
	if len(values) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o := &parallelInsertOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.poolSize <= 0 {
		o.poolSize = runtime.GOMAXPROCS(0)
	}
	if o.batchSize <= 0 {
		o.batchSize = defaultParallelInsertBatchSize
	}

	poolOpts := []ants.Option{ants.WithPreAlloc(false)}
	if o.logger != nil {
		poolOpts = append(poolOpts, ants.WithLogger(xlog.NewAntsXLogger(o.logger)))
	}
	pool, err := ants.NewPool(o.poolSize, poolOpts...)
	if err != nil {
		return infra.WrapErrorStack(err, "[sorted-list] parallel insert pool")
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		errLock sync.Mutex
		merr    error
	)
	appendErr := func(e error) {
		errLock.Lock()
		defer errLock.Unlock()
		merr = multierr.Append(merr, e)
	}

	batches := lo.Chunk(values, o.batchSize)
	submitted := 0
	for i, batch := range batches {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if o.logger != nil {
				o.logger.WarnContext(ctx, "sorted list parallel insert stopped submitting",
					zap.Int("submitted", submitted),
					zap.Int("batches", len(batches)),
				)
			}
			appendErr(ctxErr)
			break
		}
		wg.Add(1)
		idx, batch := i, batch
		if subErr := pool.Submit(func() {
			defer wg.Done()
			e := insertBatch(ctx, l, batch)
			if e != nil {
				appendErr(e)
			}
			if o.logger != nil {
				o.logger.DebugContext(ctx, "sorted list parallel insert batch done",
					zap.Int("batch", idx),
					zap.Int("size", len(batch)),
					zap.Bool("failed", e != nil),
				)
			}
		}); subErr != nil {
			wg.Done()
			appendErr(subErr)
			break
		}
		submitted++
	}
	wg.Wait()

	if o.logger != nil {
		o.logger.DebugContext(ctx, "sorted list parallel insert finished",
			zap.Int("values", len(values)),
			zap.Int("batches", len(batches)),
			zap.Int("submitted", submitted),
			zap.Int("workers", o.poolSize),
			zap.Int("errors", len(multierr.Errors(merr))),
		)
	}
	if merr != nil {
		return infra.WrapErrorStack(merr, "[sorted-list] parallel insert")
	}
	return nil
}

// isNilSortedList also catches a nil *sortedList held by the interface.
func isNilSortedList[T any](l SortedList[T]) bool {
	if l == nil {
		return true
	}
	sl, ok := l.(*sortedList[T])
	return ok && sl == nil
}

func insertBatch[T any](ctx context.Context, l SortedList[T], batch []T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = infra.WrapErrorStack(ErrSortedListWorkerPanic, fmt.Sprintf("recovered: %v", r))
		}
	}()
	for _, v := range batch {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = l.Insert(v); err != nil {
			return err
		}
	}
	return nil
}
