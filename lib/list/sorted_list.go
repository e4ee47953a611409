package list

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/benz9527/xsortedlist/lib/id"
	"github.com/benz9527/xsortedlist/lib/infra"
	"github.com/benz9527/xsortedlist/xlog"
)

// References:
// Herlihy, Shavit. "The Art of Multiprocessor Programming", 9.5 Fine-Grained Synchronization.
// https://en.wikipedia.org/wiki/Lock_coupling
//
// Insert 3 into [1, 5], the writer holds at most two adjacent locks:
//
//	  lock(S)  lock(1)  unlock(S)  lock(5)   3 < 5, splice, unlock(1), unlock(5)
//	+---+    +---+    +---+
//	| S |--->| 1 |--->| 5 |---> S (back lock)
//	+---+    +---+    +---+

var (
	ErrSortedListNodeLockPoisoned = errors.New("[sorted-list] node lock poisoned by a panicked holder")
	ErrSortedListNilComparator    = errors.New("[sorted-list] comparator is nil")
	ErrSortedListNil              = errors.New("[sorted-list] list is nil")
	ErrSortedListWorkerPanic      = errors.New("[sorted-list] parallel insert worker panicked")
	errSortedListStopTraversal    = errors.New("[sorted-list] stop traversal")
)

var _ SortedList[int] = (*sortedList[int])(nil)

type sortedList[T any] struct {
	head  *sortedListNode[T]
	tail  *sortedListNode[T] // The same object as head.
	cmp   infra.OrderedKeyComparator[T]
	idGen id.Generator
	impl  mutexImpl
	len   atomic.Int64
	log   xlog.XLogger
	stats *sortedListStats
}

func (l *sortedList[T]) Len() int64 {
	return l.len.Load()
}

func (l *sortedList[T]) poisoned(op string, err error) error {
	err = infra.WrapErrorStack(err, "[sorted-list] "+op)
	if l.log != nil {
		l.log.ErrorStack(err, "sorted list lock acquisition failed", zap.String("op", op))
	}
	return err
}

// recoverAndPoison has to be deferred directly by the operation.
// It poisons whatever the operation still holds and re-panics.
func (l *sortedList[T]) recoverAndPoison(op string, held *heldLocks) {
	r := recover()
	if r == nil {
		return
	}
	n := held.poisonAll()
	l.stats.IncreasePoisonedCount(int64(n))
	if l.log != nil {
		l.log.Error(fmt.Errorf("%v", r), "sorted list operation panicked, node locks poisoned",
			zap.String("op", op),
			zap.Int("poisoned", n),
		)
	}
	panic(r)
}

func (l *sortedList[T]) Insert(v T) (err error) {
	held := &heldLocks{version: l.idGen.Number()}
	defer l.recoverAndPoison("insert", held)

	cur := l.head
	if err = held.acquire(cur.mu); err != nil {
		return l.poisoned("insert", err)
	}
	hops := int64(0)
	for {
		next := cur.next
		if err = held.acquire(next.successorLock()); err != nil {
			held.releaseAll()
			return l.poisoned("insert", err)
		}
		if next.isSentinel() || l.cmp(v, next.value) < 0 {
			n := newElementNode[T](v, mutexFactory(l.impl))
			n.next, n.prev = next, cur
			next.prev = n
			cur.next = n
			l.len.Add(1)
			held.releaseAll()
			l.stats.RecordInsert(hops)
			return nil
		}
		// v belongs further right. Hand over: keep next locked,
		// it becomes the new current.
		held.release(cur.mu)
		cur = next
		hops++
	}
}

// forward walks head to tail with one lock at a time. underLock
// runs while the node is locked, afterUnlock once it is released.
// Either may be nil. A returned errSortedListStopTraversal ends the
// walk without error.
func (l *sortedList[T]) forward(
	op string,
	underLock func(idx int64, v T) error,
	afterUnlock func(idx int64, v T) bool,
) (err error) {
	held := &heldLocks{version: l.idGen.Number()}
	defer l.recoverAndPoison(op, held)

	if err = held.acquire(l.head.mu); err != nil {
		return l.poisoned(op, err)
	}
	cur := l.head.next
	held.release(l.head.mu)

	for idx := int64(0); !cur.isSentinel(); idx++ {
		if err = held.acquire(cur.mu); err != nil {
			return l.poisoned(op, err)
		}
		v := cur.value
		if underLock != nil {
			if err = underLock(idx, v); err != nil {
				held.release(cur.mu)
				if errors.Is(err, errSortedListStopTraversal) {
					return nil
				}
				return err
			}
		}
		next := cur.next
		held.release(cur.mu)
		if afterUnlock != nil && !afterUnlock(idx, v) {
			return nil
		}
		cur = next
	}
	return nil
}

func (l *sortedList[T]) backward(op string, afterUnlock func(idx int64, v T) bool) (err error) {
	held := &heldLocks{version: l.idGen.Number()}
	defer l.recoverAndPoison(op, held)

	if err = held.acquire(l.tail.backMu); err != nil {
		return l.poisoned(op, err)
	}
	cur := l.tail.prev
	held.release(l.tail.backMu)

	for idx := int64(0); !cur.isSentinel(); idx++ {
		if err = held.acquire(cur.mu); err != nil {
			return l.poisoned(op, err)
		}
		v, prev := cur.value, cur.prev
		held.release(cur.mu)
		if !afterUnlock(idx, v) {
			return nil
		}
		cur = prev
	}
	return nil
}

func (l *sortedList[T]) Print() error {
	return l.PrintTo(os.Stdout)
}

func (l *sortedList[T]) PrintTo(w io.Writer) error {
	if w == nil {
		w = io.Discard
	}
	return l.forward("print", func(idx int64, v T) error {
		if _, err := fmt.Fprintf(w, "%v\n", v); err != nil {
			return infra.WrapErrorStack(err, "[sorted-list] print")
		}
		return nil
	}, nil)
}

func (l *sortedList[T]) IsSorted() (bool, error) {
	var (
		last    T
		hasLast bool
		sorted  = true
	)
	err := l.forward("isSorted", func(idx int64, v T) error {
		if hasLast && l.cmp(last, v) > 0 {
			sorted = false
			return errSortedListStopTraversal
		}
		last, hasLast = v, true
		return nil
	}, nil)
	if err != nil {
		return false, err
	}
	return sorted, nil
}

func (l *sortedList[T]) Foreach(fn func(idx int64, v T) bool) error {
	if fn == nil {
		return nil
	}
	return l.forward("foreach", nil, fn)
}

func (l *sortedList[T]) ReverseForeach(fn func(idx int64, v T) bool) error {
	if fn == nil {
		return nil
	}
	return l.backward("reverseForeach", fn)
}

func (l *sortedList[T]) Values() ([]T, error) {
	values := make([]T, 0, l.Len())
	if err := l.Foreach(func(idx int64, v T) bool {
		values = append(values, v)
		return true
	}); err != nil {
		return nil, err
	}
	return values, nil
}

// NewSortedList orders the values by cmp.Compare.
func NewSortedList[T infra.OrderedKey](opts ...SortedListOption) (SortedList[T], error) {
	return NewSortedListWithComparator[T](infra.DefaultOrderedKeyComparator[T](), opts...)
}

// NewSortedListWithComparator orders the values by cmp. A panic
// raised by cmp poisons the node locks held at that moment.
func NewSortedListWithComparator[T any](cmp infra.OrderedKeyComparator[T], opts ...SortedListOption) (SortedList[T], error) {
	if cmp == nil {
		return nil, infra.WrapErrorStack(ErrSortedListNilComparator, "[sorted-list] new")
	}
	o := &sortedListOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	idGen, err := id.MonotonicNonZeroID()
	if err != nil {
		return nil, err
	}

	sentinel := newSentinelNode[T](mutexFactory(o.impl), mutexFactory(o.impl))
	l := &sortedList[T]{
		head:  sentinel,
		tail:  sentinel,
		cmp:   cmp,
		idGen: idGen,
		impl:  o.impl,
		log:   o.logger,
	}
	if o.statsEnabled {
		l.stats = newSortedListStats(o.statsName, l.Len)
	}
	if l.log != nil {
		l.log.Debug("sorted list created",
			zap.String("mutex", o.impl.String()),
			zap.Bool("stats", o.statsEnabled),
		)
	}
	return l, nil
}
