package list

import (
	"io"
)

// SortedList keeps its elements in non-decreasing order while
// many goroutines insert into it. Every node carries its own lock,
// and there is no list-wide lock.
//
// Insert couples the locks hand over hand, so it is linearizable
// against other inserts. The read methods hold one node lock at a
// time. They never miss a node that existed for their whole
// duration, but an insert committed in the middle of a traversal
// may or may not be observed.
//
// The only error besides invalid options is lock poisoning: if a
// goroutine panics while holding node locks (a panicking comparator
// for instance), those locks are poisoned and every later
// acquisition fails with ErrSortedListNodeLockPoisoned.
type SortedList[T any] interface {
	Len() int64
	// Insert puts v after every element that is not greater than v.
	Insert(v T) error
	// Print writes the values to stdout, one per line.
	Print() error
	// PrintTo writes the values to w in ascending order, one per
	// line, formatted by %v.
	PrintTo(w io.Writer) error
	// IsSorted reports whether the values observed by a single
	// forward scan are non-decreasing.
	IsSorted() (bool, error)
	// Foreach visits the values from head to tail until fn returns false.
	// fn runs without any node lock held, so it may call Insert.
	Foreach(fn func(idx int64, v T) bool) error
	// ReverseForeach visits the values from tail to head until fn returns false.
	ReverseForeach(fn func(idx int64, v T) bool) error
	// Values returns a snapshot taken by Foreach.
	Values() ([]T, error)
}
