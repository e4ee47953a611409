package list

type nodeKind uint8

const (
	elementNode nodeKind = iota
	sentinelNode
)

// sortedListNode is either an element or the single sentinel which
// is both the head and the tail of the chain.
//
// mu guards next and prev of an element. The sentinel sits at both
// ends, so its links are split: mu guards next (the head side) and
// backMu guards prev (the tail side). Writers take the sentinel's mu
// first and its backMu last, the lock order stays acyclic.
//
// value and kind never change after construction.
type sortedListNode[T any] struct {
	mu     nodeMutex
	backMu nodeMutex
	next   *sortedListNode[T]
	prev   *sortedListNode[T]
	kind   nodeKind
	value  T // Unused by the sentinel.
}

func newElementNode[T any](v T, mu nodeMutex) *sortedListNode[T] {
	return &sortedListNode[T]{
		mu:    mu,
		kind:  elementNode,
		value: v,
	}
}

func newSentinelNode[T any](front, back nodeMutex) *sortedListNode[T] {
	n := &sortedListNode[T]{
		mu:     front,
		backMu: back,
		kind:   sentinelNode,
	}
	n.next, n.prev = n, n
	return n
}

func (n *sortedListNode[T]) isSentinel() bool {
	return n.kind == sentinelNode
}

// successorLock is the lock guarding n.prev.
func (n *sortedListNode[T]) successorLock() nodeMutex {
	if n.isSentinel() {
		return n.backMu
	}
	return n.mu
}
