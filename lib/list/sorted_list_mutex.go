package list

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/benz9527/xsortedlist/lib/infra"
)

// nodeMutex is a per node lock which remembers that a holder
// panicked inside its critical section.
//
// lock acquires the mutex. If the mutex has been poisoned, it is
// released again at once and ErrSortedListNodeLockPoisoned is
// returned, the caller never owns a poisoned lock.
// poison must be called by the current holder only.
type nodeMutex interface {
	lock(version uint64) error
	unlock(version uint64) bool
	poison()
	isPoisoned() bool
}

type mutexImpl uint8

const (
	goNativeMutex mutexImpl = iota
	spinMutexImpl
)

func (impl mutexImpl) String() string {
	switch impl {
	case spinMutexImpl:
		return "spin"
	case goNativeMutex:
		fallthrough
	default:
	}
	return "goNative"
}

func mutexFactory(impl mutexImpl) nodeMutex {
	switch impl {
	case spinMutexImpl:
		return new(spinMutex)
	case goNativeMutex:
		fallthrough
	default:
	}
	return new(goSyncMutex)
}

const (
	unlocked = 0
)

// spinMutex stores the owner version, 0 means unlocked.
type spinMutex struct {
	owner    atomic.Uint64
	poisoned atomic.Bool
}

func (m *spinMutex) lock(version uint64) error {
	backoff := uint8(1)
	for !m.owner.CompareAndSwap(unlocked, version) {
		if backoff <= 32 {
			for i := uint8(0); i < backoff; i++ {
				infra.ProcYield(20)
			}
			backoff <<= 1
		} else {
			runtime.Gosched()
		}
	}
	if m.poisoned.Load() {
		m.owner.Store(unlocked)
		return ErrSortedListNodeLockPoisoned
	}
	return nil
}

func (m *spinMutex) unlock(version uint64) bool {
	return m.owner.CompareAndSwap(version, unlocked)
}

func (m *spinMutex) poison() {
	m.poisoned.Store(true)
}

func (m *spinMutex) isPoisoned() bool {
	return m.poisoned.Load()
}

type goSyncMutex struct {
	mu       sync.Mutex
	poisoned atomic.Bool
}

func (m *goSyncMutex) lock(version uint64) error {
	m.mu.Lock()
	if m.poisoned.Load() {
		m.mu.Unlock()
		return ErrSortedListNodeLockPoisoned
	}
	return nil
}

func (m *goSyncMutex) unlock(version uint64) bool {
	m.mu.Unlock()
	return true
}

func (m *goSyncMutex) poison() {
	m.poisoned.Store(true)
}

func (m *goSyncMutex) isPoisoned() bool {
	return m.poisoned.Load()
}

// heldLocks tracks the (at most two) locks an operation owns, so a
// panic can poison and release exactly those.
type heldLocks struct {
	version uint64
	locks   [2]nodeMutex
}

func (h *heldLocks) acquire(mu nodeMutex) error {
	slot := -1
	for i := range h.locks {
		if h.locks[i] == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		panic("[sorted-list] more than two node locks held")
	}
	if err := mu.lock(h.version); err != nil {
		return err
	}
	h.locks[slot] = mu
	return nil
}

func (h *heldLocks) release(mu nodeMutex) {
	for i := range h.locks {
		if h.locks[i] == mu {
			h.locks[i] = nil
			mu.unlock(h.version)
			return
		}
	}
}

func (h *heldLocks) releaseAll() {
	for i := range h.locks {
		if mu := h.locks[i]; mu != nil {
			h.locks[i] = nil
			mu.unlock(h.version)
		}
	}
}

// poisonAll returns how many locks were poisoned.
func (h *heldLocks) poisonAll() int {
	n := 0
	for i := range h.locks {
		if mu := h.locks[i]; mu != nil {
			mu.poison()
			n++
		}
	}
	h.releaseAll()
	return n
}
