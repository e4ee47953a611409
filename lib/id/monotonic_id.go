package id

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

const cacheLinePadSize = unsafe.Sizeof(cpu.CacheLinePad{})

// monotonicNonZeroID is an ID generator.
// Only increase, if it overflows, it will be reset to 1.
// The counter occupies a whole cache line on its own, so the
// goroutines hammering it do not invalidate their neighbours.
// L1D cache: cat /sys/devices/system/cpu/cpu0/cache/index0/coherency_line_size
type monotonicNonZeroID struct {
	_   [cacheLinePadSize - unsafe.Sizeof(*new(uint64))]byte
	val uint64
	_   [cacheLinePadSize - unsafe.Sizeof(*new(uint64))]byte
}

func (id *monotonicNonZeroID) next() uint64 {
	var v uint64
	if v = atomic.AddUint64(&id.val, 1); v == 0 {
		v = atomic.AddUint64(&id.val, 1)
	}
	return v
}

// MonotonicNonZeroID never returns 0, so 0 is free to mean
// "nobody" for the lock owner versions.
func MonotonicNonZeroID() (Generator, error) {
	src := &monotonicNonZeroID{val: 0}
	return Gen(src.next), nil
}
