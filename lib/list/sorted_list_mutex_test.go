package list

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeMutex(t *testing.T) {
	for _, impl := range []mutexImpl{goNativeMutex, spinMutexImpl} {
		t.Run(impl.String(), func(tt *testing.T) {
			mu := mutexFactory(impl)
			counter := 0
			var wg sync.WaitGroup
			for i := uint64(1); i <= 8; i++ {
				wg.Add(1)
				go func(version uint64) {
					defer wg.Done()
					for j := 0; j < 1000; j++ {
						if assert.NoError(tt, mu.lock(version)) {
							counter++
							assert.True(tt, mu.unlock(version))
						}
					}
				}(i)
			}
			wg.Wait()
			require.Equal(tt, 8000, counter)

			require.NoError(tt, mu.lock(1))
			mu.poison()
			require.True(tt, mu.isPoisoned())
			require.True(tt, mu.unlock(1))

			// A poisoned mutex is released by the failed lock.
			require.ErrorIs(tt, mu.lock(2), ErrSortedListNodeLockPoisoned)
			require.ErrorIs(tt, mu.lock(3), ErrSortedListNodeLockPoisoned)
		})
	}
}

func TestSpinMutex_UnlockByOtherVersion(t *testing.T) {
	mu := &spinMutex{}
	require.NoError(t, mu.lock(7))
	require.False(t, mu.unlock(8))
	require.True(t, mu.unlock(7))
	require.False(t, mu.unlock(7))
}

func TestMutexImpl_String(t *testing.T) {
	require.Equal(t, "goNative", goNativeMutex.String())
	require.Equal(t, "spin", spinMutexImpl.String())
	require.Equal(t, "goNative", mutexImpl(9).String())
	require.IsType(t, &goSyncMutex{}, mutexFactory(mutexImpl(9)))
}

func TestHeldLocks(t *testing.T) {
	a, b, c := mutexFactory(goNativeMutex), mutexFactory(goNativeMutex), mutexFactory(goNativeMutex)
	held := &heldLocks{version: 1}
	require.NoError(t, held.acquire(a))
	require.NoError(t, held.acquire(b))
	require.Panics(t, func() {
		_ = held.acquire(c)
	})
	held.release(a)
	require.NoError(t, held.acquire(c))
	require.Equal(t, 2, held.poisonAll())
	require.False(t, a.isPoisoned())
	require.True(t, b.isPoisoned())
	require.True(t, c.isPoisoned())
	require.Equal(t, 0, held.poisonAll())

	require.NoError(t, a.lock(2))
	a.unlock(2)
}
