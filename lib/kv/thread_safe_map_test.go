package kv

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThreadSafeMap_AddOrUpdateAndGet(t *testing.T) {
	m := NewThreadSafeMap[string, int]()
	keys := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		key := "key-" + strconv.Itoa(i)
		keys = append(keys, key)
		m.AddOrUpdate(key, i)
	}
	require.ElementsMatch(t, keys, m.ListKeys())

	v, ok := m.Get("key-42")
	require.True(t, ok)
	require.Equal(t, 42, v)

	m.AddOrUpdate("key-42", -42)
	v, ok = m.Get("key-42")
	require.True(t, ok)
	require.Equal(t, -42, v)
	require.Len(t, m.ListKeys(), 100)

	_, ok = m.Get("absent")
	require.False(t, ok)
}

func TestThreadSafeMap_DataRace(t *testing.T) {
	m := NewThreadSafeMap[int, int]()
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				m.AddOrUpdate(base*1000+i, i)
				_, _ = m.Get(base*1000 + i)
				_ = m.ListKeys()
			}
		}(g)
	}
	wg.Wait()
	require.Len(t, m.ListKeys(), 4000)
}
