package kv

import (
	"sync"
)

const defaultThreadSafeMapCap = 8

type threadSafeMap[K comparable, V any] struct {
	lock  sync.RWMutex
	items map[K]V
}

func (t *threadSafeMap[K, V]) AddOrUpdate(key K, obj V) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.items[key] = obj
}

func (t *threadSafeMap[K, V]) Get(key K) (item V, exists bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	item, exists = t.items[key]
	return
}

// ListKeys returns the keys in no particular order.
func (t *threadSafeMap[K, V]) ListKeys() []K {
	t.lock.RLock()
	defer t.lock.RUnlock()
	keys := make([]K, 0, len(t.items))
	for key := range t.items {
		keys = append(keys, key)
	}
	return keys
}

func NewThreadSafeMap[K comparable, V any]() ThreadSafeStorer[K, V] {
	return &threadSafeMap[K, V]{
		items: make(map[K]V, defaultThreadSafeMapCap),
	}
}
