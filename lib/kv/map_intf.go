package kv

// ThreadSafeStorer is a small map guarded by a RWMutex. It backs
// the registries of the logger (context fields and out writers),
// which are written at setup and read on every record.
type ThreadSafeStorer[K comparable, V any] interface {
	AddOrUpdate(key K, obj V)
	Get(key K) (item V, exists bool)
	ListKeys() []K
}
