package infra

import "cmp"

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Integer interface {
	Signed | Unsigned
}

type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// OrderedKeyComparator
// Assume i is the new key.
//  1. i == j, return 0
//  2. i > j, return positive, turn to right part.
//  3. i < j, return negative, turn to left part.
type OrderedKeyComparator[K any] func(i, j K) int64

// DefaultOrderedKeyComparator follows cmp.Compare, so NaN sorts
// before every other float.
func DefaultOrderedKeyComparator[K OrderedKey]() OrderedKeyComparator[K] {
	return func(i, j K) int64 {
		return int64(cmp.Compare(i, j))
	}
}
