// Package moremaps provides small ordered-iteration helpers over Go maps,
// used wherever a map must be walked in a deterministic order — for
// example the optimizer's file-set bookkeeping (internal/optimizer).
package moremaps

import (
	"cmp"
	"slices"
)

// KeySlice returns the keys of m in unspecified order.
func KeySlice[M ~map[K]V, K comparable, V any](m M) []K {
	r := make([]K, 0, len(m))
	for k := range m {
		r = append(r, k)
	}
	return r
}

// Sorted returns the entries of m as a slice of keys, sorted ascending, for
// callers that need to range over both key and value in order.
func Sorted[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	keys := KeySlice(m)
	slices.Sort(keys)
	return keys
}

// SortedFunc returns the keys of m sorted by the given comparison function.
func SortedFunc[M ~map[K]V, K comparable, V any](m M, cmp func(x, y K) int) []K {
	keys := KeySlice(m)
	slices.SortFunc(keys, cmp)
	return keys
}
