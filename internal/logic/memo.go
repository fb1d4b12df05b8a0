package logic

import (
	"sync"
	"unsafe"
)

// Memo caches the last result of a filter function. The cache key is the
// identity of the input collection (backing array and length) plus the
// params compared by value, so a collection that was refetched never hits
// a stale entry. A hit returns the same result slice as the previous call.
type Memo[T any, P comparable] struct {
	mu     sync.Mutex
	fn     func([]T, P) []T
	valid  bool
	data   *T
	n      int
	params P
	result []T
	hits   int
	misses int
}

// NewMemo wraps fn in a single-entry cache
func NewMemo[T any, P comparable](fn func([]T, P) []T) *Memo[T, P] {
	return &Memo[T, P]{fn: fn}
}

// Apply returns fn(items, params), reusing the cached result when neither
// the collection nor the params changed since the last call.
func (m *Memo[T, P]) Apply(items []T, params P) []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := unsafe.SliceData(items)
	if m.valid && m.data == data && m.n == len(items) && m.params == params {
		m.hits++
		return m.result
	}

	m.misses++
	result := m.fn(items, params)
	m.data, m.n, m.params, m.result, m.valid = data, len(items), params, result, true
	return result
}

// Reset drops the cached entry
func (m *Memo[T, P]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero P
	m.valid, m.data, m.n, m.params, m.result = false, nil, 0, zero, nil
}

// Stats returns the number of cache hits and misses so far
func (m *Memo[T, P]) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}
