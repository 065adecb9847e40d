// Package hash implements an extendible hash map: a concurrent mapping
// from a hashable key to a value, backed by a directory of buckets that
// doubles in place and splits a bucket on overflow rather than rehashing
// the whole table.
//
// It is used by the buffer pool manager as its page table (page.ID ->
// frame id), but is kept generic over key and value types per the
// "polymorphic hash-map values" design note: a page table is just one
// instantiation of the same structure.
package hash

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultBucketSize is a small constant bucket capacity, sufficient for a
// page-table-sized hash map.
const DefaultBucketSize = 50

// Hasher maps a key to a 64-bit hash. New uses an xxhash-backed hasher
// derived from fmt.Sprint(key); callers with a
// cheaper representation (e.g. an integer page id) should supply their
// own via NewWithHasher.
type Hasher[K comparable] func(key K) uint64

// bucket holds up to bucketSize key/value pairs at a given local depth.
type bucket[K comparable, V any] struct {
	depth   int
	entries []entry[K, V]
}

type entry[K comparable, V any] struct {
	key K
	val V
}

func newBucket[K comparable, V any](depth, bucketSize int) *bucket[K, V] {
	return &bucket[K, V]{depth: depth, entries: make([]entry[K, V], 0, bucketSize)}
}

func (b *bucket[K, V]) find(key K) (V, bool) {
	for _, e := range b.entries {
		if e.key == key {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

// upsert overwrites key's value if present and reports true. Otherwise it
// appends the pair if there is room and reports true; if the bucket is
// full it reports false without mutating anything.
func (b *bucket[K, V]) upsert(key K, val V, bucketSize int) bool {
	for i, e := range b.entries {
		if e.key == key {
			b.entries[i].val = val
			return true
		}
	}
	if len(b.entries) >= bucketSize {
		return false
	}
	b.entries = append(b.entries, entry[K, V]{key, val})
	return true
}

func (b *bucket[K, V]) remove(key K) bool {
	removed := false
	out := b.entries[:0]
	for _, e := range b.entries {
		if e.key == key {
			removed = true
			continue
		}
		out = append(out, e)
	}
	b.entries = out
	return removed
}

// Map is an extendible hash map. The zero value is not usable; construct
// with New or NewWithHasher.
type Map[K comparable, V any] struct {
	mu          sync.Mutex
	hasher      Hasher[K]
	bucketSize  int
	globalDepth int
	numBuckets  int
	dir         []*bucket[K, V]
}

// New constructs an extendible hash map with one empty bucket of local
// depth 0 and a directory of size 1 (global depth 0), hashing keys with
// xxhash over their fmt-formatted representation.
func New[K comparable, V any](bucketSize int) *Map[K, V] {
	return NewWithHasher[K, V](bucketSize, defaultHasher[K]())
}

// NewWithHasher is like New but lets the caller supply a cheaper hash
// function for K (e.g. treating an integer id as its own hash).
func NewWithHasher[K comparable, V any](bucketSize int, hasher Hasher[K]) *Map[K, V] {
	if bucketSize <= 0 {
		bucketSize = DefaultBucketSize
	}
	m := &Map[K, V]{
		hasher:     hasher,
		bucketSize: bucketSize,
		numBuckets: 1,
	}
	m.dir = []*bucket[K, V]{newBucket[K, V](0, bucketSize)}
	return m
}

// defaultHasher formats the key and feeds it through xxhash. Most callers
// of this package (e.g. the buffer pool's page table) supply a cheaper
// Hasher via NewWithHasher instead; this fallback exists so Map is usable
// out of the box for any comparable key.
func defaultHasher[K comparable]() Hasher[K] {
	return func(key K) uint64 {
		return xxhash.Sum64String(fmt.Sprint(key))
	}
}

// indexOfLocked computes IndexOf(k) = hash(k) mod 2^globalDepth. Callers
// must hold mu.
func (m *Map[K, V]) indexOfLocked(key K) int {
	mask := uint64(1<<uint(m.globalDepth)) - 1
	return int(m.hasher(key) & mask)
}

// Find returns the most recently inserted value for key, or false if
// absent.
func (m *Map[K, V]) Find(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOfLocked(key)
	return m.dir[i].find(key)
}

// Insert upserts key -> val, splitting buckets and doubling the directory
// as needed. It always succeeds.
func (m *Map[K, V]) Insert(key K, val V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		i := m.indexOfLocked(key)
		if m.dir[i].upsert(key, val, m.bucketSize) {
			return
		}
		m.splitLocked(i)
	}
}

// splitLocked splits the overflowing bucket at directory index i,
// doubling the directory first if the bucket's local depth has caught up
// with the global depth. Callers must hold mu.
func (m *Map[K, V]) splitLocked(i int) {
	old := m.dir[i]

	if old.depth == m.globalDepth {
		// Double the directory: dir[j+2^globalDepth] := dir[j] for all j.
		m.dir = append(m.dir, m.dir...)
		m.globalDepth++
	}

	old.depth++
	newB := newBucket[K, V](old.depth, m.bucketSize)
	m.numBuckets++

	// Re-point every directory entry that pointed at old and whose index
	// has the new depth's discriminating bit set.
	bit := 1 << uint(old.depth-1)
	for j := range m.dir {
		if m.dir[j] == old && j&bit != 0 {
			m.dir[j] = newB
		}
	}

	// Redistribute old's pairs between old and newB by recomputing
	// IndexOf with the (possibly just-doubled) global depth. old.entries
	// is swapped for a fresh backing array first so appending into it
	// below never aliases the slice we are still reading from.
	entries := old.entries
	old.entries = make([]entry[K, V], 0, m.bucketSize)
	for _, e := range entries {
		idx := m.indexOfLocked(e.key)
		target := m.dir[idx]
		// Capacity can't overflow here: entries came from one bucket of
		// the old capacity, split across at most two buckets.
		target.entries = append(target.entries, e)
	}
}

// Remove deletes every pair with the given key and reports whether any
// were removed.
func (m *Map[K, V]) Remove(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOfLocked(key)
	return m.dir[i].remove(key)
}

// GlobalDepth returns the number of hash bits used to index the
// directory.
func (m *Map[K, V]) GlobalDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.globalDepth
}

// LocalDepth returns the local depth of the bucket at directory index i.
func (m *Map[K, V]) LocalDepth(i int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir[i].depth
}

// NumBuckets returns the number of distinct buckets currently allocated.
func (m *Map[K, V]) NumBuckets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numBuckets
}
