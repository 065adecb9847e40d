// Package replacer implements the LRU-K eviction policy: it tracks, for
// each evictable frame, the timestamps of its accesses, and selects the
// frame whose backward K-distance (current timestamp minus the timestamp
// of its K-th most recent access) is largest, breaking ties by earliest
// first access.
package replacer

import (
	"math"
	"sync"
)

// frameID is a buffer-pool frame index.
type frameID = int

// history tracks one frame's access timestamps, oldest first. Its first
// entry doubles as the frame's tie-break key: the timestamp of its
// first-ever access.
type history struct {
	timestamps []int64
	evictable  bool
}

// LRUKReplacer tracks access history for a bounded set of frame ids and
// selects an eviction victim by backward K-distance.
type LRUKReplacer struct {
	mu         sync.Mutex
	k          int
	replacerSz int
	currTS     int64
	currSize   int
	frames     map[frameID]*history
}

// New constructs an LRU-K replacer tracking up to replacerSize frame ids
// (frame ids must be in [0, replacerSize)), ranking by the k-th most
// recent access.
func New(replacerSize, k int) *LRUKReplacer {
	if k < 1 {
		k = 1
	}
	return &LRUKReplacer{
		k:          k,
		replacerSz: replacerSize,
		frames:     make(map[frameID]*history),
	}
}

func (r *LRUKReplacer) inRange(f frameID) bool {
	return f >= 0 && f < r.replacerSz
}

// RecordAccess appends the current timestamp to f's history and advances
// the global clock. Out-of-range frame ids are ignored.
func (r *LRUKReplacer) RecordAccess(f frameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inRange(f) {
		return
	}
	h, ok := r.frames[f]
	if !ok {
		h = &history{}
		r.frames[f] = h
	}
	h.timestamps = append(h.timestamps, r.currTS)
	r.currTS++
}

// SetEvictable marks f evictable or not, adjusting Size() accordingly.
// Idempotent; out-of-range or untracked frame ids are ignored.
func (r *LRUKReplacer) SetEvictable(f frameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inRange(f) {
		return
	}
	h, ok := r.frames[f]
	if !ok {
		return
	}
	if h.evictable == evictable {
		return
	}
	h.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// backwardKDistance returns h's backward k-distance (+inf as math.MaxInt64
// if fewer than k accesses have been recorded).
func (r *LRUKReplacer) backwardKDistance(h *history) int64 {
	n := len(h.timestamps)
	if n < r.k {
		return math.MaxInt64
	}
	return r.currTS - h.timestamps[n-r.k]
}

// Evict selects the evictable frame with the largest backward k-distance,
// breaking ties by smallest first-access timestamp, removes it from the
// evictable set, and forgets its history. Returns (0, false) if no frame
// is evictable.
func (r *LRUKReplacer) Evict() (frameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		victim      frameID
		found       bool
		maxDistance int64 = -1
		victimFirst int64
	)

	for f, h := range r.frames {
		if !h.evictable {
			continue
		}
		d := r.backwardKDistance(h)
		first := h.timestamps[0]
		switch {
		case !found, d > maxDistance:
			victim, found, maxDistance, victimFirst = f, true, d, first
		case d == maxDistance && first < victimFirst:
			victim, victimFirst = f, first
		}
	}

	if !found {
		return 0, false
	}
	r.currSize--
	r.removeLocked(victim)
	return victim, true
}

// Remove unconditionally drops f from the evictable set and its history,
// whether or not f is currently evictable. No-op if f is not tracked.
// Out-of-range ids are ignored.
func (r *LRUKReplacer) Remove(f frameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inRange(f) {
		return
	}
	h, ok := r.frames[f]
	if !ok {
		return
	}
	if h.evictable {
		r.currSize--
	}
	r.removeLocked(f)
}

// removeLocked deletes f's tracking state unconditionally.
func (r *LRUKReplacer) removeLocked(f frameID) {
	delete(r.frames, f)
}

// Size returns the number of currently evictable frames.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
