// Package bufferpool implements the buffer pool manager: a fixed-size
// array of frames, backed by the disk manager, that hands out pinned
// pages to callers and transparently evicts an unpinned page via LRU-K
// when no free frame is left. When every frame is pinned, NewPage and
// FetchPage fail instead.
package bufferpool

import (
	"sync"

	"pagebuffer/diskio"
	"pagebuffer/hash"
	"pagebuffer/page"
	"pagebuffer/replacer"
)

// Manager owns the frame array and coordinates the page table, the free
// list, the LRU-K replacer and the disk manager under a single latch.
// No other component ever reaches back into Manager; Manager reaches
// into hash.Map, replacer.LRUKReplacer and diskio.DiskManager only
// through their own public, independently-latched methods.
type Manager struct {
	mu sync.Mutex

	frames   []*page.Page
	freeList []int

	pageTable *hash.Map[page.ID, int]
	replacer  *replacer.LRUKReplacer
	disk      *diskio.DiskManager

	poolSize int
}

// Stats is a snapshot of pool occupancy, for observability and tests.
type Stats struct {
	PoolSize     int
	FramesInUse  int
	FreeFrames   int
	PinnedFrames int
	DirtyFrames  int
}
