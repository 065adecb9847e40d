package bufferpool

import (
	"fmt"

	"pagebuffer/diskio"
	"pagebuffer/hash"
	"pagebuffer/page"
	"pagebuffer/replacer"
)

// New constructs a buffer pool manager with poolSize frames, backed by
// disk and ranking eviction candidates by their k-th most recent access.
func New(poolSize, replacerK int, disk *diskio.DiskManager) *Manager {
	frames := make([]*page.Page, poolSize)
	freeList := make([]int, poolSize)
	for i := range frames {
		frames[i] = page.New(page.InvalidID)
		freeList[i] = poolSize - 1 - i // frame 0 popped first
	}

	return &Manager{
		frames:    frames,
		freeList:  freeList,
		pageTable: hash.NewWithHasher[page.ID, int](hash.DefaultBucketSize, func(id page.ID) uint64 { return uint64(id) }),
		replacer:  replacer.New(poolSize, replacerK),
		disk:      disk,
		poolSize:  poolSize,
	}
}

// findVictimFrameLocked returns a frame to install a page into: a free
// frame if one exists, otherwise an LRU-K eviction victim. Reports false
// if the pool is full of pinned pages. Callers must hold mu.
func (m *Manager) findVictimFrameLocked() (int, bool) {
	if n := len(m.freeList); n > 0 {
		f := m.freeList[n-1]
		m.freeList = m.freeList[:n-1]
		return f, true
	}
	return m.replacer.Evict()
}

// evictFrameLocked writes frame f back to disk if dirty, drops its page
// table entry and resets it to the empty-slot state. Callers must hold
// mu and must have already confirmed f holds no pin.
func (m *Manager) evictFrameLocked(f int) {
	pg := m.frames[f]
	if pg.IsDirty() {
		fmt.Printf("[BufferPool] EVICT frame=%d pageID=%d (dirty, writing back)\n", f, pg.ID())
		m.disk.WritePage(pg.ID(), pg.Data())
	} else {
		fmt.Printf("[BufferPool] EVICT frame=%d pageID=%d\n", f, pg.ID())
	}
	m.pageTable.Remove(pg.ID())
	pg.ResetEmpty()
}

// NewPage allocates a fresh page id on disk, installs it into a frame
// (evicting if necessary) and returns it pinned once, with zeroed data
// and is_dirty=false — nothing has been written to it yet, so there is
// nothing to write back if it is evicted before any caller dirties it.
func (m *Manager) NewPage() (*page.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.findVictimFrameLocked()
	if !ok {
		return nil, fmt.Errorf("bufferpool: no free frame and no evictable frame")
	}

	if pg := m.frames[f]; pg.ID() != page.InvalidID {
		m.evictFrameLocked(f)
	}

	id := m.disk.AllocatePage()
	pg := m.frames[f]
	pg.ResetForReuse(id)

	m.pageTable.Insert(id, f)
	m.replacer.RecordAccess(f)
	m.replacer.SetEvictable(f, false)

	fmt.Printf("[BufferPool] NEW  frame=%d pageID=%d\n", f, id)
	return pg, nil
}

// FetchPage returns the page for id, pinned once more. If it is not
// already resident it is loaded from disk into a frame first, evicting
// if necessary.
func (m *Manager) FetchPage(id page.ID) (*page.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.pageTable.Find(id); ok {
		pg := m.frames[f]
		pg.Pin()
		m.replacer.RecordAccess(f)
		m.replacer.SetEvictable(f, false)
		fmt.Printf("[BufferPool] HIT  frame=%d pageID=%d pinCount=%d\n", f, id, pg.PinCount())
		return pg, nil
	}

	f, ok := m.findVictimFrameLocked()
	if !ok {
		return nil, fmt.Errorf("bufferpool: no free frame and no evictable frame")
	}
	if pg := m.frames[f]; pg.ID() != page.InvalidID {
		m.evictFrameLocked(f)
	}

	pg := m.frames[f]
	pg.ResetForReuse(id)
	m.disk.ReadPage(id, pg.Data())
	pg.ClearDirty()

	m.pageTable.Insert(id, f)
	m.replacer.RecordAccess(f)
	m.replacer.SetEvictable(f, false)

	fmt.Printf("[BufferPool] MISS frame=%d pageID=%d — loaded from disk\n", f, id)
	return pg, nil
}

// UnpinPage decrements id's pin count, ORing isDirty into its dirty flag.
// Once the pin count reaches zero the frame becomes an eviction
// candidate. Returns an error if id is not resident.
func (m *Manager) UnpinPage(id page.ID, isDirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.pageTable.Find(id)
	if !ok {
		return fmt.Errorf("bufferpool: page %d not in buffer pool", id)
	}

	pg := m.frames[f]
	wasPinned, reachedZero := pg.Unpin(isDirty)
	if !wasPinned {
		return fmt.Errorf("bufferpool: page %d is not pinned", id)
	}
	if reachedZero {
		m.replacer.SetEvictable(f, true)
	}
	return nil
}

// FlushPage writes id's current contents to disk and clears its dirty
// flag, regardless of pin count. Returns an error if id is not resident.
func (m *Manager) FlushPage(id page.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.pageTable.Find(id)
	if !ok {
		return fmt.Errorf("bufferpool: page %d not in buffer pool", id)
	}

	pg := m.frames[f]
	m.disk.WritePage(id, pg.Data())
	pg.ClearDirty()
	fmt.Printf("[BufferPool] FLUSH frame=%d pageID=%d\n", f, id)
	return nil
}

// FlushAllPages writes every resident page to disk and clears its dirty
// flag, regardless of pin count.
func (m *Manager) FlushAllPages() {
	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Printf("[BufferPool] FlushAllPages — %d frames in use\n", m.poolSize-len(m.freeList))
	for _, pg := range m.frames {
		if pg.ID() == page.InvalidID {
			continue
		}
		m.disk.WritePage(pg.ID(), pg.Data())
		pg.ClearDirty()
	}
}

// DeletePage removes id from the buffer pool and deallocates it on disk.
// Fails if the page is currently pinned. Deleting an absent page is a
// no-op. A dirty resident page is discarded without being flushed.
func (m *Manager) DeletePage(id page.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.pageTable.Find(id)
	if !ok {
		return nil
	}

	pg := m.frames[f]
	if pg.PinCount() > 0 {
		return fmt.Errorf("bufferpool: page %d is pinned, cannot delete", id)
	}

	m.pageTable.Remove(id)
	m.replacer.Remove(f)
	pg.ResetEmpty()
	m.freeList = append(m.freeList, f)
	m.disk.DeallocatePage(id)

	fmt.Printf("[BufferPool] DELETE frame=%d pageID=%d\n", f, id)
	return nil
}
