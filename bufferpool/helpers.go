package bufferpool

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"pagebuffer/page"
)

// Stats returns a snapshot of pool occupancy. Not part of the spec's core
// contract; kept as observability/test-support, matching the teacher's
// GetStats.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		PoolSize:   m.poolSize,
		FreeFrames: len(m.freeList),
	}
	for _, pg := range m.frames {
		if pg.ID() == page.InvalidID {
			continue
		}
		s.FramesInUse++
		if pg.PinCount() > 0 {
			s.PinnedFrames++
		}
		if pg.IsDirty() {
			s.DirtyFrames++
		}
	}
	return s
}

// String renders s as a human-readable one-liner, e.g. for the cmd
// driver's "stats" command.
func (s Stats) String() string {
	return fmt.Sprintf(
		"pool=%s frames_in_use=%d free=%d pinned=%d dirty=%d",
		humanize.Comma(int64(s.PoolSize)), s.FramesInUse, s.FreeFrames, s.PinnedFrames, s.DirtyFrames,
	)
}

// Reset flushes every dirty resident page to disk, then empties the pool:
// all frames become free, the page table and replacer are cleared. For
// tests and REPL use; not part of the spec's core contract.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for f, pg := range m.frames {
		if pg.ID() == page.InvalidID {
			continue
		}
		if pg.IsDirty() {
			m.disk.WritePage(pg.ID(), pg.Data())
		}
		m.pageTable.Remove(pg.ID())
		m.replacer.Remove(f)
		pg.ResetEmpty()
	}

	m.freeList = make([]int, m.poolSize)
	for i := range m.freeList {
		m.freeList[i] = m.poolSize - 1 - i
	}
}

// Size returns the number of frames currently holding a resident page.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poolSize - len(m.freeList)
}

// PoolSize returns the fixed number of frames the manager was built with.
func (m *Manager) PoolSize() int {
	return m.poolSize
}
