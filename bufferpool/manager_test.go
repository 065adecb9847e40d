package bufferpool

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"pagebuffer/diskio"
	"pagebuffer/page"
)

func newTestManager(t *testing.T, poolSize, replacerK int) *Manager {
	t.Helper()
	dir := t.TempDir()
	dm, err := diskio.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("diskio.Open: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	return New(poolSize, replacerK, dm)
}

// TestNewPageIsPinnedAndClean mirrors a fresh page's contract: pinned
// once, pin_count=1, is_dirty=false, zeroed data -- it has never been
// written to, so there is nothing to write back if evicted unmodified.
func TestNewPageIsPinnedAndClean(t *testing.T) {
	bp := newTestManager(t, 4, 2)

	pg, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if pg.PinCount() != 1 {
		t.Fatalf("PinCount() = %d; want 1", pg.PinCount())
	}
	if pg.IsDirty() {
		t.Fatalf("IsDirty() = true; want false for a freshly allocated page")
	}
}

// TestWriteUnpinFetchRoundTrips is the basic write-then-read scenario: a
// page's contents survive an unpin/evict/refetch cycle.
func TestWriteUnpinFetchRoundTrips(t *testing.T) {
	bp := newTestManager(t, 2, 2)

	pg, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	id := pg.ID()
	copy(pg.Data(), []byte("hello, page"))

	if err := bp.UnpinPage(id, true); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}

	// Force eviction of id's frame by filling the rest of the pool and
	// allocating more new pages than it can hold.
	for i := 0; i < 4; i++ {
		p, err := bp.NewPage()
		if err != nil {
			t.Fatalf("NewPage (fill) #%d: %v", i, err)
		}
		if err := bp.UnpinPage(p.ID(), false); err != nil {
			t.Fatalf("UnpinPage (fill) #%d: %v", i, err)
		}
	}

	refetched, err := bp.FetchPage(id)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if !bytes.HasPrefix(refetched.Data(), []byte("hello, page")) {
		t.Fatalf("refetched page lost its written contents")
	}
	bp.UnpinPage(id, false)
}

// TestPinnedPagesAreNotEvicted exercises S-style eviction pressure: with
// every frame pinned, NewPage must fail rather than evict.
func TestPinnedPagesAreNotEvicted(t *testing.T) {
	bp := newTestManager(t, 2, 2)

	p1, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage 1: %v", err)
	}
	p2, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage 2: %v", err)
	}
	_ = p1
	_ = p2

	if _, err := bp.NewPage(); err == nil {
		t.Fatalf("NewPage succeeded with every frame pinned; want error")
	}
}

// TestUnpinnedFrameBecomesEvictable checks that once a page's pin count
// reaches zero, the pool can reclaim its frame for a new page.
func TestUnpinnedFrameBecomesEvictable(t *testing.T) {
	bp := newTestManager(t, 1, 2)

	p1, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	// p1 must not be read after it is unpinned: the second NewPage reuses
	// the same frame, and with it the same *page.Page.
	id1 := p1.ID()
	if err := bp.UnpinPage(id1, false); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}

	p2, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage after unpin: %v", err)
	}
	if p2.ID() == id1 {
		t.Fatalf("second page reused the same id")
	}
}

// TestDeletePageFailsWhenPinned checks DeletePage rejects a pinned page
// and succeeds once it is unpinned.
func TestDeletePageFailsWhenPinned(t *testing.T) {
	bp := newTestManager(t, 2, 2)

	pg, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	id := pg.ID() // DeletePage resets pg to InvalidID

	if err := bp.DeletePage(pg.ID()); err == nil {
		t.Fatalf("DeletePage succeeded on a pinned page; want error")
	}

	if err := bp.UnpinPage(pg.ID(), false); err != nil {
		t.Fatalf("UnpinPage: %v", err)
	}
	if err := bp.DeletePage(pg.ID()); err != nil {
		t.Fatalf("DeletePage after unpin: %v", err)
	}

	if _, err := bp.FetchPage(id); err != nil {
		// Deleted page ids reload as a fresh zeroed page from disk,
		// since the disk manager never shrinks under live ids.
		t.Fatalf("FetchPage after delete: %v", err)
	}
}

// TestFlushAllPagesClearsDirtyFlags exercises the bulk-flush path.
func TestFlushAllPagesClearsDirtyFlags(t *testing.T) {
	bp := newTestManager(t, 4, 2)

	var ids []page.ID
	for i := 0; i < 3; i++ {
		pg, err := bp.NewPage()
		if err != nil {
			t.Fatalf("NewPage #%d: %v", i, err)
		}
		ids = append(ids, pg.ID())
		bp.UnpinPage(pg.ID(), true)
	}

	bp.FlushAllPages()

	stats := bp.Stats()
	if stats.DirtyFrames != 0 {
		t.Fatalf("Stats().DirtyFrames = %d after FlushAllPages; want 0", stats.DirtyFrames)
	}
}

// TestConcurrentFetchUnpin exercises the manager's own latch under
// concurrent goroutines fetching and unpinning a shared set of pages.
func TestConcurrentFetchUnpin(t *testing.T) {
	bp := newTestManager(t, 8, 2)

	var ids []page.ID
	for i := 0; i < 8; i++ {
		pg, err := bp.NewPage()
		if err != nil {
			t.Fatalf("NewPage #%d: %v", i, err)
		}
		ids = append(ids, pg.ID())
		bp.UnpinPage(pg.ID(), false)
	}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ids[g%len(ids)]
			for i := 0; i < 50; i++ {
				pg, err := bp.FetchPage(id)
				if err != nil {
					t.Errorf("FetchPage(%d): %v", id, err)
					return
				}
				bp.UnpinPage(pg.ID(), false)
			}
		}()
	}
	wg.Wait()
}

func TestStatsReflectsOccupancy(t *testing.T) {
	bp := newTestManager(t, 4, 2)
	pg, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}

	stats := bp.Stats()
	if stats.PoolSize != 4 || stats.FramesInUse != 1 || stats.PinnedFrames != 1 {
		t.Fatalf("Stats() = %+v; want pool_size=4 frames_in_use=1 pinned=1", stats)
	}
	_ = pg
}

func TestResetFlushesAndEmptiesPool(t *testing.T) {
	bp := newTestManager(t, 4, 2)
	pg, err := bp.NewPage()
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	bp.UnpinPage(pg.ID(), true)

	bp.Reset()

	if bp.Size() != 0 {
		t.Fatalf("Size() after Reset = %d; want 0", bp.Size())
	}
}
