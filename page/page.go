// Package page defines the in-memory representation of a disk page: the
// fixed-size byte buffer the buffer pool hands out to callers, plus the
// pin/dirty bookkeeping the buffer pool manager mutates under its own
// latch during Fetch/New/Unpin/Flush/Delete.
package page

import "sync"

// Size is the fixed size of every page, in bytes. 4 KiB matches the
// typical OS page size, the same constant the teacher pins independently
// in its page, b+tree and index-pager layers.
const Size = 4096

// ID identifies a page. InvalidID denotes an empty frame or the absence
// of a page.
type ID int64

// InvalidID is the sentinel page id used for empty slots.
const InvalidID ID = -1

// Page is an in-memory copy of a disk page. Callers must hold a pin
// (obtained via the buffer pool's NewPage/FetchPage) before reading or
// writing Data, and must not retain Data past the matching UnpinPage.
//
// The mutex here latches this page's own fields; it is independent of
// the buffer pool manager's latch, which additionally serializes frame
// replacement and page-table/replacer bookkeeping.
type Page struct {
	mu       sync.RWMutex
	id       ID
	data     []byte
	pinCount int32
	isDirty  bool
}

// New allocates a zeroed, unpinned page with the given id.
func New(id ID) *Page {
	return &Page{
		id:   id,
		data: make([]byte, Size),
	}
}

func (p *Page) Lock()    { p.mu.Lock() }
func (p *Page) Unlock()  { p.mu.Unlock() }
func (p *Page) RLock()   { p.mu.RLock() }
func (p *Page) RUnlock() { p.mu.RUnlock() }

// ID returns the page's current id.
func (p *Page) ID() ID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

// Data returns the page's backing buffer. The slice is shared with the
// page; callers must hold a pin for as long as they read or write it.
func (p *Page) Data() []byte { return p.data }

// PinCount returns the current pin count.
func (p *Page) PinCount() int32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pinCount
}

// IsDirty reports whether the page differs from its on-disk copy.
func (p *Page) IsDirty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isDirty
}

// Pin increments the pin count.
func (p *Page) Pin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pinCount++
}

// Unpin decrements the pin count if it is positive, ORing isDirty into the
// dirty flag (never clearing it). Reports whether the page was pinned to
// begin with, and whether the pin count just reached zero.
func (p *Page) Unpin(isDirty bool) (wasPinned bool, reachedZero bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pinCount == 0 {
		return false, false
	}
	p.pinCount--
	if isDirty {
		p.isDirty = true
	}
	return true, p.pinCount == 0
}

// ClearDirty clears the dirty flag. The buffer pool calls it after a flush
// and after loading a page from disk.
func (p *Page) ClearDirty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isDirty = false
}

// ResetForReuse reinitializes the page as a fresh copy of id: zeroed data,
// pin count 1, not dirty. Used by the buffer pool manager when it installs
// a newly allocated or newly fetched page into a frame.
func (p *Page) ResetForReuse(id ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = id
	p.pinCount = 1
	p.isDirty = false
	clear(p.data)
}

// ResetEmpty returns the page to its empty-slot state: InvalidID, pin
// count 0, not dirty, zeroed data. Used by DeletePage when a frame is
// returned to the free list.
func (p *Page) ResetEmpty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = InvalidID
	p.pinCount = 0
	p.isDirty = false
	clear(p.data)
}
