package diskio

import (
	"bytes"
	"path/filepath"
	"testing"

	"pagebuffer/page"
)

func openTestDisk(t *testing.T) *DiskManager {
	t.Helper()
	dir := t.TempDir()
	dm, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	return dm
}

func TestAllocatePageMonotonicFromZero(t *testing.T) {
	dm := openTestDisk(t)

	for i := 0; i < 5; i++ {
		id := dm.AllocatePage()
		if id != page.ID(i) {
			t.Fatalf("AllocatePage() #%d = %d; want %d", i, id, i)
		}
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	dm := openTestDisk(t)
	id := dm.AllocatePage()

	want := make([]byte, page.Size)
	for i := range want {
		want[i] = byte(i % 251)
	}
	dm.WritePage(id, want)

	got := make([]byte, page.Size)
	dm.ReadPage(id, got)
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadPage did not round-trip WritePage's contents")
	}
}

func TestReadUnwrittenPageIsZeroed(t *testing.T) {
	dm := openTestDisk(t)
	id := dm.AllocatePage()

	buf := make([]byte, page.Size)
	for i := range buf {
		buf[i] = 0xAA
	}
	dm.ReadPage(id, buf)

	for i, b := range buf {
		if b != 0 {
			t.Fatalf("ReadPage(unwritten)[%d] = %#x; want 0", i, b)
			break
		}
	}
}

func TestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	dm1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := dm1.AllocatePage()
	buf := bytes.Repeat([]byte{0x7F}, page.Size)
	dm1.WritePage(id, buf)
	if err := dm1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dm2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer dm2.Close()

	if next := dm2.AllocatePage(); next != id+1 {
		t.Fatalf("AllocatePage after reopen = %d; want %d", next, id+1)
	}

	got := make([]byte, page.Size)
	dm2.ReadPage(id, got)
	if !bytes.Equal(got, buf) {
		t.Fatalf("page contents did not survive reopen")
	}
}

func TestDeallocatePageDoesNotPanic(t *testing.T) {
	dm := openTestDisk(t)
	id := dm.AllocatePage()
	dm.WritePage(id, make([]byte, page.Size))
	dm.DeallocatePage(id)
}
