// Package pbconfig holds the buffer pool daemon's tunables: pool size,
// LRU-K's k, the page size and the backing file path.
package pbconfig

import "pagebuffer/page"

// Config configures a buffer pool manager and its disk manager.
type Config struct {
	PoolSize  int    // number of frames
	ReplacerK int    // LRU-K's k
	PageSize  int    // informational; page.Size is the actual fixed constant
	DBPath    string // backing file path
}

// Default returns a small, workable configuration suitable for local use
// and tests.
func Default() Config {
	return Config{
		PoolSize:  16,
		ReplacerK: 2,
		PageSize:  page.Size,
		DBPath:    "pagebuffer.db",
	}
}
