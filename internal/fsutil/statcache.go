package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultStatCacheSize bounds the number of remembered paths.
const DefaultStatCacheSize = 4096

// FileStat is the part of os.FileInfo the staleness checks need.
type FileStat struct {
	ModTime time.Time
	Exists  bool
}

// StatCache memoizes file modification times for the duration of a run.
// Entries for files a compiler writes must be dropped with Invalidate.
type StatCache struct {
	cache *lru.Cache[string, FileStat]
}

// NewStatCache creates a cache holding at most size entries.
func NewStatCache(size int) (*StatCache, error) {
	if size <= 0 {
		size = DefaultStatCacheSize
	}
	cache, err := lru.New[string, FileStat](size)
	if err != nil {
		return nil, err
	}
	return &StatCache{cache: cache}, nil
}

// Stat returns the cached stat of path, reading it from disk on a miss.
// A missing file yields Exists == false and no error.
func (c *StatCache) Stat(path string) (FileStat, error) {
	if st, ok := c.cache.Get(path); ok {
		return st, nil
	}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		st := FileStat{ModTime: info.ModTime(), Exists: true}
		c.cache.Add(path, st)
		return st, nil
	case errors.Is(err, fs.ErrNotExist):
		st := FileStat{}
		c.cache.Add(path, st)
		return st, nil
	default:
		return FileStat{}, err
	}
}

// Invalidate forgets the given paths.
func (c *StatCache) Invalidate(paths ...string) {
	for _, p := range paths {
		c.cache.Remove(p)
	}
}

// Purge forgets everything.
func (c *StatCache) Purge() {
	c.cache.Purge()
}
