package cache

import (
	"fmt"
	"time"

	"github.com/coocood/freecache"
)

const megabyte = 1024 * 1024

var _ Cache = (*LocalCache)(nil)

// LocalCache is an in-process cache, evicting entries when sizeMB is exhausted.
type LocalCache struct {
	mainCache *freecache.Cache
}

func NewLocalCache(sizeMB int) (*LocalCache, error) {
	if sizeMB <= 0 {
		return nil, fmt.Errorf("invalid cache size: %d MB", sizeMB)
	}

	return &LocalCache{
		mainCache: freecache.NewCache(sizeMB * megabyte),
	}, nil
}

func (lc *LocalCache) Get(key string) ([]byte, bool) {
	val, err := lc.mainCache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set stores the value; ttl is rounded down to seconds, and anything under a
// second means no expiry.
func (lc *LocalCache) Set(key string, value []byte, ttl time.Duration) error {
	return lc.mainCache.Set([]byte(key), value, int(ttl.Seconds()))
}

func (lc *LocalCache) Del(key string) {
	lc.mainCache.Del([]byte(key))
}

func (lc *LocalCache) Clear() {
	lc.mainCache.Clear()
}
