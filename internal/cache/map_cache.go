package cache

import (
	"sync"
	"time"
)

var _ Cache = (*MapCache)(nil)

// MapCache is a plain map cache for tests. It ignores ttl.
type MapCache struct {
	cache map[string][]byte
	mutex sync.Mutex
}

func NewMapCache() *MapCache {
	return &MapCache{
		cache: make(map[string][]byte),
	}
}

func (mc *MapCache) Get(key string) ([]byte, bool) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	val, ok := mc.cache[key]
	return val, ok
}

func (mc *MapCache) Set(key string, value []byte, _ time.Duration) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	mc.cache[key] = value
	return nil
}

func (mc *MapCache) Del(key string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	delete(mc.cache, key)
}

func (mc *MapCache) Clear() {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	mc.cache = make(map[string][]byte)
}

func (mc *MapCache) Len() int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	return len(mc.cache)
}
