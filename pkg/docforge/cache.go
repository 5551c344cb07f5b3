package docforge

import (
	"container/list"
	"os"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the template cache
type CacheConfig struct {
	// MaxSize is the maximum number of templates to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached templates. 0 means no expiration.
	TTL time.Duration
}

// TemplateCache keeps loaded cover templates keyed by path. An entry is reloaded when
// the file's size or modification time changes.
type TemplateCache struct {
	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
	now    func() time.Time
}

type cacheEntry struct {
	key     string
	pkg     *docPackage
	size    int64
	modTime time.Time
	expiry  time.Time
	element *list.Element
}

// NewTemplateCache creates a new template cache with the given configuration
func NewTemplateCache(config CacheConfig) *TemplateCache {
	return &TemplateCache{
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
		now:    time.Now,
	}
}

// load returns the template package at path, from cache when still valid. The
// returned package is a clone the caller may edit.
func (tc *TemplateCache) load(path string) (*docPackage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, NewTemplateLoadError(path, err)
	}

	if tc != nil && tc.config.MaxSize > 0 {
		if pkg, ok := tc.get(path, info); ok {
			return pkg.clone(), nil
		}
	}

	dr, err := DocxReaderFromFile(path)
	if err != nil {
		return nil, NewTemplateLoadError(path, err)
	}
	pkg, err := loadPackage(dr)
	if err != nil {
		return nil, NewTemplateLoadError(path, err)
	}

	if tc != nil && tc.config.MaxSize > 0 {
		tc.set(path, pkg, info)
	}
	return pkg.clone(), nil
}

func (tc *TemplateCache) get(key string, info os.FileInfo) (*docPackage, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	entry, exists := tc.cache[key]
	if !exists {
		return nil, false
	}

	stale := entry.size != info.Size() || !entry.modTime.Equal(info.ModTime())
	expired := tc.config.TTL > 0 && tc.now().After(entry.expiry)
	if stale || expired {
		tc.removeLocked(entry)
		return nil, false
	}

	tc.lru.MoveToFront(entry.element)
	return entry.pkg, true
}

func (tc *TemplateCache) set(key string, pkg *docPackage, info os.FileInfo) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if old, ok := tc.cache[key]; ok {
		tc.removeLocked(old)
	}

	// Evict least recently used
	for tc.lru.Len() >= tc.config.MaxSize {
		oldest := tc.lru.Back()
		if oldest == nil {
			break
		}
		tc.removeLocked(oldest.Value.(*cacheEntry))
	}

	entry := &cacheEntry{key: key, pkg: pkg, size: info.Size(), modTime: info.ModTime()}
	if tc.config.TTL > 0 {
		entry.expiry = tc.now().Add(tc.config.TTL)
	}
	entry.element = tc.lru.PushFront(entry)
	tc.cache[key] = entry
}

func (tc *TemplateCache) removeLocked(entry *cacheEntry) {
	tc.lru.Remove(entry.element)
	delete(tc.cache, entry.key)
}

// Remove drops a template from the cache
func (tc *TemplateCache) Remove(key string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if entry, ok := tc.cache[key]; ok {
		tc.removeLocked(entry)
	}
}

// Clear removes all cached templates
func (tc *TemplateCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.cache = make(map[string]*cacheEntry)
	tc.lru.Init()
}

// Size returns the number of cached templates
func (tc *TemplateCache) Size() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.lru.Len()
}
