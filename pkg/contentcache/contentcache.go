// Package contentcache is the bounded in-memory side of the chapter
// content store. It remembers, per chapter id, either a materialized
// paragraph list or the fact that the backing store has no record for
// that chapter. Both states count as cached; only a true miss should
// send a caller to the backing store.
package contentcache

import (
	"container/list"
	"sync"

	"github.com/aviriel/tsundoku/pkg/types"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 100

// Lookup is the outcome of a cache query.
type Lookup int

const (
	// Miss means the chapter was never cached, or was evicted.
	Miss Lookup = iota
	// Hit means a paragraph list is cached for the chapter.
	Hit
	// HitAbsent means the backing store was already asked and had no
	// record; callers should treat the chapter as absent without a
	// round trip.
	HitAbsent
)

type entry struct {
	chapterID  string
	paragraphs []types.Paragraph
	absent     bool
}

// Cache is an LRU map from chapter id to cached content. Get and Put both
// move the touched entry to the most-recent end; overflow evicts the
// oldest fifth of the entries in one sweep. All methods are safe for
// concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = least recent, back = most recent
	entries  map[string]*list.Element
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get looks up a chapter and, on Hit or HitAbsent, marks it most recently
// used. The returned slice is the cached one; callers that mutate it are
// expected to save through the content store, which re-fingerprints.
func (c *Cache) Get(chapterID string) ([]types.Paragraph, Lookup) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[chapterID]
	if !ok {
		return nil, Miss
	}
	c.order.MoveToBack(elem)

	ent := elem.Value.(*entry)
	if ent.absent {
		return nil, HitAbsent
	}
	return ent.paragraphs, Hit
}

// Put caches a paragraph list for the chapter as most recently used,
// replacing any previous entry.
func (c *Cache) Put(chapterID string, paragraphs []types.Paragraph) {
	c.insert(&entry{chapterID: chapterID, paragraphs: paragraphs})
}

// PutAbsent caches the fact that the backing store has no record for the
// chapter.
func (c *Cache) PutAbsent(chapterID string) {
	c.insert(&entry{chapterID: chapterID, absent: true})
}

func (c *Cache) insert(ent *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[ent.chapterID]; ok {
		elem.Value = ent
		c.order.MoveToBack(elem)
		return
	}

	c.entries[ent.chapterID] = c.order.PushBack(ent)
	if len(c.entries) > c.capacity {
		c.evictOldest()
	}
}

// evictOldest drops the least recently used fifth of the cache. Eviction
// is purely memory pressure; the backing store is never touched.
func (c *Cache) evictOldest() {
	count := c.capacity / 5
	if count < 1 {
		count = 1
	}
	for i := 0; i < count; i++ {
		front := c.order.Front()
		if front == nil {
			return
		}
		c.order.Remove(front)
		delete(c.entries, front.Value.(*entry).chapterID)
	}
}

// Invalidate removes a single entry regardless of recency.
func (c *Cache) Invalidate(chapterID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[chapterID]; ok {
		c.order.Remove(elem)
		delete(c.entries, chapterID)
	}
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element, c.capacity)
}

// Len returns the number of cached entries, absent markers included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
