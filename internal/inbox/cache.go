package inbox

import (
	"github.com/Digigit24/celiyo-new-sub001/internal/identity"
	"github.com/Digigit24/celiyo-new-sub001/internal/timeline"
	"github.com/elliotchance/orderedmap/v3"
)

// entry is a store registered with the router.
type entry struct {
	id         identity.ID
	store      *timeline.Store
	unregister func()
}

func (e *entry) close() {
	e.unregister()
	e.store.Deactivate()
}

// lru holds deselected stores, oldest first. Cached stores stay registered
// so they keep receiving live events.
type lru struct {
	size    int
	entries *orderedmap.OrderedMap[identity.ID, *entry]
}

func newLRU(size int) *lru {
	return &lru{
		size:    size,
		entries: orderedmap.NewOrderedMap[identity.ID, *entry](),
	}
}

// take removes and returns the entry for id.
func (c *lru) take(id identity.ID) (*entry, bool) {
	e, ok := c.entries.Get(id)
	if ok {
		c.entries.Delete(id)
	}
	return e, ok
}

// put stores e as the most recent entry and returns the entries pushed out.
func (c *lru) put(e *entry) []*entry {
	if c.size <= 0 {
		return []*entry{e}
	}
	c.entries.Delete(e.id)
	c.entries.Set(e.id, e)

	var evicted []*entry
	for c.entries.Len() > c.size {
		oldest := c.entries.Front()
		c.entries.Delete(oldest.Key)
		evicted = append(evicted, oldest.Value)
	}
	return evicted
}

func (c *lru) len() int {
	return c.entries.Len()
}

// drain empties the cache and returns everything it held.
func (c *lru) drain() []*entry {
	var out []*entry
	for el := c.entries.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	c.entries = orderedmap.NewOrderedMap[identity.ID, *entry]()
	return out
}
