package equipment

import (
	"context"
	"sort"
	"sync"
)

// MemoryCatalog serves equipment from process memory. Put is the only writer.
type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[int64]Equipment
}

func NewMemoryCatalog(items ...Equipment) *MemoryCatalog {
	c := &MemoryCatalog{items: make(map[int64]Equipment)}
	for _, e := range items {
		c.Put(e)
	}
	return c
}

func (c *MemoryCatalog) Put(e Equipment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[e.ID] = e
}

func (c *MemoryCatalog) GetByID(_ context.Context, id int64) (*Equipment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[id]
	if !ok {
		return nil, ErrEquipmentNotFound
	}
	return &e, nil
}

func (c *MemoryCatalog) ListByOwner(_ context.Context, ownerID int64) ([]Equipment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Equipment
	for _, e := range c.items {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
