package signature

import "sync/atomic"

// Holder publishes the active catalog. Catalogs are swapped whole, never mutated,
// so a reader keeps a consistent view for as long as it holds the pointer.
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder returns a Holder publishing c.
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

// Catalog returns the active catalog.
func (h *Holder) Catalog() *Catalog {
	return h.current.Load()
}

// Swap replaces the active catalog and returns the previous one.
func (h *Holder) Swap(c *Catalog) *Catalog {
	return h.current.Swap(c)
}
