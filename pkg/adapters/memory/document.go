package memory

import (
	"maps"
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// Document is an in-memory core.AttributeStore that counts every write.
type Document struct {
	mu        sync.RWMutex
	attrs     map[string]string
	mutations int
}

// NewDocument returns a document seeded with server-rendered attributes.
func NewDocument(initial map[string]string) *Document {
	attrs := make(map[string]string, len(initial))
	maps.Copy(attrs, initial)
	return &Document{attrs: attrs}
}

// Attribute implements core.AttributeStore.
func (d *Document) Attribute(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.attrs[name]
	return v, ok
}

// SetAttribute implements core.AttributeStore.
func (d *Document) SetAttribute(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attrs[name] = value
	d.mutations++
}

// RemoveAttribute implements core.AttributeStore.
func (d *Document) RemoveAttribute(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.attrs, name)
	d.mutations++
}

// Mutations returns how many writes the document has received.
func (d *Document) Mutations() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mutations
}

// Attributes returns a copy of the attribute set.
func (d *Document) Attributes() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.attrs)
}

var _ core.AttributeStore = (*Document)(nil)
