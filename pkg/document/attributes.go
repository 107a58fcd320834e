// Package document reconciles document-level attributes from the server guess
// to the client-computed value. Every attribute has a single writer.
package document

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/aretw0/islands/pkg/core"
)

// Attributes under coordinator control.
const (
	AttrLang             = "lang"
	AttrDir              = "dir"
	AttrTheme            = "data-theme"
	AttrMastheadScrolled = "data-masthead-scrolled"
)

var (
	// ErrAttributeOwned is returned when claiming an attribute another owner holds.
	ErrAttributeOwned = errors.New("attribute owned by another writer")
	// ErrNotOwned is returned when an owner writes an attribute it did not claim.
	ErrNotOwned = errors.New("attribute not claimed by this writer")
)

// Attributes guards a core.AttributeStore with single-writer ownership.
type Attributes struct {
	store core.AttributeStore

	mu     sync.Mutex
	owners map[string]*Owner
}

// NewAttributes wraps store in a private registry. Writers that must exclude
// each other across components use Shared instead.
func NewAttributes(store core.AttributeStore) *Attributes {
	return &Attributes{store: store, owners: make(map[string]*Owner)}
}

var shared = struct {
	sync.Mutex
	byStore map[core.AttributeStore]*Attributes
}{byStore: make(map[core.AttributeStore]*Attributes)}

// Shared returns the registry for store, the same one for every caller, so
// ownership holds for everyone writing to that document. The store must be
// comparable, typically a pointer.
func Shared(store core.AttributeStore) (*Attributes, error) {
	if store == nil {
		return nil, fmt.Errorf("shared attributes: nil store")
	}
	if !reflect.TypeOf(store).Comparable() {
		return nil, fmt.Errorf("shared attributes: store %T is not comparable", store)
	}
	shared.Lock()
	defer shared.Unlock()
	a, ok := shared.byStore[store]
	if !ok {
		a = NewAttributes(store)
		shared.byStore[store] = a
	}
	return a, nil
}

// Claim gives owner exclusive write access to names. Nothing is claimed if
// any name is already held, even by a writer of the same name.
func (a *Attributes) Claim(owner string, names ...string) (*Owner, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range names {
		if holder, ok := a.owners[n]; ok {
			return nil, fmt.Errorf("%w: %s held by %s", ErrAttributeOwned, n, holder.name)
		}
	}
	o := &Owner{name: owner, attrs: a, names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		a.owners[n] = o
		o.names[n] = struct{}{}
	}
	return o, nil
}

// Owner returns the current writer of name, if any.
func (a *Attributes) Owner(name string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.owners[name]
	if !ok {
		return "", false
	}
	return o.name, true
}

// Get reads an attribute. Reads are open to everyone.
func (a *Attributes) Get(name string) (string, bool) {
	return a.store.Attribute(name)
}

func (a *Attributes) release(o *Owner) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for n := range o.names {
		if a.owners[n] == o {
			delete(a.owners, n)
		}
	}
}

// Owner is a write handle for a set of claimed attributes. It stops working
// once released.
type Owner struct {
	name  string
	attrs *Attributes
	names map[string]struct{}
}

// Name returns the owner's name.
func (o *Owner) Name() string { return o.name }

// write runs fn while o holds name. Caller must not hold attrs.mu.
func (o *Owner) write(name string, fn func(core.AttributeStore) bool) (bool, error) {
	o.attrs.mu.Lock()
	defer o.attrs.mu.Unlock()
	if o.attrs.owners[name] != o {
		return false, fmt.Errorf("%w: %s by %s", ErrNotOwned, name, o.name)
	}
	return fn(o.attrs.store), nil
}

// Set writes name=value, skipping the write when the value is already applied.
// It reports whether the document was mutated.
func (o *Owner) Set(name, value string) (bool, error) {
	return o.write(name, func(store core.AttributeStore) bool {
		if cur, ok := store.Attribute(name); ok && cur == value {
			return false
		}
		store.SetAttribute(name, value)
		return true
	})
}

// Remove deletes name if present. It reports whether the document was mutated.
func (o *Owner) Remove(name string) (bool, error) {
	return o.write(name, func(store core.AttributeStore) bool {
		if _, ok := store.Attribute(name); !ok {
			return false
		}
		store.RemoveAttribute(name)
		return true
	})
}

// Release gives the claimed attributes back. Later writes fail with ErrNotOwned.
func (o *Owner) Release() {
	o.attrs.release(o)
}
