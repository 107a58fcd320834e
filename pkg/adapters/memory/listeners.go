// Package memory provides an in-process host: consent store, interactive
// signal, document attributes, media queries and scroll position. It backs the
// tests and the simulate command.
package memory

import "sync"

// listeners is a set of callbacks with removable handles.
type listeners[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

// snapshot copies the callbacks so they run without the lock held.
func (l *listeners[T]) snapshot() []func(T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]func(T), 0, len(l.fns))
	for i := 0; i < l.next; i++ {
		if fn, ok := l.fns[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (l *listeners[T]) emit(v T) {
	for _, fn := range l.snapshot() {
		fn(v)
	}
}

func (l *listeners[T]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}
