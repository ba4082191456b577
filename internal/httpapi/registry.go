package httpapi

import (
	"fmt"
	"sync"

	"arheritage/internal/apperr"
)

type entry[T any] struct {
	owner string
	value T
}

// registry keeps at most one live value per owner.
type registry[T any] struct {
	mu      sync.Mutex
	byID    map[string]entry[T]
	current map[string]string
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{
		byID:    make(map[string]entry[T]),
		current: make(map[string]string),
	}
}

// put stores value for owner and returns the value it replaced, if any.
func (r *registry[T]) put(owner, id string, value T) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var prev T
	var replaced bool
	if prevID, ok := r.current[owner]; ok {
		if e, ok := r.byID[prevID]; ok {
			prev, replaced = e.value, true
			delete(r.byID, prevID)
		}
	}
	r.byID[id] = entry[T]{owner: owner, value: value}
	r.current[owner] = id
	return prev, replaced
}

// get returns the value only to its owner.
func (r *registry[T]) get(owner, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok || e.owner != owner {
		var zero T
		return zero, apperr.Wrap(apperr.ErrNotFound, "lookup", "This screen is no longer open.", fmt.Errorf("unknown id %q", id))
	}
	return e.value, nil
}

func (r *registry[T]) remove(owner, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok || e.owner != owner {
		var zero T
		return zero, apperr.Wrap(apperr.ErrNotFound, "lookup", "This screen is no longer open.", fmt.Errorf("unknown id %q", id))
	}
	delete(r.byID, id)
	if r.current[owner] == id {
		delete(r.current, owner)
	}
	return e.value, nil
}

func (r *registry[T]) drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e.value)
	}
	r.byID = make(map[string]entry[T])
	r.current = make(map[string]string)
	return out
}

// takeCurrent removes and returns the owner's live value.
func (r *registry[T]) takeCurrent(owner string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	id, ok := r.current[owner]
	if !ok {
		return zero, false
	}
	delete(r.current, owner)
	e, ok := r.byID[id]
	if !ok {
		return zero, false
	}
	delete(r.byID, id)
	return e.value, true
}
