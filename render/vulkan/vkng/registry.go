package vkng

import "sync"

// registry maps driver handles to vkngwrapper objects. vkngwrapper handles
// are structs, the driver seam passes integers, so every object the backend
// hands out gets a slot here until it is destroyed. Handle zero is never
// issued.
type registry[T any] struct {
	mu    sync.Mutex
	next  uint64
	items map[uint64]T
}

func (r *registry[T]) add(v T) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = map[uint64]T{}
	}
	r.next++
	r.items[r.next] = v
	return r.next
}

func (r *registry[T]) get(h uint64) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[h]
	return v, ok
}

// must is get for handles the renderer is known to hold. An unknown handle
// yields the zero value, which vkngwrapper treats as a null handle.
func (r *registry[T]) must(h uint64) T {
	v, _ := r.get(h)
	return v
}

// remove forgets h and returns what it pointed at.
func (r *registry[T]) remove(h uint64) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[h]
	delete(r.items, h)
	return v, ok
}

func (r *registry[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// all returns the values for hs in order, skipping unknown handles.
func all[T any, H ~uint64](r *registry[T], hs []H) []T {
	out := make([]T, 0, len(hs))
	for _, h := range hs {
		if v, ok := r.get(uint64(h)); ok {
			out = append(out, v)
		}
	}
	return out
}
