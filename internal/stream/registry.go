package stream

// registry is a slot arena for open streams. Each slot carries a
// generation counter bumped on release, so stale handles are detected
// instead of silently addressing a recycled slot. Not safe for concurrent
// use; the owning manager serializes access.
type registry[T any] struct {
	slots []slot[T]
	free  []uint32
}

type slot[T any] struct {
	generation uint32
	payload    T
	live       bool
}

// add stores a payload and returns its handle. Generations start at 1 so
// the zero Handle is never valid.
func (r *registry[T]) add(payload T) Handle {
	if n := len(r.free); n > 0 {
		index := r.free[n-1]
		r.free = r.free[:n-1]

		s := &r.slots[index]
		s.generation++
		s.payload = payload
		s.live = true
		return Handle{index: index, generation: s.generation}
	}

	r.slots = append(r.slots, slot[T]{generation: 1, payload: payload, live: true})
	return Handle{index: uint32(len(r.slots) - 1), generation: 1}
}

// get returns the payload for a live handle
func (r *registry[T]) get(h Handle) (T, bool) {
	var zero T
	if int(h.index) >= len(r.slots) {
		return zero, false
	}
	s := &r.slots[h.index]
	if !s.live || s.generation != h.generation {
		return zero, false
	}
	return s.payload, true
}

// remove releases the slot and returns its payload. The handle is stale
// afterwards.
func (r *registry[T]) remove(h Handle) (T, bool) {
	var zero T
	if int(h.index) >= len(r.slots) {
		return zero, false
	}
	s := &r.slots[h.index]
	if !s.live || s.generation != h.generation {
		return zero, false
	}

	payload := s.payload
	s.payload = zero
	s.live = false
	r.free = append(r.free, h.index)
	return payload, true
}

// handles returns the handles of all live slots
func (r *registry[T]) handles() []Handle {
	var out []Handle
	for i := range r.slots {
		if r.slots[i].live {
			out = append(out, Handle{index: uint32(i), generation: r.slots[i].generation})
		}
	}
	return out
}

// count returns the number of live slots
func (r *registry[T]) count() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].live {
			n++
		}
	}
	return n
}
