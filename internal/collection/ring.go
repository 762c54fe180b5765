package collection

// Handle references an element stored in a Ring.
// A handle becomes stale once its element is removed; stale handles are rejected.
type Handle struct {
	// index is the arena slot holding the element.
	index int
	// generation must match the slot generation for the handle to be valid.
	generation uint32
}

// slot is one arena cell. Free cells keep their generation so stale handles can be detected.
type slot[T any] struct {
	value      T
	next       int
	prev       int
	generation uint32
	used       bool
}

// Ring is a cyclic doubly linked sequence with a single anchor.
// The zero value is an empty ring ready to use. Ring is not safe for concurrent use.
type Ring[T any] struct {
	slots []slot[T]
	free  []int
	// head is the anchor slot, meaningless while size is zero.
	head int
	size int
}

// New returns an empty ring.
func New[T any]() *Ring[T] {
	return new(Ring[T])
}

// Len returns the number of elements.
func (r *Ring[T]) Len() int {
	return r.size
}

// InsertBack places value right before the anchor, so forward traversal sees it last.
func (r *Ring[T]) InsertBack(value T) Handle {
	i := r.alloc(value)

	if r.size == 0 {
		r.slots[i].next = i
		r.slots[i].prev = i
		r.head = i
	} else {
		tail := r.slots[r.head].prev
		r.slots[tail].next = i
		r.slots[i].prev = tail
		r.slots[i].next = r.head
		r.slots[r.head].prev = i
	}

	r.size++

	return Handle{index: i, generation: r.slots[i].generation}
}

// InsertFront places value before the anchor and makes it the new anchor.
func (r *Ring[T]) InsertFront(value T) Handle {
	h := r.InsertBack(value)
	r.head = h.index

	return h
}

// RemoveWhere removes the first element, in forward order from the anchor,
// for which match returns true. It reports whether an element was removed.
func (r *Ring[T]) RemoveWhere(match func(T) bool) bool {
	if r.size == 0 {
		return false
	}

	i := r.head
	for {
		if match(r.slots[i].value) {
			r.unlink(i)
			return true
		}

		i = r.slots[i].next
		if i == r.head {
			return false
		}
	}
}

// Remove deletes the element referenced by h. It reports false for stale handles.
func (r *Ring[T]) Remove(h Handle) bool {
	if !r.valid(h) {
		return false
	}

	r.unlink(h.index)

	return true
}

// Get returns the element referenced by h.
func (r *Ring[T]) Get(h Handle) (T, bool) {
	if !r.valid(h) {
		var zero T
		return zero, false
	}

	return r.slots[h.index].value, true
}

// Set replaces the element referenced by h in place, keeping its position.
func (r *Ring[T]) Set(h Handle, value T) bool {
	if !r.valid(h) {
		return false
	}

	r.slots[h.index].value = value

	return true
}

// Find returns the first element, in forward order from the anchor, matching the predicate.
func (r *Ring[T]) Find(match func(T) bool) (T, Handle, bool) {
	var found T

	if r.size == 0 {
		return found, Handle{}, false
	}

	i := r.head
	for {
		if match(r.slots[i].value) {
			return r.slots[i].value, Handle{index: i, generation: r.slots[i].generation}, true
		}

		i = r.slots[i].next
		if i == r.head {
			return found, Handle{}, false
		}
	}
}

// Each calls fn for every element starting at the anchor until fn returns false.
// fn must not modify the ring.
func (r *Ring[T]) Each(fn func(T) bool) {
	if r.size == 0 {
		return
	}

	i := r.head
	for {
		if !fn(r.slots[i].value) {
			return
		}

		i = r.slots[i].next
		if i == r.head {
			return
		}
	}
}

// ToSlice returns a fresh snapshot of all elements starting at the anchor.
func (r *Ring[T]) ToSlice() []T {
	result := make([]T, 0, r.size)

	r.Each(func(value T) bool {
		result = append(result, value)
		return true
	})

	return result
}

// RemoveItem removes the first element equal to item.
func RemoveItem[T comparable](r *Ring[T], item T) bool {
	return r.RemoveWhere(func(value T) bool {
		return value == item
	})
}

func (r *Ring[T]) valid(h Handle) bool {
	if h.index < 0 || h.index >= len(r.slots) {
		return false
	}

	s := &r.slots[h.index]

	return s.used && s.generation == h.generation
}

// alloc stores value in a free slot, growing the arena when none is left.
func (r *Ring[T]) alloc(value T) int {
	if n := len(r.free); n > 0 {
		i := r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[i].value = value
		r.slots[i].used = true

		return i
	}

	// Generations start at 1 so the zero Handle never matches a live slot.
	r.slots = append(r.slots, slot[T]{value: value, generation: 1, used: true})

	return len(r.slots) - 1
}

// unlink detaches slot i from the cycle and returns it to the free list.
func (r *Ring[T]) unlink(i int) {
	if r.size == 1 {
		r.head = 0
	} else {
		prev, next := r.slots[i].prev, r.slots[i].next
		r.slots[prev].next = next
		r.slots[next].prev = prev

		if r.head == i {
			r.head = next
		}
	}

	r.size--

	var zero T

	r.slots[i] = slot[T]{value: zero, generation: r.slots[i].generation + 1}
	r.free = append(r.free, i)
}
