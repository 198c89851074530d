package state

// Ring holds the most recent values up to a fixed capacity. Adding to a full
// ring overwrites the oldest value.
type Ring[T any] struct {
	data []T
	head int
	size int
}

// NewRing creates a ring with the given capacity. Capacities below 1 are
// raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Add appends v, evicting the oldest value when full.
func (r *Ring[T]) Add(v T) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)

	if r.size < len(r.data) {
		r.size++
	}
}

// Values returns a copy of the contents, oldest first.
func (r *Ring[T]) Values() []T {
	result := make([]T, r.size)
	if r.size == 0 {
		return result
	}

	if r.size < len(r.data) {
		copy(result, r.data[:r.size])
		return result
	}

	// Full: the oldest value sits at head.
	n := copy(result, r.data[r.head:])
	copy(result[n:], r.data[:r.head])
	return result
}

// Len returns the number of values held.
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap returns the capacity.
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// IsFull reports whether the next Add evicts a value.
func (r *Ring[T]) IsFull() bool {
	return r.size == len(r.data)
}

// Clear empties the ring.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.head = 0
	r.size = 0
}
