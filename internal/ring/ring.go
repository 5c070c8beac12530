// Package ring implements a fixed-capacity circular buffer, the storage
// primitive every pipeline block is built on. It supports head-pop,
// tail-push, indexed access, bulk transfer of a contiguous prefix to
// another buffer of the same element type, and physical re-linearization
// ("rotate").
//
// A buffer is linear when its live region starts at physical index 0
// (head == 0) and rotated otherwise. Bulk transfers require a linear
// source and a linear destination because they are implemented as
// contiguous slice copies; Rotate is the explicit, possibly-allocating
// operation that restores linearity, and is meant to be amortized across
// adaptation events rather than paid on every push/pop.
package ring

import "github.com/nkeren/pipelinecache/internal/assertx"

// Buffer is a fixed-capacity circular sequence of T.
type Buffer[T any] struct {
	data       []T
	head, tail int
	size       int
}

// New allocates a buffer with a fixed capacity that never changes.
func New[T any](capacity int) *Buffer[T] {
	assertx.Require(capacity > 0, "ring: capacity must be positive, got %d", capacity)
	return &Buffer[T]{data: make([]T, capacity)}
}

// Cap returns the buffer's fixed physical capacity.
func (b *Buffer[T]) Cap() int { return len(b.data) }

// Len returns the number of live elements.
func (b *Buffer[T]) Len() int { return b.size }

// IsEmpty reports whether the buffer holds no elements.
func (b *Buffer[T]) IsEmpty() bool { return b.size == 0 }

// IsFull reports whether the buffer is at capacity.
func (b *Buffer[T]) IsFull() bool { return b.size == len(b.data) }

// IsRotated reports whether the live region starts somewhere other than
// index 0. A rotated buffer must be linearized (Rotate) before it can
// take part in a bulk transfer (PartialMoveTo), as source or destination.
// Clone copies a rotated buffer as it is.
func (b *Buffer[T]) IsRotated() bool { return b.head != 0 }

// PushTail appends v at the tail. Requires Len() < Cap().
func (b *Buffer[T]) PushTail(v T) {
	assertx.Require(!b.IsFull(), "ring: push_tail on a full buffer")
	b.data[b.tail] = v
	b.tail = b.wrap(b.tail + 1)
	b.size++
}

// PopHead removes and returns the head element. Requires Len() > 0.
func (b *Buffer[T]) PopHead() T {
	assertx.Require(!b.IsEmpty(), "ring: pop_head on an empty buffer")
	v := b.data[b.head]
	var zero T
	b.data[b.head] = zero
	b.head = b.wrap(b.head + 1)
	b.size--
	return v
}

// At returns the element at logical index i (0 is the current head).
func (b *Buffer[T]) At(i int) T {
	assertx.Require(i < b.size, "ring: index %d out of range (size %d)", i, b.size)
	return b.data[b.physical(i)]
}

// Replace overwrites the element at logical index i and returns the
// previous value.
func (b *Buffer[T]) Replace(i int, v T) T {
	assertx.Require(i < b.size, "ring: index %d out of range (size %d)", i, b.size)
	p := b.physical(i)
	old := b.data[p]
	b.data[p] = v
	return old
}

// PartialMoveTo moves the first n logical elements out of b into the tail
// of dst, then rotates b. Both b and dst must be linear (Rotate'd)
// beforehand, and dst must have room for n more elements. This is the
// primitive behind a block's quantum transfer.
func (b *Buffer[T]) PartialMoveTo(dst *Buffer[T], n int) {
	if b.IsEmpty() {
		return
	}
	assertx.Require(n <= b.size, "ring: cannot move %d elements out of %d", n, b.size)
	assertx.Require(!b.IsRotated(), "ring: partial_move_to requires a linear source; call Rotate first")
	assertx.Require(!dst.IsRotated(), "ring: partial_move_to requires a linear destination; call Rotate first")
	assertx.Require(dst.size+n <= len(dst.data), "ring: destination has no room for %d more elements", n)

	copy(dst.data[dst.size:dst.size+n], b.data[:n])
	dst.size += n
	dst.tail = dst.wrap(dst.tail + n)

	b.head += n
	b.size -= n
	b.Rotate()
}

// Rotate physically re-linearizes the buffer so that head == 0. A no-op
// if the buffer is already linear.
func (b *Buffer[T]) Rotate() {
	if !b.IsRotated() {
		return
	}
	out := make([]T, len(b.data))
	for i := 0; i < b.size; i++ {
		out[i] = b.data[b.physical(i)]
	}
	b.data = out
	b.head = 0
	b.tail = b.size
}

// Clone returns a deep copy: an independent buffer with the same logical
// contents, capacity, and rotation state. Used to reseed ghost caches from
// the sampled baseline without aliasing storage.
func (b *Buffer[T]) Clone() *Buffer[T] {
	data := make([]T, len(b.data))
	copy(data, b.data)
	return &Buffer[T]{data: data, head: b.head, tail: b.tail, size: b.size}
}

// Clear empties the buffer without shrinking its storage.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.data {
		b.data[i] = zero
	}
	b.head, b.tail, b.size = 0, 0, 0
}

func (b *Buffer[T]) wrap(i int) int {
	if c := len(b.data); i >= c {
		return i - c
	}
	return i
}

func (b *Buffer[T]) physical(i int) int { return b.wrap(b.head + i) }
