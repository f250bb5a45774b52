package puzzle

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

var (
	// ErrIndexOutOfRange is returned when an id does not refer to an element
	// of a collection.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrIndexOverflow is returned when a collection cannot hold another
	// element because its id type is exhausted.
	ErrIndexOverflow = errors.New("index overflow")
)

// PerID is a dense collection indexed by an id type.
type PerID[I constraints.Unsigned, T any] struct {
	items []T
}

// Push appends v and returns its id.
func (p *PerID[I, T]) Push(v T) (I, error) {
	id := I(len(p.items))
	if uint64(len(p.items)) >= maxOf[I]() {
		return 0, fmt.Errorf("%w: %d elements", ErrIndexOverflow, len(p.items))
	}
	p.items = append(p.items, v)
	return id, nil
}

// maxOf returns the largest value representable by I, less one so that
// sentinels like Internal stay free.
func maxOf[I constraints.Unsigned]() uint64 {
	var zero I
	m := uint64(^zero)
	if m == math.MaxUint64 {
		return m
	}
	return m - 1
}

// Get returns the element with the given id.
func (p *PerID[I, T]) Get(id I) (T, error) {
	if uint64(id) >= uint64(len(p.items)) {
		var zero T
		return zero, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, id, len(p.items))
	}
	return p.items[id], nil
}

// Ptr returns a pointer to the element with the given id. The pointer is
// invalidated by the next Push.
func (p *PerID[I, T]) Ptr(id I) (*T, error) {
	if uint64(id) >= uint64(len(p.items)) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, id, len(p.items))
	}
	return &p.items[id], nil
}

// Set replaces the element with the given id.
func (p *PerID[I, T]) Set(id I, v T) error {
	ptr, err := p.Ptr(id)
	if err != nil {
		return err
	}
	*ptr = v
	return nil
}

// Len returns the number of elements.
func (p *PerID[I, T]) Len() int { return len(p.items) }

// Items returns the elements in id order. The slice aliases the collection.
func (p *PerID[I, T]) Items() []T { return p.items }

// Each calls fn for every element in id order.
func (p *PerID[I, T]) Each(fn func(id I, v T)) {
	for i, v := range p.items {
		fn(I(i), v)
	}
}

// Map builds a new collection by applying fn to every element.
func Map[I constraints.Unsigned, T, U any](p *PerID[I, T], fn func(id I, v T) U) *PerID[I, U] {
	out := &PerID[I, U]{items: make([]U, len(p.items))}
	for i, v := range p.items {
		out.items[i] = fn(I(i), v)
	}
	return out
}
