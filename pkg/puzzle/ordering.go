package puzzle

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// CustomOrdering is a mutable ordering of ids. New ids are appended in
// insertion order.
type CustomOrdering[I constraints.Unsigned] struct {
	indexByID []int
	idByIndex []I
}

// Add appends id to the ordering. Ids must be added in ascending order
// starting from zero.
func (o *CustomOrdering[I]) Add(id I) error {
	if int(id) != len(o.indexByID) {
		return fmt.Errorf("%w: ordering expected id %d, got %d", ErrIndexOutOfRange, len(o.indexByID), id)
	}
	o.indexByID = append(o.indexByID, len(o.idByIndex))
	o.idByIndex = append(o.idByIndex, id)
	return nil
}

// Len returns the number of ids.
func (o *CustomOrdering[I]) Len() int { return len(o.idByIndex) }

// Index returns the position of id.
func (o *CustomOrdering[I]) Index(id I) (int, error) {
	if int(id) >= len(o.indexByID) {
		return 0, fmt.Errorf("%w: id %d", ErrIndexOutOfRange, id)
	}
	return o.indexByID[id], nil
}

// IDFromIndex returns the id at position i.
func (o *CustomOrdering[I]) IDFromIndex(i int) (I, error) {
	if i < 0 || i >= len(o.idByIndex) {
		return 0, fmt.Errorf("%w: index %d", ErrIndexOutOfRange, i)
	}
	return o.idByIndex[i], nil
}

// ShiftTo moves from to the position of to, shifting everything in between.
// Unknown ids are ignored.
func (o *CustomOrdering[I]) ShiftTo(from, to I) {
	i, err := o.Index(from)
	if err != nil {
		return
	}
	j, err := o.Index(to)
	if err != nil {
		return
	}
	for ; i < j; i++ {
		o.swapIndices(i, i+1)
	}
	for ; i > j; i-- {
		o.swapIndices(i, i-1)
	}
}

// Swap exchanges the positions of a and b. Unknown ids are ignored.
func (o *CustomOrdering[I]) Swap(a, b I) {
	i, err := o.Index(a)
	if err != nil {
		return
	}
	j, err := o.Index(b)
	if err != nil {
		return
	}
	o.swapIndices(i, j)
}

func (o *CustomOrdering[I]) swapIndices(i, j int) {
	a, b := o.idByIndex[i], o.idByIndex[j]
	o.indexByID[a], o.indexByID[b] = j, i
	o.idByIndex[i], o.idByIndex[j] = b, a
}

// IDs returns the ids in order. The slice aliases the ordering.
func (o *CustomOrdering[I]) IDs() []I { return o.idByIndex }
