package approx

import (
	"encoding/binary"
	"math"

	"github.com/google/btree"
)

// Key is implemented by anything that can be stored in a HashMap. The floats
// appended must fully describe the key; two keys whose floats are pairwise
// within Epsilon are considered the same key.
type Key interface {
	AppendFloats(dst []float64) []float64
}

type internedFloat struct {
	value float64
	id    uint32
}

// floatInterner assigns an id to each distinct float, reusing the id of an
// existing float within Epsilon.
type floatInterner struct {
	tree *btree.BTreeG[internedFloat]
}

func newFloatInterner() *floatInterner {
	return &floatInterner{
		tree: btree.NewG(8, func(a, b internedFloat) bool { return a.value < b.value }),
	}
}

func (fi *floatInterner) intern(x float64) uint32 {
	if x == 0 {
		x = 0 // fold -0
	}
	var (
		found bool
		id    uint32
	)
	fi.tree.AscendGreaterOrEqual(internedFloat{value: x - Epsilon}, func(f internedFloat) bool {
		if f.value <= x+Epsilon {
			found = true
			id = f.id
		}
		return false
	})
	if found {
		return id
	}
	id = uint32(fi.tree.Len())
	fi.tree.ReplaceOrInsert(internedFloat{value: x, id: id})
	return id
}

// lookup returns the id for x without interning it.
func (fi *floatInterner) lookup(x float64) (uint32, bool) {
	var (
		found bool
		id    uint32
	)
	fi.tree.AscendGreaterOrEqual(internedFloat{value: x - Epsilon}, func(f internedFloat) bool {
		if f.value <= x+Epsilon {
			found = true
			id = f.id
		}
		return false
	})
	return id, found
}

// HashMap maps approximately-equal keys to the same value. It is not safe
// for concurrent use.
type HashMap[K Key, V any] struct {
	floats *floatInterner
	inner  map[string]entry[K, V]
	// keys in insertion order
	order []string
	buf   []float64
}

type entry[K Key, V any] struct {
	key   K
	value V
}

// NewHashMap returns an empty map.
func NewHashMap[K Key, V any]() *HashMap[K, V] {
	return &HashMap[K, V]{
		floats: newFloatInterner(),
		inner:  make(map[string]entry[K, V]),
	}
}

func (m *HashMap[K, V]) hashKey(k K, insert bool) (string, bool) {
	m.buf = k.AppendFloats(m.buf[:0])
	out := make([]byte, 0, len(m.buf)*2+2)
	out = binary.AppendUvarint(out, uint64(len(m.buf)))
	for _, x := range m.buf {
		if math.IsNaN(x) {
			return "", false
		}
		var id uint32
		if insert {
			id = m.floats.intern(x)
		} else {
			var ok bool
			id, ok = m.floats.lookup(x)
			if !ok {
				return "", false
			}
		}
		out = binary.AppendUvarint(out, uint64(id))
	}
	return string(out), true
}

// Get returns the value stored for a key approximately equal to k.
func (m *HashMap[K, V]) Get(k K) (V, bool) {
	h, ok := m.hashKey(k, false)
	if !ok {
		var zero V
		return zero, false
	}
	e, ok := m.inner[h]
	return e.value, ok
}

// Insert stores v under k and returns the previous value, if any. A key
// containing NaN is not stored and returns ErrNaN.
func (m *HashMap[K, V]) Insert(k K, v V) (V, bool, error) {
	h, ok := m.hashKey(k, true)
	if !ok {
		var zero V
		return zero, false, ErrNaN
	}
	old, existed := m.inner[h]
	if !existed {
		m.order = append(m.order, h)
	}
	m.inner[h] = entry[K, V]{key: k, value: v}
	return old.value, existed, nil
}

// GetOrInsert returns the existing value for k, or stores and returns the
// result of newValue. The boolean reports whether the value already existed.
func (m *HashMap[K, V]) GetOrInsert(k K, newValue func() (V, error)) (V, bool, error) {
	h, ok := m.hashKey(k, true)
	if !ok {
		var zero V
		return zero, false, ErrNaN
	}
	if e, ok := m.inner[h]; ok {
		return e.value, true, nil
	}
	v, err := newValue()
	if err != nil {
		return v, false, err
	}
	m.order = append(m.order, h)
	m.inner[h] = entry[K, V]{key: k, value: v}
	return v, false, nil
}

// Len returns the number of entries.
func (m *HashMap[K, V]) Len() int {
	return len(m.inner)
}

// Each calls fn for every entry in insertion order.
func (m *HashMap[K, V]) Each(fn func(k K, v V)) {
	for _, h := range m.order {
		e := m.inner[h]
		fn(e.key, e.value)
	}
}

// Clone returns a copy of the map that shares no mutable state.
func (m *HashMap[K, V]) Clone() *HashMap[K, V] {
	out := NewHashMap[K, V]()
	m.Each(func(k K, v V) { out.Insert(k, v) })
	return out
}
