package approx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type floatsKey []float64

func (k floatsKey) AppendFloats(dst []float64) []float64 { return append(dst, k...) }

func TestEq(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want bool
	}{
		{"identical", 1, 1, true},
		{"within epsilon", 1, 1 + Epsilon/2, true},
		{"outside epsilon", 1, 1 + 3*Epsilon, false},
		{"negative zero", 0, -0.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eq(tt.a, tt.b))
		})
	}
}

func TestSlicesEqPadsWithZero(t *testing.T) {
	assert.True(t, SlicesEq([]float64{1, 2}, []float64{1, 2, 0}))
	assert.False(t, SlicesEq([]float64{1, 2}, []float64{1, 2, 1}))
}

func TestHashMapNearbyKeysCollide(t *testing.T) {
	m := NewHashMap[floatsKey, int]()
	_, existed, err := m.Insert(floatsKey{1, 0, 0}, 7)
	require.NoError(t, err)
	require.False(t, existed)

	v, ok := m.Get(floatsKey{1 + Epsilon/10, -Epsilon / 10, 0})
	require.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = m.Get(floatsKey{1.1, 0, 0})
	assert.False(t, ok)
}

func TestHashMapLengthIsPartOfKey(t *testing.T) {
	m := NewHashMap[floatsKey, string]()
	m.Insert(floatsKey{0, 0}, "two")
	m.Insert(floatsKey{0, 0, 0}, "three")
	assert.Equal(t, 2, m.Len())
}

func TestHashMapRejectsNaN(t *testing.T) {
	m := NewHashMap[floatsKey, int]()
	_, _, err := m.Insert(floatsKey{1, math.NaN()}, 1)
	assert.ErrorIs(t, err, ErrNaN)

	_, _, err = m.GetOrInsert(floatsKey{math.NaN()}, func() (int, error) { return 2, nil })
	assert.ErrorIs(t, err, ErrNaN)

	assert.Equal(t, 0, m.Len())
	_, ok := m.Get(floatsKey{1, math.NaN()})
	assert.False(t, ok)
}

func TestHashMapGetOrInsert(t *testing.T) {
	m := NewHashMap[floatsKey, int]()
	calls := 0
	next := func() (int, error) {
		calls++
		return calls, nil
	}

	v, existed, err := m.GetOrInsert(floatsKey{0.5}, next)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, 1, v)

	v, existed, err = m.GetOrInsert(floatsKey{0.5 + Epsilon/3}, next)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)
}

func TestHashMapEachInInsertionOrder(t *testing.T) {
	m := NewHashMap[floatsKey, int]()
	for i := 5; i > 0; i-- {
		m.Insert(floatsKey{float64(i)}, i)
	}
	var got []int
	m.Each(func(_ floatsKey, v int) { got = append(got, v) })
	assert.Equal(t, []int{5, 4, 3, 2, 1}, got)
}
