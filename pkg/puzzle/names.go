package puzzle

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// ErrNameTaken is returned when a name is already assigned to another id.
var ErrNameTaken = errors.New("name already taken")

// ErrEmptyName is returned for empty names.
var ErrEmptyName = errors.New("name cannot be empty")

// NameBiMap is a bidirectional map between ids and unique names.
type NameBiMap[I constraints.Unsigned] struct {
	byID   map[I]string
	byName map[string]I
}

// NewNameBiMap returns an empty map.
func NewNameBiMap[I constraints.Unsigned]() *NameBiMap[I] {
	return &NameBiMap[I]{byID: make(map[I]string), byName: make(map[string]I)}
}

// Set assigns name to id, replacing any previous name of id.
func (m *NameBiMap[I]) Set(id I, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if other, ok := m.byName[name]; ok {
		if other == id {
			return nil
		}
		return fmt.Errorf("%w: %q is used by %d", ErrNameTaken, name, other)
	}
	if old, ok := m.byID[id]; ok {
		delete(m.byName, old)
	}
	m.byID[id] = name
	m.byName[name] = id
	return nil
}

// SetWithFallback assigns name to id. If name is empty or rejected, the
// rejection is passed to warn and the next unused autoname is assigned
// instead.
func (m *NameBiMap[I]) SetWithFallback(id I, name string, autonames *AutoNames, warn WarnFunc) error {
	if name != "" {
		err := m.Set(id, name)
		if err == nil {
			return nil
		}
		warn(err)
	}
	return m.Set(id, autonames.NextUnused(func(s string) bool {
		_, taken := m.byName[s]
		return taken
	}))
}

// Get returns the name of id.
func (m *NameBiMap[I]) Get(id I) (string, bool) {
	s, ok := m.byID[id]
	return s, ok
}

// ID returns the id with the given name.
func (m *NameBiMap[I]) ID(name string) (I, bool) {
	id, ok := m.byName[name]
	return id, ok
}

// Clone returns an independent copy of the map.
func (m *NameBiMap[I]) Clone() *NameBiMap[I] {
	out := NewNameBiMap[I]()
	for id, name := range m.byID {
		out.byID[id] = name
		out.byName[name] = id
	}
	return out
}

// Len returns the number of named ids.
func (m *NameBiMap[I]) Len() int { return len(m.byID) }

// Names returns the names of ids 0..n-1, or an error naming the first id
// without a name.
func (m *NameBiMap[I]) Names(n int) ([]string, error) {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		s, ok := m.byID[I(i)]
		if !ok {
			return nil, fmt.Errorf("missing name for id %d", i)
		}
		out[i] = s
	}
	return out, nil
}

// AutoNames generates spreadsheet-style names: A, B, ..., Z, AA, AB, ...
type AutoNames struct {
	next int
}

// NextUnused returns the next generated name for which taken reports false.
func (a *AutoNames) NextUnused(taken func(string) bool) string {
	for {
		s := autoname(a.next)
		a.next++
		if !taken(s) {
			return s
		}
	}
}

func autoname(i int) string {
	var b []byte
	for i++; i > 0; i = (i - 1) / 26 {
		b = append([]byte{byte('A' + (i-1)%26)}, b...)
	}
	return string(b)
}
