package shape

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/chazu/hypercut/pkg/puzzle"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	defaultPieceTypeName    = "piece"
	defaultPieceTypeDisplay = "Piece"
)

var pieceTypeNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(/[a-zA-Z0-9_]*)*$`)

// PieceTypeBuilder is a piece type during construction.
type PieceTypeBuilder struct {
	Name string
}

// PieceTypeInfo is a piece type in a built shape.
type PieceTypeInfo struct {
	Name    string `json:"name"`
	Display string `json:"display"`
}

// PieceTypeHierarchy is the tree of slash-separated piece type names.
// Types holds every piece type at or below this level.
type PieceTypeHierarchy struct {
	Nodes *orderedmap.OrderedMap[string, *PieceTypeNode]
	Types *bitset.BitSet
}

// PieceTypeNode is a category (Sub != nil) or a single piece type.
type PieceTypeNode struct {
	Display string
	Type    puzzle.PieceType
	Sub     *PieceTypeHierarchy
}

// IsType reports whether the node is a leaf piece type.
func (n *PieceTypeNode) IsType() bool { return n.Sub == nil }

// NewPieceTypeHierarchy returns an empty hierarchy for count piece types.
func NewPieceTypeHierarchy(count int) *PieceTypeHierarchy {
	return &PieceTypeHierarchy{
		Nodes: orderedmap.New[string, *PieceTypeNode](),
		Types: bitset.New(uint(count)),
	}
}

func newCategory(count int) *PieceTypeNode {
	return &PieceTypeNode{Sub: NewPieceTypeHierarchy(count)}
}

// Get returns the node at path, which may be nested.
func (h *PieceTypeHierarchy) Get(path string) (*PieceTypeNode, bool) {
	segments := strings.Split(path, "/")
	cur := h
	for i, seg := range segments {
		node, ok := cur.Nodes.Get(seg)
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return node, true
		}
		if node.IsType() {
			return nil, false
		}
		cur = node.Sub
	}
	return nil, false
}

// node returns the node at path, creating categories along the way.
func (h *PieceTypeHierarchy) node(path string) (*PieceTypeNode, error) {
	count := int(h.Types.Len())
	segments := strings.Split(path, "/")
	cur := h
	for i, seg := range segments {
		node, ok := cur.Nodes.Get(seg)
		if !ok {
			node = newCategory(count)
			cur.Nodes.Set(seg, node)
		}
		if i == len(segments)-1 {
			return node, nil
		}
		if node.IsType() {
			return nil, fmt.Errorf("piece type %q cannot have subtype %q", strings.Join(segments[:i+1], "/"), path)
		}
		cur = node.Sub
	}
	return nil, fmt.Errorf("empty piece type path")
}

// SetDisplay sets the display name of a piece type or category.
func (h *PieceTypeHierarchy) SetDisplay(path, display string) error {
	node, err := h.node(path)
	if err != nil {
		return err
	}
	node.Display = display
	return nil
}

// SetPieceTypeID marks path as a leaf piece type.
func (h *PieceTypeHierarchy) SetPieceTypeID(path string, id puzzle.PieceType) error {
	node, err := h.node(path)
	if err != nil {
		return err
	}
	if node.Sub != nil && node.Sub.Nodes.Len() > 0 {
		var subs []string
		for p := node.Sub.Nodes.Oldest(); p != nil; p = p.Next() {
			subs = append(subs, p.Key)
		}
		return fmt.Errorf("piece type %q cannot have subtypes %q", path, subs)
	}
	node.Sub = nil
	node.Type = id
	for _, prefix := range PathPrefixes(path)[1:] {
		if cat, ok := h.Get(prefix); ok && !cat.IsType() {
			cat.Sub.Types.Set(uint(id))
		}
	}
	h.Types.Set(uint(id))
	return nil
}

// PathPrefixes returns path and each of its ancestors, longest first.
// "a/b/c" gives "a/b/c", "a/b", "a".
func PathPrefixes(path string) []string {
	out := []string{path}
	for {
		i := strings.LastIndexByte(path, '/')
		if i < 0 {
			return out
		}
		path = path[:i]
		out = append(out, path)
	}
}

// PathsWithNoDisplayName returns, sorted, the full path of every node that
// lacks a display name.
func (h *PieceTypeHierarchy) PathsWithNoDisplayName() []string {
	var out []string
	var walk func(prefix string, h *PieceTypeHierarchy)
	walk = func(prefix string, h *PieceTypeHierarchy) {
		for p := h.Nodes.Oldest(); p != nil; p = p.Next() {
			path := prefix + p.Key
			if p.Value.Display == "" {
				out = append(out, path)
			}
			if !p.Value.IsType() {
				walk(path+"/", p.Value.Sub)
			}
		}
	}
	walk("", h)
	sort.Strings(out)
	return out
}

// validatePieceTypeName checks a slash-separated piece type name.
func validatePieceTypeName(name string) error {
	if !pieceTypeNameRe.MatchString(name) {
		return fmt.Errorf("invalid piece type name: %q", name)
	}
	return nil
}

func buildPieceTypeHierarchy(types *puzzle.PerID[puzzle.PieceType, PieceTypeInfo], displays *orderedmap.OrderedMap[string, string], warn puzzle.WarnFunc) *PieceTypeHierarchy {
	h := NewPieceTypeHierarchy(types.Len())
	for p := displays.Oldest(); p != nil; p = p.Next() {
		if err := h.SetDisplay(p.Key, p.Value); err != nil {
			warn(err)
		}
	}
	types.Each(func(id puzzle.PieceType, info PieceTypeInfo) {
		if err := h.SetPieceTypeID(info.Name, id); err != nil {
			warn(err)
		}
	})
	for _, path := range h.PathsWithNoDisplayName() {
		warn(fmt.Errorf("piece type %q has no display name", path))
	}
	return h
}

// buildPieceTypeMasks returns a mask for every piece type name and every
// prefix of one. A prefix's mask is the union of the masks below it.
func buildPieceTypeMasks(pieces *puzzle.PerID[puzzle.Piece, PieceInfo], types *puzzle.PerID[puzzle.PieceType, PieceTypeInfo]) map[string]puzzle.PieceMask {
	out := make(map[string]puzzle.PieceMask)
	types.Each(func(typeID puzzle.PieceType, info PieceTypeInfo) {
		mask := puzzle.NewPieceMask(pieces.Len())
		pieces.Each(func(p puzzle.Piece, pi PieceInfo) {
			if pi.PieceType == typeID {
				mask.Set(p)
			}
		})
		for _, prefix := range PathPrefixes(info.Name) {
			if existing, ok := out[prefix]; ok {
				existing.Or(mask)
			} else {
				out[prefix] = mask.Clone()
			}
		}
	})
	return out
}
