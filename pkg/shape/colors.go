package shape

import (
	"errors"
	"fmt"

	"github.com/chazu/hypercut/pkg/puzzle"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	puzzlePrefix = "puzzle:"

	// DefaultSchemeName is the scheme used when none is chosen explicitly.
	DefaultSchemeName = "Default"
	// UnknownDefaultColor fills scheme entries that were never set.
	UnknownDefaultColor = "Unknown"
)

// ColorSystemBuilder is the registry of sticker colors for one shape.
type ColorSystemBuilder struct {
	ID   string
	Name string

	count    int
	names    *puzzle.NameBiMap[puzzle.Color]
	displays map[puzzle.Color]string

	// schemes maps a scheme name to the default color of each color id.
	schemes       *orderedmap.OrderedMap[string, map[puzzle.Color]string]
	DefaultScheme string

	shared   bool
	modified bool
}

// NewAdHocColorSystem returns an empty color system owned by one puzzle.
func NewAdHocColorSystem(puzzleID string) *ColorSystemBuilder {
	return newColorSystem(puzzlePrefix+puzzleID, false)
}

// NewSharedColorSystem returns an empty color system that may be reused by
// several puzzles.
func NewSharedColorSystem(id string) *ColorSystemBuilder {
	return newColorSystem(id, true)
}

func newColorSystem(id string, shared bool) *ColorSystemBuilder {
	return &ColorSystemBuilder{
		ID:       id,
		names:    puzzle.NewNameBiMap[puzzle.Color](),
		displays: make(map[puzzle.Color]string),
		schemes:  orderedmap.New[string, map[puzzle.Color]string](),
		shared:   shared,
	}
}

// Len returns the number of colors.
func (c *ColorSystemBuilder) Len() int { return c.count }

// DisplayName returns the color system's name, or its id if unnamed.
func (c *ColorSystemBuilder) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Add adds an unnamed color.
func (c *ColorSystemBuilder) Add() (puzzle.Color, error) {
	if c.count >= int(puzzle.Internal) {
		return 0, fmt.Errorf("%w: too many colors", puzzle.ErrIndexOverflow)
	}
	c.modified = true
	id := puzzle.Color(c.count)
	c.count++
	return id, nil
}

// GetOrAddWithName returns the color with the given name, adding it if it
// does not exist.
func (c *ColorSystemBuilder) GetOrAddWithName(name string, warn puzzle.WarnFunc) (puzzle.Color, error) {
	if name == "" {
		return 0, puzzle.ErrEmptyName
	}
	if id, ok := c.names.ID(name); ok {
		return id, nil
	}
	id, err := c.Add()
	if err != nil {
		return 0, err
	}
	if err := c.names.Set(id, name); err != nil {
		warn(fmt.Errorf("color %d: %w", id, err))
	}
	return id, nil
}

// ColorFromName returns the color with the given name.
func (c *ColorSystemBuilder) ColorFromName(name string) (puzzle.Color, bool) {
	return c.names.ID(name)
}

// SetDisplay sets the user-friendly name of a color.
func (c *ColorSystemBuilder) SetDisplay(id puzzle.Color, display string) error {
	if int(id) >= c.count {
		return fmt.Errorf("%w: %s", puzzle.ErrIndexOutOfRange, id)
	}
	c.modified = true
	c.displays[id] = display
	return nil
}

// AddScheme adds a color scheme, merging into an existing scheme of the same
// name.
func (c *ColorSystemBuilder) AddScheme(name string, mapping map[puzzle.Color]string) {
	c.modified = true
	existing, ok := c.schemes.Get(name)
	if !ok {
		existing = make(map[puzzle.Color]string, len(mapping))
		c.schemes.Set(name, existing)
	}
	for id, v := range mapping {
		existing[id] = v
	}
}

// DefaultSchemeName returns the name of the default scheme.
func (c *ColorSystemBuilder) DefaultSchemeName() string {
	if c.DefaultScheme != "" {
		return c.DefaultScheme
	}
	return DefaultSchemeName
}

// SetDefaultColor sets the default color of one color in the default scheme.
func (c *ColorSystemBuilder) SetDefaultColor(id puzzle.Color, value string) {
	c.AddScheme(c.DefaultSchemeName(), map[puzzle.Color]string{id: value})
}

// DefaultColor returns the default color of id in the default scheme.
func (c *ColorSystemBuilder) DefaultColor(id puzzle.Color) (string, bool) {
	scheme, ok := c.schemes.Get(c.DefaultSchemeName())
	if !ok {
		return "", false
	}
	v, ok := scheme[id]
	return v, ok
}

// ColorInfo describes one color of a built color system.
type ColorInfo struct {
	Name    string `json:"name"`
	Display string `json:"display"`
}

// ColorScheme is a named assignment of default colors, indexed by color id.
type ColorScheme struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// ColorSystem is an immutable, fully named color system.
type ColorSystem struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Colors        []ColorInfo   `json:"colors"`
	Schemes       []ColorScheme `json:"schemes"`
	DefaultScheme string        `json:"defaultScheme"`
}

// Build validates and freezes the color system. Unnamed colors get
// autonames.
func (c *ColorSystemBuilder) Build(warn puzzle.WarnFunc) (*ColorSystem, error) {
	if c.shared {
		if c.modified {
			warn(errors.New("shared color system cannot be modified"))
		}
		if c.Name == "" {
			warn(errors.New("color system has no name"))
		}
	} else {
		warn(errors.New("using ad-hoc color system"))
	}

	names := puzzle.NewNameBiMap[puzzle.Color]()
	var auto puzzle.AutoNames
	out := &ColorSystem{
		ID:            c.ID,
		Name:          c.DisplayName(),
		Colors:        make([]ColorInfo, c.count),
		DefaultScheme: c.DefaultSchemeName(),
	}
	for i := 0; i < c.count; i++ {
		id := puzzle.Color(i)
		name, _ := c.names.Get(id)
		if err := names.SetWithFallback(id, name, &auto, warn); err != nil {
			return nil, fmt.Errorf("naming color %d: %w", i, err)
		}
		name, _ = names.Get(id)
		display := c.displays[id]
		if display == "" {
			display = name
		}
		out.Colors[i] = ColorInfo{Name: name, Display: display}
	}

	for pair := c.schemes.Oldest(); pair != nil; pair = pair.Next() {
		out.Schemes = append(out.Schemes, c.buildScheme(pair.Key, pair.Value))
	}
	if _, ok := c.schemes.Get(out.DefaultScheme); !ok {
		warn(fmt.Errorf("missing default color scheme %q", out.DefaultScheme))
		out.Schemes = append(out.Schemes, c.buildScheme(out.DefaultScheme, nil))
	}
	return out, nil
}

func (c *ColorSystemBuilder) buildScheme(name string, mapping map[puzzle.Color]string) ColorScheme {
	scheme := ColorScheme{Name: name, Colors: make([]string, c.count)}
	for i := range scheme.Colors {
		v, ok := mapping[puzzle.Color(i)]
		if !ok || v == "" {
			v = UnknownDefaultColor
		}
		scheme.Colors[i] = v
	}
	return scheme
}
