package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/puzzle"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms puzzle description source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: mark-piece -> mark_piece
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVector wraps a geom.Vector. Points are vectors too.
type sexpVector struct {
	v geom.Vector
}

func (v *sexpVector) SexpString(ps *zygo.PrintState) string {
	parts := make([]string, len(v.v))
	for i, x := range v.v {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return "(vec " + strings.Join(parts, " ") + ")"
}
func (v *sexpVector) Type() *zygo.RegisteredType { return nil }

// sexpPlane wraps a geom.Hyperplane.
type sexpPlane struct {
	h geom.Hyperplane
}

func (p *sexpPlane) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(plane %s %g)", (&sexpVector{v: p.h.Normal}).SexpString(ps), p.h.Distance)
}
func (p *sexpPlane) Type() *zygo.RegisteredType { return nil }

// sexpMotor wraps a geom.Motor.
type sexpMotor struct {
	m geom.Motor
}

func (m *sexpMotor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(motor %dD)", m.m.NDim())
}
func (m *sexpMotor) Type() *zygo.RegisteredType { return nil }

// sexpColor wraps a puzzle.Color so it can be passed from `color` to the
// cutting builtins.
type sexpColor struct {
	id   puzzle.Color
	name string
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(color %q)", c.name)
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// sexpPieces wraps a snapshot of a piece set.
type sexpPieces struct {
	set *puzzle.PieceSet
}

func (p *sexpPieces) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(pieces %d)", p.set.Len())
}
func (p *sexpPieces) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) && !isKWAt(args, i+1) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

func isKWAt(args []zygo.Sexp, i int) bool {
	_, ok := isKW(args[i])
	return ok
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt or an integral SexpFloat.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %g", f)
	}
	return int(f), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toOptString is toString that maps nil to "".
func toOptString(s zygo.Sexp) (string, error) {
	if s == zygo.SexpNull {
		return "", nil
	}
	return toString(s)
}

// toBool extracts a boolean. nil is false.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return false, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// truthy reports whether a predicate result counts as true.
func truthy(s zygo.Sexp) bool {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val
	case *zygo.SexpSentinel:
		return v != zygo.SexpNull
	}
	return true
}

// toVector extracts a vector from a sexpVector or a list of numbers.
func toVector(s zygo.Sexp) (geom.Vector, error) {
	if v, ok := s.(*sexpVector); ok {
		return v.v, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected vector, got %T (%s)", s, s.SexpString(nil))
	}
	out := make(geom.Vector, len(items))
	for i, item := range items {
		if out[i], err = toFloat64(item); err != nil {
			return nil, fmt.Errorf("vector component %d: %w", i, err)
		}
	}
	return out, nil
}

// toPlane extracts a hyperplane from a sexpPlane.
func toPlane(s zygo.Sexp) (geom.Hyperplane, error) {
	if p, ok := s.(*sexpPlane); ok {
		return p.h, nil
	}
	return geom.Hyperplane{}, fmt.Errorf("expected plane, got %T (%s)", s, s.SexpString(nil))
}

// toMotor extracts a transform from a sexpMotor.
func toMotor(s zygo.Sexp) (geom.Motor, error) {
	if m, ok := s.(*sexpMotor); ok {
		return m.m, nil
	}
	return geom.Motor{}, fmt.Errorf("expected transform, got %T (%s)", s, s.SexpString(nil))
}

// toColor extracts an optional color. nil means no color.
func toColor(s zygo.Sexp) (*puzzle.Color, error) {
	switch v := s.(type) {
	case *sexpColor:
		c := v.id
		return &c, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected color, got %T (%s)", s, s.SexpString(nil))
}

// toPieces extracts an optional piece set. nil means all active pieces.
func toPieces(s zygo.Sexp) (*puzzle.PieceSet, error) {
	switch v := s.(type) {
	case *sexpPieces:
		return v.set.Clone(), nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected piece set, got %T (%s)", s, s.SexpString(nil))
}

// toFunction extracts a callable from a Sexp.
func toFunction(s zygo.Sexp) (*zygo.SexpFunction, error) {
	if fn, ok := s.(*zygo.SexpFunction); ok {
		return fn, nil
	}
	return nil, fmt.Errorf("expected function, got %T (%s)", s, s.SexpString(nil))
}

// toStrings extracts a list of strings. nil is an empty list.
func toStrings(s zygo.Sexp) ([]string, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		if out[i], err = toString(item); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func sexpStrings(items []string) zygo.Sexp {
	out := make([]zygo.Sexp, len(items))
	for i, s := range items {
		out[i] = &zygo.SexpStr{S: s}
	}
	return zygo.MakeList(out)
}
