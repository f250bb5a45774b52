package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/hypercut/pkg/builder"
	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/puzzle"
	"github.com/chazu/hypercut/pkg/symmetry"
	"github.com/chazu/hypercut/pkg/twists"
	zygo "github.com/glycerine/zygomys/zygo"
)

// errInCallback is returned when a callback tries to change the puzzle while
// the puzzle is locked for the call that invoked it.
var errInCallback = errors.New("cannot modify the puzzle from inside a callback")

// do runs fn against the puzzle state.
func (s *session) do(op string, fn func(*builder.State) error) error {
	if s.inCallback {
		return fmt.Errorf("%s: %w", op, errInCallback)
	}
	if s.puzzle == nil {
		return fmt.Errorf("%s: no puzzle defined; call (puzzle ...) first", op)
	}
	if err := s.puzzle.Do(s.ctx, fn); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// call invokes a script function. The puzzle stays locked, so the function
// may compute but not build.
func (s *session) call(fn *zygo.SexpFunction, args ...zygo.Sexp) (zygo.Sexp, error) {
	prev := s.inCallback
	s.inCallback = true
	defer func() { s.inCallback = prev }()
	return s.env.Apply(fn, args)
}

// regionPredicate adapts a script predicate to a point test. The first error
// is kept in *errp and every later point is rejected.
func (s *session) regionPredicate(fn *zygo.SexpFunction, errp *error) func(geom.Point) bool {
	return func(p geom.Point) bool {
		if *errp != nil {
			return false
		}
		res, err := s.call(fn, &sexpVector{v: p})
		if err != nil {
			*errp = err
			return false
		}
		return truthy(res)
	}
}

// replacedBuiltins are zygomys builtins that share a name with a puzzle
// builtin. zygomys resolves builtins before globals, so they are left out of
// the sandbox entirely.
var replacedBuiltins = []string{"slice"}

// newSandbox returns a sandboxed environment without filesystem or syscall
// access, and without the builtins in replacedBuiltins.
func newSandbox() *zygo.Zlisp {
	funcs := zygo.SandboxSafeFunctions()
	for _, name := range replacedBuiltins {
		delete(funcs, name)
	}
	return zygo.NewZlispWithFuncs(funcs)
}

// registerBuiltins installs the puzzle description builtins into a zygomys
// environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {
	s.env = env
	registerGeometryBuiltins(env, s)
	registerShapeBuiltins(env, s)
	registerTwistBuiltins(env, s)
}

func registerGeometryBuiltins(env *zygo.Zlisp, s *session) {

	// -----------------------------------------------------------------------
	// (vec 1 0 0)
	// -----------------------------------------------------------------------
	env.AddFunction("vec", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v := make(geom.Vector, len(args))
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec: component %d: %w", i, err)
			}
			v[i] = f
		}
		return &sexpVector{v: v}, nil
	})

	// -----------------------------------------------------------------------
	// (coord p 0)
	// -----------------------------------------------------------------------
	env.AddFunction("coord", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("coord requires a vector and an index")
		}
		v, err := toVector(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("coord: %w", err)
		}
		i, err := toInt(args[1])
		if err != nil || i < 0 {
			return zygo.SexpNull, fmt.Errorf("coord: bad index %s", args[1].SexpString(nil))
		}
		return &zygo.SexpFloat{Val: v.At(i)}, nil
	})

	// -----------------------------------------------------------------------
	// (plane (vec 1 0 0) 1)
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("plane requires a normal and a distance")
		}
		normal, err := toVector(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: normal: %w", err)
		}
		d, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: distance: %w", err)
		}
		h, err := geom.NewHyperplane(normal, d)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plane: %w", err)
		}
		return &sexpPlane{h: h}, nil
	})

	// -----------------------------------------------------------------------
	// (mirror (vec 1 -1 0))
	// -----------------------------------------------------------------------
	env.AddFunction("mirror", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("mirror requires a normal vector")
		}
		normal, err := toVector(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mirror: %w", err)
		}
		m, err := symmetry.Mirror(s.ndim(len(normal)), normal)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mirror: %w", err)
		}
		return &sexpMotor{m: m}, nil
	})

	// -----------------------------------------------------------------------
	// (rotation (vec 0 1 0) (vec 0 0 1))      ; from one vector to another
	// (rotation (vec 0 1 0) (vec 0 0 1) 90)   ; by an angle in degrees
	// -----------------------------------------------------------------------
	env.AddFunction("rotation", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 && len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("rotation requires two vectors and an optional angle")
		}
		u, err := toVector(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotation: from: %w", err)
		}
		v, err := toVector(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotation: to: %w", err)
		}
		n := s.ndim(max(len(u), len(v)))
		var m geom.Motor
		if len(args) == 3 {
			deg, err := toFloat64(args[2])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotation: angle: %w", err)
			}
			m, err = geom.Rotation(n, u, v, deg*math.Pi/180)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotation: %w", err)
			}
		} else {
			m, err = geom.RotationFromTo(n, u, v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotation: %w", err)
			}
		}
		return &sexpMotor{m: m}, nil
	})

	// -----------------------------------------------------------------------
	// (symmetry :cube)
	// (symmetry (mirror ...) (mirror ...) :chiral true)
	// (symmetry)                               ; clears the symmetry
	// -----------------------------------------------------------------------
	env.AddFunction("symmetry", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		chiral := false
		if v, ok := pa.kw["chiral"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("symmetry: chiral: %w", err)
			}
			chiral = b
		}
		_, cube := pa.kw["cube"]
		err := s.do("symmetry", func(st *builder.State) error {
			ndim := st.Shape.NDim()
			var (
				g   *symmetry.Group
				err error
			)
			switch {
			case cube:
				g, err = symmetry.Hyperoctahedral(ndim)
			case len(pa.positional) > 0:
				gens := make([]geom.Motor, len(pa.positional))
				for i, a := range pa.positional {
					if gens[i], err = toMotor(a); err != nil {
						return fmt.Errorf("generator %d: %w", i, err)
					}
				}
				g, err = symmetry.NewGroup(ndim, gens...)
			}
			if err != nil {
				return err
			}
			if g != nil && chiral {
				g = g.Chiral()
			}
			st.Symmetry = g
			return nil
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return zygo.SexpNull, nil
	})
}

func registerShapeBuiltins(env *zygo.Zlisp, s *session) {

	// -----------------------------------------------------------------------
	// (puzzle "cube_2x2x2" :ndim 3 :name "2x2x2")
	// -----------------------------------------------------------------------
	env.AddFunction("puzzle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("puzzle requires an id")
		}
		if s.puzzle != nil {
			return zygo.SexpNull, fmt.Errorf("puzzle: %q is already defined", s.puzzle.ID)
		}
		id, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("puzzle: id: %w", err)
		}
		ndim := 3
		if v, ok := pa.kw["ndim"]; ok {
			if ndim, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("puzzle: ndim: %w", err)
			}
		}
		p, err := builder.New(id, ndim, s.cfg, s.logger)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("puzzle: %w", err)
		}
		if v, ok := pa.kw["name"]; ok {
			display, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("puzzle: name: %w", err)
			}
			p.SetName(display)
		}
		s.puzzle = p
		return &zygo.SexpStr{S: id}, nil
	})

	// -----------------------------------------------------------------------
	// (color "R" :display "Right" :default "red")
	// -----------------------------------------------------------------------
	env.AddFunction("color", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("color requires a name")
		}
		colorName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("color: name: %w", err)
		}
		var display, def string
		if v, ok := pa.kw["display"]; ok {
			if display, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("color: display: %w", err)
			}
		}
		if v, ok := pa.kw["default"]; ok {
			if def, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("color: default: %w", err)
			}
		}
		var out *sexpColor
		err = s.do("color", func(st *builder.State) error {
			id, err := st.Shape.Colors.GetOrAddWithName(colorName, s.warn("shape"))
			if err != nil {
				return err
			}
			if display != "" {
				if err := st.Shape.Colors.SetDisplay(id, display); err != nil {
					return err
				}
			}
			if def != "" {
				st.Shape.Colors.SetDefaultColor(id, def)
			}
			out = &sexpColor{id: id, name: colorName}
			return nil
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return out, nil
	})

	// -----------------------------------------------------------------------
	// (color-scheme "Classic" "R" "red" "L" "orange")
	// -----------------------------------------------------------------------
	env.AddFunction("color_scheme", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 || len(args)%2 != 1 {
			return zygo.SexpNull, fmt.Errorf("color-scheme requires a name and color/value pairs")
		}
		scheme, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("color-scheme: name: %w", err)
		}
		err = s.do("color-scheme", func(st *builder.State) error {
			mapping := make(map[puzzle.Color]string)
			for i := 1; i < len(args); i += 2 {
				colorName, err := toString(args[i])
				if err != nil {
					return err
				}
				value, err := toString(args[i+1])
				if err != nil {
					return err
				}
				id, ok := st.Shape.Colors.ColorFromName(colorName)
				if !ok {
					return fmt.Errorf("no color named %q", colorName)
				}
				mapping[id] = value
			}
			st.Shape.Colors.AddScheme(scheme, mapping)
			return nil
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (carve (plane ...) :color c :pieces ps)
	// -----------------------------------------------------------------------
	env.AddFunction("carve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("carve requires a plane")
		}
		plane, err := toPlane(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("carve: %w", err)
		}
		color, err := toColor(kwOrNull(pa, "color"))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("carve: color: %w", err)
		}
		pieces, err := toPieces(kwOrNull(pa, "pieces"))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("carve: pieces: %w", err)
		}
		return zygo.SexpNull, s.do("carve", func(st *builder.State) error {
			return st.Shape.Carve(pieces, plane, color)
		})
	})

	// -----------------------------------------------------------------------
	// (slice (plane ...) :inside c :outside c :pieces ps)
	// -----------------------------------------------------------------------
	env.AddFunction("slice", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("slice requires a plane")
		}
		plane, err := toPlane(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("slice: %w", err)
		}
		inside, err := toColor(kwOrNull(pa, "inside"))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("slice: inside: %w", err)
		}
		outside, err := toColor(kwOrNull(pa, "outside"))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("slice: outside: %w", err)
		}
		pieces, err := toPieces(kwOrNull(pa, "pieces"))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("slice: pieces: %w", err)
		}
		return zygo.SexpNull, s.do("slice", func(st *builder.State) error {
			return st.Shape.Slice(pieces, plane, inside, outside)
		})
	})

	// -----------------------------------------------------------------------
	// (active-pieces)
	// -----------------------------------------------------------------------
	env.AddFunction("active_pieces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var out *sexpPieces
		err := s.do("active-pieces", func(st *builder.State) error {
			out = &sexpPieces{set: st.Shape.ActivePieces()}
			return nil
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return out, nil
	})

	// -----------------------------------------------------------------------
	// (pieces-in (fn [p] (> (coord p 0) 0)))
	// -----------------------------------------------------------------------
	env.AddFunction("pieces_in", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("pieces-in requires a predicate")
		}
		fn, err := toFunction(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("pieces-in: %w", err)
		}
		var (
			out     *sexpPieces
			predErr error
		)
		err = s.do("pieces-in", func(st *builder.State) error {
			matches, err := st.Shape.ActivePiecesInRegion(s.regionPredicate(fn, &predErr))
			if err != nil {
				return err
			}
			out = &sexpPieces{set: puzzle.NewPieceSet(matches...)}
			return nil
		})
		if err == nil && predErr != nil {
			err = fmt.Errorf("pieces-in: predicate: %w", predErr)
		}
		if err != nil {
			return zygo.SexpNull, err
		}
		return out, nil
	})

	// -----------------------------------------------------------------------
	// (piece-type "center/x" "X center")
	// -----------------------------------------------------------------------
	env.AddFunction("piece_type", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 || len(args) > 2 {
			return zygo.SexpNull, fmt.Errorf("piece-type requires a name and an optional display name")
		}
		typeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("piece-type: name: %w", err)
		}
		var display string
		if len(args) == 2 {
			if display, err = toString(args[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("piece-type: display: %w", err)
			}
		}
		err = s.do("piece-type", func(st *builder.State) error {
			_, err := st.Shape.GetOrAddPieceType(typeName, display)
			return err
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpStr{S: typeName}, nil
	})

	// -----------------------------------------------------------------------
	// (piece-type-display "center" "Centers")
	// -----------------------------------------------------------------------
	env.AddFunction("piece_type_display", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("piece-type-display requires a path and a display name")
		}
		path, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("piece-type-display: path: %w", err)
		}
		display, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("piece-type-display: display: %w", err)
		}
		return zygo.SexpNull, s.do("piece-type-display", func(st *builder.State) error {
			return st.Shape.SetPieceTypeDisplay(path, display)
		})
	})

	// -----------------------------------------------------------------------
	// (mark-piece "corner" "Corner" (fn [p] (> (coord p 0) 0)))
	// -----------------------------------------------------------------------
	env.AddFunction("mark_piece", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("mark-piece requires a type name, a display name and a predicate")
		}
		typeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mark-piece: name: %w", err)
		}
		display, err := toOptString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mark-piece: display: %w", err)
		}
		fn, err := toFunction(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mark-piece: predicate: %w", err)
		}
		var predErr error
		err = s.do("mark-piece", func(st *builder.State) error {
			return st.Shape.MarkPieceByRegion(typeName, display, s.regionPredicate(fn, &predErr), s.warn("shape"))
		})
		if err == nil && predErr != nil {
			err = fmt.Errorf("mark-piece: predicate: %w", predErr)
		}
		return zygo.SexpNull, err
	})

	// -----------------------------------------------------------------------
	// (unify-piece-types)
	// -----------------------------------------------------------------------
	env.AddFunction("unify_piece_types", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return zygo.SexpNull, s.do("unify-piece-types", func(st *builder.State) error {
			return st.UnifyPieceTypes(s.warn("shape"))
		})
	})

	// -----------------------------------------------------------------------
	// (mark-untyped-pieces)
	// -----------------------------------------------------------------------
	env.AddFunction("mark_untyped_pieces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return zygo.SexpNull, s.do("mark-untyped-pieces", func(st *builder.State) error {
			return st.Shape.MarkUntypedPieces()
		})
	})

	// -----------------------------------------------------------------------
	// (delete-untyped-pieces)
	// -----------------------------------------------------------------------
	env.AddFunction("delete_untyped_pieces", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return zygo.SexpNull, s.do("delete-untyped-pieces", func(st *builder.State) error {
			st.Shape.DeleteUntypedPieces(s.warn("shape"))
			return nil
		})
	})
}

func registerTwistBuiltins(env *zygo.Zlisp, s *session) {

	// -----------------------------------------------------------------------
	// (axis (vec 1 0 0) "R")
	// -----------------------------------------------------------------------
	env.AddFunction("axis", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 || len(args) > 2 {
			return zygo.SexpNull, fmt.Errorf("axis requires a vector and an optional name")
		}
		v, err := toVector(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("axis: %w", err)
		}
		var axisName string
		if len(args) == 2 {
			if axisName, err = toOptString(args[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("axis: name: %w", err)
			}
		}
		var out string
		err = s.do("axis", func(st *builder.State) error {
			id, err := st.Twists.Axes.Add(v, axisName, s.warn("twists"))
			if err != nil {
				return err
			}
			out = st.Twists.Axes.Name(id)
			return nil
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpStr{S: out}, nil
	})

	// -----------------------------------------------------------------------
	// (axes (vec 1 0 0) (list "R" "L" "U" "D" "F" "B"))
	//
	// Adds the orbit of the vector under the current symmetry, naming the
	// axes in orbit order. Missing names are autogenerated.
	// -----------------------------------------------------------------------
	env.AddFunction("axes", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 || len(args) > 2 {
			return zygo.SexpNull, fmt.Errorf("axes requires a vector and an optional list of names")
		}
		v, err := toVector(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("axes: %w", err)
		}
		var names []string
		if len(args) == 2 {
			if names, err = toStrings(args[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("axes: names: %w", err)
			}
		}
		var out []string
		err = s.do("axes", func(st *builder.State) error {
			vectors := []geom.Vector{v}
			if st.Symmetry != nil {
				orbit, err := st.Symmetry.VectorOrbit(v, 0)
				if err != nil {
					return err
				}
				vectors = vectors[:0]
				for _, e := range orbit {
					vectors = append(vectors, e.Value)
				}
			}
			if len(names) > len(vectors) {
				s.warn("twists")(fmt.Errorf("%d axis names given for %d axes", len(names), len(vectors)))
			}
			for i, vec := range vectors {
				var n string
				if i < len(names) {
					n = names[i]
				}
				id, err := st.Twists.Axes.Add(vec, n, s.warn("twists"))
				if err != nil {
					return err
				}
				out = append(out, st.Twists.Axes.Name(id))
			}
			return nil
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return sexpStrings(out), nil
	})

	// -----------------------------------------------------------------------
	// (twist "R" (rotation ...) :inverse true :multipliers true :qtm 1
	//        :prefix "" :name "" :suffix "" :inv-name "" :inv-suffix "'"
	//        :naming false :name-fn (fn [i] ...))
	//
	// Adds the twist on the named axis together with its inverse and
	// multiples, expanded over the current symmetry. Returns the name of the
	// first twist, or nil if it was rejected.
	// -----------------------------------------------------------------------
	env.AddFunction("twist", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("twist requires an axis name and a transform")
		}
		axisName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("twist: axis: %w", err)
		}
		transform, err := toMotor(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("twist: %w", err)
		}
		opts, err := s.twistOptions(pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("twist: %w", err)
		}

		var out zygo.Sexp = zygo.SexpNull
		err = s.do("twist", func(st *builder.State) error {
			axis, ok := st.Twists.Axes.AxisFromName(axisName)
			if !ok {
				s.warn("twists")(fmt.Errorf("no axis named %q", axisName))
				return nil
			}
			first, ok, err := st.Twists.AddWithMultiples(st.Symmetry, axis, transform, opts, s.warn("twists"))
			if err != nil || !ok {
				return err
			}
			if n, ok := st.Twists.TwistName(first); ok {
				out = &zygo.SexpStr{S: n}
			}
			return nil
		})
		if err != nil {
			return zygo.SexpNull, err
		}
		return out, nil
	})

	// -----------------------------------------------------------------------
	// (twist-direction "CW" "R" "L" "U" "D" "F" "B")
	// -----------------------------------------------------------------------
	env.AddFunction("twist_direction", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("twist-direction requires a name")
		}
		dirName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("twist-direction: name: %w", err)
		}
		twistNames := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			n, err := toString(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("twist-direction: twist: %w", err)
			}
			twistNames = append(twistNames, n)
		}
		return zygo.SexpNull, s.do("twist-direction", func(st *builder.State) error {
			warn := s.warn("twists")
			perAxis := make(map[puzzle.Axis]puzzle.Twist)
			for _, n := range twistNames {
				id, ok := st.Twists.TwistFromName(n)
				if !ok {
					warn(fmt.Errorf("twist direction %q: no twist named %q", dirName, n))
					continue
				}
				tw, err := st.Twists.Get(id)
				if err != nil {
					return err
				}
				perAxis[tw.Axis] = id
			}
			return st.Twists.AddDirection(dirName, perAxis, warn)
		})
	})
}

// twistOptions reads the naming and expansion keywords of `twist`.
func (s *session) twistOptions(pa kwArgs) (twists.TwistOptions, error) {
	var opts twists.TwistOptions
	strs := []struct {
		kw  string
		dst *string
	}{
		{"prefix", &opts.Prefix},
		{"name", &opts.Name},
		{"suffix", &opts.Suffix},
		{"inv-name", &opts.InvName},
	}
	for _, f := range strs {
		if v, ok := pa.kw[f.kw]; ok {
			str, err := toString(v)
			if err != nil {
				return opts, fmt.Errorf("%s: %w", f.kw, err)
			}
			*f.dst = str
		}
	}
	if v, ok := pa.kw["inv-suffix"]; ok {
		str, err := toString(v)
		if err != nil {
			return opts, fmt.Errorf("inv-suffix: %w", err)
		}
		opts.InvSuffix = &str
	}
	bools := []struct {
		kw  string
		dst **bool
	}{
		{"inverse", &opts.Inverse},
		{"multipliers", &opts.Multipliers},
	}
	for _, f := range bools {
		if v, ok := pa.kw[f.kw]; ok {
			b, err := toBool(v)
			if err != nil {
				return opts, fmt.Errorf("%s: %w", f.kw, err)
			}
			*f.dst = &b
		}
	}
	if v, ok := pa.kw["naming"]; ok {
		b, err := toBool(v)
		if err != nil {
			return opts, fmt.Errorf("naming: %w", err)
		}
		opts.NoNaming = !b
	}
	if v, ok := pa.kw["qtm"]; ok {
		q, err := toInt(v)
		if err != nil {
			return opts, fmt.Errorf("qtm: %w", err)
		}
		opts.QTM = q
	}
	if v, ok := pa.kw["name-fn"]; ok {
		fn, err := toFunction(v)
		if err != nil {
			return opts, fmt.Errorf("name-fn: %w", err)
		}
		opts.NameFunc = func(i int) (string, error) {
			res, err := s.call(fn, &zygo.SexpInt{Val: int64(i)})
			if err != nil {
				return "", err
			}
			return toOptString(res)
		}
	}
	return opts, nil
}

// kwOrNull returns the keyword value or nil.
func kwOrNull(pa kwArgs, kw string) zygo.Sexp {
	if v, ok := pa.kw[kw]; ok {
		return v
	}
	return zygo.SexpNull
}
