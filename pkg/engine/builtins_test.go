package engine

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/chazu/hypercut/pkg/shape"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(color "R" :display "Right")`,
			expect: `(color "R" "__kw_display" "Right")`,
		},
		{
			name:   "multiple keywords",
			input:  `(puzzle "cube" :ndim 3 :name "Cube")`,
			expect: `(puzzle "cube" "__kw_ndim" 3 "__kw_name" "Cube")`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(mark-piece "corner" :inv-name ref)`,
			expect: `(mark_piece "corner" "__kw_inv-name" ref)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec -1 0 0)`,
			expect: `(vec -1 0 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:inv-suffix`,
			expect: `"__kw_inv-suffix"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestParseArgsFlagKeyword(t *testing.T) {
	args := parseArgs(strs(kwPrefix+"cube", kwPrefix+"chiral", "x", "pos"))
	if _, ok := args.kw["cube"]; !ok {
		t.Fatal("expected cube flag")
	}
	if got, _ := toString(args.kw["chiral"]); got != "x" {
		t.Errorf("chiral = %q, want %q", got, "x")
	}
	if len(args.positional) != 1 {
		t.Errorf("expected 1 positional arg, got %d", len(args.positional))
	}
}

func strs(items ...string) []zygo.Sexp {
	out := make([]zygo.Sexp, len(items))
	for i, s := range items {
		out[i] = &zygo.SexpStr{S: s}
	}
	return out
}

// ---------------------------------------------------------------------------
// Cube description
// ---------------------------------------------------------------------------

// cubeSource describes a 2x2x2 cube: six colored carves, three slices
// through the center and face twists expanded over the cube symmetry.
const cubeSource = `
(puzzle "cube_2x2x2" :ndim 3 :name "2x2x2 Cube")
(symmetry :cube)

(def R (color "R" :display "Right" :default "red"))
(def L (color "L" :display "Left" :default "orange"))
(def U (color "U" :display "Up" :default "white"))
(def D (color "D" :display "Down" :default "yellow"))
(def F (color "F" :display "Front" :default "green"))
(def B (color "B" :display "Back" :default "blue"))

(carve (plane (vec 1 0 0) 1) :color R)
(carve (plane (vec -1 0 0) 1) :color L)
(carve (plane (vec 0 1 0) 1) :color U)
(carve (plane (vec 0 -1 0) 1) :color D)
(carve (plane (vec 0 0 1) 1) :color F)
(carve (plane (vec 0 0 -1) 1) :color B)

;; cut into eight corners
(slice (plane (vec 1 0 0) 0))
(slice (plane (vec 0 1 0) 0))
(slice (plane (vec 0 0 1) 0))

(axis (vec 1 0 0) "R")
(axis (vec -1 0 0) "L")
(axis (vec 0 1 0) "U")
(axis (vec 0 -1 0) "D")
(axis (vec 0 0 1) "F")
(axis (vec 0 0 -1) "B")

(twist "R" (rotation (vec 0 1 0) (vec 0 0 1)))
(twist-direction "CW" "R" "L" "U" "D" "F" "B")

(mark-piece "corner" "Corner"
  (fn [p] (and (> (coord p 0) 0) (> (coord p 1) 0) (> (coord p 2) 0))))
(unify-piece-types)
`

func evalOK(t *testing.T, source string) *EvalResult {
	t.Helper()
	res, evalErrs, err := newTestEngine(t).Evaluate(context.Background(), source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if res == nil {
		t.Fatal("expected non-nil result")
	}
	return res
}

func evalErr(t *testing.T, source, want string) {
	t.Helper()
	res, evalErrs, err := newTestEngine(t).Evaluate(context.Background(), source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if res != nil {
		t.Fatal("expected nil result on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatalf("expected eval error containing %q", want)
	}
	if !strings.Contains(evalErrs[0].Message, want) {
		t.Errorf("error = %q, want containing %q", evalErrs[0].Message, want)
	}
}

func TestSandboxOmitsReplacedBuiltins(t *testing.T) {
	env := newSandbox()
	defer env.Stop()
	for _, name := range replacedBuiltins {
		if ok, _ := env.IsBuiltinSym(env.MakeSymbol(name)); ok {
			t.Errorf("%q is still a zygomys builtin", name)
		}
	}
	if ok, _ := env.IsBuiltinSym(env.MakeSymbol("cons")); !ok {
		t.Error("expected other zygomys builtins to remain")
	}
}

// Every puzzle builtin that shares a name with a zygomys builtin must be
// listed in replacedBuiltins, or scripts silently call the zygomys one.
func TestPuzzleBuiltinsDoNotCollide(t *testing.T) {
	env := zygo.NewZlispWithFuncs(map[string]zygo.ZlispUserFunction{})
	defer env.Stop()
	registerBuiltins(env, &session{})
	for name := range zygo.SandboxSafeFunctions() {
		if _, ok := env.FindObject(name); ok && !slices.Contains(replacedBuiltins, name) {
			t.Errorf("puzzle builtin %q collides with a zygomys builtin", name)
		}
	}
}

func TestSliceCallsPuzzleBuiltin(t *testing.T) {
	res := evalOK(t, `
(puzzle "halves")
(slice (plane (vec 1 0 0) 0))
(mark-untyped-pieces)
`)
	if got := res.Puzzle.Shape.Pieces.Len(); got != 2 {
		t.Fatalf("expected 2 pieces, got %d", got)
	}
}

func TestCubeDescription(t *testing.T) {
	res := evalOK(t, cubeSource)
	p := res.Puzzle
	if p == nil {
		t.Fatal("expected a puzzle")
	}
	if p.ID != "cube_2x2x2" || p.Name != "2x2x2 Cube" {
		t.Errorf("id/name = %q/%q", p.ID, p.Name)
	}
	if p.NDim != 3 {
		t.Errorf("expected 3 dimensions, got %d", p.NDim)
	}
	if got := p.Shape.Pieces.Len(); got != 8 {
		t.Errorf("expected 8 pieces, got %d", got)
	}
	if got := p.Shape.Stickers.Len(); got != 24 {
		t.Errorf("expected 24 stickers, got %d", got)
	}
	if got := p.Shape.PieceTypeMasks["corner"].Count(); got != 8 {
		t.Errorf("expected 8 corners, got %d", got)
	}
	if got := p.Twists.Axes.Len(); got != 6 {
		t.Errorf("expected 6 axes, got %d", got)
	}
	if got := len(p.Twists.Twists); got != 18 {
		t.Errorf("expected 18 twists, got %d", got)
	}
	for _, name := range []string{"R", "R'", "R2", "U", "F'", "B2"} {
		if !slices.Contains(p.Twists.Names, name) {
			t.Errorf("expected a twist named %q", name)
		}
	}
	if len(p.Twists.Directions) != 1 || p.Twists.Directions[0].Name != "CW" {
		t.Fatalf("expected direction CW, got %+v", p.Twists.Directions)
	}
	if got := len(p.Twists.Directions[0].Twists); got != 6 {
		t.Errorf("expected CW on 6 axes, got %d", got)
	}
}

func TestCubeDuplicateTwistsWarn(t *testing.T) {
	res := evalOK(t, cubeSource)
	// R2 and L2 generate each other under the symmetry, and so on.
	dups := 0
	for _, w := range res.Warnings {
		if w.Component == "twists" && strings.Contains(w.Message, "identical twist already exists") {
			dups++
		}
	}
	if dups == 0 {
		t.Errorf("expected duplicate twist warnings, got %v", res.WarningMessages())
	}
}

// ---------------------------------------------------------------------------
// Geometry builtins
// ---------------------------------------------------------------------------

func TestAxesOrbitAutonames(t *testing.T) {
	res := evalOK(t, `
(puzzle "axes")
(symmetry :cube)
(axes (vec 1 0 0))
`)
	axes := res.Puzzle.Twists.Axes
	if axes.Len() != 6 {
		t.Fatalf("expected 6 axes, got %d", axes.Len())
	}
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		if !slices.Contains(axes.Names, name) {
			t.Errorf("expected an axis named %q", name)
		}
	}
}

func TestAxesWithoutSymmetry(t *testing.T) {
	res := evalOK(t, `
(puzzle "axes")
(axes (vec 0 0 1) (list "F"))
`)
	if got := res.Puzzle.Twists.Axes.Len(); got != 1 {
		t.Errorf("expected 1 axis, got %d", got)
	}
}

func TestSliceFourDimensions(t *testing.T) {
	res := evalOK(t, `
(puzzle "tesseract" :ndim 4)
(def I (color "I"))
(carve (plane (vec 0 0 0 1) 1) :color I)
(slice (plane (vec 0 0 0 1) 0))
(mark-untyped-pieces)
`)
	if got := res.Puzzle.Shape.Pieces.Len(); got != 2 {
		t.Errorf("expected 2 pieces, got %d", got)
	}
}

func TestSliceRestrictedToPieces(t *testing.T) {
	res := evalOK(t, `
(puzzle "halves")
(slice (plane (vec 1 0 0) 0))
(def right (pieces-in (fn [p] (> (coord p 0) 0))))
(slice (plane (vec 0 1 0) 0) :pieces right)
(mark-untyped-pieces)
`)
	// Only the right half is cut a second time.
	if got := res.Puzzle.Shape.Pieces.Len(); got != 3 {
		t.Errorf("expected 3 pieces, got %d", got)
	}
}

func TestRotationByAngle(t *testing.T) {
	res := evalOK(t, `
(puzzle "turns")
(axis (vec 0 0 1) "Z")
(twist "Z" (rotation (vec 1 0 0) (vec 0 1 0) 90) :inverse true :multipliers true)
`)
	if got := len(res.Puzzle.Twists.Twists); got != 3 {
		t.Errorf("expected 3 twists, got %d", got)
	}
}

// ---------------------------------------------------------------------------
// Twist options
// ---------------------------------------------------------------------------

func TestTwistNameFunction(t *testing.T) {
	res := evalOK(t, `
(puzzle "named")
(axis (vec 1 0 0) "R")
(twist "R" (rotation (vec 0 1 0) (vec 0 0 1))
  :name-fn (fn [i] (cond (== i 1) "cw" (== i 2) "half" "ccw")))
`)
	names := res.Puzzle.Twists.Names
	for _, name := range []string{"cw", "half", "ccw"} {
		if !slices.Contains(names, name) {
			t.Errorf("expected a twist named %q", name)
		}
	}
}

func TestTwistSuffixes(t *testing.T) {
	res := evalOK(t, `
(puzzle "suffixed")
(axis (vec 1 0 0) "R")
(twist "R" (rotation (vec 0 1 0) (vec 0 0 1)) :suffix "w" :inv-suffix "i")
`)
	names := res.Puzzle.Twists.Names
	for _, name := range []string{"Rw", "Ri", "R2w"} {
		if !slices.Contains(names, name) {
			t.Errorf("expected a twist named %q", name)
		}
	}
}

func TestTwistUnknownAxisWarns(t *testing.T) {
	res := evalOK(t, `
(puzzle "missing")
(axis (vec 1 0 0) "R")
(twist "X" (rotation (vec 0 1 0) (vec 0 0 1)))
`)
	if got := len(res.Puzzle.Twists.Twists); got != 0 {
		t.Errorf("expected no twists, got %d", got)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w.Message, `no axis named "X"`) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected missing axis warning, got %v", res.WarningMessages())
	}
}

// ---------------------------------------------------------------------------
// Piece types and colors
// ---------------------------------------------------------------------------

func TestPieceTypeHierarchy(t *testing.T) {
	res := evalOK(t, `
(puzzle "typed")
(slice (plane (vec 1 0 0) 0))
(piece-type-display "half" "Halves")
(mark-piece "half/left" "Left half" (fn [p] (< (coord p 0) 0)))
(mark-piece "half/right" "Right half" (fn [p] (> (coord p 0) 0)))
`)
	masks := res.Puzzle.Shape.PieceTypeMasks
	for _, name := range []string{"half/left", "half/right"} {
		if got := masks[name].Count(); got != 1 {
			t.Errorf("%s: expected 1 piece, got %d", name, got)
		}
	}
}

func TestDeleteUntypedPieces(t *testing.T) {
	res := evalOK(t, `
(puzzle "trimmed")
(slice (plane (vec 1 0 0) 0))
(mark-piece "keep" "" (fn [p] (> (coord p 0) 0)))
(delete-untyped-pieces)
`)
	if got := res.Puzzle.Shape.Pieces.Len(); got != 1 {
		t.Errorf("expected 1 piece, got %d", got)
	}
}

func TestColorScheme(t *testing.T) {
	res := evalOK(t, `
(puzzle "schemed")
(def R (color "R"))
(def L (color "L"))
(carve (plane (vec 1 0 0) 1) :color R)
(carve (plane (vec -1 0 0) 1) :color L)
(color-scheme "Classic" "R" "red" "L" "orange")
`)
	colors := res.Puzzle.Shape.Colors
	if len(colors.Colors) != 2 {
		t.Fatalf("expected 2 colors, got %d", len(colors.Colors))
	}
	idx := slices.IndexFunc(colors.Schemes, func(s shape.ColorScheme) bool { return s.Name == "Classic" })
	if idx < 0 {
		t.Fatal("expected scheme Classic")
	}
	if got := colors.Schemes[idx].Colors; !slices.Equal(got, []string{"red", "orange"}) {
		t.Errorf("Classic = %v, want [red orange]", got)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "no puzzle",
			source: `(slice (plane (vec 1 0 0) 0))`,
			want:   "no puzzle defined",
		},
		{
			name:   "puzzle defined twice",
			source: "(puzzle \"a\")\n(puzzle \"b\")",
			want:   "already defined",
		},
		{
			name:   "zero plane normal",
			source: "(puzzle \"a\")\n(plane (vec 0 0 0) 1)",
			want:   "plane",
		},
		{
			name:   "bad color argument",
			source: "(puzzle \"a\")\n(carve (plane (vec 1 0 0) 1) :color 3)",
			want:   "expected color",
		},
		{
			name:   "duplicate axis",
			source: "(puzzle \"a\")\n(axis (vec 1 0 0) \"R\")\n(axis (vec 2 0 0) \"S\")",
			want:   "axis",
		},
		{
			name: "mutation inside callback",
			source: "(puzzle \"a\")\n" +
				"(mark-piece \"x\" \"\" (fn [p] (slice (plane (vec 1 0 0) 0))))",
			want: "inside a callback",
		},
		{
			name:   "unify without symmetry",
			source: "(puzzle \"a\")\n(unify-piece-types)",
			want:   "no symmetry group set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalErr(t, tt.source, tt.want)
		})
	}
}
