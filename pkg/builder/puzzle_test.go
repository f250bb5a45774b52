package builder

import (
	"context"
	"io"
	"math"
	"sync"
	"testing"

	"github.com/chazu/hypercut/pkg/config"
	"github.com/chazu/hypercut/pkg/geom"
	"github.com/chazu/hypercut/pkg/puzzle"
	"github.com/chazu/hypercut/pkg/symmetry"
	"github.com/chazu/hypercut/pkg/twists"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPuzzle(t *testing.T, ndim int) *Puzzle {
	t.Helper()
	cfg := config.Default()
	cfg.Shape.PrimordialCubeRadius = 10
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	p, err := New("test", ndim, cfg, logger)
	require.NoError(t, err)
	return p
}

// buildCube defines a 2x2x2 cube with face-turning twists.
func buildCube(t *testing.T, p *Puzzle) {
	t.Helper()
	faces := []struct {
		name   string
		normal geom.Vector
	}{
		{"R", geom.Vector{1, 0, 0}}, {"L", geom.Vector{-1, 0, 0}},
		{"U", geom.Vector{0, 1, 0}}, {"D", geom.Vector{0, -1, 0}},
		{"F", geom.Vector{0, 0, 1}}, {"B", geom.Vector{0, 0, -1}},
	}
	err := p.Do(context.Background(), func(s *State) error {
		sym, err := symmetry.Hyperoctahedral(3)
		if err != nil {
			return err
		}
		s.Symmetry = sym
		for i, f := range faces {
			c, err := s.Shape.Colors.GetOrAddWithName(f.name, puzzle.IgnoreWarnings)
			if err != nil {
				return err
			}
			outer, err := geom.NewHyperplane(f.normal, 1)
			if err != nil {
				return err
			}
			if err := s.Shape.Carve(nil, outer, &c); err != nil {
				return err
			}
			if _, err := s.Twists.Axes.Add(f.normal, f.name, puzzle.IgnoreWarnings); err != nil {
				return err
			}
			if i%2 == 0 {
				mid, err := geom.NewHyperplane(f.normal, 0)
				if err != nil {
					return err
				}
				if err := s.Shape.Slice(nil, mid, nil, nil); err != nil {
					return err
				}
			}
		}
		r, err := geom.Rotation(3, geom.Vector{0, 1, 0}, geom.Vector{0, 0, 1}, math.Pi/2)
		if err != nil {
			return err
		}
		_, _, err = s.Twists.AddWithMultiples(s.Symmetry, 0, r, twists.TwistOptions{}, puzzle.IgnoreWarnings)
		return err
	})
	require.NoError(t, err)
}

func TestBuildCube(t *testing.T) {
	p := newPuzzle(t, 3)
	p.SetName("2x2x2")
	buildCube(t, p)

	require.NoError(t, p.Do(context.Background(), func(s *State) error {
		return s.Shape.MarkUntypedPieces()
	}))

	out, err := p.Build(context.Background(), puzzle.IgnoreWarnings)
	require.NoError(t, err)

	assert.Equal(t, "2x2x2", out.Name)
	assert.Equal(t, 3, out.NDim)
	assert.Equal(t, 8, out.Shape.Pieces.Len())
	assert.Equal(t, 24, out.Shape.Stickers.Len())
	assert.Equal(t, 6, out.Twists.Axes.Len())
	assert.Len(t, out.Twists.Twists, 18)
	assert.Contains(t, out.Twists.Names, "R2")
}

func TestUnifyNeedsSymmetry(t *testing.T) {
	p := newPuzzle(t, 3)
	err := p.Do(context.Background(), func(s *State) error {
		return s.UnifyPieceTypes(puzzle.IgnoreWarnings)
	})
	assert.ErrorIs(t, err, ErrNoSymmetry)
}

func TestUnifyPieceTypes(t *testing.T) {
	p := newPuzzle(t, 3)
	buildCube(t, p)

	err := p.Do(context.Background(), func(s *State) error {
		corner := func(pt geom.Point) bool {
			return pt.At(0) > 0 && pt.At(1) > 0 && pt.At(2) > 0
		}
		if err := s.Shape.MarkPieceByRegion("corner", "Corner", corner, puzzle.IgnoreWarnings); err != nil {
			return err
		}
		return s.UnifyPieceTypes(puzzle.IgnoreWarnings)
	})
	require.NoError(t, err)

	out, err := p.Build(context.Background(), puzzle.IgnoreWarnings)
	require.NoError(t, err)
	assert.Equal(t, 8, out.Shape.Pieces.Len())
	assert.Equal(t, 8, out.Shape.PieceTypeMasks["corner"].Count())
}

func TestDoRefusesAfterCancel(t *testing.T) {
	p := newPuzzle(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := p.Do(ctx, func(*State) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	_, err = p.Build(ctx, puzzle.IgnoreWarnings)
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestDoSerializesMutations(t *testing.T) {
	p := newPuzzle(t, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := p.Do(context.Background(), func(s *State) error {
				h, err := geom.NewHyperplane(geom.Vector{1, 0}, float64(i)-3.5)
				if err != nil {
					return err
				}
				return s.Shape.Slice(nil, h, nil, nil)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Eight parallel slices leave nine strips no matter the order.
	require.NoError(t, p.Do(context.Background(), func(s *State) error {
		assert.Equal(t, 9, s.Shape.ActivePieces().Len())
		return nil
	}))
}
