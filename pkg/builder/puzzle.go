// Package builder holds the shared, lock-guarded state of a puzzle under
// construction. Every mutation goes through Puzzle.Do, which runs one
// top-level call at a time and refuses to start once its context is done.
package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/hypercut/pkg/config"
	"github.com/chazu/hypercut/pkg/kernel/flat"
	"github.com/chazu/hypercut/pkg/puzzle"
	"github.com/chazu/hypercut/pkg/shape"
	"github.com/chazu/hypercut/pkg/symmetry"
	"github.com/chazu/hypercut/pkg/twists"
	"github.com/sirupsen/logrus"
)

// ErrCanceled is returned when a call is refused because its context is
// done.
var ErrCanceled = errors.New("puzzle construction canceled")

// ErrNoSymmetry is returned by operations that need a symmetry group when
// none is set.
var ErrNoSymmetry = errors.New("no symmetry group set")

// State is the mutable content of a puzzle. It is only reachable through
// Puzzle.Do.
type State struct {
	Shape  *shape.ShapeBuilder
	Twists *twists.TwistSystemBuilder
	// Symmetry is the group used to expand twists and unify piece types.
	// Nil means no symmetry.
	Symmetry *symmetry.Group
}

// UnifyPieceTypes propagates piece types over the current symmetry group.
func (s *State) UnifyPieceTypes(warn puzzle.WarnFunc) error {
	if s.Symmetry == nil {
		return ErrNoSymmetry
	}
	elems, err := s.Symmetry.Elements(0)
	if err != nil {
		return err
	}
	return s.Shape.UnifyPieceTypes(elems, warn)
}

// Puzzle is a puzzle under construction.
type Puzzle struct {
	ID   string
	NDim int

	logger logrus.FieldLogger

	mu    sync.Mutex
	state State
	name  string
}

// New returns a puzzle whose shape is the primordial cube of ndim-space.
func New(id string, ndim int, cfg *config.Config, logger logrus.FieldLogger) (*Puzzle, error) {
	space, err := flat.New(ndim)
	if err != nil {
		return nil, err
	}
	sb, err := shape.NewWithPrimordialCube(id, space, cfg.Shape.PrimordialCubeRadius)
	if err != nil {
		return nil, fmt.Errorf("puzzle %q: %w", id, err)
	}
	sb.RemoveInternals = cfg.Shape.RemoveInternals

	tw := twists.NewAdHocTwistSystem(id, ndim)
	tw.MaxTwistRepeat = cfg.Twists.MaxTwistRepeat

	return &Puzzle{
		ID:     id,
		NDim:   ndim,
		logger: logger.WithField("puzzle", id),
		state:  State{Shape: sb, Twists: tw},
	}, nil
}

// SetName sets the display name of the puzzle.
func (p *Puzzle) SetName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
}

// Name returns the display name of the puzzle, or its id.
func (p *Puzzle) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.name == "" {
		return p.ID
	}
	return p.name
}

// Do runs fn with exclusive access to the puzzle state. It returns
// ErrCanceled without calling fn if ctx is already done. A call in progress
// is never interrupted.
func (p *Puzzle) Do(ctx context.Context, fn func(*State) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(&p.state)
}

// Output is a fully built puzzle.
type Output struct {
	ID     string
	Name   string
	NDim   int
	Shape  *shape.BuildOutput
	Twists *twists.TwistSystem
}

// Build builds the shape and twist system. Warnings from both go to warn
// and to the logger.
func (p *Puzzle) Build(ctx context.Context, warn puzzle.WarnFunc) (*Output, error) {
	out := &Output{ID: p.ID, Name: p.Name(), NDim: p.NDim}
	err := p.Do(ctx, func(s *State) error {
		var err error
		shapeWarn := puzzle.Tee(warn, puzzle.LogWarnings(p.logger, "shape"))
		if out.Shape, err = s.Shape.Build(shapeWarn); err != nil {
			return fmt.Errorf("building shape: %w", err)
		}
		twistWarn := puzzle.Tee(warn, puzzle.LogWarnings(p.logger, "twists"))
		if out.Twists, err = s.Twists.Build(twistWarn); err != nil {
			return fmt.Errorf("building twist system: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.WithFields(logrus.Fields{
		"pieces":   out.Shape.Pieces.Len(),
		"stickers": out.Shape.Stickers.Len(),
		"axes":     out.Twists.Axes.Len(),
		"twists":   len(out.Twists.Twists),
	}).Debug("built puzzle")
	return out, nil
}
