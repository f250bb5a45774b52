package main

import (
	"context"

	"github.com/chazu/hypercut/pkg/builder"
	"github.com/chazu/hypercut/pkg/config"
	"github.com/chazu/hypercut/pkg/engine"
	"github.com/sirupsen/logrus"
)

// App evaluates puzzle descriptions and summarizes the built puzzles.
type App struct {
	engine *engine.Engine
	logger logrus.FieldLogger
}

// PuzzleData is the JSON-serializable summary of a built puzzle.
type PuzzleData struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	NDim       int            `json:"ndim"`
	Pieces     int            `json:"pieces"`
	Stickers   int            `json:"stickers"`
	Colors     []string       `json:"colors"`
	PieceTypes map[string]int `json:"pieceTypes"`
	Axes       []string       `json:"axes"`
	Twists     []string       `json:"twists"`
	Directions []string       `json:"directions"`
	Triangles  int            `json:"triangles"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// WarningData is a JSON-serializable warning.
type WarningData struct {
	Component string `json:"component"`
	Message   string `json:"message"`
}

// EvalResult is the full result of evaluating one description.
type EvalResult struct {
	Puzzle   *PuzzleData     `json:"puzzle"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []WarningData   `json:"warnings"`

	// output is the built puzzle, kept for exporters.
	output *builder.Output
}

// NewApp creates a new App.
func NewApp(cfg *config.Config, logger logrus.FieldLogger) *App {
	return &App{
		engine: engine.NewEngine(cfg, logger),
		logger: logger,
	}
}

// Evaluate takes Lisp source and returns the puzzle summary + errors.
func (a *App) Evaluate(ctx context.Context, source string) EvalResult {
	result := EvalResult{
		Errors:   []EvalErrorData{},
		Warnings: []WarningData{},
	}

	res, evalErrs, err := a.engine.Evaluate(ctx, source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.logger.WithError(err).Error("evaluation failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, WarningData{Component: w.Component, Message: w.Message})
	}
	if res.Puzzle != nil {
		result.Puzzle = summarize(res.Puzzle)
		result.output = res.Puzzle
	}
	return result
}

func summarize(out *builder.Output) *PuzzleData {
	p := &PuzzleData{
		ID:         out.ID,
		Name:       out.Name,
		NDim:       out.NDim,
		Pieces:     out.Shape.Pieces.Len(),
		Stickers:   out.Shape.Stickers.Len(),
		PieceTypes: make(map[string]int, len(out.Shape.PieceTypeMasks)),
		Axes:       out.Twists.Axes.Names,
		Twists:     out.Twists.Names,
		Triangles:  out.Shape.Mesh.TriangleCount(),
	}
	for _, c := range out.Shape.Colors.Colors {
		p.Colors = append(p.Colors, c.Name)
	}
	for name, mask := range out.Shape.PieceTypeMasks {
		p.PieceTypes[name] = mask.Count()
	}
	for _, d := range out.Twists.Directions {
		p.Directions = append(p.Directions, d.Name)
	}
	return p
}
