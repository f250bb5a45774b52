// Package engine provides the Lisp evaluation engine for hypercut.
// It wraps zygomys in a sandboxed environment and builds a puzzle from the
// description in user source code.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/hypercut/pkg/builder"
	"github.com/chazu/hypercut/pkg/config"
	"github.com/chazu/hypercut/pkg/puzzle"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Component string
	Message   string
}

func (w EvalWarning) String() string {
	return w.Component + ": " + w.Message
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	// Puzzle is nil when the source does not define one.
	Puzzle   *builder.Output
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for puzzle evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	cfg    *config.Config
	logger logrus.FieldLogger
}

// NewEngine creates a new Engine instance.
func NewEngine(cfg *config.Config, logger logrus.FieldLogger) *Engine {
	return &Engine{cfg: cfg, logger: logger.WithField("component", "engine")}
}

// Evaluate takes Lisp source code and builds the puzzle it describes.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval/build failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, cancel, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(ctx context.Context, source string) (*EvalResult, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(ctx, source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ctx, cancel, ch, gen, &e.mu, &e.generation, e.cfg.Engine.EvalTimeout)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(ctx context.Context, source string) (*EvalResult, []EvalError, error) {
	// Empty source is a valid program that defines no puzzle.
	if strings.TrimSpace(source) == "" {
		return &EvalResult{}, nil, nil
	}

	env := newSandbox()
	defer env.Stop()

	s := &session{ctx: ctx, cfg: e.cfg, logger: e.logger}
	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, nil, fmt.Errorf("evaluation canceled: %w", ctx.Err())
		}
		return nil, parseZygomysError(err), nil
	}

	res := &EvalResult{}
	if s.puzzle != nil {
		out, err := s.puzzle.Build(ctx, s.collect("build"))
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, err
			}
			return nil, []EvalError{{Message: err.Error()}}, nil
		}
		res.Puzzle = out
	}
	res.Warnings = s.warnings
	return res, nil, nil
}

// session is the state shared by the builtins of one evaluation.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	logger logrus.FieldLogger
	env    *zygo.Zlisp

	puzzle   *builder.Puzzle
	warnings []EvalWarning

	// inCallback is set while a script function runs under the puzzle lock.
	inCallback bool
}

// collect records warnings without logging them. The builder logs its own
// build warnings.
func (s *session) collect(component string) puzzle.WarnFunc {
	return func(err error) {
		s.warnings = append(s.warnings, EvalWarning{Component: component, Message: err.Error()})
	}
}

// warn records and logs warnings from the named component.
func (s *session) warn(component string) puzzle.WarnFunc {
	return puzzle.Tee(s.collect(component), puzzle.LogWarnings(s.logger, component))
}

// ndim is the dimension of the current puzzle, or fallback if there is none.
func (s *session) ndim(fallback int) int {
	if s.puzzle != nil {
		return s.puzzle.NDim
	}
	return fallback
}

// WarningMessages returns the warning texts of r.
func (r *EvalResult) WarningMessages() []string {
	return lo.Map(r.Warnings, func(w EvalWarning, _ int) string { return w.String() })
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
