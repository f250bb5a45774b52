// Command hypercut builds the puzzle described by a Lisp file and prints a
// summary of its pieces, stickers, axes and twists.
//
//	hypercut [-config hypercut.yaml] [-stl out.stl] [-json] puzzle.lisp
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chazu/hypercut/pkg/config"
	"github.com/chazu/hypercut/pkg/kernel/sdfx"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hypercut", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	stlPath := fs.String("stl", "", "write the sticker geometry of a 3D puzzle to this STL file")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: hypercut [flags] puzzle.lisp")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "hypercut: %v\n", err)
		return 1
	}
	logger, err := config.NewLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "hypercut: %v\n", err)
		return 1
	}

	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		logger.WithError(err).Error("failed to read puzzle description")
		return 1
	}

	app := NewApp(cfg, logger)
	result := app.Evaluate(context.Background(), string(source))

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.WithError(err).Error("failed to encode result")
			return 1
		}
	} else {
		printResult(stdout, result)
	}
	if len(result.Errors) > 0 {
		return 1
	}

	if *stlPath != "" {
		if result.output == nil {
			logger.Error("no puzzle to export")
			return 1
		}
		if err := sdfx.SaveSTL(*stlPath, result.output.Shape.Mesh); err != nil {
			logger.WithError(err).Error("STL export failed")
			return 1
		}
		logger.WithField("path", *stlPath).Info("wrote STL")
	}
	return 0
}

func printResult(w io.Writer, r EvalResult) {
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "error: line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "error: %s\n", e.Message)
		}
	}
	for _, wn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", wn.Component, wn.Message)
	}
	p := r.Puzzle
	if p == nil {
		if len(r.Errors) == 0 {
			fmt.Fprintln(w, "no puzzle defined")
		}
		return
	}
	fmt.Fprintf(w, "%s (%s, %dD)\n", p.Name, p.ID, p.NDim)
	fmt.Fprintf(w, "  pieces:     %d\n", p.Pieces)
	fmt.Fprintf(w, "  stickers:   %d\n", p.Stickers)
	fmt.Fprintf(w, "  colors:     %s\n", strings.Join(p.Colors, " "))
	types := make([]string, 0, len(p.PieceTypes))
	for name, n := range p.PieceTypes {
		types = append(types, fmt.Sprintf("%s=%d", name, n))
	}
	sort.Strings(types)
	fmt.Fprintf(w, "  pieceTypes: %s\n", strings.Join(types, " "))
	fmt.Fprintf(w, "  axes:       %s\n", strings.Join(p.Axes, " "))
	fmt.Fprintf(w, "  twists:     %d\n", len(p.Twists))
	if len(p.Directions) > 0 {
		fmt.Fprintf(w, "  directions: %s\n", strings.Join(p.Directions, " "))
	}
}
