// Package compiler chains the front end, the analyzer, the optimizer and a
// code generator. Every stage can be the last one.
package compiler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xplshn/astro/pkg/analyzer"
	"github.com/xplshn/astro/pkg/codegen"
	"github.com/xplshn/astro/pkg/config"
	"github.com/xplshn/astro/pkg/ir"
	"github.com/xplshn/astro/pkg/logger"
	"github.com/xplshn/astro/pkg/optimizer"
	"github.com/xplshn/astro/pkg/parser"
	"github.com/xplshn/astro/pkg/syntax"
	"github.com/xplshn/astro/pkg/util"
	"go.uber.org/zap"
)

// OutputType names the stage the pipeline stops after
type OutputType string

const (
	Parsed    OutputType = "parsed"
	Analyzed  OutputType = "analyzed"
	Optimized OutputType = "optimized"
	JS        OutputType = "js"
	C         OutputType = "c"
	LLVM      OutputType = "llvm"
	QBE       OutputType = "qbe"
	// Asm is QBE IR lowered to native assembly
	Asm OutputType = "asm"
)

var OutputTypes = []OutputType{Parsed, Analyzed, Optimized, JS, C, LLVM, QBE, Asm}

// ParseOutputType validates a user supplied output type
func ParseOutputType(s string) (OutputType, error) {
	for _, t := range OutputTypes {
		if string(t) == s {
			return t, nil
		}
	}
	names := make([]string, len(OutputTypes))
	for i, t := range OutputTypes {
		names[i] = string(t)
	}
	return "", fmt.Errorf("unknown output type '%s'. Supported: %s", s, strings.Join(names, ", "))
}

// Result is what a successful compilation produced
type Result struct {
	// Output is the text for the requested stage
	Output string
	// Program is the graph after the last graph stage that ran, if any
	Program  *ir.Program
	Warnings []util.Warning
	Stats    optimizer.Stats
}

// Compiler runs compilations with one configuration. It holds no
// per-compilation state and may be shared between goroutines as long as
// the configuration is not modified.
type Compiler struct {
	cfg *config.Config
}

// New returns a compiler using cfg, or the defaults when cfg is nil
func New(cfg *config.Config) *Compiler {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Compiler{cfg: cfg}
}

// Compile runs a default compiler with the logger found in ctx and returns
// only the output text.
func Compile(ctx context.Context, source string, output OutputType) (string, error) {
	res, err := New(nil).Compile(ctx, source, output)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// Compile compiles source, registered as file 0 for diagnostics. It fails
// on the first error and never returns partial output.
func (c *Compiler) Compile(ctx context.Context, source string, output OutputType) (*Result, error) {
	log := logger.FromContext(ctx)
	if _, err := ParseOutputType(string(output)); err != nil {
		return nil, err
	}

	start := time.Now()
	root, err := parser.Parse([]rune(source), 0)
	if err != nil {
		return nil, err
	}
	nodes := 0
	syntax.Walk(root, func(syntax.Node) bool { nodes++; return true })
	log.Debug("parsed",
		zap.Int("statements", len(root.Children())),
		zap.Int("nodes", nodes),
		zap.Duration("elapsed", time.Since(start)))
	if output == Parsed {
		return &Result{Output: "Syntax is ok"}, nil
	}

	start = time.Now()
	a := analyzer.NewAnalyzer(c.cfg)
	prog, err := a.Analyze(root)
	if err != nil {
		return nil, err
	}
	res := &Result{Program: prog, Warnings: a.Warnings()}
	log.Debug("analyzed",
		zap.Int("statements", len(prog.Statements)),
		zap.Int("entities", len(prog.Entities)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", time.Since(start)))
	if output == Analyzed {
		res.Output = ir.Dump(prog)
		return res, nil
	}

	start = time.Now()
	o := optimizer.NewOptimizer(c.cfg)
	prog = o.Optimize(prog)
	res.Stats = o.Stats()
	log.Debug("optimized",
		zap.Int("statements", len(prog.Statements)),
		zap.Stringer("rewrites", res.Stats),
		zap.Duration("elapsed", time.Since(start)))
	if output == Optimized {
		res.Output = ir.Dump(prog)
		return res, nil
	}

	start = time.Now()
	if output == Asm {
		res.Output, err = codegen.NewQBEBackend(c.cfg.QbeTarget).Assemble(prog)
	} else {
		var b codegen.Backend
		if b, err = codegen.Select(codegen.Target(output), c.cfg.QbeTarget); err == nil {
			res.Output, err = b.Generate(prog)
		}
	}
	if err != nil {
		return nil, err
	}
	log.Debug("generated", zap.String("target", string(output)), zap.Int("bytes", len(res.Output)), zap.Duration("elapsed", time.Since(start)))
	return res, nil
}
