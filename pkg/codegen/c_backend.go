package codegen

import (
	"math"
	"strings"

	"github.com/xplshn/astro/pkg/ir"
)

var cLibrary = map[ir.Builtin]string{
	ir.BuiltinPi:    "M_PI",
	ir.BuiltinSqrt:  "sqrt",
	ir.BuiltinSin:   "sin",
	ir.BuiltinCos:   "cos",
	ir.BuiltinHypot: "hypot",
	ir.BuiltinPrint: "printf",
}

// cDeclLine is the line reserved for the variable declarations
const cDeclLine = 4

type cBackend struct{}

func NewCBackend() Backend { return cBackend{} }

func (cBackend) Name() string { return string(TargetC) }

type cGen struct {
	prog  *ir.Program
	names *namer
	out   []string
}

func (cBackend) Generate(prog *ir.Program) (code string, err error) {
	defer recoverInternal(&err)

	g := &cGen{prog: prog, names: newNamer(prog)}
	g.out = append(g.out,
		"#include <stdio.h>",
		"#include <stdlib.h>",
		"#include <math.h>",
		"int main() {",
		"",
	)
	for _, s := range prog.Statements {
		g.stmt(s)
	}
	g.out = append(g.out, "return 0;", "}")
	if len(g.names.order) > 0 {
		g.out[cDeclLine] = "double " + strings.Join(g.names.order, ", ") + ";"
	}
	return joinLines(g.out), nil
}

func (g *cGen) library(id ir.EntityID) string {
	s, ok := cLibrary[builtin(g.prog, id)]
	if !ok {
		fail("c", "no binding for %s", g.prog.Entity(id).Name)
	}
	return s
}

func (g *cGen) variable(id ir.EntityID) string {
	if builtin(g.prog, id) != ir.NotBuiltin {
		return g.library(id)
	}
	return g.names.name(id)
}

func (g *cGen) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.Assignment:
		source := g.expr(s.Source)
		target := g.variable(s.Target)
		g.names.declared(target)
		g.out = append(g.out, target+" = "+source+";")
	case *ir.Call:
		if builtin(g.prog, s.Callee) != ir.BuiltinPrint {
			fail("c", "no binding for procedure %s", g.prog.Entity(s.Callee).Name)
		}
		specs := make([]string, len(s.Args))
		for i := range specs {
			specs[i] = "%g"
		}
		format := `"` + strings.Join(specs, " ") + `\n"`
		args := append([]string{format}, g.exprs(s.Args)...)
		g.out = append(g.out, g.library(s.Callee)+"("+strings.Join(args, ", ")+");")
	default:
		fail("c", "unknown statement %T", s)
	}
}

func (g *cGen) exprs(es []ir.Expr) []string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = g.expr(e)
	}
	return parts
}

// cNumber always yields a double constant, so 5 / 8 stays a float division
func cNumber(v float64) string {
	switch {
	case math.IsNaN(v): return "NAN"
	case math.IsInf(v, 1): return "INFINITY"
	case math.IsInf(v, -1): return "(-INFINITY)"
	}
	s := formatFloat(v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return parenNegative(s, v)
}

func (g *cGen) expr(e ir.Expr) string {
	switch e := e.(type) {
	case *ir.Number:
		return cNumber(e.Value)
	case *ir.VarRef:
		return g.variable(e.Var)
	case *ir.FuncCall:
		return g.library(e.Callee) + "(" + strings.Join(g.exprs(e.Args), ",") + ")"
	case *ir.Binary:
		l, r := g.expr(e.Left), g.expr(e.Right)
		switch e.Op {
		case ir.OpPow: return "pow(" + l + ", " + r + ")"
		case ir.OpRem: return "fmod(" + l + ", " + r + ")"
		}
		return "(" + l + " " + e.Op.String() + " " + r + ")"
	case *ir.Unary:
		return e.Op.String() + "(" + g.expr(e.Operand) + ")"
	default:
		fail("c", "unknown expression %T", e)
		return ""
	}
}
