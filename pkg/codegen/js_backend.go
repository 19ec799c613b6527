package codegen

import (
	"math"
	"strings"

	"github.com/xplshn/astro/pkg/ir"
)

var jsLibrary = map[ir.Builtin]string{
	ir.BuiltinPi:    "Math.PI",
	ir.BuiltinSqrt:  "Math.sqrt",
	ir.BuiltinSin:   "Math.sin",
	ir.BuiltinCos:   "Math.cos",
	ir.BuiltinHypot: "Math.hypot",
	ir.BuiltinPrint: "console.log",
}

type jsBackend struct{}

func NewJSBackend() Backend { return jsBackend{} }

func (jsBackend) Name() string { return string(TargetJS) }

// jsGen is the state of one generation
type jsGen struct {
	prog  *ir.Program
	names *namer
	out   []string
}

// Generate emits one statement per line. The first line declares every
// assigned variable, or is empty when there are none.
func (jsBackend) Generate(prog *ir.Program) (code string, err error) {
	defer recoverInternal(&err)

	g := &jsGen{prog: prog, names: newNamer(prog), out: []string{""}}
	for _, s := range prog.Statements {
		g.stmt(s)
	}
	if len(g.names.order) > 0 {
		g.out[0] = "let " + strings.Join(g.names.order, ", ") + ";"
	}
	return joinLines(g.out), nil
}

func (g *jsGen) library(id ir.EntityID) string {
	s, ok := jsLibrary[builtin(g.prog, id)]
	if !ok {
		fail("js", "no binding for %s", g.prog.Entity(id).Name)
	}
	return s
}

func (g *jsGen) variable(id ir.EntityID) string {
	if builtin(g.prog, id) != ir.NotBuiltin {
		return g.library(id)
	}
	return g.names.name(id)
}

func (g *jsGen) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.Assignment:
		source := g.expr(s.Source)
		target := g.variable(s.Target)
		g.names.declared(target)
		g.out = append(g.out, target+" = "+source+";")
	case *ir.Call:
		g.out = append(g.out, g.library(s.Callee)+"("+g.args(s.Args)+");")
	default:
		fail("js", "unknown statement %T", s)
	}
}

func (g *jsGen) args(es []ir.Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = g.expr(e)
	}
	return strings.Join(parts, ",")
}

func jsNumber(v float64) string {
	switch {
	case math.IsNaN(v): return "NaN"
	case math.IsInf(v, 1): return "Infinity"
	case math.IsInf(v, -1): return "(-Infinity)"
	}
	return parenNegative(formatFloat(v), v)
}

func (g *jsGen) expr(e ir.Expr) string {
	switch e := e.(type) {
	case *ir.Number:
		return jsNumber(e.Value)
	case *ir.VarRef:
		return g.variable(e.Var)
	case *ir.FuncCall:
		return g.library(e.Callee) + "(" + g.args(e.Args) + ")"
	case *ir.Binary:
		l := g.expr(e.Left)
		// JavaScript rejects a unary operator directly before **
		if _, ok := e.Left.(*ir.Unary); ok && e.Op == ir.OpPow {
			l = "(" + l + ")"
		}
		return "(" + l + " " + e.Op.String() + " " + g.expr(e.Right) + ")"
	case *ir.Unary:
		return e.Op.String() + "(" + g.expr(e.Operand) + ")"
	default:
		fail("js", "unknown expression %T", e)
		return ""
	}
}
