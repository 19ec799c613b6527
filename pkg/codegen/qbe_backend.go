package codegen

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xplshn/astro/pkg/ir"
)

var qbeLibrary = map[ir.Builtin]string{
	ir.BuiltinSqrt:  "$sqrt",
	ir.BuiltinSin:   "$sin",
	ir.BuiltinCos:   "$cos",
	ir.BuiltinHypot: "$hypot",
}

var qbeOps = map[ir.Op]string{
	ir.OpAdd: "add",
	ir.OpSub: "sub",
	ir.OpMul: "mul",
	ir.OpDiv: "div",
}

// QBEBackend emits QBE IR. Assemble lowers that IR to native assembly for
// Target, the host ABI when empty.
type QBEBackend struct {
	Target string
}

func NewQBEBackend(target string) *QBEBackend { return &QBEBackend{Target: target} }

func (*QBEBackend) Name() string { return string(TargetQBE) }

// qbeGen mirrors llvmGen: temporaries are %t0, %t1, ... and assignments
// only rebind the variable to an operand.
type qbeGen struct {
	prog    *ir.Program
	next    int
	binding map[ir.EntityID]string
	formats map[int]bool
	out     *strings.Builder
}

func (b *QBEBackend) Generate(prog *ir.Program) (code string, err error) {
	return b.GenerateIR(prog)
}

// GenerateIR renders prog as a QBE module with a single $main
func (b *QBEBackend) GenerateIR(prog *ir.Program) (code string, err error) {
	defer recoverInternal(&err)

	var body strings.Builder
	g := &qbeGen{prog: prog, binding: make(map[ir.EntityID]string), formats: make(map[int]bool), out: &body}
	for _, s := range prog.Statements {
		g.stmt(s)
	}

	var sb strings.Builder
	arities := make([]int, 0, len(g.formats))
	for n := range g.formats {
		arities = append(arities, n)
	}
	sort.Ints(arities)
	for _, n := range arities {
		specs := make([]string, n)
		for i := range specs {
			specs[i] = "%g"
		}
		fmt.Fprintf(&sb, "data %s = { b %s, b 0 }\n", qbeFormatName(n), strconv.Quote(strings.Join(specs, " ")+"\n"))
	}
	sb.WriteString("\nexport function w $main() {\n@start\n")
	sb.WriteString(body.String())
	sb.WriteString("\tret 0\n}\n")
	return sb.String(), nil
}

func qbeFormatName(n int) string {
	if n == 1 {
		return "$fmt"
	}
	return fmt.Sprintf("$fmt_%d", n)
}

func (g *qbeGen) temp() string {
	t := fmt.Sprintf("%%t%d", g.next)
	g.next++
	return t
}

func (g *qbeGen) emit(format string, args ...interface{}) {
	g.out.WriteString("\t")
	fmt.Fprintf(g.out, format, args...)
	g.out.WriteString("\n")
}

func (g *qbeGen) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.Assignment:
		g.binding[s.Target] = g.expr(s.Source)
	case *ir.Call:
		if builtin(g.prog, s.Callee) != ir.BuiltinPrint {
			fail("qbe", "no binding for procedure %s", g.prog.Entity(s.Callee).Name)
		}
		args := []string{"l " + qbeFormatName(len(s.Args)), "..."}
		for _, a := range s.Args {
			args = append(args, "d "+g.expr(a))
		}
		g.formats[len(s.Args)] = true
		g.emit("%s =w call $printf(%s)", g.temp(), strings.Join(args, ", "))
	default:
		fail("qbe", "unknown statement %T", s)
	}
}

// number returns an operand for v. QBE has no spelling for infinities and
// NaN, so those are built from their bit pattern.
func (g *qbeGen) number(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		t := g.temp()
		g.emit("%s =d cast %d", t, int64(math.Float64bits(v)))
		return t
	}
	return "d_" + formatFloat(v)
}

func (g *qbeGen) call(fn string, args ...string) string {
	for i, a := range args {
		args[i] = "d " + a
	}
	t := g.temp()
	g.emit("%s =d call %s(%s)", t, fn, strings.Join(args, ", "))
	return t
}

func (g *qbeGen) expr(e ir.Expr) string {
	switch e := e.(type) {
	case *ir.Number:
		return g.number(e.Value)
	case *ir.VarRef:
		if builtin(g.prog, e.Var) == ir.BuiltinPi {
			return g.number(math.Pi)
		}
		op, ok := g.binding[e.Var]
		if !ok {
			fail("qbe", "%s read before assignment", g.prog.Entity(e.Var).Name)
		}
		return op
	case *ir.FuncCall:
		fn, ok := qbeLibrary[builtin(g.prog, e.Callee)]
		if !ok {
			fail("qbe", "no binding for function %s", g.prog.Entity(e.Callee).Name)
		}
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = g.expr(a)
		}
		return g.call(fn, args...)
	case *ir.Binary:
		l, r := g.expr(e.Left), g.expr(e.Right)
		switch e.Op {
		case ir.OpPow: return g.call("$pow", l, r)
		case ir.OpRem: return g.call("$fmod", l, r)
		}
		op, ok := qbeOps[e.Op]
		if !ok {
			fail("qbe", "unknown operator %s", e.Op)
		}
		t := g.temp()
		g.emit("%s =d %s %s, %s", t, op, l, r)
		return t
	case *ir.Unary:
		operand := g.expr(e.Operand)
		t := g.temp()
		g.emit("%s =d neg %s", t, operand)
		return t
	default:
		fail("qbe", "unknown expression %T", e)
		return ""
	}
}
