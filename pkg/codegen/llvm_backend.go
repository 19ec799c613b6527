package codegen

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xplshn/astro/pkg/ir"
)

var llvmLibrary = map[ir.Builtin]string{
	ir.BuiltinSqrt:  "@llvm.sqrt.f64",
	ir.BuiltinSin:   "@llvm.sin.f64",
	ir.BuiltinCos:   "@llvm.cos.f64",
	ir.BuiltinHypot: "@hypot",
}

var llvmOps = map[ir.Op]string{
	ir.OpAdd: "fadd",
	ir.OpSub: "fsub",
	ir.OpMul: "fmul",
	ir.OpDiv: "fdiv",
	ir.OpRem: "frem",
}

var llvmDeclarations = []string{
	"declare i32 @printf(ptr, ...)",
	"declare double @llvm.sqrt.f64(double)",
	"declare double @llvm.sin.f64(double)",
	"declare double @llvm.cos.f64(double)",
	"declare double @llvm.pow.f64(double, double)",
	"declare double @hypot(double, double)",
}

type llvmBackend struct{}

func NewLLVMBackend() Backend { return llvmBackend{} }

func (llvmBackend) Name() string { return string(TargetLLVM) }

// llvmGen is the state of one generation. Every intermediate value lives in
// a fresh numbered register; variables only remember which operand holds
// their current value.
type llvmGen struct {
	prog    *ir.Program
	next    int
	binding map[ir.EntityID]string
	formats map[int]bool
	body    []string
}

func (llvmBackend) Generate(prog *ir.Program) (code string, err error) {
	defer recoverInternal(&err)

	g := &llvmGen{prog: prog, binding: make(map[ir.EntityID]string), formats: make(map[int]bool)}
	for _, s := range prog.Statements {
		g.stmt(s)
	}

	var out []string
	arities := make([]int, 0, len(g.formats))
	for n := range g.formats {
		arities = append(arities, n)
	}
	sort.Ints(arities)
	for _, n := range arities {
		out = append(out, llvmFormat(n))
	}
	out = append(out, llvmDeclarations...)
	out = append(out, "define i32 @main() {", "entry:")
	out = append(out, g.body...)
	out = append(out, "  ret i32 0", "}")
	return joinLines(out), nil
}

func llvmFormatName(n int) string {
	if n == 1 {
		return "@format"
	}
	return fmt.Sprintf("@format.%d", n)
}

// llvmFormat declares the printf format for n values: "%g %g\n\0"
func llvmFormat(n int) string {
	specs := make([]string, n)
	for i := range specs {
		specs[i] = "%g"
	}
	s := strings.Join(specs, " ")
	return fmt.Sprintf(`%s = private constant [%d x i8] c"%s\0A\00"`, llvmFormatName(n), len(s)+2, s)
}

func (g *llvmGen) register() string {
	r := fmt.Sprintf("%%%d", g.next)
	g.next++
	return r
}

func (g *llvmGen) emit(format string, args ...interface{}) {
	g.body = append(g.body, "  "+fmt.Sprintf(format, args...))
}

func (g *llvmGen) stmt(s ir.Stmt) {
	switch s := s.(type) {
	case *ir.Assignment:
		g.binding[s.Target] = g.expr(s.Source)
	case *ir.Call:
		if builtin(g.prog, s.Callee) != ir.BuiltinPrint {
			fail("llvm", "no binding for procedure %s", g.prog.Entity(s.Callee).Name)
		}
		args := []string{"ptr " + llvmFormatName(len(s.Args))}
		for _, a := range s.Args {
			args = append(args, "double "+g.expr(a))
		}
		g.formats[len(s.Args)] = true
		// printf returns a value, which takes a register number too
		g.emit("%s = call i32 (ptr, ...) @printf(%s)", g.register(), strings.Join(args, ", "))
	default:
		fail("llvm", "unknown statement %T", s)
	}
}

// expr returns the operand holding the value of e: a register or a constant
func (g *llvmGen) expr(e ir.Expr) string {
	switch e := e.(type) {
	case *ir.Number:
		return hexDouble(e.Value)
	case *ir.VarRef:
		if builtin(g.prog, e.Var) == ir.BuiltinPi {
			return hexDouble(math.Pi)
		}
		op, ok := g.binding[e.Var]
		if !ok {
			fail("llvm", "%s read before assignment", g.prog.Entity(e.Var).Name)
		}
		return op
	case *ir.FuncCall:
		callee, ok := llvmLibrary[builtin(g.prog, e.Callee)]
		if !ok {
			fail("llvm", "no binding for function %s", g.prog.Entity(e.Callee).Name)
		}
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = "double " + g.expr(a)
		}
		r := g.register()
		g.emit("%s = call double %s(%s)", r, callee, strings.Join(args, ", "))
		return r
	case *ir.Binary:
		l, rr := g.expr(e.Left), g.expr(e.Right)
		r := g.register()
		if e.Op == ir.OpPow {
			g.emit("%s = call double @llvm.pow.f64(double %s, double %s)", r, l, rr)
			return r
		}
		op, ok := llvmOps[e.Op]
		if !ok {
			fail("llvm", "unknown operator %s", e.Op)
		}
		g.emit("%s = %s double %s, %s", r, op, l, rr)
		return r
	case *ir.Unary:
		operand := g.expr(e.Operand)
		r := g.register()
		g.emit("%s = fneg double %s", r, operand)
		return r
	default:
		fail("llvm", "unknown expression %T", e)
		return ""
	}
}
