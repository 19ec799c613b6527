// Package optimizer simplifies a Program graph in place. It cannot fail and
// running it twice gives the same graph as running it once.
package optimizer

import (
	"fmt"
	"math"

	"github.com/xplshn/astro/pkg/config"
	"github.com/xplshn/astro/pkg/ir"
)

// Stats counts how often each rewrite fired
type Stats struct {
	Folded      int // binary and unary expressions on literals
	Reduced     int // algebraic identities
	CallsFolded int
	AssignsElim int
}

func (s Stats) Total() int { return s.Folded + s.Reduced + s.CallsFolded + s.AssignsElim }

func (s Stats) String() string {
	return fmt.Sprintf("folded=%d reduced=%d calls=%d self-assign=%d", s.Folded, s.Reduced, s.CallsFolded, s.AssignsElim)
}

type Optimizer struct {
	cfg   *config.Config
	prog  *ir.Program
	stats Stats
}

// NewOptimizer returns an optimizer applying the rewrites enabled in cfg.
// A nil cfg enables all of them.
func NewOptimizer(cfg *config.Config) *Optimizer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Optimizer{cfg: cfg}
}

// Optimize is NewOptimizer(nil).Optimize(p)
func Optimize(p *ir.Program) *ir.Program {
	return NewOptimizer(nil).Optimize(p)
}

// Stats returns the counters accumulated over every Optimize call
func (o *Optimizer) Stats() Stats { return o.stats }

// Optimize rewrites p in place and returns it
func (o *Optimizer) Optimize(p *ir.Program) *ir.Program {
	o.prog = p
	out := p.Statements[:0]
	for _, s := range p.Statements {
		if s = o.stmt(s); s != nil {
			out = append(out, s)
		}
	}
	// clear the tail so dropped statements can be collected
	for i := len(out); i < len(p.Statements); i++ {
		p.Statements[i] = nil
	}
	p.Statements = out
	return p
}

// Expr returns the simplified form of a copy of e, where e belongs to p.
// Neither e nor the counters reported by Stats change.
func (o *Optimizer) Expr(p *ir.Program, e ir.Expr) ir.Expr {
	stats, prog := o.stats, o.prog
	defer func() { o.stats, o.prog = stats, prog }()
	o.prog = p
	return o.expr(ir.CloneExpr(e))
}

func (o *Optimizer) enabled(ft config.Feature) bool { return o.cfg.IsFeatureEnabled(ft) }

// stmt returns nil for a statement that has become a no-op
func (o *Optimizer) stmt(s ir.Stmt) ir.Stmt {
	switch s := s.(type) {
	case *ir.Assignment:
		s.Source = o.expr(s.Source)
		if ref, ok := s.Source.(*ir.VarRef); ok && ref.Var == s.Target && o.enabled(config.FeatSelfAssignElim) {
			o.stats.AssignsElim++
			return nil
		}
		return s
	case *ir.Call:
		o.exprs(s.Args)
		return s
	default:
		panic(fmt.Sprintf("optimizer: unknown statement %T", s))
	}
}

func (o *Optimizer) exprs(es []ir.Expr) {
	for i, e := range es {
		es[i] = o.expr(e)
	}
}

func literal(e ir.Expr) (float64, bool) {
	if n, ok := e.(*ir.Number); ok {
		return n.Value, true
	}
	return 0, false
}

func (o *Optimizer) expr(e ir.Expr) ir.Expr {
	switch e := e.(type) {
	case *ir.Number, *ir.VarRef:
		return e
	case *ir.FuncCall:
		o.exprs(e.Args)
		return o.call(e)
	case *ir.Binary:
		e.Left, e.Right = o.expr(e.Left), o.expr(e.Right)
		return o.binary(e)
	case *ir.Unary:
		e.Operand = o.expr(e.Operand)
		if v, ok := literal(e.Operand); ok && e.Op == ir.OpNeg && o.enabled(config.FeatFoldConstants) {
			o.stats.Folded++
			return &ir.Number{Value: -v}
		}
		return e
	default:
		panic(fmt.Sprintf("optimizer: unknown expression %T", e))
	}
}

// call folds the one-argument library functions. hypot is left alone.
func (o *Optimizer) call(c *ir.FuncCall) ir.Expr {
	if !o.enabled(config.FeatFoldCalls) || len(c.Args) != 1 {
		return c
	}
	v, ok := literal(c.Args[0])
	if !ok {
		return c
	}
	var f func(float64) float64
	switch o.prog.Entity(c.Callee).Builtin {
	case ir.BuiltinSqrt: f = math.Sqrt
	case ir.BuiltinSin: f = math.Sin
	case ir.BuiltinCos: f = math.Cos
	default:
		return c
	}
	o.stats.CallsFolded++
	return &ir.Number{Value: f(v)}
}

func fold(op ir.Op, l, r float64) (float64, bool) {
	switch op {
	case ir.OpAdd: return l + r, true
	case ir.OpSub: return l - r, true
	case ir.OpMul: return l * r, true
	case ir.OpDiv: return l / r, true
	case ir.OpRem: return math.Mod(l, r), true
	case ir.OpPow:
		if l == 0 && r == 0 {
			return 0, false
		}
		return math.Pow(l, r), true
	}
	return 0, false
}

func (o *Optimizer) binary(e *ir.Binary) ir.Expr {
	l, lok := literal(e.Left)
	r, rok := literal(e.Right)

	switch {
	case lok && rok:
		if !o.enabled(config.FeatFoldConstants) {
			return e
		}
		if v, ok := fold(e.Op, l, r); ok {
			o.stats.Folded++
			return &ir.Number{Value: v}
		}
		return e
	case lok:
		if !o.enabled(config.FeatStrengthReduce) {
			return e
		}
		if out := reduceLeft(e, l); out != nil {
			o.stats.Reduced++
			return out
		}
	case rok:
		if !o.enabled(config.FeatStrengthReduce) {
			return e
		}
		if out := reduceRight(e, r); out != nil {
			o.stats.Reduced++
			return out
		}
	}
	return e
}

// reduceLeft handles a literal left operand l and a non-literal right one
func reduceLeft(e *ir.Binary, l float64) ir.Expr {
	switch {
	case l == 0 && e.Op == ir.OpAdd: return e.Right
	case l == 1 && e.Op == ir.OpMul: return e.Right
	case l == 0 && e.Op == ir.OpSub: return &ir.Unary{Op: ir.OpNeg, Operand: e.Right}
	case l == 0 && (e.Op == ir.OpMul || e.Op == ir.OpDiv): return &ir.Number{Value: 0}
	case l == 1 && e.Op == ir.OpPow: return &ir.Number{Value: 1}
	}
	return nil
}

// reduceRight handles a literal right operand r and a non-literal left one,
// so x**0 never sees a literal zero base here.
func reduceRight(e *ir.Binary, r float64) ir.Expr {
	switch {
	case r == 0 && (e.Op == ir.OpAdd || e.Op == ir.OpSub): return e.Left
	case r == 1 && (e.Op == ir.OpMul || e.Op == ir.OpDiv): return e.Left
	case r == 0 && e.Op == ir.OpMul: return &ir.Number{Value: 0}
	case r == 0 && e.Op == ir.OpPow: return &ir.Number{Value: 1}
	}
	return nil
}
