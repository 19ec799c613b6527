// Package analyzer turns a syntax tree into a Program graph, resolving every
// name against a flat symbol table seeded with the standard library.
package analyzer

import (
	"errors"
	"strconv"

	"github.com/xplshn/astro/pkg/config"
	"github.com/xplshn/astro/pkg/ir"
	"github.com/xplshn/astro/pkg/optimizer"
	"github.com/xplshn/astro/pkg/symtab"
	"github.com/xplshn/astro/pkg/syntax"
	"github.com/xplshn/astro/pkg/token"
	"github.com/xplshn/astro/pkg/util"
)

// Analyzer holds the state of one analysis run. It is not reusable: each
// call to Analyze needs a fresh Analyzer.
type Analyzer struct {
	cfg      *config.Config
	prog     *ir.Program
	table    *symtab.Table
	warnings []util.Warning
	// simplifier backs the self-assignment warning
	simplifier *optimizer.Optimizer

	// first assignment of every user variable, and whether it was ever read
	declared map[ir.EntityID]token.Token
	order    []ir.EntityID
	read     map[ir.EntityID]bool
}

// bailout carries the first semantic error up to Analyze
type bailout struct{ err *Error }

// NewAnalyzer returns an analyzer whose warnings follow cfg. A nil cfg
// means the defaults.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	prog := ir.NewProgram()
	return &Analyzer{
		cfg:      cfg,
		prog:     prog,
		table:    symtab.New(prog),
		declared: make(map[ir.EntityID]token.Token),
		read:     make(map[ir.EntityID]bool),
	}
}

// Analyze is NewAnalyzer(nil).Analyze(root)
func Analyze(root syntax.Node) (*ir.Program, error) {
	return NewAnalyzer(nil).Analyze(root)
}

// Warnings returns the warnings collected by Analyze, in source order
// except for unused variables, which are reported last.
func (a *Analyzer) Warnings() []util.Warning { return a.warnings }

// Analyze builds the Program graph for root. It stops at the first error.
func (a *Analyzer) Analyze(root syntax.Node) (prog *ir.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog, err = nil, b.err
		}
	}()

	if root == nil || root.Kind() != syntax.Program {
		tok := token.Token{}
		if root != nil {
			tok = root.Tok()
		}
		a.fail(ErrMalformedTree, tok, "Expected a program")
	}
	for _, n := range root.Children() {
		a.prog.Statements = append(a.prog.Statements, a.stmt(n))
	}
	a.checkUnused()
	return a.prog, nil
}

func (a *Analyzer) fail(kind error, tok token.Token, format string, args ...interface{}) {
	panic(bailout{newError(kind, tok, format, args...)})
}

func (a *Analyzer) warn(wt config.Warning, tok token.Token, msg string) {
	if !a.cfg.IsWarningEnabled(wt) {
		return
	}
	a.warnings = append(a.warnings, util.Warning{Name: a.cfg.Warnings[wt].Name, Tok: tok, Msg: msg})
}

// children returns n's children after checking their count
func (a *Analyzer) children(n syntax.Node, min int) []syntax.Node {
	cs := n.Children()
	if len(cs) < min {
		a.fail(ErrMalformedTree, n.Tok(), "%s node has %d children, expected at least %d", n.Kind(), len(cs), min)
	}
	return cs
}

func (a *Analyzer) lookup(id syntax.Node) (ir.EntityID, *ir.Entity) {
	name := id.Text()
	eid, ok := a.table.Lookup(name)
	if !ok {
		a.fail(ErrNotDefined, id.Tok(), "Identifier %s not defined", name)
	}
	return eid, a.table.Entity(eid)
}

func (a *Analyzer) stmt(n syntax.Node) ir.Stmt {
	switch n.Kind() {
	case syntax.Assign:
		cs := a.children(n, 2)
		id := cs[0]
		// the source is analyzed first, so "x = x;" on a fresh x is an error
		source := a.expr(cs[1])

		target, ok := a.table.Lookup(id.Text())
		if !ok {
			target = a.table.Declare(id.Text())
			a.declared[target] = id.Tok()
			a.order = append(a.order, target)
		} else {
			e := a.table.Entity(target)
			if e.Kind != ir.KindVariable {
				a.fail(ErrWrongKind, id.Tok(), "Variable expected")
			}
			if !e.Writable {
				a.fail(ErrNotWritable, id.Tok(), "%s is not writable", e.Name)
			}
		}
		if a.cfg.IsWarningEnabled(config.WarnSelfAssign) && a.assignsItself(target, source) {
			a.warn(config.WarnSelfAssign, id.Tok(), "Assignment of '"+id.Text()+"' to itself")
		}
		return &ir.Assignment{Target: target, Source: source}

	case syntax.CallStmt:
		cs := a.children(n, 1)
		callee, e := a.lookup(cs[0])
		if e.Kind != ir.KindProcedure {
			a.fail(ErrWrongKind, cs[0].Tok(), "Procedure expected")
		}
		return &ir.Call{Callee: callee, Args: a.args(n, e, cs[1:])}

	default:
		a.fail(ErrMalformedTree, n.Tok(), "Unexpected %s node in statement position", n.Kind())
		return nil
	}
}

// assignsItself reports whether source simplifies to a plain read of
// target, as in "x = (x);" or "x = x * 1;".
func (a *Analyzer) assignsItself(target ir.EntityID, source ir.Expr) bool {
	if a.simplifier == nil {
		a.simplifier = optimizer.NewOptimizer(nil)
	}
	ref, ok := a.simplifier.Expr(a.prog, source).(*ir.VarRef)
	return ok && ref.Var == target
}

func (a *Analyzer) args(call syntax.Node, callee *ir.Entity, nodes []syntax.Node) []ir.Expr {
	args := make([]ir.Expr, 0, len(nodes))
	for _, n := range nodes {
		args = append(args, a.expr(n))
	}
	if len(args) != callee.ParamCount {
		tok := call.Tok()
		if len(nodes) > 0 {
			tok = nodes[0].Tok()
		}
		a.fail(ErrArityMismatch, tok, "Expected %d arg(s), found %d", callee.ParamCount, len(args))
	}
	return args
}

func (a *Analyzer) expr(n syntax.Node) ir.Expr {
	switch n.Kind() {
	case syntax.Number:
		// out of range literals become infinities, as they do at run time
		v, err := strconv.ParseFloat(n.Text(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			a.fail(ErrMalformedTree, n.Tok(), "Malformed number '%s'", n.Text())
		}
		return &ir.Number{Value: v}

	case syntax.Ident:
		id, e := a.lookup(n)
		if e.Kind != ir.KindVariable {
			a.fail(ErrWrongKind, n.Tok(), "Variable expected")
		}
		a.read[id] = true
		return &ir.VarRef{Var: id}

	case syntax.Call:
		cs := a.children(n, 1)
		callee, e := a.lookup(cs[0])
		if e.Kind != ir.KindFunction {
			a.fail(ErrWrongKind, cs[0].Tok(), "Function expected")
		}
		return &ir.FuncCall{Callee: callee, Args: a.args(n, e, cs[1:])}

	case syntax.Binary:
		cs := a.children(n, 3)
		op, ok := ir.BinaryOp(cs[1].Text())
		if !ok {
			a.fail(ErrMalformedTree, cs[1].Tok(), "Unknown operator '%s'", cs[1].Text())
		}
		return &ir.Binary{Op: op, Left: a.expr(cs[0]), Right: a.expr(cs[2])}

	case syntax.Unary:
		cs := a.children(n, 2)
		if cs[0].Text() != "-" {
			a.fail(ErrMalformedTree, cs[0].Tok(), "Unknown operator '%s'", cs[0].Text())
		}
		return &ir.Unary{Op: ir.OpNeg, Operand: a.expr(cs[1])}

	case syntax.Paren:
		return a.expr(a.children(n, 1)[0])

	default:
		a.fail(ErrMalformedTree, n.Tok(), "Unexpected %s node in expression position", n.Kind())
		return nil
	}
}

func (a *Analyzer) checkUnused() {
	for _, id := range a.order {
		if !a.read[id] {
			a.warn(config.WarnUnused, a.declared[id], "Variable '"+a.table.Entity(id).Name+"' is assigned but never read")
		}
	}
}
