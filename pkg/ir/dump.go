package ir

import (
	"fmt"
	"strconv"

	"github.com/xlab/treeprint"
)

// Dump renders the program graph as an indented tree. Entities are shown
// with their handle so that shared references are visible.
func Dump(p *Program) string {
	root := treeprint.New()
	root.SetValue("Program")
	for _, s := range p.Statements {
		dumpStmt(p, root, s)
	}
	return root.String()
}

func (p *Program) String() string { return Dump(p) }

func entityLabel(p *Program, id EntityID) string {
	e := p.Entity(id)
	return fmt.Sprintf("%s %s #%d", e.Kind, e.Name, id)
}

func dumpStmt(p *Program, t treeprint.Tree, s Stmt) {
	switch s := s.(type) {
	case *Assignment:
		b := t.AddBranch("Assignment")
		b.AddNode("target: " + entityLabel(p, s.Target))
		dumpExpr(p, b.AddBranch("source"), s.Source)
	case *Call:
		b := t.AddBranch("Call " + entityLabel(p, s.Callee))
		for _, a := range s.Args {
			dumpExpr(p, b, a)
		}
	default:
		t.AddNode(fmt.Sprintf("<unknown statement %T>", s))
	}
}

func dumpExpr(p *Program, t treeprint.Tree, e Expr) {
	switch e := e.(type) {
	case *Number:
		t.AddNode(strconv.FormatFloat(e.Value, 'g', -1, 64))
	case *VarRef:
		t.AddNode(entityLabel(p, e.Var))
	case *FuncCall:
		b := t.AddBranch("FuncCall " + entityLabel(p, e.Callee))
		for _, a := range e.Args {
			dumpExpr(p, b, a)
		}
	case *Binary:
		b := t.AddBranch("Binary " + e.Op.String())
		dumpExpr(p, b, e.Left)
		dumpExpr(p, b, e.Right)
	case *Unary:
		dumpExpr(p, t.AddBranch("Unary "+e.Op.String()), e.Operand)
	default:
		t.AddNode(fmt.Sprintf("<unknown expression %T>", e))
	}
}
