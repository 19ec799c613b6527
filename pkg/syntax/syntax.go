// Package syntax defines the concrete syntax tree handed from the parser to
// the semantic analyzer. The analyzer only relies on the Node interface, so
// any front end able to produce such a tree can feed it.
package syntax

import (
	"github.com/xplshn/astro/pkg/token"
)

// Kind discriminates the construct a Node stands for
type Kind int

const (
	// Statements
	Program Kind = iota
	Assign
	CallStmt

	// Expressions
	Binary
	Unary
	Call
	Paren
	Ident
	Number

	// Operator is the terminal holding the spelling of a binary or unary operator
	Operator
)

var kindNames = [...]string{
	Program:  "Program",
	Assign:   "Assign",
	CallStmt: "CallStmt",
	Binary:   "Binary",
	Unary:    "Unary",
	Call:     "Call",
	Paren:    "Paren",
	Ident:    "Ident",
	Number:   "Number",
	Operator: "Operator",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Node is the tree-walk contract. Children are laid out per kind:
//
//	Program   statements...
//	Assign    Ident, expression
//	CallStmt  Ident, arguments...
//	Call      Ident, arguments...
//	Binary    left, Operator, right
//	Unary     Operator, operand
//	Paren     expression
//	Ident, Number, Operator are leaves
//
// Text is the source text the node spans and Tok locates its first token.
type Node interface {
	Kind() Kind
	Children() []Node
	Text() string
	Tok() token.Token
}

type node struct {
	kind     Kind
	tok      token.Token
	text     string
	children []Node
}

func (n *node) Kind() Kind       { return n.kind }
func (n *node) Children() []Node { return n.children }
func (n *node) Text() string     { return n.text }
func (n *node) Tok() token.Token { return n.tok }

// New builds a node. Parsers that cannot supply the spanned text may pass "".
func New(kind Kind, tok token.Token, text string, children ...Node) Node {
	return &node{kind: kind, tok: tok, text: text, children: children}
}

func NewIdent(tok token.Token) Node    { return New(Ident, tok, tok.Value) }
func NewNumber(tok token.Token) Node   { return New(Number, tok, tok.Value) }
func NewOperator(tok token.Token) Node { return New(Operator, tok, token.Operators[tok.Type]) }

// Walk calls fn for n and all of its descendants in depth-first pre-order.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
