package ir

import "fmt"

// EntityID is a stable handle into a Program's entity arena. Two references
// denote the same entity iff their handles are equal.
type EntityID uint32

type EntityKind int

const (
	KindVariable EntityKind = iota
	KindFunction
	KindProcedure
)

func (k EntityKind) String() string {
	switch k {
	case KindVariable: return "Variable"
	case KindFunction: return "Function"
	case KindProcedure: return "Procedure"
	default: return fmt.Sprintf("EntityKind(%d)", int(k))
	}
}

// Builtin tags the standard-library entities so that later stages can bind
// them without going back to the symbol table.
type Builtin int

const (
	NotBuiltin Builtin = iota
	BuiltinPi
	BuiltinSqrt
	BuiltinSin
	BuiltinCos
	BuiltinHypot
	BuiltinPrint
)

type Entity struct {
	Kind       EntityKind
	Name       string
	Writable   bool
	ParamCount int
	Builtin    Builtin
}

// StandardLibrary is seeded, in this order, into every new Program. The
// handle of each entry is its index.
var StandardLibrary = [...]Entity{
	{Kind: KindVariable, Name: "π", Builtin: BuiltinPi},
	{Kind: KindFunction, Name: "sqrt", ParamCount: 1, Builtin: BuiltinSqrt},
	{Kind: KindFunction, Name: "sin", ParamCount: 1, Builtin: BuiltinSin},
	{Kind: KindFunction, Name: "cos", ParamCount: 1, Builtin: BuiltinCos},
	{Kind: KindFunction, Name: "hypot", ParamCount: 2, Builtin: BuiltinHypot},
	{Kind: KindProcedure, Name: "print", ParamCount: 1, Builtin: BuiltinPrint},
}

// Handles of the standard-library entities
const (
	Pi EntityID = iota
	Sqrt
	Sin
	Cos
	Hypot
	Print
)

type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpNeg
)

var opStrings = map[Op]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpRem: "%", OpPow: "**", OpNeg: "-",
}

var binaryOps = map[string]Op{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpRem, "**": OpPow,
}

func (o Op) String() string {
	if s, ok := opStrings[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// BinaryOp maps an operator spelling to its Op
func BinaryOp(s string) (Op, bool) {
	op, ok := binaryOps[s]
	return op, ok
}

// Stmt is one of *Assignment or *Call.
type Stmt interface{ isStmt() }

// Expr is one of *Number, *VarRef, *FuncCall, *Binary or *Unary.
type Expr interface{ isExpr() }

type Assignment struct {
	Target EntityID
	Source Expr
}

// Call is a procedure call statement
type Call struct {
	Callee EntityID
	Args   []Expr
}

type Number struct{ Value float64 }
type VarRef struct{ Var EntityID }
type FuncCall struct {
	Callee EntityID
	Args   []Expr
}
type Binary struct {
	Op          Op
	Left, Right Expr
}
type Unary struct {
	Op      Op
	Operand Expr
}

func (*Assignment) isStmt() {}
func (*Call) isStmt()       {}

func (*Number) isExpr()   {}
func (*VarRef) isExpr()   {}
func (*FuncCall) isExpr() {}
func (*Binary) isExpr()   {}
func (*Unary) isExpr()    {}

// Program is the root of the graph and owns the entity arena.
type Program struct {
	Entities   []Entity
	Statements []Stmt
}

// NewProgram returns an empty program whose arena holds the standard library.
func NewProgram() *Program {
	p := &Program{Entities: make([]Entity, len(StandardLibrary))}
	copy(p.Entities, StandardLibrary[:])
	return p
}

// AddEntity appends e to the arena and returns its handle
func (p *Program) AddEntity(e Entity) EntityID {
	p.Entities = append(p.Entities, e)
	return EntityID(len(p.Entities) - 1)
}

// Entity resolves a handle. Handles never come from outside the program
// that minted them, so an out of range handle is a programming error.
func (p *Program) Entity(id EntityID) *Entity {
	if int(id) >= len(p.Entities) {
		panic(fmt.Sprintf("ir: entity handle %d out of range (%d entities)", id, len(p.Entities)))
	}
	return &p.Entities[id]
}

// Clone deep-copies the statements and the arena. Handles stay valid in the copy.
func (p *Program) Clone() *Program {
	q := &Program{
		Entities:   make([]Entity, len(p.Entities)),
		Statements: make([]Stmt, len(p.Statements)),
	}
	copy(q.Entities, p.Entities)
	for i, s := range p.Statements {
		q.Statements[i] = CloneStmt(s)
	}
	return q
}

func CloneStmt(s Stmt) Stmt {
	switch s := s.(type) {
	case *Assignment:
		return &Assignment{Target: s.Target, Source: CloneExpr(s.Source)}
	case *Call:
		return &Call{Callee: s.Callee, Args: cloneExprs(s.Args)}
	default:
		panic(fmt.Sprintf("ir: unknown statement %T", s))
	}
}

func CloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case *Number:
		return &Number{Value: e.Value}
	case *VarRef:
		return &VarRef{Var: e.Var}
	case *FuncCall:
		return &FuncCall{Callee: e.Callee, Args: cloneExprs(e.Args)}
	case *Binary:
		return &Binary{Op: e.Op, Left: CloneExpr(e.Left), Right: CloneExpr(e.Right)}
	case *Unary:
		return &Unary{Op: e.Op, Operand: CloneExpr(e.Operand)}
	default:
		panic(fmt.Sprintf("ir: unknown expression %T", e))
	}
}

func cloneExprs(es []Expr) []Expr {
	if es == nil {
		return nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = CloneExpr(e)
	}
	return out
}
