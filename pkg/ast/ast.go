// Package ast defines the syntax tree consumed by the runtime. The node set
// is fixed: evaluation dispatches exhaustively over the variants below.
package ast

import "github.com/tenda-lang/tenda/pkg/source"

// Node is implemented by every syntax tree node.
type Node interface {
	Span() source.Span
}

// Stmt is one statement variant.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is one expression variant.
type Expr interface {
	Node
	exprNode()
}

// Program is a sequence of top-level statements of one source unit.
type Program struct {
	Stmts   []Stmt
	Imports []*Import
	Loc     source.Span
}

func (p *Program) Span() source.Span { return p.Loc }

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

// ExprStmt wraps an expression evaluated for its value or effects.
type ExprStmt struct {
	X   Expr
	Loc source.Span
}

// LetDecl declares a new binding in the innermost scope (`seja x = ...`).
// Captured is set by the parser's closure analysis when a nested function
// references the name; the runtime then backs it with a shared cell.
type LetDecl struct {
	Name     string
	Value    Expr
	Captured bool
	Exported bool
	Loc      source.Span
}

// FunctionDecl declares a named function (`função f(a, b) ... fim`).
type FunctionDecl struct {
	Name     string
	Params   []*Param
	Body     *Block
	Captured bool
	Exported bool
	Loc      source.Span
}

// Param is a single function parameter. A captured parameter is referenced by
// a function nested inside the body and must live in a shared cell.
type Param struct {
	Name     string
	Captured bool
	Loc      source.Span
}

// Block is a `faça ... fim` group executed in a fresh scope.
type Block struct {
	Stmts []Stmt
	Loc   source.Span
}

// Cond is `se ... então ... senão ... fim`.
type Cond struct {
	Cond   Expr
	Then   Stmt
	OrElse Stmt // nil when there is no senão arm
	Loc    source.Span
}

// While is `enquanto ... faça ... fim`.
type While struct {
	Cond Expr
	Body Stmt
	Loc  source.Span
}

// ForEach is `para cada item em iterável faça ... fim`.
type ForEach struct {
	Item     string
	Captured bool
	Iterable Expr
	Body     Stmt
	Loc      source.Span
}

// Return is `retorna [expr]`.
type Return struct {
	Value Expr // nil for a bare retorna
	Loc   source.Span
}

// Break is `pare`.
type Break struct {
	Loc source.Span
}

// Continue is `continue`.
type Continue struct {
	Loc source.Span
}

// Raise is `lance expr`.
type Raise struct {
	Value Expr
	Loc   source.Span
}

// Try is `tente ... capture nome ... fim`. The handler runs with the raised
// diagnostic bound to Name in a fresh scope.
type Try struct {
	Body     []Stmt
	Name     string
	Captured bool
	Handler  []Stmt
	Loc      source.Span
}

// Import is `importe "caminho" como Alias`. Imports are hoisted by the parser
// into Program.Imports; the statement itself binds the alias at run time.
type Import struct {
	Path  string
	Alias string
	Loc   source.Span
}

func (s *ExprStmt) Span() source.Span     { return s.Loc }
func (s *LetDecl) Span() source.Span      { return s.Loc }
func (s *FunctionDecl) Span() source.Span { return s.Loc }
func (s *Block) Span() source.Span        { return s.Loc }
func (s *Cond) Span() source.Span         { return s.Loc }
func (s *While) Span() source.Span        { return s.Loc }
func (s *ForEach) Span() source.Span      { return s.Loc }
func (s *Return) Span() source.Span       { return s.Loc }
func (s *Break) Span() source.Span        { return s.Loc }
func (s *Continue) Span() source.Span     { return s.Loc }
func (s *Raise) Span() source.Span        { return s.Loc }
func (s *Try) Span() source.Span          { return s.Loc }
func (s *Import) Span() source.Span       { return s.Loc }

func (*ExprStmt) stmtNode()     {}
func (*LetDecl) stmtNode()      {}
func (*FunctionDecl) stmtNode() {}
func (*Block) stmtNode()        {}
func (*Cond) stmtNode()         {}
func (*While) stmtNode()        {}
func (*ForEach) stmtNode()      {}
func (*Return) stmtNode()       {}
func (*Break) stmtNode()        {}
func (*Continue) stmtNode()     {}
func (*Raise) stmtNode()        {}
func (*Try) stmtNode()          {}
func (*Import) stmtNode()       {}

//-----------------------------------------------------------------------------
// Expressions
//-----------------------------------------------------------------------------

// BinaryOperator enumerates the binary operator set.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpExponent
	OpEquality
	OpInequality
	OpGreater
	OpGreaterOrEqual
	OpLess
	OpLessOrEqual
	OpLogicalAnd
	OpLogicalOr
	OpRange
	OpHas
	OpLacks
)

// UnaryOperator enumerates the unary operator set.
type UnaryOperator int

const (
	OpNegative UnaryOperator = iota
	OpLogicalNot
)

// Binary is `lhs op rhs`.
type Binary struct {
	LHS Expr
	Op  BinaryOperator
	RHS Expr
	Loc source.Span
}

// Unary is `op rhs`.
type Unary struct {
	Op  UnaryOperator
	RHS Expr
	Loc source.Span
}

// Call is `callee(args...)`.
type Call struct {
	Callee Expr
	Args   []Expr
	Loc    source.Span
}

// Assign is `target = value` where target is a Variable or an Access.
type Assign struct {
	Target Expr
	Value  Expr
	Loc    source.Span
}

// Access is `subscripted[index]`.
type Access struct {
	Subscripted Expr
	Index       Expr
	Loc         source.Span
}

// List is `[a, b, c]`.
type List struct {
	Elements []Expr
	Loc      source.Span
}

// DictEntry is one `chave: valor` pair of a dictionary literal.
type DictEntry struct {
	Key   *Literal
	Value Expr
}

// Dictionary is `{ chave: valor, ... }`.
type Dictionary struct {
	Entries []DictEntry
	Loc     source.Span
}

// Grouping is a parenthesized expression.
type Grouping struct {
	X   Expr
	Loc source.Span
}

// LiteralKind tags a literal expression.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralText
	LiteralBoolean
	LiteralNil
)

// Literal is a number, text, boolean or Nada literal.
type Literal struct {
	Kind    LiteralKind
	Number  float64
	Text    string
	Boolean bool
	Loc     source.Span
}

// Variable is a name reference. Captured marks references that resolve to a
// shared cell.
type Variable struct {
	Name     string
	Captured bool
	Loc      source.Span
}

// FunctionLit is an anonymous function expression
// (`função(a, b) ... fim`).
type FunctionLit struct {
	Params []*Param
	Body   *Block
	Loc    source.Span
}

func (e *Binary) Span() source.Span      { return e.Loc }
func (e *Unary) Span() source.Span       { return e.Loc }
func (e *Call) Span() source.Span        { return e.Loc }
func (e *Assign) Span() source.Span      { return e.Loc }
func (e *Access) Span() source.Span      { return e.Loc }
func (e *List) Span() source.Span        { return e.Loc }
func (e *Dictionary) Span() source.Span  { return e.Loc }
func (e *Grouping) Span() source.Span    { return e.Loc }
func (e *Literal) Span() source.Span     { return e.Loc }
func (e *Variable) Span() source.Span    { return e.Loc }
func (e *FunctionLit) Span() source.Span { return e.Loc }

func (*Binary) exprNode()      {}
func (*Unary) exprNode()       {}
func (*Call) exprNode()        {}
func (*Assign) exprNode()      {}
func (*Access) exprNode()      {}
func (*List) exprNode()        {}
func (*Dictionary) exprNode()  {}
func (*Grouping) exprNode()    {}
func (*Literal) exprNode()     {}
func (*Variable) exprNode()    {}
func (*FunctionLit) exprNode() {}
