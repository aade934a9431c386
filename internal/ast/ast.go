// Package ast defines the tagged-variant tree produced by the parser.
package ast

import "github.com/voidlang/voidc/internal/token"

// Node is any AST node; Pos anchors it to the token that best identifies
// it for diagnostics.
type Node interface {
	Pos() token.Token
}

// Expr is an expression that yields a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a standalone unit of execution.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of the tree: an ordered list of imports followed by
// an ordered list of top-level function declarations.
type Program struct {
	Imports   []*ImportStatement
	Functions []*FunctionDeclaration
}

type ImportStatement struct {
	Token      token.Token
	ModuleName string
}

func (i *ImportStatement) Pos() token.Token { return i.Token }

// Parameter is a single "name : type" pair in a function's parameter list.
type Parameter struct {
	Name       string
	TypeString string
}

// FunctionDeclaration is a top-level "const NAME = fn(...) -> T { ... }".
type FunctionDeclaration struct {
	Token      token.Token
	Name       string
	Parameters []Parameter
	ReturnType string
	Body       []Stmt
}

func (f *FunctionDeclaration) Pos() token.Token { return f.Token }

// AnonymousFunction is a function literal used as an expression. It is
// structurally identical to FunctionDeclaration minus the name.
type AnonymousFunction struct {
	Token      token.Token
	Parameters []Parameter
	ReturnType string
	Body       []Stmt
}

func (a *AnonymousFunction) Pos() token.Token { return a.Token }
func (a *AnonymousFunction) exprNode()        {}

// Statements

type VariableDeclaration struct {
	Token      token.Token
	Name       string
	TypeString string // for ":=", the type the parser inferred
	Value      Expr
}

func (v *VariableDeclaration) Pos() token.Token { return v.Token }
func (v *VariableDeclaration) stmtNode()        {}

type VariableAssignment struct {
	Token token.Token
	Name  string
	Value Expr
}

func (v *VariableAssignment) Pos() token.Token { return v.Token }
func (v *VariableAssignment) stmtNode()        {}

// ReturnStatement's Value is nil for a bare "return" in a void function.
type ReturnStatement struct {
	Token token.Token
	Value Expr
}

func (r *ReturnStatement) Pos() token.Token { return r.Token }
func (r *ReturnStatement) stmtNode()        {}

// IfStatement's ElseBody holds a single nested *IfStatement for an "else if"
// chain, matching the grammar's right-associative else-if handling.
type IfStatement struct {
	Token     token.Token
	Condition Expr
	ThenBody  []Stmt
	ElseBody  []Stmt
}

func (i *IfStatement) Pos() token.Token { return i.Token }
func (i *IfStatement) stmtNode()        {}

// LoopStatement covers both loop variants: a range loop has Variable and
// Range set; a conditional loop has Condition set and Variable empty.
type LoopStatement struct {
	Token     token.Token
	Variable  string           // range loop only
	Range     *RangeExpression // range loop only
	Condition Expr             // conditional loop only
	Body      []Stmt
}

func (l *LoopStatement) Pos() token.Token { return l.Token }
func (l *LoopStatement) stmtNode()        {}

// ExpressionStatement discards the value of an expression evaluated for
// its side effect (a bare call or fmt.println).
type ExpressionStatement struct {
	Token token.Token
	Value Expr
}

func (e *ExpressionStatement) Pos() token.Token { return e.Token }
func (e *ExpressionStatement) stmtNode()        {}

// Expressions

type NumberLiteral struct {
	Token token.Token
	Value int64
}

func (n *NumberLiteral) Pos() token.Token { return n.Token }
func (n *NumberLiteral) exprNode()        {}

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) Pos() token.Token { return b.Token }
func (b *BooleanLiteral) exprNode()        {}

type StringLiteral struct {
	Token token.Token
	Value string
}

func (s *StringLiteral) Pos() token.Token { return s.Token }
func (s *StringLiteral) exprNode()        {}

type VariableReference struct {
	Token token.Token
	Name  string
}

func (v *VariableReference) Pos() token.Token { return v.Token }
func (v *VariableReference) exprNode()        {}

type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpGreaterThan
	OpLessThan
	OpGreaterEqual
	OpLessEqual
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
)

type BinaryOperation struct {
	Token token.Token
	LHS   Expr
	Op    BinaryOperator
	RHS   Expr
}

func (b *BinaryOperation) Pos() token.Token { return b.Token }
func (b *BinaryOperation) exprNode()        {}

type UnaryOperator int

const (
	OpNot UnaryOperator = iota
	OpNegate
	OpAddressOf
	OpDereference
)

type UnaryOperation struct {
	Token   token.Token
	Op      UnaryOperator
	Operand Expr
}

func (u *UnaryOperation) Pos() token.Token { return u.Token }
func (u *UnaryOperation) exprNode()        {}

type FunctionCall struct {
	Token      token.Token
	CalleeName string
	Args       []Expr
}

func (f *FunctionCall) Pos() token.Token { return f.Token }
func (f *FunctionCall) exprNode()        {}

// MemberAccess is restricted to the fmt.println built-in.
type MemberAccess struct {
	Token      token.Token
	ObjectName string
	MemberName string
	Args       []Expr
}

func (m *MemberAccess) Pos() token.Token { return m.Token }
func (m *MemberAccess) exprNode()        {}

// RangeExpression appears only inside "loop x in start..end".
type RangeExpression struct {
	Token token.Token
	Start Expr
	End   Expr
}

func (r *RangeExpression) Pos() token.Token { return r.Token }
func (r *RangeExpression) exprNode()        {}
