package parser_test

import (
	"testing"

	"github.com/voidlang/voidc/internal/ast"
	"github.com/voidlang/voidc/internal/parser"
	"github.com/voidlang/voidc/internal/types"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	p, err := parser.New(src)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return prog
}

func TestParseSimpleFunction(t *testing.T) {
	prog := parseOK(t, `
const main = fn() -> i32 {
  return 0
}
`)
	if len(prog.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if fn.Name != "main" || fn.ReturnType != types.I32 {
		t.Errorf("fn = %+v", fn)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("body has %d statements, want 1", len(fn.Body))
	}
	if _, ok := fn.Body[0].(*ast.ReturnStatement); !ok {
		t.Errorf("body[0] = %T, want *ast.ReturnStatement", fn.Body[0])
	}
}

func TestParseImport(t *testing.T) {
	prog := parseOK(t, "import fmt\nconst main = fn() -> i32 { return 0 }")
	if len(prog.Imports) != 1 || prog.Imports[0].ModuleName != "fmt" {
		t.Errorf("imports = %+v", prog.Imports)
	}
}

func TestParseInferredDeclaration(t *testing.T) {
	prog := parseOK(t, `
const main = fn() -> i32 {
  sum := 0
  return sum
}
`)
	decl, ok := prog.Functions[0].Body[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.VariableDeclaration", prog.Functions[0].Body[0])
	}
	if decl.TypeString != types.I32 {
		t.Errorf("inferred type = %q, want %q", decl.TypeString, types.I32)
	}
}

func TestParseRangeLoop(t *testing.T) {
	prog := parseOK(t, `
const main = fn() -> i32 {
  sum := 0
  loop i in 0..10 do sum = sum + i
  return sum
}
`)
	loop, ok := prog.Functions[0].Body[1].(*ast.LoopStatement)
	if !ok {
		t.Fatalf("body[1] = %T, want *ast.LoopStatement", prog.Functions[0].Body[1])
	}
	if loop.Variable != "i" || loop.Range == nil {
		t.Fatalf("loop = %+v", loop)
	}
	if _, ok := loop.Range.Start.(*ast.NumberLiteral); !ok {
		t.Errorf("range start = %T", loop.Range.Start)
	}
}

func TestParseConditionalLoop(t *testing.T) {
	prog := parseOK(t, `
const main = fn() -> i32 {
  loop if true do return 1
  return 0
}
`)
	loop, ok := prog.Functions[0].Body[0].(*ast.LoopStatement)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.LoopStatement", prog.Functions[0].Body[0])
	}
	if loop.Range != nil || loop.Condition == nil {
		t.Fatalf("loop = %+v", loop)
	}
}

func TestParseElseIfChain(t *testing.T) {
	prog := parseOK(t, `
const main = fn() -> i32 {
  if true do return 1
  else if false do return 2
  else do return 3
  return 0
}
`)
	ifStmt, ok := prog.Functions[0].Body[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.IfStatement", prog.Functions[0].Body[0])
	}
	if len(ifStmt.ElseBody) != 1 {
		t.Fatalf("else body has %d statements, want 1", len(ifStmt.ElseBody))
	}
	nested, ok := ifStmt.ElseBody[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("nested else = %T, want *ast.IfStatement", ifStmt.ElseBody[0])
	}
	if len(nested.ElseBody) != 1 {
		t.Errorf("nested else body has %d statements, want 1", len(nested.ElseBody))
	}
}

func TestParsePrecedence(t *testing.T) {
	prog := parseOK(t, `
const main = fn() -> i32 {
  return 1 + 2 * 3
}
`)
	ret := prog.Functions[0].Body[0].(*ast.ReturnStatement)
	bin, ok := ret.Value.(*ast.BinaryOperation)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("top operator = %+v, want '+'", ret.Value)
	}
	rhs, ok := bin.RHS.(*ast.BinaryOperation)
	if !ok || rhs.Op != ast.OpMul {
		t.Fatalf("rhs = %+v, want '*'", bin.RHS)
	}
}

func TestParseFunctionPointerType(t *testing.T) {
	prog := parseOK(t, `
const apply = fn(f: fn(i32) -> i32, x: i32) -> i32 {
  return f(x)
}
`)
	fn := prog.Functions[0]
	if fn.Parameters[0].TypeString != "fn(i32) -> i32" {
		t.Errorf("param type = %q", fn.Parameters[0].TypeString)
	}
}

func TestParseAnonymousFunctionExpression(t *testing.T) {
	prog := parseOK(t, `
const main = fn() -> i32 {
  double := fn(x: i32) -> i32 { return x * 2 }
  return double(21)
}
`)
	decl := prog.Functions[0].Body[0].(*ast.VariableDeclaration)
	if _, ok := decl.Value.(*ast.AnonymousFunction); !ok {
		t.Fatalf("declared value = %T, want *ast.AnonymousFunction", decl.Value)
	}
	if decl.TypeString != "fn(i32) -> i32" {
		t.Errorf("inferred type = %q", decl.TypeString)
	}
}

func TestParsePointerAndDereference(t *testing.T) {
	prog := parseOK(t, `
const main = fn() -> i32 {
  x := 5
  p := &x
  return p.*
}
`)
	body := prog.Functions[0].Body
	pDecl := body[1].(*ast.VariableDeclaration)
	if pDecl.TypeString != "*i32" {
		t.Errorf("pointer decl type = %q, want *i32", pDecl.TypeString)
	}
	ret := body[2].(*ast.ReturnStatement)
	if _, ok := ret.Value.(*ast.UnaryOperation); !ok {
		t.Errorf("return value = %T, want *ast.UnaryOperation", ret.Value)
	}
}

func TestParseErrorOnMissingParen(t *testing.T) {
	_, err := parser.New("const main = fn( -> i32 { return 0 }")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p, _ := parser.New("const main = fn( -> i32 { return 0 }")
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestParseFmtPrintln(t *testing.T) {
	prog := parseOK(t, `
import fmt

const main = fn() -> i32 {
  fmt.println("hi {:d}", 1)
  return 0
}
`)
	stmt, ok := prog.Functions[0].Body[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.ExpressionStatement", prog.Functions[0].Body[0])
	}
	if _, ok := stmt.Value.(*ast.MemberAccess); !ok {
		t.Errorf("value = %T, want *ast.MemberAccess", stmt.Value)
	}
}
