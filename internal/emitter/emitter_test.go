package emitter_test

import (
	"strings"
	"testing"

	"github.com/voidlang/voidc/internal/backend"
	"github.com/voidlang/voidc/internal/emitter"
	"github.com/voidlang/voidc/internal/parser"
)

// compileAndRun parses and lowers src, then JITs the result and returns
// main's i32 result. It requires a working native LLVM toolchain, just
// as the corpus's own LLVM-backed test suites do.
func compileAndRun(t *testing.T, src string) int32 {
	t.Helper()
	p, err := parser.New(src)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	em := emitter.New("test")
	if err := em.Emit(prog); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	result, err := backend.JITRun(em.Module())
	if err != nil {
		t.Fatalf("JITRun: %v", err)
	}
	return result
}

func TestJITReturnsConstant(t *testing.T) {
	got := compileAndRun(t, `const main = fn() -> i32 { return 42 }`)
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestJITRangeLoopAccumulates(t *testing.T) {
	got := compileAndRun(t, `
const main = fn() -> i32 {
  sum := 0
  loop i in 0..5 { sum = sum + i }
  return sum
}
`)
	if got != 10 {
		t.Errorf("got %d, want 10", got)
	}
}

func TestJITDirectCall(t *testing.T) {
	got := compileAndRun(t, `
const add = fn(x: i32, y: i32) -> i32 { return x + y }
const main = fn() -> i32 { return add(5, 3) }
`)
	if got != 8 {
		t.Errorf("got %d, want 8", got)
	}
}

func TestJITAssignmentMutatesSlot(t *testing.T) {
	got := compileAndRun(t, `
const main = fn() -> i32 {
  x: i32 = 100
  x = x * 2
  return x
}
`)
	if got != 200 {
		t.Errorf("got %d, want 200", got)
	}
}

func TestJITIfElse(t *testing.T) {
	got := compileAndRun(t, `
const test = fn(x: i32) -> i32 { if x > 10 { return 1 } else { return 2 } }
const main = fn() -> i32 { return test(5) }
`)
	if got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestJITIndirectCallThroughFunctionPointerSlot(t *testing.T) {
	got := compileAndRun(t, `
const main = fn() -> i32 {
  op : fn(i32, i32) -> i32 = fn(a: i32, b: i32) -> i32 do return a + b
  return op(4, 6)
}
`)
	if got != 10 {
		t.Errorf("got %d, want 10", got)
	}
}

func TestJITShortCircuitOrSkipsRHS(t *testing.T) {
	got := compileAndRun(t, `
const main = fn() -> i32 {
  x := 0
  ok := true or (x == 1 and x == 2)
  if ok { return 1 }
  return 0
}
`)
	if got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestVoidFunctionSynthesizesImplicitReturn(t *testing.T) {
	p, err := parser.New(`const noop = fn() -> nil { }`)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	em := emitter.New("test")
	if err := em.Emit(prog); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	ir := backend.PrintIR(em.Module())
	if !strings.Contains(ir, "ret void") {
		t.Errorf("expected a synthesized 'ret void', got:\n%s", ir)
	}
}

func TestValueReturnFromVoidFunctionIsAnError(t *testing.T) {
	p, err := parser.New(`const main = fn() -> nil { return 42 }`)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	em := emitter.New("test")
	if err := em.Emit(prog); err == nil {
		t.Fatal("expected an error returning a value from a nil function")
	}
}

func TestArityMismatchIsAnError(t *testing.T) {
	p, err := parser.New(`
const helper = fn(x: i32) -> i32 { return x }
const main = fn() -> i32 { return helper() }
`)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	em := emitter.New("test")
	if err := em.Emit(prog); err == nil {
		t.Fatal("expected an arity mismatch error")
	}
}

func TestUnknownVariableIsAnError(t *testing.T) {
	p, err := parser.New(`const main = fn() -> i32 { return y }`)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	em := emitter.New("test")
	if err := em.Emit(prog); err == nil {
		t.Fatal("expected an unknown-variable error")
	}
}

func TestRedeclaredVariableIsAnError(t *testing.T) {
	p, err := parser.New(`
const main = fn() -> i32 {
  x := 1
  x := 2
  return x
}
`)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	em := emitter.New("test")
	if err := em.Emit(prog); err == nil {
		t.Fatal("expected a redeclaration error")
	}
}

func TestFmtPrintlnLowersToPrintfCall(t *testing.T) {
	p, err := parser.New(`
import fmt

const main = fn() -> i32 {
  fmt.println("value: {:d}", 7)
  return 0
}
`)
	if err != nil {
		t.Fatalf("parser.New: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	em := emitter.New("test")
	if err := em.Emit(prog); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	ir := backend.PrintIR(em.Module())
	if !strings.Contains(ir, "@printf") {
		t.Errorf("expected a printf declaration, got:\n%s", ir)
	}
	if !strings.Contains(ir, "value: %d") {
		t.Errorf("expected the format string to be translated, got:\n%s", ir)
	}
}
