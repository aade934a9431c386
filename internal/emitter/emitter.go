// Package emitter lowers a parsed void program into an LLVM module via
// tinygo.org/x/go-llvm.
package emitter

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"github.com/voidlang/voidc/internal/ast"
	"github.com/voidlang/voidc/internal/diagnostics"
	"github.com/voidlang/voidc/internal/token"
	"github.com/voidlang/voidc/internal/types"
)

// slot is a storage location for a parameter or local variable: an
// alloca (in the entry block for parameters, in the block current at the
// declaration for locals and range-loop variables) plus the surface type
// recorded for later loads, stores, and function-pointer resolution.
type slot struct {
	value      llvm.Value
	typeString string
}

// Emitter walks one Program and produces one llvm.Module. The anonymous
// function counter lives here, not on a package global, so two Emitter
// instances in the same process never collide.
type Emitter struct {
	ctx     llvm.Context
	module  llvm.Module
	builder llvm.Builder

	env *types.Environment

	locals map[string]slot

	anonCounter int
	stringSeq   int
	printfFn    llvm.Value
	printfSet   bool
}

// New creates an Emitter with an empty module named moduleName.
func New(moduleName string) *Emitter {
	ctx := llvm.NewContext()
	return &Emitter{
		ctx:     ctx,
		module:  ctx.NewModule(moduleName),
		builder: ctx.NewBuilder(),
		env:     types.NewEnvironment(),
		locals:  make(map[string]slot),
	}
}

// Module returns the llvm.Module built so far. Callers hand it to
// internal/backend; ownership rules are documented there.
func (e *Emitter) Module() llvm.Module { return e.module }

// Emit lowers every top-level function declaration into e's module. It
// stops at the first error, matching the pipeline's no-recovery policy.
func (e *Emitter) Emit(prog *ast.Program) error {
	for _, fn := range prog.Functions {
		paramTypes := make([]string, len(fn.Parameters))
		for i, p := range fn.Parameters {
			paramTypes[i] = p.TypeString
		}
		e.env.DeclareFunction(fn.Name, types.FunctionSignature{ParamTypes: paramTypes, ReturnType: fn.ReturnType})
	}
	for _, fn := range prog.Functions {
		if err := e.emitFunction(fn.Name, fn.Parameters, fn.ReturnType, fn.Body, llvm.ExternalLinkage); err != nil {
			return err
		}
	}
	return nil
}

// llvmType maps a surface type string to its IR realization.
func (e *Emitter) llvmType(t string) (llvm.Type, error) {
	switch {
	case types.IsVoid(t):
		return e.ctx.VoidType(), nil
	case types.IsInteger(t):
		return e.ctx.IntType(types.Width(t)), nil
	case t == types.Bool:
		return e.ctx.Int1Type(), nil
	case types.IsString(t):
		return llvm.PointerType(e.ctx.Int8Type(), 0), nil
	case types.IsFunctionPointer(t):
		fnType, err := e.llvmFunctionType(t)
		if err != nil {
			return llvm.Type{}, err
		}
		return llvm.PointerType(fnType, 0), nil
	default:
		if elem, ok := types.IsPointer(t); ok {
			elemType, err := e.llvmType(elem)
			if err != nil {
				return llvm.Type{}, err
			}
			return llvm.PointerType(elemType, 0), nil
		}
		return llvm.Type{}, fmt.Errorf("no IR type for %q", t)
	}
}

func (e *Emitter) llvmFunctionType(t string) (llvm.Type, error) {
	sig, ok := types.ParseFunctionType(t)
	if !ok {
		return llvm.Type{}, fmt.Errorf("not a function type: %q", t)
	}
	params := make([]llvm.Type, len(sig.Params))
	for i, p := range sig.Params {
		pt, err := e.llvmType(p)
		if err != nil {
			return llvm.Type{}, err
		}
		params[i] = pt
	}
	ret, err := e.llvmType(sig.Return)
	if err != nil {
		return llvm.Type{}, err
	}
	return llvm.FunctionType(ret, params, false), nil
}

// emitFunction lowers a single function: signature, entry-block param
// slots, body, then an implicit terminator if one is still missing. It
// saves and restores the builder's insertion point and local scope so a
// nested anonymous function can be lowered mid-body without disturbing
// the enclosing function.
func (e *Emitter) emitFunction(name string, params []ast.Parameter, returnType string, body []ast.Stmt, linkage llvm.Linkage) error {
	paramTypes := make([]string, len(params))
	llvmParamTypes := make([]llvm.Type, len(params))
	for i, p := range params {
		paramTypes[i] = p.TypeString
		pt, err := e.llvmType(p.TypeString)
		if err != nil {
			return err
		}
		llvmParamTypes[i] = pt
	}
	llvmReturn, err := e.llvmType(returnType)
	if err != nil {
		return err
	}
	fnType := llvm.FunctionType(llvmReturn, llvmParamTypes, false)
	fn := llvm.AddFunction(e.module, name, fnType)
	fn.SetLinkage(linkage)

	savedBlock := e.builder.GetInsertBlock()
	savedLocals := e.locals
	savedEnv := e.env
	e.locals = make(map[string]slot)
	e.env = e.env.Child()

	entry := e.ctx.AddBasicBlock(fn, "entry")
	e.builder.SetInsertPointAtEnd(entry)

	for i, p := range params {
		alloca := e.builder.CreateAlloca(llvmParamTypes[i], p.Name)
		e.builder.CreateStore(fn.Param(i), alloca)
		e.locals[p.Name] = slot{value: alloca, typeString: p.TypeString}
		e.env.DeclareVariable(p.Name, p.TypeString)
	}

	for _, stmt := range body {
		if err := e.emitStatement(stmt, returnType); err != nil {
			return err
		}
	}

	if types.IsVoid(returnType) {
		last := e.builder.GetInsertBlock().LastInstruction()
		if last.IsNil() || last.InstructionOpcode() != llvm.Ret {
			e.builder.CreateRetVoid()
		}
	}
	// Non-void functions: falling off the end without a terminator is
	// undefined behavior at runtime, per the language's own rules — not
	// a compile-time error here.

	e.locals = savedLocals
	e.env = savedEnv
	if !savedBlock.IsNil() {
		e.builder.SetInsertPointAtEnd(savedBlock)
	}

	e.env.DeclareFunction(name, types.FunctionSignature{ParamTypes: paramTypes, ReturnType: returnType})
	return nil
}

func (e *Emitter) newAnonName() string {
	e.anonCounter++
	return fmt.Sprintf("anon_%d", e.anonCounter)
}

func posErr(pos token.Token, kind diagnostics.Kind, format string, args ...any) error {
	return diagnostics.New(kind, pos.Line, pos.Column, format, args...)
}
