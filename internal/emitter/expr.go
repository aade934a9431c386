package emitter

import (
	"strconv"
	"strings"

	"tinygo.org/x/go-llvm"

	"github.com/voidlang/voidc/internal/ast"
	"github.com/voidlang/voidc/internal/diagnostics"
	"github.com/voidlang/voidc/internal/types"
)

// typedValue pairs an IR value with the surface type it represents, so
// callers downstream (assignment widening, call argument checks,
// address-of) don't have to re-derive the type from the IR shape.
type typedValue struct {
	value llvm.Value
	typ   string
}

func (e *Emitter) emitExpr(expr ast.Expr) (typedValue, error) {
	switch ex := expr.(type) {
	case *ast.NumberLiteral:
		return typedValue{value: llvm.ConstInt(e.ctx.Int32Type(), uint64(ex.Value), true), typ: types.I32}, nil
	case *ast.BooleanLiteral:
		v := uint64(0)
		if ex.Value {
			v = 1
		}
		return typedValue{value: llvm.ConstInt(e.ctx.Int1Type(), v, false), typ: types.Bool}, nil
	case *ast.StringLiteral:
		return typedValue{value: e.constGlobalString(ex.Value), typ: types.Const}, nil
	case *ast.VariableReference:
		return e.emitVariableReference(ex)
	case *ast.BinaryOperation:
		return e.emitBinaryOperation(ex)
	case *ast.UnaryOperation:
		return e.emitUnaryOperation(ex)
	case *ast.FunctionCall:
		return e.emitFunctionCall(ex)
	case *ast.AnonymousFunction:
		return e.emitAnonymousFunction(ex)
	case *ast.MemberAccess:
		return e.emitMemberAccess(ex)
	default:
		return typedValue{}, posErr(expr.Pos(), diagnostics.TypeInference, "cannot emit expression of type %T", expr)
	}
}

// constGlobalString creates a private, unnamed-addr global holding s
// plus a trailing NUL, and returns a pointer to its first byte.
func (e *Emitter) constGlobalString(s string) llvm.Value {
	e.stringSeq++
	name := "str." + strconv.Itoa(e.stringSeq)
	constant := llvm.ConstString(s, true)
	global := llvm.AddGlobal(e.module, constant.Type(), name)
	global.SetInitializer(constant)
	global.SetLinkage(llvm.PrivateLinkage)
	global.SetGlobalConstant(true)
	global.SetUnnamedAddr(true)
	zero := llvm.ConstInt(e.ctx.Int32Type(), 0, false)
	return e.builder.CreateInBoundsGEP(constant.Type(), global, []llvm.Value{zero, zero}, "")
}

func (e *Emitter) emitVariableReference(ref *ast.VariableReference) (typedValue, error) {
	if s, ok := e.locals[ref.Name]; ok {
		llType, err := e.llvmType(s.typeString)
		if err != nil {
			return typedValue{}, err
		}
		loaded := e.builder.CreateLoad(llType, s.value, ref.Name)
		return typedValue{value: loaded, typ: s.typeString}, nil
	}
	if sig, ok := e.env.LookupFunction(ref.Name); ok {
		fn := e.module.NamedFunction(ref.Name)
		if fn.IsNil() {
			return typedValue{}, posErr(ref.Token, diagnostics.UnknownName, "unknown variable %q", ref.Name)
		}
		return typedValue{value: fn, typ: types.CanonicalFunctionType(sig.ParamTypes, sig.ReturnType)}, nil
	}
	return typedValue{}, posErr(ref.Token, diagnostics.UnknownName, "unknown variable %q", ref.Name)
}

func (e *Emitter) emitBinaryOperation(bin *ast.BinaryOperation) (typedValue, error) {
	if bin.Op == ast.OpAnd || bin.Op == ast.OpOr {
		return e.emitShortCircuit(bin)
	}
	lhs, err := e.emitExpr(bin.LHS)
	if err != nil {
		return typedValue{}, err
	}
	rhs, err := e.emitExpr(bin.RHS)
	if err != nil {
		return typedValue{}, err
	}
	switch bin.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		if lhs.typ != rhs.typ {
			return typedValue{}, posErr(bin.Token, diagnostics.TypeInference,
				"mismatched arithmetic operand types %q and %q", lhs.typ, rhs.typ)
		}
	}
	switch bin.Op {
	case ast.OpAdd:
		return typedValue{value: e.builder.CreateAdd(lhs.value, rhs.value, ""), typ: lhs.typ}, nil
	case ast.OpSub:
		return typedValue{value: e.builder.CreateSub(lhs.value, rhs.value, ""), typ: lhs.typ}, nil
	case ast.OpMul:
		return typedValue{value: e.builder.CreateMul(lhs.value, rhs.value, ""), typ: lhs.typ}, nil
	case ast.OpDiv:
		return typedValue{value: e.builder.CreateSDiv(lhs.value, rhs.value, ""), typ: lhs.typ}, nil
	case ast.OpGreaterThan:
		return typedValue{value: e.builder.CreateICmp(llvm.IntSGT, lhs.value, rhs.value, ""), typ: types.Bool}, nil
	case ast.OpLessThan:
		return typedValue{value: e.builder.CreateICmp(llvm.IntSLT, lhs.value, rhs.value, ""), typ: types.Bool}, nil
	case ast.OpGreaterEqual:
		return typedValue{value: e.builder.CreateICmp(llvm.IntSGE, lhs.value, rhs.value, ""), typ: types.Bool}, nil
	case ast.OpLessEqual:
		return typedValue{value: e.builder.CreateICmp(llvm.IntSLE, lhs.value, rhs.value, ""), typ: types.Bool}, nil
	case ast.OpEqual:
		return typedValue{value: e.builder.CreateICmp(llvm.IntEQ, lhs.value, rhs.value, ""), typ: types.Bool}, nil
	case ast.OpNotEqual:
		return typedValue{value: e.builder.CreateICmp(llvm.IntNE, lhs.value, rhs.value, ""), typ: types.Bool}, nil
	default:
		return typedValue{}, posErr(bin.Token, diagnostics.TypeInference, "unsupported binary operator")
	}
}

// emitShortCircuit lowers "and"/"or" as real branches rather than a
// bitwise op on i1: the RHS block is only entered when the LHS didn't
// already decide the result.
func (e *Emitter) emitShortCircuit(bin *ast.BinaryOperation) (typedValue, error) {
	lhs, err := e.emitExpr(bin.LHS)
	if err != nil {
		return typedValue{}, err
	}
	fn := e.builder.GetInsertBlock().Parent()
	rhsBlock := e.ctx.AddBasicBlock(fn, "sc.rhs")
	mergeBlock := e.ctx.AddBasicBlock(fn, "sc.merge")
	lhsBlock := e.builder.GetInsertBlock()

	if bin.Op == ast.OpAnd {
		e.builder.CreateCondBr(lhs.value, rhsBlock, mergeBlock)
	} else {
		e.builder.CreateCondBr(lhs.value, mergeBlock, rhsBlock)
	}

	e.builder.SetInsertPointAtEnd(rhsBlock)
	rhs, err := e.emitExpr(bin.RHS)
	if err != nil {
		return typedValue{}, err
	}
	rhsEnd := e.builder.GetInsertBlock()
	e.builder.CreateBr(mergeBlock)

	e.builder.SetInsertPointAtEnd(mergeBlock)
	phi := e.builder.CreatePHI(e.ctx.Int1Type(), "")
	phi.AddIncoming([]llvm.Value{lhs.value, rhs.value}, []llvm.BasicBlock{lhsBlock, rhsEnd})
	return typedValue{value: phi, typ: types.Bool}, nil
}

func (e *Emitter) emitUnaryOperation(un *ast.UnaryOperation) (typedValue, error) {
	switch un.Op {
	case ast.OpNot:
		operand, err := e.emitExpr(un.Operand)
		if err != nil {
			return typedValue{}, err
		}
		return typedValue{value: e.builder.CreateNot(operand.value, ""), typ: types.Bool}, nil
	case ast.OpNegate:
		operand, err := e.emitExpr(un.Operand)
		if err != nil {
			return typedValue{}, err
		}
		zero := llvm.ConstInt(operand.value.Type(), 0, true)
		return typedValue{value: e.builder.CreateSub(zero, operand.value, ""), typ: operand.typ}, nil
	case ast.OpAddressOf:
		ref, ok := un.Operand.(*ast.VariableReference)
		if !ok {
			return typedValue{}, posErr(un.Token, diagnostics.TypeInference, "'&' requires a variable operand")
		}
		s, ok := e.locals[ref.Name]
		if !ok {
			return typedValue{}, posErr(ref.Token, diagnostics.UnknownName, "unknown variable %q", ref.Name)
		}
		return typedValue{value: s.value, typ: types.PointerTo(s.typeString)}, nil
	case ast.OpDereference:
		operand, err := e.emitExpr(un.Operand)
		if err != nil {
			return typedValue{}, err
		}
		elem, ok := types.IsPointer(operand.typ)
		if !ok {
			return typedValue{}, posErr(un.Token, diagnostics.TypeInference, "cannot dereference non-pointer type %q", operand.typ)
		}
		elemType, err := e.llvmType(elem)
		if err != nil {
			return typedValue{}, err
		}
		return typedValue{value: e.builder.CreateLoad(elemType, operand.value, ""), typ: elem}, nil
	default:
		return typedValue{}, posErr(un.Token, diagnostics.TypeInference, "unsupported unary operator")
	}
}

func (e *Emitter) emitFunctionCall(call *ast.FunctionCall) (typedValue, error) {
	if s, ok := e.locals[call.CalleeName]; ok && types.IsFunctionPointer(s.typeString) {
		return e.emitIndirectCall(call, s)
	}
	sig, ok := e.env.LookupFunction(call.CalleeName)
	if !ok {
		return typedValue{}, posErr(call.Token, diagnostics.UnknownName, "unknown function %q", call.CalleeName)
	}
	if len(call.Args) != len(sig.ParamTypes) {
		return typedValue{}, posErr(call.Token, diagnostics.Arity,
			"function %q expects %d argument(s), got %d", call.CalleeName, len(sig.ParamTypes), len(call.Args))
	}
	fn := e.module.NamedFunction(call.CalleeName)
	if fn.IsNil() {
		return typedValue{}, posErr(call.Token, diagnostics.UnknownName, "unknown function %q", call.CalleeName)
	}
	args, err := e.emitArgs(call.Args)
	if err != nil {
		return typedValue{}, err
	}
	fnType, err := e.functionTypeOf(sig)
	if err != nil {
		return typedValue{}, err
	}
	result := e.builder.CreateCall(fnType, fn, args, "")
	return typedValue{value: result, typ: sig.ReturnType}, nil
}

func (e *Emitter) emitIndirectCall(call *ast.FunctionCall, s slot) (typedValue, error) {
	sig, ok := types.ParseFunctionType(s.typeString)
	if !ok {
		return typedValue{}, posErr(call.Token, diagnostics.TypeInference, "%q is not callable", call.CalleeName)
	}
	if len(call.Args) != len(sig.Params) {
		return typedValue{}, posErr(call.Token, diagnostics.Arity,
			"function %q expects %d argument(s), got %d", call.CalleeName, len(sig.Params), len(call.Args))
	}
	fnType, err := e.llvmFunctionType(s.typeString)
	if err != nil {
		return typedValue{}, err
	}
	ptrType, err := e.llvmType(s.typeString)
	if err != nil {
		return typedValue{}, err
	}
	fnPtr := e.builder.CreateLoad(ptrType, s.value, "")
	args, err := e.emitArgs(call.Args)
	if err != nil {
		return typedValue{}, err
	}
	result := e.builder.CreateCall(fnType, fnPtr, args, "")
	return typedValue{value: result, typ: sig.Return}, nil
}

func (e *Emitter) functionTypeOf(sig types.FunctionSignature) (llvm.Type, error) {
	return e.llvmFunctionType(types.CanonicalFunctionType(sig.ParamTypes, sig.ReturnType))
}

func (e *Emitter) emitArgs(exprs []ast.Expr) ([]llvm.Value, error) {
	args := make([]llvm.Value, len(exprs))
	for i, a := range exprs {
		v, err := e.emitExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v.value
	}
	return args, nil
}

func (e *Emitter) emitAnonymousFunction(fn *ast.AnonymousFunction) (typedValue, error) {
	name := e.newAnonName()
	if err := e.emitFunction(name, fn.Parameters, fn.ReturnType, fn.Body, llvm.InternalLinkage); err != nil {
		return typedValue{}, err
	}
	paramTypes := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		paramTypes[i] = p.TypeString
	}
	fnValue := e.module.NamedFunction(name)
	return typedValue{value: fnValue, typ: types.CanonicalFunctionType(paramTypes, fn.ReturnType)}, nil
}

// printfDecl returns the module's declaration of the variadic C printf,
// declaring it on first use.
func (e *Emitter) printfDecl() llvm.Value {
	if e.printfSet {
		return e.printfFn
	}
	charPtr := llvm.PointerType(e.ctx.Int8Type(), 0)
	fnType := llvm.FunctionType(e.ctx.Int32Type(), []llvm.Type{charPtr}, true)
	e.printfFn = llvm.AddFunction(e.module, "printf", fnType)
	e.printfSet = true
	return e.printfFn
}

func (e *Emitter) emitMemberAccess(m *ast.MemberAccess) (typedValue, error) {
	if m.ObjectName != "fmt" || m.MemberName != "println" {
		return typedValue{}, posErr(m.Token, diagnostics.UnsupportedMember, "unsupported member access %q.%q", m.ObjectName, m.MemberName)
	}
	if len(m.Args) == 0 {
		return typedValue{}, posErr(m.Token, diagnostics.Arity, "fmt.println requires a format string argument")
	}
	printf := e.printfDecl()

	var formatValue llvm.Value
	lit, isLiteral := m.Args[0].(*ast.StringLiteral)
	if isLiteral {
		translated := strings.NewReplacer("{:d}", "%d", "{:s}", "%s").Replace(lit.Value) + "\n"
		formatValue = e.constGlobalString(translated)
	} else {
		v, err := e.emitExpr(m.Args[0])
		if err != nil {
			return typedValue{}, err
		}
		formatValue = v.value
	}

	args := []llvm.Value{formatValue}
	rest, err := e.emitArgs(m.Args[1:])
	if err != nil {
		return typedValue{}, err
	}
	args = append(args, rest...)

	printfType := llvm.FunctionType(e.ctx.Int32Type(), []llvm.Type{llvm.PointerType(e.ctx.Int8Type(), 0)}, true)
	result := e.builder.CreateCall(printfType, printf, args, "")
	return typedValue{value: result, typ: types.I32}, nil
}
