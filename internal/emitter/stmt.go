package emitter

import (
	"tinygo.org/x/go-llvm"

	"github.com/voidlang/voidc/internal/ast"
	"github.com/voidlang/voidc/internal/diagnostics"
	"github.com/voidlang/voidc/internal/types"
)

// emitStatement lowers one statement. returnType is threaded through
// for return-value validation rather than tracked on
// the Emitter, since it never changes mid-function and a field would
// have to be saved/restored around every nested-function call anyway.
func (e *Emitter) emitStatement(stmt ast.Stmt, returnType string) error {
	switch s := stmt.(type) {
	case *ast.ReturnStatement:
		return e.emitReturn(s, returnType)
	case *ast.VariableDeclaration:
		return e.emitVariableDeclaration(s)
	case *ast.VariableAssignment:
		return e.emitVariableAssignment(s)
	case *ast.IfStatement:
		return e.emitIfStatement(s, returnType)
	case *ast.LoopStatement:
		return e.emitLoopStatement(s, returnType)
	case *ast.ExpressionStatement:
		_, err := e.emitExpr(s.Value)
		return err
	default:
		return posErr(stmt.Pos(), diagnostics.TypeInference, "cannot emit statement of type %T", stmt)
	}
}

func (e *Emitter) emitReturn(ret *ast.ReturnStatement, returnType string) error {
	if ret.Value != nil && types.IsVoid(returnType) {
		return posErr(ret.Token, diagnostics.VoidReturn, "cannot return a value from a nil function")
	}
	if ret.Value == nil {
		if !types.IsVoid(returnType) {
			return posErr(ret.Token, diagnostics.VoidReturn, "cannot use return without value in non-nil function")
		}
		e.builder.CreateRetVoid()
		return nil
	}
	value, err := e.emitExpr(ret.Value)
	if err != nil {
		return err
	}
	value, err = e.coerce(value, returnType, ret.Token.Line, ret.Token.Column)
	if err != nil {
		return err
	}
	e.builder.CreateRet(value.value)
	return nil
}

// coerce widens or narrows an integer value to match target when the
// two differ only in width, per the sized-integer storage rule; a
// signedness or kind mismatch is a type error, not a silent coercion.
func (e *Emitter) coerce(v typedValue, target string, line, col int) (typedValue, error) {
	if v.typ == target {
		return v, nil
	}
	if types.IsInteger(v.typ) && types.IsInteger(target) {
		if types.Signed(v.typ) != types.Signed(target) {
			return typedValue{}, diagnostics.New(diagnostics.TypeInference, line, col,
				"cannot mix signed and unsigned integers (%q vs %q)", v.typ, target)
		}
		targetType, err := e.llvmType(target)
		if err != nil {
			return typedValue{}, err
		}
		width, targetWidth := types.Width(v.typ), types.Width(target)
		var converted llvm.Value
		switch {
		case width == targetWidth:
			converted = v.value
		case width < targetWidth:
			if types.Signed(v.typ) {
				converted = e.builder.CreateSExt(v.value, targetType, "")
			} else {
				converted = e.builder.CreateZExt(v.value, targetType, "")
			}
		default:
			converted = e.builder.CreateTrunc(v.value, targetType, "")
		}
		return typedValue{value: converted, typ: target}, nil
	}
	return typedValue{}, diagnostics.New(diagnostics.TypeInference, line, col,
		"cannot use value of type %q where %q is expected", v.typ, target)
}

func (e *Emitter) emitVariableDeclaration(decl *ast.VariableDeclaration) error {
	if _, exists := e.locals[decl.Name]; exists {
		return posErr(decl.Token, diagnostics.Redeclaration, "%q is already declared in this scope", decl.Name)
	}
	value, err := e.emitExpr(decl.Value)
	if err != nil {
		return err
	}
	declaredType := decl.TypeString
	if declaredType == "" {
		declaredType = value.typ
	}
	value, err = e.coerce(value, declaredType, decl.Token.Line, decl.Token.Column)
	if err != nil {
		return err
	}
	llType, err := e.llvmType(declaredType)
	if err != nil {
		return err
	}
	alloca := e.builder.CreateAlloca(llType, decl.Name)
	e.builder.CreateStore(value.value, alloca)
	e.locals[decl.Name] = slot{value: alloca, typeString: declaredType}
	e.env.DeclareVariable(decl.Name, declaredType)
	return nil
}

func (e *Emitter) emitVariableAssignment(assign *ast.VariableAssignment) error {
	s, ok := e.locals[assign.Name]
	if !ok {
		return posErr(assign.Token, diagnostics.UnknownName, "unknown variable %q", assign.Name)
	}
	value, err := e.emitExpr(assign.Value)
	if err != nil {
		return err
	}
	value, err = e.coerce(value, s.typeString, assign.Token.Line, assign.Token.Column)
	if err != nil {
		return err
	}
	e.builder.CreateStore(value.value, s.value)
	return nil
}

func (e *Emitter) emitIfStatement(stmt *ast.IfStatement, returnType string) error {
	cond, err := e.emitExpr(stmt.Condition)
	if err != nil {
		return err
	}
	fn := e.builder.GetInsertBlock().Parent()
	thenBlock := e.ctx.AddBasicBlock(fn, "if.then")
	elseBlock := e.ctx.AddBasicBlock(fn, "if.else")
	mergeBlock := e.ctx.AddBasicBlock(fn, "if.merge")
	e.builder.CreateCondBr(cond.value, thenBlock, elseBlock)

	e.builder.SetInsertPointAtEnd(thenBlock)
	for _, s := range stmt.ThenBody {
		if err := e.emitStatement(s, returnType); err != nil {
			return err
		}
	}
	if e.builder.GetInsertBlock().LastInstruction().IsNil() || e.builder.GetInsertBlock().LastInstruction().InstructionOpcode() != llvm.Ret {
		e.builder.CreateBr(mergeBlock)
	}

	e.builder.SetInsertPointAtEnd(elseBlock)
	for _, s := range stmt.ElseBody {
		if err := e.emitStatement(s, returnType); err != nil {
			return err
		}
	}
	if e.builder.GetInsertBlock().LastInstruction().IsNil() || e.builder.GetInsertBlock().LastInstruction().InstructionOpcode() != llvm.Ret {
		e.builder.CreateBr(mergeBlock)
	}

	e.builder.SetInsertPointAtEnd(mergeBlock)
	return nil
}

func (e *Emitter) emitLoopStatement(stmt *ast.LoopStatement, returnType string) error {
	if stmt.Range != nil {
		return e.emitRangeLoop(stmt, returnType)
	}
	return e.emitConditionalLoop(stmt, returnType)
}

func (e *Emitter) emitRangeLoop(stmt *ast.LoopStatement, returnType string) error {
	start, err := e.emitExpr(stmt.Range.Start)
	if err != nil {
		return err
	}
	end, err := e.emitExpr(stmt.Range.End)
	if err != nil {
		return err
	}
	i32, err := e.llvmType(types.I32)
	if err != nil {
		return err
	}
	loopVar := e.builder.CreateAlloca(i32, stmt.Variable)
	e.builder.CreateStore(start.value, loopVar)

	fn := e.builder.GetInsertBlock().Parent()
	condBlock := e.ctx.AddBasicBlock(fn, "loop.cond")
	bodyBlock := e.ctx.AddBasicBlock(fn, "loop.body")
	endBlock := e.ctx.AddBasicBlock(fn, "loop.end")
	e.builder.CreateBr(condBlock)

	e.builder.SetInsertPointAtEnd(condBlock)
	current := e.builder.CreateLoad(i32, loopVar, stmt.Variable)
	cond := e.builder.CreateICmp(llvm.IntSLT, current, end.value, "")
	e.builder.CreateCondBr(cond, bodyBlock, endBlock)

	e.builder.SetInsertPointAtEnd(bodyBlock)
	e.locals[stmt.Variable] = slot{value: loopVar, typeString: types.I32}
	e.env.DeclareVariable(stmt.Variable, types.I32)
	for _, s := range stmt.Body {
		if err := e.emitStatement(s, returnType); err != nil {
			return err
		}
	}
	if e.builder.GetInsertBlock().LastInstruction().IsNil() || e.builder.GetInsertBlock().LastInstruction().InstructionOpcode() != llvm.Ret {
		next := e.builder.CreateAdd(e.builder.CreateLoad(i32, loopVar, ""), llvm.ConstInt(i32, 1, true), "")
		e.builder.CreateStore(next, loopVar)
		e.builder.CreateBr(condBlock)
	}
	delete(e.locals, stmt.Variable)

	e.builder.SetInsertPointAtEnd(endBlock)
	return nil
}

func (e *Emitter) emitConditionalLoop(stmt *ast.LoopStatement, returnType string) error {
	fn := e.builder.GetInsertBlock().Parent()
	condBlock := e.ctx.AddBasicBlock(fn, "loop.cond")
	bodyBlock := e.ctx.AddBasicBlock(fn, "loop.body")
	endBlock := e.ctx.AddBasicBlock(fn, "loop.end")
	e.builder.CreateBr(condBlock)

	e.builder.SetInsertPointAtEnd(condBlock)
	cond, err := e.emitExpr(stmt.Condition)
	if err != nil {
		return err
	}
	e.builder.CreateCondBr(cond.value, bodyBlock, endBlock)

	e.builder.SetInsertPointAtEnd(bodyBlock)
	for _, s := range stmt.Body {
		if err := e.emitStatement(s, returnType); err != nil {
			return err
		}
	}
	if e.builder.GetInsertBlock().LastInstruction().IsNil() || e.builder.GetInsertBlock().LastInstruction().InstructionOpcode() != llvm.Ret {
		e.builder.CreateBr(condBlock)
	}

	e.builder.SetInsertPointAtEnd(endBlock)
	return nil
}
