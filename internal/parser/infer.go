package parser

import (
	"github.com/voidlang/voidc/internal/ast"
	"github.com/voidlang/voidc/internal/diagnostics"
	"github.com/voidlang/voidc/internal/types"
)

// inferType computes the static type of expr for a ":=" declaration. It
// only handles the expression shapes the grammar allows in that
// position; anything else is a parser bug, not user input, so it still
// reports through the normal diagnostics channel rather than panicking.
func inferType(expr ast.Expr, env *types.Environment) (string, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return types.I32, nil
	case *ast.BooleanLiteral:
		return types.Bool, nil
	case *ast.StringLiteral:
		return types.Const, nil
	case *ast.VariableReference:
		t, ok := env.LookupVariable(e.Name)
		if !ok {
			return "", diagnostics.New(diagnostics.UnknownName, e.Token.Line, e.Token.Column, "unknown name %q", e.Name)
		}
		return t, nil
	case *ast.UnaryOperation:
		operand, err := inferType(e.Operand, env)
		if err != nil {
			return "", err
		}
		switch e.Op {
		case ast.OpNot:
			return types.Bool, nil
		case ast.OpNegate:
			return operand, nil
		case ast.OpAddressOf:
			return types.PointerTo(operand), nil
		case ast.OpDereference:
			if elem, ok := types.IsPointer(operand); ok {
				return elem, nil
			}
			return "", diagnostics.New(diagnostics.TypeInference, e.Token.Line, e.Token.Column, "cannot dereference non-pointer type %q", operand)
		}
		return "", diagnostics.New(diagnostics.TypeInference, e.Token.Line, e.Token.Column, "cannot infer type of unary expression")
	case *ast.BinaryOperation:
		switch e.Op {
		case ast.OpGreaterThan, ast.OpLessThan, ast.OpGreaterEqual, ast.OpLessEqual,
			ast.OpEqual, ast.OpNotEqual, ast.OpAnd, ast.OpOr:
			return types.Bool, nil
		default:
			return inferType(e.LHS, env)
		}
	case *ast.FunctionCall:
		sig, ok := env.LookupFunction(e.CalleeName)
		if !ok {
			return "", diagnostics.New(diagnostics.UnknownName, e.Token.Line, e.Token.Column, "unknown function %q", e.CalleeName)
		}
		if len(e.Args) != len(sig.ParamTypes) {
			return "", diagnostics.New(diagnostics.Arity, e.Token.Line, e.Token.Column,
				"function %q expects %d argument(s), got %d", e.CalleeName, len(sig.ParamTypes), len(e.Args))
		}
		if types.IsVoid(sig.ReturnType) {
			return "", diagnostics.New(diagnostics.VoidReturn, e.Token.Line, e.Token.Column,
				"function %q returns void and cannot be used as a value", e.CalleeName)
		}
		return sig.ReturnType, nil
	case *ast.AnonymousFunction:
		paramTypes := make([]string, len(e.Parameters))
		for i, p := range e.Parameters {
			paramTypes[i] = p.TypeString
		}
		return types.CanonicalFunctionType(paramTypes, e.ReturnType), nil
	case *ast.MemberAccess:
		return "", diagnostics.New(diagnostics.UnsupportedMember, e.Token.Line, e.Token.Column,
			"member call %q.%q cannot be used as a value", e.ObjectName, e.MemberName)
	default:
		return "", diagnostics.New(diagnostics.TypeInference, expr.Pos().Line, expr.Pos().Column, "cannot infer type of expression")
	}
}
