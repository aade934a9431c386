// Package parser implements the void language's recursive-descent parser
// with explicit precedence levels.
package parser

import (
	"strconv"

	"github.com/voidlang/voidc/internal/ast"
	"github.com/voidlang/voidc/internal/diagnostics"
	"github.com/voidlang/voidc/internal/lexer"
	"github.com/voidlang/voidc/internal/token"
	"github.com/voidlang/voidc/internal/types"
)

// Parser owns the lexer and a two-token lookahead window; the AST is
// built bottom-up as it consumes tokens.
type Parser struct {
	lx   *lexer.Lexer
	cur  token.Token
	peek token.Token
	env  *types.Environment
}

// New creates a parser over src and primes the two-token lookahead.
func New(src string) (*Parser, error) {
	p := &Parser{lx: lexer.New(src), env: types.NewEnvironment()}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) errf(format string, args ...any) error {
	return diagnostics.New(diagnostics.Parse, p.cur.Line, p.cur.Column, format, args...)
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.cur.Kind != k {
		return token.Token{}, p.errf("expected %s, got %s", k, p.cur.Kind)
	}
	t := p.cur
	return t, p.advance()
}

// Parse consumes the whole token stream and returns the Program root.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.cur.Kind != token.EndOfFile {
		switch p.cur.Kind {
		case token.Import:
			imp, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			prog.Imports = append(prog.Imports, imp)
		case token.Const:
			fn, err := p.parseFunctionDeclaration()
			if err != nil {
				return nil, err
			}
			prog.Functions = append(prog.Functions, fn)
		default:
			return nil, p.errf("expected 'import' or 'const', got %s", p.cur.Kind)
		}
	}
	return prog, nil
}

func (p *Parser) parseImport() (*ast.ImportStatement, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	return &ast.ImportStatement{Token: tok, ModuleName: name.Lexeme}, nil
}

func (p *Parser) parseFunctionDeclaration() (*ast.FunctionDeclaration, error) {
	tok := p.cur
	if err := p.advance(); err != nil { // consume 'const'
		return nil, err
	}
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Fn); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	returnType := types.Nil
	if p.cur.Kind == token.Arrow {
		if err := p.advance(); err != nil {
			return nil, err
		}
		returnType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	paramTypes := make([]string, len(params))
	for i, param := range params {
		paramTypes[i] = param.TypeString
	}
	p.env.DeclareFunction(nameTok.Lexeme, types.FunctionSignature{ParamTypes: paramTypes, ReturnType: returnType})

	body, err := p.parseFunctionBody(params)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDeclaration{Token: tok, Name: nameTok.Lexeme, Parameters: params, ReturnType: returnType, Body: body}, nil
}

func (p *Parser) parseParams() ([]ast.Parameter, error) {
	var params []ast.Parameter
	if p.cur.Kind == token.RParen {
		return params, nil
	}
	for {
		nameTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Parameter{Name: nameTok.Lexeme, TypeString: typ})
		if p.cur.Kind == token.Comma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return params, nil
}

// parseFunctionBody parses a Body in a fresh child scope seeded with the
// function's own parameters, then restores the enclosing scope. This is
// how variable references inside a nested anonymous function still see
// the outer function's parameter/local types without capturing outer
// mutable state: anonymous functions are non-capturing at emission time,
// so the parser scope here exists only to support type inference.
func (p *Parser) parseFunctionBody(params []ast.Parameter) ([]ast.Stmt, error) {
	outer := p.env
	p.env = outer.Child()
	for _, param := range params {
		p.env.DeclareVariable(param.Name, param.TypeString)
	}
	body, err := p.parseBody()
	p.env = outer
	return body, err
}

func (p *Parser) parseBody() ([]ast.Stmt, error) {
	switch p.cur.Kind {
	case token.LBrace:
		if err := p.advance(); err != nil {
			return nil, err
		}
		var stmts []ast.Stmt
		for p.cur.Kind != token.RBrace && p.cur.Kind != token.EndOfFile {
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		}
		if _, err := p.expect(token.RBrace); err != nil {
			return nil, err
		}
		return stmts, nil
	case token.Do:
		if err := p.advance(); err != nil {
			return nil, err
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{s}, nil
	default:
		return nil, p.errf("expected '{' or 'do', got %s", p.cur.Kind)
	}
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.cur.Kind {
	case token.Return:
		return p.parseReturnStatement()
	case token.If:
		return p.parseIfStatement()
	case token.Loop:
		return p.parseLoopStatement()
	case token.Identifier:
		switch p.peek.Kind {
		case token.Colon:
			return p.parseVariableDeclarationExplicit()
		case token.ColonEquals:
			return p.parseVariableDeclarationInferred()
		case token.Equals:
			return p.parseAssignment()
		case token.Dot, token.LParen:
			return p.parseExpressionStatement()
		default:
			return nil, p.errf("unexpected token %s after identifier", p.peek.Kind)
		}
	default:
		return nil, p.errf("unexpected token %s", p.cur.Kind)
	}
}

func (p *Parser) parseReturnStatement() (ast.Stmt, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	if token.IsStatementStart(p.cur.Kind) {
		return &ast.ReturnStatement{Token: tok}, nil
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Token: tok, Value: value}, nil
}

func (p *Parser) parseIfStatement() (ast.Stmt, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	thenBody, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Token: tok, Condition: cond, ThenBody: thenBody}
	if p.cur.Kind == token.Else {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Kind == token.If {
			nested, err := p.parseIfStatement()
			if err != nil {
				return nil, err
			}
			stmt.ElseBody = []ast.Stmt{nested}
		} else {
			elseBody, err := p.parseBody()
			if err != nil {
				return nil, err
			}
			stmt.ElseBody = elseBody
		}
	}
	return stmt, nil
}

func (p *Parser) parseLoopStatement() (ast.Stmt, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind == token.If {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		return &ast.LoopStatement{Token: tok, Condition: cond, Body: body}, nil
	}

	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.In); err != nil {
		return nil, err
	}
	rangeTok := p.cur
	start, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DotDot); err != nil {
		return nil, err
	}
	end, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	p.env.DeclareVariable(nameTok.Lexeme, types.I32)
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.LoopStatement{
		Token:    tok,
		Variable: nameTok.Lexeme,
		Range:    &ast.RangeExpression{Token: rangeTok, Start: start, End: end},
		Body:     body,
	}, nil
}

func (p *Parser) parseVariableDeclarationExplicit() (ast.Stmt, error) {
	tok := p.cur
	name := p.cur.Lexeme
	if err := p.advance(); err != nil { // consume identifier
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.env.DeclareVariable(name, typ)
	return &ast.VariableDeclaration{Token: tok, Name: name, TypeString: typ, Value: value}, nil
}

func (p *Parser) parseVariableDeclarationInferred() (ast.Stmt, error) {
	tok := p.cur
	name := p.cur.Lexeme
	if err := p.advance(); err != nil { // consume identifier
		return nil, err
	}
	if _, err := p.expect(token.ColonEquals); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	inferred, err := inferType(value, p.env)
	if err != nil {
		return nil, err
	}
	p.env.DeclareVariable(name, inferred)
	return &ast.VariableDeclaration{Token: tok, Name: name, TypeString: inferred, Value: value}, nil
}

func (p *Parser) parseAssignment() (ast.Stmt, error) {
	tok := p.cur
	name := p.cur.Lexeme
	if err := p.advance(); err != nil { // consume identifier
		return nil, err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.VariableAssignment{Token: tok, Name: name, Value: value}, nil
}

func (p *Parser) parseExpressionStatement() (ast.Stmt, error) {
	tok := p.cur
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Token: tok, Value: value}, nil
}

// Type grammar.

var primitiveTypes = map[token.Kind]string{
	token.I8: types.I8, token.I16: types.I16, token.I32: types.I32, token.I64: types.I64,
	token.U8: types.U8, token.U16: types.U16, token.U32: types.U32, token.U64: types.U64,
	token.Bool: types.Bool, token.String: types.Str, token.Nil: types.Nil, token.Void: types.Void,
}

func (p *Parser) parseType() (string, error) {
	if t, ok := primitiveTypes[p.cur.Kind]; ok {
		if err := p.advance(); err != nil {
			return "", err
		}
		return t, nil
	}
	switch p.cur.Kind {
	case token.Const:
		if err := p.advance(); err != nil {
			return "", err
		}
		if _, err := p.expect(token.String); err != nil {
			return "", err
		}
		return types.Const, nil
	case token.Asterisk:
		if err := p.advance(); err != nil {
			return "", err
		}
		elem, err := p.parseType()
		if err != nil {
			return "", err
		}
		return types.PointerTo(elem), nil
	case token.Fn:
		if err := p.advance(); err != nil {
			return "", err
		}
		if _, err := p.expect(token.LParen); err != nil {
			return "", err
		}
		var params []string
		if p.cur.Kind != token.RParen {
			for {
				pt, err := p.parseType()
				if err != nil {
					return "", err
				}
				params = append(params, pt)
				if p.cur.Kind == token.Comma {
					if err := p.advance(); err != nil {
						return "", err
					}
					continue
				}
				break
			}
		}
		if _, err := p.expect(token.RParen); err != nil {
			return "", err
		}
		ret := types.Nil
		if p.cur.Kind == token.Arrow {
			var err error
			if err = p.advance(); err != nil {
				return "", err
			}
			ret, err = p.parseType()
			if err != nil {
				return "", err
			}
		}
		return types.CanonicalFunctionType(params, ret), nil
	default:
		return "", p.errf("expected a type, got %s", p.cur.Kind)
	}
}

// Expression grammar, lowest to highest precedence.

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseLogicalOr() }

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Or {
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Token: tok, LHS: left, Op: ast.OpOr, RHS: right}
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.And {
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Token: tok, LHS: left, Op: ast.OpAnd, RHS: right}
	}
	return left, nil
}

var comparisonOps = map[token.Kind]ast.BinaryOperator{
	token.GreaterThan:  ast.OpGreaterThan,
	token.LessThan:     ast.OpLessThan,
	token.GreaterEqual: ast.OpGreaterEqual,
	token.LessEqual:    ast.OpLessEqual,
	token.EqualEqual:   ast.OpEqual,
	token.NotEqual:     ast.OpNotEqual,
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	if p.cur.Kind == token.Not {
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOperation{Token: tok, Op: ast.OpNot, Operand: operand}, nil
	}
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.cur.Kind]
		if !ok {
			break
		}
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Token: tok, LHS: left, Op: op, RHS: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Plus || p.cur.Kind == token.Minus {
		tok := p.cur
		op := ast.OpAdd
		if tok.Kind == token.Minus {
			op = ast.OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Token: tok, LHS: left, Op: op, RHS: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Asterisk || p.cur.Kind == token.Divide {
		tok := p.cur
		op := ast.OpMul
		if tok.Kind == token.Divide {
			op = ast.OpDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperation{Token: tok, LHS: left, Op: op, RHS: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Kind == token.Minus {
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOperation{Token: tok, Op: ast.OpNegate, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.DotStar {
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr = &ast.UnaryOperation{Token: tok, Op: ast.OpDereference, Operand: expr}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur.Kind {
	case token.Number:
		tok := p.cur
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, p.errf("invalid integer literal %q", tok.Lexeme)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NumberLiteral{Token: tok, Value: v}, nil
	case token.True, token.False:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.BooleanLiteral{Token: tok, Value: tok.Kind == token.True}, nil
	case token.StringLiteral:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Token: tok, Value: tok.Lexeme}, nil
	case token.LParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return e, nil
	case token.Fn:
		return p.parseAnonymousFunction()
	case token.Borrow:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOperation{Token: tok, Op: ast.OpAddressOf, Operand: operand}, nil
	case token.Identifier:
		return p.parseIdentifierExpr()
	default:
		return nil, p.errf("unexpected token %s in expression", p.cur.Kind)
	}
}

func (p *Parser) parseIdentifierExpr() (ast.Expr, error) {
	tok := p.cur
	name := p.cur.Lexeme
	if err := p.advance(); err != nil {
		return nil, err
	}
	switch p.cur.Kind {
	case token.LParen:
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.FunctionCall{Token: tok, CalleeName: name, Args: args}, nil
	case token.Dot:
		if err := p.advance(); err != nil {
			return nil, err
		}
		memberTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.MemberAccess{Token: tok, ObjectName: name, MemberName: memberTok.Lexeme, Args: args}, nil
	default:
		return &ast.VariableReference{Token: tok, Name: name}, nil
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []ast.Expr
	if p.cur.Kind != token.RParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.Kind == token.Comma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseAnonymousFunction() (ast.Expr, error) {
	tok := p.cur
	if err := p.advance(); err != nil { // consume 'fn'
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	returnType := types.Nil
	if p.cur.Kind == token.Arrow {
		if err := p.advance(); err != nil {
			return nil, err
		}
		returnType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseFunctionBody(params)
	if err != nil {
		return nil, err
	}
	return &ast.AnonymousFunction{Token: tok, Parameters: params, ReturnType: returnType, Body: body}, nil
}
