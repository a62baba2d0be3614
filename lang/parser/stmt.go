package parser

import (
	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/token"
)

func (p *parser) parseBlock() *ast.Block {
	start := p.expect(token.LBRACE)
	b := &ast.Block{Start: start}
	for p.tok != token.RBRACE && p.tok != token.EOF {
		b.Stmts = append(b.Stmts, p.parseStmt())
	}
	b.End = p.expect(token.RBRACE)
	return b
}

func (p *parser) parseStmt() ast.Stmt {
	switch p.tok {
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.BREAK:
		start := p.pos()
		p.next()
		return &ast.BreakStmt{Start: start}
	case token.RETURN:
		return p.parseReturnStmt()
	case token.ASM:
		return p.parseAsmStmt()
	case token.STATIC_IF:
		return p.parseStaticIfDecl()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *parser) parseIfStmt() *ast.IfStmt {
	start := p.expect(token.IF)
	cond := p.parseExpr()
	then := p.parseBlock()
	stmt := &ast.IfStmt{Start: start, Cond: cond, Then: then}
	switch p.tok {
	case token.ELSEIF:
		elseifPos := p.pos()
		inner := p.parseElseIfStmt()
		stmt.Else = &ast.Block{Start: elseifPos, End: inner.Then.End, Stmts: []ast.Stmt{inner}}
		if inner.Else != nil {
			_, end := inner.Else.Span()
			stmt.Else.End = end
		}
	case token.ELSE:
		p.next()
		stmt.Else = p.parseBlock()
	}
	return stmt
}

// parseElseIfStmt parses the `elseif cond { ... }` that follows an `if`,
// itself allowing a further elseif/else chain, without consuming a leading
// `else` (the caller already knows it saw ELSEIF directly).
func (p *parser) parseElseIfStmt() *ast.IfStmt {
	start := p.expect(token.ELSEIF)
	cond := p.parseExpr()
	then := p.parseBlock()
	stmt := &ast.IfStmt{Start: start, Cond: cond, Then: then}
	switch p.tok {
	case token.ELSEIF:
		elseifPos := p.pos()
		inner := p.parseElseIfStmt()
		stmt.Else = &ast.Block{Start: elseifPos, End: inner.Then.End, Stmts: []ast.Stmt{inner}}
		if inner.Else != nil {
			_, end := inner.Else.Span()
			stmt.Else.End = end
		}
	case token.ELSE:
		p.next()
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *parser) parseWhileStmt() *ast.WhileStmt {
	start := p.expect(token.WHILE)
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.WhileStmt{Start: start, Cond: cond, Body: body}
}

func (p *parser) parseForStmt() *ast.ForRangeStmt {
	start := p.expect(token.FOR)
	v := p.parseIdent()
	p.expect(token.FROM)
	from := p.parseExpr()
	p.expect(token.TO)
	to := p.parseExpr()
	body := p.parseBlock()
	return &ast.ForRangeStmt{Start: start, Var: v, From: from, To: to, Body: body}
}

func (p *parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.expect(token.RETURN)
	stmt := &ast.ReturnStmt{Start: start}
	if p.tok == token.RBRACE || p.tok == token.SEMI || p.tok == token.EOF {
		return stmt
	}
	stmt.Results = append(stmt.Results, p.parseExpr())
	for p.tok == token.COMMA {
		p.next()
		stmt.Results = append(stmt.Results, p.parseExpr())
	}
	return stmt
}

// parseAsmStmt parses `asm "text" : constraint(expr), ... ;`, the inline
// assembly form described by §4.6.
func (p *parser) parseAsmStmt() *ast.AsmStmt {
	start := p.expect(token.ASM)
	text := p.val.String
	p.expect(token.STRING)
	stmt := &ast.AsmStmt{Start: start, Text: text}
	if p.tok == token.COLON {
		p.next()
		for {
			constraint := p.val.String
			p.expect(token.STRING)
			p.expect(token.LPAREN)
			value := p.parseExpr()
			p.expect(token.RPAREN)
			stmt.Bindings = append(stmt.Bindings, &ast.AsmBinding{Constraint: constraint, Value: value})
			if p.tok != token.COMMA {
				break
			}
			p.next()
		}
	}
	stmt.End = p.expect(token.SEMI)
	return stmt
}

// parseSimpleStmt handles everything that starts with an expression: a local
// var-decl (`name : Type = value` / `name := value`), single/multi
// assignment, and bare expression statements (calls).
func (p *parser) parseSimpleStmt() ast.Stmt {
	first := p.parseExpr()

	switch p.tok {
	case token.COLON, token.COLONEQ:
		name, ok := first.(*ast.IdentExpr)
		if !ok {
			p.errorf("expected identifier before %#v", p.tok)
			return &ast.ExprStmt{X: first}
		}
		if p.tok == token.COLONEQ {
			start := p.pos()
			p.next()
			val := p.parseExpr()
			return &ast.VarDecl{Name: name, Start: start, Value: val}
		}
		start := p.pos()
		p.next()
		typ := p.parseExpr()
		var val ast.Expr
		if p.tok == token.ASSIGN {
			p.next()
			val = p.parseExpr()
		}
		return &ast.VarDecl{Name: name, Start: start, Type: typ, Value: val}

	case token.ASSIGN:
		assign := p.pos()
		p.next()
		val := p.parseExpr()
		return &ast.AssignStmt{Left: first, Assign: assign, Right: val}

	case token.COMMA:
		left := []ast.Expr{first}
		for p.tok == token.COMMA {
			p.next()
			left = append(left, p.parseExpr())
		}
		infer := false
		var assign token.Pos
		switch p.tok {
		case token.COLONEQ:
			infer = true
			assign = p.pos()
			p.next()
		case token.ASSIGN:
			assign = p.pos()
			p.next()
		default:
			p.errorf("expected := or = after multi-assign targets, got %#v", p.tok)
		}
		right := []ast.Expr{p.parseExpr()}
		for p.tok == token.COMMA {
			p.next()
			right = append(right, p.parseExpr())
		}
		return &ast.MultiAssignStmt{Left: left, Assign: assign, Infer: infer, Right: right}

	default:
		return &ast.ExprStmt{X: first}
	}
}
