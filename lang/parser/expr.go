package parser

import (
	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/token"
)

var binopPriority = map[token.Token][2]int{
	token.OR: {1, 1}, token.OROR: {1, 1},
	token.AND: {2, 2}, token.ANDAND: {2, 2},
	token.LT: {3, 3}, token.LE: {3, 3}, token.GT: {3, 3}, token.GE: {3, 3},
	token.EQ: {3, 3}, token.NEQ: {3, 3},
	token.PIPE:      {4, 4},
	token.CIRCUMFLEX: {5, 5},
	token.AMPERSAND:  {6, 6},
	token.LTLT:       {7, 7}, token.GTGT: {7, 7},
	token.PLUS: {10, 10}, token.MINUS: {10, 10},
	token.STAR: {11, 11}, token.SLASH: {11, 11}, token.PERCENT: {11, 11},
}

const unopPriority = 12

func (p *parser) parseExpr() ast.Expr {
	return p.parseSubExpr(0)
}

func (p *parser) parseSubExpr(priority int) ast.Expr {
	var left ast.Expr
	switch {
	case p.tok == token.STAR:
		// `*x` is ambiguous between "pointer type of x" and "dereference of
		// x" until the checker resolves what x evaluates to (§3: types are
		// ordinary compile-time values), so both parse to the same node.
		star := p.pos()
		p.next()
		left = &ast.PointerTypeExpr{Star: star, Elem: p.parseSubExpr(unopPriority)}
	case p.tok.IsUnop():
		op := p.tok
		pos := p.pos()
		p.next()
		right := p.parseSubExpr(unopPriority)
		left = &ast.UnaryOpExpr{Type: op, Op: pos, Right: right}
	default:
		left = p.parseSimpleExpr()
	}

	for {
		pri, ok := binopPriority[p.tok]
		if !ok || pri[0] <= priority {
			break
		}
		op := p.tok
		pos := p.pos()
		p.next()
		right := p.parseSubExpr(pri[1])
		left = &ast.BinOpExpr{Left: left, Type: op, Op: pos, Right: right}
	}
	return left
}

func (p *parser) parseSimpleExpr() ast.Expr {
	switch p.tok {
	case token.LBRACE:
		return p.parseAggregateLit()
	case token.STRUCT:
		return p.parseStructType()
	case token.UNION:
		return p.parseUnionType()
	case token.ENUM:
		return p.parseEnumType()
	case token.LPAREN:
		return p.parseParenOrFuncLit()
	default:
		return p.parseSuffixedExpr()
	}
}

// parseParenOrFuncLit disambiguates `(expr)` from a function signature
// `(params) -> results { body }` or a bare function-pointer type `(T1, T2)
// -> T3`. It speculatively parses a signature; if that fails to find `->`,
// it falls back to a parenthesized expression (this only works because the
// grammar never nests a bare paren-expression as the sole content of a
// parameter list without an identifier, which is the one ambiguous case we
// accept losing).
func (p *parser) parseParenOrFuncLit() ast.Expr {
	sig := p.tryParseFuncSignature()
	if sig == nil {
		lparen := p.expect(token.LPAREN)
		e := p.parseExpr()
		rparen := p.expect(token.RPAREN)
		return &ast.ParenExpr{Lparen: lparen, Expr: e, Rparen: rparen}
	}
	if p.tok == token.LBRACE {
		body := p.parseBlock()
		return &ast.FuncLitExpr{Sig: sig, Body: body, End: body.End}
	}
	return &ast.FuncTypeExpr{Sig: sig}
}

func (p *parser) parseSuffixedExpr() ast.Expr {
	e := p.parseAtomExpr()
	for {
		switch p.tok {
		case token.DOT:
			dot := p.pos()
			p.next()
			e = &ast.DotExpr{Left: e, Dot: dot, Right: p.parseIdent()}
		case token.LBRACK:
			lbrack := p.pos()
			p.next()
			idx := p.parseExpr()
			rbrack := p.expect(token.RBRACK)
			e = &ast.IndexExpr{Prefix: e, Lbrack: lbrack, Index: idx, Rbrack: rbrack}
		case token.LPAREN:
			lparen := p.pos()
			p.next()
			var args []ast.Expr
			for p.tok != token.RPAREN && p.tok != token.EOF {
				args = append(args, p.parseExpr())
				if p.tok == token.COMMA {
					p.next()
				}
			}
			rparen := p.expect(token.RPAREN)
			e = &ast.CallExpr{Fn: e, Lparen: lparen, Args: args, Rparen: rparen}
		default:
			return e
		}
	}
}

func (p *parser) parseAtomExpr() ast.Expr {
	switch p.tok {
	case token.IDENT:
		return p.parseIdent()
	case token.DOLLAR:
		return p.parseIdent()
	case token.INT, token.FLOAT, token.STRING, token.CHAR, token.TRUE, token.FALSE, token.UNDEF:
		pos, tok, raw := p.pos(), p.tok, p.val.Raw
		lit := &ast.LiteralExpr{Start: pos, Type: tok, Raw: raw, Int: p.val.Int, Float: p.val.Float, Str: p.val.String}
		p.next()
		return lit
	case token.LBRACK:
		return p.parseArrayType()
	default:
		p.errorf("unexpected token %#v in expression", p.tok)
		pos := p.pos()
		p.next()
		return &ast.LiteralExpr{Start: pos, Type: token.ILLEGAL}
	}
}

func (p *parser) parseArrayType() *ast.ArrayTypeExpr {
	lbrack := p.expect(token.LBRACK)
	var length ast.Expr
	if p.tok != token.RBRACK {
		length = p.parseExpr()
	}
	rbrack := p.expect(token.RBRACK)
	elem := p.parseSubExpr(unopPriority)
	return &ast.ArrayTypeExpr{Lbrack: lbrack, Len: length, Rbrack: rbrack, Elem: elem}
}

func (p *parser) parseAggregateLit() *ast.AggregateLitExpr {
	lbrace := p.expect(token.LBRACE)
	var elems []ast.Expr
	for p.tok != token.RBRACE && p.tok != token.EOF {
		elems = append(elems, p.parseExpr())
		if p.tok == token.COMMA {
			p.next()
		}
	}
	rbrace := p.expect(token.RBRACE)
	return &ast.AggregateLitExpr{Lbrace: lbrace, Elems: elems, Rbrace: rbrace}
}

// tryParseFuncSignature attempts to parse `(params) -> results`. It always
// consumes the parameter list; it returns nil if no `->` follows, which the
// caller uses to detect "not actually a signature".
func (p *parser) tryParseFuncSignature() *ast.FuncSignature {
	lparen := p.expect(token.LPAREN)
	var params []*ast.ParamDecl
	for p.tok != token.RPAREN && p.tok != token.EOF {
		name := p.parseIdent()
		p.expect(token.COLON)
		typ := p.parseExpr()
		params = append(params, &ast.ParamDecl{Name: name, Type: typ})
		if p.tok == token.COMMA {
			p.next()
		}
	}
	rparen := p.expect(token.RPAREN)

	sig := &ast.FuncSignature{Lparen: lparen, Params: params, Rparen: rparen}
	if p.tok != token.ARROW {
		return nil
	}
	sig.Arrow = p.pos()
	p.next()
	if p.tok == token.LPAREN {
		p.next()
		for p.tok != token.RPAREN && p.tok != token.EOF {
			sig.Results = append(sig.Results, p.parseExpr())
			if p.tok == token.COMMA {
				p.next()
			}
		}
		p.expect(token.RPAREN)
	} else {
		sig.Results = append(sig.Results, p.parseExpr())
	}
	return sig
}

func (p *parser) parseFieldList(end token.Token) []*ast.FieldDecl {
	var fields []*ast.FieldDecl
	for p.tok != end && p.tok != token.EOF {
		name := p.parseIdent()
		var typ, val ast.Expr
		if p.tok == token.COLON {
			p.next()
			typ = p.parseExpr()
		}
		if p.tok == token.ASSIGN {
			p.next()
			val = p.parseExpr()
		}
		fields = append(fields, &ast.FieldDecl{Name: name, Type: typ, Value: val})
		if p.tok == token.SEMI || p.tok == token.COMMA {
			p.next()
		}
	}
	return fields
}

func (p *parser) parseStructType() *ast.StructTypeExpr {
	start := p.expect(token.STRUCT)
	determiners := p.parseDeterminerList()
	p.expect(token.LBRACE)
	fields := p.parseFieldList(token.RBRACE)
	end := p.expect(token.RBRACE)
	return &ast.StructTypeExpr{Start: start, Determiners: determiners, Fields: fields, End: end}
}

func (p *parser) parseUnionType() *ast.UnionTypeExpr {
	start := p.expect(token.UNION)
	determiners := p.parseDeterminerList()
	p.expect(token.LBRACE)
	fields := p.parseFieldList(token.RBRACE)
	end := p.expect(token.RBRACE)
	return &ast.UnionTypeExpr{Start: start, Determiners: determiners, Fields: fields, End: end}
}

func (p *parser) parseEnumType() *ast.EnumTypeExpr {
	start := p.expect(token.ENUM)
	var backing ast.Expr
	if p.tok != token.LBRACE {
		backing = p.parseExpr()
	}
	p.expect(token.LBRACE)
	variants := p.parseFieldList(token.RBRACE)
	end := p.expect(token.RBRACE)
	return &ast.EnumTypeExpr{Start: start, Backing: backing, Variants: variants, End: end}
}

func (p *parser) parseDeterminerList() []*ast.IdentExpr {
	if p.tok != token.LPAREN {
		return nil
	}
	p.next()
	var determiners []*ast.IdentExpr
	for p.tok != token.RPAREN && p.tok != token.EOF {
		determiners = append(determiners, p.parseIdent())
		if p.tok == token.COMMA {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return determiners
}
