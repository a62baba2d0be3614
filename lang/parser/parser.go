// Package parser is a minimal recursive-descent parser producing the
// lang/ast node shapes the core consumes. Tokenising and parsing are out of
// scope for the core per the spec (§1) — this package exists only so the
// scheduler's ParseFile job (§4.1) and the CLI's tokenize/parse/build
// subcommands have a real collaborator to call, scoped to the grammar the
// spec actually needs rather than a fully general language surface.
//
// The structure (a parser struct holding the current token, precedence-
// climbing for binary expressions, and an accumulated scanner.ErrorList) is
// adapted from the teacher's lang/parser package.
package parser

import (
	"fmt"
	"os"

	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/scanner"
	"github.com/vela-lang/velac/lang/token"
)

// ParseFiles parses each file in paths into a *ast.Chunk, registering all of
// them (and, transitively, every file reached through `import`) in the
// returned FileSet. The error, if non-nil, is a scanner.ErrorList.
func ParseFiles(paths ...string) (*token.FileSet, []*ast.Chunk, error) {
	fset := token.NewFileSet()
	var el scanner.ErrorList
	seen := make(map[string]bool)
	var chunks []*ast.Chunk

	var parseOne func(path string)
	parseOne = func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true

		src, err := os.ReadFile(path)
		if err != nil {
			el.Add(token.Position{Filename: path}, err.Error())
			return
		}
		file := fset.AddFile(path, src)

		var p parser
		p.init(file, src, el.Add)
		chunk := p.parseChunk()
		chunk.Name = path
		chunks = append(chunks, chunk)

		for _, d := range chunk.Decls {
			if imp, ok := d.(*ast.ImportDecl); ok {
				parseOne(imp.Path)
			}
		}
	}
	for _, path := range paths {
		parseOne(path)
	}
	el.Sort()
	return fset, chunks, el.Err()
}

// ParseSource parses src (an in-memory chunk, typically used by tests) under
// the given path name.
func ParseSource(path string, src []byte) (*token.File, *ast.Chunk, error) {
	fset := token.NewFileSet()
	file := fset.AddFile(path, src)
	var el scanner.ErrorList
	var p parser
	p.init(file, src, el.Add)
	chunk := p.parseChunk()
	chunk.Name = path
	el.Sort()
	return file, chunk, el.Err()
}

type parser struct {
	s    scanner.Scanner
	file *token.File
	err  func(token.Position, string)

	tok token.Token
	val scanner.Value
}

func (p *parser) init(file *token.File, src []byte, errHandler func(token.Position, string)) {
	p.file = file
	p.err = errHandler
	p.s.Init(file, src, errHandler)
	p.next()
}

func (p *parser) next() {
	p.tok = p.s.Scan(&p.val)
}

func (p *parser) pos() token.Pos { return p.val.Pos }

func (p *parser) errorf(format string, args ...any) {
	p.err(p.file.Position(p.pos()), fmt.Sprintf(format, args...))
}

// expect consumes the current token if it matches tok, reporting an error
// and leaving the cursor in place otherwise (best-effort recovery, matching
// §4.1's "best-effort multi-error reporting" philosophy carried up from the
// core into the parser).
func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos()
	if p.tok != tok {
		p.errorf("expected %#v, got %#v", tok, p.tok)
		return pos
	}
	p.next()
	return pos
}

func (p *parser) parseChunk() *ast.Chunk {
	ch := &ast.Chunk{Name: p.file.Name()}
	for p.tok != token.EOF {
		d := p.parseDecl()
		if d == nil {
			// avoid infinite loop on unrecoverable garbage
			p.next()
			continue
		}
		ch.Decls = append(ch.Decls, d)
	}
	ch.EOF = p.pos()
	return ch
}

func (p *parser) parseDecl() ast.Decl {
	switch p.tok {
	case token.IMPORT:
		return p.parseImportDecl()
	case token.STATIC_IF:
		return p.parseStaticIfDecl()
	case token.IDENT:
		return p.parseNamedDecl()
	default:
		p.errorf("expected declaration, got %#v", p.tok)
		return nil
	}
}

func (p *parser) parseImportDecl() *ast.ImportDecl {
	start := p.expect(token.IMPORT)
	path := p.val.String
	p.expect(token.STRING)
	return &ast.ImportDecl{Start: start, Path: path}
}

func (p *parser) parseStaticIfDecl() *ast.StaticIfDecl {
	start := p.expect(token.STATIC_IF)
	cond := p.parseExpr()
	p.expect(token.LBRACE)
	var then []ast.Decl
	for p.tok != token.RBRACE && p.tok != token.EOF {
		then = append(then, p.parseDecl())
	}
	p.expect(token.RBRACE)

	var els []ast.Decl
	if p.tok == token.ELSE {
		p.next()
		if p.tok == token.STATIC_IF {
			els = append(els, p.parseStaticIfDecl())
		} else {
			p.expect(token.LBRACE)
			for p.tok != token.RBRACE && p.tok != token.EOF {
				els = append(els, p.parseDecl())
			}
			p.expect(token.RBRACE)
		}
	}
	return &ast.StaticIfDecl{Start: start, Cond: cond, Then: then, Else: els}
}

// parseNamedDecl parses `name :: value`, `name : Type = value`, `name :=
// value`, or `name : Type` (no initializer).
func (p *parser) parseNamedDecl() ast.Decl {
	name := p.parseIdent()

	switch p.tok {
	case token.COLONCOLON:
		p.next()
		tags := p.parseTags()
		val := p.parseExpr()
		return &ast.ConstDecl{Name: name, Value: val, Tags: tags}

	case token.COLONEQ:
		start := p.pos()
		p.next()
		val := p.parseExpr()
		return &ast.VarDecl{Name: name, Start: start, Value: val}

	case token.COLON:
		start := p.pos()
		p.next()
		typ := p.parseExpr()
		var val ast.Expr
		if p.tok == token.ASSIGN {
			p.next()
			val = p.parseExpr()
		}
		return &ast.VarDecl{Name: name, Start: start, Type: typ, Value: val}

	default:
		p.errorf("expected ::, := or : after identifier, got %#v", p.tok)
		return nil
	}
}

func (p *parser) parseTags() []ast.Tag {
	var tags []ast.Tag
	for p.tok == token.EXTERN || p.tok == token.NO_MANGLE || p.tok == token.CALL_CONV {
		tag := ast.Tag{Name: p.tok, Pos: p.pos()}
		p.next()
		if p.tok == token.LPAREN {
			p.next()
			for p.tok != token.RPAREN && p.tok != token.EOF {
				tag.Args = append(tag.Args, p.val.String)
				p.expect(token.STRING)
				if p.tok == token.COMMA {
					p.next()
				}
			}
			p.expect(token.RPAREN)
		}
		tags = append(tags, tag)
	}
	return tags
}

func (p *parser) parseIdent() *ast.IdentExpr {
	pos := p.pos()
	isDeterminer := false
	if p.tok == token.DOLLAR {
		isDeterminer = true
		p.next()
	}
	lit := p.val.Raw
	p.expect(token.IDENT)
	return &ast.IdentExpr{Start: pos, Lit: lit, IsDeterminer: isDeterminer}
}
