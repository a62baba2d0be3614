package ast

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vela-lang/velac/lang/token"
)

func TestWalkCountsNodes(t *testing.T) {
	chunk := &Chunk{
		Name: "test",
		Decls: []Decl{
			&ConstDecl{
				Name: &IdentExpr{Lit: "x"},
				Value: &BinOpExpr{
					Left:  &LiteralExpr{Type: token.INT, Raw: "1", Int: 1},
					Type:  token.PLUS,
					Right: &LiteralExpr{Type: token.INT, Raw: "2", Int: 2},
				},
			},
		},
	}

	var count int
	var visit VisitorFunc
	visit = func(n Node, dir VisitDirection) Visitor {
		if dir == VisitEnter {
			count++
			return visit
		}
		return nil
	}
	Walk(visit, chunk)

	assert.Greater(t, count, 1)
}

func TestPrinter(t *testing.T) {
	chunk := &Chunk{
		Decls: []Decl{
			&ConstDecl{Name: &IdentExpr{Lit: "x"}, Value: &LiteralExpr{Type: token.INT, Raw: "1", Int: 1}},
		},
	}
	var buf bytes.Buffer
	p := &Printer{Output: &buf}
	assert.NoError(t, p.Print(chunk))
	assert.Contains(t, buf.String(), "const x")
}

func TestIsAssignable(t *testing.T) {
	assert.True(t, IsAssignable(&IdentExpr{Lit: "x"}))
	assert.True(t, IsAssignable(&DotExpr{Left: &IdentExpr{Lit: "x"}, Right: &IdentExpr{Lit: "y"}}))
	assert.False(t, IsAssignable(&LiteralExpr{Type: token.INT}))
}
