package ast

import (
	"fmt"

	"github.com/vela-lang/velac/lang/token"
)

type (
	// IdentExpr represents an identifier. It doubles as the name node for
	// declarations and as a reference expression.
	IdentExpr struct {
		Start token.Pos
		Lit   string
		// IsDeterminer is true for a polymorph determiner, i.e. an identifier
		// written as $Name (§4.5). Lit excludes the '$'.
		IsDeterminer bool
	}

	// ConstDecl represents a constant definition, e.g. `identity :: (value:
	// $T) -> T { return value }` or `U :: union { i: i32; f: f32 }`. It is the
	// vehicle for function, struct, union and enum definitions alike, since
	// they are all compile-time constant values bound to a name.
	ConstDecl struct {
		Name  *IdentExpr
		Colon token.Pos // position of the '::'
		Value Expr
		Tags  []Tag
	}

	// VarDecl represents a variable declaration, at top level or inside a
	// function body: `a : [3]i32 = { 10, 20, 30 }`, `x := 1`, or `u : U`
	// (Value nil).
	VarDecl struct {
		Name  *IdentExpr
		Start token.Pos
		Type  Expr // nil if inferred from Value (the ':=' form)
		Value Expr // nil if no initializer
	}

	// ImportDecl represents an import of another source file by path.
	ImportDecl struct {
		Start token.Pos
		Path  string
	}

	// StaticIfDecl represents a static_if used at declaration scope: its
	// selected branch's declarations are spliced into the enclosing scope
	// (§4.1 TypeStaticIf, S2).
	StaticIfDecl struct {
		Start      token.Pos
		Cond       Expr
		Then, Else []Decl
	}
)

func (n *IdentExpr) expr() {}
func (n *IdentExpr) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Lit))
}
func (n *IdentExpr) Walk(_ Visitor) {}
func (n *IdentExpr) Format(f fmt.State, verb rune) { format(f, verb, n, n.Lit, nil) }

func (n *ConstDecl) decl() {}
func (n *ConstDecl) Span() (start, end token.Pos) {
	s, _ := n.Name.Span()
	_, e := n.Value.Span()
	return s, e
}
func (n *ConstDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	Walk(v, n.Value)
}
func (n *ConstDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "const "+n.Name.Lit, nil) }

func (n *VarDecl) decl() {}
func (n *VarDecl) stmt() {}
func (n *VarDecl) Span() (start, end token.Pos) {
	end = n.Start
	if n.Value != nil {
		_, end = n.Value.Span()
	} else if n.Type != nil {
		_, end = n.Type.Span()
	}
	return n.Start, end
}
func (n *VarDecl) Walk(v Visitor) {
	Walk(v, n.Name)
	if n.Type != nil {
		Walk(v, n.Type)
	}
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *VarDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "var "+n.Name.Lit, nil) }

func (n *ImportDecl) decl() {}
func (n *ImportDecl) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Path))
}
func (n *ImportDecl) Walk(_ Visitor) {}
func (n *ImportDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "import "+n.Path, nil) }

func (n *StaticIfDecl) decl() {}
func (n *StaticIfDecl) stmt() {}
func (n *StaticIfDecl) Span() (start, end token.Pos) {
	_, e := n.Cond.Span()
	return n.Start, e
}
func (n *StaticIfDecl) Walk(v Visitor) {
	Walk(v, n.Cond)
	for _, d := range n.Then {
		Walk(v, d)
	}
	for _, d := range n.Else {
		Walk(v, d)
	}
}
func (n *StaticIfDecl) Format(f fmt.State, verb rune) { format(f, verb, n, "static_if", nil) }
