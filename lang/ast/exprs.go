package ast

import (
	"fmt"

	"github.com/vela-lang/velac/lang/token"
)

type (
	// LiteralExpr is an int, float, bool, string, char, or undef literal.
	LiteralExpr struct {
		Start token.Pos
		Type  token.Token // INT, FLOAT, TRUE, FALSE, STRING, CHAR, UNDEF
		Raw   string
		Int   uint64
		Float float64
		Str   string
	}

	// BinOpExpr is a binary expression, e.g. x + y.
	BinOpExpr struct {
		Left  Expr
		Type  token.Token
		Op    token.Pos
		Right Expr
	}

	// UnaryOpExpr is a unary expression, e.g. -x, *p, &x.
	UnaryOpExpr struct {
		Type  token.Token
		Op    token.Pos
		Right Expr
	}

	// CallExpr is a function call, e.g. f(x, y).
	CallExpr struct {
		Fn     Expr
		Lparen token.Pos
		Args   []Expr
		Rparen token.Pos
	}

	// DotExpr is a member access, e.g. x.y.
	DotExpr struct {
		Left  Expr
		Dot   token.Pos
		Right *IdentExpr
	}

	// IndexExpr is an index expression, e.g. x[y].
	IndexExpr struct {
		Prefix Expr
		Lbrack token.Pos
		Index  Expr
		Rbrack token.Pos
	}

	// ParenExpr is a parenthesized expression.
	ParenExpr struct {
		Lparen token.Pos
		Expr   Expr
		Rparen token.Pos
	}

	// AggregateLitExpr is an aggregate literal `{ v1, v2, ... }`, used for
	// static-array, struct, and union-member initializers (coerced later by
	// the type checker, §4.3).
	AggregateLitExpr struct {
		Lbrace token.Pos
		Elems  []Expr
		Rbrace token.Pos
	}

	// PointerTypeExpr is a pointer type, e.g. *T.
	PointerTypeExpr struct {
		Star token.Pos
		Elem Expr
	}

	// ArrayTypeExpr is a static-array type [N]T (Len != nil) or a slice type
	// []T (Len == nil).
	ArrayTypeExpr struct {
		Lbrack token.Pos
		Len    Expr // nil for a slice
		Rbrack token.Pos
		Elem   Expr
	}

	// FuncSignature is the parameter/result list of a function literal or
	// function-pointer type.
	FuncSignature struct {
		Lparen  token.Pos
		Params  []*ParamDecl
		Rparen  token.Pos
		Arrow   token.Pos // 0 if no explicit results
		Results []Expr
	}

	// ParamDecl is a single function parameter. Type may be an IdentExpr
	// marked IsDeterminer (a $T-style type determiner).
	ParamDecl struct {
		Name *IdentExpr
		Type Expr
	}

	// FuncTypeExpr is a bare function-pointer type, e.g. (i32, i32) -> i32
	// used without a body, as in a struct field holding a callback.
	FuncTypeExpr struct {
		Sig *FuncSignature
	}

	// FuncLitExpr is a function literal: `(params) -> results { body }`. It
	// is the Value of most ConstDecls.
	FuncLitExpr struct {
		Sig  *FuncSignature
		Body *Block
		End  token.Pos
	}

	// FieldDecl is a single struct/union member or enum variant.
	FieldDecl struct {
		Name  *IdentExpr
		Type  Expr // nil for an enum variant without explicit value
		Value Expr // enum variant explicit value, or nil
	}

	// StructTypeExpr defines a struct type; Determiners lists `$T`-style
	// polymorph determiners for a polymorphic struct (§3, §4.5).
	StructTypeExpr struct {
		Start       token.Pos
		Determiners []*IdentExpr
		Fields      []*FieldDecl
		End         token.Pos
	}

	// UnionTypeExpr defines a union type.
	UnionTypeExpr struct {
		Start       token.Pos
		Determiners []*IdentExpr
		Fields      []*FieldDecl
		End         token.Pos
	}

	// EnumTypeExpr defines an enum type with an explicit backing integer
	// type.
	EnumTypeExpr struct {
		Start    token.Pos
		Backing  Expr
		Variants []*FieldDecl
		End      token.Pos
	}
)

func (*LiteralExpr) expr()      {}
func (*BinOpExpr) expr()        {}
func (*UnaryOpExpr) expr()      {}
func (*CallExpr) expr()         {}
func (*DotExpr) expr()          {}
func (*IndexExpr) expr()        {}
func (*ParenExpr) expr()        {}
func (*AggregateLitExpr) expr() {}
func (*PointerTypeExpr) expr()  {}
func (*ArrayTypeExpr) expr()    {}
func (*FuncTypeExpr) expr()     {}
func (*FuncLitExpr) expr()      {}
func (*StructTypeExpr) expr()   {}
func (*UnionTypeExpr) expr()    {}
func (*EnumTypeExpr) expr()     {}

func (n *LiteralExpr) Span() (start, end token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Raw))
}
func (n *LiteralExpr) Walk(_ Visitor) {}
func (n *LiteralExpr) Format(f fmt.State, verb rune) { format(f, verb, n, n.Raw, nil) }

func (n *BinOpExpr) Span() (start, end token.Pos) {
	s, _ := n.Left.Span()
	_, e := n.Right.Span()
	return s, e
}
func (n *BinOpExpr) Walk(v Visitor) { Walk(v, n.Left); Walk(v, n.Right) }
func (n *BinOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "binop "+n.Type.String(), nil)
}

func (n *UnaryOpExpr) Span() (start, end token.Pos) {
	_, e := n.Right.Span()
	return n.Op, e
}
func (n *UnaryOpExpr) Walk(v Visitor) { Walk(v, n.Right) }
func (n *UnaryOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "unop "+n.Type.String(), nil)
}

func (n *CallExpr) Span() (start, end token.Pos) {
	s, _ := n.Fn.Span()
	return s, n.Rparen
}
func (n *CallExpr) Walk(v Visitor) {
	Walk(v, n.Fn)
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *CallExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call", map[string]int{"args": len(n.Args)})
}

func (n *DotExpr) Span() (start, end token.Pos) {
	s, _ := n.Left.Span()
	_, e := n.Right.Span()
	return s, e
}
func (n *DotExpr) Walk(v Visitor) { Walk(v, n.Left); Walk(v, n.Right) }
func (n *DotExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "dot", nil) }

func (n *IndexExpr) Span() (start, end token.Pos) {
	s, _ := n.Prefix.Span()
	return s, n.Rbrack
}
func (n *IndexExpr) Walk(v Visitor) { Walk(v, n.Prefix); Walk(v, n.Index) }
func (n *IndexExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "index", nil) }

func (n *ParenExpr) Span() (start, end token.Pos) { return n.Lparen, n.Rparen }
func (n *ParenExpr) Walk(v Visitor)               { Walk(v, n.Expr) }
func (n *ParenExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "paren", nil) }

func (n *AggregateLitExpr) Span() (start, end token.Pos) { return n.Lbrace, n.Rbrace }
func (n *AggregateLitExpr) Walk(v Visitor) {
	for _, e := range n.Elems {
		Walk(v, e)
	}
}
func (n *AggregateLitExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "aggregate", map[string]int{"elems": len(n.Elems)})
}

func (n *PointerTypeExpr) Span() (start, end token.Pos) {
	_, e := n.Elem.Span()
	return n.Star, e
}
func (n *PointerTypeExpr) Walk(v Visitor) { Walk(v, n.Elem) }
func (n *PointerTypeExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "*T", nil) }

func (n *ArrayTypeExpr) Span() (start, end token.Pos) {
	_, e := n.Elem.Span()
	return n.Lbrack, e
}
func (n *ArrayTypeExpr) Walk(v Visitor) {
	if n.Len != nil {
		Walk(v, n.Len)
	}
	Walk(v, n.Elem)
}
func (n *ArrayTypeExpr) Format(f fmt.State, verb rune) {
	label := "[]T"
	if n.Len != nil {
		label = "[N]T"
	}
	format(f, verb, n, label, nil)
}

func (n *FuncTypeExpr) Span() (start, end token.Pos) {
	end = n.Sig.Rparen
	if len(n.Sig.Results) > 0 {
		_, end = n.Sig.Results[len(n.Sig.Results)-1].Span()
	}
	return n.Sig.Lparen, end
}
func (n *FuncTypeExpr) Walk(v Visitor) { walkSig(v, n.Sig) }
func (n *FuncTypeExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "functype", nil) }

func (n *FuncLitExpr) Span() (start, end token.Pos) { return n.Sig.Lparen, n.End }
func (n *FuncLitExpr) Walk(v Visitor) {
	walkSig(v, n.Sig)
	Walk(v, n.Body)
}
func (n *FuncLitExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "func", map[string]int{"params": len(n.Sig.Params)})
}

func walkSig(v Visitor, sig *FuncSignature) {
	for _, p := range sig.Params {
		Walk(v, p.Name)
		Walk(v, p.Type)
	}
	for _, r := range sig.Results {
		Walk(v, r)
	}
}

func (n *StructTypeExpr) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *StructTypeExpr) Walk(v Visitor)               { walkFields(v, n.Determiners, n.Fields) }
func (n *StructTypeExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "struct", map[string]int{"fields": len(n.Fields)})
}

func (n *UnionTypeExpr) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *UnionTypeExpr) Walk(v Visitor)               { walkFields(v, n.Determiners, n.Fields) }
func (n *UnionTypeExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "union", map[string]int{"fields": len(n.Fields)})
}

func (n *EnumTypeExpr) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *EnumTypeExpr) Walk(v Visitor) {
	Walk(v, n.Backing)
	for _, variant := range n.Variants {
		Walk(v, variant.Name)
		if variant.Value != nil {
			Walk(v, variant.Value)
		}
	}
}
func (n *EnumTypeExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "enum", map[string]int{"variants": len(n.Variants)})
}

func walkFields(v Visitor, determiners []*IdentExpr, fields []*FieldDecl) {
	for _, d := range determiners {
		Walk(v, d)
	}
	for _, fld := range fields {
		Walk(v, fld.Name)
		if fld.Type != nil {
			Walk(v, fld.Type)
		}
		if fld.Value != nil {
			Walk(v, fld.Value)
		}
	}
}

// Unwrap strips any enclosing ParenExpr.
func Unwrap(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.Expr
	}
}

// IsAssignable reports whether e can appear on the left of an assignment:
// identifiers, member access, and index expressions (transitively).
func IsAssignable(e Expr) bool {
	switch e := Unwrap(e).(type) {
	case *IdentExpr:
		return true
	case *DotExpr:
		return IsAssignable(e.Left)
	case *IndexExpr:
		return IsAssignable(e.Prefix)
	default:
		return false
	}
}
