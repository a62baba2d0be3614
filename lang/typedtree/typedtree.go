// Package typedtree implements TypedExpression and TypedStatement (§3): the
// AST decorated, bottom-up, with a resolved AnyType and AnyValue. Like
// lang/ast, both are closed tagged sums of concrete node types rather than a
// class hierarchy with virtual dispatch.
package typedtree

import (
	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/types"
)

// TypedExpression is implemented by every typed expression node. Every node
// carries the untyped ast.Expr it was produced from (for diagnostics/debug
// info), its resolved Type, and its Value.
type TypedExpression interface {
	typedExpr()
	Source() ast.Expr
	Type() types.AnyType
	Value() constval.AnyValue
	Span() (start, end token.Pos)
}

// base is embedded by every concrete TypedExpression to supply the common
// Source/Type/Value/Span accessors.
type base struct {
	src ast.Expr
	typ types.AnyType
	val constval.AnyValue
}

func (b *base) Source() ast.Expr          { return b.src }
func (b *base) Type() types.AnyType       { return b.typ }
func (b *base) Value() constval.AnyValue  { return b.val }
func (b *base) Span() (start, end token.Pos) { return b.src.Span() }

// newBase constructs the common fields every typed expression embeds.
func newBase(src ast.Expr, typ types.AnyType, val constval.AnyValue) base {
	return base{src: src, typ: typ, val: val}
}

type (
	// Literal is a typed literal expression (int, float, bool, string, char,
	// undef): its Value is always a constval.ConstantValue.
	Literal struct {
		base
	}

	// Ident is a typed reference to a resolved name.
	Ident struct {
		base
		Name string
	}

	// BinOp is a typed binary operation.
	BinOp struct {
		base
		Op          token.Token
		Left, Right TypedExpression
	}

	// UnaryOp is a typed unary operation.
	UnaryOp struct {
		base
		Op      token.Token
		Operand TypedExpression
	}

	// Call is a typed function call.
	Call struct {
		base
		Fn   TypedExpression
		Args []TypedExpression
	}

	// Member is a typed struct/union-member or file-module member access.
	Member struct {
		base
		Left      TypedExpression
		FieldName string
		// Index is the member's position within Left's struct/union type,
		// resolved by the checker (used directly by hlirgen for
		// ReadStructMember/struct-member-pointer instructions).
		Index int
	}

	// Index is a typed array/slice/pointer index expression.
	Index struct {
		base
		Prefix, Index TypedExpression
	}

	// Aggregate is a typed aggregate literal, once coerced to a concrete
	// StructType, UnionType, or StaticArrayType.
	Aggregate struct {
		base
		Elems []TypedExpression
	}

	// Coercion wraps an expression whose value changed representation to
	// satisfy an implicit conversion (§4.3): e.g. UndeterminedInteger to a
	// concrete Integer width, or a named struct literal's member reordering.
	Coercion struct {
		base
		Inner TypedExpression
	}

	// Cast wraps an expression subjected to an explicit, user-written cast,
	// preserved distinctly from an implicit Coercion per §3.
	Cast struct {
		base
		Inner TypedExpression
	}
)

func (*Literal) typedExpr()   {}
func (*Ident) typedExpr()     {}
func (*BinOp) typedExpr()     {}
func (*UnaryOp) typedExpr()   {}
func (*Call) typedExpr()      {}
func (*Member) typedExpr()    {}
func (*Index) typedExpr()     {}
func (*Aggregate) typedExpr() {}
func (*Coercion) typedExpr()  {}
func (*Cast) typedExpr()      {}

// NewLiteral constructs a typed literal node.
func NewLiteral(src ast.Expr, typ types.AnyType, val constval.AnyValue) *Literal {
	return &Literal{base: newBase(src, typ, val)}
}

// NewIdent constructs a typed identifier reference.
func NewIdent(src ast.Expr, name string, typ types.AnyType, val constval.AnyValue) *Ident {
	return &Ident{base: newBase(src, typ, val), Name: name}
}

// NewBinOp constructs a typed binary operation.
func NewBinOp(src ast.Expr, op token.Token, left, right TypedExpression, typ types.AnyType, val constval.AnyValue) *BinOp {
	return &BinOp{base: newBase(src, typ, val), Op: op, Left: left, Right: right}
}

// NewUnaryOp constructs a typed unary operation.
func NewUnaryOp(src ast.Expr, op token.Token, operand TypedExpression, typ types.AnyType, val constval.AnyValue) *UnaryOp {
	return &UnaryOp{base: newBase(src, typ, val), Op: op, Operand: operand}
}

// NewCall constructs a typed call expression.
func NewCall(src ast.Expr, fn TypedExpression, args []TypedExpression, typ types.AnyType, val constval.AnyValue) *Call {
	return &Call{base: newBase(src, typ, val), Fn: fn, Args: args}
}

// NewMember constructs a typed member access.
func NewMember(src ast.Expr, left TypedExpression, field string, index int, typ types.AnyType, val constval.AnyValue) *Member {
	return &Member{base: newBase(src, typ, val), Left: left, FieldName: field, Index: index}
}

// NewIndex constructs a typed index expression.
func NewIndex(src ast.Expr, prefix, idx TypedExpression, typ types.AnyType, val constval.AnyValue) *Index {
	return &Index{base: newBase(src, typ, val), Prefix: prefix, Index: idx}
}

// NewAggregate constructs a typed, fully-coerced aggregate literal.
func NewAggregate(src ast.Expr, elems []TypedExpression, typ types.AnyType, val constval.AnyValue) *Aggregate {
	return &Aggregate{base: newBase(src, typ, val), Elems: elems}
}

// NewCoercion wraps inner in an implicit-conversion node targeting typ.
func NewCoercion(inner TypedExpression, typ types.AnyType, val constval.AnyValue) *Coercion {
	return &Coercion{base: newBase(inner.Source(), typ, val), Inner: inner}
}

// NewCast wraps inner in an explicit-cast node targeting typ.
func NewCast(src ast.Expr, inner TypedExpression, typ types.AnyType, val constval.AnyValue) *Cast {
	return &Cast{base: newBase(src, typ, val), Inner: inner}
}
