// Package constval implements the compiler's closed compile-time value
// hierarchy: AnyConstantValue and AnyValue (§3). Both are closed tagged
// sums, following the same marker-method pattern as lang/types and
// lang/ast.
package constval

import "github.com/vela-lang/velac/lang/types"

// AnyConstantValue is implemented by every kind of compile-time constant
// (§3). Scope, FunctionConstant and PolymorphicFunction's Decl/Scope fields
// are typed `any` to avoid an import cycle with lang/scope and lang/ast;
// callers type-assert to the concrete types they expect.
type AnyConstantValue interface {
	constantValue()
	// Type returns the AnyType this constant's value inhabits.
	Type() types.AnyType
}

type (
	// IntegerConst is an integer constant, stored as its raw bit pattern;
	// Typ carries its signedness/width (or UndeterminedIntegerType).
	IntegerConst struct {
		Typ   types.AnyType
		Value uint64
	}

	// FloatConst is a floating-point constant.
	FloatConst struct {
		Typ   types.AnyType
		Value float64
	}

	// BooleanConst is a boolean constant.
	BooleanConst struct {
		Value bool
	}

	// VoidConst is the single value of VoidType.
	VoidConst struct{}

	// UndefConst is the undef literal's value, coercible to any type.
	UndefConst struct {
		Typ types.AnyType
	}

	// ArrayConst is a constant array value: a length constant plus a pointer
	// constant to its backing storage (mirrors the runtime slice layout).
	ArrayConst struct {
		Typ     types.AnyType
		Length  *IntegerConst
		Pointer AnyConstantValue
	}

	// AggregateConst is a constant struct, union, or static-array value: the
	// ordered list of member/element constants.
	AggregateConst struct {
		Typ    types.AnyType
		Values []AnyConstantValue
	}

	// FileModuleConst is the value of an imported file: its top-level scope.
	// Scope is `any`, holding a *scope.Scope.
	FileModuleConst struct {
		Scope any
	}

	// TypeConst is a type used as a compile-time value (§3, "types are
	// first-class").
	TypeConst struct {
		Value types.AnyType
	}

	// FunctionConst is a fully-resolved, non-polymorphic function constant:
	// its declaration and the scope its body was type-checked in. Both are
	// `any` (an *ast.ConstDecl and a *scope.Scope) for the same reason as
	// above.
	FunctionConst struct {
		Typ   *types.FunctionType
		Decl  any
		Scope any
	}

	// PolymorphicFunctionConst is a `$T`-parameterized function constant
	// before instantiation.
	PolymorphicFunctionConst struct {
		Decl  any
		Scope any
	}

	// BuiltinFunctionConst is a compiler-provided builtin such as sizeof or
	// alignof, identified by name.
	BuiltinFunctionConst struct {
		Name string
	}

	// PolymorphicStructConst is a `$T`-parameterized struct constant before
	// instantiation; Decl and Scope are `any` (an *ast.StructTypeExpr and a
	// *scope.Scope) for the same reason as PolymorphicFunctionConst.
	PolymorphicStructConst struct {
		Decl  any
		Scope any
	}

	// PolymorphicUnionConst is the union analogue of PolymorphicStructConst.
	PolymorphicUnionConst struct {
		Decl  any
		Scope any
	}
)

func (*IntegerConst) constantValue()             {}
func (*FloatConst) constantValue()               {}
func (*BooleanConst) constantValue()             {}
func (*VoidConst) constantValue()                {}
func (*UndefConst) constantValue()                {}
func (*ArrayConst) constantValue()               {}
func (*AggregateConst) constantValue()           {}
func (*FileModuleConst) constantValue()          {}
func (*TypeConst) constantValue()                {}
func (*FunctionConst) constantValue()            {}
func (*PolymorphicFunctionConst) constantValue() {}
func (*BuiltinFunctionConst) constantValue()     {}
func (*PolymorphicStructConst) constantValue()   {}
func (*PolymorphicUnionConst) constantValue()    {}

func (c *IntegerConst) Type() types.AnyType { return c.Typ }
func (c *FloatConst) Type() types.AnyType   { return c.Typ }
func (*BooleanConst) Type() types.AnyType   { return &types.BooleanType{} }
func (*VoidConst) Type() types.AnyType      { return &types.VoidType{} }
func (c *UndefConst) Type() types.AnyType   { return c.Typ }
func (c *ArrayConst) Type() types.AnyType   { return c.Typ }
func (c *AggregateConst) Type() types.AnyType { return c.Typ }
func (*FileModuleConst) Type() types.AnyType  { return &types.FileModuleType{} }
func (*TypeConst) Type() types.AnyType        { return &types.TypeMetaType{} }
func (c *FunctionConst) Type() types.AnyType  { return c.Typ }
func (c *PolymorphicFunctionConst) Type() types.AnyType {
	return &types.PolymorphicFunctionType{Decl: c.Decl}
}
func (c *BuiltinFunctionConst) Type() types.AnyType {
	return &types.BuiltinFunctionType{Name: c.Name}
}
func (c *PolymorphicStructConst) Type() types.AnyType {
	return &types.PolymorphicStructType{Decl: c.Decl}
}
func (c *PolymorphicUnionConst) Type() types.AnyType {
	return &types.PolymorphicUnionType{Decl: c.Decl}
}
