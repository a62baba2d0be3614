package constval

import "github.com/vela-lang/velac/lang/types"

// AnyValue is implemented by every kind of value a typed expression can
// carry (§3): a compile-time constant, or one of three runtime value
// shapes. Register is `any` (holding an *hlir.Value once lang/hlir assigns
// it a register) to avoid an import cycle, since lang/hlir is a downstream
// consumer of this package, not an upstream one.
type AnyValue interface {
	anyValue()
	Type() types.AnyType
}

type (
	// ConstantValue wraps an AnyConstantValue so it satisfies AnyValue; used
	// when a typed expression's value is known at compile time.
	ConstantValue struct {
		Const AnyConstantValue
	}

	// AnonymousValue is a runtime value with no storage location: the result
	// of an arithmetic expression, a function call, or any other expression
	// that cannot appear on the left of an assignment.
	AnonymousValue struct {
		Typ      types.AnyType
		Register any
	}

	// AssignableValue is a runtime lvalue: a local variable, a struct member,
	// or an array element, addressable via Register (expected to be a
	// pointer-typed hlir register pointing at the storage).
	AssignableValue struct {
		Typ      types.AnyType
		Register any
	}

	// UndeterminedAggregateValue is the value of an aggregate literal
	// `{ ... }` whose element values are known but whose concrete aggregate
	// type (StructType, UnionType, or StaticArrayType) has not yet been
	// fixed by context.
	UndeterminedAggregateValue struct {
		Typ    types.AnyType // an Undetermined* type
		Values []AnyValue
	}
)

func (*ConstantValue) anyValue()              {}
func (*AnonymousValue) anyValue()              {}
func (*AssignableValue) anyValue()             {}
func (*UndeterminedAggregateValue) anyValue()  {}

func (v *ConstantValue) Type() types.AnyType  { return v.Const.Type() }
func (v *AnonymousValue) Type() types.AnyType { return v.Typ }
func (v *AssignableValue) Type() types.AnyType { return v.Typ }
func (v *UndeterminedAggregateValue) Type() types.AnyType { return v.Typ }

// IsAssignable reports whether v can be the target of an assignment.
func IsAssignable(v AnyValue) bool {
	_, ok := v.(*AssignableValue)
	return ok
}
