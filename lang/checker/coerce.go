package checker

import (
	"fmt"

	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/types"
	"github.com/vela-lang/velac/lang/typedtree"
)

// CanCoerce reports whether a value of type from may be implicitly converted
// to type to, per the §4.3 coercion table. It does not itself produce a
// Coercion node — see Coerce.
func CanCoerce(from, to types.AnyType) bool {
	if types.Equal(from, to) {
		return true
	}
	switch from := from.(type) {
	case *types.UndeterminedIntegerType:
		switch to.(type) {
		case *types.IntegerType, *types.FloatType, *types.PointerType:
			return true
		}
		return false
	case *types.UndeterminedFloatType:
		_, ok := to.(*types.FloatType)
		return ok
	case *types.EnumType:
		return types.Equal(from, to) // Enum -> Integer requires an explicit cast
	case *types.StaticArrayType:
		arr, ok := to.(*types.ArrayType)
		return ok && types.Equal(from.Elem, arr.Elem)
	case *types.UndeterminedStructType:
		switch to := to.(type) {
		case *types.StructType:
			return matchStructMembers(from.Members, to.Members)
		case *types.UnionType:
			return len(from.Members) == 1 && matchesOneVariant(from.Members[0], to.Members)
		}
		return false
	}
	return false
}

func matchStructMembers(undetermined, concrete []types.Member) bool {
	if len(undetermined) != len(concrete) {
		return false
	}
	for i := range undetermined {
		if !CanCoerce(undetermined[i].Type, concrete[i].Type) {
			return false
		}
	}
	return true
}

func matchesOneVariant(m types.Member, variants []types.Member) bool {
	for _, v := range variants {
		if v.Name == m.Name && CanCoerce(m.Type, v.Type) {
			return true
		}
	}
	return false
}

// Coerce wraps te in a typedtree.Coercion targeting to, if te's type is not
// already to (§P7: coercing an expression already of the target type
// inserts no Coercion node). It fails if the implicit conversion is not
// allowed by CanCoerce.
func Coerce(te typedtree.TypedExpression, to types.AnyType) (typedtree.TypedExpression, error) {
	from := te.Type()
	if types.Equal(from, to) {
		return te, nil
	}
	if !CanCoerce(from, to) {
		return nil, fmt.Errorf("cannot coerce %s to %s", from, to)
	}
	val, err := coerceValue(te.Value(), from, to)
	if err != nil {
		return nil, err
	}
	return typedtree.NewCoercion(te, to, val), nil
}

// coerceValue computes the coerced AnyValue for a constant; runtime values
// simply change their declared type (the representation change, if any, is
// realised later by lang/hlirgen's load/store/conversion instructions).
func coerceValue(v constval.AnyValue, from, to types.AnyType) (constval.AnyValue, error) {
	cv, ok := v.(*constval.ConstantValue)
	if !ok {
		return retypedRuntimeValue(v, to), nil
	}
	switch from.(type) {
	case *types.UndeterminedIntegerType:
		ic := cv.Const.(*constval.IntegerConst)
		switch to.(type) {
		case *types.IntegerType, *types.PointerType:
			// §4.7: representation-loss on narrowing from an undetermined
			// integer is intentionally not detected; the full 64-bit pattern
			// is preserved verbatim through the coercion.
			return &constval.ConstantValue{Const: &constval.IntegerConst{Typ: to, Value: ic.Value}}, nil
		case *types.FloatType:
			return &constval.ConstantValue{Const: &constval.FloatConst{Typ: to, Value: float64(int64(ic.Value))}}, nil
		}
	case *types.UndeterminedFloatType:
		fc := cv.Const.(*constval.FloatConst)
		return &constval.ConstantValue{Const: &constval.FloatConst{Typ: to, Value: fc.Value}}, nil
	}
	return v, nil
}

func retypedRuntimeValue(v constval.AnyValue, to types.AnyType) constval.AnyValue {
	switch v := v.(type) {
	case *constval.AnonymousValue:
		return &constval.AnonymousValue{Typ: to, Register: v.Register}
	case *constval.AssignableValue:
		return &constval.AssignableValue{Typ: to, Register: v.Register}
	default:
		return v
	}
}

// CanCast reports whether an explicit cast from from to to is allowed
// (§4.3): numeric widening/narrowing, pointer<->address-sized integer, and
// enum<->backing integer, in addition to everything CanCoerce already
// allows.
func CanCast(arch types.Arch, from, to types.AnyType) bool {
	if CanCoerce(from, to) {
		return true
	}
	isNumeric := func(t types.AnyType) bool {
		switch t.(type) {
		case *types.IntegerType, *types.FloatType,
			*types.UndeterminedIntegerType, *types.UndeterminedFloatType:
			return true
		}
		return false
	}
	if isNumeric(from) && isNumeric(to) {
		return true
	}
	if p, ok := from.(*types.PointerType); ok {
		_ = p
		if i, ok := to.(*types.IntegerType); ok {
			return i.Size/8 == arch.AddressSize
		}
	}
	if i, ok := from.(*types.IntegerType); ok {
		if _, ok := to.(*types.PointerType); ok {
			return i.Size/8 == arch.AddressSize
		}
	}
	if e, ok := from.(*types.EnumType); ok {
		return types.Equal(e.Backing, to)
	}
	if e, ok := to.(*types.EnumType); ok {
		return types.Equal(e.Backing, from)
	}
	return false
}
