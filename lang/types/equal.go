package types

import "golang.org/x/exp/slices"

// Equal reports whether a and b denote the same type. Equality is
// structural for every kind except named struct/union/enum types, which
// additionally require a matching OriginDecl — two instantiations of the
// same polymorphic struct are equal exactly when their members are equal
// too (§3 invariants).
func Equal(a, b AnyType) bool {
	switch a := a.(type) {
	case *IntegerType:
		b, ok := b.(*IntegerType)
		return ok && a.Size == b.Size && a.Signed == b.Signed
	case *FloatType:
		b, ok := b.(*FloatType)
		return ok && a.Size == b.Size
	case *BooleanType:
		_, ok := b.(*BooleanType)
		return ok
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	case *TypeMetaType:
		_, ok := b.(*TypeMetaType)
		return ok
	case *FileModuleType:
		_, ok := b.(*FileModuleType)
		return ok
	case *UndefType:
		_, ok := b.(*UndefType)
		return ok
	case *PointerType:
		b, ok := b.(*PointerType)
		return ok && Equal(a.Elem, b.Elem)
	case *ArrayType:
		b, ok := b.(*ArrayType)
		return ok && Equal(a.Elem, b.Elem)
	case *StaticArrayType:
		b, ok := b.(*StaticArrayType)
		return ok && a.Len == b.Len && Equal(a.Elem, b.Elem)
	case *StructType:
		b, ok := b.(*StructType)
		return ok && a.OriginDecl == b.OriginDecl && membersEqual(a.Members, b.Members)
	case *UnionType:
		b, ok := b.(*UnionType)
		return ok && a.OriginDecl == b.OriginDecl && membersEqual(a.Members, b.Members)
	case *EnumType:
		b, ok := b.(*EnumType)
		return ok && a.OriginDecl == b.OriginDecl
	case *FunctionType:
		b, ok := b.(*FunctionType)
		return ok && a.CallConv == b.CallConv && typesEqual(a.Params, b.Params) && typesEqual(a.Results, b.Results)
	case *MultiReturnType:
		b, ok := b.(*MultiReturnType)
		return ok && typesEqual(a.Types, b.Types)
	case *UndeterminedIntegerType:
		_, ok := b.(*UndeterminedIntegerType)
		return ok
	case *UndeterminedFloatType:
		_, ok := b.(*UndeterminedFloatType)
		return ok
	case *UndeterminedStructType:
		b, ok := b.(*UndeterminedStructType)
		return ok && membersEqual(a.Members, b.Members)
	case *UndeterminedArrayType:
		b, ok := b.(*UndeterminedArrayType)
		return ok && Equal(a.Elem, b.Elem)
	case *PolymorphicFunctionType:
		b, ok := b.(*PolymorphicFunctionType)
		return ok && a.Decl == b.Decl
	case *PolymorphicStructType:
		b, ok := b.(*PolymorphicStructType)
		return ok && a.Decl == b.Decl
	case *PolymorphicUnionType:
		b, ok := b.(*PolymorphicUnionType)
		return ok && a.Decl == b.Decl
	case *BuiltinFunctionType:
		b, ok := b.(*BuiltinFunctionType)
		return ok && a.Name == b.Name
	default:
		return false
	}
}

func membersEqual(a, b []Member) bool {
	return slices.EqualFunc(a, b, func(x, y Member) bool {
		return x.Name == y.Name && Equal(x.Type, y.Type)
	})
}

func typesEqual(a, b []AnyType) bool {
	return slices.EqualFunc(a, b, Equal)
}
