// Package hlir implements the high-level IR the generator (lang/hlirgen)
// lowers typed function bodies into (§3, §4.6, §6): a runtime-only IRType
// subset, a closed Instruction union over register-scoped basic Blocks, and
// the RuntimeStatic outputs handed to the C emitter.
package hlir

import (
	"fmt"
	"strings"

	"github.com/vela-lang/velac/lang/types"
)

// IRType is the runtime-representable subset of AnyType (§3): every shape
// that can actually exist at runtime, obtained from an AnyType via
// ToIRType. Like lang/types.AnyType it is a closed tagged sum.
type IRType interface {
	fmt.Stringer
	irType()
}

type (
	// BoolIRType is the single boolean runtime representation.
	BoolIRType struct{}

	// IntegerIRType is a fixed-width integer. Size is in bits.
	IntegerIRType struct {
		Size   int
		Signed bool
	}

	// FloatIRType is a fixed-width IEEE float. Size is in bits.
	FloatIRType struct {
		Size int
	}

	// VoidIRType is a function's result type when it returns nothing.
	VoidIRType struct{}

	// PointerIRType is a pointer to Elem.
	PointerIRType struct {
		Elem IRType
	}

	// StaticArrayIRType is a fixed-length inline array.
	StaticArrayIRType struct {
		Len  uint64
		Elem IRType
	}

	// StructIRType is a struct laid out in declaration order; it is also the
	// representation used for runtime slices ({length, pointer}), unions
	// (as a raw byte blob, §4.6), and multi-return values (struct-of-results,
	// §4.6).
	StructIRType struct {
		Members []IRMember
	}

	// FunctionIRType is the signature of a function value, used only as the
	// Elem of a PointerIRType for function-pointer locals/parameters.
	FunctionIRType struct {
		Params   []IRType
		Result   IRType
		CallConv types.CallingConvention
	}
)

// IRMember is one field of a StructIRType, in layout order.
type IRMember struct {
	Name string
	Type IRType
}

func (*BoolIRType) irType()        {}
func (*IntegerIRType) irType()     {}
func (*FloatIRType) irType()       {}
func (*VoidIRType) irType()        {}
func (*PointerIRType) irType()     {}
func (*StaticArrayIRType) irType() {}
func (*StructIRType) irType()      {}
func (*FunctionIRType) irType()    {}

func (t *IntegerIRType) String() string {
	prefix := "i"
	if !t.Signed {
		prefix = "u"
	}
	return fmt.Sprintf("%s%d", prefix, t.Size)
}
func (t *FloatIRType) String() string { return fmt.Sprintf("f%d", t.Size) }
func (*BoolIRType) String() string    { return "bool" }
func (*VoidIRType) String() string    { return "void" }
func (t *PointerIRType) String() string {
	return "*" + t.Elem.String()
}
func (t *StaticArrayIRType) String() string {
	return fmt.Sprintf("[%d]%s", t.Len, t.Elem.String())
}
func (t *StructIRType) String() string {
	var b strings.Builder
	b.WriteString("struct{")
	for i, m := range t.Members {
		if i > 0 {
			b.WriteString(", ")
		}
		if m.Name != "" {
			b.WriteString(m.Name)
			b.WriteString(": ")
		}
		b.WriteString(m.Type.String())
	}
	b.WriteString("}")
	return b.String()
}
func (t *FunctionIRType) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> ")
	if t.Result != nil {
		b.WriteString(t.Result.String())
	} else {
		b.WriteString("void")
	}
	return b.String()
}

// SliceMember names the two fields of a slice's StructIRType representation
// (§4.6: "Slice representation: {length, pointer}").
const (
	SliceLengthMember  = "length"
	SlicePointerMember = "pointer"
)

// ToIRType converts t to its runtime representation (§3, §4.6). It is a
// total function over every AnyType that is runtime-representable;
// TypeMetaType, FileModuleType, UndefType, every Undetermined* kind, every
// Polymorphic* kind, and BuiltinFunctionType have no runtime representation
// and yield an error, since a value of one of those types can never survive
// to HLIR generation (the checker always resolves or coerces them away
// first).
func ToIRType(arch types.Arch, t types.AnyType) (IRType, error) {
	switch t := t.(type) {
	case *types.IntegerType:
		return &IntegerIRType{Size: t.Size, Signed: t.Signed}, nil
	case *types.FloatType:
		return &FloatIRType{Size: t.Size}, nil
	case *types.BooleanType:
		return &BoolIRType{}, nil
	case *types.VoidType:
		return &VoidIRType{}, nil
	case *types.PointerType:
		if ft, ok := t.Elem.(*types.FunctionType); ok {
			fnIR, err := functionIRType(arch, ft)
			if err != nil {
				return nil, err
			}
			return &PointerIRType{Elem: fnIR}, nil
		}
		elem, err := ToIRType(arch, t.Elem)
		if err != nil {
			return nil, err
		}
		return &PointerIRType{Elem: elem}, nil
	case *types.ArrayType:
		elem, err := ToIRType(arch, t.Elem)
		if err != nil {
			return nil, err
		}
		usize := &IntegerIRType{Size: arch.AddressSize * 8, Signed: false}
		return &StructIRType{Members: []IRMember{
			{Name: SliceLengthMember, Type: usize},
			{Name: SlicePointerMember, Type: &PointerIRType{Elem: elem}},
		}}, nil
	case *types.StaticArrayType:
		elem, err := ToIRType(arch, t.Elem)
		if err != nil {
			return nil, err
		}
		return &StaticArrayIRType{Len: t.Len, Elem: elem}, nil
	case *types.StructType:
		members, err := irMembers(arch, t.Members)
		if err != nil {
			return nil, err
		}
		return &StructIRType{Members: members}, nil
	case *types.UnionType:
		// A union's in-register representation is a raw byte blob sized to
		// its largest member (§4.6); member reads reinterpret the same
		// storage rather than selecting a named field.
		size, err := types.Size(arch, t)
		if err != nil {
			return nil, err
		}
		u8 := &IntegerIRType{Size: 8, Signed: false}
		return &StaticArrayIRType{Len: uint64(size), Elem: u8}, nil
	case *types.EnumType:
		return ToIRType(arch, t.Backing)
	case *types.FunctionType:
		return functionIRType(arch, t)
	case *types.MultiReturnType:
		members := make([]IRMember, len(t.Types))
		for i, rt := range t.Types {
			irt, err := ToIRType(arch, rt)
			if err != nil {
				return nil, err
			}
			members[i] = IRMember{Type: irt}
		}
		return &StructIRType{Members: members}, nil
	default:
		return nil, fmt.Errorf("type %s has no runtime representation", t)
	}
}

func functionIRType(arch types.Arch, ft *types.FunctionType) (*FunctionIRType, error) {
	params := make([]IRType, len(ft.Params))
	for i, p := range ft.Params {
		irt, err := ToIRType(arch, p)
		if err != nil {
			return nil, err
		}
		params[i] = irt
	}
	var result IRType = &VoidIRType{}
	switch len(ft.Results) {
	case 0:
	case 1:
		irt, err := ToIRType(arch, ft.Results[0])
		if err != nil {
			return nil, err
		}
		result = irt
	default:
		irt, err := ToIRType(arch, &types.MultiReturnType{Types: ft.Results})
		if err != nil {
			return nil, err
		}
		result = irt
	}
	return &FunctionIRType{Params: params, Result: result, CallConv: ft.CallConv}, nil
}

func irMembers(arch types.Arch, members []types.Member) ([]IRMember, error) {
	out := make([]IRMember, len(members))
	for i, m := range members {
		irt, err := ToIRType(arch, m.Type)
		if err != nil {
			return nil, err
		}
		out[i] = IRMember{Name: m.Name, Type: irt}
	}
	return out, nil
}
