package types

import "fmt"

// Size returns t's size in bytes under arch, per the natural-alignment
// layout rules of §3/P6: each struct member is aligned to its own
// alignment, a union's size is its largest member's size, and a slice's
// size is always two address-sized words.
func Size(arch Arch, t AnyType) (int, error) {
	switch t := t.(type) {
	case *IntegerType:
		return t.Size / 8, nil
	case *FloatType:
		return t.Size / 8, nil
	case *BooleanType:
		return arch.BooleanSize, nil
	case *PointerType:
		return arch.AddressSize, nil
	case *ArrayType:
		return 2 * arch.AddressSize, nil
	case *StaticArrayType:
		elemSize, err := Size(arch, t.Elem)
		if err != nil {
			return 0, err
		}
		return int(t.Len) * elemSize, nil
	case *StructType:
		offs, err := offsetsOf(arch, t.Members)
		if err != nil {
			return 0, err
		}
		if len(t.Members) == 0 {
			return 0, nil
		}
		last := t.Members[len(t.Members)-1]
		lastSize, err := Size(arch, last.Type)
		if err != nil {
			return 0, err
		}
		return offs[len(offs)-1] + lastSize, nil
	case *UnionType:
		max := 0
		for _, m := range t.Members {
			s, err := Size(arch, m.Type)
			if err != nil {
				return 0, err
			}
			if s > max {
				max = s
			}
		}
		return max, nil
	case *EnumType:
		return Size(arch, t.Backing)
	default:
		return 0, fmt.Errorf("types: %v has no runtime size", t)
	}
}

// Align returns t's required alignment in bytes under arch.
func Align(arch Arch, t AnyType) (int, error) {
	switch t := t.(type) {
	case *StaticArrayType:
		return Align(arch, t.Elem)
	case *StructType:
		max := 1
		for _, m := range t.Members {
			a, err := Align(arch, m.Type)
			if err != nil {
				return 0, err
			}
			if a > max {
				max = a
			}
		}
		return max, nil
	case *UnionType:
		max := 1
		for _, m := range t.Members {
			a, err := Align(arch, m.Type)
			if err != nil {
				return 0, err
			}
			if a > max {
				max = a
			}
		}
		return max, nil
	case *EnumType:
		return Align(arch, t.Backing)
	default:
		return Size(arch, t)
	}
}

// OffsetOf returns the byte offset of member index k within struct t,
// satisfying `offset_of(S, k) mod align_of(member_k) == 0` (P6). There is no
// guarantee about tail padding after the last member (§3 invariants).
func OffsetOf(arch Arch, t *StructType, k int) (int, error) {
	offs, err := offsetsOf(arch, t.Members)
	if err != nil {
		return 0, err
	}
	if k < 0 || k >= len(offs) {
		return 0, fmt.Errorf("types: member index %d out of range for %v", k, t)
	}
	return offs[k], nil
}

func offsetsOf(arch Arch, members []Member) ([]int, error) {
	offs := make([]int, len(members))
	cur := 0
	for i, m := range members {
		align, err := Align(arch, m.Type)
		if err != nil {
			return nil, err
		}
		cur = roundUp(cur, align)
		offs[i] = cur
		size, err := Size(arch, m.Type)
		if err != nil {
			return nil, err
		}
		cur += size
	}
	return offs, nil
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
