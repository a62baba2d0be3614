package hlirgen

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/types"
)

// serializeConstant lays out cv, of type t, into its in-memory byte
// representation under arch (§4.6, P6): struct members at their computed
// offsets, static-array elements packed contiguously, union values placed at
// offset zero and zero-padded to the union's full size. The result backs a
// StaticConstant a literal aggregate is promoted to.
func serializeConstant(arch types.Arch, t types.AnyType, cv constval.AnyConstantValue) ([]byte, error) {
	size, err := types.Size(arch, t)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if err := writeConstant(arch, t, cv, buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeConstant(arch types.Arch, t types.AnyType, cv constval.AnyConstantValue, buf []byte, off int) error {
	if _, ok := cv.(*constval.UndefConst); ok {
		return nil // undef leaves its storage as zero bytes
	}
	switch t := t.(type) {
	case *types.IntegerType:
		ic, ok := cv.(*constval.IntegerConst)
		if !ok {
			return fmt.Errorf("hlirgen: expected integer constant for %s", t)
		}
		putUint(buf[off:], ic.Value, t.Size/8)
		return nil
	case *types.FloatType:
		fc, ok := cv.(*constval.FloatConst)
		if !ok {
			return fmt.Errorf("hlirgen: expected float constant for %s", t)
		}
		if t.Size == 32 {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(fc.Value)))
		} else {
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(fc.Value))
		}
		return nil
	case *types.BooleanType:
		bc, ok := cv.(*constval.BooleanConst)
		if !ok {
			return fmt.Errorf("hlirgen: expected boolean constant for %s", t)
		}
		if bc.Value {
			buf[off] = 1
		}
		return nil
	case *types.EnumType:
		return writeConstant(arch, t.Backing, cv, buf, off)
	case *types.StaticArrayType:
		ac, ok := cv.(*constval.AggregateConst)
		if !ok {
			return fmt.Errorf("hlirgen: expected aggregate constant for %s", t)
		}
		elemSize, err := types.Size(arch, t.Elem)
		if err != nil {
			return err
		}
		for i, v := range ac.Values {
			if err := writeConstant(arch, t.Elem, v, buf, off+i*elemSize); err != nil {
				return err
			}
		}
		return nil
	case *types.StructType:
		ac, ok := cv.(*constval.AggregateConst)
		if !ok {
			return fmt.Errorf("hlirgen: expected aggregate constant for %s", t)
		}
		for i, m := range t.Members {
			mo, err := types.OffsetOf(arch, t, i)
			if err != nil {
				return err
			}
			if err := writeConstant(arch, m.Type, ac.Values[i], buf, off+mo); err != nil {
				return err
			}
		}
		return nil
	case *types.UnionType:
		ac, ok := cv.(*constval.AggregateConst)
		if !ok || len(ac.Values) != 1 {
			return fmt.Errorf("hlirgen: expected single-member aggregate constant for %s", t)
		}
		// A constant union literal always names exactly one initialized
		// variant (§4.2); find it by matching the value's own type.
		for i, m := range t.Members {
			if types.Equal(m.Type, ac.Values[0].Type()) {
				return writeConstant(arch, m.Type, ac.Values[0], buf, off)
			}
			_ = i
		}
		return writeConstant(arch, t.Members[0].Type, ac.Values[0], buf, off)
	default:
		return fmt.Errorf("hlirgen: cannot serialize a constant of type %s", t)
	}
}

func putUint(dst []byte, v uint64, size int) {
	switch size {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	default:
		binary.LittleEndian.PutUint64(dst, v)
	}
}
