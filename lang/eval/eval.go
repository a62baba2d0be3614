// Package eval implements the compile-time constant evaluator (§4.4): it
// recursively folds a typed expression tree into an AnyConstantValue,
// assuming every subexpression already carries a resolved constant value
// (lang/checker builds the tree bottom-up and calls BinOp/UnaryOp on each
// node whose operands are constants). Binary/unary arithmetic wraps on fixed-width integers, integer
// division by zero and out-of-bounds static indexing are
// ConstantEvaluationErrors, and reading an Undef field propagates Undef
// rather than failing (§4.4 "Failure modes").
package eval

import (
	"fmt"

	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/types"
)

// AsConstant unwraps v to its AnyConstantValue if v is compile-time known.
func AsConstant(v constval.AnyValue) (constval.AnyConstantValue, bool) {
	cv, ok := v.(*constval.ConstantValue)
	if !ok {
		return nil, false
	}
	return cv.Const, true
}

// IsConstant reports whether every value in vs is compile-time known.
func IsConstant(vs ...constval.AnyValue) bool {
	for _, v := range vs {
		if _, ok := AsConstant(v); !ok {
			return false
		}
	}
	return true
}

// BinOp folds a binary operator over two already-evaluated constants,
// producing a value of resultType. Integer arithmetic wraps silently on
// overflow (two's complement) per §4.7; division/modulo by zero is a
// ConstantEvaluationError.
func BinOp(op token.Token, left, right constval.AnyConstantValue, resultType types.AnyType) (constval.AnyConstantValue, error) {
	switch l := left.(type) {
	case *constval.IntegerConst:
		r, ok := right.(*constval.IntegerConst)
		if !ok {
			return nil, fmt.Errorf("eval: mismatched operand kinds for %s", op)
		}
		return integerBinOp(op, l, r, resultType)
	case *constval.FloatConst:
		r, ok := right.(*constval.FloatConst)
		if !ok {
			return nil, fmt.Errorf("eval: mismatched operand kinds for %s", op)
		}
		return floatBinOp(op, l, r, resultType)
	case *constval.BooleanConst:
		r, ok := right.(*constval.BooleanConst)
		if !ok {
			return nil, fmt.Errorf("eval: mismatched operand kinds for %s", op)
		}
		return booleanBinOp(op, l, r)
	case *constval.UndefConst:
		return &constval.UndefConst{Typ: resultType}, nil
	case *constval.AggregateConst:
		r, ok := right.(*constval.AggregateConst)
		if !ok {
			return nil, fmt.Errorf("eval: mismatched operand kinds for %s", op)
		}
		return aggregateBinOp(op, l, r)
	default:
		return nil, fmt.Errorf("eval: %s is not a constant operand", op)
	}
}

// aggregateBinOp folds equality/inequality over two aggregate constants
// (string and array literals are both represented as AggregateConst,
// §6 GLOSSARY), comparing element-by-element. Every other binary operator
// is unsupported on aggregates.
func aggregateBinOp(op token.Token, l, r *constval.AggregateConst) (constval.AnyConstantValue, error) {
	switch op {
	case token.EQ, token.NEQ:
		eq := aggregateEqual(l, r)
		if op == token.NEQ {
			eq = !eq
		}
		return &constval.BooleanConst{Value: eq}, nil
	default:
		return nil, fmt.Errorf("eval: unsupported aggregate operator %s", op)
	}
}

func aggregateEqual(l, r *constval.AggregateConst) bool {
	if len(l.Values) != len(r.Values) {
		return false
	}
	for i := range l.Values {
		if !constantValueEqual(l.Values[i], r.Values[i]) {
			return false
		}
	}
	return true
}

func constantValueEqual(a, b constval.AnyConstantValue) bool {
	switch a := a.(type) {
	case *constval.IntegerConst:
		b, ok := b.(*constval.IntegerConst)
		return ok && a.Value == b.Value
	case *constval.FloatConst:
		b, ok := b.(*constval.FloatConst)
		return ok && a.Value == b.Value
	case *constval.BooleanConst:
		b, ok := b.(*constval.BooleanConst)
		return ok && a.Value == b.Value
	case *constval.AggregateConst:
		b, ok := b.(*constval.AggregateConst)
		return ok && aggregateEqual(a, b)
	case *constval.UndefConst:
		_, ok := b.(*constval.UndefConst)
		return ok
	default:
		return false
	}
}

func mask(size int) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(size)) - 1
}

func signExtend(v uint64, size int) int64 {
	shift := 64 - size
	return int64(v<<uint(shift)) >> uint(shift)
}

func integerBinOp(op token.Token, l, r *constval.IntegerConst, resultType types.AnyType) (constval.AnyConstantValue, error) {
	it, _ := resultType.(*types.IntegerType)
	size := 64
	signed := false
	if it != nil {
		size = it.Size
		signed = it.Signed
	}
	m := mask(size)

	switch op {
	case token.PLUS:
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value + r.Value) & m}, nil
	case token.MINUS:
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value - r.Value) & m}, nil
	case token.STAR:
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value * r.Value) & m}, nil
	case token.SLASH:
		if r.Value == 0 {
			return nil, fmt.Errorf("eval: integer division by zero")
		}
		if signed {
			lv, rv := signExtend(l.Value, size), signExtend(r.Value, size)
			return &constval.IntegerConst{Typ: resultType, Value: uint64(lv/rv) & m}, nil
		}
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value / r.Value) & m}, nil
	case token.PERCENT:
		if r.Value == 0 {
			return nil, fmt.Errorf("eval: integer modulo by zero")
		}
		if signed {
			lv, rv := signExtend(l.Value, size), signExtend(r.Value, size)
			return &constval.IntegerConst{Typ: resultType, Value: uint64(lv%rv) & m}, nil
		}
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value % r.Value) & m}, nil
	case token.AMPERSAND:
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value & r.Value) & m}, nil
	case token.PIPE:
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value | r.Value) & m}, nil
	case token.CIRCUMFLEX:
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value ^ r.Value) & m}, nil
	case token.LTLT:
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value << r.Value) & m}, nil
	case token.GTGT:
		return &constval.IntegerConst{Typ: resultType, Value: (l.Value >> r.Value) & m}, nil
	case token.LT, token.LE, token.GT, token.GE, token.EQ, token.NEQ:
		var cmp bool
		if signed {
			lv, rv := signExtend(l.Value, size), signExtend(r.Value, size)
			cmp = compareOrdered(op, lv, rv)
		} else {
			cmp = compareOrdered(op, l.Value, r.Value)
		}
		return &constval.BooleanConst{Value: cmp}, nil
	default:
		return nil, fmt.Errorf("eval: unsupported integer operator %s", op)
	}
}

// compareOrdered compares a and b (either both int64 or both uint64) per
// op. Go generics let one function body serve both signedness cases.
func compareOrdered[T int64 | uint64](op token.Token, a, b T) bool {
	switch op {
	case token.LT:
		return a < b
	case token.LE:
		return a <= b
	case token.GT:
		return a > b
	case token.GE:
		return a >= b
	case token.EQ:
		return a == b
	case token.NEQ:
		return a != b
	default:
		return false
	}
}

func floatBinOp(op token.Token, l, r *constval.FloatConst, resultType types.AnyType) (constval.AnyConstantValue, error) {
	switch op {
	case token.PLUS:
		return &constval.FloatConst{Typ: resultType, Value: l.Value + r.Value}, nil
	case token.MINUS:
		return &constval.FloatConst{Typ: resultType, Value: l.Value - r.Value}, nil
	case token.STAR:
		return &constval.FloatConst{Typ: resultType, Value: l.Value * r.Value}, nil
	case token.SLASH:
		return &constval.FloatConst{Typ: resultType, Value: l.Value / r.Value}, nil
	case token.LT:
		return &constval.BooleanConst{Value: l.Value < r.Value}, nil
	case token.LE:
		return &constval.BooleanConst{Value: l.Value <= r.Value}, nil
	case token.GT:
		return &constval.BooleanConst{Value: l.Value > r.Value}, nil
	case token.GE:
		return &constval.BooleanConst{Value: l.Value >= r.Value}, nil
	case token.EQ:
		return &constval.BooleanConst{Value: l.Value == r.Value}, nil
	case token.NEQ:
		return &constval.BooleanConst{Value: l.Value != r.Value}, nil
	default:
		return nil, fmt.Errorf("eval: unsupported float operator %s", op)
	}
}

func booleanBinOp(op token.Token, l, r *constval.BooleanConst) (constval.AnyConstantValue, error) {
	switch op {
	case token.AND, token.ANDAND:
		return &constval.BooleanConst{Value: l.Value && r.Value}, nil
	case token.OR, token.OROR:
		return &constval.BooleanConst{Value: l.Value || r.Value}, nil
	case token.EQ:
		return &constval.BooleanConst{Value: l.Value == r.Value}, nil
	case token.NEQ:
		return &constval.BooleanConst{Value: l.Value != r.Value}, nil
	default:
		return nil, fmt.Errorf("eval: unsupported boolean operator %s", op)
	}
}

// UnaryOp folds a unary operator over an already-evaluated constant.
func UnaryOp(op token.Token, operand constval.AnyConstantValue, resultType types.AnyType) (constval.AnyConstantValue, error) {
	switch v := operand.(type) {
	case *constval.IntegerConst:
		it, _ := resultType.(*types.IntegerType)
		size := 64
		if it != nil {
			size = it.Size
		}
		m := mask(size)
		switch op {
		case token.MINUS:
			return &constval.IntegerConst{Typ: resultType, Value: (^v.Value + 1) & m}, nil
		case token.PLUS:
			return &constval.IntegerConst{Typ: resultType, Value: v.Value & m}, nil
		case token.TILDE:
			return &constval.IntegerConst{Typ: resultType, Value: (^v.Value) & m}, nil
		}
	case *constval.FloatConst:
		switch op {
		case token.MINUS:
			return &constval.FloatConst{Typ: resultType, Value: -v.Value}, nil
		case token.PLUS:
			return &constval.FloatConst{Typ: resultType, Value: v.Value}, nil
		}
	case *constval.BooleanConst:
		if op == token.NOT || op == token.BANG {
			return &constval.BooleanConst{Value: !v.Value}, nil
		}
	case *constval.UndefConst:
		return &constval.UndefConst{Typ: resultType}, nil
	}
	return nil, fmt.Errorf("eval: unsupported unary operator %s on %T", op, operand)
}

// Index folds a static-array or aggregate constant index access.
// Out-of-bounds is a ConstantEvaluationError (§4.4 "Failure modes").
func Index(prefix constval.AnyConstantValue, index uint64) (constval.AnyConstantValue, error) {
	agg, ok := prefix.(*constval.AggregateConst)
	if !ok {
		return nil, fmt.Errorf("eval: cannot index a non-aggregate constant")
	}
	if index >= uint64(len(agg.Values)) {
		return nil, fmt.Errorf("eval: static index %d out of bounds (len %d)", index, len(agg.Values))
	}
	return agg.Values[index], nil
}

// Member folds a struct/union member access on an aggregate constant by
// position. Reading through an Undef field propagates Undef rather than
// erroring.
func Member(agg constval.AnyConstantValue, index int) (constval.AnyConstantValue, error) {
	if _, ok := agg.(*constval.UndefConst); ok {
		return &constval.UndefConst{}, nil
	}
	a, ok := agg.(*constval.AggregateConst)
	if !ok {
		return nil, fmt.Errorf("eval: cannot take a member of a non-aggregate constant")
	}
	if index < 0 || index >= len(a.Values) {
		return nil, fmt.Errorf("eval: member index %d out of range", index)
	}
	return a.Values[index], nil
}

// Cast folds an explicit cast (§4.3) of an already-evaluated constant to
// to, when the combination is one the evaluator can fold at compile time.
// Pointer<->integer casts are never foldable (an address is not known until
// link time) and always return an error, pushing the cast to a runtime
// Convert/Truncate/Extend instruction instead (§4.6).
func Cast(v constval.AnyConstantValue, from, to types.AnyType) (constval.AnyConstantValue, error) {
	switch from := from.(type) {
	case *types.IntegerType, *types.UndeterminedIntegerType:
		ic, ok := v.(*constval.IntegerConst)
		if !ok {
			return nil, fmt.Errorf("eval: cast source is not an integer constant")
		}
		switch t := to.(type) {
		case *types.IntegerType:
			return &constval.IntegerConst{Typ: to, Value: ic.Value & mask(t.Size)}, nil
		case *types.FloatType:
			signed := false
			if it, ok := from.(*types.IntegerType); ok {
				signed = it.Signed
			}
			if signed {
				return &constval.FloatConst{Typ: to, Value: float64(int64(ic.Value))}, nil
			}
			return &constval.FloatConst{Typ: to, Value: float64(ic.Value)}, nil
		}
		return nil, fmt.Errorf("eval: cannot fold cast from %s to %s", from, to)
	case *types.FloatType, *types.UndeterminedFloatType:
		fc, ok := v.(*constval.FloatConst)
		if !ok {
			return nil, fmt.Errorf("eval: cast source is not a float constant")
		}
		switch to.(type) {
		case *types.FloatType:
			return &constval.FloatConst{Typ: to, Value: fc.Value}, nil
		case *types.IntegerType:
			return &constval.IntegerConst{Typ: to, Value: uint64(int64(fc.Value))}, nil
		}
		return nil, fmt.Errorf("eval: cannot fold cast from %s to %s", from, to)
	case *types.EnumType:
		ic, ok := v.(*constval.IntegerConst)
		if !ok {
			return nil, fmt.Errorf("eval: cast source is not an enum constant")
		}
		return &constval.IntegerConst{Typ: to, Value: ic.Value}, nil
	default:
		return nil, fmt.Errorf("eval: cannot fold cast from %s to %s", from, to)
	}
}

// SizeOf returns the compile-time size-in-bytes constant for t, mirroring
// the source language's sizeof builtin (§4.4 "sizeof/alignof equivalents
// via type introspection").
func SizeOf(arch types.Arch, t types.AnyType, usizeType types.AnyType) (constval.AnyConstantValue, error) {
	n, err := types.Size(arch, t)
	if err != nil {
		return nil, err
	}
	return &constval.IntegerConst{Typ: usizeType, Value: uint64(n)}, nil
}

// AlignOf returns the compile-time alignment constant for t.
func AlignOf(arch types.Arch, t types.AnyType, usizeType types.AnyType) (constval.AnyConstantValue, error) {
	n, err := types.Align(arch, t)
	if err != nil {
		return nil, err
	}
	return &constval.IntegerConst{Typ: usizeType, Value: uint64(n)}, nil
}
