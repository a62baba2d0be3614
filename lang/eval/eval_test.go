package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/eval"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/types"
)

func strConst(s string) *constval.AggregateConst {
	vals := make([]constval.AnyConstantValue, len(s))
	for i := 0; i < len(s); i++ {
		vals[i] = &constval.IntegerConst{Typ: &types.IntegerType{Size: 8, Signed: false}, Value: uint64(s[i])}
	}
	return &constval.AggregateConst{Typ: &types.StaticArrayType{Elem: &types.IntegerType{Size: 8, Signed: false}, Len: uint64(len(s))}, Values: vals}
}

func TestAggregateEqualityMatchingStrings(t *testing.T) {
	l, r := strConst("linux"), strConst("linux")
	v, err := eval.BinOp(token.EQ, l, r, &types.BooleanType{})
	require.NoError(t, err)
	bc, ok := v.(*constval.BooleanConst)
	require.True(t, ok)
	assert.True(t, bc.Value)
}

func TestAggregateEqualityMismatchedStrings(t *testing.T) {
	l, r := strConst("linux"), strConst("darwin")
	v, err := eval.BinOp(token.EQ, l, r, &types.BooleanType{})
	require.NoError(t, err)
	bc, ok := v.(*constval.BooleanConst)
	require.True(t, ok)
	assert.False(t, bc.Value)
}

func TestAggregateInequalityMismatchedLengths(t *testing.T) {
	l, r := strConst("linux"), strConst("l")
	v, err := eval.BinOp(token.NEQ, l, r, &types.BooleanType{})
	require.NoError(t, err)
	bc, ok := v.(*constval.BooleanConst)
	require.True(t, ok)
	assert.True(t, bc.Value)
}

func TestAggregateUnsupportedOperator(t *testing.T) {
	l, r := strConst("a"), strConst("b")
	_, err := eval.BinOp(token.PLUS, l, r, &types.BooleanType{})
	assert.Error(t, err)
}

func TestAggregateMismatchedOperandKinds(t *testing.T) {
	l := strConst("a")
	r := &constval.IntegerConst{Typ: &types.IntegerType{Size: 32, Signed: true}, Value: 1}
	_, err := eval.BinOp(token.EQ, l, r, &types.BooleanType{})
	assert.Error(t, err)
}

func TestIntegerBinOpStillWorks(t *testing.T) {
	l := &constval.IntegerConst{Typ: &types.IntegerType{Size: 32, Signed: true}, Value: 2}
	r := &constval.IntegerConst{Typ: &types.IntegerType{Size: 32, Signed: true}, Value: 3}
	v, err := eval.BinOp(token.PLUS, l, r, &types.IntegerType{Size: 32, Signed: true})
	require.NoError(t, err)
	ic, ok := v.(*constval.IntegerConst)
	require.True(t, ok)
	assert.Equal(t, uint64(5), ic.Value)
}
