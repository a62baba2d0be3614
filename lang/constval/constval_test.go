package constval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vela-lang/velac/lang/types"
)

func TestIntegerConstType(t *testing.T) {
	c := &IntegerConst{Typ: &types.IntegerType{Size: 32, Signed: true}, Value: 42}
	assert.True(t, types.Equal(c.Type(), &types.IntegerType{Size: 32, Signed: true}))
}

func TestAggregateConstHoldsMembers(t *testing.T) {
	x := &IntegerConst{Typ: &types.IntegerType{Size: 32, Signed: true}, Value: 1}
	y := &IntegerConst{Typ: &types.IntegerType{Size: 32, Signed: true}, Value: 2}
	agg := &AggregateConst{
		Typ:    &types.StructType{Name: "Pair"},
		Values: []AnyConstantValue{x, y},
	}
	assert.Len(t, agg.Values, 2)
	assert.Equal(t, uint64(2), agg.Values[1].(*IntegerConst).Value)
}

func TestPolymorphicFunctionConstType(t *testing.T) {
	c := &PolymorphicFunctionConst{Decl: "identity-decl"}
	pt, ok := c.Type().(*types.PolymorphicFunctionType)
	assert.True(t, ok)
	assert.Equal(t, "identity-decl", pt.Decl)
}

func TestAssignableValueIsAssignable(t *testing.T) {
	av := &AssignableValue{Typ: &types.IntegerType{Size: 32, Signed: true}}
	assert.True(t, IsAssignable(av))

	an := &AnonymousValue{Typ: &types.IntegerType{Size: 32, Signed: true}}
	assert.False(t, IsAssignable(an))
}

func TestConstantValueDelegatesType(t *testing.T) {
	cv := &ConstantValue{Const: &BooleanConst{Value: true}}
	_, ok := cv.Type().(*types.BooleanType)
	assert.True(t, ok)
}
