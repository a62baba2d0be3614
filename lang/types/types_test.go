package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualStructural(t *testing.T) {
	i32 := &IntegerType{Size: 32, Signed: true}
	u32 := &IntegerType{Size: 32, Signed: false}
	assert.True(t, Equal(i32, &IntegerType{Size: 32, Signed: true}))
	assert.False(t, Equal(i32, u32))

	ptrA := &PointerType{Elem: i32}
	ptrB := &PointerType{Elem: &IntegerType{Size: 32, Signed: true}}
	assert.True(t, Equal(ptrA, ptrB))
}

func TestEqualStructInstantiation(t *testing.T) {
	decl := "pair-decl" // stand-in for an *ast.ConstDecl identity
	a := &StructType{OriginDecl: decl, Members: []Member{
		{Name: "x", Type: &IntegerType{Size: 32, Signed: true}},
	}}
	b := &StructType{OriginDecl: decl, Members: []Member{
		{Name: "x", Type: &IntegerType{Size: 32, Signed: true}},
	}}
	assert.True(t, Equal(a, b), "two instantiations with equal members must be equal")

	c := &StructType{OriginDecl: decl, Members: []Member{
		{Name: "x", Type: &FloatType{Size: 32}},
	}}
	assert.False(t, Equal(a, c))

	other := &StructType{OriginDecl: "other-decl", Members: a.Members}
	assert.False(t, Equal(a, other), "different OriginDecl must not be equal")
}

func TestSizeAndAlignScalars(t *testing.T) {
	sz, err := Size(Arch64, &IntegerType{Size: 64, Signed: true})
	require.NoError(t, err)
	assert.Equal(t, 8, sz)

	sz, err = Size(Arch64, &BooleanType{})
	require.NoError(t, err)
	assert.Equal(t, 1, sz)

	sz, err = Size(Arch64, &PointerType{Elem: &VoidType{}})
	require.NoError(t, err)
	assert.Equal(t, 8, sz)
}

func TestSizeStaticArray(t *testing.T) {
	arr := &StaticArrayType{Len: 10, Elem: &IntegerType{Size: 32, Signed: true}}
	sz, err := Size(Arch64, arr)
	require.NoError(t, err)
	assert.Equal(t, 40, sz, "size_of([N]T) = N * size_of(T)")
}

func TestSizeSliceIsTwoWords(t *testing.T) {
	sl := &ArrayType{Elem: &IntegerType{Size: 8, Signed: false}}
	sz, err := Size(Arch64, sl)
	require.NoError(t, err)
	assert.Equal(t, 16, sz)
}

func TestStructOffsetsRespectAlignment(t *testing.T) {
	st := &StructType{Members: []Member{
		{Name: "a", Type: &IntegerType{Size: 8, Signed: true}},
		{Name: "b", Type: &IntegerType{Size: 64, Signed: true}},
		{Name: "c", Type: &IntegerType{Size: 8, Signed: true}},
	}}
	off0, err := OffsetOf(Arch64, st, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, off0)

	off1, err := OffsetOf(Arch64, st, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, off1, "b must be aligned to its own 8-byte alignment")

	off2, err := OffsetOf(Arch64, st, 2)
	require.NoError(t, err)
	assert.Equal(t, 16, off2)

	align1, err := Align(Arch64, st.Members[1].Type)
	require.NoError(t, err)
	assert.Zero(t, off1%align1)
}

func TestUnionSizeIsLargestMember(t *testing.T) {
	u := &UnionType{Members: []Member{
		{Name: "i", Type: &IntegerType{Size: 32, Signed: true}},
		{Name: "f", Type: &FloatType{Size: 64}},
	}}
	sz, err := Size(Arch64, u)
	require.NoError(t, err)
	assert.Equal(t, 8, sz)
}

func TestIsUndeterminedAndPolymorphic(t *testing.T) {
	assert.True(t, IsUndetermined(&UndeterminedIntegerType{}))
	assert.False(t, IsUndetermined(&IntegerType{Size: 32, Signed: true}))
	assert.True(t, IsPolymorphic(&PolymorphicStructType{Decl: "Pair"}))
	assert.False(t, IsPolymorphic(&StructType{}))
}
