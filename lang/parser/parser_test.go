package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/token"
)

func mustParse(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	_, chunk, err := ParseSource("test.vl", []byte(src))
	require.NoError(t, err)
	return chunk
}

func TestParseConstIntDecl(t *testing.T) {
	chunk := mustParse(t, `x :: 42`)
	require.Len(t, chunk.Decls, 1)
	cd := chunk.Decls[0].(*ast.ConstDecl)
	assert.Equal(t, "x", cd.Name.Lit)
	lit := cd.Value.(*ast.LiteralExpr)
	assert.Equal(t, token.INT, lit.Type)
	assert.Equal(t, uint64(42), lit.Int)
}

func TestParseFunctionDecl(t *testing.T) {
	chunk := mustParse(t, `
add :: (a: i32, b: i32) -> i32 {
	return a + b
}`)
	require.Len(t, chunk.Decls, 1)
	cd := chunk.Decls[0].(*ast.ConstDecl)
	fn := cd.Value.(*ast.FuncLitExpr)
	require.Len(t, fn.Sig.Params, 2)
	assert.Equal(t, "a", fn.Sig.Params[0].Name.Lit)
	require.Len(t, fn.Body.Stmts, 1)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.Len(t, ret.Results, 1)
	bin := ret.Results[0].(*ast.BinOpExpr)
	assert.Equal(t, token.PLUS, bin.Type)
}

func TestParsePolymorphicFunction(t *testing.T) {
	chunk := mustParse(t, `
identity :: (value: $T) -> T {
	return value
}`)
	cd := chunk.Decls[0].(*ast.ConstDecl)
	fn := cd.Value.(*ast.FuncLitExpr)
	param := fn.Sig.Params[0]
	ident := param.Type.(*ast.IdentExpr)
	assert.True(t, ident.IsDeterminer)
	assert.Equal(t, "T", ident.Lit)
}

func TestParseStructDecl(t *testing.T) {
	chunk := mustParse(t, `
Point :: struct {
	x: i32
	y: i32
}`)
	cd := chunk.Decls[0].(*ast.ConstDecl)
	st := cd.Value.(*ast.StructTypeExpr)
	require.Len(t, st.Fields, 2)
	assert.Equal(t, "x", st.Fields[0].Name.Lit)
}

func TestParseUnionAndEnum(t *testing.T) {
	chunk := mustParse(t, `
U :: union {
	i: i32
	f: f32
}
Color :: enum u8 {
	Red
	Green
	Blue = 10
}`)
	require.Len(t, chunk.Decls, 2)
	u := chunk.Decls[0].(*ast.ConstDecl).Value.(*ast.UnionTypeExpr)
	require.Len(t, u.Fields, 2)

	e := chunk.Decls[1].(*ast.ConstDecl).Value.(*ast.EnumTypeExpr)
	require.Len(t, e.Variants, 3)
	assert.Nil(t, e.Variants[0].Value)
	blue := e.Variants[2].Value.(*ast.LiteralExpr)
	assert.Equal(t, uint64(10), blue.Int)
}

func TestParseIfElseifElse(t *testing.T) {
	chunk := mustParse(t, `
f :: () -> i32 {
	if x == 1 {
		return 1
	} elseif x == 2 {
		return 2
	} else {
		return 3
	}
}`)
	fn := chunk.Decls[0].(*ast.ConstDecl).Value.(*ast.FuncLitExpr)
	ifStmt := fn.Body.Stmts[0].(*ast.IfStmt)
	require.NotNil(t, ifStmt.Else)
	elseif := ifStmt.Else.Stmts[0].(*ast.IfStmt)
	require.NotNil(t, elseif.Else)
	assert.Len(t, elseif.Else.Stmts, 1)
}

func TestParseWhileAndBreak(t *testing.T) {
	chunk := mustParse(t, `
f :: () -> void {
	while true {
		break
	}
}`)
	fn := chunk.Decls[0].(*ast.ConstDecl).Value.(*ast.FuncLitExpr)
	w := fn.Body.Stmts[0].(*ast.WhileStmt)
	require.Len(t, w.Body.Stmts, 1)
	_, ok := w.Body.Stmts[0].(*ast.BreakStmt)
	assert.True(t, ok)
}

func TestParseForFromTo(t *testing.T) {
	chunk := mustParse(t, `
f :: () -> void {
	for i from 0 to 10 {
		x := i
	}
}`)
	fn := chunk.Decls[0].(*ast.ConstDecl).Value.(*ast.FuncLitExpr)
	fr := fn.Body.Stmts[0].(*ast.ForRangeStmt)
	assert.Equal(t, "i", fr.Var.Lit)
	require.Len(t, fr.Body.Stmts, 1)
	_, ok := fr.Body.Stmts[0].(*ast.VarDecl)
	assert.True(t, ok)
}

func TestParseMultiAssign(t *testing.T) {
	chunk := mustParse(t, `
f :: () -> void {
	a, b := pair()
	a, b = b, a
}`)
	fn := chunk.Decls[0].(*ast.ConstDecl).Value.(*ast.FuncLitExpr)
	decl := fn.Body.Stmts[0].(*ast.MultiAssignStmt)
	assert.True(t, decl.Infer)
	assert.Len(t, decl.Left, 2)

	assign := fn.Body.Stmts[1].(*ast.MultiAssignStmt)
	assert.False(t, assign.Infer)
	assert.Len(t, assign.Right, 2)
}

func TestParsePointerAndArrayTypes(t *testing.T) {
	chunk := mustParse(t, `
buf : [3]i32 = { 1, 2, 3 }
p : *i32 = &buf
s : []i32 = buf
`)
	arr := chunk.Decls[0].(*ast.VarDecl)
	arrType := arr.Type.(*ast.ArrayTypeExpr)
	assert.NotNil(t, arrType.Len)
	agg := arr.Value.(*ast.AggregateLitExpr)
	assert.Len(t, agg.Elems, 3)

	ptr := chunk.Decls[1].(*ast.VarDecl)
	ptrType := ptr.Type.(*ast.PointerTypeExpr)
	ident := ptrType.Elem.(*ast.IdentExpr)
	assert.Equal(t, "i32", ident.Lit)

	slice := chunk.Decls[2].(*ast.VarDecl)
	sliceType := slice.Type.(*ast.ArrayTypeExpr)
	assert.Nil(t, sliceType.Len)
}

func TestParseTagsAndAsm(t *testing.T) {
	chunk := mustParse(t, `
puts :: extern("puts") (s: *i8) -> i32

f :: () -> i32 {
	asm "nop";
	return 0
}`)
	ext := chunk.Decls[0].(*ast.ConstDecl)
	require.Len(t, ext.Tags, 1)
	assert.Equal(t, token.EXTERN, ext.Tags[0].Name)
	assert.Equal(t, []string{"puts"}, ext.Tags[0].Args)

	fn := chunk.Decls[1].(*ast.ConstDecl).Value.(*ast.FuncLitExpr)
	asmStmt := fn.Body.Stmts[0].(*ast.AsmStmt)
	assert.Equal(t, "nop", asmStmt.Text)
}

func TestParseStaticIfDecl(t *testing.T) {
	chunk := mustParse(t, `
static_if TARGET_OS == "linux" {
	write_syscall :: 1
} else {
	write_syscall :: 2
}`)
	sif := chunk.Decls[0].(*ast.StaticIfDecl)
	require.Len(t, sif.Then, 1)
	require.Len(t, sif.Else, 1)
}

func TestParseImport(t *testing.T) {
	chunk := mustParse(t, `import "other.vl"`)
	imp := chunk.Decls[0].(*ast.ImportDecl)
	assert.Equal(t, "other.vl", imp.Path)
}

func TestParseErrorRecovery(t *testing.T) {
	_, _, err := ParseSource("bad.vl", []byte(`x :: `))
	assert.Error(t, err)
}
