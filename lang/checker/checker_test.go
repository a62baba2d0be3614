package checker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vela-lang/velac/lang/checker"
	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/diag"
	"github.com/vela-lang/velac/lang/parser"
	"github.com/vela-lang/velac/lang/scheduler"
	"github.com/vela-lang/velac/lang/scope"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/types"
)

func chunkScope(t *testing.T, path, src string) *scope.Scope {
	t.Helper()
	_, chunk, err := parser.ParseSource(path, []byte(src))
	require.NoError(t, err)
	return scope.NewTop(path, chunk.Decls)
}

func resolve(t *testing.T, c *checker.Checker, sc *scope.Scope, name string) *scope.Constant {
	t.Helper()
	id := c.ResolveDeclaration(sc, name, token.Position{})
	require.NoError(t, c.Sched.Run())
	cst, res, ok := scheduler.Await[*scope.Constant](c.Sched, id)
	require.True(t, ok, "resolution of %q failed: %v", name, res.Err)
	return cst
}

func TestResolveConstInt(t *testing.T) {
	sc := chunkScope(t, "t.vl", `x :: 42`)
	c := checker.New(types.Arch64, scheduler.New(&diag.Sink{}), &diag.Sink{})
	cst := resolve(t, c, sc, "x")
	ic, ok := cst.Value.(*constval.IntegerConst)
	require.True(t, ok)
	assert.Equal(t, uint64(42), ic.Value)
}

func TestResolveVarDeclWithExplicitType(t *testing.T) {
	sc := chunkScope(t, "t.vl", `x : i64 = 7`)
	c := checker.New(types.Arch64, scheduler.New(&diag.Sink{}), &diag.Sink{})
	cst := resolve(t, c, sc, "x")
	it, ok := cst.Type.(*types.IntegerType)
	require.True(t, ok)
	assert.Equal(t, 64, it.Size)
}

// TestStaticIfSelectsDeclaration exercises a top-level static_if whose
// condition is a string-equality fold — the scenario lang/eval's aggregate
// equality support and lang/checker's declaration-scope expansion exist for.
func TestStaticIfSelectsDeclaration(t *testing.T) {
	sc := chunkScope(t, "t.vl", `
TARGET_OS :: "linux"

static_if TARGET_OS == "linux" {
	greeting :: "hi"
} else {
	greeting :: "bye"
}`)
	c := checker.New(types.Arch64, scheduler.New(&diag.Sink{}), &diag.Sink{})
	cst := resolve(t, c, sc, "greeting")
	agg, ok := cst.Value.(*constval.AggregateConst)
	require.True(t, ok)
	got := make([]byte, len(agg.Values))
	for i, v := range agg.Values {
		got[i] = byte(v.(*constval.IntegerConst).Value)
	}
	assert.Equal(t, "hi", string(got))
}

func TestStaticIfElseBranchSelected(t *testing.T) {
	sc := chunkScope(t, "t.vl", `
TARGET_OS :: "darwin"

static_if TARGET_OS == "linux" {
	greeting :: "hi"
} else {
	greeting :: "bye"
}`)
	c := checker.New(types.Arch64, scheduler.New(&diag.Sink{}), &diag.Sink{})
	cst := resolve(t, c, sc, "greeting")
	agg, ok := cst.Value.(*constval.AggregateConst)
	require.True(t, ok)
	got := make([]byte, len(agg.Values))
	for i, v := range agg.Values {
		got[i] = byte(v.(*constval.IntegerConst).Value)
	}
	assert.Equal(t, "bye", string(got))
}

func TestUndefinedNameFails(t *testing.T) {
	sc := chunkScope(t, "t.vl", `x :: 1`)
	sink := &diag.Sink{}
	c := checker.New(types.Arch64, scheduler.New(sink), sink)
	id := c.ResolveDeclaration(sc, "nope", token.Position{})
	require.NoError(t, c.Sched.Run())
	_, res, ok := scheduler.Await[*scope.Constant](c.Sched, id)
	assert.False(t, ok)
	assert.Error(t, res.Err)
	assert.Equal(t, 1, sink.Len())
}

func TestImportResolvesCrossFileMember(t *testing.T) {
	utilScope := chunkScope(t, "util.vl", `greeting :: "hi"`)
	mainScope := chunkScope(t, "main.vl", `
import "util.vl"
x :: util.greeting`)

	c := checker.New(types.Arch64, scheduler.New(&diag.Sink{}), &diag.Sink{})
	c.FileScopes = map[string]*scope.Scope{
		"util.vl": utilScope,
		"main.vl": mainScope,
	}
	cst := resolve(t, c, mainScope, "x")
	agg, ok := cst.Value.(*constval.AggregateConst)
	require.True(t, ok)
	got := make([]byte, len(agg.Values))
	for i, v := range agg.Values {
		got[i] = byte(v.(*constval.IntegerConst).Value)
	}
	assert.Equal(t, "hi", string(got))
}

// TestPolymorphicIdentity exercises §4.5 instantiation: one generic
// declaration, two call sites with different argument types, two distinct
// instantiations memoised independently.
func TestPolymorphicIdentity(t *testing.T) {
	sc := chunkScope(t, "t.vl", `
identity :: (value: $T) -> T {
	return value
}

a :: identity(42)
b :: identity(true)
`)
	c := checker.New(types.Arch64, scheduler.New(&diag.Sink{}), &diag.Sink{})
	ca := resolve(t, c, sc, "a")
	cb := resolve(t, c, sc, "b")
	_, ok := ca.Value.(*constval.IntegerConst)
	assert.True(t, ok)
	_, ok = cb.Value.(*constval.BooleanConst)
	assert.True(t, ok)
}

// TestGenericStructInstantiation exercises the struct analogue of
// TestPolymorphicIdentity: a `$T`-parameterized struct instantiated via
// index syntax (`Box[i32]`), with two distinct instantiations producing
// distinct, independently-memoised member types.
func TestGenericStructInstantiation(t *testing.T) {
	sc := chunkScope(t, "t.vl", `
Box :: struct($T) {
	value: T
}

IntBox :: Box[i32]
BoolBox :: Box[bool]
`)
	c := checker.New(types.Arch64, scheduler.New(&diag.Sink{}), &diag.Sink{})
	intBox := resolve(t, c, sc, "IntBox")
	boolBox := resolve(t, c, sc, "BoolBox")

	intTC, ok := intBox.Value.(*constval.TypeConst)
	require.True(t, ok)
	intSt, ok := intTC.Value.(*types.StructType)
	require.True(t, ok)
	require.Len(t, intSt.Members, 1)
	it, ok := intSt.Members[0].Type.(*types.IntegerType)
	require.True(t, ok)
	assert.Equal(t, 32, it.Size)

	boolTC, ok := boolBox.Value.(*constval.TypeConst)
	require.True(t, ok)
	boolSt, ok := boolTC.Value.(*types.StructType)
	require.True(t, ok)
	require.Len(t, boolSt.Members, 1)
	_, ok = boolSt.Members[0].Type.(*types.BooleanType)
	require.True(t, ok)

	assert.False(t, types.Equal(intSt, boolSt))
}

func TestCycleBetweenConstsIsDetected(t *testing.T) {
	sc := chunkScope(t, "t.vl", `
a :: b
b :: a
`)
	sink := &diag.Sink{}
	c := checker.New(types.Arch64, scheduler.New(sink), sink)
	c.ResolveDeclaration(sc, "a", token.Position{})
	err := c.Sched.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
