package hlirgen_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vela-lang/velac/lang/compiler"
	"github.com/vela-lang/velac/lang/hlir"
	"github.com/vela-lang/velac/lang/types"
)

func build(t *testing.T, src string) *compiler.Result {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "main.vl")
	require.NoError(t, os.WriteFile(root, []byte(src), 0o644))
	res, err := compiler.Build(types.Arch64, root)
	require.NoError(t, err)
	return res
}

func findFunc(t *testing.T, res *compiler.Result, name string) *hlir.Function {
	t.Helper()
	for _, fn := range res.Functions {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("no generated function named %q (have: %v)", name, funcNames(res))
	return nil
}

func funcNames(res *compiler.Result) []string {
	names := make([]string, len(res.Functions))
	for i, fn := range res.Functions {
		names[i] = fn.Name
	}
	return names
}

func countInsns[T hlir.Instruction](fn *hlir.Function) int {
	n := 0
	for _, b := range fn.Blocks {
		for _, insn := range b.Insns {
			if _, ok := insn.(T); ok {
				n++
			}
		}
	}
	return n
}

// S1: a polymorphic identity function's parameter is never reassigned, so it
// stays a bare register with no AllocateLocal/Store at all (§4.6 Local
// variables / bindParam).
func TestPolymorphicIdentityUsesBareRegister(t *testing.T) {
	res := build(t, `
identity :: (value: $T) -> T {
	return value
}

main :: (x: i32) -> i32 {
	return identity(x)
}
`)
	main := findFunc(t, res, "main")
	require.Len(t, main.Blocks, 1)
	calls := 0
	var callee *hlir.CallTarget
	for _, insn := range main.Blocks[0].Insns {
		if c, ok := insn.(*hlir.Call); ok {
			calls++
			callee = &c.Callee
		}
	}
	assert.Equal(t, 1, calls)
	require.NotNil(t, callee)
	assert.False(t, callee.IsIndirect)
	require.NotNil(t, callee.Static)

	identity := findFunc(t, res, "identity")
	assert.Equal(t, 0, countInsns[*hlir.AllocateLocal](identity))
	require.Len(t, identity.Blocks, 1)
	_, isReturn := identity.Blocks[0].Insns[len(identity.Blocks[0].Insns)-1].(*hlir.Return)
	assert.True(t, isReturn)
}

// A parameter that IS reassigned inside the body is addressed: it gets an
// AllocateLocal slot and every read goes through a Load (contrast with S1).
func TestReassignedParamIsAddressed(t *testing.T) {
	res := build(t, `
bump :: (x: i32) -> i32 {
	x = x + 1
	return x
}
`)
	bump := findFunc(t, res, "bump")
	assert.Equal(t, 1, countInsns[*hlir.AllocateLocal](bump))
	assert.GreaterOrEqual(t, countInsns[*hlir.Store](bump), 2)
}

// S4: a union literal write is lowered through an addressed AllocateLocal
// slot (a union has no single-register representation other than its raw
// bytes), and reading an uninitialized union local (`u : U`) still allocates
// storage for it via VarDecl.Type even though it has no initializer.
func TestUnionWriteAndUninitializedDecl(t *testing.T) {
	res := build(t, `
U :: union {
	i: i32
	f: f32
}

makeUnion :: (v: i32) -> i32 {
	u : U
	u.i = v
	return u.i
}
`)
	fn := findFunc(t, res, "makeUnion")
	assert.GreaterOrEqual(t, countInsns[*hlir.AllocateLocal](fn), 1)
	assert.GreaterOrEqual(t, countInsns[*hlir.StructMemberPointer](fn), 1)
}

// S5: a multi-return call assembles its results into a struct at the return
// site and reads them back with ReadStructMember at the call site.
func TestMultiReturnAssemblesAndReads(t *testing.T) {
	res := build(t, `
divmod :: (a: i32, b: i32) -> (i32, i32) {
	return a / b, a % b
}

useDivmod :: (a: i32, b: i32) -> i32 {
	q, r := divmod(a, b)
	return q + r
}
`)
	divmod := findFunc(t, res, "divmod")
	assert.Equal(t, 1, countInsns[*hlir.AssembleStruct](divmod))

	use := findFunc(t, res, "useDivmod")
	assert.Equal(t, 2, countInsns[*hlir.ReadStructMember](use))
}

// Control flow: an if/elseif/else diamond produces three allocated blocks
// beyond the entry, each arm's block ending in either a Jump to the merge
// block or, when every arm returns, a Return with no implicit Jump.
func TestIfElseifElseDiamond(t *testing.T) {
	res := build(t, `
classify :: (x: i32) -> i32 {
	if x < 0 {
		return 0
	} elseif x == 0 {
		return 1
	} else {
		return 2
	}
}
`)
	fn := findFunc(t, res, "classify")
	assert.GreaterOrEqual(t, len(fn.Blocks), 4)
	for _, b := range fn.Blocks {
		require.NotNil(t, b.Terminator(), "every block must end in a terminator")
	}
}

// while/break: break jumps straight to the loop's after-block rather than
// back to the header.
func TestWhileBreak(t *testing.T) {
	res := build(t, `
firstOver :: (limit: i32) -> i32 {
	i := 0
	while true {
		if i >= limit {
			break
		}
		i = i + 1
	}
	return i
}
`)
	fn := findFunc(t, res, "firstOver")
	assert.GreaterOrEqual(t, countInsns[*hlir.Jump](fn), 2)
	for _, b := range fn.Blocks {
		require.NotNil(t, b.Terminator())
	}
}

// for-from-to: the induction variable is addressed (it is reassigned every
// iteration by the implicit increment), with a single AllocateLocal for its
// slot regardless of how many iterations the loop body logically has.
func TestForRangeSum(t *testing.T) {
	res := build(t, `
sumTo :: (n: i32) -> i32 {
	total := 0
	for i from 0 to n {
		total = total + i
	}
	return total
}
`)
	fn := findFunc(t, res, "sumTo")
	// one slot for total, one for the induction variable
	assert.Equal(t, 2, countInsns[*hlir.AllocateLocal](fn))
}

// P8: two structurally identical compile-time constants intern to the same
// StaticConstant rather than duplicating storage.
func TestStaticConstantInterning(t *testing.T) {
	res := build(t, `
Point :: struct {
	x: i32
	y: i32
}

makeA :: () -> Point {
	return {1, 2}
}

makeB :: () -> Point {
	return {1, 2}
}
`)
	a := findFunc(t, res, "makeA")
	b := findFunc(t, res, "makeB")
	var aStatic, bStatic *hlir.StaticConstant
	for _, insn := range a.Blocks[0].Insns {
		if rs, ok := insn.(*hlir.ReferenceStatic); ok {
			aStatic, _ = rs.Static.(*hlir.StaticConstant)
		}
	}
	for _, insn := range b.Blocks[0].Insns {
		if rs, ok := insn.(*hlir.ReferenceStatic); ok {
			bStatic, _ = rs.Static.(*hlir.StaticConstant)
		}
	}
	require.NotNil(t, aStatic)
	require.NotNil(t, bStatic)
	assert.Same(t, aStatic, bStatic)
}

// S3: borrowing a static array to a slice parameter takes the array's
// address and assembles a {length, pointer} slice struct from it, rather
// than silently passing through the raw static-array register.
func TestStaticArrayBorrowedToSlice(t *testing.T) {
	res := build(t, `
sum :: (s: []i32) -> i32 {
	total := 0
	for i from 0 to 3 {
		total = total + s[i]
	}
	return total
}

caller :: () -> i32 {
	buf : [3]i32 = { 1, 2, 3 }
	return sum(buf)
}
`)
	fn := findFunc(t, res, "caller")
	require.Equal(t, 1, countInsns[*hlir.AssembleStruct](fn))
	var assembled *hlir.AssembleStruct
	for _, b := range fn.Blocks {
		for _, insn := range b.Insns {
			if as, ok := insn.(*hlir.AssembleStruct); ok {
				assembled = as
			}
		}
	}
	require.NotNil(t, assembled)
	st, ok := assembled.Type.(*hlir.StructIRType)
	require.True(t, ok)
	require.Len(t, st.Members, 2)
	assert.Equal(t, hlir.SliceLengthMember, st.Members[0].Name)
	assert.Equal(t, hlir.SlicePointerMember, st.Members[1].Name)
	require.Len(t, assembled.Fields, 2)

	var length *hlir.Literal
	for _, b := range fn.Blocks {
		for _, insn := range b.Insns {
			if lit, ok := insn.(*hlir.Literal); ok && lit.Dst == assembled.Fields[0] {
				length = lit
			}
		}
	}
	require.NotNil(t, length)
	assert.EqualValues(t, 3, length.Value.Int)

	// The call itself must receive the assembled slice register, not the
	// bare static array.
	var call *hlir.Call
	for _, b := range fn.Blocks {
		for _, insn := range b.Insns {
			if c, ok := insn.(*hlir.Call); ok {
				call = c
			}
		}
	}
	require.NotNil(t, call)
	require.Len(t, call.Args, 1)
	assert.Equal(t, assembled.Dst, call.Args[0])
}

// Indirect calls: a call through a function-pointer value lowers to an
// IsIndirect CallTarget carrying the pointer register, not a Static target.
func TestIndirectCallThroughFunctionPointer(t *testing.T) {
	res := build(t, `
inc :: (x: i32) -> i32 {
	return x + 1
}

applyOne :: (f: (i32) -> i32) -> i32 {
	return f(1)
}

callInc :: () -> i32 {
	return applyOne(inc)
}
`)
	fn := findFunc(t, res, "applyOne")
	var target *hlir.CallTarget
	for _, insn := range fn.Blocks[0].Insns {
		if c, ok := insn.(*hlir.Call); ok {
			target = &c.Callee
		}
	}
	require.NotNil(t, target)
	assert.True(t, target.IsIndirect)
}
