package hlir

import (
	"fmt"

	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/types"
)

// RuntimeStatic is implemented by every kind of output the generator hands
// to the C emitter (§3, §6): Function, StaticConstant, StaticVariable.
// Like every other closed union in this compiler, callers switch on the
// concrete type rather than a Kind field. RuntimeStatics reference each
// other by pointer identity (§6).
type RuntimeStatic interface {
	runtimeStatic()
	// StaticName returns the static's final, mangled emission name.
	StaticName() string
}

// DebugScope is one node of the debug-scope tree a function's generator
// builds while walking its body (§4.6 "Debug scopes"): a frame is pushed
// around every if arm and while/for body and popped on exit; the function
// body itself gets no frame of its own. Index is the
// position of this scope within its owning Function's DebugScopes slice;
// every Instruction records the index that was active when it was emitted.
type DebugScope struct {
	Parent *DebugScope
	Index  int
	// Range is the source extent the scope covers, used by the C emitter to
	// produce line/scope debug annotations (§1, out of scope beyond that).
	Range token.FileRange
}

// Function is a fully generated function (§3 RuntimeStatic, §4.6). Blocks
// is the complete, ordered list of basic blocks produced by lang/hlirgen;
// the first block is the entry point.
type Function struct {
	Name       string
	IsNoMangle bool
	Range      token.FileRange
	Params     []IRType
	ParamNames []string
	Result     IRType
	CallConv   types.CallingConvention
	// ExternLibs is this function's own extern(...) library list; the
	// compiler-wide de-duplicated list handed to the emitter (§6) is built by
	// aggregating this field across every Function.
	ExternLibs []string
	// IsExternDecl is true for a function declared `extern` with no body —
	// Blocks is empty and the emitter only forward-declares it.
	IsExternDecl bool
	Blocks       []*Block
	DebugScopes  []*DebugScope
}

func (*Function) runtimeStatic()       {}
func (f *Function) StaticName() string { return f.Name }

// StaticConstant is a de-duplicated, compiler-synthesised constant backing a
// literal value that must live at a stable address (e.g. a string or
// aggregate literal referenced via ReferenceStatic, §4.6). Its Name is
// synthetic (from NextStaticConstantName), never user-written, so it is never
// no_mangle and never collides with a user declaration.
type StaticConstant struct {
	Name  string
	Range token.FileRange
	Type  IRType
	Bytes []byte
}

func (*StaticConstant) runtimeStatic()       {}
func (c *StaticConstant) StaticName() string { return c.Name }

// StaticVariable is a generated top-level (global) variable (§3
// RuntimeStatic, §4.1 GenerateStaticVariable).
type StaticVariable struct {
	Name       string
	IsNoMangle bool
	Range      token.FileRange
	Type       IRType
	// InitValue is the variable's scalar initial value (int/float/bool), or
	// nil when InitStatic is used instead or the variable is zero-initialized.
	InitValue *LiteralValue
	// InitStatic references an aggregate/array StaticConstant backing this
	// variable's initializer, or nil for a scalar or zero initializer.
	InitStatic *StaticConstant
}

func (*StaticVariable) runtimeStatic()       {}
func (v *StaticVariable) StaticName() string { return v.Name }

// Mangler de-duplicates RuntimeStatic emission names (§5 "Shared resources":
// "RuntimeStatic names are de-duplicated via a mangler that appends _N until
// unique; no_mangle declarations conflict statically"). One Mangler is
// shared by an entire compilation.
type Mangler struct {
	used map[string]bool
}

// NewMangler creates an empty Mangler.
func NewMangler() *Mangler {
	return &Mangler{used: make(map[string]bool)}
}

// Mangle returns a unique emission name for a non-no_mangle declaration
// named base, appending "_N" (N starting at 1) until the result is unused.
func (m *Mangler) Mangle(base string) string {
	if !m.used[base] {
		m.used[base] = true
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if !m.used[candidate] {
			m.used[candidate] = true
			return candidate
		}
	}
}

// Reserve claims name exactly, for a no_mangle declaration, returning an
// error if it was already claimed (by another no_mangle declaration, or by
// a mangled name that happened to collide).
func (m *Mangler) Reserve(name string) error {
	if m.used[name] {
		return fmt.Errorf("no_mangle name %q conflicts with a previously emitted symbol", name)
	}
	m.used[name] = true
	return nil
}

// NextStaticConstantName synthesises a name for a compiler-generated
// StaticConstant (§4.6: "promoted to a StaticConstant with a synthetic
// name"). seq is a monotonic per-compilation counter owned by the caller.
func NextStaticConstantName(seq int) string {
	return fmt.Sprintf(".Lconst.%d", seq)
}
