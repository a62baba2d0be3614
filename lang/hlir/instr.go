package hlir

import (
	"github.com/vela-lang/velac/lang/token"
)

// Register names a virtual register within a single function's block list
// (§4.6 "register allocation": a simple monotonic counter; every producing
// instruction allocates its own destination register).
type Register int

// Instruction is implemented by every concrete HLIR instruction kind (§3,
// §4.6). Like lang/ast and lang/typedtree it is a closed tagged sum.
type Instruction interface {
	instruction()
	Span() (start, end token.Pos)
	DebugScope() int
}

type base struct {
	start, end token.Pos
	scope      int
}

func (b *base) Span() (start, end token.Pos) { return b.start, b.end }
func (b *base) DebugScope() int              { return b.scope }

func newBase(start, end token.Pos, scope int) base {
	return base{start: start, end: end, scope: scope}
}

type (
	// BinaryOp is an arithmetic or comparison instruction (§4.6).
	BinaryOp struct {
		base
		Op          token.Token
		Dst         Register
		Left, Right Register
		Type        IRType
	}

	// UnaryOp is a unary arithmetic instruction (negation, bitwise not).
	UnaryOp struct {
		base
		Op      token.Token
		Dst     Register
		Operand Register
		Type    IRType
	}

	// Extend sign- or zero-extends Src into a wider integer type.
	Extend struct {
		base
		Dst, Src Register
		To       IRType
		Signed   bool
	}

	// Truncate narrows Src into a smaller integer type.
	Truncate struct {
		base
		Dst, Src Register
		To       IRType
	}

	// Convert performs an integer<->float representation change (an
	// explicit cast, never an implicit coercion).
	Convert struct {
		base
		Dst, Src Register
		To       IRType
	}

	// AssembleStruct builds a struct/multi-return value in a fresh register
	// from its member registers, in declaration order (§4.6 Return rule for
	// >=2 results).
	AssembleStruct struct {
		base
		Dst    Register
		Type   IRType
		Fields []Register
	}

	// ReadStructMember reads one field out of an in-register struct/union
	// value (§4.6: used when the aggregate is not addressed).
	ReadStructMember struct {
		base
		Dst, Src Register
		Index    int
		Type     IRType
	}

	// ReadArrayElement reads one element out of an in-register static-array
	// value by a runtime index.
	ReadArrayElement struct {
		base
		Dst, Src, Index Register
		Type            IRType
	}

	// Literal materialises a compile-time constant into a fresh register.
	Literal struct {
		base
		Dst   Register
		Type  IRType
		Value LiteralValue
	}

	// Jump is an unconditional terminator.
	Jump struct {
		base
		Target *Block
	}

	// Branch is a two-way conditional terminator.
	Branch struct {
		base
		Cond       Register
		Then, Else *Block
	}

	// Call invokes a direct or indirect function target (§4.6 Function call
	// rule).
	Call struct {
		base
		Dst      Register
		HasDst   bool
		Callee   CallTarget
		Args     []Register
		Type     IRType
	}

	// Return is a function terminator: zero or one value, per §4.6's Return
	// rule (multiple results are assembled into a struct beforehand).
	Return struct {
		base
		HasValue bool
		Value    Register
	}

	// AllocateLocal reserves stack storage for a local variable and yields
	// a pointer register to it (§4.6 Local variables rule).
	AllocateLocal struct {
		base
		Dst  Register
		Type IRType
	}

	// Load reads the value pointed to by Pointer into a fresh register.
	Load struct {
		base
		Dst, Pointer Register
		Type         IRType
	}

	// Store writes Value to the location pointed to by Pointer.
	Store struct {
		base
		Pointer, Value Register
	}

	// StructMemberPointer computes the address of a struct/union member of
	// an already-addressed aggregate, preserving lvalue-ness (§4.6).
	StructMemberPointer struct {
		base
		Dst, Pointer Register
		Index        int
		Type         IRType
	}

	// PointerIndex computes the address of an array element of an
	// already-addressed aggregate, preserving lvalue-ness (§4.6).
	PointerIndex struct {
		base
		Dst, Pointer, Index Register
		Type                IRType
	}

	// ReferenceStatic yields a pointer register to a previously-generated
	// RuntimeStatic (§4.6: static string/array/struct literals of
	// constants, and calls to already-generated functions).
	ReferenceStatic struct {
		base
		Dst    Register
		Static RuntimeStatic
		Type   IRType
	}

	// AssemblyInstruction is an inline-asm block with its resolved
	// input/output bindings (§4.6, §7.6).
	AssemblyInstruction struct {
		base
		Text     string
		Bindings []*AsmBinding
	}
)

func (*BinaryOp) instruction()            {}
func (*UnaryOp) instruction()             {}
func (*Extend) instruction()              {}
func (*Truncate) instruction()            {}
func (*Convert) instruction()             {}
func (*AssembleStruct) instruction()      {}
func (*ReadStructMember) instruction()    {}
func (*ReadArrayElement) instruction()    {}
func (*Literal) instruction()             {}
func (*Jump) instruction()                {}
func (*Branch) instruction()              {}
func (*Call) instruction()                {}
func (*Return) instruction()              {}
func (*AllocateLocal) instruction()       {}
func (*Load) instruction()                {}
func (*Store) instruction()               {}
func (*StructMemberPointer) instruction() {}
func (*PointerIndex) instruction()        {}
func (*ReferenceStatic) instruction()     {}
func (*AssemblyInstruction) instruction() {}

// LiteralValue is the constant payload of a Literal instruction; exactly
// one field is meaningful, selected by the instruction's Type.
type LiteralValue struct {
	Int   uint64
	Float float64
	Bool  bool
}

// CallTarget is either a direct reference to an already-generated
// RuntimeStatic function, or an indirect call through a function-pointer
// value already loaded into a register (§4.6 Function call rule).
type CallTarget struct {
	Static     RuntimeStatic
	Pointer    Register
	IsIndirect bool
}

// AsmBinding is one resolved inline-assembly input/output binding (§4.6,
// §7.6): Register holds the input value, or, when Constraint starts with
// '=', the pointer register of the output's addressed location.
type AsmBinding struct {
	Constraint string
	Register   Register
	Type       IRType
}

// NewBinaryOp constructs a typed arithmetic/comparison instruction.
func NewBinaryOp(start, end token.Pos, scope int, op token.Token, dst, left, right Register, typ IRType) *BinaryOp {
	return &BinaryOp{base: newBase(start, end, scope), Op: op, Dst: dst, Left: left, Right: right, Type: typ}
}

// NewUnaryOp constructs a unary arithmetic instruction.
func NewUnaryOp(start, end token.Pos, scope int, op token.Token, dst, operand Register, typ IRType) *UnaryOp {
	return &UnaryOp{base: newBase(start, end, scope), Op: op, Dst: dst, Operand: operand, Type: typ}
}

// NewExtend constructs a sign/zero-extension instruction.
func NewExtend(start, end token.Pos, scope int, dst, src Register, to IRType, signed bool) *Extend {
	return &Extend{base: newBase(start, end, scope), Dst: dst, Src: src, To: to, Signed: signed}
}

// NewTruncate constructs a narrowing instruction.
func NewTruncate(start, end token.Pos, scope int, dst, src Register, to IRType) *Truncate {
	return &Truncate{base: newBase(start, end, scope), Dst: dst, Src: src, To: to}
}

// NewConvert constructs an integer<->float conversion instruction.
func NewConvert(start, end token.Pos, scope int, dst, src Register, to IRType) *Convert {
	return &Convert{base: newBase(start, end, scope), Dst: dst, Src: src, To: to}
}

// NewAssembleStruct constructs a struct-assembly instruction.
func NewAssembleStruct(start, end token.Pos, scope int, dst Register, typ IRType, fields []Register) *AssembleStruct {
	return &AssembleStruct{base: newBase(start, end, scope), Dst: dst, Type: typ, Fields: fields}
}

// NewReadStructMember constructs an in-register struct/union member read.
func NewReadStructMember(start, end token.Pos, scope int, dst, src Register, index int, typ IRType) *ReadStructMember {
	return &ReadStructMember{base: newBase(start, end, scope), Dst: dst, Src: src, Index: index, Type: typ}
}

// NewReadArrayElement constructs an in-register static-array element read.
func NewReadArrayElement(start, end token.Pos, scope int, dst, src, index Register, typ IRType) *ReadArrayElement {
	return &ReadArrayElement{base: newBase(start, end, scope), Dst: dst, Src: src, Index: index, Type: typ}
}

// NewLiteral constructs a constant-materialising instruction.
func NewLiteral(start, end token.Pos, scope int, dst Register, typ IRType, val LiteralValue) *Literal {
	return &Literal{base: newBase(start, end, scope), Dst: dst, Type: typ, Value: val}
}

// NewJump constructs an unconditional terminator.
func NewJump(start, end token.Pos, scope int, target *Block) *Jump {
	return &Jump{base: newBase(start, end, scope), Target: target}
}

// NewBranch constructs a two-way conditional terminator.
func NewBranch(start, end token.Pos, scope int, cond Register, then, els *Block) *Branch {
	return &Branch{base: newBase(start, end, scope), Cond: cond, Then: then, Else: els}
}

// NewCall constructs a function call instruction. hasDst is false for a
// call to a void-returning function.
func NewCall(start, end token.Pos, scope int, dst Register, hasDst bool, callee CallTarget, args []Register, typ IRType) *Call {
	return &Call{base: newBase(start, end, scope), Dst: dst, HasDst: hasDst, Callee: callee, Args: args, Type: typ}
}

// NewReturn constructs a function-terminating return instruction.
func NewReturn(start, end token.Pos, scope int, hasValue bool, value Register) *Return {
	return &Return{base: newBase(start, end, scope), HasValue: hasValue, Value: value}
}

// NewAllocateLocal constructs a stack-allocation instruction.
func NewAllocateLocal(start, end token.Pos, scope int, dst Register, typ IRType) *AllocateLocal {
	return &AllocateLocal{base: newBase(start, end, scope), Dst: dst, Type: typ}
}

// NewLoad constructs a pointer-dereferencing read instruction.
func NewLoad(start, end token.Pos, scope int, dst, pointer Register, typ IRType) *Load {
	return &Load{base: newBase(start, end, scope), Dst: dst, Pointer: pointer, Type: typ}
}

// NewStore constructs a pointer-dereferencing write instruction.
func NewStore(start, end token.Pos, scope int, pointer, value Register) *Store {
	return &Store{base: newBase(start, end, scope), Pointer: pointer, Value: value}
}

// NewStructMemberPointer constructs an addressed struct/union member access.
func NewStructMemberPointer(start, end token.Pos, scope int, dst, pointer Register, index int, typ IRType) *StructMemberPointer {
	return &StructMemberPointer{base: newBase(start, end, scope), Dst: dst, Pointer: pointer, Index: index, Type: typ}
}

// NewPointerIndex constructs an addressed array-element access.
func NewPointerIndex(start, end token.Pos, scope int, dst, pointer, index Register, typ IRType) *PointerIndex {
	return &PointerIndex{base: newBase(start, end, scope), Dst: dst, Pointer: pointer, Index: index, Type: typ}
}

// NewReferenceStatic constructs a reference to an already-generated static.
func NewReferenceStatic(start, end token.Pos, scope int, dst Register, static RuntimeStatic, typ IRType) *ReferenceStatic {
	return &ReferenceStatic{base: newBase(start, end, scope), Dst: dst, Static: static, Type: typ}
}

// NewAssemblyInstruction constructs an inline-asm instruction.
func NewAssemblyInstruction(start, end token.Pos, scope int, text string, bindings []*AsmBinding) *AssemblyInstruction {
	return &AssemblyInstruction{base: newBase(start, end, scope), Text: text, Bindings: bindings}
}

// Block is a linear sequence of instructions. Its successors are encoded by
// its final instruction (Jump, Branch, or Return); Blocks reference each
// other by stable pointer identity (§3, §6).
type Block struct {
	Insns []Instruction
	// Index is this block's position within its function, assigned when the
	// function's block list is finalised; used only for debugging/printing.
	Index int
}

// Terminator returns blk's final instruction if it is a Jump, Branch, or
// Return, or nil if blk has not yet been closed with one.
func (blk *Block) Terminator() Instruction {
	if len(blk.Insns) == 0 {
		return nil
	}
	switch last := blk.Insns[len(blk.Insns)-1].(type) {
	case *Jump, *Branch, *Return:
		return last
	default:
		return nil
	}
}
