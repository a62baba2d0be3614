package hlirgen

import (
	"github.com/vela-lang/velac/lang/hlir"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/typedtree"
	"github.com/vela-lang/velac/lang/types"
)

// localBinding records how a declared name's current value is reached: a
// plain virtual register holding the value directly (safe only for a name
// proven never reassigned, e.g. an unwritten parameter — S1's `identity`
// lowers its parameter straight to a register, with no AllocateLocal at
// all), or a pointer register into an AllocateLocal slot, read through Load
// and written through Store so every branch of a conditional observes the
// same storage (this IR has no phi nodes).
type localBinding struct {
	reg       hlir.Register
	addressed bool
	typ       hlir.IRType
}

// localFrame is one lexical nesting level's bindings, pushed on entry to an
// if/while/for-range body and popped on exit so a shadowing declaration in
// a nested block does not clobber an outer one of the same name.
type localFrame map[string]localBinding

// funcGen is the per-function generation state: register allocation, the
// growing block list, the local-variable binding stack, the loop-break
// target stack, and the debug-scope stack lang/hlir's DebugScope tree
// mirrors.
type funcGen struct {
	g   *Generator
	typ *types.FunctionType

	nextReg hlir.Register
	blocks  []*hlir.Block
	cur     *hlir.Block

	locals []localFrame

	// breakTargets is the after-block of each loop currently being lowered,
	// innermost last; break jumps to its top.
	breakTargets []*hlir.Block

	debugScopes []*hlir.DebugScope
	curScope    int // index into debugScopes of the active scope, or -1
}

func newFuncGen(g *Generator, typ *types.FunctionType) *funcGen {
	return &funcGen{g: g, typ: typ, locals: []localFrame{{}}, curScope: -1}
}

func (fg *funcGen) newRegister() hlir.Register {
	r := fg.nextReg
	fg.nextReg++
	return r
}

// newBlock allocates a fresh, empty Block and appends it to the function's
// block list; it does not make it the current block.
func (fg *funcGen) newBlock() *hlir.Block {
	b := &hlir.Block{}
	fg.blocks = append(fg.blocks, b)
	return b
}

// emit appends insn to the current block, unless the current block is
// already closed by a terminator — code after a return/break is dead and is
// silently dropped rather than producing an ill-formed block.
func (fg *funcGen) emit(insn hlir.Instruction) {
	if fg.cur.Terminator() != nil {
		return
	}
	fg.cur.Insns = append(fg.cur.Insns, insn)
}

// terminated reports whether the current block already ends in a
// Jump/Branch/Return, meaning any further statements in this list are dead.
func (fg *funcGen) terminated() bool {
	return fg.cur.Terminator() != nil
}

// enterNewBlock closes the current block (emitting a Jump to the new block
// if it is not already closed by a terminator), allocates a fresh block,
// makes it current, and returns it (§4.6 "Block management").
func (fg *funcGen) enterNewBlock(start, end token.Pos) *hlir.Block {
	next := fg.newBlock()
	if !fg.terminated() {
		fg.emit(hlir.NewJump(start, end, fg.curScope, next))
	}
	fg.cur = next
	return next
}

// changeBlock makes blk current without emitting an implicit jump into it —
// the caller has already closed the previous block with its own Branch or
// Return (§4.6 "Block management").
func (fg *funcGen) changeBlock(blk *hlir.Block) {
	fg.cur = blk
}

func (fg *funcGen) pushScope() {
	fg.debugScopes = append(fg.debugScopes, &hlir.DebugScope{Index: len(fg.debugScopes)})
	idx := len(fg.debugScopes) - 1
	if fg.curScope >= 0 {
		fg.debugScopes[idx].Parent = fg.debugScopes[fg.curScope]
	}
	fg.curScope = idx
}

func (fg *funcGen) popScope() {
	if fg.curScope < 0 {
		return
	}
	fg.curScope = parentScopeIndex(fg.debugScopes[fg.curScope])
}

func parentScopeIndex(s *hlir.DebugScope) int {
	if s.Parent == nil {
		return -1
	}
	return s.Parent.Index
}

func (fg *funcGen) pushFrame() { fg.locals = append(fg.locals, localFrame{}) }
func (fg *funcGen) popFrame()  { fg.locals = fg.locals[:len(fg.locals)-1] }

// bindLocal declares name as an addressed local backed by an AllocateLocal
// at ptr, in the innermost frame.
func (fg *funcGen) bindLocal(name string, ptr hlir.Register, typ hlir.IRType) {
	fg.locals[len(fg.locals)-1][name] = localBinding{reg: ptr, addressed: true, typ: typ}
}

// bindPlain declares name as an unaddressed register holding its value
// directly, in the innermost frame.
func (fg *funcGen) bindPlain(name string, reg hlir.Register, typ hlir.IRType) {
	fg.locals[len(fg.locals)-1][name] = localBinding{reg: reg, addressed: false, typ: typ}
}

// lookup searches the frame stack innermost-to-outermost for name's current
// binding.
func (fg *funcGen) lookup(name string) (localBinding, bool) {
	for i := len(fg.locals) - 1; i >= 0; i-- {
		if b, ok := fg.locals[i][name]; ok {
			return b, true
		}
	}
	return localBinding{}, false
}

// declareLocal allocates stack storage for a var declaration or loop
// induction variable, stores its initial value, and binds name to it in the
// innermost frame (§4.6 Local variables rule: every `var` is addressed,
// unlike a never-written parameter).
func (fg *funcGen) declareLocal(name string, typ hlir.IRType, initial hlir.Register, start, end token.Pos) {
	ptr := fg.newRegister()
	fg.emit(hlir.NewAllocateLocal(start, end, fg.curScope, ptr, typ))
	fg.emit(hlir.NewStore(start, end, fg.curScope, ptr, initial))
	fg.bindLocal(name, ptr, typ)
}

// bindParam binds a function parameter. A parameter the body never assigns
// to keeps a bare register per S1 (`Return(param0)`, no AllocateLocal); one
// that is assigned somewhere is addressed up front so every assignment
// writes through the same stable storage regardless of which branch it is
// in (no phi nodes exist in this IR to merge per-branch registers).
func (fg *funcGen) bindParam(name string, typ hlir.IRType, assigned bool, start, end token.Pos) {
	reg := fg.newRegister()
	if !assigned {
		fg.bindPlain(name, reg, typ)
		return
	}
	ptr := fg.newRegister()
	fg.emit(hlir.NewAllocateLocal(start, end, fg.curScope, ptr, typ))
	fg.emit(hlir.NewStore(start, end, fg.curScope, ptr, reg))
	fg.bindLocal(name, ptr, typ)
}

// closeFunctionBody finalises fg.cur once fn's body has been lowered: a
// void function falling off the end of its body gets an implicit empty
// Return; a non-void one that does is a ControlFlowError (§4.6 "every path
// through a non-void function must return").
func (fg *funcGen) closeFunctionBody(fn *typedtree.Function, result hlir.IRType) error {
	if fg.terminated() {
		return nil
	}
	start, end := fn.Decl.Span()
	if _, ok := result.(*hlir.VoidIRType); ok {
		fg.emit(hlir.NewReturn(start, end, fg.curScope, false, 0))
		return nil
	}
	return fg.g.errorf(end, "function %q does not return a value on every path", fn.Decl.Name.Lit)
}

// assignedNames collects every identifier name that Body ever assigns to,
// directly or as a `:=`/`=` multi-assignment target, so bindParam can
// decide up front whether a parameter needs addressed storage.
func assignedNames(body []typedtree.TypedStatement) map[string]bool {
	out := map[string]bool{}
	var walkStmts func([]typedtree.TypedStatement)
	var noteTarget = func(e typedtree.TypedExpression) {
		if id, ok := e.(*typedtree.Ident); ok {
			out[id.Name] = true
		}
	}
	walkStmts = func(stmts []typedtree.TypedStatement) {
		for _, s := range stmts {
			switch s := s.(type) {
			case *typedtree.Assign:
				noteTarget(s.Left)
			case *typedtree.MultiAssign:
				for _, l := range s.Left {
					noteTarget(l)
				}
			case *typedtree.If:
				walkStmts(s.Then)
				walkStmts(s.Else)
			case *typedtree.While:
				walkStmts(s.Body)
			case *typedtree.ForRange:
				walkStmts(s.Body)
			}
		}
	}
	walkStmts(body)
	return out
}
