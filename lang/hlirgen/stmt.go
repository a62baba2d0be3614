package hlirgen

import (
	"fmt"
	"strings"

	"github.com/vela-lang/velac/lang/hlir"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/typedtree"
	"github.com/vela-lang/velac/lang/types"
)

// lowerBlock lowers a typed statement list in order, stopping early once the
// current block is closed by a terminator — any statement after a `return`
// or `break` is unreachable and is silently dropped rather than appended to
// an already-closed block (§4.6, §5 "a block's terminator is always the
// last instruction in that block").
func (fg *funcGen) lowerBlock(stmts []typedtree.TypedStatement) error {
	for _, s := range stmts {
		if fg.terminated() {
			break
		}
		if err := fg.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (fg *funcGen) lowerStmt(s typedtree.TypedStatement) error {
	switch s := s.(type) {
	case *typedtree.ExprStmt:
		_, err := fg.lowerExpr(s.X)
		return err
	case *typedtree.Assign:
		return fg.lowerAssign(s)
	case *typedtree.MultiAssign:
		return fg.lowerMultiAssign(s)
	case *typedtree.VarDecl:
		return fg.lowerLocalVarDecl(s)
	case *typedtree.If:
		return fg.lowerIf(s)
	case *typedtree.While:
		return fg.lowerWhile(s)
	case *typedtree.ForRange:
		return fg.lowerForRange(s)
	case *typedtree.Break:
		return fg.lowerBreak(s)
	case *typedtree.Return:
		return fg.lowerReturn(s)
	case *typedtree.Asm:
		return fg.lowerAsm(s)
	default:
		return fmt.Errorf("hlirgen: cannot lower statement %T", s)
	}
}

func (fg *funcGen) lowerAssign(s *typedtree.Assign) error {
	ptr, ok, err := fg.lowerAddress(s.Left)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("hlirgen: assignment target has no address")
	}
	val, err := fg.lowerExpr(s.Right)
	if err != nil {
		return err
	}
	start, end := s.Span()
	fg.emit(hlir.NewStore(start, end, fg.curScope, ptr, val))
	return nil
}

// lowerMultiAssign lowers `a, b := pair()` / `a, b = pair()` / `a, b := x, y`
// (§4.6 Multi-return): every right-hand value is computed before any target
// is written, so `a, b = b, a` observes a's and b's original values rather
// than a's already-updated one.
func (fg *funcGen) lowerMultiAssign(s *typedtree.MultiAssign) error {
	start, end := s.Span()
	values, valueTypes, err := fg.lowerMultiAssignRHS(s)
	if err != nil {
		return err
	}
	for i, l := range s.Left {
		if s.Infer {
			fg.declareLocal(identName(l), valueTypes[i], values[i], start, end)
			continue
		}
		ptr, ok, err := fg.lowerAddress(l)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("hlirgen: multi-assignment target has no address")
		}
		fg.emit(hlir.NewStore(start, end, fg.curScope, ptr, values[i]))
	}
	return nil
}

// lowerMultiAssignRHS computes the flat list of per-target values: either by
// reading every member off a single call's assembled multi-return struct, or
// by lowering each right-hand expression independently when there is one per
// target already.
func (fg *funcGen) lowerMultiAssignRHS(s *typedtree.MultiAssign) ([]hlir.Register, []hlir.IRType, error) {
	start, end := s.Span()
	if len(s.Right) == 1 {
		if mr, ok := s.Right[0].Type().(*types.MultiReturnType); ok {
			structReg, err := fg.lowerExpr(s.Right[0])
			if err != nil {
				return nil, nil, err
			}
			values := make([]hlir.Register, len(mr.Types))
			valueTypes := make([]hlir.IRType, len(mr.Types))
			for i, t := range mr.Types {
				irt, err := fg.irTypeOf(t)
				if err != nil {
					return nil, nil, err
				}
				dst := fg.newRegister()
				fg.emit(hlir.NewReadStructMember(start, end, fg.curScope, dst, structReg, i, irt))
				values[i] = dst
				valueTypes[i] = irt
			}
			return values, valueTypes, nil
		}
	}
	values := make([]hlir.Register, len(s.Right))
	valueTypes := make([]hlir.IRType, len(s.Right))
	for i, r := range s.Right {
		v, err := fg.lowerExpr(r)
		if err != nil {
			return nil, nil, err
		}
		irt, err := fg.irTypeOf(r.Type())
		if err != nil {
			return nil, nil, err
		}
		values[i] = v
		valueTypes[i] = irt
	}
	return values, valueTypes, nil
}

func identName(e typedtree.TypedExpression) string {
	if id, ok := e.(*typedtree.Ident); ok {
		return id.Name
	}
	return ""
}

// lowerLocalVarDecl lowers a local `name : Type = value` / `name := value` /
// `name : Type` declaration (§4.6 Local variables): every local is
// addressed, even one left uninitialized — an uninitialized slot's storage
// simply keeps whatever bytes the allocator handed back.
func (fg *funcGen) lowerLocalVarDecl(s *typedtree.VarDecl) error {
	irt, err := fg.irTypeOf(s.Type)
	if err != nil {
		return err
	}
	start, end := s.Span()
	if s.Value == nil {
		ptr := fg.newRegister()
		fg.emit(hlir.NewAllocateLocal(start, end, fg.curScope, ptr, irt))
		fg.bindLocal(s.Name, ptr, irt)
		return nil
	}
	val, err := fg.lowerExpr(s.Value)
	if err != nil {
		return err
	}
	fg.declareLocal(s.Name, irt, val, start, end)
	return nil
}

// lowerIf lowers an if/elseif/else statement to the §4.6 diamond: a Branch
// to freshly allocated then/else blocks, each jumping to a shared merge
// block unless it already terminates. When every arm terminates (e.g. every
// arm returns) no merge block is allocated and the current block stays the
// last, terminated arm.
func (fg *funcGen) lowerIf(s *typedtree.If) error {
	start, end := s.Span()
	cond, err := fg.lowerExpr(s.Cond)
	if err != nil {
		return err
	}
	thenBlk := fg.newBlock()
	elseBlk := fg.newBlock()
	var mergeBlk *hlir.Block
	jumpToMerge := func() {
		if fg.terminated() {
			return
		}
		if mergeBlk == nil {
			mergeBlk = fg.newBlock()
		}
		fg.emit(hlir.NewJump(start, end, fg.curScope, mergeBlk))
	}
	fg.emit(hlir.NewBranch(start, end, fg.curScope, cond, thenBlk, elseBlk))

	fg.changeBlock(thenBlk)
	fg.pushScope()
	fg.pushFrame()
	err = fg.lowerBlock(s.Then)
	fg.popFrame()
	fg.popScope()
	if err != nil {
		return err
	}
	jumpToMerge()

	fg.changeBlock(elseBlk)
	fg.pushScope()
	fg.pushFrame()
	err = fg.lowerBlock(s.Else)
	fg.popFrame()
	fg.popScope()
	if err != nil {
		return err
	}
	jumpToMerge()

	if mergeBlk != nil {
		fg.changeBlock(mergeBlk)
	}
	return nil
}

// lowerWhile lowers a while loop to {header-block, body-block, after-block}
// (§4.6 Control flow): the header re-evaluates Cond on every iteration, and
// `break` inside Body jumps straight to after-block via fg.breakTargets.
func (fg *funcGen) lowerWhile(s *typedtree.While) error {
	start, end := s.Span()
	headerBlk := fg.enterNewBlock(start, end)
	cond, err := fg.lowerExpr(s.Cond)
	if err != nil {
		return err
	}
	bodyBlk := fg.newBlock()
	afterBlk := fg.newBlock()
	fg.emit(hlir.NewBranch(start, end, fg.curScope, cond, bodyBlk, afterBlk))

	fg.changeBlock(bodyBlk)
	fg.breakTargets = append(fg.breakTargets, afterBlk)
	fg.pushScope()
	fg.pushFrame()
	err = fg.lowerBlock(s.Body)
	fg.popFrame()
	fg.popScope()
	fg.breakTargets = fg.breakTargets[:len(fg.breakTargets)-1]
	if err != nil {
		return err
	}
	if !fg.terminated() {
		fg.emit(hlir.NewJump(start, end, fg.curScope, headerBlk))
	}

	fg.changeBlock(afterBlk)
	return nil
}

// lowerForRange lowers `for i from a to b { ... }` to an init-store, a
// header that loads the induction variable's slot and tests it against the
// (once-evaluated) upper bound, a body with the loop variable bound to a
// Load of that slot, and an increment before jumping back to the header
// (§4.6 Control flow).
func (fg *funcGen) lowerForRange(s *typedtree.ForRange) error {
	start, end := s.Span()
	irt, err := fg.irTypeOf(s.From.Type())
	if err != nil {
		return err
	}
	fromReg, err := fg.lowerExpr(s.From)
	if err != nil {
		return err
	}
	toReg, err := fg.lowerExpr(s.To)
	if err != nil {
		return err
	}

	slot := fg.newRegister()
	fg.emit(hlir.NewAllocateLocal(start, end, fg.curScope, slot, irt))
	fg.emit(hlir.NewStore(start, end, fg.curScope, slot, fromReg))

	headerBlk := fg.enterNewBlock(start, end)
	cur := fg.newRegister()
	fg.emit(hlir.NewLoad(start, end, fg.curScope, cur, slot, irt))
	cond := fg.newRegister()
	fg.emit(hlir.NewBinaryOp(start, end, fg.curScope, token.LT, cond, cur, toReg, irt))
	bodyBlk := fg.newBlock()
	afterBlk := fg.newBlock()
	fg.emit(hlir.NewBranch(start, end, fg.curScope, cond, bodyBlk, afterBlk))

	fg.changeBlock(bodyBlk)
	fg.breakTargets = append(fg.breakTargets, afterBlk)
	fg.pushScope()
	fg.pushFrame()
	fg.bindLocal(s.Var, slot, irt)
	err = fg.lowerBlock(s.Body)
	fg.popFrame()
	fg.popScope()
	fg.breakTargets = fg.breakTargets[:len(fg.breakTargets)-1]
	if err != nil {
		return err
	}
	if !fg.terminated() {
		reread := fg.newRegister()
		fg.emit(hlir.NewLoad(start, end, fg.curScope, reread, slot, irt))
		one := fg.newRegister()
		fg.emit(hlir.NewLiteral(start, end, fg.curScope, one, irt, hlir.LiteralValue{Int: 1}))
		next := fg.newRegister()
		fg.emit(hlir.NewBinaryOp(start, end, fg.curScope, token.PLUS, next, reread, one, irt))
		fg.emit(hlir.NewStore(start, end, fg.curScope, slot, next))
		fg.emit(hlir.NewJump(start, end, fg.curScope, headerBlk))
	}

	fg.changeBlock(afterBlk)
	return nil
}

// lowerBreak jumps to the nearest enclosing loop's after-block (§4.6).
// ControlFlowError's "break outside loop" case is ruled out by the checker
// already having an empty breakTargets stack here only when this generator
// receives a function whose typed tree never should have passed checking;
// lowerBreak still reports the error defensively rather than panicking.
func (fg *funcGen) lowerBreak(s *typedtree.Break) error {
	if len(fg.breakTargets) == 0 {
		start, _ := s.Span()
		return fg.g.errorf(start, "break outside of a loop")
	}
	start, end := s.Span()
	target := fg.breakTargets[len(fg.breakTargets)-1]
	fg.emit(hlir.NewJump(start, end, fg.curScope, target))
	return nil
}

// lowerReturn lowers a return statement per §4.6's Return rule: 0 results
// emit a valueless Return, 1 emits Return(register), >=2 assemble a struct
// of the results first and return that.
func (fg *funcGen) lowerReturn(s *typedtree.Return) error {
	start, end := s.Span()
	switch len(s.Results) {
	case 0:
		fg.emit(hlir.NewReturn(start, end, fg.curScope, false, 0))
		return nil
	case 1:
		reg, err := fg.lowerExpr(s.Results[0])
		if err != nil {
			return err
		}
		fg.emit(hlir.NewReturn(start, end, fg.curScope, true, reg))
		return nil
	default:
		resultTypes := make([]types.AnyType, len(s.Results))
		fields := make([]hlir.Register, len(s.Results))
		for i, r := range s.Results {
			v, err := fg.lowerExpr(r)
			if err != nil {
				return err
			}
			fields[i] = v
			resultTypes[i] = r.Type()
		}
		irt, err := fg.irTypeOf(&types.MultiReturnType{Types: resultTypes})
		if err != nil {
			return err
		}
		dst := fg.newRegister()
		fg.emit(hlir.NewAssembleStruct(start, end, fg.curScope, dst, irt, fields))
		fg.emit(hlir.NewReturn(start, end, fg.curScope, true, dst))
		return nil
	}
}

// lowerAsm lowers an inline-assembly statement (§4.6, §7 InlineAssemblyError):
// an output binding (constraint prefixed `=`) carries the pointer to its
// assignable operand's storage rather than a value register, since the
// assembly writes through it; every other binding carries its value.
func (fg *funcGen) lowerAsm(s *typedtree.Asm) error {
	start, end := s.Span()
	bindings := make([]*hlir.AsmBinding, len(s.Bindings))
	for i, b := range s.Bindings {
		irt, err := fg.irTypeOf(b.Value.Type())
		if err != nil {
			return err
		}
		if strings.HasPrefix(b.Constraint, "=") {
			ptr, ok, err := fg.lowerAddress(b.Value)
			if err != nil {
				return err
			}
			if !ok {
				return fg.g.errorf(start, "inline asm output binding %q has no address", b.Constraint)
			}
			bindings[i] = &hlir.AsmBinding{Constraint: b.Constraint, Register: ptr, Type: irt}
			continue
		}
		reg, err := fg.lowerExpr(b.Value)
		if err != nil {
			return err
		}
		bindings[i] = &hlir.AsmBinding{Constraint: b.Constraint, Register: reg, Type: irt}
	}
	fg.emit(hlir.NewAssemblyInstruction(start, end, fg.curScope, s.Text, bindings))
	return nil
}
