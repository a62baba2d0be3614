package hlirgen

import (
	"fmt"

	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/hlir"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/typedtree"
	"github.com/vela-lang/velac/lang/types"
)

// lowerExpr lowers e to the register holding its r-value. An expression
// whose overall Value is already a compile-time constant is materialised
// directly (§4.4's folded value, not its subexpression shape) rather than
// walked node-by-node.
func (fg *funcGen) lowerExpr(e typedtree.TypedExpression) (hlir.Register, error) {
	if cv, ok := constantOf(e.Value()); ok {
		return fg.lowerConstant(e, cv)
	}
	switch e := e.(type) {
	case *typedtree.Ident:
		return fg.lowerIdentRead(e)
	case *typedtree.BinOp:
		return fg.lowerBinOp(e)
	case *typedtree.UnaryOp:
		return fg.lowerUnaryOp(e)
	case *typedtree.Call:
		return fg.lowerCall(e)
	case *typedtree.Member:
		return fg.lowerMemberRead(e)
	case *typedtree.Index:
		return fg.lowerIndexRead(e)
	case *typedtree.Aggregate:
		return fg.lowerAggregate(e)
	case *typedtree.Coercion:
		return fg.lowerCoercion(e)
	case *typedtree.Cast:
		return fg.lowerCast(e)
	default:
		return 0, fmt.Errorf("hlirgen: cannot lower %T to a value", e)
	}
}

func (fg *funcGen) irTypeOf(t types.AnyType) (hlir.IRType, error) {
	return hlir.ToIRType(fg.g.Arch, t)
}

// lowerConstant materialises a folded compile-time constant: scalars become
// a Literal, everything else (aggregates, strings) is interned as a
// StaticConstant (P8) and read back through a ReferenceStatic + Load.
func (fg *funcGen) lowerConstant(e typedtree.TypedExpression, cv constval.AnyConstantValue) (hlir.Register, error) {
	start, end := e.Span()
	t := e.Type()
	irt, err := fg.irTypeOf(t)
	if err != nil {
		return 0, err
	}
	switch cv.(type) {
	case *constval.IntegerConst, *constval.FloatConst, *constval.BooleanConst:
		lit, err := literalValueOf(t, cv)
		if err != nil {
			return 0, err
		}
		dst := fg.newRegister()
		fg.emit(hlir.NewLiteral(start, end, fg.curScope, dst, irt, lit))
		return dst, nil
	case *constval.VoidConst:
		return 0, nil
	default:
		bytes, err := serializeConstant(fg.g.Arch, t, cv)
		if err != nil {
			return 0, err
		}
		sc := fg.g.internBytes(irt, bytes)
		ptr := fg.newRegister()
		fg.emit(hlir.NewReferenceStatic(start, end, fg.curScope, ptr, sc, &hlir.PointerIRType{Elem: irt}))
		dst := fg.newRegister()
		fg.emit(hlir.NewLoad(start, end, fg.curScope, dst, ptr, irt))
		return dst, nil
	}
}

func (fg *funcGen) lowerIdentRead(e *typedtree.Ident) (hlir.Register, error) {
	b, ok := fg.lookup(e.Name)
	if !ok {
		return 0, fmt.Errorf("hlirgen: unresolved local %q", e.Name)
	}
	if !b.addressed {
		return b.reg, nil
	}
	start, end := e.Span()
	dst := fg.newRegister()
	fg.emit(hlir.NewLoad(start, end, fg.curScope, dst, b.reg, b.typ))
	return dst, nil
}

// lowerAddress lowers e to a pointer register naming its storage, when e
// denotes one: a local/parameter promoted to an AllocateLocal slot, a
// dereferenced pointer, or a member/index access reachable from one of
// those. ok is false when e has no address in this IR (e.g. a struct value
// produced in-register by a function call) — callers fall back to the
// in-register Read*/lowerExpr path.
func (fg *funcGen) lowerAddress(e typedtree.TypedExpression) (hlir.Register, bool, error) {
	switch e := e.(type) {
	case *typedtree.Ident:
		b, ok := fg.lookup(e.Name)
		if ok && b.addressed {
			return b.reg, true, nil
		}
		return 0, false, nil
	case *typedtree.UnaryOp:
		if e.Op == token.STAR {
			ptr, err := fg.lowerExpr(e.Operand)
			if err != nil {
				return 0, false, err
			}
			return ptr, true, nil
		}
		return 0, false, nil
	case *typedtree.Member:
		return fg.memberAddress(e)
	case *typedtree.Index:
		return fg.indexAddress(e)
	case *typedtree.Coercion:
		return fg.lowerAddress(e.Inner)
	default:
		return 0, false, nil
	}
}

func (fg *funcGen) memberAddress(e *typedtree.Member) (hlir.Register, bool, error) {
	base, ok, err := fg.lowerAddress(e.Left)
	if err != nil || !ok {
		return 0, ok, err
	}
	irt, err := fg.irTypeOf(e.Type())
	if err != nil {
		return 0, false, err
	}
	start, end := e.Span()
	dst := fg.newRegister()
	fg.emit(hlir.NewStructMemberPointer(start, end, fg.curScope, dst, base, e.Index, irt))
	return dst, true, nil
}

func (fg *funcGen) lowerMemberRead(e *typedtree.Member) (hlir.Register, error) {
	if ptr, ok, err := fg.memberAddress(e); err != nil {
		return 0, err
	} else if ok {
		irt, err := fg.irTypeOf(e.Type())
		if err != nil {
			return 0, err
		}
		start, end := e.Span()
		dst := fg.newRegister()
		fg.emit(hlir.NewLoad(start, end, fg.curScope, dst, ptr, irt))
		return dst, nil
	}
	src, err := fg.lowerExpr(e.Left)
	if err != nil {
		return 0, err
	}
	irt, err := fg.irTypeOf(e.Type())
	if err != nil {
		return 0, err
	}
	start, end := e.Span()
	dst := fg.newRegister()
	fg.emit(hlir.NewReadStructMember(start, end, fg.curScope, dst, src, e.Index, irt))
	return dst, nil
}

// sliceFieldValue reads one field (§hlir.SliceLengthMember/SlicePointerMember
// position) of a slice (ArrayType) expression's {length, pointer} pair.
func (fg *funcGen) sliceFieldValue(e typedtree.TypedExpression, index int, irt hlir.IRType) (hlir.Register, error) {
	start, end := e.Span()
	if ptr, ok, err := fg.lowerAddress(e); err != nil {
		return 0, err
	} else if ok {
		fieldPtr := fg.newRegister()
		fg.emit(hlir.NewStructMemberPointer(start, end, fg.curScope, fieldPtr, ptr, index, irt))
		dst := fg.newRegister()
		fg.emit(hlir.NewLoad(start, end, fg.curScope, dst, fieldPtr, irt))
		return dst, nil
	}
	src, err := fg.lowerExpr(e)
	if err != nil {
		return 0, err
	}
	dst := fg.newRegister()
	fg.emit(hlir.NewReadStructMember(start, end, fg.curScope, dst, src, index, irt))
	return dst, nil
}

func (fg *funcGen) indexAddress(e *typedtree.Index) (hlir.Register, bool, error) {
	start, end := e.Span()
	irt, err := fg.irTypeOf(e.Type())
	if err != nil {
		return 0, false, err
	}
	switch e.Prefix.Type().(type) {
	case *types.PointerType:
		base, err := fg.lowerExpr(e.Prefix)
		if err != nil {
			return 0, false, err
		}
		idx, err := fg.lowerExpr(e.Index)
		if err != nil {
			return 0, false, err
		}
		dst := fg.newRegister()
		fg.emit(hlir.NewPointerIndex(start, end, fg.curScope, dst, base, idx, irt))
		return dst, true, nil
	case *types.ArrayType:
		ptrIRT := &hlir.PointerIRType{Elem: irt}
		base, err := fg.sliceFieldValue(e.Prefix, 1, ptrIRT)
		if err != nil {
			return 0, false, err
		}
		idx, err := fg.lowerExpr(e.Index)
		if err != nil {
			return 0, false, err
		}
		dst := fg.newRegister()
		fg.emit(hlir.NewPointerIndex(start, end, fg.curScope, dst, base, idx, irt))
		return dst, true, nil
	case *types.StaticArrayType:
		base, ok, err := fg.lowerAddress(e.Prefix)
		if err != nil || !ok {
			return 0, ok, err
		}
		idx, err := fg.lowerExpr(e.Index)
		if err != nil {
			return 0, false, err
		}
		dst := fg.newRegister()
		fg.emit(hlir.NewPointerIndex(start, end, fg.curScope, dst, base, idx, irt))
		return dst, true, nil
	default:
		return 0, false, nil
	}
}

func (fg *funcGen) lowerIndexRead(e *typedtree.Index) (hlir.Register, error) {
	if ptr, ok, err := fg.indexAddress(e); err != nil {
		return 0, err
	} else if ok {
		irt, err := fg.irTypeOf(e.Type())
		if err != nil {
			return 0, err
		}
		start, end := e.Span()
		dst := fg.newRegister()
		fg.emit(hlir.NewLoad(start, end, fg.curScope, dst, ptr, irt))
		return dst, nil
	}
	// A static array produced in-register (no storage address): read the
	// element directly (§4.6 ReadArrayElement).
	src, err := fg.lowerExpr(e.Prefix)
	if err != nil {
		return 0, err
	}
	idx, err := fg.lowerExpr(e.Index)
	if err != nil {
		return 0, err
	}
	irt, err := fg.irTypeOf(e.Type())
	if err != nil {
		return 0, err
	}
	start, end := e.Span()
	dst := fg.newRegister()
	fg.emit(hlir.NewReadArrayElement(start, end, fg.curScope, dst, src, idx, irt))
	return dst, nil
}

// lowerCall lowers a function call expression: every argument is evaluated
// left to right, then a single Call instruction is emitted against either a
// direct (Static) or indirect (Pointer) target (§4.6 Function call).
func (fg *funcGen) lowerCall(e *typedtree.Call) (hlir.Register, error) {
	start, end := e.Span()
	args := make([]hlir.Register, len(e.Args))
	for i, a := range e.Args {
		r, err := fg.lowerExpr(a)
		if err != nil {
			return 0, err
		}
		args[i] = r
	}
	target, err := fg.callTarget(e.Fn)
	if err != nil {
		return 0, err
	}
	_, isVoid := e.Type().(*types.VoidType)
	hasDst := !isVoid
	resultIRT, err := fg.irTypeOf(e.Type())
	if err != nil {
		return 0, err
	}
	var dst hlir.Register
	if hasDst {
		dst = fg.newRegister()
	}
	fg.emit(hlir.NewCall(start, end, fg.curScope, dst, hasDst, target, args, resultIRT))
	return dst, nil
}

// callTarget resolves a call's callee expression to a direct call against an
// already-generated (or, for a polymorph's instantiation, on-demand
// generated) Function, or an indirect call through a function-pointer value
// held in a register (§4.6 Function call rule).
func (fg *funcGen) callTarget(fnExpr typedtree.TypedExpression) (hlir.CallTarget, error) {
	if cv, ok := constantOf(fnExpr.Value()); ok {
		fc, ok := cv.(*constval.FunctionConst)
		if !ok {
			return hlir.CallTarget{}, fmt.Errorf("hlirgen: call target constant %T is not a resolved function", cv)
		}
		fn, ok := fc.Decl.(*typedtree.Function)
		if !ok {
			return hlir.CallTarget{}, fmt.Errorf("hlirgen: function constant did not resolve to a typed body")
		}
		out, err := fg.g.functionFor(fn)
		if err != nil {
			return hlir.CallTarget{}, err
		}
		return hlir.CallTarget{Static: out}, nil
	}
	ptr, err := fg.lowerExpr(fnExpr)
	if err != nil {
		return hlir.CallTarget{}, err
	}
	return hlir.CallTarget{Pointer: ptr, IsIndirect: true}, nil
}

func (fg *funcGen) lowerUnaryOp(e *typedtree.UnaryOp) (hlir.Register, error) {
	start, end := e.Span()
	if e.Op == token.AMPERSAND {
		ptr, ok, err := fg.lowerAddress(e.Operand)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("hlirgen: operand of & has no address")
		}
		return ptr, nil
	}
	if e.Op == token.STAR {
		ptr, err := fg.lowerExpr(e.Operand)
		if err != nil {
			return 0, err
		}
		irt, err := fg.irTypeOf(e.Type())
		if err != nil {
			return 0, err
		}
		dst := fg.newRegister()
		fg.emit(hlir.NewLoad(start, end, fg.curScope, dst, ptr, irt))
		return dst, nil
	}
	operand, err := fg.lowerExpr(e.Operand)
	if err != nil {
		return 0, err
	}
	irt, err := fg.irTypeOf(e.Operand.Type())
	if err != nil {
		return 0, err
	}
	dst := fg.newRegister()
	fg.emit(hlir.NewUnaryOp(start, end, fg.curScope, e.Op, dst, operand, irt))
	return dst, nil
}

func (fg *funcGen) lowerBinOp(e *typedtree.BinOp) (hlir.Register, error) {
	switch e.Op {
	case token.ANDAND, token.AND:
		return fg.lowerShortCircuit(e, true)
	case token.OROR, token.OR:
		return fg.lowerShortCircuit(e, false)
	}
	left, err := fg.lowerExpr(e.Left)
	if err != nil {
		return 0, err
	}
	right, err := fg.lowerExpr(e.Right)
	if err != nil {
		return 0, err
	}
	operandIRT, err := fg.irTypeOf(e.Left.Type())
	if err != nil {
		return 0, err
	}
	start, end := e.Span()
	dst := fg.newRegister()
	fg.emit(hlir.NewBinaryOp(start, end, fg.curScope, e.Op, dst, left, right, operandIRT))
	return dst, nil
}

// lowerShortCircuit lowers `&&`/`and` and `||`/`or` as a branch rather than
// a BinaryOp, so the right operand is never evaluated when the left already
// decides the result (§4.4's "boolean short-circuit" carried through to
// runtime code, not just constant folding).
func (fg *funcGen) lowerShortCircuit(e *typedtree.BinOp, isAnd bool) (hlir.Register, error) {
	start, end := e.Span()
	boolIRT := &hlir.BoolIRType{}
	left, err := fg.lowerExpr(e.Left)
	if err != nil {
		return 0, err
	}
	// The merged value has no phi in this IR: store each path's value
	// through a shared local slot instead of a register join.
	slot := fg.newRegister()
	fg.emit(hlir.NewAllocateLocal(start, end, fg.curScope, slot, boolIRT))
	rhsBlk := fg.newBlock()
	shortBlk := fg.newBlock()
	mergeBlk := fg.newBlock()
	if isAnd {
		fg.emit(hlir.NewBranch(start, end, fg.curScope, left, rhsBlk, shortBlk))
	} else {
		fg.emit(hlir.NewBranch(start, end, fg.curScope, left, shortBlk, rhsBlk))
	}

	fg.cur = rhsBlk
	right, err := fg.lowerExpr(e.Right)
	if err != nil {
		return 0, err
	}
	fg.emit(hlir.NewStore(start, end, fg.curScope, slot, right))
	if !fg.terminated() {
		fg.emit(hlir.NewJump(start, end, fg.curScope, mergeBlk))
	}

	fg.cur = shortBlk
	shortLit := fg.newRegister()
	fg.emit(hlir.NewLiteral(start, end, fg.curScope, shortLit, boolIRT, hlir.LiteralValue{Bool: !isAnd}))
	fg.emit(hlir.NewStore(start, end, fg.curScope, slot, shortLit))
	fg.emit(hlir.NewJump(start, end, fg.curScope, mergeBlk))

	fg.cur = mergeBlk
	dst := fg.newRegister()
	fg.emit(hlir.NewLoad(start, end, fg.curScope, dst, slot, boolIRT))
	return dst, nil
}

func (fg *funcGen) lowerAggregate(e *typedtree.Aggregate) (hlir.Register, error) {
	irt, err := fg.irTypeOf(e.Type())
	if err != nil {
		return 0, err
	}
	start, end := e.Span()
	switch e.Type().(type) {
	case *types.StaticArrayType, *types.StructType:
		fields := make([]hlir.Register, len(e.Elems))
		for i, el := range e.Elems {
			r, err := fg.lowerExpr(el)
			if err != nil {
				return 0, err
			}
			fields[i] = r
		}
		dst := fg.newRegister()
		fg.emit(hlir.NewAssembleStruct(start, end, fg.curScope, dst, irt, fields))
		return dst, nil
	case *types.UnionType:
		if len(e.Elems) != 1 {
			return 0, fmt.Errorf("hlirgen: union literal must initialise exactly one member")
		}
		// A union's IR representation is a raw byte blob (§4.6): build it on
		// the stack and store the single initialised member into it.
		r, err := fg.lowerExpr(e.Elems[0])
		if err != nil {
			return 0, err
		}
		memberIRT, err := fg.irTypeOf(e.Elems[0].Type())
		if err != nil {
			return 0, err
		}
		ptr := fg.newRegister()
		fg.emit(hlir.NewAllocateLocal(start, end, fg.curScope, ptr, irt))
		view := fg.newRegister()
		fg.emit(hlir.NewStructMemberPointer(start, end, fg.curScope, view, ptr, 0, memberIRT))
		fg.emit(hlir.NewStore(start, end, fg.curScope, view, r))
		dst := fg.newRegister()
		fg.emit(hlir.NewLoad(start, end, fg.curScope, dst, ptr, irt))
		return dst, nil
	default:
		return 0, fmt.Errorf("hlirgen: aggregate literal has unresolved type %s", e.Type())
	}
}

func (fg *funcGen) lowerCoercion(e *typedtree.Coercion) (hlir.Register, error) {
	if from, ok := e.Inner.Type().(*types.StaticArrayType); ok {
		if to, ok := e.Type().(*types.ArrayType); ok {
			return fg.lowerArrayBorrow(e, from, to)
		}
	}
	inner, err := fg.lowerExpr(e.Inner)
	if err != nil {
		return 0, err
	}
	fromIRT, err := fg.irTypeOf(e.Inner.Type())
	if err != nil {
		return 0, err
	}
	toIRT, err := fg.irTypeOf(e.Type())
	if err != nil {
		return 0, err
	}
	if hlir.IRTypesEqual(fromIRT, toIRT) {
		return inner, nil
	}
	return fg.convertBetween(e.Span, inner, fromIRT, toIRT)
}

// lowerArrayBorrow implements the §4.3 "borrow to slice" coercion row,
// `StaticArray[N]T (lvalue) -> []T`: the static array's address is taken
// (it must have one — the checker only permits this coercion for an
// addressable inner expression) and paired with its compile-time length N
// into the slice's {length, pointer} StructIRType (§hlir.SliceLengthMember/
// SlicePointerMember), the same shape sliceFieldValue reads back.
func (fg *funcGen) lowerArrayBorrow(e *typedtree.Coercion, from *types.StaticArrayType, to *types.ArrayType) (hlir.Register, error) {
	start, end := e.Span()
	ptr, ok, err := fg.lowerAddress(e.Inner)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("hlirgen: static array borrowed to a slice has no address")
	}
	sliceIRT, err := fg.irTypeOf(to)
	if err != nil {
		return 0, err
	}
	st, ok := sliceIRT.(*hlir.StructIRType)
	if !ok {
		return 0, fmt.Errorf("hlirgen: slice type %s did not lower to a struct representation", to)
	}
	lenIRT := st.Members[0].Type
	lenReg := fg.newRegister()
	fg.emit(hlir.NewLiteral(start, end, fg.curScope, lenReg, lenIRT, hlir.LiteralValue{Int: from.Len}))
	dst := fg.newRegister()
	fg.emit(hlir.NewAssembleStruct(start, end, fg.curScope, dst, sliceIRT, []hlir.Register{lenReg, ptr}))
	return dst, nil
}

func (fg *funcGen) lowerCast(e *typedtree.Cast) (hlir.Register, error) {
	inner, err := fg.lowerExpr(e.Inner)
	if err != nil {
		return 0, err
	}
	fromIRT, err := fg.irTypeOf(e.Inner.Type())
	if err != nil {
		return 0, err
	}
	toIRT, err := fg.irTypeOf(e.Type())
	if err != nil {
		return 0, err
	}
	if hlir.IRTypesEqual(fromIRT, toIRT) {
		return inner, nil
	}
	return fg.convertBetween(e.Span, inner, fromIRT, toIRT)
}

// convertBetween emits the instruction that reinterprets/converts src from
// fromIRT to toIRT: Extend/Truncate between integer widths, Convert between
// integer and float representations or pointer<->address-sized integer, and
// a bare pass-through when the two IRTypes share a representation (e.g. a
// signedness-only change or an enum<->its own backing integer).
func (fg *funcGen) convertBetween(span func() (token.Pos, token.Pos), src hlir.Register, fromIRT, toIRT hlir.IRType) (hlir.Register, error) {
	start, end := span()
	switch from := fromIRT.(type) {
	case *hlir.IntegerIRType:
		switch to := toIRT.(type) {
		case *hlir.IntegerIRType:
			if to.Size == from.Size {
				return src, nil
			}
			dst := fg.newRegister()
			if to.Size > from.Size {
				fg.emit(hlir.NewExtend(start, end, fg.curScope, dst, src, toIRT, from.Signed))
			} else {
				fg.emit(hlir.NewTruncate(start, end, fg.curScope, dst, src, toIRT))
			}
			return dst, nil
		case *hlir.FloatIRType:
			dst := fg.newRegister()
			fg.emit(hlir.NewConvert(start, end, fg.curScope, dst, src, toIRT))
			return dst, nil
		case *hlir.PointerIRType:
			return src, nil
		}
	case *hlir.FloatIRType:
		if _, ok := toIRT.(*hlir.FloatIRType); ok {
			return src, nil
		}
		dst := fg.newRegister()
		fg.emit(hlir.NewConvert(start, end, fg.curScope, dst, src, toIRT))
		return dst, nil
	case *hlir.PointerIRType:
		return src, nil
	}
	return src, nil
}
