// Package hlirgen implements the HLIR generator (§4.6): it lowers fully
// type-checked lang/typedtree functions and static variables into
// lang/hlir RuntimeStatics. Generation runs after the checker has driven
// lang/scheduler to fixpoint, so every typed tree it consumes is already
// complete; the only ordering concern left is call-graph recursion, handled
// the same way lang/checker handles a recursive type lookup: a function's
// *hlir.Function is allocated and cached before its body is lowered, so a
// self- or mutually-recursive call resolves against the same stable pointer
// instead of looping forever.
package hlirgen

import (
	"fmt"
	"math"

	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/checker"
	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/diag"
	"github.com/vela-lang/velac/lang/hlir"
	"github.com/vela-lang/velac/lang/scheduler"
	"github.com/vela-lang/velac/lang/scope"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/typedtree"
	"github.com/vela-lang/velac/lang/types"
)

// Generator holds the state shared across an entire compilation's HLIR
// generation: the target architecture, the shared job scheduler and
// diagnostic sink (the same ones the checker used), a Mangler handing out
// de-duplicated emission names, and the function/static-constant caches that
// make generation idempotent under recursion and P8's "interning" property.
type Generator struct {
	Arch    types.Arch
	Sched   *scheduler.Scheduler
	Sink    *diag.Sink
	File    *token.File
	Mangler *hlir.Mangler

	funcs     map[*typedtree.Function]*hlir.Function
	generated []*hlir.Function // every *hlir.Function ever produced by functionFor, in generation order
	constants map[string]*hlir.StaticConstant
	constSeq  int
}

// NewGenerator creates a Generator sharing sched and sink with the Checker
// that produced the typed trees being lowered.
func NewGenerator(arch types.Arch, sched *scheduler.Scheduler, sink *diag.Sink, file *token.File) *Generator {
	return &Generator{
		Arch:      arch,
		Sched:     sched,
		Sink:      sink,
		File:      file,
		Mangler:   hlir.NewMangler(),
		funcs:     make(map[*typedtree.Function]*hlir.Function),
		constants: make(map[string]*hlir.StaticConstant),
	}
}

func (g *Generator) posOf(start token.Pos) token.Position {
	if g.File == nil {
		return token.Position{}
	}
	return g.File.Position(start)
}

func (g *Generator) rangeOf(start, end token.Pos) token.FileRange {
	if g.File == nil {
		return token.FileRange{}
	}
	return g.File.Range(start, end)
}

func (g *Generator) errorf(start token.Pos, format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	g.Sink.Add(diag.Diagnostic{Kind: diag.ControlFlowError, Pos: g.posOf(start), Msg: err.Error()})
	return err
}

// EnqueueFunction registers (or returns the already-registered) scheduler
// job that lowers fn to HLIR, keyed by fn's pointer identity so a function
// referenced from multiple call sites is generated exactly once (P2).
func (g *Generator) EnqueueFunction(fn *typedtree.Function) scheduler.JobID {
	name := fn.Decl.Name.Lit
	start, _ := fn.Decl.Span()
	return g.Sched.Enqueue("GenerateFunction", fmt.Sprintf("genfn:%p", fn), name, g.posOf(start), func(*scheduler.Scheduler) scheduler.Result {
		out, err := g.functionFor(fn)
		if err != nil {
			return scheduler.Fail(err)
		}
		return scheduler.Ok(out)
	})
}

// functionFor returns fn's generated *hlir.Function, generating it (or, for
// a function already being generated higher up the call stack, returning
// its in-progress stub) on first reference.
func (g *Generator) functionFor(fn *typedtree.Function) (*hlir.Function, error) {
	if out, ok := g.funcs[fn]; ok {
		return out, nil
	}
	name := fn.Decl.Name.Lit
	tags := fn.Decl.Tags
	mangled := name
	if isNoMangle(tags) {
		if err := g.Mangler.Reserve(name); err != nil {
			return nil, err
		}
	} else {
		mangled = g.Mangler.Mangle(name)
	}
	params := make([]hlir.IRType, len(fn.Typ.Params))
	for i, p := range fn.Typ.Params {
		irt, err := hlir.ToIRType(g.Arch, p)
		if err != nil {
			return nil, err
		}
		params[i] = irt
	}
	result, err := functionResultIRType(g.Arch, fn.Typ)
	if err != nil {
		return nil, err
	}
	start, end := fn.Decl.Span()
	libs, isExtern := externLibraries(tags)
	out := &hlir.Function{
		Name:         mangled,
		IsNoMangle:   isNoMangle(tags),
		Range:        g.rangeOf(start, end),
		Params:       params,
		ParamNames:   fn.Params,
		Result:       result,
		CallConv:     fn.Typ.CallConv,
		ExternLibs:   libs,
		IsExternDecl: isExtern,
	}
	// Cache the stub before lowering the body: a recursive call inside Body
	// looks this same pointer back up instead of regenerating it.
	g.funcs[fn] = out
	g.generated = append(g.generated, out)
	if isExtern {
		return out, nil
	}
	fg := newFuncGen(g, fn.Typ)
	entry := fg.newBlock()
	fg.cur = entry
	assigned := assignedNames(fn.Body)
	for i, pname := range fn.Params {
		fg.bindParam(pname, params[i], assigned[pname], start, end)
	}
	if err := fg.lowerBlock(fn.Body); err != nil {
		return nil, err
	}
	if err := fg.closeFunctionBody(fn, result); err != nil {
		return nil, err
	}
	out.Blocks = fg.blocks
	out.DebugScopes = fg.debugScopes
	for i, b := range out.Blocks {
		b.Index = i
	}
	return out, nil
}

// functionResultIRType converts a function's declared results to the single
// result IRType a Function carries (§4.6 Return rule: >=2 results assemble
// into a struct-of-results, handled by ToIRType's MultiReturnType case).
func functionResultIRType(arch types.Arch, ft *types.FunctionType) (hlir.IRType, error) {
	switch len(ft.Results) {
	case 0:
		return &hlir.VoidIRType{}, nil
	case 1:
		return hlir.ToIRType(arch, ft.Results[0])
	default:
		return hlir.ToIRType(arch, &types.MultiReturnType{Types: ft.Results})
	}
}

// GenerateStaticVariable lowers sv, whose declared type is declType, to a
// generated global (§4.1 GenerateStaticVariable, §4.6).
func (g *Generator) GenerateStaticVariable(sv *typedtree.StaticVariable, declType types.AnyType) (*hlir.StaticVariable, error) {
	tags := sv.Decl.Tags
	name := sv.Name
	mangled := name
	if noMangleVar(tags) {
		if err := g.Mangler.Reserve(name); err != nil {
			return nil, err
		}
	} else {
		mangled = g.Mangler.Mangle(name)
	}
	irt, err := hlir.ToIRType(g.Arch, declType)
	if err != nil {
		return nil, err
	}
	start, end := sv.Decl.Span()
	out := &hlir.StaticVariable{
		Name:       mangled,
		IsNoMangle: noMangleVar(tags),
		Range:      g.rangeOf(start, end),
		Type:       irt,
	}
	if sv.Value == nil {
		return out, nil
	}
	cv, ok := constantOf(sv.Value.Value())
	if !ok {
		return nil, g.errorf(start, "static variable %q must have a compile-time constant initializer", name)
	}
	switch cv.(type) {
	case *constval.IntegerConst, *constval.FloatConst, *constval.BooleanConst:
		lit, err := literalValueOf(declType, cv)
		if err != nil {
			return nil, err
		}
		out.InitValue = &lit
	default:
		bytes, err := serializeConstant(g.Arch, declType, cv)
		if err != nil {
			return nil, err
		}
		out.InitStatic = g.internBytes(irt, bytes)
	}
	return out, nil
}

// GenerateProgram drives HLIR generation for every top-level declaration
// visible in sc: a *hlir.Function per non-polymorphic function declaration
// and a *hlir.StaticVariable per top-level variable declaration. It assumes
// sc's compilation already ran its scheduler to fixpoint (every name in
// Decls resolves without suspending); c is the Checker that performed that
// resolution, reused here only for its exported CheckExpr/TypeExpr/Coerce
// helpers so a static variable's initializer is re-typed against the same
// scope without duplicating checker.Checker's internals.
func (g *Generator) GenerateProgram(c *checker.Checker, sc *scope.Scope) ([]*hlir.Function, []*hlir.StaticVariable, error) {
	var vars []*hlir.StaticVariable
	var ids []scheduler.JobID
	for _, d := range sc.Decls {
		switch d := d.(type) {
		case *ast.ConstDecl:
			lit, ok := d.Value.(*ast.FuncLitExpr)
			if !ok {
				continue // non-function constant (struct/union/enum/type alias): nothing to generate
			}
			if isPolymorphicSig(lit.Sig) {
				continue // polymorphic functions are generated per call-site instantiation, not here
			}
			cst, _, ok := sc.Resolve(d.Name.Lit)
			if !ok {
				continue // failed to resolve; already reported by the checker
			}
			fc, ok := cst.Value.(*constval.FunctionConst)
			if !ok {
				continue
			}
			fn, ok := fc.Decl.(*typedtree.Function)
			if !ok || fn.Body == nil {
				continue // body job failed or never completed; already reported
			}
			ids = append(ids, g.EnqueueFunction(fn))
		case *ast.VarDecl:
			sv, declType, err := g.typeStaticVariable(c, sc, d)
			if err != nil {
				return nil, nil, err
			}
			out, err := g.GenerateStaticVariable(sv, declType)
			if err != nil {
				return nil, nil, err
			}
			vars = append(vars, out)
		}
	}
	// All GenerateFunction jobs are enqueued before any of them is awaited,
	// so a single Run() drives the whole batch (and any recursive/mutually-
	// recursive calls they enqueue along the way) to fixpoint together.
	if err := g.Sched.Run(); err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		if _, res, ok := scheduler.Await[*hlir.Function](g.Sched, id); !ok {
			return nil, nil, res.Err
		}
	}
	// g.generated also holds every polymorphic instantiation and transitively
	// reachable function functionFor produced along the way (§4.5): a
	// top-level function is never generated twice, since functionFor's cache
	// is keyed on the *typedtree.Function pointer and Generate{Function,Program}
	// share it, so this is the complete, de-duplicated emission set rather
	// than just the directly enumerated top-level declarations.
	funcs := g.generated
	return funcs, vars, nil
}

// isPolymorphicSig reports whether sig declares any `$T`-style determiner
// parameter; polymorphic functions have no single HLIR representation of
// their own (§4.5), only one per concrete instantiation.
func isPolymorphicSig(sig *ast.FuncSignature) bool {
	for _, p := range sig.Params {
		if id, ok := ast.Unwrap(p.Type).(*ast.IdentExpr); ok && id.IsDeterminer {
			return true
		}
	}
	return false
}

// typeStaticVariable re-types a top-level VarDecl through c's exported
// CheckExpr/TypeExpr/Coerce, mirroring checker's own resolveVarDecl, to
// obtain the typedtree.StaticVariable lang/checker's internal resolution
// path never materializes (it only needs the constant Value for name
// resolution, not a full typed tree).
func (g *Generator) typeStaticVariable(c *checker.Checker, sc *scope.Scope, d *ast.VarDecl) (*typedtree.StaticVariable, types.AnyType, error) {
	var declType types.AnyType
	if d.Type != nil {
		t, _, err := c.TypeExpr(sc, d.Type)
		if err != nil {
			return nil, nil, err
		}
		declType = t
	}
	var value typedtree.TypedExpression
	if d.Value != nil {
		te, err := c.CheckExpr(sc, d.Value)
		if err != nil {
			return nil, nil, err
		}
		if declType == nil {
			declType = te.Type()
		} else {
			coerced, err := checker.Coerce(te, declType)
			if err != nil {
				return nil, nil, err
			}
			te = coerced
		}
		value = te
	}
	return &typedtree.StaticVariable{Decl: d, Name: d.Name.Lit, Value: value}, declType, nil
}

func constantOf(v constval.AnyValue) (constval.AnyConstantValue, bool) {
	cv, ok := v.(*constval.ConstantValue)
	if !ok {
		return nil, false
	}
	return cv.Const, true
}

// literalValueOf converts a scalar constant into the LiteralValue payload a
// hlir.Literal/StaticVariable carries, keyed on the value's own kind rather
// than declType (an UndeterminedInteger/Float constant that escaped coercion
// indicates a checker bug, not a hlirgen concern, so it is reported as-is).
func literalValueOf(declType types.AnyType, cv constval.AnyConstantValue) (hlir.LiteralValue, error) {
	switch cv := cv.(type) {
	case *constval.IntegerConst:
		return hlir.LiteralValue{Int: cv.Value}, nil
	case *constval.FloatConst:
		if ft, ok := declType.(*types.FloatType); ok && ft.Size == 32 {
			bits := math.Float32bits(float32(cv.Value))
			return hlir.LiteralValue{Int: uint64(bits), Float: cv.Value}, nil
		}
		return hlir.LiteralValue{Float: cv.Value, Int: math.Float64bits(cv.Value)}, nil
	case *constval.BooleanConst:
		v := uint64(0)
		if cv.Value {
			v = 1
		}
		return hlir.LiteralValue{Bool: cv.Value, Int: v}, nil
	default:
		return hlir.LiteralValue{}, fmt.Errorf("hlirgen: %T is not a scalar literal constant", cv)
	}
}

// internBytes returns the StaticConstant holding bytes (already laid out for
// irt), reusing a previously generated one with identical content (P8).
func (g *Generator) internBytes(irt hlir.IRType, bytes []byte) *hlir.StaticConstant {
	key := irt.String() + ":" + string(bytes)
	if sc, ok := g.constants[key]; ok {
		return sc
	}
	g.constSeq++
	sc := &hlir.StaticConstant{
		Name:  hlir.NextStaticConstantName(g.constSeq),
		Type:  irt,
		Bytes: bytes,
	}
	g.constants[key] = sc
	return sc
}

// isNoMangle and externLibraries duplicate lang/checker's unexported
// tags.go helpers of the same purpose: validateTags already rejected a
// malformed tag list by the time generation runs, so only the
// presence/argument extraction is needed here.
func isNoMangle(tags []ast.Tag) bool {
	for _, t := range tags {
		if t.Name == token.NO_MANGLE || t.Name == token.EXTERN {
			return true
		}
	}
	return false
}

func noMangleVar(tags []ast.Tag) bool { return isNoMangle(tags) }

func externLibraries(tags []ast.Tag) ([]string, bool) {
	for _, t := range tags {
		if t.Name == token.EXTERN {
			return t.Args, true
		}
	}
	return nil, false
}
