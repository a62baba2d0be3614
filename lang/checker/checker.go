// Package checker implements the type-resolution and constant-evaluation
// core (§4.2-§4.5): it walks untyped lang/ast nodes, resolving names through
// lang/scope and producing lang/typedtree nodes whose Type and Value are
// fully determined. Every name lookup and function-body check runs as a job
// on the lang/scheduler, so a checker method may be re-entered any number of
// times for the same node as dependencies resolve.
package checker

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/diag"
	"github.com/vela-lang/velac/lang/eval"
	"github.com/vela-lang/velac/lang/scheduler"
	"github.com/vela-lang/velac/lang/scope"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/typedtree"
	"github.com/vela-lang/velac/lang/types"
)

// Checker holds the state shared by every job the scheduler runs: the target
// architecture (governs Size/Align/OffsetOf and default integer/float
// widths, §3), the job scheduler itself, and the diagnostic sink errors are
// funnelled through.
type Checker struct {
	Arch  types.Arch
	Sched *scheduler.Scheduler
	Sink  *diag.Sink
	// File, if set, is used to render AST node positions into diagnostics;
	// a multi-file checker keeps one Checker per file; when nil, positions
	// degrade to the unknown token.Position{}.
	File *token.File

	// UsizeType is the result type of sizeof/alignof and the integer type
	// address-sized casts target; it is Arch.AddressSize bytes
	// (AddressSize*8 bits) wide, unsigned.
	UsizeType *types.IntegerType

	// FileScopes maps an import path (exactly as written in an ast.ImportDecl,
	// matching the keying lang/parser.ParseFiles recurses on) to the
	// top-level *scope.Scope the whole-program driver built for that file
	// (§4.2 rule 3, cross-file member access). Populated once, before the
	// scheduler runs, since building an empty top scope needs no resolution.
	FileScopes map[string]*scope.Scope
}

// importName derives the identifier an import binds, e.g. "math/vec.vela"
// binds "vec" — the file's base name with its extension stripped.
func importName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// New creates a Checker for arch, driven by sched and reporting through sink.
func New(arch types.Arch, sched *scheduler.Scheduler, sink *diag.Sink) *Checker {
	return &Checker{
		Arch:      arch,
		Sched:     sched,
		Sink:      sink,
		UsizeType: &types.IntegerType{Size: arch.AddressSize * 8, Signed: false},
	}
}

// Pos renders n's start position through c.File, for callers (the whole-
// program driver) outside this package that need to seed a diagnostic
// position alongside a ResolveDeclaration job.
func (c *Checker) Pos(n ast.Node) token.Position {
	return c.posOf(n)
}

// posOf renders n's start position through c.File, or the unknown position
// if no file is attached.
func (c *Checker) posOf(n ast.Node) token.Position {
	if c.File == nil {
		return token.Position{}
	}
	start, _ := n.Span()
	return c.File.Position(start)
}

var builtinTypes = map[string]types.AnyType{
	"i8": &types.IntegerType{Size: 8, Signed: true}, "u8": &types.IntegerType{Size: 8, Signed: false},
	"i16": &types.IntegerType{Size: 16, Signed: true}, "u16": &types.IntegerType{Size: 16, Signed: false},
	"i32": &types.IntegerType{Size: 32, Signed: true}, "u32": &types.IntegerType{Size: 32, Signed: false},
	"i64": &types.IntegerType{Size: 64, Signed: true}, "u64": &types.IntegerType{Size: 64, Signed: false},
	"f32": &types.FloatType{Size: 32}, "f64": &types.FloatType{Size: 64},
	"bool": &types.BooleanType{}, "void": &types.VoidType{},
}

// BuiltinType looks up a built-in primitive type name (§3's fixed-width
// integer/float/bool/void set), returning ok=false for anything else.
func BuiltinType(name string) (types.AnyType, bool) {
	t, ok := builtinTypes[name]
	return t, ok
}

func (c *Checker) errorf(pos token.Position, format string, args ...any) error {
	return c.errorfKind(diag.TypeMismatchError, pos, format, args...)
}

// errorfKind is errorf for the handful of call sites that need a more
// specific §7 diagnostic kind than the default TypeMismatchError (e.g. a
// folded-constant failure surfacing as ConstantEvaluationError).
func (c *Checker) errorfKind(kind diag.Kind, pos token.Position, format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	c.Sink.Add(diag.Diagnostic{Kind: kind, Pos: pos, Msg: err.Error()})
	return err
}

// scopeKey builds a stable memoisation key for a (scope, name) pair, per
// §4.1's requirement that ResolveDeclaration be memoised on exactly that
// pair.
func scopeKey(sc *scope.Scope, name string) string {
	return fmt.Sprintf("resolve:%p:%s", sc, name)
}

// ResolveDeclaration enqueues (or returns the existing memoised job for) the
// lookup and type-check of name as seen from sc, walking outward through
// parent scopes exactly as scope.Scope.Resolve does (§3's resolution
// invariant). The job's Value is a *scope.Constant once Done.
func (c *Checker) ResolveDeclaration(sc *scope.Scope, name string, pos token.Position) scheduler.JobID {
	return c.Sched.Enqueue("ResolveDeclaration", scopeKey(sc, name), name, pos, func(s *scheduler.Scheduler) scheduler.Result {
		return c.resolveStep(sc, name, pos)
	})
}

func (c *Checker) resolveStep(sc *scope.Scope, name string, pos token.Position) scheduler.Result {
	if cst, _, ok := sc.Resolve(name); ok {
		return scheduler.Ok(cst)
	}
	for cur := sc; cur != nil; cur = cur.Parent {
		if err := c.expandStaticIfs(cur); err != nil {
			return scheduler.FailOrWait(err)
		}
	}
	decl, declScope := findDecl(sc, name)
	if decl == nil {
		c.Sink.Add(diag.Diagnostic{Kind: diag.NameResolutionError, Pos: pos, Msg: fmt.Sprintf("undefined name %q", name), Decl: name})
		return scheduler.Fail(fmt.Errorf("undefined name %q", name))
	}
	switch d := decl.(type) {
	case *ast.ConstDecl:
		return c.resolveConstDecl(declScope, d)
	case *ast.VarDecl:
		return c.resolveVarDecl(declScope, d)
	case *ast.ImportDecl:
		return c.resolveImportDecl(declScope, d)
	default:
		return scheduler.Fail(fmt.Errorf("%q does not name a value", name))
	}
}

// resolveImportDecl binds an import's name to the FileModuleConst wrapping
// the imported file's top-level scope (§4.2 rule 3). The scope itself was
// built up front by the whole-program driver, so this never suspends.
func (c *Checker) resolveImportDecl(sc *scope.Scope, d *ast.ImportDecl) scheduler.Result {
	fileScope, ok := c.FileScopes[d.Path]
	if !ok {
		return scheduler.Fail(fmt.Errorf("import %q: no such file was parsed", d.Path))
	}
	name := importName(d.Path)
	cv := &constval.FileModuleConst{Scope: fileScope}
	cst := &scope.Constant{Name: name, Type: &types.FileModuleType{}, Value: cv}
	sc.Bind(name, cst.Type, cv)
	return scheduler.Ok(cst)
}

// findDecl walks sc and its ancestors looking for a Decl bound under name,
// without requiring it to already have been type-checked (scope.Bind only
// happens once ResolveDeclaration finishes, so the first pass over a file
// must search Decls directly).
func findDecl(sc *scope.Scope, name string) (ast.Decl, *scope.Scope) {
	for cur := sc; cur != nil; cur = cur.Parent {
		for _, d := range cur.Decls {
			switch d := d.(type) {
			case *ast.ConstDecl:
				if d.Name.Lit == name {
					return d, cur
				}
			case *ast.VarDecl:
				if d.Name.Lit == name {
					return d, cur
				}
			case *ast.ImportDecl:
				if importName(d.Path) == name {
					return d, cur
				}
			}
		}
	}
	return nil, nil
}

// expandStaticIfs splices the selected branch of every top-level static_if
// declared directly in sc that hasn't already been expanded (§4.1
// TypeStaticIf, scenario "static-if selecting a declaration"). It is called
// from resolveStep on every scope along the name-resolution chain before
// findDecl searches Decls, so a declaration hidden behind a static_if is
// visible to lookup exactly as if it had been written unconditionally.
//
// A condition that itself needs to suspend (its CheckExpr returns a
// *scheduler.Suspended error) is returned unexamined, so the caller's
// FailOrWait re-suspends this job rather than treating it as a hard error.
func (c *Checker) expandStaticIfs(sc *scope.Scope) error {
	for i := 0; i < len(sc.Decls); i++ {
		sid, ok := sc.Decls[i].(*ast.StaticIfDecl)
		if !ok || sc.StaticIfExpanded(sid) {
			continue
		}
		te, err := c.CheckExpr(sc, sid.Cond)
		if err != nil {
			return err
		}
		cv, ok := constantOf(te.Value())
		if !ok {
			return c.errorfKind(diag.ConstantEvaluationError, c.posOf(sid), "static_if condition must be a compile-time constant")
		}
		bc, ok := cv.(*constval.BooleanConst)
		if !ok {
			return c.errorf(c.posOf(sid), "static_if condition must be a boolean")
		}
		branch := sid.Else
		if bc.Value {
			branch = sid.Then
		}
		sc.MarkStaticIfExpanded(sid)
		spliced := make([]ast.Decl, 0, len(sc.Decls)-1+len(branch))
		spliced = append(spliced, sc.Decls[:i]...)
		spliced = append(spliced, branch...)
		spliced = append(spliced, sc.Decls[i+1:]...)
		sc.Decls = spliced
		i-- // branch may itself start with a static_if; reprocess from here
	}
	return nil
}

func (c *Checker) resolveConstDecl(sc *scope.Scope, d *ast.ConstDecl) scheduler.Result {
	if err := validateTags(d.Tags, d.Value, d.Name.Lit); err != nil {
		c.Sink.Add(diag.Diagnostic{Kind: diag.TagError, Pos: c.posOf(d), Msg: err.Error(), Decl: d.Name.Lit})
		return scheduler.FailOrWait(err)
	}
	if lit, ok := d.Value.(*ast.FuncLitExpr); ok {
		return c.checkFuncDecl(sc, d, lit)
	}
	te, err := c.CheckExpr(sc, d.Value)
	if err != nil {
		return scheduler.FailOrWait(err)
	}
	cv, ok := constantOf(te.Value())
	if !ok {
		return scheduler.Fail(c.errorf(c.posOf(d), "%q is not a compile-time constant", d.Name.Lit))
	}
	cst := &scope.Constant{Name: d.Name.Lit, Type: te.Type(), Value: cv}
	sc.Bind(d.Name.Lit, te.Type(), cv)
	return scheduler.Ok(cst)
}

func (c *Checker) resolveVarDecl(sc *scope.Scope, d *ast.VarDecl) scheduler.Result {
	var typ types.AnyType
	var val constval.AnyValue
	if d.Type != nil {
		t, _, err := c.TypeExpr(sc, d.Type)
		if err != nil {
			return scheduler.FailOrWait(err)
		}
		typ = t
	}
	if d.Value != nil {
		te, err := c.CheckExpr(sc, d.Value)
		if err != nil {
			return scheduler.FailOrWait(err)
		}
		if typ == nil {
			typ = te.Type()
		} else {
			coerced, err := Coerce(te, typ)
			if err != nil {
				return scheduler.Fail(c.errorf(c.posOf(d), "%v", err))
			}
			te = coerced
		}
		val = te.Value()
	}
	cst := &scope.Constant{Name: d.Name.Lit, Type: typ, Value: val}
	sc.Bind(d.Name.Lit, typ, val)
	return scheduler.Ok(cst)
}

func constantOf(v constval.AnyValue) (constval.AnyConstantValue, bool) {
	cv, ok := v.(*constval.ConstantValue)
	if !ok {
		return nil, false
	}
	return cv.Const, true
}

// TypeExpr evaluates e as a compile-time type expression (§3 "types are
// first-class values"), returning the concrete AnyType it denotes and, when
// e also names a usable constant (an enum/struct/union declaration), the
// TypeConst wrapping it.
func (c *Checker) TypeExpr(sc *scope.Scope, e ast.Expr) (types.AnyType, constval.AnyConstantValue, error) {
	switch e := ast.Unwrap(e).(type) {
	case *ast.IdentExpr:
		// e.IsDeterminer only distinguishes a $T-style binding occurrence
		// from a later plain reference at parse time (§4.5); once a
		// determiner name is bound into a scope (by InstantiateFunction,
		// InstantiateStruct, or InstantiateUnion) every occurrence of it,
		// marked or not, resolves the same way as any other type name.
		if t, ok := BuiltinType(e.Lit); ok {
			return t, &constval.TypeConst{Value: t}, nil
		}
		te, err := c.CheckExpr(sc, e)
		if err != nil {
			return nil, nil, err
		}
		cv, ok := constantOf(te.Value())
		if !ok {
			return nil, nil, c.errorf(c.posOf(e), "%q is not a type", e.Lit)
		}
		tc, ok := cv.(*constval.TypeConst)
		if !ok {
			return nil, nil, c.errorf(c.posOf(e), "%q does not name a type", e.Lit)
		}
		return tc.Value, tc, nil
	case *ast.PointerTypeExpr:
		elem, _, err := c.TypeExpr(sc, e.Elem)
		if err != nil {
			return nil, nil, err
		}
		t := &types.PointerType{Elem: elem}
		return t, &constval.TypeConst{Value: t}, nil
	case *ast.ArrayTypeExpr:
		elem, _, err := c.TypeExpr(sc, e.Elem)
		if err != nil {
			return nil, nil, err
		}
		if e.Len == nil {
			t := &types.ArrayType{Elem: elem}
			return t, &constval.TypeConst{Value: t}, nil
		}
		lenExpr, err := c.CheckExpr(sc, e.Len)
		if err != nil {
			return nil, nil, err
		}
		lc, ok := constantOf(lenExpr.Value())
		if !ok {
			return nil, nil, c.errorf(c.posOf(e), "array length must be a compile-time constant")
		}
		ic, ok := lc.(*constval.IntegerConst)
		if !ok {
			return nil, nil, c.errorf(c.posOf(e), "array length must be an integer")
		}
		t := &types.StaticArrayType{Len: ic.Value, Elem: elem}
		return t, &constval.TypeConst{Value: t}, nil
	case *ast.FuncTypeExpr:
		ft, err := c.signatureType(sc, e.Sig, "")
		if err != nil {
			return nil, nil, err
		}
		return ft, &constval.TypeConst{Value: ft}, nil
	case *ast.StructTypeExpr:
		return c.structType(sc, e)
	case *ast.UnionTypeExpr:
		return c.unionType(sc, e)
	case *ast.EnumTypeExpr:
		t, err := c.enumType(sc, e)
		if err != nil {
			return nil, nil, err
		}
		return t, &constval.TypeConst{Value: t}, nil
	default:
		return nil, nil, c.errorf(c.posOf(e), "%T is not a type expression", e)
	}
}

func (c *Checker) signatureType(sc *scope.Scope, sig *ast.FuncSignature, conv types.CallingConvention) (*types.FunctionType, error) {
	params := make([]types.AnyType, len(sig.Params))
	for i, p := range sig.Params {
		t, _, err := c.TypeExpr(sc, p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = t
	}
	results := make([]types.AnyType, len(sig.Results))
	for i, r := range sig.Results {
		t, _, err := c.TypeExpr(sc, r)
		if err != nil {
			return nil, err
		}
		results[i] = t
	}
	return &types.FunctionType{Params: params, Results: results, CallConv: conv}, nil
}

// structType evaluates a struct type expression. A `$T`-parameterized one
// (Determiners non-empty) has no concrete Members until instantiated
// against a type argument (§1 "polymorphic ... structs", InstantiateStruct
// in lang/checker/generic.go), so it resolves to a PolymorphicStructConst
// capturing sc for that later instantiation, mirroring checkFuncDecl's
// PolymorphicFunctionConst for a `$T`-parameterized function.
func (c *Checker) structType(sc *scope.Scope, e *ast.StructTypeExpr) (types.AnyType, constval.AnyConstantValue, error) {
	if len(e.Determiners) > 0 {
		t := &types.PolymorphicStructType{Decl: e}
		return t, &constval.PolymorphicStructConst{Decl: e, Scope: sc}, nil
	}
	members, err := c.fieldMembers(sc, e.Fields)
	if err != nil {
		return nil, nil, err
	}
	t := &types.StructType{OriginDecl: e, Members: members}
	return t, &constval.TypeConst{Value: t}, nil
}

func (c *Checker) unionType(sc *scope.Scope, e *ast.UnionTypeExpr) (types.AnyType, constval.AnyConstantValue, error) {
	if len(e.Determiners) > 0 {
		t := &types.PolymorphicUnionType{Decl: e}
		return t, &constval.PolymorphicUnionConst{Decl: e, Scope: sc}, nil
	}
	members, err := c.fieldMembers(sc, e.Fields)
	if err != nil {
		return nil, nil, err
	}
	t := &types.UnionType{OriginDecl: e, Members: members}
	return t, &constval.TypeConst{Value: t}, nil
}

func (c *Checker) fieldMembers(sc *scope.Scope, fields []*ast.FieldDecl) ([]types.Member, error) {
	members := make([]types.Member, len(fields))
	for i, f := range fields {
		t, _, err := c.TypeExpr(sc, f.Type)
		if err != nil {
			return nil, err
		}
		members[i] = types.Member{Name: f.Name.Lit, Type: t}
	}
	return members, nil
}

func (c *Checker) enumType(sc *scope.Scope, e *ast.EnumTypeExpr) (types.AnyType, error) {
	backing, _, err := c.TypeExpr(sc, e.Backing)
	if err != nil {
		return nil, err
	}
	it, ok := backing.(*types.IntegerType)
	if !ok {
		return nil, c.errorf(c.posOf(e), "enum backing type must be an integer")
	}
	variants := make([]types.EnumVariant, len(e.Variants))
	next := uint64(0)
	for i, v := range e.Variants {
		val := next
		if v.Value != nil {
			te, err := c.CheckExpr(sc, v.Value)
			if err != nil {
				return nil, err
			}
			cv, ok := constantOf(te.Value())
			if !ok {
				return nil, c.errorf(c.posOf(e), "enum variant value must be a compile-time constant")
			}
			ic, ok := cv.(*constval.IntegerConst)
			if !ok {
				return nil, c.errorf(c.posOf(e), "enum variant value must be an integer")
			}
			val = ic.Value
		}
		variants[i] = types.EnumVariant{Name: v.Name.Lit, Value: val}
		next = val + 1
	}
	return &types.EnumType{OriginDecl: e, Backing: it, Variants: variants}, nil
}

// CheckExpr type-checks e in scope sc, returning a fully typed node whose
// Value is a constval.ConstantValue when every subexpression folds to a
// compile-time constant (via lang/eval), or a runtime placeholder otherwise.
func (c *Checker) CheckExpr(sc *scope.Scope, e ast.Expr) (typedtree.TypedExpression, error) {
	e = ast.Unwrap(e)
	switch e := e.(type) {
	case *ast.LiteralExpr:
		return c.checkLiteral(e)
	case *ast.IdentExpr:
		return c.checkIdent(sc, e)
	case *ast.BinOpExpr:
		return c.checkBinOp(sc, e)
	case *ast.UnaryOpExpr:
		return c.checkUnaryOp(sc, e)
	case *ast.CallExpr:
		return c.checkCall(sc, e)
	case *ast.DotExpr:
		return c.checkDot(sc, e)
	case *ast.IndexExpr:
		return c.checkIndex(sc, e)
	case *ast.AggregateLitExpr:
		return c.checkAggregate(sc, e)
	case *ast.PointerTypeExpr, *ast.ArrayTypeExpr, *ast.FuncTypeExpr,
		*ast.StructTypeExpr, *ast.UnionTypeExpr, *ast.EnumTypeExpr:
		t, cv, err := c.TypeExpr(sc, e)
		if err != nil {
			return nil, err
		}
		if cv == nil {
			cv = &constval.TypeConst{Value: t}
		}
		return typedtree.NewLiteral(e, &types.TypeMetaType{}, &constval.ConstantValue{Const: cv}), nil
	default:
		return nil, c.errorf(c.posOf(e), "%T is not a valid expression", e)
	}
}

func (c *Checker) checkLiteral(e *ast.LiteralExpr) (typedtree.TypedExpression, error) {
	var typ types.AnyType
	var cv constval.AnyConstantValue
	switch e.Type {
	case token.INT:
		typ = &types.UndeterminedIntegerType{}
		cv = &constval.IntegerConst{Typ: typ, Value: e.Int}
	case token.FLOAT:
		typ = &types.UndeterminedFloatType{}
		cv = &constval.FloatConst{Typ: typ, Value: e.Float}
	case token.TRUE:
		typ = &types.BooleanType{}
		cv = &constval.BooleanConst{Value: true}
	case token.FALSE:
		typ = &types.BooleanType{}
		cv = &constval.BooleanConst{Value: false}
	case token.UNDEF:
		typ = &types.UndefType{}
		cv = &constval.UndefConst{Typ: typ}
	case token.STRING, token.CHAR:
		// Represented as a static array of u8 bytes, matching the source
		// language's lack of a distinct string type (§6 GLOSSARY).
		elem := &types.IntegerType{Size: 8, Signed: false}
		bytes := []byte(e.Str)
		elems := make([]constval.AnyConstantValue, len(bytes))
		for i, b := range bytes {
			elems[i] = &constval.IntegerConst{Typ: elem, Value: uint64(b)}
		}
		typ = &types.StaticArrayType{Len: uint64(len(bytes)), Elem: elem}
		cv = &constval.AggregateConst{Typ: typ, Values: elems}
	default:
		return nil, c.errorf(c.posOf(e), "unsupported literal kind %s", e.Type)
	}
	return typedtree.NewLiteral(e, typ, &constval.ConstantValue{Const: cv}), nil
}

// builtinFuncs is the synthetic global-constants table's function entries
// (§4.2): compiler-provided names consulted only after every enclosing
// scope has been searched and found wanting (checkIdent checks both the
// bound names and the not-yet-resolved declarations first).
var builtinFuncs = map[string]bool{"sizeof": true, "alignof": true, "cast": true}

func (c *Checker) checkIdent(sc *scope.Scope, e *ast.IdentExpr) (typedtree.TypedExpression, error) {
	if t, ok := BuiltinType(e.Lit); ok {
		return typedtree.NewIdent(e, e.Lit, &types.TypeMetaType{}, &constval.ConstantValue{Const: &constval.TypeConst{Value: t}}), nil
	}
	if builtinFuncs[e.Lit] {
		_, _, bound := sc.Resolve(e.Lit)
		if d, _ := findDecl(sc, e.Lit); !bound && d == nil {
			bf := &constval.BuiltinFunctionConst{Name: e.Lit}
			return typedtree.NewIdent(e, e.Lit, &types.BuiltinFunctionType{Name: e.Lit}, &constval.ConstantValue{Const: bf}), nil
		}
	}
	id := c.ResolveDeclaration(sc, e.Lit, c.posOf(e))
	cst, res, ok := scheduler.Await[*scope.Constant](c.Sched, id)
	if !ok {
		return nil, res.Err
	}
	typ, _ := cst.Type.(types.AnyType)
	val := constToValue(typ, cst.Value)
	return typedtree.NewIdent(e, e.Lit, typ, val), nil
}

func constToValue(typ types.AnyType, v any) constval.AnyValue {
	if v == nil {
		return &constval.AnonymousValue{Typ: typ}
	}
	if cv, ok := v.(constval.AnyConstantValue); ok {
		return &constval.ConstantValue{Const: cv}
	}
	if av, ok := v.(constval.AnyValue); ok {
		return av
	}
	return &constval.AnonymousValue{Typ: typ}
}

func (c *Checker) checkBinOp(sc *scope.Scope, e *ast.BinOpExpr) (typedtree.TypedExpression, error) {
	left, err := c.CheckExpr(sc, e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.CheckExpr(sc, e.Right)
	if err != nil {
		return nil, err
	}
	resultType, err := unifyOperandTypes(left.Type(), right.Type())
	if err != nil {
		la, lok := left.Type().(*types.StaticArrayType)
		ra, rok := right.Type().(*types.StaticArrayType)
		if (e.Type != token.EQ && e.Type != token.NEQ) || !lok || !rok || !types.Equal(la.Elem, ra.Elem) {
			return nil, c.errorf(c.posOf(e), "%v", err)
		}
		// Static arrays differing only in length have no common type: each
		// operand keeps its own type, and ==/!= compares them as they are.
		resultType = &types.BooleanType{}
	}
	operandType := resultType
	if e.Type.IsBinop() && isComparison(e.Type) {
		resultType = &types.BooleanType{}
	}
	left, err = Coerce(left, operandCoerceTarget(left.Type(), operandType))
	if err != nil {
		return nil, err
	}
	right, err = Coerce(right, operandCoerceTarget(right.Type(), operandType))
	if err != nil {
		return nil, err
	}
	val := runtimeBinary(left.Value(), right.Value(), resultType)
	if lc, ok := constantOf(left.Value()); ok {
		if rc, ok := constantOf(right.Value()); ok {
			folded, err := eval.BinOp(e.Type, lc, rc, resultType)
			if err != nil {
				return nil, c.errorfKind(diag.ConstantEvaluationError, c.posOf(e), "%v", err)
			}
			val = &constval.ConstantValue{Const: folded}
		}
	}
	return typedtree.NewBinOp(e, e.Type, left, right, resultType, val), nil
}

func isComparison(op token.Token) bool {
	switch op {
	case token.LT, token.LE, token.GT, token.GE, token.EQ, token.NEQ:
		return true
	}
	return false
}

// operandCoerceTarget returns the type an operand must be coerced to before
// the fold, given the operands' unified type: comparisons still unify operand
// representations even though the result type is bool. A bool unified type
// leaves the operand as it is.
func operandCoerceTarget(operand, unified types.AnyType) types.AnyType {
	if _, ok := unified.(*types.BooleanType); ok {
		return operand
	}
	return unified
}

// unifyOperandTypes applies §4.3's implicit-coercion table to find a common
// type for a binary operator's two operands.
func unifyOperandTypes(a, b types.AnyType) (types.AnyType, error) {
	if types.Equal(a, b) {
		return a, nil
	}
	if CanCoerce(a, b) {
		return b, nil
	}
	if CanCoerce(b, a) {
		return a, nil
	}
	return nil, fmt.Errorf("no common type for %s and %s", a, b)
}

func runtimeBinary(left, right constval.AnyValue, resultType types.AnyType) constval.AnyValue {
	return &constval.AnonymousValue{Typ: resultType}
}

func (c *Checker) checkUnaryOp(sc *scope.Scope, e *ast.UnaryOpExpr) (typedtree.TypedExpression, error) {
	operand, err := c.CheckExpr(sc, e.Right)
	if err != nil {
		return nil, err
	}
	switch e.Type {
	case token.AMPERSAND:
		t := &types.PointerType{Elem: operand.Type()}
		return typedtree.NewUnaryOp(e, e.Type, operand, t, &constval.AnonymousValue{Typ: t}), nil
	case token.STAR:
		pt, ok := operand.Type().(*types.PointerType)
		if !ok {
			return nil, c.errorf(c.posOf(e), "cannot dereference non-pointer type %s", operand.Type())
		}
		return typedtree.NewUnaryOp(e, e.Type, operand, pt.Elem, &constval.AssignableValue{Typ: pt.Elem}), nil
	default:
		resultType := operand.Type()
		val := constval.AnyValue(&constval.AnonymousValue{Typ: resultType})
		if oc, ok := constantOf(operand.Value()); ok {
			folded, err := eval.UnaryOp(e.Type, oc, resultType)
			if err != nil {
				return nil, c.errorfKind(diag.ConstantEvaluationError, c.posOf(e), "%v", err)
			}
			val = &constval.ConstantValue{Const: folded}
		}
		return typedtree.NewUnaryOp(e, e.Type, operand, resultType, val), nil
	}
}

func (c *Checker) checkCall(sc *scope.Scope, e *ast.CallExpr) (typedtree.TypedExpression, error) {
	fn, err := c.CheckExpr(sc, e.Fn)
	if err != nil {
		return nil, err
	}
	args := make([]typedtree.TypedExpression, len(e.Args))
	for i, a := range e.Args {
		te, err := c.CheckExpr(sc, a)
		if err != nil {
			return nil, err
		}
		args[i] = te
	}

	if cv, ok := constantOf(fn.Value()); ok {
		if bf, ok := cv.(*constval.BuiltinFunctionConst); ok {
			return c.checkBuiltinCall(e, bf, args)
		}
		if poly, ok := cv.(*constval.PolymorphicFunctionConst); ok {
			return c.checkPolymorphCall(sc, e, poly, args)
		}
	}

	ft, ok := fn.Type().(*types.FunctionType)
	if !ok {
		return nil, c.errorf(c.posOf(e), "cannot call a value of type %s", fn.Type())
	}
	for i := range args {
		if i >= len(ft.Params) {
			break
		}
		coerced, err := Coerce(args[i], ft.Params[i])
		if err != nil {
			return nil, c.errorf(c.posOf(e), "argument %d: %v", i, err)
		}
		args[i] = coerced
	}
	resultType := callResultType(ft)
	return typedtree.NewCall(e, fn, args, resultType, &constval.AnonymousValue{Typ: resultType}), nil
}

func callResultType(ft *types.FunctionType) types.AnyType {
	switch len(ft.Results) {
	case 0:
		return &types.VoidType{}
	case 1:
		return ft.Results[0]
	default:
		return &types.MultiReturnType{Types: ft.Results}
	}
}

func (c *Checker) checkBuiltinCall(e *ast.CallExpr, bf *constval.BuiltinFunctionConst, args []typedtree.TypedExpression) (typedtree.TypedExpression, error) {
	switch bf.Name {
	case "sizeof", "alignof":
		if len(args) != 1 {
			return nil, c.errorf(c.posOf(e), "%s takes exactly one argument", bf.Name)
		}
		tc, ok := constantOf(args[0].Value())
		if !ok {
			return nil, c.errorf(c.posOf(e), "%s argument must be a compile-time type", bf.Name)
		}
		typeConst, ok := tc.(*constval.TypeConst)
		if !ok {
			return nil, c.errorf(c.posOf(e), "%s argument must be a type", bf.Name)
		}
		var cv constval.AnyConstantValue
		var err error
		if bf.Name == "sizeof" {
			cv, err = eval.SizeOf(c.Arch, typeConst.Value, c.UsizeType)
		} else {
			cv, err = eval.AlignOf(c.Arch, typeConst.Value, c.UsizeType)
		}
		if err != nil {
			return nil, c.errorfKind(diag.ConstantEvaluationError, c.posOf(e), "%v", err)
		}
		return typedtree.NewCall(e, nil, args, c.UsizeType, &constval.ConstantValue{Const: cv}), nil
	case "cast":
		if len(args) != 2 {
			return nil, c.errorf(c.posOf(e), "cast takes exactly two arguments (type, value)")
		}
		tc, ok := constantOf(args[0].Value())
		if !ok {
			return nil, c.errorf(c.posOf(e), "cast's first argument must be a compile-time type")
		}
		typeConst, ok := tc.(*constval.TypeConst)
		if !ok {
			return nil, c.errorf(c.posOf(e), "cast's first argument must be a type")
		}
		to := typeConst.Value
		from := args[1].Type()
		if !CanCast(c.Arch, from, to) {
			return nil, c.errorf(c.posOf(e), "cannot cast %s to %s", from, to)
		}
		val := constval.AnyValue(&constval.AnonymousValue{Typ: to})
		if fc, ok := constantOf(args[1].Value()); ok {
			if folded, err := eval.Cast(fc, from, to); err == nil {
				val = &constval.ConstantValue{Const: folded}
			}
		}
		return typedtree.NewCast(e, args[1], to, val), nil
	default:
		return nil, c.errorf(c.posOf(e), "unknown builtin %q", bf.Name)
	}
}

func (c *Checker) checkDot(sc *scope.Scope, e *ast.DotExpr) (typedtree.TypedExpression, error) {
	left, err := c.CheckExpr(sc, e.Left)
	if err != nil {
		return nil, err
	}
	if fm, ok := constantOf(left.Value()); ok {
		if fm, ok := fm.(*constval.FileModuleConst); ok {
			fileScope, _ := fm.Scope.(*scope.Scope)
			id := c.ResolveDeclaration(fileScope, e.Right.Lit, c.posOf(e))
			cst, res, ok := scheduler.Await[*scope.Constant](c.Sched, id)
			if !ok {
				return nil, res.Err
			}
			typ, _ := cst.Type.(types.AnyType)
			val := constToValue(typ, cst.Value)
			return typedtree.NewMember(e, left, e.Right.Lit, -1, typ, val), nil
		}
	}
	members := memberList(left.Type())
	if members == nil {
		return nil, c.errorf(c.posOf(e), "type %s has no members", left.Type())
	}
	for i, m := range members {
		if m.Name == e.Right.Lit {
			val := constval.AnyValue(&constval.AssignableValue{Typ: m.Type})
			if lc, ok := constantOf(left.Value()); ok {
				folded, err := eval.Member(lc, i)
				if err != nil {
					return nil, c.errorfKind(diag.ConstantEvaluationError, c.posOf(e), "%v", err)
				}
				val = &constval.ConstantValue{Const: folded}
			}
			return typedtree.NewMember(e, left, e.Right.Lit, i, m.Type, val), nil
		}
	}
	return nil, c.errorf(c.posOf(e), "type %s has no member %q", left.Type(), e.Right.Lit)
}

func memberList(t types.AnyType) []types.Member {
	switch t := t.(type) {
	case *types.StructType:
		return t.Members
	case *types.UnionType:
		return t.Members
	default:
		return nil
	}
}

func (c *Checker) checkIndex(sc *scope.Scope, e *ast.IndexExpr) (typedtree.TypedExpression, error) {
	prefix, err := c.CheckExpr(sc, e.Prefix)
	if err != nil {
		return nil, err
	}
	// `Box[i32]`: indexing a polymorphic struct/union constant by a type
	// argument instantiates it, rather than indexing a runtime array/pointer
	// value (§1 "polymorphic ... structs", the struct/union analogue of
	// checkCall's PolymorphicFunctionConst dispatch).
	if pc, ok := constantOf(prefix.Value()); ok {
		switch pc := pc.(type) {
		case *constval.PolymorphicStructConst:
			return c.checkGenericStructRef(sc, e, pc)
		case *constval.PolymorphicUnionConst:
			return c.checkGenericUnionRef(sc, e, pc)
		}
	}
	idx, err := c.CheckExpr(sc, e.Index)
	if err != nil {
		return nil, err
	}
	var elemType types.AnyType
	switch pt := prefix.Type().(type) {
	case *types.StaticArrayType:
		elemType = pt.Elem
	case *types.ArrayType:
		elemType = pt.Elem
	case *types.PointerType:
		elemType = pt.Elem
	default:
		return nil, c.errorf(c.posOf(e), "cannot index type %s", prefix.Type())
	}
	val := constval.AnyValue(&constval.AssignableValue{Typ: elemType})
	if pc, ok := constantOf(prefix.Value()); ok {
		if ic, ok2 := constantOf(idx.Value()); ok2 {
			iv, ok3 := ic.(*constval.IntegerConst)
			if ok3 {
				folded, err := eval.Index(pc, iv.Value)
				if err != nil {
					return nil, c.errorfKind(diag.ConstantEvaluationError, c.posOf(e), "%v", err)
				}
				val = &constval.ConstantValue{Const: folded}
			}
		}
	}
	return typedtree.NewIndex(e, prefix, idx, elemType, val), nil
}

func (c *Checker) checkAggregate(sc *scope.Scope, e *ast.AggregateLitExpr) (typedtree.TypedExpression, error) {
	elems := make([]typedtree.TypedExpression, len(e.Elems))
	allConst := true
	for i, el := range e.Elems {
		te, err := c.CheckExpr(sc, el)
		if err != nil {
			return nil, err
		}
		elems[i] = te
		if _, ok := constantOf(te.Value()); !ok {
			allConst = false
		}
	}
	members := make([]types.Member, len(elems))
	for i, el := range elems {
		members[i] = types.Member{Type: el.Type()}
	}
	typ := types.AnyType(&types.UndeterminedStructType{Members: members})
	var val constval.AnyValue
	if allConst {
		vals := make([]constval.AnyConstantValue, len(elems))
		for i, el := range elems {
			vals[i], _ = constantOf(el.Value())
		}
		val = &constval.ConstantValue{Const: &constval.AggregateConst{Typ: typ, Values: vals}}
	} else {
		vs := make([]constval.AnyValue, len(elems))
		for i, el := range elems {
			vs[i] = el.Value()
		}
		val = &constval.UndeterminedAggregateValue{Typ: typ, Values: vs}
	}
	return typedtree.NewAggregate(e, elems, typ, val), nil
}
