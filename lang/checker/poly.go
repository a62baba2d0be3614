package checker

import (
	"fmt"
	"strings"

	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/scheduler"
	"github.com/vela-lang/velac/lang/scope"
	"github.com/vela-lang/velac/lang/typedtree"
	"github.com/vela-lang/velac/lang/types"
)

// determiners returns the `$T`-style parameter-type determiners of a
// function literal's signature, in parameter order (§4.5).
func determiners(sig *ast.FuncSignature) []string {
	var names []string
	seen := map[string]bool{}
	for _, p := range sig.Params {
		if id, ok := p.Type.(*ast.IdentExpr); ok && id.IsDeterminer && !seen[id.Lit] {
			seen[id.Lit] = true
			names = append(names, id.Lit)
		}
	}
	return names
}

// instantiationKey builds the §4.5 memoisation key: (declaration, argument
// type tuple, argument constant tuple). Types and constants are rendered
// through String()/a stable textual form since scheduler.Enqueue keys are
// strings.
func instantiationKey(decl *ast.ConstDecl, argTypes []types.AnyType, argConsts []constval.AnyConstantValue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "poly:%p", decl)
	for _, t := range argTypes {
		b.WriteByte(':')
		b.WriteString(t.String())
	}
	for _, c := range argConsts {
		b.WriteByte('=')
		if c == nil {
			b.WriteString("_")
			continue
		}
		fmt.Fprintf(&b, "%v", c)
	}
	return b.String()
}

// InstantiateFunction enqueues (or returns the existing memoised job for) the
// instantiation of a polymorphic function declaration against a concrete
// argument-type/argument-constant tuple (§4.5): it binds each determiner in
// a fresh child scope, then type-checks the signature and body exactly as
// TypeFunctionBody does for a non-polymorphic function.
func (c *Checker) InstantiateFunction(declScope *scope.Scope, decl *ast.ConstDecl, argTypes []types.AnyType, argConsts []constval.AnyConstantValue) scheduler.JobID {
	key := instantiationKey(decl, argTypes, argConsts)
	return c.Sched.Enqueue("TypePolymorphicFunction", key, decl.Name.Lit, c.posOf(decl), func(s *scheduler.Scheduler) scheduler.Result {
		return c.instantiateStep(declScope, decl, argTypes, argConsts)
	})
}

func (c *Checker) instantiateStep(declScope *scope.Scope, decl *ast.ConstDecl, argTypes []types.AnyType, argConsts []constval.AnyConstantValue) scheduler.Result {
	lit, ok := decl.Value.(*ast.FuncLitExpr)
	if !ok {
		return scheduler.Fail(fmt.Errorf("%s is not a polymorphic function", decl.Name.Lit))
	}
	dets := determiners(lit.Sig)
	child := declScope.NewChild()

	// Bind each determiner to the concrete type supplied by the
	// corresponding argument position; a determiner may be reused across
	// multiple parameters (e.g. `(a: $T, b: $T)`), in which case every
	// occurrence must agree — enforced implicitly since later params simply
	// overwrite the same binding with (hopefully) the same type.
	detTypes := map[string]types.AnyType{}
	for i, p := range lit.Sig.Params {
		id, isDet := p.Type.(*ast.IdentExpr)
		if isDet && id.IsDeterminer {
			if i >= len(argTypes) {
				return scheduler.Fail(fmt.Errorf("%s: too few arguments to infer determiner %q", decl.Name.Lit, id.Lit))
			}
			detTypes[id.Lit] = argTypes[i]
		}
	}
	for _, d := range dets {
		t, ok := detTypes[d]
		if !ok {
			return scheduler.Fail(fmt.Errorf("%s: could not infer determiner $%s", decl.Name.Lit, d))
		}
		child.Bind(d, &types.TypeMetaType{}, &constval.TypeConst{Value: t})
	}

	params := make([]string, len(lit.Sig.Params))
	paramTypes := make([]types.AnyType, len(lit.Sig.Params))
	for i, p := range lit.Sig.Params {
		t, _, err := c.TypeExpr(child, p.Type)
		if err != nil {
			return scheduler.FailOrWait(err)
		}
		params[i] = p.Name.Lit
		paramTypes[i] = t
		child.Bind(p.Name.Lit, t, nil)
	}
	results := make([]types.AnyType, len(lit.Sig.Results))
	for i, r := range lit.Sig.Results {
		t, _, err := c.TypeExpr(child, r)
		if err != nil {
			return scheduler.FailOrWait(err)
		}
		results[i] = t
	}
	ft := &types.FunctionType{Params: paramTypes, Results: results, CallConv: types.CallingConvention(callConvOf(decl.Tags))}

	bodyScope := child.NewChild()
	body, err := c.CheckBlock(bodyScope, lit.Body, results)
	if err != nil {
		return scheduler.FailOrWait(err)
	}
	fn := &typedtree.Function{Decl: decl, BodyScope: bodyScope, Params: params, Body: body}
	return scheduler.Ok(&constval.FunctionConst{Typ: ft, Decl: fn, Scope: bodyScope})
}

// checkPolymorphCall instantiates poly against the already-checked call
// arguments and builds the resulting typed Call node.
func (c *Checker) checkPolymorphCall(sc *scope.Scope, e *ast.CallExpr, poly *constval.PolymorphicFunctionConst, args []typedtree.TypedExpression) (typedtree.TypedExpression, error) {
	decl, ok := poly.Decl.(*ast.ConstDecl)
	if !ok {
		return nil, c.errorf(c.posOf(e), "malformed polymorphic function constant")
	}
	declScope, _ := poly.Scope.(*scope.Scope)

	argTypes := make([]types.AnyType, len(args))
	argConsts := make([]constval.AnyConstantValue, len(args))
	for i, a := range args {
		argTypes[i] = a.Type()
		argConsts[i], _ = constantOf(a.Value())
	}

	id := c.InstantiateFunction(declScope, decl, argTypes, argConsts)
	fc, res, ok := scheduler.Await[*constval.FunctionConst](c.Sched, id)
	if !ok {
		return nil, res.Err
	}

	for i := range args {
		if i >= len(fc.Typ.Params) {
			break
		}
		coerced, err := Coerce(args[i], fc.Typ.Params[i])
		if err != nil {
			return nil, c.errorf(c.posOf(e), "argument %d: %v", i, err)
		}
		args[i] = coerced
	}
	resultType := callResultType(fc.Typ)
	fnVal := &constval.ConstantValue{Const: fc}
	fn := typedtree.NewIdent(e.Fn, decl.Name.Lit, fc.Typ, fnVal)
	return typedtree.NewCall(e, fn, args, resultType, &constval.AnonymousValue{Typ: resultType}), nil
}
