package checker

import (
	"fmt"
	"strings"

	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/constval"
	"github.com/vela-lang/velac/lang/diag"
	"github.com/vela-lang/velac/lang/scheduler"
	"github.com/vela-lang/velac/lang/scope"
	"github.com/vela-lang/velac/lang/typedtree"
	"github.com/vela-lang/velac/lang/types"
)

// checkFuncDecl type-checks a ConstDecl whose Value is a function literal
// (§4.2, §4.6). A non-polymorphic function's signature is resolved
// eagerly and bound into sc immediately — before its body is checked — so
// that a recursive call to its own name inside the body resolves rather
// than suspending forever; the body itself is type-checked by a separate,
// independently-scheduled TypeFunctionBody job that fills in the shared
// *typedtree.Function once it completes.
func (c *Checker) checkFuncDecl(sc *scope.Scope, d *ast.ConstDecl, lit *ast.FuncLitExpr) scheduler.Result {
	if len(determiners(lit.Sig)) > 0 {
		typ := &types.PolymorphicFunctionType{Decl: d}
		val := &constval.PolymorphicFunctionConst{Decl: d, Scope: sc}
		sc.Bind(d.Name.Lit, typ, val)
		return scheduler.Ok(&scope.Constant{Name: d.Name.Lit, Type: typ, Value: val})
	}

	ft, err := c.signatureType(sc, lit.Sig, types.CallingConvention(callConvOf(d.Tags)))
	if err != nil {
		return scheduler.FailOrWait(err)
	}
	bodyScope := sc.NewChild()
	names := make([]string, len(lit.Sig.Params))
	for i, p := range lit.Sig.Params {
		names[i] = p.Name.Lit
		bodyScope.Bind(p.Name.Lit, ft.Params[i], nil)
	}
	fn := &typedtree.Function{Decl: d, BodyScope: bodyScope, Typ: ft, Params: names}
	cv := &constval.FunctionConst{Typ: ft, Decl: fn, Scope: bodyScope}
	sc.Bind(d.Name.Lit, ft, cv)

	c.Sched.Enqueue("TypeFunctionBody", fmt.Sprintf("body:%p", d), d.Name.Lit, c.posOf(d), func(s *scheduler.Scheduler) scheduler.Result {
		body, err := c.CheckBlock(bodyScope, lit.Body, ft.Results)
		if err != nil {
			return scheduler.FailOrWait(err)
		}
		fn.Body = body
		return scheduler.Ok(fn)
	})

	return scheduler.Ok(&scope.Constant{Name: d.Name.Lit, Type: ft, Value: cv})
}

// CheckBlock type-checks every statement of blk in sc, in order. results is
// the enclosing function's declared result types, used to validate return
// statements' arity and coerce their operands.
func (c *Checker) CheckBlock(sc *scope.Scope, blk *ast.Block, results []types.AnyType) ([]typedtree.TypedStatement, error) {
	out := make([]typedtree.TypedStatement, 0, len(blk.Stmts))
	for _, s := range blk.Stmts {
		if sif, ok := s.(*ast.StaticIfDecl); ok {
			spliced, err := c.checkStaticIfSplice(sc, sif, results)
			if err != nil {
				return nil, err
			}
			out = append(out, spliced...)
			continue
		}
		ts, err := c.CheckStmt(sc, s, results)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

// CheckStmt type-checks a single statement. results is threaded through for
// Return-arity checking; nested blocks (if/while/for bodies) inherit it
// unchanged since this language has no nested function literals that shadow
// the enclosing return type.
func (c *Checker) CheckStmt(sc *scope.Scope, s ast.Stmt, results []types.AnyType) (typedtree.TypedStatement, error) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		te, err := c.CheckExpr(sc, s.X)
		if err != nil {
			return nil, err
		}
		return typedtree.NewExprStmt(s, te), nil
	case *ast.AssignStmt:
		return c.checkAssign(sc, s)
	case *ast.MultiAssignStmt:
		return c.checkMultiAssign(sc, s)
	case *ast.VarDecl:
		return c.checkVarDeclStmt(sc, s)
	case *ast.IfStmt:
		return c.checkIf(sc, s, results)
	case *ast.WhileStmt:
		return c.checkWhile(sc, s, results)
	case *ast.ForRangeStmt:
		return c.checkForRange(sc, s, results)
	case *ast.BreakStmt:
		return typedtree.NewBreak(s), nil
	case *ast.ReturnStmt:
		return c.checkReturn(sc, s, results)
	case *ast.AsmStmt:
		return c.checkAsm(sc, s)
	default:
		return nil, c.errorf(c.posOf(s), "%T is not a valid statement", s)
	}
}

func (c *Checker) checkAssign(sc *scope.Scope, s *ast.AssignStmt) (typedtree.TypedStatement, error) {
	if !ast.IsAssignable(s.Left) {
		return nil, c.errorf(c.posOf(s), "left side of assignment is not assignable")
	}
	left, err := c.CheckExpr(sc, s.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.CheckExpr(sc, s.Right)
	if err != nil {
		return nil, err
	}
	right, err = Coerce(right, left.Type())
	if err != nil {
		return nil, c.errorf(c.posOf(s), "%v", err)
	}
	return typedtree.NewAssign(s, left, right), nil
}

func (c *Checker) checkMultiAssign(sc *scope.Scope, s *ast.MultiAssignStmt) (typedtree.TypedStatement, error) {
	right := make([]typedtree.TypedExpression, len(s.Right))
	for i, r := range s.Right {
		te, err := c.CheckExpr(sc, r)
		if err != nil {
			return nil, err
		}
		right[i] = te
	}
	resultTypes := multiResultTypes(right)
	if len(resultTypes) != len(s.Left) {
		return nil, c.errorf(c.posOf(s), "assignment mismatch: %d targets but %d values", len(s.Left), len(resultTypes))
	}
	left := make([]typedtree.TypedExpression, len(s.Left))
	for i, l := range s.Left {
		if s.Infer {
			id, ok := l.(*ast.IdentExpr)
			if !ok {
				return nil, c.errorf(c.posOf(s), "left side of := must be an identifier")
			}
			sc.Bind(id.Lit, resultTypes[i], nil)
			left[i] = typedtree.NewIdent(id, id.Lit, resultTypes[i], &constval.AssignableValue{Typ: resultTypes[i]})
			continue
		}
		if !ast.IsAssignable(l) {
			return nil, c.errorf(c.posOf(s), "left side of assignment is not assignable")
		}
		te, err := c.CheckExpr(sc, l)
		if err != nil {
			return nil, err
		}
		left[i] = te
	}
	return typedtree.NewMultiAssign(s, left, s.Infer, right), nil
}

// multiResultTypes expands a single call returning a MultiReturnType (or the
// single-expression/multi-expression right-hand side list) into the flat
// list of per-target types (§4.6).
func multiResultTypes(right []typedtree.TypedExpression) []types.AnyType {
	if len(right) == 1 {
		if mr, ok := right[0].Type().(*types.MultiReturnType); ok {
			return mr.Types
		}
	}
	out := make([]types.AnyType, len(right))
	for i, r := range right {
		out[i] = r.Type()
	}
	return out
}

func (c *Checker) checkVarDeclStmt(sc *scope.Scope, d *ast.VarDecl) (typedtree.TypedStatement, error) {
	var declType types.AnyType
	if d.Type != nil {
		t, _, err := c.TypeExpr(sc, d.Type)
		if err != nil {
			return nil, err
		}
		declType = t
	}
	var value typedtree.TypedExpression
	if d.Value != nil {
		te, err := c.CheckExpr(sc, d.Value)
		if err != nil {
			return nil, err
		}
		if declType == nil {
			declType = te.Type()
		} else {
			coerced, err := Coerce(te, declType)
			if err != nil {
				return nil, c.errorf(c.posOf(d), "%v", err)
			}
			te = coerced
		}
		value = te
	}
	sc.Bind(d.Name.Lit, declType, &constval.AssignableValue{Typ: declType})
	return typedtree.NewVarDecl(d, d.Name.Lit, declType, value), nil
}

func (c *Checker) checkIf(sc *scope.Scope, s *ast.IfStmt, results []types.AnyType) (typedtree.TypedStatement, error) {
	cond, err := c.CheckExpr(sc, s.Cond)
	if err != nil {
		return nil, err
	}
	if _, ok := cond.Type().(*types.BooleanType); !ok {
		return nil, c.errorf(c.posOf(s), "if condition must be a bool, got %s", cond.Type())
	}
	then, err := c.CheckBlock(sc.NewChild(), s.Then, results)
	if err != nil {
		return nil, err
	}
	var els []typedtree.TypedStatement
	if s.Else != nil {
		els, err = c.CheckBlock(sc.NewChild(), s.Else, results)
		if err != nil {
			return nil, err
		}
	}
	return typedtree.NewIf(s, cond, then, els), nil
}

func (c *Checker) checkWhile(sc *scope.Scope, s *ast.WhileStmt, results []types.AnyType) (typedtree.TypedStatement, error) {
	cond, err := c.CheckExpr(sc, s.Cond)
	if err != nil {
		return nil, err
	}
	if _, ok := cond.Type().(*types.BooleanType); !ok {
		return nil, c.errorf(c.posOf(s), "while condition must be a bool, got %s", cond.Type())
	}
	body, err := c.CheckBlock(sc.NewChild(), s.Body, results)
	if err != nil {
		return nil, err
	}
	return typedtree.NewWhile(s, cond, body), nil
}

func (c *Checker) checkForRange(sc *scope.Scope, s *ast.ForRangeStmt, results []types.AnyType) (typedtree.TypedStatement, error) {
	from, err := c.CheckExpr(sc, s.From)
	if err != nil {
		return nil, err
	}
	to, err := c.CheckExpr(sc, s.To)
	if err != nil {
		return nil, err
	}
	loopType, err := unifyOperandTypes(from.Type(), to.Type())
	if err != nil {
		return nil, c.errorf(c.posOf(s), "for range bounds: %v", err)
	}
	from, err = Coerce(from, loopType)
	if err != nil {
		return nil, err
	}
	to, err = Coerce(to, loopType)
	if err != nil {
		return nil, err
	}
	child := sc.NewChild()
	child.Bind(s.Var.Lit, loopType, nil)
	body, err := c.CheckBlock(child, s.Body, results)
	if err != nil {
		return nil, err
	}
	return typedtree.NewForRange(s, s.Var.Lit, from, to, body), nil
}

func (c *Checker) checkReturn(sc *scope.Scope, s *ast.ReturnStmt, results []types.AnyType) (typedtree.TypedStatement, error) {
	if len(s.Results) != len(results) {
		return nil, c.errorf(c.posOf(s), "return: expected %d value(s), got %d", len(results), len(s.Results))
	}
	out := make([]typedtree.TypedExpression, len(s.Results))
	for i, r := range s.Results {
		te, err := c.CheckExpr(sc, r)
		if err != nil {
			return nil, err
		}
		coerced, err := Coerce(te, results[i])
		if err != nil {
			return nil, c.errorf(c.posOf(s), "return value %d: %v", i, err)
		}
		out[i] = coerced
	}
	return typedtree.NewReturn(s, out), nil
}

func (c *Checker) checkAsm(sc *scope.Scope, s *ast.AsmStmt) (typedtree.TypedStatement, error) {
	bindings := make([]*typedtree.AsmBinding, len(s.Bindings))
	for i, b := range s.Bindings {
		if err := validateAsmConstraint(b.Constraint); err != nil {
			return nil, c.errorfKind(diag.InlineAssemblyError, c.posOf(s), "%v", err)
		}
		te, err := c.CheckExpr(sc, b.Value)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(b.Constraint, "=") && !constval.IsAssignable(te.Value()) {
			return nil, c.errorfKind(diag.InlineAssemblyError, c.posOf(s),
				"inline asm output constraint %q requires an assignable operand", b.Constraint)
		}
		bindings[i] = &typedtree.AsmBinding{Constraint: b.Constraint, Value: te}
	}
	return typedtree.NewAsm(s, s.Text, bindings), nil
}

// validateAsmConstraint rejects a `*`-prefixed constraint (GCC's "earlyclobber
// alternative" marker, which this compiler does not support, §4.6).
func validateAsmConstraint(constraint string) error {
	if len(constraint) > 0 && constraint[0] == '*' {
		return fmt.Errorf("inline asm constraint %q: '*'-prefixed constraints are not supported", constraint)
	}
	return nil
}

// checkStaticIfSplice evaluates a statement-scope static_if's condition and
// type-checks the selected branch's declarations as statements, splicing
// the result directly into the caller's output list (§4.1 TypeStaticIf, S2)
// rather than wrapping them in a single node — a static_if is not itself a
// control-flow construct at runtime, it simply selects which statements
// exist.
func (c *Checker) checkStaticIfSplice(sc *scope.Scope, s *ast.StaticIfDecl, results []types.AnyType) ([]typedtree.TypedStatement, error) {
	cond, err := c.CheckExpr(sc, s.Cond)
	if err != nil {
		return nil, err
	}
	cv, ok := constantOf(cond.Value())
	if !ok {
		return nil, c.errorf(c.posOf(s), "static_if condition must be a compile-time constant")
	}
	bc, ok := cv.(*constval.BooleanConst)
	if !ok {
		return nil, c.errorf(c.posOf(s), "static_if condition must be a bool")
	}
	branch := s.Else
	if bc.Value {
		branch = s.Then
	}
	var out []typedtree.TypedStatement
	for _, d := range branch {
		if nested, ok := d.(*ast.StaticIfDecl); ok {
			spliced, err := c.checkStaticIfSplice(sc, nested, results)
			if err != nil {
				return nil, err
			}
			out = append(out, spliced...)
			continue
		}
		stmt, ok := d.(ast.Stmt)
		if !ok {
			continue
		}
		ts, err := c.CheckStmt(sc, stmt, results)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}
