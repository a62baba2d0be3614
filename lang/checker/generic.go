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

// typeInstantiationKey builds the memoisation key for a generic struct/union
// instantiation: (declaration, type-argument tuple), the type-only analogue
// of poly.go's instantiationKey.
func typeInstantiationKey(decl ast.Node, argTypes []types.AnyType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "type:%p", decl)
	for _, t := range argTypes {
		b.WriteByte(':')
		b.WriteString(t.String())
	}
	return b.String()
}

// InstantiateStruct enqueues (or returns the existing memoised job for) the
// instantiation of a polymorphic struct declaration against a concrete
// type-argument tuple (§1, §3's PolymorphicStruct): it binds each determiner
// to its argument in a fresh child scope, then type-checks the field list
// exactly as structType does for a non-polymorphic struct.
func (c *Checker) InstantiateStruct(declScope *scope.Scope, decl *ast.StructTypeExpr, argTypes []types.AnyType) scheduler.JobID {
	key := typeInstantiationKey(decl, argTypes)
	return c.Sched.Enqueue("TypePolymorphicStruct", key, "struct", c.posOf(decl), func(s *scheduler.Scheduler) scheduler.Result {
		return c.instantiateStructStep(declScope, decl, argTypes)
	})
}

// InstantiateUnion is the union analogue of InstantiateStruct.
func (c *Checker) InstantiateUnion(declScope *scope.Scope, decl *ast.UnionTypeExpr, argTypes []types.AnyType) scheduler.JobID {
	key := typeInstantiationKey(decl, argTypes)
	return c.Sched.Enqueue("TypePolymorphicUnion", key, "union", c.posOf(decl), func(s *scheduler.Scheduler) scheduler.Result {
		return c.instantiateUnionStep(declScope, decl, argTypes)
	})
}

func bindDeterminers(declScope *scope.Scope, determiners []*ast.IdentExpr, argTypes []types.AnyType) (*scope.Scope, error) {
	if len(argTypes) != len(determiners) {
		return nil, fmt.Errorf("expected %d type argument(s), got %d", len(determiners), len(argTypes))
	}
	child := declScope.NewChild()
	for i, d := range determiners {
		child.Bind(d.Lit, &types.TypeMetaType{}, &constval.TypeConst{Value: argTypes[i]})
	}
	return child, nil
}

func (c *Checker) instantiateStructStep(declScope *scope.Scope, decl *ast.StructTypeExpr, argTypes []types.AnyType) scheduler.Result {
	child, err := bindDeterminers(declScope, decl.Determiners, argTypes)
	if err != nil {
		return scheduler.Fail(fmt.Errorf("struct: %v", err))
	}
	members, err := c.fieldMembers(child, decl.Fields)
	if err != nil {
		return scheduler.FailOrWait(err)
	}
	return scheduler.Ok(&types.StructType{OriginDecl: decl, Members: members})
}

func (c *Checker) instantiateUnionStep(declScope *scope.Scope, decl *ast.UnionTypeExpr, argTypes []types.AnyType) scheduler.Result {
	child, err := bindDeterminers(declScope, decl.Determiners, argTypes)
	if err != nil {
		return scheduler.Fail(fmt.Errorf("union: %v", err))
	}
	members, err := c.fieldMembers(child, decl.Fields)
	if err != nil {
		return scheduler.FailOrWait(err)
	}
	return scheduler.Ok(&types.UnionType{OriginDecl: decl, Members: members})
}

// checkGenericStructRef instantiates a polymorphic struct constant against
// the type argument written in index position (`Box[i32]`) and builds the
// resulting type-meta typed node, the struct analogue of checkPolymorphCall.
func (c *Checker) checkGenericStructRef(sc *scope.Scope, e *ast.IndexExpr, poly *constval.PolymorphicStructConst) (typedtree.TypedExpression, error) {
	decl, ok := poly.Decl.(*ast.StructTypeExpr)
	if !ok {
		return nil, c.errorf(c.posOf(e), "malformed polymorphic struct constant")
	}
	declScope, _ := poly.Scope.(*scope.Scope)
	argType, _, err := c.TypeExpr(sc, e.Index)
	if err != nil {
		return nil, err
	}
	id := c.InstantiateStruct(declScope, decl, []types.AnyType{argType})
	st, res, ok := scheduler.Await[*types.StructType](c.Sched, id)
	if !ok {
		return nil, res.Err
	}
	val := &constval.ConstantValue{Const: &constval.TypeConst{Value: st}}
	return typedtree.NewLiteral(e, &types.TypeMetaType{}, val), nil
}

// checkGenericUnionRef is the union analogue of checkGenericStructRef.
func (c *Checker) checkGenericUnionRef(sc *scope.Scope, e *ast.IndexExpr, poly *constval.PolymorphicUnionConst) (typedtree.TypedExpression, error) {
	decl, ok := poly.Decl.(*ast.UnionTypeExpr)
	if !ok {
		return nil, c.errorf(c.posOf(e), "malformed polymorphic union constant")
	}
	declScope, _ := poly.Scope.(*scope.Scope)
	argType, _, err := c.TypeExpr(sc, e.Index)
	if err != nil {
		return nil, err
	}
	id := c.InstantiateUnion(declScope, decl, []types.AnyType{argType})
	ut, res, ok := scheduler.Await[*types.UnionType](c.Sched, id)
	if !ok {
		return nil, res.Err
	}
	val := &constval.ConstantValue{Const: &constval.TypeConst{Value: ut}}
	return typedtree.NewLiteral(e, &types.TypeMetaType{}, val), nil
}
