package typedtree

import (
	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/scope"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/types"
)

// TypedStatement is implemented by every typed statement node.
type TypedStatement interface {
	typedStmt()
	Source() ast.Stmt
	Span() (start, end token.Pos)
}

type stmtBase struct {
	src ast.Stmt
}

func (b *stmtBase) Source() ast.Stmt             { return b.src }
func (b *stmtBase) Span() (start, end token.Pos) { return b.src.Span() }

type (
	// ExprStmt is a typed expression used as a statement (a function call).
	ExprStmt struct {
		stmtBase
		X TypedExpression
	}

	// Assign is a typed single-target assignment.
	Assign struct {
		stmtBase
		Left, Right TypedExpression
	}

	// MultiAssign is a typed multi-value assignment or declaration, e.g.
	// `a, b := pair()` or `a, b = pair()` (§4.6).
	MultiAssign struct {
		stmtBase
		Left  []TypedExpression
		Infer bool
		Right []TypedExpression
	}

	// VarDecl is a typed local or static variable declaration. Type is the
	// declaration's resolved storage type; it is carried explicitly (rather
	// than read off Value) because Value is nil for an uninitialized
	// declaration (e.g. `u : U` with no `= ...`), which still needs a type
	// for hlirgen to allocate storage for (§4.6 Local variables).
	VarDecl struct {
		stmtBase
		Name  string
		Type  types.AnyType
		Value TypedExpression // nil if no initializer
	}

	// If is a typed if/elseif/else statement.
	If struct {
		stmtBase
		Cond       TypedExpression
		Then, Else []TypedStatement
	}

	// While is a typed while loop.
	While struct {
		stmtBase
		Cond TypedExpression
		Body []TypedStatement
	}

	// ForRange is a typed `for i from a to b` loop.
	ForRange struct {
		stmtBase
		Var      string
		From, To TypedExpression
		Body     []TypedStatement
	}

	// Break is a typed break statement.
	Break struct {
		stmtBase
	}

	// Return is a typed return statement, possibly multi-valued (§4.6).
	Return struct {
		stmtBase
		Results []TypedExpression
	}

	// AsmBinding is one resolved inline-assembly binding.
	AsmBinding struct {
		Constraint string
		Value      TypedExpression
	}

	// Asm is a typed inline assembly statement.
	Asm struct {
		stmtBase
		Text     string
		Bindings []*AsmBinding
	}
)

func (*ExprStmt) typedStmt()    {}
func (*Assign) typedStmt()      {}
func (*MultiAssign) typedStmt() {}
func (*VarDecl) typedStmt()     {}
func (*If) typedStmt()          {}
func (*While) typedStmt()       {}
func (*ForRange) typedStmt()    {}
func (*Break) typedStmt()       {}
func (*Return) typedStmt()      {}
func (*Asm) typedStmt()         {}

// NewExprStmt constructs a typed expression statement.
func NewExprStmt(src ast.Stmt, x TypedExpression) *ExprStmt {
	return &ExprStmt{stmtBase: stmtBase{src: src}, X: x}
}

// NewAssign constructs a typed single-target assignment.
func NewAssign(src ast.Stmt, left, right TypedExpression) *Assign {
	return &Assign{stmtBase: stmtBase{src: src}, Left: left, Right: right}
}

// NewMultiAssign constructs a typed multi-value assignment or declaration.
func NewMultiAssign(src ast.Stmt, left []TypedExpression, infer bool, right []TypedExpression) *MultiAssign {
	return &MultiAssign{stmtBase: stmtBase{src: src}, Left: left, Infer: infer, Right: right}
}

// NewVarDecl constructs a typed variable declaration statement.
func NewVarDecl(src ast.Stmt, name string, typ types.AnyType, value TypedExpression) *VarDecl {
	return &VarDecl{stmtBase: stmtBase{src: src}, Name: name, Type: typ, Value: value}
}

// NewIf constructs a typed if/elseif/else statement.
func NewIf(src ast.Stmt, cond TypedExpression, then, els []TypedStatement) *If {
	return &If{stmtBase: stmtBase{src: src}, Cond: cond, Then: then, Else: els}
}

// NewWhile constructs a typed while loop.
func NewWhile(src ast.Stmt, cond TypedExpression, body []TypedStatement) *While {
	return &While{stmtBase: stmtBase{src: src}, Cond: cond, Body: body}
}

// NewForRange constructs a typed `for i from a to b` loop.
func NewForRange(src ast.Stmt, v string, from, to TypedExpression, body []TypedStatement) *ForRange {
	return &ForRange{stmtBase: stmtBase{src: src}, Var: v, From: from, To: to, Body: body}
}

// NewBreak constructs a typed break statement.
func NewBreak(src ast.Stmt) *Break {
	return &Break{stmtBase: stmtBase{src: src}}
}

// NewReturn constructs a typed return statement.
func NewReturn(src ast.Stmt, results []TypedExpression) *Return {
	return &Return{stmtBase: stmtBase{src: src}, Results: results}
}

// NewAsm constructs a typed inline assembly statement.
func NewAsm(src ast.Stmt, text string, bindings []*AsmBinding) *Asm {
	return &Asm{stmtBase: stmtBase{src: src}, Text: text, Bindings: bindings}
}

// Function is a fully type-checked function body, ready for lang/hlirgen.
// BodyScope is the scope its parameters and locals were bound in. Typ is
// filled in alongside Params, before Body is type-checked, so a recursive
// call to this function resolves against a complete signature.
type Function struct {
	Decl      *ast.ConstDecl
	BodyScope *scope.Scope
	Typ       *types.FunctionType
	Params    []string
	Body      []TypedStatement
}

// StaticVariable is a fully type-checked global variable, ready for
// lang/hlirgen's GenerateStaticVariable job.
type StaticVariable struct {
	Decl  *ast.VarDecl
	Name  string
	Value TypedExpression
}
