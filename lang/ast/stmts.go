package ast

import (
	"fmt"

	"github.com/vela-lang/velac/lang/token"
)

type (
	// ExprStmt is an expression used as a statement (only function calls are
	// valid in that position).
	ExprStmt struct {
		X Expr
	}

	// AssignStmt is a single-target assignment, e.g. x = y.
	AssignStmt struct {
		Left   Expr
		Assign token.Pos
		Right  Expr
	}

	// MultiAssignStmt covers both `a, b := pair()` (Infer true, new bindings)
	// and `a, b = pair()` (Infer false, existing assignable targets).
	MultiAssignStmt struct {
		Left   []Expr
		Assign token.Pos
		Infer  bool
		Right  []Expr
	}

	// IfStmt is `if cond { ... } elseif cond { ... } else { ... }`; an elseif
	// chain is represented as a nested IfStmt in Else.Stmts[0].
	IfStmt struct {
		Start token.Pos
		Cond  Expr
		Then  *Block
		Else  *Block // nil if there is no else/elseif
	}

	// WhileStmt is `while cond { ... }`.
	WhileStmt struct {
		Start token.Pos
		Cond  Expr
		Body  *Block
	}

	// ForRangeStmt is `for i from a to b { ... }`.
	ForRangeStmt struct {
		Start    token.Pos
		Var      *IdentExpr
		From, To Expr
		Body     *Block
	}

	// BreakStmt is `break`.
	BreakStmt struct {
		Start token.Pos
	}

	// ReturnStmt is `return` (no results), `return x` (one), or `return x, y`
	// (multi-return, §4.6).
	ReturnStmt struct {
		Start   token.Pos
		Results []Expr
	}

	// AsmBinding is one binding of an inline-assembly instruction: a GCC-style
	// constraint string plus the bound expression (§4.6).
	AsmBinding struct {
		Constraint string
		Value      Expr
	}

	// AsmStmt is an inline assembly statement.
	AsmStmt struct {
		Start    token.Pos
		Text     string
		Bindings []*AsmBinding
		End      token.Pos
	}
)

func (*ExprStmt) stmt()        {}
func (*AssignStmt) stmt()      {}
func (*MultiAssignStmt) stmt() {}
func (*IfStmt) stmt()          {}
func (*WhileStmt) stmt()       {}
func (*ForRangeStmt) stmt()    {}
func (*BreakStmt) stmt()       {}
func (*ReturnStmt) stmt()      {}
func (*AsmStmt) stmt()         {}

func (n *ExprStmt) Span() (start, end token.Pos) { return n.X.Span() }
func (n *ExprStmt) Walk(v Visitor)               { Walk(v, n.X) }
func (n *ExprStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "exprstmt", nil) }

func (n *AssignStmt) Span() (start, end token.Pos) {
	s, _ := n.Left.Span()
	_, e := n.Right.Span()
	return s, e
}
func (n *AssignStmt) Walk(v Visitor) { Walk(v, n.Left); Walk(v, n.Right) }
func (n *AssignStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "assign", nil) }

func (n *MultiAssignStmt) Span() (start, end token.Pos) {
	s, _ := n.Left[0].Span()
	_, e := n.Right[len(n.Right)-1].Span()
	return s, e
}
func (n *MultiAssignStmt) Walk(v Visitor) {
	for _, l := range n.Left {
		Walk(v, l)
	}
	for _, r := range n.Right {
		Walk(v, r)
	}
}
func (n *MultiAssignStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "multiassign", map[string]int{"left": len(n.Left), "right": len(n.Right)})
}

func (n *IfStmt) Span() (start, end token.Pos) {
	_, e := n.Then.Span()
	if n.Else != nil {
		_, e = n.Else.Span()
	}
	return n.Start, e
}
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (n *IfStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "if", nil) }

func (n *WhileStmt) Span() (start, end token.Pos) {
	_, e := n.Body.Span()
	return n.Start, e
}
func (n *WhileStmt) Walk(v Visitor) { Walk(v, n.Cond); Walk(v, n.Body) }
func (n *WhileStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "while", nil) }

func (n *ForRangeStmt) Span() (start, end token.Pos) {
	_, e := n.Body.Span()
	return n.Start, e
}
func (n *ForRangeStmt) Walk(v Visitor) {
	Walk(v, n.Var)
	Walk(v, n.From)
	Walk(v, n.To)
	Walk(v, n.Body)
}
func (n *ForRangeStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "for", nil) }

func (n *BreakStmt) Span() (start, end token.Pos) { return n.Start, n.Start + token.Pos(len("break")) }
func (n *BreakStmt) Walk(_ Visitor)               {}
func (n *BreakStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "break", nil) }

func (n *ReturnStmt) Span() (start, end token.Pos) {
	end = n.Start
	if len(n.Results) > 0 {
		_, end = n.Results[len(n.Results)-1].Span()
	}
	return n.Start, end
}
func (n *ReturnStmt) Walk(v Visitor) {
	for _, r := range n.Results {
		Walk(v, r)
	}
}
func (n *ReturnStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "return", map[string]int{"results": len(n.Results)})
}

func (n *AsmStmt) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *AsmStmt) Walk(v Visitor) {
	for _, b := range n.Bindings {
		Walk(v, b.Value)
	}
}
func (n *AsmStmt) Format(f fmt.State, verb rune) {
	format(f, verb, n, "asm", map[string]int{"bindings": len(n.Bindings)})
}

// IsLoop reports whether stmt introduces a loop body (for break's target
// resolution, §4.6).
func IsLoop(stmt Stmt) bool {
	switch stmt.(type) {
	case *WhileStmt, *ForRangeStmt:
		return true
	default:
		return false
	}
}
