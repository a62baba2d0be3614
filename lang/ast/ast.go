// Package ast defines the untyped AST node shapes that a parser hands to the
// core (spec §6): declarations, statements, expressions, tags, static_if,
// and polymorph determiner markers. Tokenising and parsing proper stay a
// thin collaborator (see lang/scanner, lang/parser); this package only
// describes the shape the core consumes.
//
// Like the teacher's AST, every node implements fmt.Formatter for debug
// printing, reports its Span, and supports the Visitor pattern via Walk.
package ast

import (
	"fmt"
	"strings"

	"github.com/vela-lang/velac/lang/token"
)

// Node is any node of the AST.
type Node interface {
	fmt.Formatter
	Span() (start, end token.Pos)
	Walk(v Visitor)
}

// Expr is an expression node. Because this language treats types as
// first-class compile-time values, type syntax (pointers, arrays, struct/
// union/enum literals) is expressed through Expr too, not a parallel
// hierarchy.
type Expr interface {
	Node
	expr()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Decl is a top-level (or static_if-nested) declaration.
type Decl interface {
	Node
	decl()
}

// Chunk is the root of a single parsed file: its top-level declarations plus
// any imports.
type Chunk struct {
	Name  string
	Decls []Decl
	EOF   token.Pos
}

func (n *Chunk) Span() (start, end token.Pos) {
	if len(n.Decls) == 0 {
		return n.EOF, n.EOF
	}
	s, _ := n.Decls[0].Span()
	_, e := n.Decls[len(n.Decls)-1].Span()
	return s, e
}
func (n *Chunk) Walk(v Visitor) {
	for _, d := range n.Decls {
		Walk(v, d)
	}
}
func (n *Chunk) Format(f fmt.State, verb rune) { format(f, verb, n, "chunk "+n.Name, nil) }

// Block is a sequence of statements, e.g. a function body or the branch of
// an if/while/for.
type Block struct {
	Start, End token.Pos
	Stmts      []Stmt
}

func (n *Block) Span() (start, end token.Pos) { return n.Start, n.End }
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
func (n *Block) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"stmts": len(n.Stmts)})
}

// Tag is a declaration annotation such as extern(...), no_mangle, or
// call_conv(...) (§6, §7.4).
type Tag struct {
	Name token.Token // EXTERN, NO_MANGLE, or CALL_CONV
	Pos  token.Pos
	Args []string
}

func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}
	label = strings.ReplaceAll(label, "\n", "\\n")
	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		fmt.Fprint(f, " {")
		first := true
		for k, v := range counts {
			if !first {
				fmt.Fprint(f, ", ")
			}
			first = false
			fmt.Fprintf(f, "%s=%d", k, v)
		}
		fmt.Fprint(f, "}")
	}
}
