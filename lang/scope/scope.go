// Package scope implements the compiler's scope graph (§3 Scope, §4.2): a
// tree of lexical scopes, each owning its declaration list and a growing
// table of resolved (name, type, constant-value) bindings. Binding tables
// use the teacher's dolthub/swiss Swiss-table map, since name lookup is the
// hot path of resolution.
package scope

import (
	"github.com/dolthub/swiss"

	"github.com/vela-lang/velac/lang/ast"
)

// Constant is one resolved top-level or local binding: a name together with
// its type and compile-time value. Type and Value are declared as `any`
// here to avoid an import cycle (lang/types and lang/constval both sit
// above lang/scope in the dependency order); callers type-assert to
// types.AnyType / constval.AnyConstantValue.
type Constant struct {
	Name  string
	Type  any
	Value any
}

// Scope is one node of the lexical scope tree (§3). The top-level scope of
// a file has Parent == nil and FilePath set; every other scope (function
// body, static_if branch, block) has a non-nil Parent.
type Scope struct {
	Parent   *Scope
	FilePath string // only set on a top-level, file-rooted scope
	IsTop    bool

	// Decls is the scope's own ordered declaration list, as parsed (or, for
	// a static_if's selected branch, spliced in by TypeStaticIf).
	Decls []ast.Decl

	bindings *swiss.Map[string, *Constant]
	order    []string // insertion order, for deterministic iteration

	// expanded records which *ast.StaticIfDecl nodes in Decls have already
	// had their selected branch spliced in, so a TypeStaticIf job re-run on
	// resume (§4.1's "re-run from the top" suspension model) doesn't splice
	// the same branch twice.
	expanded map[ast.Decl]bool
}

// New creates an empty scope nested inside parent. Pass a nil parent only
// for a file's top-level scope.
func New(parent *Scope) *Scope {
	return &Scope{
		Parent:   parent,
		IsTop:    parent == nil,
		bindings: swiss.NewMap[string, *Constant](8),
	}
}

// NewTop creates a top-level scope rooted at filePath with the given parsed
// declarations.
func NewTop(filePath string, decls []ast.Decl) *Scope {
	s := New(nil)
	s.FilePath = filePath
	s.IsTop = true
	s.Decls = decls
	return s
}

// NewChild creates a nested scope (function body, static_if branch, loop
// body) owned by s.
func (s *Scope) NewChild() *Scope {
	return New(s)
}

// Bind records a resolved constant in s, overwriting any existing binding of
// the same name in this scope (duplicate-declaration detection is the
// resolver's job, not the scope's — see lang/checker's NameResolutionError
// handling).
func (s *Scope) Bind(name string, typ, value any) {
	if _, existed := s.bindings.Get(name); !existed {
		s.order = append(s.order, name)
	}
	s.bindings.Put(name, &Constant{Name: name, Type: typ, Value: value})
}

// Local looks up name in s only, without walking outward to Parent.
func (s *Scope) Local(name string) (*Constant, bool) {
	return s.bindings.Get(name)
}

// Resolve looks up name starting at s and walking outward through Parent
// until found, implementing §3's resolution invariant: "a name resolves in
// the innermost scope where it is bound; unresolved names propagate outward
// until the top-level scope of the file."
func (s *Scope) Resolve(name string) (*Constant, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if c, ok := cur.Local(name); ok {
			return c, cur, true
		}
	}
	return nil, nil, false
}

// Names returns every bound name in s, in the order they were first bound.
func (s *Scope) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// StaticIfExpanded reports whether sid's selected branch has already been
// spliced into s.Decls.
func (s *Scope) StaticIfExpanded(sid ast.Decl) bool {
	return s.expanded[sid]
}

// MarkStaticIfExpanded records that sid's selected branch has been spliced
// into s.Decls, so it is not processed again.
func (s *Scope) MarkStaticIfExpanded(sid ast.Decl) {
	if s.expanded == nil {
		s.expanded = make(map[ast.Decl]bool)
	}
	s.expanded[sid] = true
}

// Top walks up to the top-level scope of the file s belongs to.
func (s *Scope) Top() *Scope {
	cur := s
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}
