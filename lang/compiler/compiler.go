// Package compiler wires the whole-program pipeline (§4.1 "Entry seed",
// §4.2-§4.6) together: parse every file reachable from a set of root paths,
// build one top-level scope per file, seed name resolution for the root
// file's top-level declarations, drive the job scheduler to fixpoint, and
// hand the result to the HLIR generator. It is the collaborator the CLI's
// build/typecheck/hlir subcommands call into, analogous to the teacher's
// maincmd commands driving a single do-everything entry point per run.
package compiler

import (
	"fmt"
	"sort"

	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/checker"
	"github.com/vela-lang/velac/lang/diag"
	"github.com/vela-lang/velac/lang/hlir"
	"github.com/vela-lang/velac/lang/hlirgen"
	"github.com/vela-lang/velac/lang/parser"
	"github.com/vela-lang/velac/lang/scheduler"
	"github.com/vela-lang/velac/lang/scope"
	"github.com/vela-lang/velac/lang/token"
	"github.com/vela-lang/velac/lang/types"
)

// Result is everything a successful build produced: the generated functions
// and static variables (§3 RuntimeStatic), and the de-duplicated, sorted
// extern library list aggregated across every generated function (§6).
type Result struct {
	FileSet         *token.FileSet
	Functions       []*hlir.Function
	StaticVariables []*hlir.StaticVariable
	ExternLibs      []string
	Sink            *diag.Sink
}

// Program holds the parsed and name-resolved state shared by Load and
// Build, so a caller that only wants diagnostics (the `typecheck` CLI
// subcommand) doesn't pay for HLIR generation.
type Program struct {
	FileSet    *token.FileSet
	Chunks     []*ast.Chunk
	RootPath   string
	FileScopes map[string]*scope.Scope
	Checkers   map[string]*checker.Checker
	Sched      *scheduler.Scheduler
	Sink       *diag.Sink
}

// Load parses root (and everything it transitively imports) and drives name
// resolution/type-checking to fixpoint, without generating HLIR. root is
// the entry file; every other path reachable through `import` is pulled in
// automatically by lang/parser.ParseFiles.
func Load(arch types.Arch, root string) (*Program, error) {
	fset, chunks, perr := parser.ParseFiles(root)
	if perr != nil {
		return nil, perr
	}

	sink := &diag.Sink{}
	sched := scheduler.New(sink)

	fileScopes := make(map[string]*scope.Scope, len(chunks))
	for _, ch := range chunks {
		fileScopes[ch.Name] = scope.NewTop(ch.Name, ch.Decls)
	}

	checkers := make(map[string]*checker.Checker, len(chunks))
	for _, ch := range chunks {
		c := checker.New(arch, sched, sink)
		c.File = fset.File(ch.Name)
		c.FileScopes = fileScopes
		checkers[ch.Name] = c
	}

	rootChecker, ok := checkers[root]
	if !ok {
		return nil, fmt.Errorf("compiler: root file %q was not parsed", root)
	}
	rootScope := fileScopes[root]

	// Entry seed (§4.1): resolve every name a top-level declaration could
	// bind, including one nested inside a top-level static_if — the branch
	// that is actually selected is only known once ResolveDeclaration's job
	// expands it, so every candidate name from both branches is seeded and
	// the ones that don't end up selected simply never get looked up again.
	names := make(map[string]bool)
	collectDeclNames(rootScope.Decls, names)
	for name := range names {
		rootChecker.ResolveDeclaration(rootScope, name, token.Position{Filename: root})
	}

	if err := sched.Run(); err != nil {
		return nil, err
	}

	return &Program{
		FileSet:    fset,
		Chunks:     chunks,
		RootPath:   root,
		FileScopes: fileScopes,
		Checkers:   checkers,
		Sched:      sched,
		Sink:       sink,
	}, nil
}

func collectDeclNames(decls []ast.Decl, out map[string]bool) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.ConstDecl:
			out[d.Name.Lit] = true
		case *ast.VarDecl:
			out[d.Name.Lit] = true
		case *ast.StaticIfDecl:
			collectDeclNames(d.Then, out)
			collectDeclNames(d.Else, out)
		}
	}
}

// Diagnostics reports every diagnostic accumulated while loading p, sorted
// for stable output (§4.7 "best-effort multi-error reporting").
func (p *Program) Diagnostics() []diag.Diagnostic {
	return p.Sink.Diagnostics()
}

// Build runs Load and then lowers the root file's top-level declarations
// (and, transitively, every function reachable from them) to HLIR.
func Build(arch types.Arch, root string) (*Result, error) {
	prog, err := Load(arch, root)
	if err != nil {
		return nil, err
	}
	if prog.Sink.Len() > 0 {
		return nil, prog.Sink.Err()
	}

	rootChecker := prog.Checkers[prog.RootPath]
	rootScope := prog.FileScopes[prog.RootPath]

	gen := hlirgen.NewGenerator(arch, prog.Sched, prog.Sink, rootChecker.File)
	funcs, vars, err := gen.GenerateProgram(rootChecker, rootScope)
	if err != nil {
		return nil, err
	}
	if prog.Sink.Len() > 0 {
		return nil, prog.Sink.Err()
	}

	libs := aggregateExternLibs(funcs)
	return &Result{
		FileSet:         prog.FileSet,
		Functions:       funcs,
		StaticVariables: vars,
		ExternLibs:      libs,
		Sink:            prog.Sink,
	}, nil
}

// aggregateExternLibs de-duplicates and sorts every extern(...) library
// named across funcs (§6: "the compiler-wide de-duplicated list handed to
// the emitter").
func aggregateExternLibs(funcs []*hlir.Function) []string {
	seen := make(map[string]bool)
	var libs []string
	for _, fn := range funcs {
		for _, lib := range fn.ExternLibs {
			if !seen[lib] {
				seen[lib] = true
				libs = append(libs, lib)
			}
		}
	}
	sort.Strings(libs)
	return libs
}

// RuntimeStatics flattens r's functions and static variables into the order
// lang/emitc expects (§3 RuntimeStatic).
func (r *Result) RuntimeStatics() []hlir.RuntimeStatic {
	out := make([]hlir.RuntimeStatic, 0, len(r.Functions)+len(r.StaticVariables))
	for _, fn := range r.Functions {
		out = append(out, fn)
	}
	for _, v := range r.StaticVariables {
		out = append(out, v)
	}
	return out
}
