// Package diag implements the compiler's diagnostics: the seven error kinds
// of §7 plus a Sink that collects, sorts, and renders them, mirroring the
// teacher's reuse of go/scanner.ErrorList (see lang/scanner) but built
// against this language's own token.Position rather than go/token's.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vela-lang/velac/lang/token"
)

// Kind identifies which of the seven diagnostic categories a Diagnostic
// belongs to (§7).
type Kind int

const (
	// NameResolutionError covers an unknown identifier, an ambiguous member,
	// or a duplicate declaration.
	NameResolutionError Kind = iota
	// TypeMismatchError covers a disallowed coercion, an arity mismatch, or a
	// non-runtime type used in a runtime position.
	TypeMismatchError
	// ConstantEvaluationError covers division by zero, a static out-of-bounds
	// index, use of a non-constant in a constant context, or a non-constant
	// polymorphic argument.
	ConstantEvaluationError
	// TagError covers an unknown tag, conflicting tags (extern + no_mangle),
	// or a malformed extern argument list.
	TagError
	// ControlFlowError covers unreachable code, break outside a loop, or a
	// function missing a terminal return.
	ControlFlowError
	// InlineAssemblyError covers a malformed constraint or a non-assignable
	// output binding.
	InlineAssemblyError
	// CycleError covers a fixpoint reached with jobs still waiting.
	CycleError
)

func (k Kind) String() string {
	switch k {
	case NameResolutionError:
		return "name resolution error"
	case TypeMismatchError:
		return "type mismatch"
	case ConstantEvaluationError:
		return "constant evaluation error"
	case TagError:
		return "tag error"
	case ControlFlowError:
		return "control flow error"
	case InlineAssemblyError:
		return "inline assembly error"
	case CycleError:
		return "cycle error"
	default:
		return "error"
	}
}

// Diagnostic is a single compiler error tied to a source position and a
// declaration path, if relevant (§7).
type Diagnostic struct {
	Kind Kind
	Pos  token.Position
	Msg  string
	// Decl names the declaration the diagnostic is attached to, e.g. for
	// CycleError's "naming the involved declarations" requirement. Empty if
	// not applicable.
	Decl string
}

func (d Diagnostic) Error() string {
	var b strings.Builder
	if d.Pos.Filename != "" || d.Pos.IsValid() {
		b.WriteString(d.Pos.String())
		b.WriteString(": ")
	}
	b.WriteString(d.Kind.String())
	b.WriteString(": ")
	b.WriteString(d.Msg)
	if d.Decl != "" {
		fmt.Fprintf(&b, " (in %s)", d.Decl)
	}
	return b.String()
}

// Sink accumulates Diagnostics across a compilation. The scheduler (§4.1)
// continues driving independent jobs after a failure and reports everything
// collected here at the end ("best-effort multi-error reporting").
type Sink struct {
	diags []Diagnostic
}

// Add records a new diagnostic.
func (s *Sink) Add(d Diagnostic) { s.diags = append(s.diags, d) }

// Errorf is a convenience wrapper around Add.
func (s *Sink) Errorf(kind Kind, pos token.Position, decl, format string, args ...any) {
	s.Add(Diagnostic{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...), Decl: decl})
}

// Len reports how many diagnostics have been recorded.
func (s *Sink) Len() int { return len(s.diags) }

// Diagnostics returns every recorded diagnostic, sorted by file, then line,
// then column.
func (s *Sink) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Pos, out[j].Pos
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return pi.Column < pj.Column
	})
	return out
}

// Err returns an aggregate error over every recorded diagnostic, or nil if
// none were recorded.
func (s *Sink) Err() error {
	if len(s.diags) == 0 {
		return nil
	}
	diags := s.Diagnostics()
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = d.Error()
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}
