package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vela-lang/velac/lang/token"
)

func TestSinkSortsByPosition(t *testing.T) {
	var s Sink
	s.Add(Diagnostic{Kind: TypeMismatchError, Pos: token.Position{Filename: "b.vl", Line: 2, Column: 1}, Msg: "x"})
	s.Add(Diagnostic{Kind: NameResolutionError, Pos: token.Position{Filename: "a.vl", Line: 5, Column: 1}, Msg: "y"})
	s.Add(Diagnostic{Kind: CycleError, Pos: token.Position{Filename: "a.vl", Line: 1, Column: 1}, Msg: "z"})

	diags := s.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, "a.vl", diags[0].Pos.Filename)
	assert.Equal(t, 1, diags[0].Pos.Line)
	assert.Equal(t, "a.vl", diags[1].Pos.Filename)
	assert.Equal(t, 5, diags[1].Pos.Line)
	assert.Equal(t, "b.vl", diags[2].Pos.Filename)
}

func TestSinkErrNilWhenEmpty(t *testing.T) {
	var s Sink
	assert.NoError(t, s.Err())
}

func TestDiagnosticErrorIncludesDecl(t *testing.T) {
	d := Diagnostic{
		Kind: CycleError,
		Pos:  token.Position{Filename: "a.vl", Line: 1, Column: 1},
		Msg:  "fixpoint reached with waiting jobs",
		Decl: "a, b",
	}
	assert.Contains(t, d.Error(), "a, b")
	assert.Contains(t, d.Error(), "cycle error")
}

func TestErrorfRecords(t *testing.T) {
	var s Sink
	s.Errorf(TagError, token.Position{}, "puts", "conflicting tags: %s and %s", "extern", "no_mangle")
	require.Equal(t, 1, s.Len())
	assert.Contains(t, s.Diagnostics()[0].Msg, "extern")
}
