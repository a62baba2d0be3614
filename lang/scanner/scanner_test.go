package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vela-lang/velac/lang/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, []Value) {
	t.Helper()
	var el ErrorList
	file := token.NewFileSet().AddFile("test.vl", []byte(src))

	var s Scanner
	s.Init(file, []byte(src), el.Add)

	var toks []token.Token
	var vals []Value
	for {
		var v Value
		tok := s.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	assert.Empty(t, el.Err())
	return toks, vals
}

func TestScanIdentAndKeyword(t *testing.T) {
	toks, vals := scanAll(t, "foo static_if bar")
	assert.Equal(t, []token.Token{token.IDENT, token.STATIC_IF, token.IDENT, token.EOF}, toks)
	assert.Equal(t, "foo", vals[0].Raw)
}

func TestScanNumbers(t *testing.T) {
	toks, vals := scanAll(t, "42 0x3f800000 3.14 0b101")
	assert.Equal(t, []token.Token{token.INT, token.INT, token.FLOAT, token.INT, token.EOF}, toks)
	assert.Equal(t, uint64(42), vals[0].Int)
	assert.Equal(t, uint64(0x3f800000), vals[1].Int)
	assert.InDelta(t, 3.14, vals[2].Float, 1e-9)
	assert.Equal(t, uint64(5), vals[3].Int)
}

func TestScanPunctuation(t *testing.T) {
	toks, _ := scanAll(t, ":: -> := == != <= >= && || ...")
	want := []token.Token{
		token.COLONCOLON, token.ARROW, token.COLONEQ, token.EQ, token.NEQ,
		token.LE, token.GE, token.ANDAND, token.OROR, token.DOTDOTDOT, token.EOF,
	}
	assert.Equal(t, want, toks)
}

func TestScanStringLit(t *testing.T) {
	_, vals := scanAll(t, `"linux"`)
	assert.Equal(t, "linux", vals[0].String)
}

func TestScanComment(t *testing.T) {
	toks, _ := scanAll(t, "foo // a comment\nbar")
	assert.Equal(t, []token.Token{token.IDENT, token.IDENT, token.EOF}, toks)
}
