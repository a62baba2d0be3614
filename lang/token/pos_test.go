package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakePosLineCol(t *testing.T) {
	p := MakePos(12, 7)
	line, col := p.LineCol()
	assert.Equal(t, 12, line)
	assert.Equal(t, 7, col)
	assert.False(t, p.Unknown())
}

func TestPosUnknown(t *testing.T) {
	assert.True(t, Pos(0).Unknown())
	assert.True(t, MakePos(0, 3).Unknown())
	assert.True(t, MakePos(3, 0).Unknown())
	assert.False(t, MakePos(1, 1).Unknown())
}

type startEnd struct{ s, e Pos }

func (se startEnd) Span() (start, end Pos) { return se.s, se.e }

func TestPosInside(t *testing.T) {
	cases := []struct {
		ref, test startEnd
		want      bool
	}{
		{startEnd{MakePos(1, 1), MakePos(1, 2)}, startEnd{MakePos(1, 3), MakePos(1, 4)}, false},
		{startEnd{MakePos(1, 1), MakePos(1, 4)}, startEnd{MakePos(1, 2), MakePos(1, 3)}, true},
		{startEnd{MakePos(1, 3), MakePos(1, 4)}, startEnd{MakePos(1, 3), MakePos(1, 4)}, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PosInside(c.ref, c.test))
	}
}
