package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenString(t *testing.T) {
	assert.Equal(t, "+", PLUS.String())
	assert.Equal(t, "static_if", STATIC_IF.String())
	assert.Equal(t, "'+'", PLUS.GoString())
	assert.Equal(t, "identifier", IDENT.GoString())
}

func TestKeywords(t *testing.T) {
	for lit, tok := range Keywords {
		assert.Equal(t, lit, tok.String())
	}
}

func TestIsBinopUnop(t *testing.T) {
	assert.True(t, PLUS.IsBinop())
	assert.True(t, MINUS.IsUnop())
	assert.False(t, IDENT.IsBinop())
	assert.False(t, COMMA.IsUnop())
}
