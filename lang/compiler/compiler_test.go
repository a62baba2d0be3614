package compiler_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vela-lang/velac/lang/compiler"
	"github.com/vela-lang/velac/lang/types"
)

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoadSimpleProgram(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "main.vl", `
identity :: (value: $T) -> T {
	return value
}

a :: identity(42)
`)
	prog, err := compiler.Load(types.Arch64, root)
	require.NoError(t, err)
	assert.Equal(t, 0, prog.Sink.Len())
}

func TestLoadCrossFileImport(t *testing.T) {
	dir := t.TempDir()
	utilPath := writeFile(t, dir, "util.vl", `greeting :: "hi"`)
	root := writeFile(t, dir, "main.vl", fmt.Sprintf(`
import "%s"
x :: util.greeting
`, utilPath))

	prog, err := compiler.Load(types.Arch64, root)
	require.NoError(t, err)
	assert.Equal(t, 0, prog.Sink.Len())
}

func TestLoadCycleDiagnostic(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "main.vl", `
a :: b
b :: a
`)
	_, err := compiler.Load(types.Arch64, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestBuildAggregatesExternLibs(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "main.vl", `
main :: () -> void {
}
`)
	res, err := compiler.Build(types.Arch64, root)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.NotNil(t, res.RuntimeStatics())
}
