package maincmd_test

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"

	"github.com/vela-lang/velac/internal/filetest"
	"github.com/vela-lang/velac/internal/maincmd"
)

var testUpdateHlirTests = flag.Bool("test.update-hlir-tests", false, "If set, replace expected hlir test results with actual results.")

// TestHlir drives the full parse/check/generate pipeline over every .vl file
// in testdata/in and diffs its printed function/variable summary against
// the golden file in testdata/out (§4.6, §SPEC_FULL.md §2's golden-file
// diffing promise for scheduler/HLIR output).
func TestHlir(t *testing.T) {
	ctx := context.Background()
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".vl") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{
				Stdout: &buf,
				Stderr: &ebuf,
			}

			// error is ignored, we just want it reflected in ebuf and diffed
			// against the golden file like everything else.
			_ = maincmd.HlirFiles(ctx, stdio, filepath.Join(srcDir, fi.Name()))
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateHlirTests)
			filetest.DiffErrors(t, fi, ebuf.String(), resultDir, testUpdateHlirTests)
		})
	}
}
