package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/vela-lang/velac/lang/archconfig"
	"github.com/vela-lang/velac/lang/compiler"
)

// Typecheck parses a root file (plus everything it transitively imports),
// drives name resolution and type-checking to fixpoint, and reports every
// diagnostic collected along the way — without generating HLIR.
func (c *Cmd) Typecheck(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TypecheckFiles(ctx, stdio, args...)
}

func TypecheckFiles(ctx context.Context, stdio mainer.Stdio, paths ...string) error {
	cfg, err := archconfig.Load()
	if err != nil {
		return printError(stdio, err)
	}
	for _, root := range paths {
		prog, err := compiler.Load(cfg.Arch(), root)
		if err != nil {
			return printError(stdio, err)
		}
		for _, d := range prog.Diagnostics() {
			fmt.Fprintln(stdio.Stderr, d.Error())
		}
		if prog.Sink.Len() > 0 {
			return prog.Sink.Err()
		}
		fmt.Fprintf(stdio.Stdout, "%s: ok\n", root)
	}
	return nil
}
