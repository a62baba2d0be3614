package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/vela-lang/velac/lang/archconfig"
	"github.com/vela-lang/velac/lang/compiler"
	"github.com/vela-lang/velac/lang/emitc"
)

// Build runs the full pipeline (parse, type-check, HLIR generation) for
// each root file and writes the resulting placeholder translation unit, one
// per root, to stdout (§4.6, §1 Non-goals: no C compiler is actually
// invoked).
func (c *Cmd) Build(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return BuildFiles(ctx, stdio, args...)
}

func BuildFiles(ctx context.Context, stdio mainer.Stdio, paths ...string) error {
	cfg, err := archconfig.Load()
	if err != nil {
		return printError(stdio, err)
	}
	for _, root := range paths {
		res, err := compiler.Build(cfg.Arch(), root)
		if err != nil {
			return printError(stdio, err)
		}
		tu := emitc.Emit(res.RuntimeStatics())
		fmt.Fprint(stdio.Stdout, tu.Source)
		if err := emitc.WriteClangInvocation(stdio.Stdout, tu, root+".c", root+".out"); err != nil {
			return printError(stdio, err)
		}
	}
	return nil
}

// Hlir runs the pipeline through HLIR generation and prints one line per
// generated function/static variable, naming its emission symbol and
// (for a function) its basic-block count — a lighter-weight inspection
// point than Build's full placeholder translation unit.
func (c *Cmd) Hlir(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return HlirFiles(ctx, stdio, args...)
}

func HlirFiles(ctx context.Context, stdio mainer.Stdio, paths ...string) error {
	cfg, err := archconfig.Load()
	if err != nil {
		return printError(stdio, err)
	}
	for _, root := range paths {
		res, err := compiler.Build(cfg.Arch(), root)
		if err != nil {
			return printError(stdio, err)
		}
		for _, fn := range res.Functions {
			fmt.Fprintf(stdio.Stdout, "function %s: %d blocks, extern=%v\n", fn.Name, len(fn.Blocks), fn.ExternLibs)
		}
		for _, sv := range res.StaticVariables {
			fmt.Fprintf(stdio.Stdout, "variable %s: %s\n", sv.Name, sv.Type)
		}
		if len(res.ExternLibs) > 0 {
			fmt.Fprintf(stdio.Stdout, "extern libs: %v\n", res.ExternLibs)
		}
	}
	return nil
}
