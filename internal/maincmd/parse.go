package maincmd

import (
	"context"

	"github.com/mna/mainer"

	"github.com/vela-lang/velac/lang/ast"
	"github.com/vela-lang/velac/lang/parser"
)

// Parse runs the scanner and parser phases on each file argument and prints
// the resulting abstract syntax tree.
func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(ctx, stdio, args...)
}

// ParseFiles parses every file in paths (and, transitively, every file it
// imports) and writes an indented tree dump of every parsed chunk, imported
// ones included, to stdio.Stdout.
func ParseFiles(ctx context.Context, stdio mainer.Stdio, paths ...string) error {
	fset, chunks, err := parser.ParseFiles(paths...)
	for _, ch := range chunks {
		printer := ast.Printer{Output: stdio.Stdout, File: fset.File(ch.Name)}
		if perr := printer.Print(ch); perr != nil {
			return printError(stdio, perr)
		}
	}
	return printError(stdio, err)
}
