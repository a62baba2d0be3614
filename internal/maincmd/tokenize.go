package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/vela-lang/velac/lang/scanner"
	"github.com/vela-lang/velac/lang/token"
)

// Tokenize runs only the scanner phase on each file argument and prints the
// resulting token stream, one token per line.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(ctx, stdio, args...)
}

// TokenizeFiles scans every file in paths and writes its tokens to
// stdio.Stdout, continuing past a file with scan errors so every file still
// gets a best-effort listing (§7 "best-effort continuation").
func TokenizeFiles(ctx context.Context, stdio mainer.Stdio, paths ...string) error {
	fset := token.NewFileSet()
	var el scanner.ErrorList

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			el.Add(token.Position{Filename: path}, err.Error())
			continue
		}
		file := fset.AddFile(path, src)

		var s scanner.Scanner
		s.Init(file, src, el.Add)
		for {
			var v scanner.Value
			tok := s.Scan(&v)
			pos := file.Position(v.Pos)
			fmt.Fprintf(stdio.Stdout, "%s: %s", pos, tok)
			if v.Raw != "" {
				fmt.Fprintf(stdio.Stdout, " %q", v.Raw)
			}
			fmt.Fprintln(stdio.Stdout)
			if tok == token.EOF {
				break
			}
		}
	}
	return printError(stdio, el.Err())
}
